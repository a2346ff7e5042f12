package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
)

// ListParams holds the paging defaults applied to list query strings.
type ListParams struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query reads search, searchField, sort, page and pageSize. Missing or
// unparsable numbers fall back to the first page and the default size, and
// sizes above the maximum are clamped.
func (p ListParams) Query(c *gin.Context) models.ListQuery {
	defaultSize := p.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = 20
	}
	q := models.ListQuery{
		Search:      strings.TrimSpace(c.Query("search")),
		SearchField: strings.TrimSpace(c.Query("searchField")),
		Sort:        strings.TrimSpace(c.Query("sort")),
		Page:        positiveInt(c.Query("page"), 1),
		PageSize:    positiveInt(c.Query("pageSize"), defaultSize),
	}
	if p.MaxPageSize > 0 && q.PageSize > p.MaxPageSize {
		q.PageSize = p.MaxPageSize
	}
	return q
}

func positiveInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
