package handler

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

//go:embed templates/list.html
var listTemplate string

// WebColumn is one column of an HTML listing. Sort names the sortable field
// behind the column; empty means the header is not a link.
type WebColumn struct {
	Path  string
	Label string
	Sort  string
}

type pageFunc func(c *gin.Context, actor *models.JWTClaims, q models.ListQuery) (rows [][]string, searchable []string, err error)

// WebResource binds a listing to an HTML page.
type WebResource struct {
	name    string
	title   string
	columns []WebColumn
	role    models.UserRole
	page    pageFunc
}

// NewWebResource renders one page of list with the given columns. The page
// is composed leniently and its presentation state lands in the gin context.
func NewWebResource[R any](
	name, title string,
	list func(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts service.ListOptions) (*models.ListResult[R], error),
	fields *fieldpath.Resolver[R],
	columns ...WebColumn,
) WebResource {
	page := func(c *gin.Context, actor *models.JWTClaims, q models.ListQuery) ([][]string, []string, error) {
		result, err := list(c.Request.Context(), actor, q, service.ListOptions{State: c, Lenient: true})
		if err != nil {
			return nil, nil, err
		}
		rows := make([][]string, len(result.Items))
		for i, item := range result.Items {
			row := make([]string, len(columns))
			for j, col := range columns {
				row[j] = fields.Text(item, col.Path)
			}
			rows[i] = row
		}
		searchable, _ := result.Meta["searchable"].([]string)
		return rows, searchable, nil
	}
	return WebResource{name: name, title: title, columns: columns, page: page}
}

// RequireRole limits the page to one role.
func (r WebResource) RequireRole(role models.UserRole) WebResource {
	r.role = role
	return r
}

type headerView struct {
	Label     string
	URL       string
	Indicator string
}

type pageView struct {
	Title        string
	Headers      []headerView
	Rows         [][]string
	Search       string
	SearchField  string
	SearchFields []string
	Sort         string
	Page         int
	TotalPages   int
	TotalCount   int
	PreviousURL  string
	NextURL      string
}

// WebHandler renders HTML listing pages.
type WebHandler struct {
	resources map[string]WebResource
	params    ListParams
	tmpl      *template.Template
	logger    *zap.Logger
}

// NewWebHandler parses the embedded template and indexes resources by name.
func NewWebHandler(params ListParams, logger *zap.Logger, resources ...WebResource) *WebHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]WebResource, len(resources))
	for _, r := range resources {
		byName[r.name] = r
	}
	return &WebHandler{
		resources: byName,
		params:    params,
		tmpl:      template.Must(template.New("list").Parse(listTemplate)),
		logger:    logger,
	}
}

// List renders /web/:resource.
func (h *WebHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	res, ok := h.resources[c.Param("resource")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "page not found"))
		return
	}
	if res.role != "" && actor.Role != res.role {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	q := h.params.Query(c)
	rows, searchable, err := res.page(c, actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	view := pageView{
		Title:        res.title,
		Rows:         rows,
		Search:       c.GetString(query.KeyCurrentFilter),
		SearchField:  c.GetString(query.KeyCurrentSearchField),
		SearchFields: searchable,
		Sort:         c.GetString(query.KeyCurrentSort),
		Page:         c.GetInt(query.KeyPageIndex),
		TotalPages:   c.GetInt(query.KeyTotalPages),
		TotalCount:   c.GetInt(query.KeyTotalCount),
	}
	activeField := c.GetString(query.KeyCurrentSortField)
	activeDir := c.GetString(query.KeyCurrentSortDirection)
	for _, col := range res.columns {
		header := headerView{Label: col.Label}
		if header.Label == "" {
			header.Label = col.Path
		}
		if token := c.GetString(query.SortParamKey(col.Sort)); col.Sort != "" && token != "" {
			header.URL = pageURL(view, token, 1, q.PageSize)
			if col.Sort == activeField {
				header.Indicator = "▲"
				if activeDir == string(query.Descending) {
					header.Indicator = "▼"
				}
			}
		}
		view.Headers = append(view.Headers, header)
	}
	if c.GetBool(query.KeyHasPrevious) {
		view.PreviousURL = pageURL(view, view.Sort, view.Page-1, q.PageSize)
	}
	if c.GetBool(query.KeyHasNext) {
		view.NextURL = pageURL(view, view.Sort, view.Page+1, q.PageSize)
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, view); err != nil {
		h.logger.Error("render listing page", zap.String("resource", res.name), zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render page"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// pageURL keeps the current filter while changing sort or page.
func pageURL(view pageView, sort string, page, pageSize int) string {
	values := url.Values{}
	if view.Search != "" {
		values.Set("search", view.Search)
	}
	if view.SearchField != "" {
		values.Set("searchField", view.SearchField)
	}
	if sort != "" {
		values.Set("sort", sort)
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(pageSize))
	return "?" + values.Encode()
}
