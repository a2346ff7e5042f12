package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
)

func newWebHandler(resources ...WebResource) *WebHandler {
	if len(resources) == 0 {
		svc := service.NewSchoolService(fixtureSchools(), service.ListingDeps{}, nil, zap.NewNop())
		resources = append(resources, NewWebResource("schools", "Schools", svc.List, listing.SchoolFields,
			WebColumn{Path: "Code", Sort: "Code"},
			WebColumn{Path: "Name", Label: "School", Sort: "Name"},
			WebColumn{Path: "Email"},
		))
	}
	return NewWebHandler(ListParams{DefaultPageSize: 2, MaxPageSize: 10}, zap.NewNop(), resources...)
}

func TestWebHandlerRendersSortedPage(t *testing.T) {
	h := newWebHandler()
	c, w := newContext(http.MethodGet, "/web/schools?sort=Name_asc", nil, rootClaims)
	c.Params = append(c.Params, ginParam("resource", "schools"))

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "<td>SMA Negeri 1</td>")
	assert.Contains(t, body, "<td>SMA Negeri 2</td>")
	assert.NotContains(t, body, "Bakti")
	assert.Contains(t, body, "sort=Name_desc")
	assert.Contains(t, body, "sort=Code_asc")
	assert.Contains(t, body, "School ▲")
	assert.Contains(t, body, "page=2")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Contains(t, body, `<option value="Email">Email</option>`)
}

func TestWebHandlerEscapesValuesAndKeepsFilter(t *testing.T) {
	h := newWebHandler()
	c, w := newContext(http.MethodGet, "/web/schools?search=smk&searchField=Name&pageSize=10", nil, rootClaims)
	c.Params = append(c.Params, ginParam("resource", "schools"))

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "SMK &lt;Bakti&gt;")
	assert.NotContains(t, body, "SMA Negeri 1")
	assert.Contains(t, body, `<option value="Name" selected>Name</option>`)
	assert.Contains(t, body, "searchField=Name")
	assert.Contains(t, body, "1 records")
}

func TestWebHandlerIgnoresUnknownSort(t *testing.T) {
	h := newWebHandler()
	c, w := newContext(http.MethodGet, "/web/schools?sort=Budget_desc", nil, rootClaims)
	c.Params = append(c.Params, ginParam("resource", "schools"))

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "▼")
}

func TestWebHandlerUnknownResource(t *testing.T) {
	h := newWebHandler()
	c, w := newContext(http.MethodGet, "/web/invoices", nil, rootClaims)
	c.Params = append(c.Params, ginParam("resource", "invoices"))

	h.List(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebHandlerRequireRole(t *testing.T) {
	svc := service.NewSchoolService(fixtureSchools(), service.ListingDeps{}, nil, zap.NewNop())
	resource := NewWebResource("schools", "Schools", svc.List, listing.SchoolFields, WebColumn{Path: "Code"}).
		RequireRole(models.RoleSuperAdmin)
	h := newWebHandler(resource)

	c, w := newContext(http.MethodGet, "/web/schools", nil, adminClaims)
	c.Params = append(c.Params, ginParam("resource", "schools"))
	h.List(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newContext(http.MethodGet, "/web/schools", nil, nil)
	c.Params = append(c.Params, ginParam("resource", "schools"))
	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
