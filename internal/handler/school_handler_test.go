package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/service"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *struct{ Code string } `json:"error"`
	Pagination map[string]int         `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, body *bytes.Buffer) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func newSchoolHandler() *SchoolHandler {
	svc := service.NewSchoolService(fixtureSchools(), service.ListingDeps{}, nil, zap.NewNop())
	return NewSchoolHandler(svc, ListParams{DefaultPageSize: 2, MaxPageSize: 10})
}

func TestSchoolHandlerListPagesAndMeta(t *testing.T) {
	h := newSchoolHandler()
	c, w := newContext(http.MethodGet, "/api/v1/schools?sort=Code_desc&pageSize=2&page=1", nil, rootClaims)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w.Body)
	var items []struct{ Code string }
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Equal(t, []struct{ Code string }{{"SMK1"}, {"SMA2"}}, items)
	assert.Equal(t, map[string]int{"page": 1, "page_size": 2, "total_count": 3, "total_pages": 2}, env.Pagination)
	assert.Equal(t, "Code_desc", env.Meta["sort"])
	assert.Equal(t, true, env.Meta["has_next"])
	tokens, ok := env.Meta["sort_tokens"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Code_asc", tokens["Code"])
	assert.Equal(t, "Name_asc", tokens["Name"])
}

func TestSchoolHandlerListScopesAdmin(t *testing.T) {
	h := newSchoolHandler()
	c, w := newContext(http.MethodGet, "/api/v1/schools", nil, adminClaims)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w.Body).Pagination["total_count"])
}

func TestSchoolHandlerListRequiresUser(t *testing.T) {
	h := newSchoolHandler()
	c, w := newContext(http.MethodGet, "/api/v1/schools", nil, nil)
	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSchoolHandlerCreate(t *testing.T) {
	h := newSchoolHandler()

	c, w := newContext(http.MethodPost, "/api/v1/schools", bytes.NewBufferString(`{"code":"smp1","name":"SMP 1"}`), rootClaims)
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Code   string
		Active bool
	}
	require.NoError(t, json.Unmarshal(decode(t, w.Body).Data, &created))
	assert.Equal(t, "SMP1", created.Code)
	assert.True(t, created.Active)

	c, w = newContext(http.MethodPost, "/api/v1/schools", bytes.NewBufferString(`{"code":`), rootClaims)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w.Body).Error.Code)
}

func TestSchoolHandlerGetMissing(t *testing.T) {
	h := newSchoolHandler()
	c, w := newContext(http.MethodGet, "/api/v1/schools/nope", nil, rootClaims)
	c.Params = append(c.Params, ginParam("id", "nope"))
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
