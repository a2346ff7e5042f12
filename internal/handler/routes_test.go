package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/middleware"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	schools := service.NewSchoolService(fixtureSchools(), service.ListingDeps{}, nil, zap.NewNop())
	handlers := Handlers{
		Health:  NewHealthHandler(service.NewMetricsService(), nil, nil),
		Schools: NewSchoolHandler(schools, ListParams{DefaultPageSize: 20, MaxPageSize: 100}),
		Web:     newWebHandler(),
	}
	r := gin.New()
	handlers.Register(r, "/api/v1", middleware.JWT(tokenTable{"root": rootClaims, "admin": adminClaims}))
	return r
}

func TestRoutesGuardAPI(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "list without token", method: http.MethodGet, path: "/api/v1/schools", status: http.StatusUnauthorized},
		{name: "list with token", method: http.MethodGet, path: "/api/v1/schools", token: "admin", status: http.StatusOK},
		{name: "school delete is superadmin only", method: http.MethodDelete, path: "/api/v1/schools/school-2", token: "admin", status: http.StatusForbidden},
		{name: "web page with token", method: http.MethodGet, path: "/web/schools", token: "root", status: http.StatusOK},
		{name: "web page without token", method: http.MethodGet, path: "/web/schools", status: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
