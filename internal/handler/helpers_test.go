package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/middleware"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
)

var (
	rootClaims  = &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}
	adminClaims = &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin, SchoolID: "school-1"}
)

func newContext(method, target string, body io.Reader, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

// schoolStore is an in-memory school repository.
type schoolStore struct {
	schools []models.School
}

func (s *schoolStore) All(ctx context.Context, scope models.Scope) ([]models.School, error) {
	out := make([]models.School, 0, len(s.schools))
	for _, sc := range s.schools {
		if scope.SchoolID == "" || sc.ID == scope.SchoolID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *schoolStore) FindByID(ctx context.Context, id string) (*models.School, error) {
	for _, sc := range s.schools {
		if sc.ID == id {
			cp := sc
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *schoolStore) Create(ctx context.Context, school *models.School) error {
	school.ID = "school-new"
	s.schools = append(s.schools, *school)
	return nil
}

func (s *schoolStore) Update(ctx context.Context, school *models.School) error {
	for i := range s.schools {
		if s.schools[i].ID == school.ID {
			s.schools[i] = *school
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *schoolStore) Deactivate(ctx context.Context, id string) error {
	for i := range s.schools {
		if s.schools[i].ID == id {
			s.schools[i].Active = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func fixtureSchools() *schoolStore {
	return &schoolStore{schools: []models.School{
		{ID: "school-1", Code: "SMA1", Name: "SMA Negeri 1", Email: "one@sma.id", Active: true},
		{ID: "school-2", Code: "SMA2", Name: "SMA Negeri 2", Email: "two@sma.id", Active: true},
		{ID: "school-3", Code: "SMK1", Name: "SMK <Bakti>", Email: "smk@sma.id", Active: false},
	}}
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
