package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

type schoolService interface {
	List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.School], error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.School, error)
	Create(ctx context.Context, req models.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, id string, req models.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, id string) error
}

// SchoolHandler exposes school endpoints.
type SchoolHandler struct {
	schools schoolService
	params  ListParams
}

// NewSchoolHandler constructs SchoolHandler.
func NewSchoolHandler(schools schoolService, params ListParams) *SchoolHandler {
	return &SchoolHandler{schools: schools, params: params}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Param search query string false "Search text"
// @Param searchField query string false "Field to search (Name, Code, Email, Phone)"
// @Param sort query string false "Sort token, e.g. Name_desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.schools.List(c.Request.Context(), actor, h.params.Query(c), service.ListOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result)
}

// Get godoc
// @Summary Get school
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	school, err := h.schools.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Create godoc
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body models.SchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req models.SchoolRequest
	if !bindJSON(c, &req, "invalid school payload") {
		return
	}
	school, err := h.schools.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// Update godoc
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body models.SchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	var req models.SchoolRequest
	if !bindJSON(c, &req, "invalid school payload") {
		return
	}
	school, err := h.schools.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Delete godoc
// @Summary Deactivate school
// @Tags Schools
// @Param id path string true "School ID"
// @Success 204
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	if err := h.schools.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
