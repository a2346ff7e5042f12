package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

type studentService interface {
	List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.StudentDetail], error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.StudentRequest) (*models.StudentDetail, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.StudentRequest) (*models.StudentDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	params   ListParams
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, params ListParams) *StudentHandler {
	return &StudentHandler{students: students, params: params}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search text"
// @Param searchField query string false "Field to search (FullName, NIS, ClassName, GuardianName, School)"
// @Param sort query string false "Sort token, e.g. FullName_asc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.students.List(c.Request.Context(), actor, h.params.Query(c), service.ListOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Enrol student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.StudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.StudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Deactivate student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
