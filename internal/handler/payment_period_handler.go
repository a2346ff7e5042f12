package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

type periodService interface {
	List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.PaymentPeriodDetail], error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.PaymentPeriodDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.PaymentPeriodRequest) (*models.PaymentPeriodDetail, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.PaymentPeriodRequest) (*models.PaymentPeriodDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// PaymentPeriodHandler exposes payment period endpoints.
type PaymentPeriodHandler struct {
	periods periodService
	params  ListParams
}

// NewPaymentPeriodHandler constructs PaymentPeriodHandler.
func NewPaymentPeriodHandler(periods periodService, params ListParams) *PaymentPeriodHandler {
	return &PaymentPeriodHandler{periods: periods, params: params}
}

// List godoc
// @Summary List payment periods
// @Tags PaymentPeriods
// @Produce json
// @Param search query string false "Search text"
// @Param searchField query string false "Field to search (Name, School)"
// @Param sort query string false "Sort token, e.g. DueOn_desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payment-periods [get]
func (h *PaymentPeriodHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.periods.List(c.Request.Context(), actor, h.params.Query(c), service.ListOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result)
}

// Get godoc
// @Summary Get payment period
// @Tags PaymentPeriods
// @Produce json
// @Param id path string true "Payment period ID"
// @Success 200 {object} response.Envelope
// @Router /payment-periods/{id} [get]
func (h *PaymentPeriodHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := h.periods.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create payment period
// @Tags PaymentPeriods
// @Accept json
// @Produce json
// @Param payload body models.PaymentPeriodRequest true "Payment period payload"
// @Success 201 {object} response.Envelope
// @Router /payment-periods [post]
func (h *PaymentPeriodHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.PaymentPeriodRequest
	if !bindJSON(c, &req, "invalid payment period payload") {
		return
	}
	period, err := h.periods.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update payment period
// @Tags PaymentPeriods
// @Accept json
// @Produce json
// @Param id path string true "Payment period ID"
// @Param payload body models.PaymentPeriodRequest true "Payment period payload"
// @Success 200 {object} response.Envelope
// @Router /payment-periods/{id} [put]
func (h *PaymentPeriodHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.PaymentPeriodRequest
	if !bindJSON(c, &req, "invalid payment period payload") {
		return
	}
	period, err := h.periods.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Delete godoc
// @Summary Close payment period
// @Tags PaymentPeriods
// @Param id path string true "Payment period ID"
// @Success 204
// @Router /payment-periods/{id} [delete]
func (h *PaymentPeriodHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.periods.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
