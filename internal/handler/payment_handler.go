package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

type paymentService interface {
	List(ctx context.Context, actor *models.JWTClaims, filter service.PaymentFilter, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.PaymentDetail], error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.PaymentDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.PaymentRequest) (*models.PaymentDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// PaymentHandler exposes payment endpoints. Payments are immutable once
// recorded; corrections are made by deleting and recording again.
type PaymentHandler struct {
	payments paymentService
	params   ListParams
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments paymentService, params ListParams) *PaymentHandler {
	return &PaymentHandler{payments: payments, params: params}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param student_id query string false "Only payments of this student"
// @Param period_id query string false "Only payments for this period"
// @Param search query string false "Search text"
// @Param searchField query string false "Field to search (ReceiptNumber, Student, NIS, Method, Period, Reference)"
// @Param sort query string false "Sort token, e.g. PaidAt_desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	filter := service.PaymentFilter{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		PeriodID:  strings.TrimSpace(c.Query("period_id")),
	}
	result, err := h.payments.List(c.Request.Context(), actor, filter, h.params.Query(c), service.ListOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result)
}

// Get godoc
// @Summary Get payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Create godoc
// @Summary Record payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.PaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	payment, err := h.payments.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Delete godoc
// @Summary Delete payment and its proofs
// @Tags Payments
// @Param id path string true "Payment ID"
// @Success 204
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
