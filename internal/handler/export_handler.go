package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req models.ExportRequest) (*models.ExportResult, error)
	Open(token string) (*service.FileDownload, error)
}

// ExportHandler renders listings to CSV or PDF.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Export a listing
// @Description Searches and sorts the whole listing without paging and renders the chosen columns.
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body models.ExportRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ExportRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	result, err := h.exports.Generate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a rendered export
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.exports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, download)
}
