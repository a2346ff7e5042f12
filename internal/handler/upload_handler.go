package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 64 * 1024

type uploadService interface {
	Upload(ctx context.Context, actor *models.JWTClaims, paymentID string, upload service.FileUpload) (*models.Upload, error)
	List(ctx context.Context, actor *models.JWTClaims, paymentID string, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.Upload], error)
	DownloadURL(ctx context.Context, actor *models.JWTClaims, id string) (*models.SignedURL, error)
	Open(ctx context.Context, token string) (*service.FileDownload, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// UploadHandler manages payment proof documents.
type UploadHandler struct {
	uploads     uploadService
	params      ListParams
	maxFileSize int64
}

// NewUploadHandler constructs UploadHandler. maxFileSize bounds the request
// body; the service enforces the exact limit on the stored content.
func NewUploadHandler(uploads uploadService, params ListParams, maxFileSize int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, params: params, maxFileSize: maxFileSize}
}

// Create godoc
// @Summary Attach payment proof
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Payment ID"
// @Param file formData file true "PDF, JPEG or PNG proof"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /payments/{id}/uploads [post]
func (h *UploadHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if h.maxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrFileTooLarge, "file exceeds maximum size"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
		return
	}
	defer file.Close() //nolint:errcheck

	upload, err := h.uploads.Upload(c.Request.Context(), actor, c.Param("id"), service.FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}

// List godoc
// @Summary List payment proofs
// @Tags Uploads
// @Produce json
// @Param id path string true "Payment ID"
// @Param sort query string false "Sort token, e.g. CreatedAt_desc"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/uploads [get]
func (h *UploadHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.uploads.List(c.Request.Context(), actor, c.Param("id"), h.params.Query(c), service.ListOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result)
}

// DownloadURL godoc
// @Summary Signed download link for a proof
// @Tags Uploads
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} response.Envelope
// @Router /uploads/{id}/download-url [get]
func (h *UploadHandler) DownloadURL(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	signed, err := h.uploads.DownloadURL(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, signed, nil)
}

// Download godoc
// @Summary Download a proof through a signed token
// @Tags Uploads
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /files/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	download, err := h.uploads.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, download)
}

// Delete godoc
// @Summary Delete a proof
// @Tags Uploads
// @Param id path string true "Upload ID"
// @Success 204
// @Router /uploads/{id} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.uploads.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// serveFile streams download as an attachment and closes it.
func serveFile(c *gin.Context, download *service.FileDownload) {
	defer download.File.Close() //nolint:errcheck
	headers := map[string]string{
		"Content-Disposition":    mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}),
		"Cache-Control":          "private, no-store",
		"X-Content-Type-Options": "nosniff",
	}
	c.DataFromReader(http.StatusOK, download.SizeBytes, download.MIMEType, download.File, headers)
}
