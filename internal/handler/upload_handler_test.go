package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

type uploadServiceMock struct {
	paymentID string
	filename  string
	content   []byte
	download  *service.FileDownload
	openErr   error
}

func (m *uploadServiceMock) Upload(ctx context.Context, actor *models.JWTClaims, paymentID string, upload service.FileUpload) (*models.Upload, error) {
	m.paymentID = paymentID
	m.filename = upload.Filename
	body, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, err
	}
	m.content = body
	return &models.Upload{ID: "upload-1", PaymentID: paymentID, FileName: upload.Filename, SizeBytes: int64(len(body))}, nil
}

func (m *uploadServiceMock) List(ctx context.Context, actor *models.JWTClaims, paymentID string, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.Upload], error) {
	return &models.ListResult[models.Upload]{}, nil
}

func (m *uploadServiceMock) DownloadURL(ctx context.Context, actor *models.JWTClaims, id string) (*models.SignedURL, error) {
	return &models.SignedURL{URL: "/api/v1/files/token-" + id}, nil
}

func (m *uploadServiceMock) Open(ctx context.Context, token string) (*service.FileDownload, error) {
	return m.download, m.openErr
}

func (m *uploadServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandlerCreate(t *testing.T) {
	mock := &uploadServiceMock{}
	h := NewUploadHandler(mock, ListParams{}, 1024)

	body, contentType := multipartBody(t, "file", "bukti.pdf", []byte("%PDF-1.4 proof"))
	c, w := newContext(http.MethodPost, "/api/v1/payments/payment-1/uploads", body, adminClaims)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = append(c.Params, ginParam("id", "payment-1"))

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "payment-1", mock.paymentID)
	assert.Equal(t, "bukti.pdf", mock.filename)
	assert.Equal(t, "%PDF-1.4 proof", string(mock.content))
}

func TestUploadHandlerCreateRequiresFile(t *testing.T) {
	h := NewUploadHandler(&uploadServiceMock{}, ListParams{}, 1024)

	body, contentType := multipartBody(t, "document", "bukti.pdf", []byte("x"))
	c, w := newContext(http.MethodPost, "/api/v1/payments/payment-1/uploads", body, adminClaims)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandlerDownloadStreamsAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mock := &uploadServiceMock{download: &service.FileDownload{File: file, Filename: "bukti bayar.pdf", MIMEType: "application/pdf", SizeBytes: 8}}
	h := NewUploadHandler(mock, ListParams{}, 0)
	c, w := newContext(http.MethodGet, "/api/v1/files/tok", nil, nil)

	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bukti bayar.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestUploadHandlerDownloadRejectsBadToken(t *testing.T) {
	mock := &uploadServiceMock{openErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")}
	h := NewUploadHandler(mock, ListParams{}, 0)
	c, w := newContext(http.MethodGet, "/api/v1/files/bad", nil, nil)

	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
