package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/storage"
)

type uploadStore interface {
	All(ctx context.Context, scope models.Scope) ([]models.Upload, error)
	FindByID(ctx context.Context, id string) (*models.Upload, error)
	Create(ctx context.Context, upload *models.Upload) error
	Delete(ctx context.Context, id string) error
}

type paymentLookup interface {
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
}

type uploadFileStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (*storage.StoredFile, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type downloadSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// FileUpload carries an incoming payment proof.
type FileUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// FileDownload bundles an opened file with the metadata needed to stream it.
type FileDownload struct {
	File      *os.File
	Filename  string
	MIMEType  string
	SizeBytes int64
}

// UploadServiceConfig holds validation parameters for payment proofs.
type UploadServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// UploadService stores proof-of-payment documents and serves them through
// signed links.
type UploadService struct {
	repo     uploadStore
	payments paymentLookup
	storage  uploadFileStorage
	signer   downloadSigner
	list     *lister[models.Upload]
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      UploadServiceConfig
}

// NewUploadService constructs the service with defaults.
func NewUploadService(repo uploadStore, payments paymentLookup, files uploadFileStorage, signer downloadSigner, deps ListingDeps, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &UploadService{
		repo:     repo,
		payments: payments,
		storage:  files,
		signer:   signer,
		list:     newLister[models.Upload](ResourceUploads, listing.Uploads, nil, repo.All, deps),
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Upload stores a proof for paymentID.
func (s *UploadService) Upload(ctx context.Context, actor *models.JWTClaims, paymentID string, upload FileUpload) (*models.Upload, error) {
	if _, err := s.payment(ctx, actor, paymentID); err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := s.detectMime(upload.Content)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("payments/%s/%s", paymentID, generateFilename(mimeType))
	stored, err := s.storage.SaveStream(name, upload.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		return nil, internalError(err, "failed to persist upload")
	}

	item := &models.Upload{
		PaymentID:   paymentID,
		FileName:    displayName(upload.Filename),
		MIMEType:    mimeType,
		SizeBytes:   stored.Size,
		Checksum:    stored.Checksum,
		StoragePath: stored.Name,
	}
	if actor != nil {
		item.UploadedBy = actor.UserID
	}
	if err := s.repo.Create(ctx, item); err != nil {
		_ = s.storage.Delete(stored.Name)
		return nil, internalError(err, "failed to create upload metadata")
	}
	s.metrics.ObserveUpload(stored.Size)
	invalidateListings(ctx, s.cache, ResourceUploads)
	s.logger.Info("payment upload stored",
		zap.String("upload_id", item.ID),
		zap.String("payment_id", paymentID),
		zap.String("checksum", item.Checksum),
	)
	return item, nil
}

// List returns one page of the proofs attached to paymentID.
func (s *UploadService) List(ctx context.Context, actor *models.JWTClaims, paymentID string, q models.ListQuery, opts ListOptions) (*models.ListResult[models.Upload], error) {
	if _, err := s.payment(ctx, actor, paymentID); err != nil {
		return nil, err
	}
	scope := scopeFor(actor)
	scope.PaymentID = paymentID
	return s.list.list(ctx, scope, q, opts)
}

// Get returns upload metadata visible to actor.
func (s *UploadService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Upload, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "upload not found", "failed to load upload")
	}
	if _, err := s.payment(ctx, actor, item.PaymentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "upload not found")
	}
	return item, nil
}

// DownloadURL generates a signed link for the upload.
func (s *UploadService) DownloadURL(ctx context.Context, actor *models.JWTClaims, id string) (*models.SignedURL, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(item.ID, item.StoragePath)
	if err != nil {
		return nil, internalError(err, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &models.SignedURL{URL: fmt.Sprintf("%s/files/%s", base, token), ExpiresAt: expiresAt}, nil
}

// Open validates a download token and opens the referenced file.
func (s *UploadService) Open(ctx context.Context, token string) (*FileDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	id, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "upload not found", "failed to load upload")
	}
	if relPath != item.StoragePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, internalError(err, "failed to open upload")
	}
	return &FileDownload{File: file, Filename: item.FileName, MIMEType: item.MIMEType, SizeBytes: item.SizeBytes}, nil
}

// Delete removes an upload and its stored file.
func (s *UploadService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "upload not found", "failed to delete upload")
	}
	if err := s.storage.Delete(item.StoragePath); err != nil {
		s.logger.Warn("failed to remove upload file", zap.String("upload_id", id), zap.Error(err))
	}
	invalidateListings(ctx, s.cache, ResourceUploads)
	return nil
}

func (s *UploadService) payment(ctx context.Context, actor *models.JWTClaims, id string) (*models.PaymentDetail, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment not found", "failed to load payment")
	}
	if !canAccessSchool(actor, payment.Student.School.ID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return payment, nil
}

// detectMime sniffs the content type and rewinds content.
func (s *UploadService) detectMime(content io.ReadSeeker) (string, error) {
	detected, err := mimetype.DetectReader(content)
	if err != nil {
		return "", internalError(err, "failed to inspect file")
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", internalError(err, "failed to reset upload stream")
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if detected.Is(allowed) {
			return strings.ToLower(allowed), nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %s is not allowed", detected.String()))
}

// generateFilename names stored files by upload time, a random suffix and
// the extension of the sniffed type.
func generateFilename(mimeType string) string {
	ext := ".bin"
	if known := mimetype.Lookup(mimeType); known != nil && known.Extension() != "" {
		ext = known.Extension()
	}
	return fmt.Sprintf("%d_%s%s", time.Now().Unix(), randomSuffix(), ext)
}

// displayName keeps the base name of the client supplied file name.
func displayName(raw string) string {
	name := strings.TrimSpace(filepath.Base(filepath.FromSlash(strings.ReplaceAll(raw, "\\", "/"))))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
