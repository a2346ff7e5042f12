package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/export"
)

// TableSource renders a searchable, sortable listing as an export table.
type TableSource interface {
	ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders listings to CSV or PDF files served through signed links.
type ExportService struct {
	sources   map[string]TableSource
	storage   exportFileStorage
	signer    downloadSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. sources is keyed by resource name.
func NewExportService(sources map[string]TableSource, files exportFileStorage, signer downloadSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		sources:   sources,
		storage:   files,
		signer:    signer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate searches and sorts the requested listing without paging, renders
// it and stores the file.
func (s *ExportService) Generate(ctx context.Context, actor *models.JWTClaims, req models.ExportRequest) (*models.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid export payload")
	}
	source, ok := s.sources[req.Resource]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resource %s cannot be exported", req.Resource))
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, validationError(err, err.Error())
	}

	table, err := source.ExportTable(ctx, actor, models.ListQuery{
		Search:      req.Search,
		SearchField: req.SearchField,
		Sort:        req.Sort,
	}, req.Columns)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}

	relPath, err := s.storage.Save(s.buildFilename(req.Resource, renderer.Extension()), payload)
	if err != nil {
		return nil, internalError(err, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(uuid.NewString(), relPath)
	if err != nil {
		return nil, internalError(err, "failed to sign export link")
	}
	s.metrics.ObserveExport(req.Resource, string(format), len(table.Rows))
	s.logger.Info("export generated",
		zap.String("resource", req.Resource),
		zap.String("format", string(format)),
		zap.Int("rows", len(table.Rows)),
		zap.String("path", relPath),
	)

	return &models.ExportResult{
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
		Rows:      len(table.Rows),
		Format:    string(format),
	}, nil
}

// Open validates a download token and opens the export it references.
func (s *ExportService) Open(token string) (*FileDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, internalError(err, "failed to open export")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, internalError(err, "failed to read export metadata")
	}
	contentType := "application/octet-stream"
	if format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(relPath), ".")); err == nil {
		if renderer, err := export.RendererFor(format); err == nil {
			contentType = renderer.ContentType()
		}
	}
	return &FileDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		MIMEType:  contentType,
		SizeBytes: info.Size(),
	}, nil
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup(0)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *ExportService) buildFilename(resource, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(resource), timestamp, randomSuffix(), strings.TrimPrefix(ext, "."))
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "export"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
