package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
)

var uploadColumns = []string{
	"u.id", "u.payment_id", "u.file_name", "u.mime_type", "u.size_bytes", "u.checksum", "u.storage_path",
	"u.uploaded_by", "u.created_at",
}

// UploadRepository stores payment proof metadata.
type UploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository constructs the repository.
func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// All loads uploads in scope. A school scope joins through payments and students.
func (r *UploadRepository) All(ctx context.Context, scope models.Scope) ([]models.Upload, error) {
	b := psql.Select(uploadColumns...).From("uploads u")
	if scope.SchoolID != "" {
		b = b.Join("payments p ON p.id = u.payment_id").
			Join("students st ON st.id = p.student_id").
			Where(sq.Eq{"st.school_id": scope.SchoolID})
	}
	b = whereIf(b, "u.payment_id", scope.PaymentID).OrderBy("u.created_at")

	var uploads []models.Upload
	if err := selectBuilt(ctx, r.db, &uploads, b, "list uploads"); err != nil {
		return nil, err
	}
	return uploads, nil
}

// FindByID retrieves one upload row.
func (r *UploadRepository) FindByID(ctx context.Context, id string) (*models.Upload, error) {
	b := psql.Select(uploadColumns...).From("uploads u").Where(sq.Eq{"u.id": id})
	var upload models.Upload
	if err := getBuilt(ctx, r.db, &upload, b, "find upload"); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find upload: %w", err)
	}
	return &upload, nil
}

// Create stores metadata for an uploaded file.
func (r *UploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO uploads (id, payment_id, file_name, mime_type, size_bytes, checksum, storage_path, uploaded_by, created_at)
	VALUES (:id, :payment_id, :file_name, :mime_type, :size_bytes, :checksum, :storage_path, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, upload); err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

// Delete removes an upload row.
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return expectAffected(res)
}
