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
	"github.com/noah-isme/sma-fee-tracker/pkg/database"
)

var schoolColumns = []string{"sc.id", "sc.code", "sc.name", "sc.address", "sc.phone", "sc.email", "sc.active", "sc.created_at", "sc.updated_at"}

// SchoolRepository manages persistence for schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// All loads every school visible in scope, ordered by name.
func (r *SchoolRepository) All(ctx context.Context, scope models.Scope) ([]models.School, error) {
	b := psql.Select(schoolColumns...).From("schools sc").OrderBy("sc.name")
	b = whereIf(b, "sc.id", scope.SchoolID)

	var schools []models.School
	if err := selectBuilt(ctx, r.db, &schools, b, "list schools"); err != nil {
		return nil, err
	}
	return schools, nil
}

// FindByID returns a school by identifier.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	b := psql.Select(schoolColumns...).From("schools sc").Where(sq.Eq{"sc.id": id})
	var school models.School
	if err := getBuilt(ctx, r.db, &school, b, "find school"); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now

	const query = `INSERT INTO schools (id, code, name, address, phone, email, active, created_at, updated_at)
	VALUES (:id, :code, :name, :address, :phone, :email, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", database.CheckPostgresError(err))
	}
	return nil
}

// Update writes the mutable school fields.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET code = :code, name = :name, address = :address, phone = :phone, email = :email,
	active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, school)
	if err != nil {
		return fmt.Errorf("update school: %w", database.CheckPostgresError(err))
	}
	return expectAffected(res)
}

// Deactivate soft deletes a school.
func (r *SchoolRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE schools SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate school: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
