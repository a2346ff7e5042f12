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

var periodColumns = []string{
	"pp.id", "pp.school_id", "pp.name", "pp.starts_on", "pp.ends_on", "pp.due_on", "pp.amount", "pp.active",
	"pp.created_at", "pp.updated_at",
	`sc.id AS "school.id"`, `sc.code AS "school.code"`, `sc.name AS "school.name"`,
}

// PaymentPeriodRepository manages persistence for payment periods.
type PaymentPeriodRepository struct {
	db *sqlx.DB
}

// NewPaymentPeriodRepository constructs a PaymentPeriodRepository.
func NewPaymentPeriodRepository(db *sqlx.DB) *PaymentPeriodRepository {
	return &PaymentPeriodRepository{db: db}
}

func (r *PaymentPeriodRepository) base() sq.SelectBuilder {
	return psql.Select(periodColumns...).From("payment_periods pp").Join("schools sc ON sc.id = pp.school_id")
}

// All loads every period in scope, newest first.
func (r *PaymentPeriodRepository) All(ctx context.Context, scope models.Scope) ([]models.PaymentPeriodDetail, error) {
	b := whereIf(r.base(), "pp.school_id", scope.SchoolID).OrderBy("pp.starts_on DESC")

	var periods []models.PaymentPeriodDetail
	if err := selectBuilt(ctx, r.db, &periods, b, "list payment periods"); err != nil {
		return nil, err
	}
	return periods, nil
}

// FindByID returns one period.
func (r *PaymentPeriodRepository) FindByID(ctx context.Context, id string) (*models.PaymentPeriodDetail, error) {
	var period models.PaymentPeriodDetail
	if err := getBuilt(ctx, r.db, &period, r.base().Where(sq.Eq{"pp.id": id}), "find payment period"); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment period: %w", err)
	}
	return &period, nil
}

// Create inserts a period.
func (r *PaymentPeriodRepository) Create(ctx context.Context, period *models.PaymentPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	const query = `INSERT INTO payment_periods (id, school_id, name, starts_on, ends_on, due_on, amount, active, created_at, updated_at)
	VALUES (:id, :school_id, :name, :starts_on, :ends_on, :due_on, :amount, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create payment period: %w", database.CheckPostgresError(err))
	}
	return nil
}

// Update writes the mutable period fields.
func (r *PaymentPeriodRepository) Update(ctx context.Context, period *models.PaymentPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payment_periods SET school_id = :school_id, name = :name, starts_on = :starts_on, ends_on = :ends_on,
	due_on = :due_on, amount = :amount, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, period)
	if err != nil {
		return fmt.Errorf("update payment period: %w", database.CheckPostgresError(err))
	}
	return expectAffected(res)
}

// Deactivate closes a period for new payments.
func (r *PaymentPeriodRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE payment_periods SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate payment period: %w", err)
	}
	return expectAffected(res)
}
