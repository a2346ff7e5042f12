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

var paymentColumns = []string{
	"p.id", "p.receipt_number", "p.student_id", "p.period_id", "p.amount", "p.method", "p.reference", "p.notes",
	"p.paid_at", "p.recorded_by", "p.created_at",
	`st.id AS "student.id"`, `st.nis AS "student.nis"`, `st.full_name AS "student.full_name"`,
	`st.class_name AS "student.class_name"`,
	`sc.id AS "student.school.id"`, `sc.code AS "student.school.code"`, `sc.name AS "student.school.name"`,
	`pp.id AS "period.id"`, `pp.name AS "period.name"`, `pp.due_on AS "period.due_on"`,
}

// PaymentRepository manages persistence for payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) base() sq.SelectBuilder {
	return psql.Select(paymentColumns...).
		From("payments p").
		Join("students st ON st.id = p.student_id").
		Join("schools sc ON sc.id = st.school_id").
		Join("payment_periods pp ON pp.id = p.period_id")
}

// All loads every payment in scope with student, school and period details.
func (r *PaymentRepository) All(ctx context.Context, scope models.Scope) ([]models.PaymentDetail, error) {
	b := r.base()
	b = whereIf(b, "st.school_id", scope.SchoolID)
	b = whereIf(b, "p.student_id", scope.StudentID)
	b = whereIf(b, "p.period_id", scope.PeriodID)
	b = b.OrderBy("p.paid_at DESC")

	var payments []models.PaymentDetail
	if err := selectBuilt(ctx, r.db, &payments, b, "list payments"); err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByID returns one payment with details.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	var payment models.PaymentDetail
	if err := getBuilt(ctx, r.db, &payment, r.base().Where(sq.Eq{"p.id": id}), "find payment"); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// Create inserts a payment and assigns its receipt number from the
// receipt_number_seq sequence, e.g. RCP-2024-000042.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}

	const query = `INSERT INTO payments (id, receipt_number, student_id, period_id, amount, method, reference, notes, paid_at, recorded_by, created_at)
	VALUES ($1, 'RCP-' || to_char($8::timestamptz, 'YYYY') || '-' || LPAD(nextval('receipt_number_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	RETURNING receipt_number, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		payment.ID, payment.StudentID, payment.PeriodID, payment.Amount, payment.Method,
		payment.Reference, payment.Notes, payment.PaidAt, payment.RecordedBy)
	if err := row.Scan(&payment.ReceiptNumber, &payment.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", database.CheckPostgresError(err))
	}
	return nil
}

// Delete removes a payment. Uploads cascade in the database.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return expectAffected(res)
}
