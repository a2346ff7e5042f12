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

var studentColumns = []string{
	"st.id", "st.school_id", "st.nis", "st.full_name", "st.gender", "st.class_name",
	"st.guardian_name", "st.guardian_phone", "st.active", "st.enrolled_at", "st.created_at", "st.updated_at",
	`sc.id AS "school.id"`, `sc.code AS "school.code"`, `sc.name AS "school.name"`,
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) base() sq.SelectBuilder {
	return psql.Select(studentColumns...).From("students st").Join("schools sc ON sc.id = st.school_id")
}

// All loads every student in scope joined with its school.
func (r *StudentRepository) All(ctx context.Context, scope models.Scope) ([]models.StudentDetail, error) {
	b := whereIf(r.base(), "st.school_id", scope.SchoolID).OrderBy("st.full_name")

	var students []models.StudentDetail
	if err := selectBuilt(ctx, r.db, &students, b, "list students"); err != nil {
		return nil, err
	}
	return students, nil
}

// FindByID returns a student with school details.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := getBuilt(ctx, r.db, &student, r.base().Where(sq.Eq{"st.id": id}), "find student"); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, school_id, nis, full_name, gender, class_name, guardian_name, guardian_phone, active, enrolled_at, created_at, updated_at)
	VALUES (:id, :school_id, :nis, :full_name, :gender, :class_name, :guardian_name, :guardian_phone, :active, :enrolled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", database.CheckPostgresError(err))
	}
	return nil
}

// Update writes the mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET school_id = :school_id, nis = :nis, full_name = :full_name, gender = :gender,
	class_name = :class_name, guardian_name = :guardian_name, guardian_phone = :guardian_phone, active = :active,
	enrolled_at = :enrolled_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", database.CheckPostgresError(err))
	}
	return expectAffected(res)
}

// Deactivate marks the student inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return expectAffected(res)
}
