package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
)

func periodRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "school_id", "name", "starts_on", "ends_on", "due_on", "amount", "active", "created_at", "updated_at",
		"school.id", "school.code", "school.name",
	})
}

func TestPaymentPeriodRepositoryAllScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentPeriodRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payment_periods pp JOIN schools sc ON sc.id = pp.school_id WHERE pp.school_id = $1 ORDER BY pp.starts_on DESC`)).
		WithArgs("sc-1").
		WillReturnRows(periodRows().
			AddRow("pp-2", "sc-1", "Semester 2", now, now, now, int64(250000), true, now, now, "sc-1", "SMA1", "SMA Negeri 1").
			AddRow("pp-1", "sc-1", "Semester 1", now, now, now, int64(200000), false, now, now, "sc-1", "SMA1", "SMA Negeri 1"))

	periods, err := repo.All(context.Background(), models.Scope{SchoolID: "sc-1"})
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Semester 2", periods[0].Name)
	assert.Equal(t, "SMA Negeri 1", periods[0].School.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPeriodRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE pp.id = $1`)).
		WithArgs("ghost").
		WillReturnRows(periodRows())

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
