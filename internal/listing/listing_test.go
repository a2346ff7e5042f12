package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

func samplePayments() []models.PaymentDetail {
	school := models.SchoolRef{ID: "s1", Code: "SMA1", Name: "SMA Negeri 1"}
	ref := "TRX-88"
	return []models.PaymentDetail{
		{
			Payment: models.Payment{ID: "p1", ReceiptNumber: "RCP-000001", Amount: 150000, Method: models.PaymentMethodCash, PaidAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
			Student: models.StudentRef{ID: "st1", NIS: "1001", FullName: "Alice Putri", School: school},
			Period:  models.PeriodRef{ID: "pe1", Name: "Semester 1"},
		},
		{
			Payment: models.Payment{ID: "p2", ReceiptNumber: "RCP-000002", Amount: 90000, Method: models.PaymentMethodBankTransfer, Reference: &ref, PaidAt: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
			Student: models.StudentRef{ID: "st2", NIS: "1002", FullName: "Budi Santoso", School: school},
			Period:  models.PeriodRef{ID: "pe1", Name: "Semester 1"},
		},
	}
}

func TestPaymentsDefaultSortIsNewestFirst(t *testing.T) {
	composer := query.NewComposer(Payments)
	state := query.State{}

	page, err := composer.List(context.Background(), query.FromSlice(samplePayments()), state, query.NewRequest())
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p2", page[0].ID)
	assert.Equal(t, "PaidAt_asc", state.SortTokens()["PaidAt"])
}

func TestPaymentsSearchByReference(t *testing.T) {
	composer := query.NewComposer(Payments)

	got, err := composer.Search(query.FromSlice(samplePayments()), "trx", "Reference").Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)

	got, err = composer.Search(query.FromSlice(samplePayments()), "alice", "").Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestPaymentFieldsResolveNestedPaths(t *testing.T) {
	p := samplePayments()[1]

	assert.Equal(t, "SMA Negeri 1", PaymentFields.Text(p, "Student.School.Name"))
	assert.Equal(t, "TRX-88", PaymentFields.Text(p, "Reference"))
	assert.Equal(t, "", PaymentFields.Text(samplePayments()[0], "Reference"))
	assert.Equal(t, "", PaymentFields.Text(models.PaymentDetail{}, "Student.FullName"))
	assert.Contains(t, PaymentFields.Paths(), "Period.Name")
}

func TestUserFieldsHidePasswordHash(t *testing.T) {
	assert.NotContains(t, UserFields.Paths(), "PasswordHash")
	assert.Equal(t, []string{"Email", "FullName", "Role", "LastLogin"}, Users.SortFields())
}

func TestSortFieldsAreExportable(t *testing.T) {
	for _, field := range Schools.SearchFields() {
		assert.True(t, SchoolFields.Has(field), field)
	}
	assert.True(t, StudentFields.Has("School.Name"))
	assert.True(t, PaymentPeriodFields.Has("School.Code"))
}
