package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func newPeriodFixture() (*PaymentPeriodService, *mockPeriodRepo) {
	repo := newMockPeriodRepo(
		models.PaymentPeriod{ID: "pp-1", SchoolID: schoolA, Name: "Juli", StartsOn: day(7, 1), EndsOn: day(7, 31), DueOn: day(7, 10), Amount: 250000, Active: true},
		models.PaymentPeriod{ID: "pp-2", SchoolID: schoolA, Name: "Agustus", StartsOn: day(8, 1), EndsOn: day(8, 31), DueOn: day(8, 10), Amount: 300000, Active: true},
		models.PaymentPeriod{ID: "pp-3", SchoolID: schoolB, Name: "Juli", StartsOn: day(7, 1), EndsOn: day(7, 31), DueOn: day(7, 10), Amount: 150000, Active: true},
	)
	return NewPaymentPeriodService(repo, feeSchools(), ListingDeps{}, nil, zap.NewNop()), repo
}

func periodRequest(schoolID, name string) models.PaymentPeriodRequest {
	return models.PaymentPeriodRequest{
		SchoolID: schoolID,
		Name:     name,
		StartsOn: day(9, 1),
		EndsOn:   day(9, 30),
		DueOn:    day(9, 10),
		Amount:   275000,
	}
}

func TestPaymentPeriodListSortedAndScoped(t *testing.T) {
	svc, _ := newPeriodFixture()

	res, err := svc.List(context.Background(), adminOf(schoolA), models.ListQuery{Sort: "Amount_desc", Page: 1, PageSize: 10}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "pp-2", res.Items[0].ID)
	assert.Equal(t, "pp-1", res.Items[1].ID)
	assert.Equal(t, 2, res.Pagination.TotalCount)

	res, err = svc.List(context.Background(), superadmin(), models.ListQuery{Search: "juli", SearchField: "Name", Page: 1, PageSize: 10}, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestPaymentPeriodCreate(t *testing.T) {
	svc, repo := newPeriodFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, adminOf(schoolA), periodRequest(schoolA, " September "))
	require.NoError(t, err)
	assert.Equal(t, "September", created.Name)
	assert.True(t, created.Active)
	assert.Contains(t, repo.periods, created.ID)

	dueEarly := periodRequest(schoolA, "Oktober")
	dueEarly.DueOn = day(8, 20)
	_, err = svc.Create(ctx, adminOf(schoolA), dueEarly)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	reversed := periodRequest(schoolA, "November")
	reversed.EndsOn = day(8, 1)
	_, err = svc.Create(ctx, adminOf(schoolA), reversed)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, adminOf(schoolA), periodRequest(schoolB, "Desember"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, superadmin(), periodRequest(schoolC, "Desember"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentPeriodUpdateAndDelete(t *testing.T) {
	svc, repo := newPeriodFixture()
	ctx := context.Background()

	req := periodRequest(schoolA, "Juli Revisi")
	updated, err := svc.Update(ctx, adminOf(schoolA), "pp-1", req)
	require.NoError(t, err)
	assert.Equal(t, "Juli Revisi", updated.Name)
	assert.Equal(t, int64(275000), updated.Amount)
	assert.True(t, updated.Active)

	_, err = svc.Update(ctx, adminOf(schoolB), "pp-1", req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, adminOf(schoolA), "pp-2"))
	assert.False(t, repo.periods["pp-2"].Active)

	err = svc.Delete(ctx, superadmin(), "pp-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
