package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

func sampleSchools() []models.School {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.School{
		{ID: "s1", Code: "SMA1", Name: "SMA Negeri 1", Email: "one@sma.id", Active: true, CreatedAt: base},
		{ID: "s2", Code: "SMA2", Name: "sma negeri 2", Email: "two@sma.id", Active: true, CreatedAt: base.Add(time.Hour)},
		{ID: "s3", Code: "SMK1", Name: "SMK Bakti", Email: "smk@sma.id", Active: false, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "s4", Code: "MA1", Name: "Madrasah Aliyah", Email: "ma@sma.id", Active: true, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "s5", Code: "SMA3", Name: "SMA Negeri 3", Email: "three@sma.id", Active: true, CreatedAt: base.Add(4 * time.Hour)},
	}
}

func names(items []models.School) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Name
	}
	return out
}

func TestSchoolListSearchSortPage(t *testing.T) {
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), ListingDeps{}, nil, zap.NewNop())
	state := query.State{}

	res, err := svc.List(context.Background(), superadmin(), models.ListQuery{
		Search:      "negeri",
		SearchField: "Name",
		Sort:        "Name_desc",
		Page:        1,
		PageSize:    2,
	}, ListOptions{State: state})
	require.NoError(t, err)

	assert.Equal(t, []string{"SMA Negeri 3", "sma negeri 2"}, names(res.Items))
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 2, TotalCount: 3, TotalPages: 2}, res.Pagination)
	assert.Equal(t, "Name_desc", res.Meta["sort"])
	assert.Equal(t, true, res.Meta["has_next"])
	assert.Equal(t, "Name_asc", state.SortTokens()["Name"])
	assert.Equal(t, "Code_asc", state.String(query.SortParamKey("Code")))
	assert.Equal(t, "negeri", state.String(query.KeyCurrentFilter))
}

func TestSchoolListDefaultSortAndAdminScope(t *testing.T) {
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), ListingDeps{}, nil, zap.NewNop())

	res, err := svc.List(context.Background(), superadmin(), models.ListQuery{Page: 1, PageSize: 10}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Madrasah Aliyah", "SMA Negeri 1", "sma negeri 2", "SMA Negeri 3", "SMK Bakti"}, names(res.Items))
	assert.Equal(t, "", res.Meta["sort"])

	res, err = svc.List(context.Background(), adminOf("s2"), models.ListQuery{Page: 1, PageSize: 10}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"sma negeri 2"}, names(res.Items))
}

func TestSchoolListPageBeyondEnd(t *testing.T) {
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), ListingDeps{}, nil, zap.NewNop())

	res, err := svc.List(context.Background(), superadmin(), models.ListQuery{Page: 9, PageSize: 2}, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 5, res.Pagination.TotalCount)
	assert.Equal(t, 3, res.Pagination.TotalPages)
}

func TestSchoolListRejectsInvalidRequests(t *testing.T) {
	metrics := NewMetricsService()
	deps := ListingDeps{Metrics: metrics, Config: ListingConfig{StrictFields: true}}
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), deps, nil, zap.NewNop())
	ctx := context.Background()

	cases := map[string]models.ListQuery{
		"zero page size":     {Page: 1, PageSize: 0},
		"zero page":          {Page: 0, PageSize: 10},
		"unknown search":     {Page: 1, PageSize: 10, Search: "x", SearchField: "Address"},
		"unknown sort":       {Page: 1, PageSize: 10, Sort: "Address_asc"},
		"malformed sort":     {Page: 1, PageSize: 10, Sort: "Name"},
		"bad sort direction": {Page: 1, PageSize: 10, Sort: "Name_up"},
	}
	for name, q := range cases {
		_, err := svc.List(ctx, superadmin(), q, ListOptions{})
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr, name)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code, name)
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(metrics.listErrors.WithLabelValues(ResourceSchools, "validation")))
}

func TestSchoolListLenientIgnoresUnknownFields(t *testing.T) {
	deps := ListingDeps{Config: ListingConfig{StrictFields: true}}
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), deps, nil, zap.NewNop())
	state := query.State{}

	res, err := svc.List(context.Background(), superadmin(), models.ListQuery{
		Page: 1, PageSize: 10, Search: "x", SearchField: "Address", Sort: "Address_asc",
	}, ListOptions{Lenient: true, State: state})
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, "", state.String(query.KeyCurrentSort))
	assert.Equal(t, "", state.String(query.KeyCurrentFilter))
}

func TestSchoolListRepositoryFailure(t *testing.T) {
	repo := newMockSchoolRepo()
	repo.allErr = errors.New("connection refused")
	svc := NewSchoolService(repo, ListingDeps{}, nil, zap.NewNop())

	_, err := svc.List(context.Background(), superadmin(), models.ListQuery{Page: 1, PageSize: 10}, ListOptions{})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestSchoolListUsesCacheUntilWrite(t *testing.T) {
	repo := newMockSchoolRepo(sampleSchools()...)
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewSchoolService(repo, ListingDeps{Cache: cache}, nil, zap.NewNop())
	ctx := context.Background()
	q := models.ListQuery{Page: 1, PageSize: 2}

	_, err := svc.List(ctx, superadmin(), q, ListOptions{})
	require.NoError(t, err)
	_, err = svc.List(ctx, superadmin(), q, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.allCalls)

	_, err = svc.Create(ctx, models.SchoolRequest{Code: "smp9", Name: "SMP 9"})
	require.NoError(t, err)

	res, err := svc.List(ctx, superadmin(), models.ListQuery{Page: 1, PageSize: 10}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.allCalls)
	assert.Len(t, res.Items, 6)
}

func TestSchoolExportTable(t *testing.T) {
	svc := NewSchoolService(newMockSchoolRepo(sampleSchools()...), ListingDeps{}, nil, zap.NewNop())
	ctx := context.Background()

	table, err := svc.ExportTable(ctx, superadmin(), models.ListQuery{Search: "sma", SearchField: "Code", Sort: "Code_desc"}, []string{"Code", "Active"})
	require.NoError(t, err)
	assert.Equal(t, "Schools", table.Title)
	assert.Equal(t, [][]string{{"SMA3", "yes"}, {"SMA2", "yes"}, {"SMA1", "yes"}}, table.Rows)

	table, err = svc.ExportTable(ctx, superadmin(), models.ListQuery{}, nil)
	require.NoError(t, err)
	assert.Len(t, table.Columns, 7)
	assert.Len(t, table.Rows, 5)

	_, err = svc.ExportTable(ctx, superadmin(), models.ListQuery{}, []string{"Budget"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolCRUD(t *testing.T) {
	repo := newMockSchoolRepo(sampleSchools()...)
	svc := NewSchoolService(repo, ListingDeps{}, nil, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, models.SchoolRequest{Code: "smp1", Name: "SMP 1"})
	require.NoError(t, err)
	assert.Equal(t, "SMP1", created.Code)
	assert.True(t, created.Active)

	_, err = svc.Create(ctx, models.SchoolRequest{Code: "SMA1", Name: "Duplicate"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, models.SchoolRequest{Code: "bad code!", Name: "x"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(ctx, "s1", models.SchoolRequest{Code: "SMA1", Name: "SMA Negeri 1 Jakarta", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = svc.Get(ctx, adminOf("s2"), "s1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "s2"))
	assert.False(t, repo.schools["s2"].Active)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(svc.Delete(ctx, "missing")).Code)
}
