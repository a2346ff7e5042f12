package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/export"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// ListOptions tunes a single listing call.
type ListOptions struct {
	// State receives the presentation values written while composing the
	// page (sort toggle tokens, current filter, page counts).
	State query.StateWriter
	// Lenient ignores unknown fields even when strict field checking is on.
	Lenient bool
}

// ListingConfig carries the composer settings shared by every listing.
type ListingConfig struct {
	StrictFields      bool
	Workers           int
	ParallelThreshold int
	CacheTTL          time.Duration
}

// ListingDeps groups collaborators shared by the listing services.
type ListingDeps struct {
	Cache   *CacheService
	Metrics *MetricsService
	Config  ListingConfig
	Logger  *zap.Logger
}

type loader[R any] func(ctx context.Context, scope models.Scope) ([]R, error)

// lister binds one record type's field table to its storage loader.
type lister[R any] struct {
	resource string
	cfg      *query.Config[R]
	strict   *query.Composer[R]
	lenient  *query.Composer[R]
	fields   *fieldpath.Resolver[R]
	load     loader[R]
	deps     ListingDeps
}

func newLister[R any](resource string, cfg *query.Config[R], fields *fieldpath.Resolver[R], load loader[R], deps ListingDeps) *lister[R] {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	parallel := query.WithParallelism(deps.Config.Workers, deps.Config.ParallelThreshold)
	return &lister[R]{
		resource: resource,
		cfg:      cfg,
		strict:   query.NewComposer(cfg, parallel, query.WithStrictFields(deps.Config.StrictFields)),
		lenient:  query.NewComposer(cfg, parallel),
		fields:   fields,
		load:     load,
		deps:     deps,
	}
}

func (l *lister[R]) cacheKey(scope models.Scope) string {
	return Key("listing", l.resource, scope.SchoolID, scope.StudentID, scope.PeriodID, scope.PaymentID)
}

// source returns a lazy loader for scope. Every enumeration re-evaluates it;
// the cache absorbs the second read of a count-then-page listing.
func (l *lister[R]) source(scope models.Scope) query.Source[R] {
	key := l.cacheKey(scope)
	return func(ctx context.Context) ([]R, error) {
		var cached []R
		if hit, err := l.deps.Cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
		records, err := l.load(ctx, scope)
		if err != nil {
			return nil, err
		}
		l.deps.Metrics.ObserveSourceRows(l.resource, len(records))
		_ = l.deps.Cache.Set(ctx, key, records, l.deps.Config.CacheTTL)
		return records, nil
	}
}

func (l *lister[R]) list(ctx context.Context, scope models.Scope, q models.ListQuery, opts ListOptions) (*models.ListResult[R], error) {
	start := time.Now()
	defer func() { l.deps.Metrics.ObserveListing(l.resource, time.Since(start)) }()

	composer := l.strict
	if opts.Lenient {
		composer = l.lenient
	}
	state := query.State{}
	req := query.Request{
		Search:      strings.TrimSpace(q.Search),
		SearchField: q.SearchField,
		SortOrder:   q.Sort,
		PageIndex:   q.Page,
		PageSize:    q.PageSize,
	}
	items, err := composer.List(ctx, query.From(l.source(scope)), state, req)
	if err != nil {
		return nil, l.fail(err)
	}
	if opts.State != nil {
		for key, value := range state {
			opts.State.Set(key, value)
		}
	}
	if items == nil {
		items = []R{}
	}
	return &models.ListResult[R]{
		Items: items,
		Pagination: models.Pagination{
			Page:       state.Int(query.KeyPageIndex),
			PageSize:   state.Int(query.KeyPageSize),
			TotalCount: state.Int(query.KeyTotalCount),
			TotalPages: state.Int(query.KeyTotalPages),
		},
		Meta: l.meta(state),
	}, nil
}

func (l *lister[R]) meta(state query.State) map[string]interface{} {
	return map[string]interface{}{
		"sort":           state.String(query.KeyCurrentSort),
		"sort_field":     state.String(query.KeyCurrentSortField),
		"sort_direction": state.String(query.KeyCurrentSortDirection),
		"search":         state.String(query.KeyCurrentFilter),
		"search_field":   state.String(query.KeyCurrentSearchField),
		"sort_tokens":    state.SortTokens(),
		"has_previous":   state.Bool(query.KeyHasPrevious),
		"has_next":       state.Bool(query.KeyHasNext),
		"sortable":       l.cfg.SortFields(),
		"searchable":     l.cfg.SearchFields(),
	}
}

// table searches and sorts the whole scope without paging and projects the
// requested column paths. No columns selects every resolvable path.
func (l *lister[R]) table(ctx context.Context, scope models.Scope, q models.ListQuery, columns []string, title string) (export.Table, error) {
	if l.fields == nil {
		return export.Table{}, appErrors.Clone(appErrors.ErrValidation, l.resource+" cannot be exported")
	}
	if len(columns) == 0 {
		columns = l.fields.Paths()
	}
	cols := make([]export.Column, 0, len(columns))
	for _, path := range columns {
		if !l.fields.Has(path) {
			return export.Table{}, appErrors.Clone(appErrors.ErrValidation, "unknown export column "+path)
		}
		cols = append(cols, export.Column{Key: path, Label: path})
	}

	seq := l.lenient.Search(query.From(l.source(scope)), strings.TrimSpace(q.Search), q.SearchField)
	if field, dir, ok := query.ParseSortOrder(q.Sort); ok && l.cfg.CanSort(field) {
		seq = l.lenient.Sort(seq, field, dir)
	} else if key := l.cfg.DefaultSort(); key != nil {
		seq = seq.OrderBy(key, query.Ascending)
	}
	records, err := seq.Collect(ctx)
	if err != nil {
		return export.Table{}, l.fail(err)
	}

	rows := make([][]string, len(records))
	for i, record := range records {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = l.fields.Text(record, col.Key)
		}
		rows[i] = row
	}
	return export.Table{Title: title, Columns: cols, Rows: rows}, nil
}

func (l *lister[R]) fail(err error) error {
	switch {
	case errors.Is(err, query.ErrInvalidPageSize),
		errors.Is(err, query.ErrInvalidPageIndex),
		errors.Is(err, query.ErrUnknownField),
		errors.Is(err, query.ErrInvalidSortOrder):
		l.deps.Metrics.RecordListingError(l.resource, "validation")
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.TrimPrefix(err.Error(), "query: "))
	default:
		l.deps.Metrics.RecordListingError(l.resource, "internal")
		l.deps.Logger.Error("listing failed", zap.String("resource", l.resource), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+l.resource)
	}
}

// invalidateListings drops every cached listing source of resources.
func invalidateListings(ctx context.Context, cache *CacheService, resources ...string) {
	patterns := make([]string, len(resources))
	for i, r := range resources {
		patterns[i] = Key("listing", r) + ":*"
	}
	_ = cache.Invalidate(ctx, patterns...)
}
