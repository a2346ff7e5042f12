package query

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrNilConfig        = errors.New("query: nil config")
	ErrNilSource        = errors.New("query: nil source")
	ErrNilState         = errors.New("query: nil state")
	ErrInvalidPageSize  = errors.New("query: page size must be positive")
	ErrInvalidPageIndex = errors.New("query: page index must be at least 1")
	ErrUnknownField     = errors.New("query: unknown field")
	ErrInvalidSortOrder = errors.New("query: invalid sort order")
)

// DefaultPageSize is used by callers that do not supply a page size.
const DefaultPageSize = 20

const defaultParallelThreshold = 512

// Request holds raw, untrusted listing parameters.
type Request struct {
	Search      string
	SearchField string
	SortOrder   string
	PageIndex   int
	PageSize    int
}

// NewRequest returns a request for the first page with the default page size.
func NewRequest() Request {
	return Request{PageIndex: 1, PageSize: DefaultPageSize}
}

// Option tunes a Composer.
type Option func(*options)

type options struct {
	strict    bool
	workers   int
	threshold int
}

// WithStrictFields makes List reject unknown search fields and malformed or
// unknown sort tokens with an error instead of ignoring them.
func WithStrictFields(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithParallelism bounds predicate fan-out. Candidate sets smaller than
// threshold are filtered sequentially; threshold <= 0 disables fan-out.
func WithParallelism(workers, threshold int) Option {
	return func(o *options) {
		if workers > 0 {
			o.workers = workers
		}
		o.threshold = threshold
	}
}

// Composer applies search, sort and pagination for one record type.
type Composer[R any] struct {
	cfg  *Config[R]
	opts options
}

// NewComposer builds a composer over cfg.
func NewComposer[R any](cfg *Config[R], opts ...Option) *Composer[R] {
	o := options{workers: runtime.GOMAXPROCS(0), threshold: defaultParallelThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return &Composer[R]{cfg: cfg, opts: o}
}

// Config exposes the underlying field table.
func (c *Composer[R]) Config() *Config[R] {
	return c.cfg
}

// Search filters seq by the search string. An empty search string or an unknown
// field leaves seq untouched; an empty field matches any searchable field.
func (c *Composer[R]) Search(seq Seq[R], search, field string) Seq[R] {
	if search == "" || c.cfg == nil {
		return seq
	}
	if field != "" {
		match, ok := c.cfg.predicate(field)
		if !ok {
			return seq
		}
		return seq.whereParallel(func(r R) bool {
			return match(r, search)
		}, c.opts.workers, c.opts.threshold)
	}
	if len(c.cfg.searches) == 0 {
		return seq
	}
	searches := c.cfg.searches
	return seq.whereParallel(func(r R) bool {
		for _, f := range searches {
			if f.Match(r, search) {
				return true
			}
		}
		return false
	}, c.opts.workers, c.opts.threshold)
}

// Sort orders seq by a single sortable field. Empty or unknown fields leave seq
// untouched. Any direction other than Descending sorts ascending.
func (c *Composer[R]) Sort(seq Seq[R], field string, dir Direction) Seq[R] {
	if field == "" || c.cfg == nil {
		return seq
	}
	key, ok := c.cfg.sortKey(field)
	if !ok {
		return seq
	}
	return seq.OrderBy(key, dir)
}

// SortByToken sorts using a combined "<field>_asc" / "<field>_desc" token.
func (c *Composer[R]) SortByToken(seq Seq[R], token string) Seq[R] {
	field, dir, ok := ParseSortOrder(token)
	if !ok {
		return seq
	}
	return c.Sort(seq, field, dir)
}

// SearchAndSort narrows seq first and sorts the remainder.
func (c *Composer[R]) SearchAndSort(seq Seq[R], search, searchField, sortField string, dir Direction) Seq[R] {
	return c.Sort(c.Search(seq, search, searchField), sortField, dir)
}

// List returns one page of seq after search and sort, writing sort links and
// page counts into state. The filtered sequence is enumerated twice: once to
// count it and once to slice the page.
func (c *Composer[R]) List(ctx context.Context, seq Seq[R], state StateWriter, req Request) ([]R, error) {
	if c.cfg == nil {
		return nil, ErrNilConfig
	}
	if state == nil {
		return nil, ErrNilState
	}
	if req.PageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, req.PageSize)
	}
	if req.PageIndex < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageIndex, req.PageIndex)
	}

	sortField, sortDir, err := c.resolveSort(req.SortOrder)
	if err != nil {
		return nil, err
	}

	search, searchField := req.Search, req.SearchField
	if searchField != "" && !c.cfg.CanSearch(searchField) {
		if c.opts.strict {
			return nil, fmt.Errorf("%w: search field %q", ErrUnknownField, searchField)
		}
		search, searchField = "", ""
	}

	tokens := make(map[string]string, len(c.cfg.sorts))
	for _, f := range c.cfg.sorts {
		next := NextSortToken(f.Name, sortField, sortDir)
		tokens[f.Name] = next
		state.Set(SortParamKey(f.Name), next)
	}
	state.Set(KeySortTokens, tokens)
	current := ""
	if sortField != "" {
		current = Token(sortField, sortDir)
	}
	state.Set(KeyCurrentSort, current)
	state.Set(KeyCurrentSortField, sortField)
	state.Set(KeyCurrentSortDirection, string(sortDir))
	state.Set(KeyCurrentFilter, search)
	state.Set(KeyCurrentSearchField, searchField)

	filtered := c.SearchAndSort(seq, search, searchField, sortField, sortDir)
	if sortField == "" && c.cfg.defaultSort != nil {
		filtered = filtered.OrderBy(c.cfg.defaultSort, Ascending)
	}

	total, err := filtered.Count(ctx)
	if err != nil {
		return nil, err
	}
	pages := total / req.PageSize
	if total%req.PageSize != 0 {
		pages++
	}
	state.Set(KeyTotalCount, total)
	state.Set(KeyTotalPages, pages)
	state.Set(KeyPageIndex, req.PageIndex)
	state.Set(KeyPageSize, req.PageSize)
	state.Set(KeyHasPrevious, req.PageIndex > 1)
	state.Set(KeyHasNext, req.PageIndex < pages)

	if req.PageIndex > pages {
		return []R{}, nil
	}
	return filtered.Skip((req.PageIndex - 1) * req.PageSize).Take(req.PageSize).Collect(ctx)
}

func (c *Composer[R]) resolveSort(token string) (string, Direction, error) {
	if token == "" {
		return "", "", nil
	}
	field, dir, ok := ParseSortOrder(token)
	if !ok {
		if c.opts.strict {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, token)
		}
		return "", "", nil
	}
	if !c.cfg.CanSort(field) {
		if c.opts.strict {
			return "", "", fmt.Errorf("%w: sort field %q", ErrUnknownField, field)
		}
		return "", "", nil
	}
	return field, dir, nil
}
