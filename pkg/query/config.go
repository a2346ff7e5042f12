package query

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateField is returned when a field name appears twice in the same table.
	ErrDuplicateField = errors.New("duplicate field name")
	// ErrEmptyField is returned when a field is declared without a name.
	ErrEmptyField = errors.New("empty field name")
)

// SortKey is a three-way comparison between two records (negative, zero, positive).
type SortKey[R any] func(a, b R) int

// Predicate reports whether a record matches the provided search string.
type Predicate[R any] func(record R, search string) bool

// SortField binds a sortable field name to its comparison.
type SortField[R any] struct {
	Name string
	Key  SortKey[R]
}

// SearchField binds a searchable field name to its predicate.
type SearchField[R any] struct {
	Name  string
	Match Predicate[R]
}

// Sortable declares a sortable field.
func Sortable[R any](name string, key SortKey[R]) SortField[R] {
	return SortField[R]{Name: name, Key: key}
}

// Searchable declares a searchable field.
func Searchable[R any](name string, match Predicate[R]) SearchField[R] {
	return SearchField[R]{Name: name, Match: match}
}

// Config is the immutable per-record-type table of searchable and sortable fields.
// The allowed field lists are always derived from the tables themselves.
type Config[R any] struct {
	defaultSort SortKey[R]
	sorts       []SortField[R]
	sortIndex   map[string]int
	searches    []SearchField[R]
	searchIndex map[string]int
}

// NewConfig validates and builds a Config. Tables keep their declaration order.
func NewConfig[R any](defaultSort SortKey[R], sorts []SortField[R], searches []SearchField[R]) (*Config[R], error) {
	cfg := &Config[R]{
		defaultSort: defaultSort,
		sorts:       make([]SortField[R], 0, len(sorts)),
		sortIndex:   make(map[string]int, len(sorts)),
		searches:    make([]SearchField[R], 0, len(searches)),
		searchIndex: make(map[string]int, len(searches)),
	}
	for _, f := range sorts {
		if f.Name == "" {
			return nil, fmt.Errorf("sort table: %w", ErrEmptyField)
		}
		if _, exists := cfg.sortIndex[f.Name]; exists {
			return nil, fmt.Errorf("sort table %q: %w", f.Name, ErrDuplicateField)
		}
		cfg.sortIndex[f.Name] = len(cfg.sorts)
		cfg.sorts = append(cfg.sorts, f)
	}
	for _, f := range searches {
		if f.Name == "" {
			return nil, fmt.Errorf("search table: %w", ErrEmptyField)
		}
		if _, exists := cfg.searchIndex[f.Name]; exists {
			return nil, fmt.Errorf("search table %q: %w", f.Name, ErrDuplicateField)
		}
		cfg.searchIndex[f.Name] = len(cfg.searches)
		cfg.searches = append(cfg.searches, f)
	}
	return cfg, nil
}

// MustConfig is like NewConfig but panics on an invalid table. Intended for
// package-level declarations.
func MustConfig[R any](defaultSort SortKey[R], sorts []SortField[R], searches []SearchField[R]) *Config[R] {
	cfg, err := NewConfig(defaultSort, sorts, searches)
	if err != nil {
		panic(fmt.Sprintf("query: %v", err))
	}
	return cfg
}

// SearchFields returns the searchable field names in declaration order.
func (c *Config[R]) SearchFields() []string {
	names := make([]string, len(c.searches))
	for i, f := range c.searches {
		names[i] = f.Name
	}
	return names
}

// SortFields returns the sortable field names in declaration order.
func (c *Config[R]) SortFields() []string {
	names := make([]string, len(c.sorts))
	for i, f := range c.sorts {
		names[i] = f.Name
	}
	return names
}

// CanSearch reports whether name is a searchable field.
func (c *Config[R]) CanSearch(name string) bool {
	_, ok := c.searchIndex[name]
	return ok
}

// CanSort reports whether name is a sortable field.
func (c *Config[R]) CanSort(name string) bool {
	_, ok := c.sortIndex[name]
	return ok
}

// DefaultSort returns the fallback comparison, which may be nil.
func (c *Config[R]) DefaultSort() SortKey[R] {
	return c.defaultSort
}

func (c *Config[R]) sortKey(name string) (SortKey[R], bool) {
	idx, ok := c.sortIndex[name]
	if !ok {
		return nil, false
	}
	return c.sorts[idx].Key, true
}

func (c *Config[R]) predicate(name string) (Predicate[R], bool) {
	idx, ok := c.searchIndex[name]
	if !ok {
		return nil, false
	}
	return c.searches[idx].Match, true
}

// By orders records by an ordered key.
func By[R any, K cmp.Ordered](key func(R) K) SortKey[R] {
	return func(a, b R) int {
		return cmp.Compare(key(a), key(b))
	}
}

// ByFold orders records by a string key ignoring case.
func ByFold[R any](key func(R) string) SortKey[R] {
	return func(a, b R) int {
		return cmp.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

// ByTime orders records chronologically.
func ByTime[R any](key func(R) time.Time) SortKey[R] {
	return func(a, b R) int {
		return key(a).Compare(key(b))
	}
}

// ByBool orders false before true.
func ByBool[R any](key func(R) bool) SortKey[R] {
	return func(a, b R) int {
		x, y := key(a), key(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
}

// Contains matches when the field contains the search string, ignoring case.
func Contains[R any](field func(R) string) Predicate[R] {
	return func(record R, search string) bool {
		return strings.Contains(strings.ToLower(field(record)), strings.ToLower(search))
	}
}

// Equals matches when the field equals the search string, ignoring case.
func Equals[R any](field func(R) string) Predicate[R] {
	return func(record R, search string) bool {
		return strings.EqualFold(field(record), search)
	}
}

// HasPrefix matches when the field starts with the search string, ignoring case.
func HasPrefix[R any](field func(R) string) Predicate[R] {
	return func(record R, search string) bool {
		return strings.HasPrefix(strings.ToLower(field(record)), strings.ToLower(search))
	}
}
