package query

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/iter"
)

// Source produces the full record set backing a sequence. It is invoked once per
// terminal operation, so a database-backed source runs its query every time.
type Source[R any] func(ctx context.Context) ([]R, error)

type stage[R any] func(items []R) []R

// Seq is an immutable, lazily evaluated pipeline over a Source. Stages run only
// when Count or Collect is called.
type Seq[R any] struct {
	src    Source[R]
	stages []stage[R]
}

// From wraps a source into a sequence.
func From[R any](src Source[R]) Seq[R] {
	return Seq[R]{src: src}
}

// FromSlice wraps an in-memory slice. Each evaluation works on a copy, so
// results never share the caller's backing array.
func FromSlice[R any](items []R) Seq[R] {
	return From(func(context.Context) ([]R, error) {
		return append([]R(nil), items...), nil
	})
}

func (s Seq[R]) then(st stage[R]) Seq[R] {
	stages := make([]stage[R], len(s.stages), len(s.stages)+1)
	copy(stages, s.stages)
	return Seq[R]{src: s.src, stages: append(stages, st)}
}

// Where keeps records matching keep.
func (s Seq[R]) Where(keep func(R) bool) Seq[R] {
	return s.then(func(items []R) []R {
		out := make([]R, 0, len(items))
		for _, item := range items {
			if keep(item) {
				out = append(out, item)
			}
		}
		return out
	})
}

// whereParallel evaluates keep across at most workers goroutines once the
// candidate set reaches threshold. Source order is preserved.
func (s Seq[R]) whereParallel(keep func(R) bool, workers, threshold int) Seq[R] {
	return s.then(func(items []R) []R {
		if threshold <= 0 || len(items) < threshold {
			out := make([]R, 0, len(items))
			for _, item := range items {
				if keep(item) {
					out = append(out, item)
				}
			}
			return out
		}
		mapper := iter.Mapper[R, bool]{MaxGoroutines: workers}
		mask := mapper.Map(items, func(item *R) bool {
			return keep(*item)
		})
		out := make([]R, 0, len(items))
		for i, ok := range mask {
			if ok {
				out = append(out, items[i])
			}
		}
		return out
	})
}

// OrderBy sorts with the comparison; ties keep their incoming order.
func (s Seq[R]) OrderBy(key SortKey[R], dir Direction) Seq[R] {
	return s.then(func(items []R) []R {
		out := make([]R, len(items))
		copy(out, items)
		sort.SliceStable(out, func(i, j int) bool {
			if dir == Descending {
				return key(out[j], out[i]) < 0
			}
			return key(out[i], out[j]) < 0
		})
		return out
	})
}

// Skip drops the first n records.
func (s Seq[R]) Skip(n int) Seq[R] {
	return s.then(func(items []R) []R {
		if n <= 0 {
			return items
		}
		if n >= len(items) {
			return items[:0:0]
		}
		return items[n:]
	})
}

// Take keeps at most n records.
func (s Seq[R]) Take(n int) Seq[R] {
	return s.then(func(items []R) []R {
		if n < 0 {
			return items
		}
		if n < len(items) {
			return items[:n:n]
		}
		return items
	})
}

// Collect evaluates the source and every stage.
func (s Seq[R]) Collect(ctx context.Context) ([]R, error) {
	if s.src == nil {
		return nil, ErrNilSource
	}
	items, err := s.src(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range s.stages {
		items = st(items)
	}
	return items, nil
}

// Count evaluates the sequence and returns its length.
func (s Seq[R]) Count(ctx context.Context) (int, error) {
	items, err := s.Collect(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
