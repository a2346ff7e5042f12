// Package fieldpath resolves dotted field paths such as "Student.FullName" on
// typed records through accessors declared once at startup.
package fieldpath

import (
	"fmt"
	"strings"
	"time"
)

const separator = "."

type segment[R any] interface {
	resolve(record R, rest string) (any, bool)
	paths(prefix string) []string
}

type leaf[R any] struct {
	get func(R) any
}

func (l leaf[R]) resolve(record R, rest string) (any, bool) {
	if rest != "" {
		return nil, false
	}
	return l.get(record), true
}

func (l leaf[R]) paths(prefix string) []string {
	return []string{prefix}
}

type hop[R, C any] struct {
	get   func(R) (C, bool)
	child *Resolver[C]
}

func (h hop[R, C]) resolve(record R, rest string) (any, bool) {
	value, ok := h.get(record)
	if !ok {
		return nil, false
	}
	if rest == "" {
		return value, true
	}
	return h.child.Resolve(value, rest)
}

func (h hop[R, C]) paths(prefix string) []string {
	children := h.child.Paths()
	out := make([]string, len(children))
	for i, p := range children {
		out[i] = prefix + separator + p
	}
	return out
}

// Resolver maps field names of R to accessors.
type Resolver[R any] struct {
	order    []string
	segments map[string]segment[R]
}

// New returns an empty resolver.
func New[R any]() *Resolver[R] {
	return &Resolver[R]{segments: make(map[string]segment[R])}
}

// Field registers a leaf accessor. It panics if name is empty, contains a
// separator, or is already registered.
func (r *Resolver[R]) Field(name string, get func(R) any) *Resolver[R] {
	r.add(name, leaf[R]{get: get})
	return r
}

// Nested registers a hop into a child record. get reports false when the
// child is absent (e.g. a nil pointer or an unloaded relation).
func Nested[R, C any](parent *Resolver[R], name string, get func(R) (C, bool), child *Resolver[C]) *Resolver[R] {
	parent.add(name, hop[R, C]{get: get, child: child})
	return parent
}

func (r *Resolver[R]) add(name string, seg segment[R]) {
	if name == "" || strings.Contains(name, separator) {
		panic(fmt.Sprintf("fieldpath: invalid segment name %q", name))
	}
	if _, exists := r.segments[name]; exists {
		panic(fmt.Sprintf("fieldpath: duplicate segment %q", name))
	}
	r.segments[name] = seg
	r.order = append(r.order, name)
}

// Resolve returns the value at path. Unknown segments and absent hops yield
// (nil, false).
func (r *Resolver[R]) Resolve(record R, path string) (any, bool) {
	head, rest, _ := strings.Cut(path, separator)
	seg, ok := r.segments[head]
	if !ok {
		return nil, false
	}
	return seg.resolve(record, rest)
}

// Has reports whether path resolves to a registered leaf.
func (r *Resolver[R]) Has(path string) bool {
	for _, p := range r.Paths() {
		if p == path {
			return true
		}
	}
	return false
}

// Paths lists every leaf path in declaration order.
func (r *Resolver[R]) Paths() []string {
	var out []string
	for _, name := range r.order {
		out = append(out, r.segments[name].paths(name)...)
	}
	return out
}

// Text resolves path and formats it for display; missing values render as "".
func (r *Resolver[R]) Text(record R, path string) string {
	value, ok := r.Resolve(record, path)
	if !ok {
		return ""
	}
	return Format(value)
}

// Format renders a resolved value for tabular output.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
