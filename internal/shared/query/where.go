package query

import "sort"

// Combinator keys recognised inside a Where.
const (
	And = "AND"
	Or  = "OR"
)

// Where is a composable filter object.
//
// Keys are column names or relation names. A column maps to a scalar (equality),
// nil (IS NULL) or a slice (IN). A relation maps to a nested Where evaluated
// against the related table. And / Or map to []Where.
type Where map[string]any

// AllOf joins filters by conjunction, dropping empty ones. It returns the
// single remaining filter unchanged rather than wrapping it.
func AllOf(filters ...Where) Where {
	parts := make([]Where, 0, len(filters))
	for _, f := range filters {
		if len(f) > 0 {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return Where{}
	case 1:
		return parts[0]
	}
	return Where{And: parts}
}

// AnyOf joins filters by disjunction.
func AnyOf(filters ...Where) Where {
	return Where{Or: filters}
}

// Spread returns a shallow copy of w with extra's keys written over it.
func (w Where) Spread(extra Where) Where {
	out := make(Where, len(w)+len(extra))
	for k, v := range w {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// HasCombinator reports whether And or Or appears at the top level.
func (w Where) HasCombinator() bool {
	_, and := w[And]
	_, or := w[Or]
	return and || or
}

// SortedKeys returns the keys in a stable order so compiled SQL is deterministic.
func (w Where) SortedKeys() []string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
