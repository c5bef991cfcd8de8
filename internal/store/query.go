package store

import (
	"fmt"
	"reflect"
)

type Op string

const (
	OpEqual         Op = "=="
	OpIn            Op = "in"
	OpArrayContains Op = "array-contains"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Dir   Direction
}

// Query selects documents directly under one collection path.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      int
}

func Collection(path string) Query {
	return Query{Collection: path}
}

func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Dir: dir})
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Validate rejects queries the backing engines cannot serve, most notably
// membership filters over more than MaxInValues values.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpArrayContains:
		case OpIn:
			values, ok := InValues(f.Value)
			if !ok {
				return fmt.Errorf("%w: %q needs a list value", ErrInvalidFilter, f.Field)
			}
			if len(values) > MaxInValues {
				return fmt.Errorf("%w: %q has %d", ErrTooManyValues, f.Field, len(values))
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
		}
	}
	return nil
}

// InValues flattens the value of a membership filter into a []any.
func InValues(v any) ([]any, bool) {
	switch vs := v.(type) {
	case []any:
		return vs, true
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
