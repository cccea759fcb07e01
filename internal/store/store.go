// Package store provides the Repository abstraction shared by the document
// store backend and its in-process mirror.
package store

import (
	"context"
	"reflect"
	"time"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
)

var (
	// ErrNotFound is returned when no document matches a query.
	ErrNotFound = apperr.E(apperr.KindNotFoundOrForbidden, "not found")
	// ErrDuplicate is returned when an insert collides with an existing id or unique field.
	ErrDuplicate = apperr.E(apperr.KindConflict, "duplicate document")
)

// Document is a storable entity. FieldValue exposes fields by their stored
// (bson) name so that both backends evaluate queries identically.
type Document interface {
	DocID() string
	FieldValue(name string) (any, bool)
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "$eq"
	OpNe Op = "$ne"
	OpLt Op = "$lt"
	OpGt Op = "$gt"
)

// Cond is a single field comparison.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Query is a conjunction of conditions. The empty query matches everything.
type Query []Cond

// Eq matches documents whose field equals v.
func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }

// Ne matches documents whose field differs from v.
func Ne(field string, v any) Cond { return Cond{Field: field, Op: OpNe, Value: v} }

// Lt matches documents whose field is strictly less than v.
func Lt(field string, v any) Cond { return Cond{Field: field, Op: OpLt, Value: v} }

// Gt matches documents whose field is strictly greater than v.
func Gt(field string, v any) Cond { return Cond{Field: field, Op: OpGt, Value: v} }

// Where builds a query from conditions.
func Where(conds ...Cond) Query { return Query(conds) }

// Repository is implemented by every storage backend. Find returns documents
// ordered by id ascending.
type Repository[T Document] interface {
	Find(ctx context.Context, q Query) ([]T, error)
	FindOne(ctx context.Context, q Query) (T, error)
	Insert(ctx context.Context, doc T) error
	Update(ctx context.Context, q Query, doc T) error
	Delete(ctx context.Context, q Query) (int64, error)
}

// normalize reduces named types to their underlying kinds so that values like
// model.RoomType compare equal to plain strings, and times compare in UTC at
// the document store's millisecond precision.
func normalize(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Truncate(time.Millisecond)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// compare orders two normalized values. ok is false for mismatched types.
func compare(a, b any) (c int, ok bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpFloat(float64(x), float64(y)), true
		case float64:
			return cmpFloat(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return cmpFloat(x, float64(y)), true
		case float64:
			return cmpFloat(x, y), true
		}
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Matches evaluates q against doc with the same semantics the document store
// applies: a missing field only satisfies $ne.
func Matches(doc Document, q Query) bool {
	for _, c := range q {
		raw, ok := doc.FieldValue(c.Field)
		if !ok {
			if c.Op == OpNe {
				continue
			}
			return false
		}
		cmp, comparable := compare(normalize(raw), normalize(c.Value))
		switch c.Op {
		case OpEq:
			if !comparable || cmp != 0 {
				return false
			}
		case OpNe:
			if comparable && cmp == 0 {
				return false
			}
		case OpLt:
			if !comparable || cmp >= 0 {
				return false
			}
		case OpGt:
			if !comparable || cmp <= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
