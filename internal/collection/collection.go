// Package collection filters and orders entity lists for display.
// Apply never mutates its input and is idempotent for a given query.
package collection

import (
	"slices"
	"strings"
)

// Fielder exposes named field values; absent fields return (nil, false)
type Fielder interface {
	Field(name string) (any, bool)
}

// Record is an ad hoc Fielder backed by a map
type Record map[string]any

func (r Record) Field(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else is Asc
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// SortSpec orders by one key
type SortSpec struct {
	Key string    `json:"key"`
	Dir Direction `json:"dir"`
}

// Toggle returns the spec after a user picks key: the same key flips
// direction, a different key starts ascending
func (s SortSpec) Toggle(key string) SortSpec {
	if s.Key == key {
		if s.Dir == Desc {
			return SortSpec{Key: key, Dir: Asc}
		}
		return SortSpec{Key: key, Dir: Desc}
	}
	return SortSpec{Key: key, Dir: Asc}
}

// Predicate selects items; c carries the query's locale rules
type Predicate func(item Fielder, c *Comparer) bool

// Query is a full view request
type Query struct {
	Filters []Predicate
	Sort    SortSpec // zero Key keeps input order
	Locale  string
	Limit   int // 0 = no limit
}

// Apply filters items, then stable-sorts the survivors on a copy
// ⭐ 계약: 입력 슬라이스는 절대 수정하지 않음
func Apply[T Fielder](items []T, q Query) []T {
	locale := q.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	c := NewComparer(locale)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchAll(item, q.Filters, c) {
			out = append(out, item)
		}
	}

	if q.Sort.Key != "" {
		key, desc := q.Sort.Key, q.Sort.Dir == Desc
		slices.SortStableFunc(out, func(a, b T) int {
			va, okA := a.Field(key)
			vb, okB := b.Field(key)
			// 값이 없는 항목은 방향과 무관하게 항상 뒤로
			switch {
			case !okA && !okB:
				return 0
			case !okA:
				return 1
			case !okB:
				return -1
			}
			r := c.Compare(va, vb)
			if desc {
				return -r
			}
			return r
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matchAll(item Fielder, filters []Predicate, c *Comparer) bool {
	for _, p := range filters {
		if p != nil && !p(item, c) {
			return false
		}
	}
	return true
}

// Eq matches items whose field equals value (strings compare case-insensitively)
func Eq(field string, value any) Predicate {
	return func(item Fielder, c *Comparer) bool {
		v, ok := item.Field(field)
		return ok && c.Compare(v, value) == 0
	}
}

// In matches items whose field equals any of values
func In(field string, values ...any) Predicate {
	return func(item Fielder, c *Comparer) bool {
		v, ok := item.Field(field)
		if !ok {
			return false
		}
		for _, want := range values {
			if c.Compare(v, want) == 0 {
				return true
			}
		}
		return false
	}
}

// Range matches items whose field lies within [min, max]; a nil bound is open
func Range(field string, lo, hi any) Predicate {
	return func(item Fielder, c *Comparer) bool {
		v, ok := item.Field(field)
		if !ok {
			return false
		}
		if lo != nil && c.Compare(v, lo) < 0 {
			return false
		}
		if hi != nil && c.Compare(v, hi) > 0 {
			return false
		}
		return true
	}
}

// Search matches items where text occurs in any of fields
func Search(text string, fields ...string) Predicate {
	text = strings.TrimSpace(text)
	return func(item Fielder, c *Comparer) bool {
		if text == "" {
			return true
		}
		for _, f := range fields {
			v, ok := item.Field(f)
			if ok && c.Contains(asString(v), text) {
				return true
			}
		}
		return false
	}
}
