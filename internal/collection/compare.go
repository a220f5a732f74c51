package collection

import (
	"cmp"
	"fmt"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/wonny/holdings/internal/contracts"
)

// DefaultLocale is used when a query names none
const DefaultLocale = "en"

// Comparer orders field values: dates chronologically, numbers numerically
// and everything else with a case-insensitive collator.
// Not safe for concurrent use; build one per query.
type Comparer struct {
	collator *collate.Collator
	matcher  *search.Matcher
}

// NewComparer builds a comparer for a BCP 47 locale; unparsable locales fall back to DefaultLocale
func NewComparer(locale string) *Comparer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Make(DefaultLocale)
	}
	return &Comparer{
		collator: collate.New(tag, collate.IgnoreCase),
		matcher:  search.New(tag, search.IgnoreCase),
	}
}

// Compare returns -1, 0 or +1 ordering a before, equal to or after b
func (c *Comparer) Compare(a, b any) int {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return c.collator.CompareString(asString(a), asString(b))
}

// Contains reports whether text occurs in s, ignoring case
func (c *Comparer) Contains(s, text string) bool {
	if text == "" {
		return true
	}
	start, _ := c.matcher.IndexString(s, text)
	return start >= 0
}

// Compare orders a and b with the default locale
func Compare(a, b any) int {
	return NewComparer(DefaultLocale).Compare(a, b)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case contracts.Date:
		tm := t.Time()
		return tm, !tm.IsZero()
	case time.Time:
		return t, !t.IsZero()
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case contracts.Date:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
