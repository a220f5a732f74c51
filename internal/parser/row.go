// Package parser turns one raw import row into a typed entity or a named
// rejection. Parsing is pure: the same row and refs always produce the same
// entity, and no identifiers or derived fields are assigned here.
package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/schema"
)

// Row is one data row keyed by header
type Row struct {
	Line   int // 1-based file line; the header is line 1
	Values map[string]string
}

// NewRow zips headers and cells. A cell count that differs from the header
// count rejects the row with column_count_mismatch.
func NewRow(line int, headers, cells []string) (Row, error) {
	if len(cells) != len(headers) {
		return Row{}, &contracts.RowError{
			Row:    line,
			Reason: contracts.ReasonColumnCount,
			Detail: fmt.Sprintf("expected %d columns, got %d", len(headers), len(cells)),
		}
	}
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		h = schema.NormalizeHeader(h)
		if strings.TrimSpace(h) == "" {
			continue
		}
		values[h] = strings.TrimSpace(cells[i])
	}
	return Row{Line: line, Values: values}, nil
}

// Get returns the trimmed value of field; blank counts as absent
func (r Row) Get(field string) (string, bool) {
	v, ok := r.Values[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// cursor reads typed fields from a row, keeping only the first failure
// (bufio.Scanner 스타일: 에러 이후 호출은 no-op)
type cursor struct {
	row    Row
	schema *schema.Schema
	status string
	err    error
}

func newCursor(kind contracts.Kind, row Row) (*cursor, error) {
	s, err := schema.For(kind)
	if err != nil {
		return nil, err
	}
	c := &cursor{row: row, schema: s}

	status, ok := row.Get("status")
	if !ok {
		c.fail(&contracts.FieldError{Field: "status", Reason: contracts.ReasonMissingField})
		return c, nil
	}
	if !s.HasStatus(status) {
		c.fail(contracts.NewFieldError("status", contracts.ReasonInvalidStatus, "%q is not one of %s", status, strings.Join(s.Statuses, ", ")))
		return c, nil
	}
	c.status = status
	return c, nil
}

func (c *cursor) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// skip reports whether field should not be read: an earlier failure,
// or a conditional field that does not apply to the row's status
func (c *cursor) skip(field string) bool {
	return c.err != nil || !c.schema.Applies(field, c.status)
}

// mandatory reports whether field must be present for the row's status
func (c *cursor) mandatory(field string) bool {
	if c.schema.IsConditional(field) {
		return c.schema.Applies(field, c.status)
	}
	return !slices.Contains(c.schema.Optional, field)
}

// raw returns the value, recording missing_required_field when a mandatory field is blank
func (c *cursor) raw(field string) (string, bool) {
	if c.skip(field) {
		return "", false
	}
	v, ok := c.row.Get(field)
	if !ok && c.mandatory(field) {
		c.fail(&contracts.FieldError{Field: field, Reason: contracts.ReasonMissingField})
	}
	return v, ok
}

func (c *cursor) text(field string) string {
	v, _ := c.raw(field)
	return v
}

func (c *cursor) decimal(field string, allowPercent bool) (decimal.Decimal, bool) {
	v, ok := c.raw(field)
	if !ok {
		return decimal.Zero, false
	}
	if allowPercent {
		v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
	}
	d, err := ParseNumber(v)
	if err != nil {
		c.fail(contracts.NewFieldError(field, contracts.ReasonInvalidNumber, "%q", v))
		return decimal.Zero, false
	}
	return d, true
}

func (c *cursor) number(field string) float64 {
	d, _ := c.decimal(field, false)
	return d.InexactFloat64()
}

func (c *cursor) optionalNumber(field string) *float64 {
	d, ok := c.decimal(field, false)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func (c *cursor) percent(field string) float64 {
	d, _ := c.decimal(field, true)
	return d.InexactFloat64()
}

func (c *cursor) optionalPercent(field string) *float64 {
	d, ok := c.decimal(field, true)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func (c *cursor) integer(field string) int {
	d, ok := c.decimal(field, false)
	if !ok {
		return 0
	}
	if !d.IsInteger() {
		c.fail(contracts.NewFieldError(field, contracts.ReasonInvalidNumber, "%s is not a whole number", d))
		return 0
	}
	return int(d.IntPart())
}

func (c *cursor) date(field string) contracts.Date {
	v, ok := c.raw(field)
	if !ok {
		return ""
	}
	d, err := contracts.ParseDate(v)
	if err != nil {
		c.fail(&contracts.FieldError{Field: field, Reason: contracts.ReasonInvalidDate, Detail: err.Error()})
		return ""
	}
	return d
}

// reference reads a foreign key and checks it against refs
func (c *cursor) reference(field string, refs contracts.Refs) string {
	id := c.text(field)
	if c.err != nil || id == "" {
		return id
	}
	kind, ok := c.schema.ReferenceKind(field)
	if !ok {
		return id
	}
	if !refs.Has(kind, id) {
		c.fail(contracts.NewFieldError(field, contracts.ReasonUnknownReference, "no %s with id %q", kind, id))
	}
	return id
}

// ParseNumber parses a plain decimal literal. Thousands separators,
// currency symbols and NaN/Inf spellings are rejected.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}
