package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Reason names why a row or field was rejected
type Reason string

const (
	ReasonColumnCount      Reason = "column_count_mismatch"
	ReasonInvalidNumber    Reason = "invalid_number"
	ReasonInvalidDate      Reason = "invalid_date"
	ReasonInvalidStatus    Reason = "invalid_status"
	ReasonMissingField     Reason = "missing_required_field"
	ReasonOutOfRange       Reason = "out_of_range"
	ReasonUnknownReference Reason = "unknown_reference"
)

// File-level failures. Any of these aborts an import.
var (
	ErrEmptyFile       = errors.New("file has no data rows")
	ErrUnreadable      = errors.New("file could not be read")
	ErrUnparsable      = errors.New("file could not be parsed")
	ErrDuplicateHeader = errors.New("duplicate header")
)

// Store failures
var (
	ErrNotFound   = errors.New("entity not found")
	ErrInUse      = errors.New("entity is in use")
	ErrSuperseded = errors.New("read superseded by a newer one")
)

// FieldError rejects a single field value
type FieldError struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Reason, e.Detail)
}

// NewFieldError builds a FieldError with a formatted detail
func NewFieldError(field string, reason Reason, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// RowError rejects one data row of an import.
// Row is the 1-based line number in the file; the header is line 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason Reason `json:"reason"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (e *RowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "row %d: %s", e.Row, e.Reason)
	if e.Field != "" {
		fmt.Fprintf(&b, " [%s]", e.Field)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

// RowErrorFrom attaches a row number to err.
// A *FieldError keeps its reason; anything else is reported as out_of_range.
func RowErrorFrom(row int, err error) *RowError {
	var re *RowError
	if errors.As(err, &re) {
		out := *re
		out.Row = row
		return &out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return &RowError{Row: row, Reason: fe.Reason, Field: fe.Field, Detail: fe.Detail}
	}
	return &RowError{Row: row, Reason: ReasonOutOfRange, Detail: err.Error()}
}

// MissingHeadersError aborts an import whose header lacks required columns
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "missing required headers: " + strings.Join(e.Missing, ", ")
}
