package contracts

import (
	"math"
	"strings"
)

// Field rule helpers shared by the entity Validate methods

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &FieldError{Field: field, Reason: ReasonMissingField}
	}
	return nil
}

func requireDate(field string, d Date) error {
	if d.IsZero() {
		return &FieldError{Field: field, Reason: ReasonMissingField}
	}
	if !d.Valid() {
		return NewFieldError(field, ReasonInvalidDate, "%q is not YYYY-MM-DD", string(d))
	}
	return nil
}

func optionalDate(field string, d Date) error {
	if d.IsZero() {
		return nil
	}
	return requireDate(field, d)
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewFieldError(field, ReasonInvalidNumber, "not a finite number")
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return NewFieldError(field, ReasonOutOfRange, "%v is negative", v)
	}
	return nil
}

func percent(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 100 {
		return NewFieldError(field, ReasonOutOfRange, "%v is outside 0..100", v)
	}
	return nil
}

func notBefore(field string, d, start Date, startField string) error {
	if d.IsZero() || start.IsZero() {
		return nil
	}
	if d.Before(start) {
		return NewFieldError(field, ReasonOutOfRange, "%s is before %s %s", d, startField, start)
	}
	return nil
}

func invalidStatus(v string) error {
	return NewFieldError("status", ReasonInvalidStatus, "%q", v)
}

// firstErr returns the first non-nil error
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func dateField(d Date) (any, bool) {
	if d.IsZero() {
		return nil, false
	}
	return d, true
}

func floatPtrField(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
