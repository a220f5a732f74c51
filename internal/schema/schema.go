// Package schema declares, per entity kind, which headers an import file must
// carry, which statuses are legal and which fields depend on the status.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/wonny/holdings/internal/contracts"
)

// Schema describes one entity kind
// ⭐ SSOT: 헤더/상태/조건부 필드 정의는 schemas.yaml에서만 관리
type Schema struct {
	Kind        contracts.Kind    `yaml:"-" json:"kind"`
	Collection  string            `yaml:"collection" json:"collection"`
	Required    []string          `yaml:"required" json:"required"`
	Optional    []string          `yaml:"optional" json:"optional"`
	Statuses    []string          `yaml:"statuses" json:"statuses"`
	Conditional []Conditional     `yaml:"conditional" json:"conditional"`
	References  []Reference       `yaml:"references" json:"references"`
	Derived     []string          `yaml:"derived" json:"derived"`
	Money       []string          `yaml:"money" json:"money"`
	Example     map[string]string `yaml:"example" json:"example"`
}

// Conditional makes Require mandatory for rows whose status is in When
type Conditional struct {
	When    []string `yaml:"when" json:"when"`
	Require []string `yaml:"require" json:"require"`
}

// Reference declares a foreign key column
type Reference struct {
	Field string         `yaml:"field" json:"field"`
	Kind  contracts.Kind `yaml:"kind" json:"kind"`
}

// HeaderReport is the outcome of comparing a file header with a schema
type HeaderReport struct {
	Missing   []string `json:"missing,omitempty"`
	Extra     []string `json:"extra,omitempty"`
	Duplicate []string `json:"duplicate,omitempty"`
}

// OK reports whether the header can be imported; extra columns are tolerated
func (r HeaderReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Duplicate) == 0
}

// NormalizeHeader strips a UTF-8 byte order mark; names otherwise match exactly
func NormalizeHeader(h string) string {
	return strings.TrimPrefix(h, "\ufeff")
}

// blankHeader reports whether a header cell names no column
func blankHeader(h string) bool {
	return strings.TrimSpace(h) == ""
}

// Headers returns required then optional headers, in declaration order
func (s *Schema) Headers() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

// CheckHeaders compares a file header with the schema
func (s *Schema) CheckHeaders(headers []string) HeaderReport {
	var r HeaderReport
	seen := make(map[string]bool, len(headers))
	for _, raw := range headers {
		h := NormalizeHeader(raw)
		if blankHeader(h) {
			continue
		}
		if seen[h] {
			if !slices.Contains(r.Duplicate, h) {
				r.Duplicate = append(r.Duplicate, h)
			}
			continue
		}
		seen[h] = true
		if !s.Known(h) {
			r.Extra = append(r.Extra, h)
		}
	}
	for _, h := range s.Required {
		if !seen[h] {
			r.Missing = append(r.Missing, h)
		}
	}
	return r
}

// ValidateHeaders returns *contracts.MissingHeadersError when required
// headers are absent and wraps contracts.ErrDuplicateHeader on duplicates
func (s *Schema) ValidateHeaders(headers []string) error {
	r := s.CheckHeaders(headers)
	if len(r.Missing) > 0 {
		return &contracts.MissingHeadersError{Missing: r.Missing}
	}
	if len(r.Duplicate) > 0 {
		return fmt.Errorf("%w: %s", contracts.ErrDuplicateHeader, strings.Join(r.Duplicate, ", "))
	}
	return nil
}

// Known reports whether field is a declared header
func (s *Schema) Known(field string) bool {
	return slices.Contains(s.Required, field) || slices.Contains(s.Optional, field)
}

// HasStatus reports whether status is legal for the kind
func (s *Schema) HasStatus(status string) bool {
	return slices.Contains(s.Statuses, status)
}

// IsConditional reports whether field depends on the status
func (s *Schema) IsConditional(field string) bool {
	for _, c := range s.Conditional {
		if slices.Contains(c.Require, field) {
			return true
		}
	}
	return false
}

// Applies reports whether field is meaningful for a row with the given status.
// Unconditional fields always apply.
func (s *Schema) Applies(field, status string) bool {
	if !s.IsConditional(field) {
		return true
	}
	for _, c := range s.Conditional {
		if slices.Contains(c.Require, field) && slices.Contains(c.When, status) {
			return true
		}
	}
	return false
}

// RequiredFor returns the fields that must be present for a row with the given status
func (s *Schema) RequiredFor(status string) []string {
	out := slices.Clone(s.Required)
	for _, c := range s.Conditional {
		if slices.Contains(c.When, status) {
			out = append(out, c.Require...)
		}
	}
	return out
}

// ReferenceKind returns the kind a foreign key column points at
func (s *Schema) ReferenceKind(field string) (contracts.Kind, bool) {
	for _, r := range s.References {
		if r.Field == field {
			return r.Kind, true
		}
	}
	return "", false
}

// IsMoney reports whether field holds a monetary amount
func (s *Schema) IsMoney(field string) bool {
	return slices.Contains(s.Money, field)
}

// Fingerprint returns a SHA256 of the schema's canonical JSON.
// Stored alongside persisted collections to spot schema changes.
func (s *Schema) Fingerprint() string {
	// struct → JSON: map 키는 정렬되므로 결정적
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
