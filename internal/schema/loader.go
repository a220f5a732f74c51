package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wonny/holdings/internal/contracts"
)

//go:embed schemas.yaml
var embedded []byte

type document struct {
	Kinds map[contracts.Kind]*Schema `yaml:"kinds"`
}

// ValidationError reports a malformed schema definition
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	loadOnce sync.Once
	builtin  map[contracts.Kind]*Schema
	loadErr  error
)

// Parse decodes and validates a schema document
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (map[contracts.Kind]*Schema, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode schemas: %w", err)
	}

	for kind, s := range doc.Kinds {
		if s == nil {
			return nil, ValidationError{string(kind), "empty definition"}
		}
		s.Kind = kind
	}

	if err := Validate(doc.Kinds); err != nil {
		return nil, err
	}
	return doc.Kinds, nil
}

// Validate checks a schema set for internal consistency
func Validate(set map[contracts.Kind]*Schema) error {
	for _, kind := range contracts.Kinds() {
		if _, ok := set[kind]; !ok {
			return ValidationError{string(kind), "missing definition"}
		}
	}

	for kind, s := range set {
		if !kind.Valid() {
			return ValidationError{string(kind), "unknown kind"}
		}
		if err := validateOne(s); err != nil {
			return err
		}
	}
	return nil
}

func validateOne(s *Schema) error {
	prefix := string(s.Kind)

	if s.Collection != s.Kind.Collection() {
		return ValidationError{prefix + ".collection", fmt.Sprintf("must be %q", s.Kind.Collection())}
	}
	if len(s.Required) == 0 {
		return ValidationError{prefix + ".required", "required"}
	}
	if !slices.Contains(s.Required, "status") || len(s.Statuses) == 0 {
		return ValidationError{prefix + ".statuses", "status header and at least one status required"}
	}

	seen := map[string]bool{}
	for _, h := range s.Headers() {
		if seen[h] {
			return ValidationError{prefix, fmt.Sprintf("header %q declared twice", h)}
		}
		seen[h] = true
	}

	for i, c := range s.Conditional {
		field := fmt.Sprintf("%s.conditional[%d]", prefix, i)
		for _, st := range c.When {
			if !s.HasStatus(st) {
				return ValidationError{field, fmt.Sprintf("unknown status %q", st)}
			}
		}
		for _, f := range c.Require {
			// 조건부 필드는 optional에만 존재해야 함
			if !slices.Contains(s.Optional, f) {
				return ValidationError{field, fmt.Sprintf("%q must be an optional header", f)}
			}
		}
	}

	for _, r := range s.References {
		if !slices.Contains(s.Required, r.Field) {
			return ValidationError{prefix + ".references", fmt.Sprintf("%q must be a required header", r.Field)}
		}
		if !r.Kind.Valid() || r.Kind == s.Kind {
			return ValidationError{prefix + ".references", fmt.Sprintf("invalid kind %q", r.Kind)}
		}
	}

	for _, m := range s.Money {
		if !seen[m] {
			return ValidationError{prefix + ".money", fmt.Sprintf("%q is not a header", m)}
		}
	}

	for _, h := range s.Required {
		if _, ok := s.Example[h]; !ok {
			return ValidationError{prefix + ".example", fmt.Sprintf("missing %q", h)}
		}
	}
	for h := range s.Example {
		if !seen[h] {
			return ValidationError{prefix + ".example", fmt.Sprintf("%q is not a header", h)}
		}
	}
	return nil
}

func load() (map[contracts.Kind]*Schema, error) {
	loadOnce.Do(func() {
		builtin, loadErr = Parse(embedded)
	})
	return builtin, loadErr
}

// For returns the built-in schema of kind
func For(kind contracts.Kind) (*Schema, error) {
	set, err := load()
	if err != nil {
		return nil, err
	}
	s, ok := set[kind]
	if !ok {
		return nil, fmt.Errorf("no schema for kind %q", kind)
	}
	return s, nil
}

// MustFor is For for kinds known at compile time
func MustFor(kind contracts.Kind) *Schema {
	s, err := For(kind)
	if err != nil {
		panic(err)
	}
	return s
}

// Kinds returns the kinds with a built-in schema, in contracts order
func Kinds() []contracts.Kind {
	if _, err := load(); err != nil {
		return nil
	}
	return contracts.Kinds()
}
