package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an entity kind
// ⭐ SSOT: 엔티티 종류는 여기서만 정의
type Kind string

const (
	KindFund       Kind = "fund"
	KindInvestment Kind = "investment"
	KindStudent    Kind = "student"
	KindProgress   Kind = "progress"
	KindVehicle    Kind = "vehicle"
	KindShipment   Kind = "shipment"
)

var kindCollections = map[Kind]string{
	KindFund:       "funds",
	KindInvestment: "investments",
	KindStudent:    "students",
	KindProgress:   "progress",
	KindVehicle:    "vehicles",
	KindShipment:   "shipments",
}

// Kinds returns every entity kind, parents before their dependents
func Kinds() []Kind {
	return []Kind{KindFund, KindInvestment, KindStudent, KindProgress, KindVehicle, KindShipment}
}

// ParseKind resolves a kind from its name or its collection key
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, coll := range kindCollections {
		if s == string(k) || s == coll {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Collection returns the storage key of the kind's collection
func (k Kind) Collection() string {
	return kindCollections[k]
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := kindCollections[k]
	return ok
}

// Entity is the read side shared by every kind
// ⭐ 계약: Field는 헤더 이름으로 조회, 값이 없으면 (nil, false)
type Entity interface {
	EntityID() string
	EntityKind() Kind
	Field(name string) (any, bool)
}

// Item is an entity whose derived fields and invariants can be checked
type Item interface {
	Entity
	// Derive recomputes derived fields as of now and drops
	// status-conditional fields that no longer apply
	Derive(now time.Time)
	Validate() error
}

// Record is implemented by pointer entity types (e.g. *Fund).
// T is the implementing type itself so Clone stays typed.
type Record[T any] interface {
	Item
	SetEntityID(id string)
	Clone() T
}

// Reference is a foreign key held by an entity
type Reference struct {
	Field string
	Kind  Kind
	ID    string
}

// Referencing is implemented by kinds that point at another collection
type Referencing interface {
	References() []Reference
}

// Valued is implemented by kinds whose derived figures depend on a valuation date
type Valued interface {
	ValuedAt() time.Time
}

// Refs is the set of known ids per referenced kind
type Refs map[Kind]map[string]struct{}

// Has reports whether id exists in the kind's collection
func (r Refs) Has(kind Kind, id string) bool {
	ids, ok := r[kind]
	if !ok {
		return false
	}
	_, ok = ids[id]
	return ok
}

// Add registers ids for kind
func (r Refs) Add(kind Kind, ids ...string) {
	set, ok := r[kind]
	if !ok {
		set = make(map[string]struct{}, len(ids))
		r[kind] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

var (
	_ Record[*Fund]       = (*Fund)(nil)
	_ Record[*Investment] = (*Investment)(nil)
	_ Record[*Student]    = (*Student)(nil)
	_ Record[*Progress]   = (*Progress)(nil)
	_ Record[*Vehicle]    = (*Vehicle)(nil)
	_ Record[*Shipment]   = (*Shipment)(nil)

	_ Referencing = (*Investment)(nil)
	_ Referencing = (*Progress)(nil)
	_ Referencing = (*Shipment)(nil)
	_ Valued      = (*Investment)(nil)
)
