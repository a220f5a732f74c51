// Package store owns the in-memory entity collections and commits every
// mutation through the persistence bridge. A failed save leaves memory
// untouched. The store is single-owner: callers serialise access.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/schema"
	"github.com/wonny/holdings/internal/storage"
	"github.com/wonny/holdings/pkg/logger"
)

// Options are shared by every collection of a workspace
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Logger *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	return o
}

// envelope is the persisted form of a collection
type envelope[T any] struct {
	Kind    contracts.Kind `json:"kind"`
	Schema  string         `json:"schema"`
	SavedAt time.Time      `json:"saved_at"`
	Items   []T            `json:"items"`
}

// Collection holds every entity of one kind in insertion order
// ⭐ SSOT: 엔티티 목록의 유일한 소유자, 변경은 반드시 저장 성공 후 반영
type Collection[T contracts.Record[T]] struct {
	kind    contracts.Kind
	schema  *schema.Schema
	bridge  storage.Bridge
	opts    Options
	log     *logger.Logger
	items   []T
	index   map[string]int
	drifted []string
	// dangling holds ids whose foreign keys did not resolve on the last Load
	dangling []string

	// checkRefs rejects dangling foreign keys; wired by the workspace
	checkRefs func(T) error
}

// NewCollection creates an empty collection of kind
func NewCollection[T contracts.Record[T]](kind contracts.Kind, bridge storage.Bridge, opts Options) *Collection[T] {
	opts = opts.withDefaults()
	return &Collection[T]{
		kind:   kind,
		schema: schema.MustFor(kind),
		bridge: bridge,
		opts:   opts,
		log:    opts.Logger.Component("store").WithField("collection", kind.Collection()),
		index:  map[string]int{},
	}
}

// Kind returns the entity kind held
func (c *Collection[T]) Kind() contracts.Kind { return c.kind }

// Len returns the number of entities
func (c *Collection[T]) Len() int { return len(c.items) }

// Load replaces the in-memory state with the persisted one. Derived fields
// are recomputed; entities whose stored values disagreed are reported by Drifted.
func (c *Collection[T]) Load(ctx context.Context) error {
	blob, found, err := c.bridge.Load(ctx, c.kind.Collection())
	if err != nil {
		return fmt.Errorf("load %s: %w", c.kind.Collection(), err)
	}
	if !found {
		c.set(nil)
		c.drifted = nil
		c.dangling = nil
		return nil
	}

	items, err := c.decode(blob)
	if err != nil {
		return fmt.Errorf("decode %s: %w", c.kind.Collection(), err)
	}

	now := c.opts.Now()
	var drifted, dangling []string
	kept := make([]T, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if reflect.ValueOf(item).IsNil() {
			continue
		}
		assigned := false
		if item.EntityID() == "" {
			item.SetEntityID(c.opts.NewID())
			assigned = true
		}
		if seen[item.EntityID()] {
			c.log.WithField("id", item.EntityID()).Warn("Duplicate id dropped on load")
			continue
		}
		seen[item.EntityID()] = true

		if c.recompute(item, now) || assigned {
			drifted = append(drifted, item.EntityID())
		}
		if err := item.Validate(); err != nil {
			c.log.WithError(err).WithField("id", item.EntityID()).Warn("Stored entity violates invariants")
		}
		// 부모가 먼저 로드되므로 여기서 참조 확인 가능, 항목은 유지
		if c.checkRefs != nil {
			if err := c.checkRefs(item); err != nil {
				c.log.WithError(err).WithField("id", item.EntityID()).Warn("Dangling reference on load")
				dangling = append(dangling, item.EntityID())
			}
		}
		kept = append(kept, item)
	}

	c.set(kept)
	c.drifted = drifted
	c.dangling = dangling
	if len(drifted) > 0 {
		c.log.WithField("drifted", len(drifted)).Warn("Recomputed drifted derived fields")
	}
	return nil
}

// decode accepts the envelope or a bare JSON array
func (c *Collection[T]) decode(blob []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		err := json.Unmarshal(trimmed, &items)
		return items, err
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Kind != "" && env.Kind != c.kind {
		return nil, fmt.Errorf("blob holds %q, not %q", env.Kind, c.kind)
	}
	if env.Schema != "" && env.Schema != c.schema.Fingerprint() {
		c.log.Info("Stored schema fingerprint differs; entities re-derived")
	}
	return env.Items, nil
}

// recompute re-derives item as of now and reports whether its stored
// derived fields disagreed with a fresh computation at its own valuation date
func (c *Collection[T]) recompute(item T, now time.Time) bool {
	at := now
	if v, ok := any(item).(contracts.Valued); ok {
		if t := v.ValuedAt(); !t.IsZero() {
			at = t
		}
	}

	fresh := item.Clone()
	fresh.Derive(at)
	drifted := false
	for _, f := range c.schema.Derived {
		a, okA := item.Field(f)
		b, okB := fresh.Field(f)
		if okA != okB || !reflect.DeepEqual(a, b) {
			drifted = true
			break
		}
	}

	item.Derive(now)
	return drifted
}

// Drifted returns the ids whose derived fields were corrected by the last Load
func (c *Collection[T]) Drifted() []string {
	return append([]string(nil), c.drifted...)
}

// Dangling returns the ids whose foreign keys did not resolve on the last Load
func (c *Collection[T]) Dangling() []string {
	return append([]string(nil), c.dangling...)
}

// Flush persists the current state, clearing the drift report
func (c *Collection[T]) Flush(ctx context.Context) error {
	if err := c.commit(ctx, c.snapshot()); err != nil {
		return err
	}
	c.drifted = nil
	return nil
}

// Get returns a copy of the entity with id
func (c *Collection[T]) Get(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i].Clone(), true
}

// Has reports whether id exists
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// All returns copies of every entity in insertion order
func (c *Collection[T]) All() []T {
	return c.Find(nil)
}

// Find returns copies of the entities matching pred (nil matches all)
func (c *Collection[T]) Find(pred func(T) bool) []T {
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if pred == nil || pred(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// IDs returns every id in insertion order
func (c *Collection[T]) IDs() []string {
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = item.EntityID()
	}
	return out
}

// prepare clones item, derives, validates and checks references
func (c *Collection[T]) prepare(item T, id string, now time.Time) (T, error) {
	var zero T
	if reflect.ValueOf(item).IsNil() {
		return zero, fmt.Errorf("nil %s", c.kind)
	}
	next := item.Clone()
	next.SetEntityID(id)
	next.Derive(now)
	if err := next.Validate(); err != nil {
		return zero, err
	}
	if c.checkRefs != nil {
		if err := c.checkRefs(next); err != nil {
			return zero, err
		}
	}
	return next, nil
}

// Create assigns a fresh id and commits item
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	next, err := c.prepare(item, c.opts.NewID(), c.opts.Now())
	if err != nil {
		return zero, err
	}
	if err := c.commit(ctx, append(c.snapshot(), next)); err != nil {
		return zero, err
	}
	c.log.WithField("id", next.EntityID()).Info("Created")
	return next.Clone(), nil
}

// Update replaces the entity with id, keeping the id
func (c *Collection[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T
	i, ok := c.index[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", c.kind, id, contracts.ErrNotFound)
	}
	next, err := c.prepare(item, id, c.opts.Now())
	if err != nil {
		return zero, err
	}
	items := c.snapshot()
	items[i] = next
	if err := c.commit(ctx, items); err != nil {
		return zero, err
	}
	c.log.WithField("id", id).Info("Updated")
	return next.Clone(), nil
}

// Delete removes the entity with id
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	i, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", c.kind, id, contracts.ErrNotFound)
	}
	items := c.snapshot()
	items = append(items[:i], items[i+1:]...)
	if err := c.commit(ctx, items); err != nil {
		return err
	}
	c.log.WithField("id", id).Info("Deleted")
	return nil
}

// ApplyImportBatch assigns ids to items and commits them in one save.
// Either every item is added or none is.
func (c *Collection[T]) ApplyImportBatch(ctx context.Context, items []T) ([]T, error) {
	now := c.opts.Now()
	added := make([]T, 0, len(items))
	for _, item := range items {
		next, err := c.prepare(item, c.opts.NewID(), now)
		if err != nil {
			return nil, err
		}
		added = append(added, next)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := c.commit(ctx, append(c.snapshot(), added...)); err != nil {
		return nil, err
	}
	c.log.WithField("count", len(added)).Info("Import batch committed")

	out := make([]T, len(added))
	for i, item := range added {
		out[i] = item.Clone()
	}
	return out, nil
}

// snapshot returns a shallow copy of the item slice
func (c *Collection[T]) snapshot() []T {
	return append([]T(nil), c.items...)
}

// commit persists next and only then makes it the live state
func (c *Collection[T]) commit(ctx context.Context, next []T) error {
	env := envelope[T]{
		Kind:    c.kind,
		Schema:  c.schema.Fingerprint(),
		SavedAt: c.opts.Now().UTC(),
		Items:   next,
	}
	if env.Items == nil {
		env.Items = []T{}
	}
	blob, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.kind.Collection(), err)
	}
	if err := c.bridge.Save(ctx, c.kind.Collection(), blob); err != nil {
		return fmt.Errorf("save %s: %w", c.kind.Collection(), err)
	}
	c.set(next)
	return nil
}

func (c *Collection[T]) set(items []T) {
	c.items = items
	c.index = make(map[string]int, len(items))
	for i, item := range items {
		c.index[item.EntityID()] = i
	}
}

// The methods below let the workspace treat collections uniformly.

func (c *Collection[T]) entities() []contracts.Entity {
	out := make([]contracts.Entity, len(c.items))
	for i, item := range c.items {
		out[i] = item.Clone()
	}
	return out
}

func (c *Collection[T]) entity(id string) (contracts.Entity, bool) {
	item, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	return item, true
}

// rewrite commits fn applied to copies of the matching entities, returning
// the affected ids and the previous state for rollback
func (c *Collection[T]) rewrite(ctx context.Context, match func(T) bool, fn func(T) (T, bool)) ([]string, []T, error) {
	prev := c.snapshot()
	next := make([]T, 0, len(prev))
	var affected []string
	for _, item := range prev {
		if !match(item) {
			next = append(next, item)
			continue
		}
		affected = append(affected, item.EntityID())
		if updated, keep := fn(item.Clone()); keep {
			next = append(next, updated)
		}
	}
	if len(affected) == 0 {
		return nil, prev, nil
	}
	if err := c.commit(ctx, next); err != nil {
		return nil, nil, err
	}
	return affected, prev, nil
}

// restore re-commits a previous state after a failed cascade
func (c *Collection[T]) restore(ctx context.Context, prev []T) error {
	return c.commit(ctx, prev)
}
