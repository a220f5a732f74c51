package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/holdings/internal/calc"
	"github.com/wonny/holdings/internal/collection"
	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/importer"
	"github.com/wonny/holdings/internal/storage"
	"github.com/wonny/holdings/pkg/logger"
)

// collectionView is what the workspace needs from every collection
type collectionView interface {
	Kind() contracts.Kind
	Len() int
	Load(ctx context.Context) error
	IDs() []string
	Has(id string) bool
	Drifted() []string
	Dangling() []string
	Flush(ctx context.Context) error
	entities() []contracts.Entity
	entity(id string) (contracts.Entity, bool)
}

// Workspace owns one collection per entity kind over a single bridge
type Workspace struct {
	Funds       *Collection[*contracts.Fund]
	Investments *Collection[*contracts.Investment]
	Students    *Collection[*contracts.Student]
	Progress    *Collection[*contracts.Progress]
	Vehicles    *Collection[*contracts.Vehicle]
	Shipments   *Collection[*contracts.Shipment]

	opts  Options
	log   *logger.Logger
	views map[contracts.Kind]collectionView
}

// NewWorkspace creates an empty workspace; call Load to read persisted state
func NewWorkspace(bridge storage.Bridge, opts Options) *Workspace {
	opts = opts.withDefaults()
	w := &Workspace{
		Funds:       NewCollection[*contracts.Fund](contracts.KindFund, bridge, opts),
		Investments: NewCollection[*contracts.Investment](contracts.KindInvestment, bridge, opts),
		Students:    NewCollection[*contracts.Student](contracts.KindStudent, bridge, opts),
		Progress:    NewCollection[*contracts.Progress](contracts.KindProgress, bridge, opts),
		Vehicles:    NewCollection[*contracts.Vehicle](contracts.KindVehicle, bridge, opts),
		Shipments:   NewCollection[*contracts.Shipment](contracts.KindShipment, bridge, opts),
		opts:        opts,
		log:         opts.Logger.Component("workspace"),
	}
	w.views = map[contracts.Kind]collectionView{
		contracts.KindFund:       w.Funds,
		contracts.KindInvestment: w.Investments,
		contracts.KindStudent:    w.Students,
		contracts.KindProgress:   w.Progress,
		contracts.KindVehicle:    w.Vehicles,
		contracts.KindShipment:   w.Shipments,
	}

	w.Investments.checkRefs = func(i *contracts.Investment) error { return w.checkRefs(i) }
	w.Progress.checkRefs = func(p *contracts.Progress) error { return w.checkRefs(p) }
	w.Shipments.checkRefs = func(s *contracts.Shipment) error { return w.checkRefs(s) }
	return w
}

func (w *Workspace) checkRefs(item contracts.Referencing) error {
	for _, ref := range item.References() {
		view, ok := w.views[ref.Kind]
		if !ok || !view.Has(ref.ID) {
			return contracts.NewFieldError(ref.Field, contracts.ReasonUnknownReference,
				"%s %q does not exist", ref.Kind, ref.ID)
		}
	}
	return nil
}

func (w *Workspace) view(kind contracts.Kind) (collectionView, error) {
	v, ok := w.views[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return v, nil
}

// Load reads every collection, parents first
func (w *Workspace) Load(ctx context.Context) error {
	start := time.Now()
	for _, kind := range contracts.Kinds() {
		if err := w.views[kind].Load(ctx); err != nil {
			return err
		}
	}
	w.log.WithFields(map[string]interface{}{
		"counts":   w.Counts(),
		"duration": time.Since(start).String(),
	}).Info("Workspace loaded")
	return nil
}

// Counts returns the number of entities per kind
func (w *Workspace) Counts() map[contracts.Kind]int {
	out := make(map[contracts.Kind]int, len(w.views))
	for kind, v := range w.views {
		out[kind] = v.Len()
	}
	return out
}

// Refs returns every known id per kind for foreign-key checks
func (w *Workspace) Refs() contracts.Refs {
	refs := contracts.Refs{}
	for kind, v := range w.views {
		refs.Add(kind, v.IDs()...)
	}
	return refs
}

// Import runs the pipeline over data and commits the accepted rows in one
// batch. The report is returned even when the import aborts.
func (w *Workspace) Import(ctx context.Context, kind contracts.Kind, format importer.Format, data []byte) (*importer.Report, error) {
	p, err := importer.New(kind, importer.WithClock(w.opts.Now), importer.WithLogger(w.opts.Logger))
	if err != nil {
		return nil, err
	}
	report := p.Import(ctx, format, data, w.Refs())
	if err := report.Err(); err != nil {
		return report, err
	}
	if report.Succeeded() == 0 {
		return report, nil
	}

	committed, err := w.applyBatch(ctx, kind, report.Imported)
	if err != nil {
		return report, fmt.Errorf("commit import: %w", err)
	}
	report.Imported = committed
	return report, nil
}

func (w *Workspace) applyBatch(ctx context.Context, kind contracts.Kind, items []contracts.Item) ([]contracts.Item, error) {
	switch kind {
	case contracts.KindFund:
		return applyBatch(ctx, w.Funds, items)
	case contracts.KindInvestment:
		return applyBatch(ctx, w.Investments, items)
	case contracts.KindStudent:
		return applyBatch(ctx, w.Students, items)
	case contracts.KindProgress:
		return applyBatch(ctx, w.Progress, items)
	case contracts.KindVehicle:
		return applyBatch(ctx, w.Vehicles, items)
	case contracts.KindShipment:
		return applyBatch(ctx, w.Shipments, items)
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

func applyBatch[T contracts.Record[T]](ctx context.Context, c *Collection[T], items []contracts.Item) ([]contracts.Item, error) {
	typed := make([]T, 0, len(items))
	for _, item := range items {
		t, ok := item.(T)
		if !ok {
			return nil, fmt.Errorf("%s batch holds %T", c.Kind(), item)
		}
		typed = append(typed, t)
	}
	added, err := c.ApplyImportBatch(ctx, typed)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.Item, len(added))
	for i, a := range added {
		out[i] = a
	}
	return out, nil
}

// Get returns a copy of one entity
func (w *Workspace) Get(kind contracts.Kind, id string) (contracts.Entity, error) {
	v, err := w.view(kind)
	if err != nil {
		return nil, err
	}
	e, ok := v.entity(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, contracts.ErrNotFound)
	}
	return e, nil
}

// List filters and sorts copies of one kind's entities
func (w *Workspace) List(kind contracts.Kind, q collection.Query) ([]contracts.Entity, error) {
	v, err := w.view(kind)
	if err != nil {
		return nil, err
	}
	return collection.Apply(v.entities(), q), nil
}

// Cascade describes what a delete did to dependents
type Cascade struct {
	Kind       contracts.Kind `json:"kind"`
	ID         string         `json:"id"`
	Removed    []string       `json:"removed,omitempty"`
	Unassigned []string       `json:"unassigned,omitempty"`
}

// Delete removes one entity and applies its cascade policy.
// Dependents are committed first; when the parent save then fails they are restored.
func (w *Workspace) Delete(ctx context.Context, kind contracts.Kind, id string) (*Cascade, error) {
	v, err := w.view(kind)
	if err != nil {
		return nil, err
	}
	if !v.Has(id) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, contracts.ErrNotFound)
	}

	res := &Cascade{Kind: kind, ID: id}
	switch kind {
	case contracts.KindFund:
		err = cascadeRemove(ctx, w.Investments, w.Funds, id, res,
			func(i *contracts.Investment) bool { return i.FundID == id })
	case contracts.KindStudent:
		err = cascadeRemove(ctx, w.Progress, w.Students, id, res,
			func(p *contracts.Progress) bool { return p.StudentID == id })
	case contracts.KindVehicle:
		err = w.deleteVehicle(ctx, id, res)
	case contracts.KindInvestment:
		err = w.Investments.Delete(ctx, id)
	case contracts.KindProgress:
		err = w.Progress.Delete(ctx, id)
	case contracts.KindShipment:
		err = w.Shipments.Delete(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	w.log.WithFields(map[string]interface{}{
		"kind":       kind,
		"id":         id,
		"removed":    len(res.Removed),
		"unassigned": len(res.Unassigned),
	}).Info("Deleted with cascade")
	return res, nil
}

func cascadeRemove[C contracts.Record[C], P contracts.Record[P]](
	ctx context.Context, children *Collection[C], parents *Collection[P], id string, res *Cascade, owned func(C) bool,
) error {
	removed, prev, err := children.rewrite(ctx, owned, func(C) (C, bool) {
		var zero C
		return zero, false
	})
	if err != nil {
		return fmt.Errorf("remove dependent %s: %w", children.Kind().Collection(), err)
	}
	if err := parents.Delete(ctx, id); err != nil {
		rollback(ctx, children, removed, prev)
		return err
	}
	res.Removed = removed
	return nil
}

func (w *Workspace) deleteVehicle(ctx context.Context, id string, res *Cascade) error {
	assigned := func(s *contracts.Shipment) bool { return s.VehicleID == id }
	for _, s := range w.Shipments.Find(assigned) {
		if s.Status == contracts.ShipmentInTransit {
			return fmt.Errorf("vehicle %s carries in-transit shipment %s: %w", id, s.ID, contracts.ErrInUse)
		}
	}

	unassigned, prev, err := w.Shipments.rewrite(ctx, assigned, func(s *contracts.Shipment) (*contracts.Shipment, bool) {
		s.VehicleID = ""
		return s, true
	})
	if err != nil {
		return fmt.Errorf("unassign shipments: %w", err)
	}
	if err := w.Vehicles.Delete(ctx, id); err != nil {
		rollback(ctx, w.Shipments, unassigned, prev)
		return err
	}
	res.Unassigned = unassigned
	return nil
}

func rollback[T contracts.Record[T]](ctx context.Context, c *Collection[T], affected []string, prev []T) {
	if len(affected) == 0 {
		return
	}
	if err := c.restore(ctx, prev); err != nil {
		c.log.WithError(err).WithField("affected", len(affected)).Error("Cascade rollback failed")
	}
}

// Drift returns the ids per kind whose derived fields were corrected on load
func (w *Workspace) Drift() map[contracts.Kind][]string {
	out := map[contracts.Kind][]string{}
	for kind, v := range w.views {
		if ids := v.Drifted(); len(ids) > 0 {
			out[kind] = ids
		}
	}
	return out
}

// Dangling returns the ids per kind whose foreign keys did not resolve on load.
// They stay loaded; deleting or fixing the parent is left to the caller.
func (w *Workspace) Dangling() map[contracts.Kind][]string {
	out := map[contracts.Kind][]string{}
	for kind, v := range w.views {
		if ids := v.Dangling(); len(ids) > 0 {
			out[kind] = ids
		}
	}
	return out
}

// Repair persists the recomputed state of every drifted collection
func (w *Workspace) Repair(ctx context.Context) ([]contracts.Kind, error) {
	var repaired []contracts.Kind
	for _, kind := range contracts.Kinds() {
		v := w.views[kind]
		if len(v.Drifted()) == 0 {
			continue
		}
		if err := v.Flush(ctx); err != nil {
			return repaired, fmt.Errorf("repair %s: %w", kind.Collection(), err)
		}
		repaired = append(repaired, kind)
	}
	if len(repaired) > 0 {
		w.log.WithField("kinds", repaired).Info("Drifted collections rewritten")
	}
	return repaired, nil
}

// FundTotals aggregates the fund book
type FundTotals struct {
	Funds       int     `json:"funds"`
	AUM         float64 `json:"aum"`
	Commitments float64 `json:"commitments"`
	Called      float64 `json:"called"`
	Distributed float64 `json:"distributed"`
	NAV         float64 `json:"nav"`
	DPI         float64 `json:"dpi"`
	TVPI        float64 `json:"tvpi"`
}

// Summary is the workspace-wide overview
type Summary struct {
	Counts    map[contracts.Kind]int            `json:"counts"`
	Statuses  map[contracts.Kind]map[string]int `json:"statuses"`
	Funds     FundTotals                        `json:"funds"`
	Portfolio calc.Summary                      `json:"portfolio"`
}

// Summary aggregates every collection
func (w *Workspace) Summary() Summary {
	s := Summary{
		Counts:   w.Counts(),
		Statuses: map[contracts.Kind]map[string]int{},
	}
	for kind, v := range w.views {
		counts := map[string]int{}
		for _, e := range v.entities() {
			if status, ok := e.Field("status"); ok {
				counts[fmt.Sprint(status)]++
			}
		}
		s.Statuses[kind] = counts
	}

	for _, f := range w.Funds.items {
		s.Funds.Funds++
		s.Funds.AUM += f.AUM
		s.Funds.Commitments += f.Commitments
		s.Funds.Called += f.Called
		s.Funds.Distributed += f.Distributed
		s.Funds.NAV += f.NAV
	}
	s.Funds.DPI = calc.DPI(s.Funds.Distributed, s.Funds.Called)
	s.Funds.TVPI = calc.TVPI(s.Funds.NAV, s.Funds.Distributed, s.Funds.Called)

	holdings := make([]calc.Holding, 0, w.Investments.Len())
	for _, i := range w.Investments.items {
		holdings = append(holdings, calc.Holding{
			Invested: i.InitialInvestment,
			Value:    i.Value(),
			Realized: i.Status.Realized(),
		})
	}
	s.Portfolio = calc.Summarize(holdings)
	return s
}
