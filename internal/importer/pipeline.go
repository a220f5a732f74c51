// Package importer runs bulk files through header validation, row parsing
// and metric derivation, collecting successes and per-row failures.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/parser"
	"github.com/wonny/holdings/internal/schema"
	"github.com/wonny/holdings/pkg/logger"
)

// State of a pipeline run
type State string

const (
	StateIdle            State = "idle"
	StateHeaderValidated State = "header_validated"
	StateRowsProcessing  State = "rows_processing"
	StateCompleted       State = "completed"
	StateAborted         State = "aborted"
)

// Report is the outcome of one run
type Report struct {
	Kind     contracts.Kind        `json:"kind"`
	State    State                 `json:"state"`
	Imported []contracts.Item      `json:"-"`
	Failures []*contracts.RowError `json:"failures,omitempty"`
	Ignored  []string              `json:"ignored_headers,omitempty"`
	Rows     int                   `json:"rows"`
	Abort    error                 `json:"-"`
	Stages   []State               `json:"stages"`
	Duration time.Duration         `json:"duration"`
}

// Succeeded returns the number of rows that became entities
func (r *Report) Succeeded() int { return len(r.Imported) }

// Failed returns the number of rejected rows
func (r *Report) Failed() int { return len(r.Failures) }

// Err returns the abort reason, or nil when the run completed
func (r *Report) Err() error {
	if r.State == StateAborted {
		return r.Abort
	}
	return nil
}

// ReasonCounts tallies failures by reason
func (r *Report) ReasonCounts() map[contracts.Reason]int {
	out := make(map[contracts.Reason]int)
	for _, f := range r.Failures {
		out[f.Reason]++
	}
	return out
}

// Summary renders the one-line outcome shown to the user
// e.g. "3 imported, 2 skipped: row 4 invalid_number [aum]; row 6 unknown_reference [fundId]"
func (r *Report) Summary() string {
	if r.State == StateAborted {
		return fmt.Sprintf("import aborted: %v", r.Abort)
	}
	if len(r.Failures) == 0 {
		return fmt.Sprintf("%d imported", r.Succeeded())
	}
	reasons := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		reasons[i] = f.Error()
	}
	return fmt.Sprintf("%d imported, %d skipped: %s", r.Succeeded(), r.Failed(), strings.Join(reasons, "; "))
}

// Pipeline imports files of one entity kind.
// A Pipeline is not safe for concurrent use.
// ⭐ SSOT: 헤더 검증 → 행 파싱 → 지표 계산 순서는 여기서만
type Pipeline struct {
	kind   contracts.Kind
	schema *schema.Schema
	now    func() time.Time
	logger *logger.Logger
	state  State
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock fixes the valuation time used for derived metrics
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger attaches a logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l.Component("importer") }
}

// New creates a pipeline for kind
func New(kind contracts.Kind, opts ...Option) (*Pipeline, error) {
	s, err := schema.For(kind)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		kind:   kind,
		schema: s,
		now:    time.Now,
		logger: logger.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// State returns the state reached by the latest run
func (p *Pipeline) State() State {
	return p.state
}

// Import decodes data and runs it
func (p *Pipeline) Import(ctx context.Context, format Format, data []byte, refs contracts.Refs) *Report {
	table, err := Decode(format, data)
	if err != nil {
		p.state = StateIdle
		r := &Report{Kind: p.kind, Stages: []State{StateIdle}}
		return p.abort(r, err, time.Now())
	}
	return p.Run(ctx, table, refs)
}

// Run validates table's header once, then parses and derives every row.
// Row failures are collected; only file-level problems abort.
func (p *Pipeline) Run(ctx context.Context, table *Table, refs contracts.Refs) *Report {
	start := time.Now()
	p.state = StateIdle
	r := &Report{Kind: p.kind, Stages: []State{StateIdle}}

	if table == nil || len(table.Headers) == 0 {
		return p.abort(r, contracts.ErrEmptyFile, start)
	}

	// Header
	if err := p.schema.ValidateHeaders(table.Headers); err != nil {
		return p.abort(r, err, start)
	}
	r.Ignored = p.schema.CheckHeaders(table.Headers).Extra
	p.advance(r, StateHeaderValidated)

	if len(table.Rows) == 0 {
		return p.abort(r, contracts.ErrEmptyFile, start)
	}

	// Rows
	p.advance(r, StateRowsProcessing)
	now := p.now()
	for _, tr := range table.Rows {
		if err := ctx.Err(); err != nil {
			return p.abort(r, err, start)
		}
		r.Rows++

		row, err := parser.NewRow(tr.Line, table.Headers, tr.Cells)
		if err != nil {
			r.Failures = append(r.Failures, contracts.RowErrorFrom(tr.Line, err))
			continue
		}
		item, err := parser.Parse(p.kind, row, refs)
		if err != nil {
			r.Failures = append(r.Failures, contracts.RowErrorFrom(tr.Line, err))
			continue
		}
		item.Derive(now)
		r.Imported = append(r.Imported, item)
	}

	p.advance(r, StateCompleted)
	r.Duration = time.Since(start)

	p.logger.WithFields(map[string]interface{}{
		"kind":     p.kind,
		"rows":     r.Rows,
		"imported": r.Succeeded(),
		"skipped":  r.Failed(),
		"ignored":  r.Ignored,
		"reasons":  reasonList(r.ReasonCounts()),
		"duration": r.Duration.Seconds(),
	}).Info("Import completed")

	return r
}

func (p *Pipeline) advance(r *Report, s State) {
	p.state = s
	r.State = s
	r.Stages = append(r.Stages, s)
}

func (p *Pipeline) abort(r *Report, err error, start time.Time) *Report {
	p.advance(r, StateAborted)
	r.Abort = err
	r.Imported = nil
	r.Duration = time.Since(start)

	l := p.logger.WithError(err).WithField("kind", p.kind)
	if errors.Is(err, context.Canceled) || errors.Is(err, contracts.ErrSuperseded) {
		l.Debug("Import cancelled")
	} else {
		l.Warn("Import aborted")
	}
	return r
}

func reasonList(counts map[contracts.Reason]int) []string {
	out := make([]string, 0, len(counts))
	for reason, n := range counts {
		out = append(out, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(out)
	return out
}
