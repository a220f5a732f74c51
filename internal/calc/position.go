package calc

import "time"

// PositionInput carries the raw fields of a single investment position
type PositionInput struct {
	Invested float64
	Value    float64 // exit value when realised, current mark otherwise
	Start    time.Time
	End      time.Time // exit date when realised, valuation date otherwise
}

// PositionMetrics holds the derived figures of a position.
// IRR is nil when undefined.
type PositionMetrics struct {
	MOIC float64
	IRR  *float64
}

// Position derives MOIC and IRR for one position
func Position(in PositionInput) PositionMetrics {
	m := PositionMetrics{MOIC: MOIC(in.Value, in.Invested)}
	if irr, ok := IRR(in.Invested, in.Value, in.Start, in.End); ok {
		m.IRR = &irr
	}
	return m
}

// Holding is one position as seen by Summarize
type Holding struct {
	Invested float64
	Value    float64
	Realized bool
}

// Summary aggregates a set of holdings
type Summary struct {
	Positions       int     `json:"positions"`
	Realized        int     `json:"realized"`
	Invested        float64 `json:"invested"`
	Value           float64 `json:"value"`
	RealizedValue   float64 `json:"realized_value"`
	UnrealizedValue float64 `json:"unrealized_value"`
	MOIC            float64 `json:"moic"`
}

// Summarize totals holdings and derives the aggregate multiple.
// Totals are left unrounded; only the multiple goes through Round.
func Summarize(holdings []Holding) Summary {
	var s Summary
	for _, h := range holdings {
		s.Positions++
		s.Invested += h.Invested
		s.Value += h.Value
		if h.Realized {
			s.Realized++
			s.RealizedValue += h.Value
		} else {
			s.UnrealizedValue += h.Value
		}
	}
	s.MOIC = MOIC(s.Value, s.Invested)
	return s
}
