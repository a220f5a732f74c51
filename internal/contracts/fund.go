package contracts

import (
	"time"

	"github.com/wonny/holdings/internal/calc"
)

// FundStatus is the lifecycle stage of a fund
type FundStatus string

const (
	FundFundraising FundStatus = "Fundraising"
	FundActive      FundStatus = "Active"
	FundHarvesting  FundStatus = "Harvesting"
	FundClosed      FundStatus = "Closed"
)

// FundStatuses lists every fund status
func FundStatuses() []string {
	return []string{string(FundFundraising), string(FundActive), string(FundHarvesting), string(FundClosed)}
}

// Valid reports whether s is a known fund status
func (s FundStatus) Valid() bool {
	switch s {
	case FundFundraising, FundActive, FundHarvesting, FundClosed:
		return true
	}
	return false
}

// Fund is a private equity fund
// ⭐ 계약: IRR/MOIC는 보고값(입력), DPI/TVPI는 파생값
type Fund struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Strategy    string     `json:"strategy"`
	Vintage     int        `json:"vintage"`
	AUM         float64    `json:"aum"`
	IRR         float64    `json:"irr"`  // reported, %
	MOIC        float64    `json:"moic"` // reported
	Commitments float64    `json:"commitments"`
	Called      float64    `json:"called"`
	Distributed float64    `json:"distributed"`
	NAV         float64    `json:"nav"`
	Status      FundStatus `json:"status"`

	// Derived
	DPI  float64 `json:"dpi"`
	TVPI float64 `json:"tvpi"`
}

func (f *Fund) EntityID() string      { return f.ID }
func (f *Fund) EntityKind() Kind      { return KindFund }
func (f *Fund) SetEntityID(id string) { f.ID = id }

func (f *Fund) Field(name string) (any, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "name":
		return f.Name, true
	case "strategy":
		return f.Strategy, true
	case "vintage":
		return f.Vintage, true
	case "aum":
		return f.AUM, true
	case "irr":
		return f.IRR, true
	case "moic":
		return f.MOIC, true
	case "commitments":
		return f.Commitments, true
	case "called":
		return f.Called, true
	case "distributed":
		return f.Distributed, true
	case "nav":
		return f.NAV, true
	case "status":
		return string(f.Status), true
	case "dpi":
		return f.DPI, true
	case "tvpi":
		return f.TVPI, true
	}
	return nil, false
}

func (f *Fund) Derive(time.Time) {
	f.DPI = calc.DPI(f.Distributed, f.Called)
	f.TVPI = calc.TVPI(f.NAV, f.Distributed, f.Called)
}

func (f *Fund) Validate() error {
	if !f.Status.Valid() {
		return invalidStatus(string(f.Status))
	}
	if f.Vintage < 1900 || f.Vintage > 2100 {
		return NewFieldError("vintage", ReasonOutOfRange, "%d is outside 1900..2100", f.Vintage)
	}
	return firstErr(
		requireText("name", f.Name),
		requireText("strategy", f.Strategy),
		nonNegative("aum", f.AUM),
		finite("irr", f.IRR),
		nonNegative("moic", f.MOIC),
		nonNegative("commitments", f.Commitments),
		nonNegative("called", f.Called),
		nonNegative("distributed", f.Distributed),
		nonNegative("nav", f.NAV),
	)
}

func (f *Fund) Clone() *Fund {
	c := *f
	return &c
}
