package contracts

import (
	"time"

	"github.com/wonny/holdings/internal/calc"
)

// InvestmentStatus is the lifecycle stage of a portfolio company investment
type InvestmentStatus string

const (
	InvestmentActive     InvestmentStatus = "Active"
	InvestmentExited     InvestmentStatus = "Exited"
	InvestmentWrittenOff InvestmentStatus = "Written Off"
)

// InvestmentStatuses lists every investment status
func InvestmentStatuses() []string {
	return []string{string(InvestmentActive), string(InvestmentExited), string(InvestmentWrittenOff)}
}

// Valid reports whether s is a known investment status
func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentActive, InvestmentExited, InvestmentWrittenOff:
		return true
	}
	return false
}

// Realized reports whether the position has been exited or written off
func (s InvestmentStatus) Realized() bool {
	return s == InvestmentExited || s == InvestmentWrittenOff
}

// Investment is a fund's position in one portfolio company
// ⭐ 계약: Exited/Written Off → exitDate, exitValue / Active → currentValue
type Investment struct {
	ID                string           `json:"id"`
	FundID            string           `json:"fundId"`
	CompanyName       string           `json:"companyName"`
	Sector            string           `json:"sector"`
	InvestmentDate    Date             `json:"investmentDate"`
	InitialInvestment float64          `json:"initialInvestment"`
	Ownership         float64          `json:"ownership"` // %, 0..100
	Status            InvestmentStatus `json:"status"`
	CurrentValue      *float64         `json:"currentValue,omitempty"`
	ExitDate          Date             `json:"exitDate,omitempty"`
	ExitValue         *float64         `json:"exitValue,omitempty"`

	// Derived
	MOIC          float64  `json:"moic"`
	IRR           *float64 `json:"irr,omitempty"` // nil = undefined
	ValuationDate Date     `json:"valuationDate,omitempty"`
}

func (i *Investment) EntityID() string      { return i.ID }
func (i *Investment) EntityKind() Kind      { return KindInvestment }
func (i *Investment) SetEntityID(id string) { i.ID = id }

func (i *Investment) References() []Reference {
	return []Reference{{Field: "fundId", Kind: KindFund, ID: i.FundID}}
}

func (i *Investment) ValuedAt() time.Time {
	return i.ValuationDate.Time()
}

// Value returns the exit value when realised and the current mark otherwise
func (i *Investment) Value() float64 {
	v := i.CurrentValue
	if i.Status.Realized() {
		v = i.ExitValue
	}
	if v == nil {
		return 0
	}
	return *v
}

func (i *Investment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "fundId":
		return i.FundID, true
	case "companyName":
		return i.CompanyName, true
	case "sector":
		return i.Sector, true
	case "investmentDate":
		return dateField(i.InvestmentDate)
	case "initialInvestment":
		return i.InitialInvestment, true
	case "ownership":
		return i.Ownership, true
	case "status":
		return string(i.Status), true
	case "currentValue":
		return floatPtrField(i.CurrentValue)
	case "exitDate":
		return dateField(i.ExitDate)
	case "exitValue":
		return floatPtrField(i.ExitValue)
	case "moic":
		return i.MOIC, true
	case "irr":
		return floatPtrField(i.IRR)
	case "valuationDate":
		return dateField(i.ValuationDate)
	}
	return nil, false
}

// Derive values active positions as of the calendar day of now
func (i *Investment) Derive(now time.Time) {
	end := DateOf(now).Time()
	if now.IsZero() {
		end = time.Time{}
	}
	if i.Status.Realized() {
		i.CurrentValue = nil
		end = i.ExitDate.Time()
	} else {
		i.ExitDate = ""
		i.ExitValue = nil
	}

	m := calc.Position(calc.PositionInput{
		Invested: i.InitialInvestment,
		Value:    i.Value(),
		Start:    i.InvestmentDate.Time(),
		End:      end,
	})
	i.MOIC = m.MOIC
	i.IRR = m.IRR
	i.ValuationDate = ""
	if !end.IsZero() {
		i.ValuationDate = DateOf(end)
	}
}

func (i *Investment) Validate() error {
	if !i.Status.Valid() {
		return invalidStatus(string(i.Status))
	}
	err := firstErr(
		requireText("fundId", i.FundID),
		requireText("companyName", i.CompanyName),
		requireText("sector", i.Sector),
		requireDate("investmentDate", i.InvestmentDate),
		nonNegative("initialInvestment", i.InitialInvestment),
		percent("ownership", i.Ownership),
	)
	if err != nil {
		return err
	}

	if i.Status.Realized() {
		if err := requireDate("exitDate", i.ExitDate); err != nil {
			return err
		}
		if i.ExitValue == nil {
			return &FieldError{Field: "exitValue", Reason: ReasonMissingField}
		}
		return firstErr(
			nonNegative("exitValue", *i.ExitValue),
			notBefore("exitDate", i.ExitDate, i.InvestmentDate, "investmentDate"),
		)
	}

	if i.CurrentValue == nil {
		return &FieldError{Field: "currentValue", Reason: ReasonMissingField}
	}
	return nonNegative("currentValue", *i.CurrentValue)
}

func (i *Investment) Clone() *Investment {
	c := *i
	c.CurrentValue = copyFloat(i.CurrentValue)
	c.ExitValue = copyFloat(i.ExitValue)
	c.IRR = copyFloat(i.IRR)
	return &c
}
