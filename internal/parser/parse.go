package parser

import (
	"fmt"

	"github.com/wonny/holdings/internal/contracts"
)

// Parse converts row into an entity of kind.
// Failures are *contracts.RowError carrying the row's line and a reason.
// refs holds the ids of referenced collections; nil means none are known.
func Parse(kind contracts.Kind, row Row, refs contracts.Refs) (contracts.Item, error) {
	switch kind {
	case contracts.KindFund:
		return item(ParseFund(row))
	case contracts.KindInvestment:
		return item(ParseInvestment(row, refs))
	case contracts.KindStudent:
		return item(ParseStudent(row))
	case contracts.KindProgress:
		return item(ParseProgress(row, refs))
	case contracts.KindVehicle:
		return item(ParseVehicle(row))
	case contracts.KindShipment:
		return item(ParseShipment(row, refs))
	}
	return nil, fmt.Errorf("no parser for kind %q", kind)
}

// item keeps a failed typed parse from becoming a non-nil interface
func item[T contracts.Item](e T, err error) (contracts.Item, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

// finish turns cursor and invariant failures into a row error
func finish[T contracts.Item](c *cursor, e T) (T, error) {
	var zero T
	if c.err != nil {
		return zero, contracts.RowErrorFrom(c.row.Line, c.err)
	}
	if err := e.Validate(); err != nil {
		return zero, contracts.RowErrorFrom(c.row.Line, err)
	}
	return e, nil
}

func ParseFund(row Row) (*contracts.Fund, error) {
	c, err := newCursor(contracts.KindFund, row)
	if err != nil {
		return nil, err
	}
	f := &contracts.Fund{
		Name:        c.text("name"),
		Strategy:    c.text("strategy"),
		Vintage:     c.integer("vintage"),
		AUM:         c.number("aum"),
		IRR:         c.percent("irr"),
		MOIC:        c.number("moic"),
		Commitments: c.number("commitments"),
		Called:      c.number("called"),
		Distributed: c.number("distributed"),
		NAV:         c.number("nav"),
		Status:      contracts.FundStatus(c.status),
	}
	return finish(c, f)
}

func ParseInvestment(row Row, refs contracts.Refs) (*contracts.Investment, error) {
	c, err := newCursor(contracts.KindInvestment, row)
	if err != nil {
		return nil, err
	}
	inv := &contracts.Investment{
		FundID:            c.reference("fundId", refs),
		CompanyName:       c.text("companyName"),
		Sector:            c.text("sector"),
		InvestmentDate:    c.date("investmentDate"),
		InitialInvestment: c.number("initialInvestment"),
		Ownership:         c.percent("ownership"),
		Status:            contracts.InvestmentStatus(c.status),
		CurrentValue:      c.optionalNumber("currentValue"),
		ExitDate:          c.date("exitDate"),
		ExitValue:         c.optionalNumber("exitValue"),
	}
	return finish(c, inv)
}

func ParseStudent(row Row) (*contracts.Student, error) {
	c, err := newCursor(contracts.KindStudent, row)
	if err != nil {
		return nil, err
	}
	s := &contracts.Student{
		Name:           c.text("name"),
		Email:          c.text("email"),
		Grade:          c.integer("grade"),
		EnrollmentDate: c.date("enrollmentDate"),
		Status:         contracts.StudentStatus(c.status),
		GraduationDate: c.date("graduationDate"),
	}
	return finish(c, s)
}

func ParseProgress(row Row, refs contracts.Refs) (*contracts.Progress, error) {
	c, err := newCursor(contracts.KindProgress, row)
	if err != nil {
		return nil, err
	}
	p := &contracts.Progress{
		StudentID:     c.reference("studentId", refs),
		Subject:       c.text("subject"),
		RecordedDate:  c.date("recordedDate"),
		Status:        contracts.ProgressStatus(c.status),
		Score:         c.optionalPercent("score"),
		CompletedDate: c.date("completedDate"),
		Notes:         c.text("notes"),
	}
	return finish(c, p)
}

func ParseVehicle(row Row) (*contracts.Vehicle, error) {
	c, err := newCursor(contracts.KindVehicle, row)
	if err != nil {
		return nil, err
	}
	v := &contracts.Vehicle{
		Registration:   c.text("registration"),
		Type:           c.text("type"),
		Capacity:       c.number("capacity"),
		Status:         contracts.VehicleStatus(c.status),
		ServiceDueDate: c.date("serviceDueDate"),
	}
	return finish(c, v)
}

func ParseShipment(row Row, refs contracts.Refs) (*contracts.Shipment, error) {
	c, err := newCursor(contracts.KindShipment, row)
	if err != nil {
		return nil, err
	}
	s := &contracts.Shipment{
		VehicleID:     c.reference("vehicleId", refs),
		Origin:        c.text("origin"),
		Destination:   c.text("destination"),
		Weight:        c.number("weight"),
		Value:         c.number("value"),
		DispatchDate:  c.date("dispatchDate"),
		Status:        contracts.ShipmentStatus(c.status),
		DeliveredDate: c.date("deliveredDate"),
	}
	return finish(c, s)
}
