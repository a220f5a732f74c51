package contracts

import (
	"time"

	"github.com/wonny/holdings/internal/calc"
)

// ShipmentStatus is the delivery state of a shipment
type ShipmentStatus string

const (
	ShipmentScheduled ShipmentStatus = "Scheduled"
	ShipmentInTransit ShipmentStatus = "In Transit"
	ShipmentDelivered ShipmentStatus = "Delivered"
	ShipmentCancelled ShipmentStatus = "Cancelled"
)

// ShipmentStatuses lists every shipment status
func ShipmentStatuses() []string {
	return []string{string(ShipmentScheduled), string(ShipmentInTransit), string(ShipmentDelivered), string(ShipmentCancelled)}
}

// Valid reports whether s is a known shipment status
func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentScheduled, ShipmentInTransit, ShipmentDelivered, ShipmentCancelled:
		return true
	}
	return false
}

// Shipment is a consignment carried by a vehicle
// ⭐ 계약: VehicleID는 차량 삭제 시 비워질 수 있음 (In Transit 제외)
type Shipment struct {
	ID            string         `json:"id"`
	VehicleID     string         `json:"vehicleId"`
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	Weight        float64        `json:"weight"`
	Value         float64        `json:"value"`
	DispatchDate  Date           `json:"dispatchDate"`
	Status        ShipmentStatus `json:"status"`
	DeliveredDate Date           `json:"deliveredDate,omitempty"`

	// Derived
	TransitDays *int `json:"transitDays,omitempty"`
}

func (s *Shipment) EntityID() string      { return s.ID }
func (s *Shipment) EntityKind() Kind      { return KindShipment }
func (s *Shipment) SetEntityID(id string) { s.ID = id }

// References is empty once the shipment has been unassigned
func (s *Shipment) References() []Reference {
	if s.VehicleID == "" {
		return nil
	}
	return []Reference{{Field: "vehicleId", Kind: KindVehicle, ID: s.VehicleID}}
}

func (s *Shipment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "vehicleId":
		if s.VehicleID == "" {
			return nil, false
		}
		return s.VehicleID, true
	case "origin":
		return s.Origin, true
	case "destination":
		return s.Destination, true
	case "weight":
		return s.Weight, true
	case "value":
		return s.Value, true
	case "dispatchDate":
		return dateField(s.DispatchDate)
	case "status":
		return string(s.Status), true
	case "deliveredDate":
		return dateField(s.DeliveredDate)
	case "transitDays":
		if s.TransitDays == nil {
			return nil, false
		}
		return *s.TransitDays, true
	}
	return nil, false
}

func (s *Shipment) Derive(time.Time) {
	s.TransitDays = nil
	if s.Status != ShipmentDelivered {
		s.DeliveredDate = ""
		return
	}
	if days, ok := calc.ElapsedDays(s.DispatchDate.Time(), s.DeliveredDate.Time()); ok {
		s.TransitDays = &days
	}
}

func (s *Shipment) Validate() error {
	if !s.Status.Valid() {
		return invalidStatus(string(s.Status))
	}
	if s.Status == ShipmentInTransit && s.VehicleID == "" {
		return &FieldError{Field: "vehicleId", Reason: ReasonMissingField, Detail: "an in-transit shipment needs a vehicle"}
	}
	err := firstErr(
		requireText("origin", s.Origin),
		requireText("destination", s.Destination),
		nonNegative("weight", s.Weight),
		nonNegative("value", s.Value),
		requireDate("dispatchDate", s.DispatchDate),
	)
	if err != nil {
		return err
	}
	if s.Status == ShipmentDelivered {
		return firstErr(
			requireDate("deliveredDate", s.DeliveredDate),
			notBefore("deliveredDate", s.DeliveredDate, s.DispatchDate, "dispatchDate"),
		)
	}
	return nil
}

func (s *Shipment) Clone() *Shipment {
	c := *s
	if s.TransitDays != nil {
		d := *s.TransitDays
		c.TransitDays = &d
	}
	return &c
}
