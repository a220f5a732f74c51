package contracts

import "time"

// VehicleStatus is the availability of a fleet vehicle
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "Available"
	VehicleInTransit   VehicleStatus = "In Transit"
	VehicleMaintenance VehicleStatus = "Maintenance"
	VehicleRetired     VehicleStatus = "Retired"
)

// VehicleStatuses lists every vehicle status
func VehicleStatuses() []string {
	return []string{string(VehicleAvailable), string(VehicleInTransit), string(VehicleMaintenance), string(VehicleRetired)}
}

// Valid reports whether s is a known vehicle status
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleInTransit, VehicleMaintenance, VehicleRetired:
		return true
	}
	return false
}

// Vehicle is a fleet vehicle
type Vehicle struct {
	ID             string        `json:"id"`
	Registration   string        `json:"registration"`
	Type           string        `json:"type"`
	Capacity       float64       `json:"capacity"`
	Status         VehicleStatus `json:"status"`
	ServiceDueDate Date          `json:"serviceDueDate,omitempty"`
}

func (v *Vehicle) EntityID() string      { return v.ID }
func (v *Vehicle) EntityKind() Kind      { return KindVehicle }
func (v *Vehicle) SetEntityID(id string) { v.ID = id }

func (v *Vehicle) Field(name string) (any, bool) {
	switch name {
	case "id":
		return v.ID, true
	case "registration":
		return v.Registration, true
	case "type":
		return v.Type, true
	case "capacity":
		return v.Capacity, true
	case "status":
		return string(v.Status), true
	case "serviceDueDate":
		return dateField(v.ServiceDueDate)
	}
	return nil, false
}

func (v *Vehicle) Derive(time.Time) {
	if v.Status != VehicleMaintenance {
		v.ServiceDueDate = ""
	}
}

func (v *Vehicle) Validate() error {
	if !v.Status.Valid() {
		return invalidStatus(string(v.Status))
	}
	err := firstErr(
		requireText("registration", v.Registration),
		requireText("type", v.Type),
		nonNegative("capacity", v.Capacity),
	)
	if err != nil {
		return err
	}
	if v.Status == VehicleMaintenance {
		return requireDate("serviceDueDate", v.ServiceDueDate)
	}
	return nil
}

func (v *Vehicle) Clone() *Vehicle {
	c := *v
	return &c
}
