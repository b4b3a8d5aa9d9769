package entity

import "fmt"

// Type identifies one kind of indexed entity.
type Type string

const (
	// Organization is the tenant-owning root of the ownership chain.
	Organization Type = "organization"
	// Location is a physical site belonging to an organization.
	Location Type = "location"
	// Zone is an area within a location.
	Zone Type = "zone"
	// Sensor is a device installed in a zone.
	Sensor Type = "sensor"
	// Report is a generated report owned by an organization.
	Report Type = "report"
	// Dashboard is a saved dashboard owned by an organization.
	Dashboard Type = "dashboard"
)

// All returns every supported entity type in federation order.
func All() []Type {
	return []Type{Organization, Location, Zone, Sensor, Report, Dashboard}
}

// Parse converts a string into a Type.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	switch t {
	case Organization, Location, Zone, Sensor, Report, Dashboard:
		return true
	}
	return false
}

// Entity is a read-only view of one primary-store row. TenantID is set
// directly only on tenant-owning roots; every other entity inherits it
// through its parent chain.
type Entity struct {
	ID          int64
	Type        Type
	TenantID    string
	Name        string
	Description string
	Status      string
	Latitude    *float64
	Longitude   *float64
	ParentType  Type
	ParentID    int64
}

// HasParent reports whether the entity references a parent in the chain.
func (e Entity) HasParent() bool {
	return e.ParentType != "" && e.ParentID != 0
}
