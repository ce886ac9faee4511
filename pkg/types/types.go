// Package types defines the typed records the lotmap engine exchanges with
// the hosted document store: residents, pins, location slots, and the merged
// marker views derived from them. All document shape checks happen once, at
// ingestion, so downstream components only ever see these types.
package types

import (
	"fmt"

	"github.com/agentstation/utc"
)

// AvailabilityStatus is a resident's self-reported availability.
type AvailabilityStatus string

// Availability statuses.
const (
	Available   AvailabilityStatus = "available"
	Unavailable AvailabilityStatus = "unavailable"
)

// ResidentKind distinguishes homeowners from tenants.
type ResidentKind string

// Resident kinds.
const (
	Homeowner ResidentKind = "homeowner"
	Tenant    ResidentKind = "tenant"
)

// Address is a resident's self-reported, free-text address.
type Address struct {
	Block  string `json:"block" yaml:"block"`
	Street string `json:"street,omitempty" yaml:"street,omitempty"`
	Lot    string `json:"lot" yaml:"lot"`
}

// GeoPoint is an optional geographic coordinate attached to a resident.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Resident is a resident record as read from the resident collection.
// The engine only reads residents; it never creates or mutates them.
type Resident struct {
	ID           string             `json:"id" yaml:"id"`
	FullName     string             `json:"full_name" yaml:"full_name"`
	Address      Address            `json:"address" yaml:"address"`
	Availability AvailabilityStatus `json:"availability_status" yaml:"availability_status"`
	Kind         ResidentKind       `json:"resident_kind" yaml:"resident_kind"`
	Geo          *GeoPoint          `json:"geo,omitempty" yaml:"geo,omitempty"`
}

// SlotID identifies a canonical grid position.
type SlotID string

// LocationSlot is a canonical grid position for one subdivision lot.
// Slots are generated once from the static layout and are immutable for
// the process lifetime.
type LocationSlot struct {
	ID     SlotID  `json:"id" yaml:"id"`
	Block  string  `json:"block" yaml:"block"`
	Lot    string  `json:"lot" yaml:"lot"`
	Street string  `json:"street,omitempty" yaml:"street,omitempty"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
}

// Position is a point on the subdivision map.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pin is an administrator-placed override marker. Pins are uniquely
// identified by their normalized (block, lot) key across the collection.
type Pin struct {
	ID          string   `json:"id" yaml:"id"`
	X           float64  `json:"x" yaml:"x"`
	Y           float64  `json:"y" yaml:"y"`
	Block       string   `json:"block" yaml:"block"`
	Lot         string   `json:"lot" yaml:"lot"`
	Street      string   `json:"street,omitempty" yaml:"street,omitempty"`
	IsOccupied  bool     `json:"is_occupied" yaml:"is_occupied"`
	IsAvailable bool     `json:"is_available" yaml:"is_available"`
	CreatedAt   utc.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   utc.Time `json:"updated_at" yaml:"updated_at"`
}

// Key is a normalized (block, lot) pair. It is the identity under which
// pins are deduplicated and the sync cursor is tracked.
type Key struct {
	Block string
	Lot   string
}

// String returns the key in "block/lot" form for logging.
func (k Key) String() string {
	return k.Block + "/" + k.Lot
}

// IsZero reports whether either half of the key is empty.
func (k Key) IsZero() bool {
	return k.Block == "" || k.Lot == ""
}

// Marker position keys. MarkerPosition overrides are keyed by these stable
// strings (or by a slot ID) and are purely cosmetic.
func BlockPositionKey(block string) string { return "block_" + block }

// LotPositionKey returns the position key for a lot label.
func LotPositionKey(block, lot string) string { return fmt.Sprintf("lot_%s_%s", block, lot) }

// StreetPositionKey returns the position key for a street label.
func StreetPositionKey(street string) string { return "street_" + street }

// MarkerState is the rendered state of one slot on the map.
type MarkerState string

// Marker states, in precedence order of the flags that produce them.
const (
	// StateUnassigned: the slot has neither a pin nor a matched resident.
	StateUnassigned MarkerState = "unassigned"
	// StateUnoccupied: a pin exists with IsOccupied=false.
	StateUnoccupied MarkerState = "unoccupied"
	// StateAvailable / StateUnavailable: occupancy flags from the pin when
	// one exists, otherwise the matched resident's own availability.
	StateAvailable   MarkerState = "available"
	StateUnavailable MarkerState = "unavailable"
)

// MarkerView is one slot's merged visual and logical state. When Pin is
// non-nil it is the rendered marker and Resident is display metadata only;
// otherwise Resident (if any) drives the marker.
type MarkerView struct {
	Slot     LocationSlot
	Pin      *Pin
	Resident *Resident
	State    MarkerState
}

// Occupied reports whether the slot is occupied either by a pin flagged
// occupied or by a matched resident.
func (v MarkerView) Occupied() bool {
	if v.Pin != nil {
		return v.Pin.IsOccupied
	}
	return v.Resident != nil
}
