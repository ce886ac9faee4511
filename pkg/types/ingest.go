package types

import "strings"

// Resident record statuses that never reach the matcher. The resident
// management subsystem owns these lifecycle states; the map engine only
// needs to know which ones to drop at the boundary.
var excludedStatuses = map[string]struct{}{
	"archived":    {},
	"rejected":    {},
	"pending":     {},
	"deactivated": {},
}

// DecodeResident converts a raw resident document into a typed Resident.
// It returns ok=false for records the engine must ignore: excluded
// lifecycle statuses and superadmin accounts. Shape checks happen here and
// nowhere else; downstream code never inspects raw fields.
func DecodeResident(id string, fields map[string]any) (Resident, bool) {
	if _, excluded := excludedStatuses[str(fields["status"])]; excluded {
		return Resident{}, false
	}
	if strings.EqualFold(str(fields["role"]), "superadmin") {
		return Resident{}, false
	}

	r := Resident{
		ID:           id,
		FullName:     str(fields["fullName"]),
		Availability: Unavailable,
		Kind:         Homeowner,
	}

	if addr, ok := fields["address"].(map[string]any); ok {
		r.Address = Address{
			Block:  str(addr["block"]),
			Lot:    str(addr["lot"]),
			Street: str(addr["street"]),
		}
	}

	// Absent or unrecognized availability reads as unavailable.
	if s := str(fields["availabilityStatus"]); s == string(Available) {
		r.Availability = Available
	}

	// Older resident documents carry isTenant instead of residentType.
	switch {
	case strings.EqualFold(str(fields["residentType"]), string(Tenant)):
		r.Kind = Tenant
	case boolean(fields["isTenant"]):
		r.Kind = Tenant
	}

	if geo, ok := fields["geo"].(map[string]any); ok {
		r.Geo = &GeoPoint{Lat: float(geo["lat"]), Lng: float(geo["lng"])}
	}

	return r, true
}

// DecodePin converts a raw pin document into a typed Pin.
func DecodePin(id string, fields map[string]any) Pin {
	p := Pin{
		ID:          id,
		X:           float(fields["x"]),
		Y:           float(fields["y"]),
		Block:       str(fields["block"]),
		Lot:         str(fields["lot"]),
		Street:      str(fields["street"]),
		IsOccupied:  boolean(fields["isOccupied"]),
		IsAvailable: boolean(fields["isAvailable"]),
	}
	return p
}

// EncodePin converts a Pin back into document fields for persistence.
func EncodePin(p Pin) map[string]any {
	return map[string]any{
		"x":           p.X,
		"y":           p.Y,
		"block":       p.Block,
		"lot":         p.Lot,
		"street":      p.Street,
		"isOccupied":  p.IsOccupied,
		"isAvailable": p.IsAvailable,
		"createdAt":   p.CreatedAt.String(),
		"updatedAt":   p.UpdatedAt.String(),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
