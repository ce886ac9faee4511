// Package address canonicalizes free-text address fragments into comparable
// keys. Residents self-report their block, lot, and street, so the raw text
// arrives in every imaginable shape ("Block 2", "blk 2", "B", "2"); pins and
// slots carry the administrator's labels. Normalize reduces all of them to
// one canonical form so the matcher and the pin index compare like with like.
//
// Normalize is a pure function and idempotent: normalizing an already
// normalized value returns it unchanged.
package address

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/homestead/lotmap/pkg/types"
)

// Kind selects which normalization rules apply to a fragment.
type Kind string

// Fragment kinds.
const (
	Block  Kind = "block"
	Lot    Kind = "lot"
	Street Kind = "street"
)

var (
	// Accepts "Block 2", "blk 2", "block#2", or a bare "2".
	blockPattern = regexp.MustCompile(`(?i)^(?:block|blk)?\s*#?\s*(\d+)$`)
	lotPattern   = regexp.MustCompile(`(?i)^lot\s*#?\s*(\d+)$`)
	digitsOnly   = regexp.MustCompile(`^\d+$`)

	upper = cases.Upper(language.Und)
)

// streetNames maps known human-entered street names to their canonical
// short forms. Entries are matched case-insensitively and take priority
// over the generic suffix rewrites.
var streetNames = map[string]string{
	"main street":     "Main St",
	"first street":    "First St",
	"second street":   "Second St",
	"third street":    "Third St",
	"fourth street":   "Fourth St",
	"fifth street":    "Fifth St",
	"park avenue":     "Park Ave",
	"garden avenue":   "Garden Ave",
	"hillside drive":  "Hillside Dr",
	"riverside drive": "Riverside Dr",
	"acacia road":     "Acacia Rd",
	"molave lane":     "Molave Ln",
	"sampaguita way":  "Sampaguita Way",
}

// streetSuffixes rewrites long-form suffixes when no table entry matches.
// Order matters: longer suffixes first so "Street" is not left behind by a
// shorter rewrite.
var streetSuffixes = []struct{ long, short string }{
	{"Street", "St"},
	{"Avenue", "Ave"},
	{"Drive", "Dr"},
	{"Road", "Rd"},
	{"Lane", "Ln"},
	{"Way", "Way"},
}

// Normalize canonicalizes a free-text address fragment. Empty or
// whitespace-only input returns the empty string.
func Normalize(raw string, kind Kind) string {
	s := strings.TrimSpace(norm.NFC.String(raw))
	if s == "" {
		return ""
	}

	switch kind {
	case Block:
		return normalizeBlock(s)
	case Lot:
		return normalizeLot(s)
	case Street:
		return normalizeStreet(s)
	default:
		return s
	}
}

// normalizeBlock extracts the block number from "Block N" style input and
// maps 1..26 onto A..Z. Numbers past Z have no letter form and pass through
// as raw digits. Anything non-numeric is upper-cased verbatim.
func normalizeBlock(s string) string {
	m := blockPattern.FindStringSubmatch(s)
	if m == nil {
		return upper.String(s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 26 {
		return m[1]
	}
	return string(rune('A' + n - 1))
}

// normalizeLot extracts the lot number from "Lot N" style input; anything
// else passes through trimmed but otherwise unchanged.
func normalizeLot(s string) string {
	if m := lotPattern.FindStringSubmatch(s); m != nil {
		if trimmed := strings.TrimLeft(m[1], "0"); trimmed != "" {
			return trimmed
		}
		return "0"
	}
	if digitsOnly.MatchString(s) {
		if trimmed := strings.TrimLeft(s, "0"); trimmed != "" {
			return trimmed
		}
	}
	return s
}

// normalizeStreet applies the fixed name table, then the suffix rewrites.
func normalizeStreet(s string) string {
	if canonical, ok := streetNames[strings.ToLower(s)]; ok {
		return canonical
	}
	for _, suffix := range streetSuffixes {
		if strings.HasSuffix(s, " "+suffix.long) {
			return strings.TrimSuffix(s, suffix.long) + suffix.short
		}
	}
	return s
}

// KeyOf returns the normalized (block, lot) key for an address.
func KeyOf(a types.Address) types.Key {
	return types.Key{
		Block: Normalize(a.Block, Block),
		Lot:   Normalize(a.Lot, Lot),
	}
}

// PinKey returns the normalized (block, lot) key for a pin.
func PinKey(p types.Pin) types.Key {
	return types.Key{
		Block: Normalize(p.Block, Block),
		Lot:   Normalize(p.Lot, Lot),
	}
}

// SlotKey returns the normalized (block, lot) key for a location slot.
func SlotKey(s types.LocationSlot) types.Key {
	return types.Key{
		Block: Normalize(s.Block, Block),
		Lot:   Normalize(s.Lot, Lot),
	}
}
