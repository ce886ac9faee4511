// Package layout generates the canonical location slots for a subdivision
// from a declarative YAML layout. Slots are produced deterministically and
// are immutable for the process lifetime; the same layout always yields the
// same slot IDs and grid positions.
package layout

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/homestead/lotmap/pkg/address"
	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/types"
)

//go:embed default.yaml
var defaultLayout []byte

// Point is a grid coordinate in the layout file.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// BlockSpec describes one block of consecutive lots. Lots are numbered
// 1..Lots and placed at Origin plus (lot-1) steps.
type BlockSpec struct {
	Block  string `yaml:"block"`
	Street string `yaml:"street,omitempty"`
	Lots   int    `yaml:"lots"`
	Origin Point  `yaml:"origin"`
	Step   Point  `yaml:"step"`
}

// Config is a parsed subdivision layout.
type Config struct {
	Name   string      `yaml:"name,omitempty"`
	Blocks []BlockSpec `yaml:"blocks"`
}

// Parse decodes a YAML layout.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapParse("yaml", "layout", err)
	}
	if len(cfg.Blocks) == 0 {
		return nil, errors.NewValidationError("blocks", nil, "layout defines no blocks")
	}
	for i, block := range cfg.Blocks {
		if block.Lots <= 0 {
			return nil, errors.NewValidationError(
				fmt.Sprintf("blocks[%d].lots", i), block.Lots, "must be positive")
		}
	}
	return &cfg, nil
}

// Load decodes a YAML layout from a reader.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Slots generates the location slots for the layout. Slot IDs derive from
// the normalized block and lot, so they are stable across runs and across
// cosmetic relabeling of the raw block text.
func (c *Config) Slots() []types.LocationSlot {
	var slots []types.LocationSlot
	for _, block := range c.Blocks {
		normalizedBlock := address.Normalize(block.Block, address.Block)
		street := address.Normalize(block.Street, address.Street)

		for lot := 1; lot <= block.Lots; lot++ {
			lotLabel := fmt.Sprintf("%d", lot)
			slots = append(slots, types.LocationSlot{
				ID:     types.SlotID(fmt.Sprintf("slot_%s_%s", normalizedBlock, lotLabel)),
				Block:  normalizedBlock,
				Lot:    lotLabel,
				Street: street,
				X:      block.Origin.X + float64(lot-1)*block.Step.X,
				Y:      block.Origin.Y + float64(lot-1)*block.Step.Y,
			})
		}
	}
	return slots
}

// Default returns the slots of the embedded default subdivision layout.
func Default() []types.LocationSlot {
	cfg, err := Parse(defaultLayout)
	if err != nil {
		// The embedded layout is validated by tests; failing to parse it
		// is a build defect, not a runtime condition.
		panic(err)
	}
	return cfg.Slots()
}
