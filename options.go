package lotmap

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/docstore/memory"
	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/layout"
	"github.com/homestead/lotmap/pkg/logging"
	"github.com/homestead/lotmap/pkg/syncengine"
	"github.com/homestead/lotmap/pkg/types"
)

// Default collection names in the hosted store.
const (
	DefaultResidentsCollection = "residents"
	DefaultPinsCollection      = "mapPins"
	DefaultPositionsCollection = "markerPositions"
)

// Option is a function that configures an Engine instance.
type Option func(*config) error

// config holds the resolved engine configuration.
type config struct {
	store               docstore.Store
	slots               []types.LocationSlot
	debounce            time.Duration
	logger              *zerolog.Logger
	residentsCollection string
	pinsCollection      string
	positionsCollection string
}

// newConfig applies options over the defaults.
func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		debounce:            syncengine.DefaultDebounce,
		residentsCollection: DefaultResidentsCollection,
		pinsCollection:      DefaultPinsCollection,
		positionsCollection: DefaultPositionsCollection,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.slots == nil {
		cfg.slots = layout.Default()
	}
	if cfg.logger == nil {
		cfg.logger = logging.Default()
	}
	return cfg, nil
}

// WithStore configures the document store backing the engine. Defaults to
// an empty in-memory store.
func WithStore(store docstore.Store) Option {
	return func(c *config) error {
		if store == nil {
			return errors.NewValidationError("store", nil, "store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithSlots configures the location slots directly.
func WithSlots(slots []types.LocationSlot) Option {
	return func(c *config) error {
		if len(slots) == 0 {
			return errors.NewValidationError("slots", nil, "slot set cannot be empty")
		}
		c.slots = slots
		return nil
	}
}

// WithLayout generates the location slots from a parsed layout.
func WithLayout(cfg *layout.Config) Option {
	return func(c *config) error {
		if cfg == nil {
			return errors.NewValidationError("layout", nil, "layout cannot be nil")
		}
		c.slots = cfg.Slots()
		return nil
	}
}

// WithLayoutFile loads the location slots from a layout YAML file.
func WithLayoutFile(path string) Option {
	return func(c *config) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		cfg, err := layout.Load(f)
		if err != nil {
			return err
		}
		c.slots = cfg.Slots()
		return nil
	}
}

// WithLogger configures the logger used by the engine's own log events.
// Component packages keep logging through the package default.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithDebounce configures the sync engine's debounce quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return errors.NewValidationError("debounce", d, "debounce must be positive")
		}
		c.debounce = d
		return nil
	}
}

// WithCollections overrides the collection names in the hosted store.
func WithCollections(residents, pins, positions string) Option {
	return func(c *config) error {
		if residents == "" || pins == "" || positions == "" {
			return errors.NewValidationError("collections", nil, "collection names cannot be empty")
		}
		c.residentsCollection = residents
		c.pinsCollection = pins
		c.positionsCollection = positions
		return nil
	}
}
