// Package config loads engine configuration from the environment using
// Viper. All keys carry the LOTMAP_ prefix (LOTMAP_REDIS_ADDR,
// LOTMAP_DEBOUNCE, ...); unset keys fall back to defaults that suit local
// development against an in-memory store.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved engine configuration.
type Config struct {
	// Debounce is the sync engine's quiet period.
	Debounce time.Duration

	// Collection names in the hosted store.
	ResidentsCollection string
	PinsCollection      string
	PositionsCollection string

	// Redis connection, used when a hosted store is requested.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string

	// LayoutPath points at a YAML layout file; empty means the embedded
	// default layout.
	LayoutPath string
}

// Load reads configuration from the environment.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("lotmap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("debounce", "250ms")
	v.SetDefault("residents_collection", "residents")
	v.SetDefault("pins_collection", "mapPins")
	v.SetDefault("positions_collection", "markerPositions")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("namespace", "lotmap")
	v.SetDefault("layout", "")

	return &Config{
		Debounce:            v.GetDuration("debounce"),
		ResidentsCollection: v.GetString("residents_collection"),
		PinsCollection:      v.GetString("pins_collection"),
		PositionsCollection: v.GetString("positions_collection"),
		RedisAddr:           v.GetString("redis_addr"),
		RedisPassword:       v.GetString("redis_password"),
		RedisDB:             v.GetInt("redis_db"),
		Namespace:           v.GetString("namespace"),
		LayoutPath:          v.GetString("layout"),
	}
}
