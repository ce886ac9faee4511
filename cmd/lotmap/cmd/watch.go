package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homestead/lotmap"
	"github.com/homestead/lotmap/internal/config"
	"github.com/homestead/lotmap/pkg/docstore/redisstore"
	"github.com/homestead/lotmap/pkg/logging"
	"github.com/homestead/lotmap/pkg/match"
	"github.com/homestead/lotmap/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch resident and pin collections and keep markers in sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		store, err := redisstore.New(cmd.Context(), redisstore.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
		})
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		opts := []lotmap.Option{
			lotmap.WithStore(store),
			lotmap.WithCollections(cfg.ResidentsCollection, cfg.PinsCollection, cfg.PositionsCollection),
			lotmap.WithDebounce(cfg.Debounce),
		}
		if cfg.LayoutPath != "" {
			opts = append(opts, lotmap.WithLayoutFile(cfg.LayoutPath))
		}

		engine, err := lotmap.New(opts...)
		if err != nil {
			return err
		}

		log := logging.Default()
		engine.OnMarkersChanged(func(markers []types.MarkerView) {
			occupied := 0
			for _, m := range markers {
				if m.Occupied() {
					occupied++
				}
			}
			log.Info().
				Int("markers", len(markers)).
				Int("occupied", occupied).
				Msg("Markers updated")
		})
		engine.OnUnmatchedChanged(func(unmatched []match.Unmatched) {
			for _, u := range unmatched {
				log.Warn().
					Str("resident", u.Resident.FullName).
					Str("reason", string(u.Reason)).
					Msg("Resident could not be placed")
			}
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info().
			Str("redis", cfg.RedisAddr).
			Str("namespace", cfg.Namespace).
			Msg("Watching for changes")
		return engine.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
