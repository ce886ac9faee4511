package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/layout"
	"github.com/homestead/lotmap/pkg/match"
	"github.com/homestead/lotmap/pkg/precedence"
	"github.com/homestead/lotmap/pkg/types"
	"github.com/homestead/lotmap/pkg/view"
)

// fixture is the YAML shape the match command reads.
type fixture struct {
	Residents []types.Resident `yaml:"residents"`
	Pins      []types.Pin      `yaml:"pins"`
}

var (
	matchFixturePath string
	matchLayoutPath  string
	matchQuery       string
	matchStatus      string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run one matching pass over a fixture file and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(matchFixturePath)
		if err != nil {
			return err
		}
		var fx fixture
		if err := yaml.Unmarshal(data, &fx); err != nil {
			return errors.WrapParse("yaml", matchFixturePath, err)
		}

		slots := layout.Default()
		if matchLayoutPath != "" {
			f, err := os.Open(matchLayoutPath)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			cfg, err := layout.Load(f)
			if err != nil {
				return err
			}
			slots = cfg.Slots()
		}

		assignment := match.Match(slots, fx.Residents)
		markers := precedence.Resolve(slots, assignment, fx.Pins)
		markers = view.Apply(markers, matchQuery, view.Status(matchStatus))

		out := cmd.OutOrStdout()
		for _, marker := range markers {
			if marker.State == types.StateUnassigned && matchStatus == string(view.StatusAll) {
				continue
			}
			name := "-"
			if marker.Resident != nil {
				name = marker.Resident.FullName
			}
			source := "resident"
			if marker.Pin != nil {
				source = "pin"
			}
			fmt.Fprintf(out, "%-14s block %-3s lot %-4s %-12s %-8s %s\n",
				marker.Slot.ID, marker.Slot.Block, marker.Slot.Lot, marker.State, source, name)
		}

		if len(assignment.Unmatched) > 0 {
			fmt.Fprintf(out, "\nunmatched residents (%d):\n", len(assignment.Unmatched))
			for _, u := range assignment.Unmatched {
				fmt.Fprintf(out, "  %-24s block %q lot %q: %s\n",
					u.Resident.FullName, u.Resident.Address.Block, u.Resident.Address.Lot, u.Reason)
			}
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchFixturePath, "fixture", "f", "", "YAML file with residents and pins (required)")
	matchCmd.Flags().StringVar(&matchLayoutPath, "layout", "", "YAML layout file (default: embedded layout)")
	matchCmd.Flags().StringVarP(&matchQuery, "query", "q", "", "search text filter")
	matchCmd.Flags().StringVarP(&matchStatus, "status", "s", string(view.StatusAll), "status filter: all|unoccupied|available|unavailable")
	_ = matchCmd.MarkFlagRequired("fixture")
	rootCmd.AddCommand(matchCmd)
}
