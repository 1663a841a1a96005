// Package commands wires the coldplan CLI: plan (rolling horizon),
// solve (monolithic), validate, and runs (plan archive).
package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"coldplan/pkg/infrastructure/config"
	"coldplan/pkg/infrastructure/logging"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	verbose    bool
	configPath string
	cfg        config.File
)

var rootCmd = &cobra.Command{
	Use:   "coldplan",
	Short: "Production and distribution planner for perishable-goods networks",
	Long: `coldplan builds a cost-minimizing production, shipment and inventory
schedule for a perishable-goods supply chain from a demand forecast, a
labor calendar, a route network and truck timetables. Long horizons are
solved with a rolling-horizon decomposition over an external MIP solver.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log.Debug().Str("version", Version).Str("config", configPath).Msg("coldplan starting")
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runsCmd)
}
