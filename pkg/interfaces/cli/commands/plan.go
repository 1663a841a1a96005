package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	csvrepo "coldplan/pkg/infrastructure/repositories/csv"
	"coldplan/pkg/infrastructure/store"
	"coldplan/pkg/interfaces/cli/output"
	"coldplan/pkg/planning/rolling"
)

var (
	planScenarioDir string
	planOutputDir   string
	planFormat      string
	planStorePath   string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Solve the full forecast horizon with the rolling-horizon driver",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := csvrepo.NewLoader().LoadScenario(planScenarioDir, cfg.CostStructure())
		if err != nil {
			return err
		}
		rollCfg, err := cfg.RollingConfig()
		if err != nil {
			return err
		}

		driver := rolling.NewDriver(inputs, rollCfg, log.Logger)
		res, err := driver.Solve(cmd.Context())
		if err != nil {
			return err
		}

		if planStorePath != "" {
			st, err := store.Open(planStorePath)
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.SaveRun(res, rollCfg)
			if err != nil {
				return err
			}
			log.Info().Str("run_id", runID).Str("store", planStorePath).Msg("plan run archived")
		}

		return output.WritePlan(res, output.Config{
			Format:    planFormat,
			OutputDir: planOutputDir,
		})
	},
}

func init() {
	planCmd.Flags().StringVarP(&planScenarioDir, "scenario", "s", "", "scenario directory containing CSV files")
	planCmd.Flags().StringVarP(&planOutputDir, "output", "o", "", "directory for plan output files (default: stdout only)")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "output format: text, json, csv")
	planCmd.Flags().StringVar(&planStorePath, "store", "", "SQLite plan archive to record the run in")
	planCmd.MarkFlagRequired("scenario")
}
