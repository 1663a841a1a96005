package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coldplan/pkg/domain/entities"
	csvrepo "coldplan/pkg/infrastructure/repositories/csv"
	"coldplan/pkg/interfaces/cli/output"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/rolling"
)

var (
	solveScenarioDir string
	solveStart       string
	solveEnd         string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a horizon as a single monolithic model",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := csvrepo.NewLoader().LoadScenario(solveScenarioDir, cfg.CostStructure())
		if err != nil {
			return err
		}
		start, end, err := resolveHorizon(inputs, solveStart, solveEnd)
		if err != nil {
			return err
		}

		rollCfg, err := cfg.RollingConfig()
		if err != nil {
			return err
		}
		planCfg := rollCfg.Plan
		planCfg.TimeLimit = rollCfg.TimeLimitPerWindow

		sol, err := rolling.SolveMonolithic(cmd.Context(), inputs, planCfg, start, end)
		if err != nil {
			return err
		}
		return output.WriteSolution(sol)
	},
}

func resolveHorizon(inputs *planning.PlanInputs, startFlag, endFlag string) (time.Time, time.Time, error) {
	start, end, ok := inputs.Forecast.Horizon()
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("forecast has no entries")
	}
	var err error
	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startFlag, err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endFlag, err)
		}
	}
	return entities.Midnight(start), entities.Midnight(end), nil
}

func init() {
	solveCmd.Flags().StringVarP(&solveScenarioDir, "scenario", "s", "", "scenario directory containing CSV files")
	solveCmd.Flags().StringVar(&solveStart, "start", "", "horizon start date (default: forecast start)")
	solveCmd.Flags().StringVar(&solveEnd, "end", "", "horizon end date (default: forecast end)")
	solveCmd.MarkFlagRequired("scenario")
}
