package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	csvrepo "coldplan/pkg/infrastructure/repositories/csv"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
	"coldplan/pkg/planning/solver"
	"coldplan/pkg/planning/validate"
)

var validateScenarioDir string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Solve a scenario and re-verify the solution invariants",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := csvrepo.NewLoader().LoadScenario(validateScenarioDir, cfg.CostStructure())
		if err != nil {
			return err
		}
		start, end, err := resolveHorizon(inputs, "", "")
		if err != nil {
			return err
		}
		rollCfg, err := cfg.RollingConfig()
		if err != nil {
			return err
		}
		planCfg := rollCfg.Plan
		planCfg.TimeLimit = rollCfg.TimeLimitPerWindow

		ix, err := index.Build(inputs, planCfg, start, end)
		if err != nil {
			return err
		}
		out, err := builder.New(ix).Build()
		if err != nil {
			return err
		}
		res, err := solver.Solve(cmd.Context(), planCfg.SolverName, out.Model, solver.Options{
			TimeLimit: planCfg.TimeLimit,
			MIPGap:    planCfg.MIPGap,
		})
		if err != nil {
			return err
		}
		sol, err := solution.Extract(out, res)
		if err != nil {
			return err
		}

		violations := validate.Check(ix, sol)
		if len(violations) == 0 {
			log.Info().
				Str("termination", sol.Diagnostics.Termination).
				Float64("objective", sol.Objective).
				Msg("solution passes all invariant checks")
			return nil
		}
		for _, v := range violations {
			log.Error().Str("kind", v.Kind).Msg(v.Detail)
		}
		return fmt.Errorf("solution failed %d invariant checks", len(violations))
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateScenarioDir, "scenario", "s", "", "scenario directory containing CSV files")
	validateCmd.MarkFlagRequired("scenario")
}
