package rolling

import (
	"context"
	"time"

	"coldplan/pkg/planning"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
	"coldplan/pkg/planning/solver"
)

// SolveMonolithic builds and solves the full horizon as a single model.
// Used for short horizons and as ground truth when validating a rolling
// decomposition.
func SolveMonolithic(ctx context.Context, inputs *planning.PlanInputs, cfg planning.PlanConfig, start, end time.Time) (*solution.Solution, error) {
	ix, err := index.Build(inputs, cfg, start, end)
	if err != nil {
		return nil, err
	}
	out, err := builder.New(ix).Build()
	if err != nil {
		return nil, err
	}
	res, err := solver.Solve(ctx, cfg.SolverName, out.Model, solver.Options{
		TimeLimit: cfg.TimeLimit,
		MIPGap:    cfg.MIPGap,
		WarmStart: cfg.WarmStart,
	})
	if err != nil {
		return nil, err
	}
	return solution.Extract(out, res)
}
