// Package rolling decomposes long planning horizons into overlapping
// window solves with inventory handoff and stitches the committed
// regions into one plan.
package rolling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
	"coldplan/pkg/planning/solver"
	"coldplan/pkg/planning/timebucket"
)

// Config holds rolling-horizon parameters on top of the per-window
// plan configuration.
type Config struct {
	Plan               planning.PlanConfig
	WindowSizeDays     int
	OverlapDays        int
	TimeLimitPerWindow time.Duration
	// Granularity enables temporal aggregation of each window's
	// forecast; nil keeps daily resolution.
	Granularity *timebucket.VariableGranularityConfig
}

// DefaultConfig returns four-week windows with one week of overlap.
func DefaultConfig() Config {
	return Config{
		Plan:               planning.DefaultPlanConfig(),
		WindowSizeDays:     28,
		OverlapDays:        7,
		TimeLimitPerWindow: 5 * time.Minute,
	}
}

// WindowResult records the outcome of one window solve.
type WindowResult struct {
	Window        Window
	Feasible      bool
	Termination   string
	Objective     float64
	Gap           float64
	SolveSeconds  float64
	FailureDetail string
}

// Result is the stitched full-horizon plan.
type Result struct {
	Start time.Time
	End   time.Time

	ProductionBatches []solution.ProductionBatch
	Shipments         []solution.Shipment
	Shortages         map[index.DemandKey]float64
	// EndingInventory is the cohort inventory at the final committed
	// date, keyed by (node, product, production date, state).
	EndingInventory map[entities.CohortKey]float64

	Costs     solution.CostBreakdown
	TotalCost decimal.Decimal

	Windows           []WindowResult
	AllFeasible       bool
	InfeasibleWindows []int
	TotalSolveSeconds float64
	Warnings          []string
}

// Driver owns the window sequence and the aggregated plan.
type Driver struct {
	inputs *planning.PlanInputs
	cfg    Config
	log    zerolog.Logger
}

// NewDriver creates a rolling-horizon driver.
func NewDriver(inputs *planning.PlanInputs, cfg Config, log zerolog.Logger) *Driver {
	return &Driver{inputs: inputs, cfg: cfg, log: log}
}

// Solve plans the forecast's full horizon window by window, carrying
// ending inventory forward and stitching committed regions.
func (d *Driver) Solve(ctx context.Context) (*Result, error) {
	if d.inputs.Forecast == nil {
		return nil, planning.NewInvalidInput("forecast is required")
	}
	start, end, ok := d.inputs.Forecast.Horizon()
	if !ok {
		return nil, planning.NewInvalidInput("forecast has no entries")
	}
	start, end = entities.Midnight(start), entities.Midnight(end)

	windows, err := makeWindows(start, end, d.cfg.WindowSizeDays, d.cfg.OverlapDays)
	if err != nil {
		return nil, err
	}
	d.log.Info().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Int("windows", len(windows)).
		Int("window_size_days", d.cfg.WindowSizeDays).
		Int("overlap_days", d.cfg.OverlapDays).
		Msg("rolling horizon solve")

	res := &Result{
		Start:           start,
		End:             end,
		Shortages:       make(map[index.DemandKey]float64),
		EndingInventory: make(map[entities.CohortKey]float64),
		AllFeasible:     true,
	}

	carried := d.initialSnapshot(start)
	var prevSolution *solution.Solution

	for _, w := range windows {
		wr := WindowResult{Window: w}
		sol, err := d.solveWindow(ctx, w, carried, prevSolution)
		wr.SolveSeconds = solveSecondsOf(sol)
		if err != nil {
			wr.Feasible = false
			wr.Termination = terminationOf(err)
			wr.FailureDetail = err.Error()
			res.AllFeasible = false
			res.InfeasibleWindows = append(res.InfeasibleWindows, w.Index)
			res.Windows = append(res.Windows, wr)
			res.Warnings = append(res.Warnings, fmt.Sprintf("window %d failed: %v", w.Index, err))
			d.log.Warn().Int("window", w.Index).Err(err).Msg("window solve failed, carrying inventory forward")
			// inventory carries forward unchanged; later windows still solve
			carried = ageSnapshot(carried, w.CommittedEnd)
			continue
		}

		wr.Feasible = true
		wr.Termination = sol.Diagnostics.Termination
		wr.Objective = sol.Objective
		wr.Gap = sol.Diagnostics.Gap
		res.Windows = append(res.Windows, wr)
		res.TotalSolveSeconds += sol.Diagnostics.SolveSeconds
		res.Warnings = append(res.Warnings, sol.Diagnostics.Warnings...)

		d.stitch(res, w, sol)

		cohorts := sol.CohortsAt(w.CommittedEnd)
		res.Warnings = append(res.Warnings, d.creditInTransit(cohorts, sol, w)...)
		carried = snapshotFrom(cohorts, w.CommittedEnd)
		prevSolution = sol
		d.log.Info().
			Int("window", w.Index).
			Str("committed_end", w.CommittedEnd.Format("2006-01-02")).
			Float64("objective", sol.Objective).
			Msg("window committed")
	}

	res.TotalCost = res.Costs.Total()
	for k, q := range carried.ToCohorts() {
		res.EndingInventory[k] += q
	}
	return res, nil
}

// solveWindow builds and solves one window MIP.
func (d *Driver) solveWindow(ctx context.Context, w Window, carried *entities.InventorySnapshot, prev *solution.Solution) (*solution.Solution, error) {
	windowForecast := d.windowForecast(w)
	solveForecast := windowForecast

	if d.cfg.Granularity != nil {
		buckets, err := timebucket.CreateVariableBuckets(w.Start, w.End, *d.cfg.Granularity)
		if err != nil {
			return nil, err
		}
		aggregated, err := timebucket.AggregateForecast(windowForecast, buckets)
		if err != nil {
			return nil, err
		}
		if err := timebucket.ValidateAggregation(windowForecast, aggregated); err != nil {
			return nil, err
		}
		solveForecast = aggregated
	}

	windowInputs := *d.inputs
	windowInputs.Forecast = solveForecast
	windowInputs.InitialInventory = carried

	cfg := d.cfg.Plan
	cfg.TimeLimit = d.cfg.TimeLimitPerWindow

	ix, err := index.Build(&windowInputs, cfg, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	out, err := builder.New(ix).Build()
	if err != nil {
		return nil, err
	}
	if cfg.WarmStart && prev != nil {
		out.ApplyWarmStart(prev.Hints())
	}
	d.log.Debug().Int("window", w.Index).Str("model", out.Model.Stats()).Msg("window model built")

	res, err := solver.Solve(ctx, cfg.SolverName, out.Model, solver.Options{
		TimeLimit: cfg.TimeLimit,
		MIPGap:    cfg.MIPGap,
		WarmStart: cfg.WarmStart,
	})
	if err != nil {
		return nil, err
	}
	sol, err := solution.Extract(out, res)
	if err != nil {
		return nil, err
	}
	if d.cfg.Granularity != nil {
		d.disaggregateProduction(sol, w, windowForecast)
	}
	return sol, nil
}

// windowForecast restricts the forecast to the window's dates.
func (d *Driver) windowForecast(w Window) *entities.Forecast {
	var entries []entities.ForecastEntry
	for _, e := range d.inputs.Forecast.Entries {
		date := entities.Midnight(e.Date)
		if !date.Before(w.Start) && !date.After(w.End) {
			e.Date = date
			entries = append(entries, e)
		}
	}
	return &entities.Forecast{
		Name:    fmt.Sprintf("%s_window_%d", d.inputs.Forecast.Name, w.Index),
		Entries: entries,
	}
}

// disaggregateProduction spreads bucket-dated production across the
// bucket's days in proportion to the window's original daily demand;
// uniform when the bucket carries no demand.
func (d *Driver) disaggregateProduction(sol *solution.Solution, w Window, daily *entities.Forecast) {
	buckets, err := timebucket.CreateVariableBuckets(w.Start, w.End, *d.cfg.Granularity)
	if err != nil {
		return
	}

	demandByProductDay := make(map[entities.ProductID]map[time.Time]float64)
	for _, e := range daily.Entries {
		byDay := demandByProductDay[e.Product]
		if byDay == nil {
			byDay = make(map[time.Time]float64)
			demandByProductDay[e.Product] = byDay
		}
		byDay[e.Date] += e.Quantity
	}

	var batches []solution.ProductionBatch
	for _, b := range sol.ProductionBatches {
		bucket, ok := timebucket.BucketFor(buckets, b.Date)
		if !ok || bucket.NumDays() == 1 {
			batches = append(batches, b)
			continue
		}
		shares := timebucket.DistributeOverBucket(bucket, b.Quantity, demandByProductDay[b.Product])
		for _, day := range entities.DateRange(bucket.Start, bucket.End) {
			if q := shares[day]; q > solution.Epsilon {
				batches = append(batches, solution.ProductionBatch{
					Date: day, Product: b.Product, Node: b.Node, Quantity: q,
				})
			}
		}
	}
	sol.ProductionBatches = batches
}

// stitch appends the window's committed region to the aggregate plan.
// Labor and production costs come exactly from committed days;
// transport, storage, truck and shortage costs are attributed by
// committed-day ratio.
func (d *Driver) stitch(res *Result, w Window, sol *solution.Solution) {
	for _, b := range sol.ProductionBatches {
		if w.Committed(b.Date) {
			res.ProductionBatches = append(res.ProductionBatches, b)
		}
	}
	for _, sh := range sol.Shipments {
		if w.Committed(sh.DepartureDate) {
			res.Shipments = append(res.Shipments, sh)
		}
	}
	for k, q := range sol.Shortages {
		if w.Committed(k.Date) {
			res.Shortages[k] += q
		}
	}

	costs := d.inputs.Costs

	// exact committed production cost
	var production float64
	for _, b := range sol.ProductionBatches {
		if w.Committed(b.Date) {
			production += b.Quantity * costs.ProductionCostPerUnit
		}
	}
	res.Costs.Production = res.Costs.Production.Add(decimal.NewFromFloat(production).Round(4))

	// exact committed labor cost
	var labor decimal.Decimal
	for ndk, usage := range sol.LaborByDate {
		if w.Committed(ndk.Date) {
			labor = labor.Add(usage.Cost)
		}
	}
	res.Costs.Labor = res.Costs.Labor.Add(labor)

	ratio := decimal.NewFromFloat(float64(w.CommittedDays()) / float64(w.Days()))
	res.Costs.Transport = res.Costs.Transport.Add(sol.Costs.Transport.Mul(ratio))
	res.Costs.Storage = res.Costs.Storage.Add(sol.Costs.Storage.Mul(ratio))
	res.Costs.Truck = res.Costs.Truck.Add(sol.Costs.Truck.Mul(ratio))
	res.Costs.Shortage = res.Costs.Shortage.Add(sol.Costs.Shortage.Mul(ratio))
	res.Costs.Staleness = res.Costs.Staleness.Add(sol.Costs.Staleness.Mul(ratio))
}

// creditInTransit folds committed shipments still on the road at the
// committed end into the handoff: arrivals landing on the next window's
// first day join its initial inventory at the destination. Shipments
// arriving deeper into the next window cannot be represented as start
// inventory and are reported.
func (d *Driver) creditInTransit(cohorts map[entities.CohortKey]float64, sol *solution.Solution, w Window) []string {
	var warnings []string
	nextStart := entities.AddDays(w.CommittedEnd, 1)
	nodes := d.inputs.NodeMap()
	for _, sh := range sol.Shipments {
		if sh.DepartureDate.After(w.CommittedEnd) || !sh.ArrivalDate.After(w.CommittedEnd) {
			continue
		}
		if !sh.ArrivalDate.Equal(nextStart) {
			warnings = append(warnings, fmt.Sprintf(
				"shipment %s->%s arriving %s is in transit across the window boundary and re-planned",
				sh.Origin, sh.Destination, sh.ArrivalDate.Format("2006-01-02")))
			continue
		}
		dest := nodes[sh.Destination]
		state := entities.Ambient
		prodDate := sh.ProdDate
		for _, r := range d.inputs.Routes {
			if r.Origin == sh.Origin && r.Destination == sh.Destination && r.Mode == sh.Mode {
				state = r.ArrivalState(dest)
				if r.Thaws(dest) {
					// thaw clock starts at the boundary
					prodDate = w.CommittedEnd
				}
				break
			}
		}
		cohorts[entities.CohortKey{
			Node: sh.Destination, Product: sh.Product, ProdDate: prodDate, State: state,
		}] += sh.Quantity
	}
	return warnings
}

// initialSnapshot returns the global snapshot or an empty one dated at
// the horizon start.
func (d *Driver) initialSnapshot(start time.Time) *entities.InventorySnapshot {
	if d.inputs.InitialInventory != nil {
		return d.inputs.InitialInventory
	}
	return &entities.InventorySnapshot{SnapshotDate: start}
}

// snapshotFrom converts handed-off cohorts into a snapshot dated at the
// committed end.
func snapshotFrom(cohorts map[entities.CohortKey]float64, asOf time.Time) *entities.InventorySnapshot {
	snap := &entities.InventorySnapshot{SnapshotDate: asOf}
	for k, q := range cohorts {
		if q <= solution.Epsilon {
			continue
		}
		snap.Entries = append(snap.Entries, entities.InventoryEntry{
			Node:     k.Node,
			Product:  k.Product,
			AgeDays:  entities.DaysBetween(k.ProdDate, asOf),
			State:    k.State,
			Quantity: q,
		})
	}
	return snap
}

// ageSnapshot re-dates a snapshot to a later as-of date without changing
// cohort production dates, used when a window fails and its inventory
// carries forward unchanged.
func ageSnapshot(snap *entities.InventorySnapshot, asOf time.Time) *entities.InventorySnapshot {
	aged := &entities.InventorySnapshot{SnapshotDate: asOf}
	for k, q := range snap.ToCohorts() {
		aged.Entries = append(aged.Entries, entities.InventoryEntry{
			Node:     k.Node,
			Product:  k.Product,
			AgeDays:  entities.DaysBetween(k.ProdDate, asOf),
			State:    k.State,
			Quantity: q,
		})
	}
	return aged
}

func terminationOf(err error) string {
	switch {
	case errors.Is(err, planning.ErrInfeasible):
		return solver.Infeasible.String()
	case errors.Is(err, planning.ErrTimeLimit):
		return solver.TimeLimit.String()
	default:
		return solver.SolveError.String()
	}
}

func solveSecondsOf(sol *solution.Solution) float64 {
	if sol == nil {
		return 0
	}
	return sol.Diagnostics.SolveSeconds
}
