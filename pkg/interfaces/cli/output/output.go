// Package output renders plan results as text, JSON or CSV files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"coldplan/pkg/planning/rolling"
	"coldplan/pkg/planning/solution"
)

// Config selects the output format and destination.
type Config struct {
	// Format is one of text, json, csv.
	Format string
	// OutputDir receives json/csv files; empty writes json to stdout.
	// The csv format requires a directory.
	OutputDir string
}

// WritePlan renders a rolling-horizon result.
func WritePlan(res *rolling.Result, cfg Config) error {
	switch cfg.Format {
	case "", "text":
		return writeTextPlan(res)
	case "json":
		return writeJSONPlan(res, cfg.OutputDir)
	case "csv":
		return writeCSVPlan(res, cfg.OutputDir)
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}

func writeTextPlan(res *rolling.Result) error {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                      PRODUCTION PLAN")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Horizon:          %s .. %s\n", res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
	fmt.Printf("Windows:          %d (all feasible: %t)\n", len(res.Windows), res.AllFeasible)
	if len(res.InfeasibleWindows) > 0 {
		fmt.Printf("Failed windows:   %v\n", res.InfeasibleWindows)
	}
	fmt.Printf("Production lines: %d\n", len(res.ProductionBatches))
	fmt.Printf("Shipments:        %d\n", len(res.Shipments))
	var shortage float64
	for _, q := range res.Shortages {
		shortage += q
	}
	fmt.Printf("Shortage units:   %.1f\n", shortage)
	fmt.Printf("Solve time:       %.1fs\n", res.TotalSolveSeconds)
	fmt.Println()
	fmt.Println("COSTS")
	fmt.Printf("  Labor:      %s\n", res.Costs.Labor.StringFixed(2))
	fmt.Printf("  Production: %s\n", res.Costs.Production.StringFixed(2))
	fmt.Printf("  Transport:  %s\n", res.Costs.Transport.StringFixed(2))
	fmt.Printf("  Storage:    %s\n", res.Costs.Storage.StringFixed(2))
	fmt.Printf("  Truck:      %s\n", res.Costs.Truck.StringFixed(2))
	fmt.Printf("  Shortage:   %s\n", res.Costs.Shortage.StringFixed(2))
	fmt.Printf("  TOTAL:      %s\n", res.TotalCost.StringFixed(2))
	if len(res.Warnings) > 0 {
		fmt.Println()
		fmt.Printf("WARNINGS (%d)\n", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

// jsonPlan flattens struct-keyed maps into JSON-friendly rows.
type jsonPlan struct {
	Start             string                     `json:"start"`
	End               string                     `json:"end"`
	AllFeasible       bool                       `json:"all_feasible"`
	InfeasibleWindows []int                      `json:"infeasible_windows,omitempty"`
	Production        []solution.ProductionBatch `json:"production"`
	Shipments         []solution.Shipment        `json:"shipments"`
	Shortages         []jsonShortage             `json:"shortages,omitempty"`
	Costs             map[string]string          `json:"costs"`
	TotalCost         string                     `json:"total_cost"`
	TotalSolveSeconds float64                    `json:"total_solve_seconds"`
	Warnings          []string                   `json:"warnings,omitempty"`
}

type jsonShortage struct {
	Node     string  `json:"node"`
	Product  string  `json:"product"`
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
}

func writeJSONPlan(res *rolling.Result, dir string) error {
	plan := jsonPlan{
		Start:             res.Start.Format("2006-01-02"),
		End:               res.End.Format("2006-01-02"),
		AllFeasible:       res.AllFeasible,
		InfeasibleWindows: res.InfeasibleWindows,
		Production:        res.ProductionBatches,
		Shipments:         res.Shipments,
		Costs: map[string]string{
			"labor":      res.Costs.Labor.StringFixed(2),
			"production": res.Costs.Production.StringFixed(2),
			"transport":  res.Costs.Transport.StringFixed(2),
			"storage":    res.Costs.Storage.StringFixed(2),
			"truck":      res.Costs.Truck.StringFixed(2),
			"shortage":   res.Costs.Shortage.StringFixed(2),
		},
		TotalCost:         res.TotalCost.StringFixed(2),
		TotalSolveSeconds: res.TotalSolveSeconds,
		Warnings:          res.Warnings,
	}
	for k, q := range res.Shortages {
		plan.Shortages = append(plan.Shortages, jsonShortage{
			Node: string(k.Node), Product: string(k.Product),
			Date: k.Date.Format("2006-01-02"), Quantity: q,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		f, err := os.Create(filepath.Join(dir, "plan.json"))
		if err != nil {
			return fmt.Errorf("creating plan.json: %w", err)
		}
		defer f.Close()
		enc = json.NewEncoder(f)
	}
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func writeCSVPlan(res *rolling.Result, dir string) error {
	if dir == "" {
		return fmt.Errorf("csv output requires --output")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	prodRows := [][]string{{"date", "node", "product", "quantity"}}
	for _, b := range res.ProductionBatches {
		prodRows = append(prodRows, []string{
			b.Date.Format("2006-01-02"), string(b.Node), string(b.Product),
			strconv.FormatFloat(b.Quantity, 'f', 2, 64),
		})
	}
	if err := writeCSVFile(filepath.Join(dir, "production.csv"), prodRows); err != nil {
		return err
	}

	shipRows := [][]string{{"origin", "destination", "product", "prod_date", "departure", "arrival", "mode", "quantity"}}
	for _, s := range res.Shipments {
		shipRows = append(shipRows, []string{
			string(s.Origin), string(s.Destination), string(s.Product),
			s.ProdDate.Format("2006-01-02"),
			s.DepartureDate.Format("2006-01-02"),
			s.ArrivalDate.Format("2006-01-02"),
			s.Mode.String(),
			strconv.FormatFloat(s.Quantity, 'f', 2, 64),
		})
	}
	return writeCSVFile(filepath.Join(dir, "shipments.csv"), shipRows)
}

func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteSolution renders a single-window solution as text.
func WriteSolution(sol *solution.Solution) error {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                      SOLVE RESULT")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Horizon:      %s .. %s\n", sol.Start.Format("2006-01-02"), sol.End.Format("2006-01-02"))
	fmt.Printf("Termination:  %s (gap %.4f, %.1fs)\n",
		sol.Diagnostics.Termination, sol.Diagnostics.Gap, sol.Diagnostics.SolveSeconds)
	fmt.Printf("Objective:    %.2f\n", sol.Objective)
	fmt.Printf("Production:   %.1f units in %d batches\n", sol.TotalProduction(), len(sol.ProductionBatches))
	fmt.Printf("Shipments:    %d\n", len(sol.Shipments))
	fmt.Printf("Shortage:     %.1f units\n", sol.TotalShortage())
	fmt.Println()
	fmt.Println("COSTS")
	fmt.Printf("  Labor:      %s\n", sol.Costs.Labor.StringFixed(2))
	fmt.Printf("  Production: %s\n", sol.Costs.Production.StringFixed(2))
	fmt.Printf("  Transport:  %s\n", sol.Costs.Transport.StringFixed(2))
	fmt.Printf("  Storage:    %s\n", sol.Costs.Storage.StringFixed(2))
	fmt.Printf("  Truck:      %s\n", sol.Costs.Truck.StringFixed(2))
	fmt.Printf("  Shortage:   %s\n", sol.Costs.Shortage.StringFixed(2))
	if len(sol.Diagnostics.Warnings) > 0 {
		fmt.Println()
		fmt.Printf("WARNINGS (%d)\n", len(sol.Diagnostics.Warnings))
		for _, w := range sol.Diagnostics.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}
