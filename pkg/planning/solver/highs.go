package solver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"coldplan/pkg/planning"
	"coldplan/pkg/planning/model"
)

// HiGHS drives the HiGHS solver binary. Warm starts are not advertised;
// requests for them silently degrade.
type HiGHS struct {
	// Path overrides the binary location; empty resolves "highs" on PATH.
	Path string
}

// Name implements Backend.
func (h *HiGHS) Name() string { return "highs" }

// Capabilities implements Backend.
func (h *HiGHS) Capabilities() Capability {
	return CapLinearConstraints | CapBinaryVars | CapIntegerVars |
		CapTimeLimit | CapGapTolerance
}

// Available implements Backend.
func (h *HiGHS) Available() error {
	if _, err := exec.LookPath(h.binary()); err != nil {
		return planning.NewSolverError("highs binary not found: %v", err)
	}
	return nil
}

func (h *HiGHS) binary() string {
	if h.Path != "" {
		return h.Path
	}
	return "highs"
}

// Solve implements Backend.
func (h *HiGHS) Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	dir, cleanup, err := workDir(opts, "coldplan-highs-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	optPath := filepath.Join(dir, "highs.opt")
	if err := writeLPFile(lpPath, m); err != nil {
		return nil, err
	}
	if err := h.writeOptionsFile(optPath, opts); err != nil {
		return nil, err
	}

	args := []string{"--options_file", optPath, "--solution_file", solPath, lpPath}
	start := time.Now()
	cmd := exec.CommandContext(ctx, h.binary(), args...)
	out, err := cmd.CombinedOutput()
	wall := time.Since(start).Seconds()
	if err != nil {
		if ctx.Err() != nil {
			return nil, planning.NewSolverError("highs interrupted: %v", ctx.Err())
		}
		return nil, planning.NewSolverError("highs failed: %v: %s", err, firstLines(string(out), 5))
	}

	res, err := parseHiGHSSolution(solPath, m.NumVars())
	if err != nil {
		return nil, err
	}
	res.WallSeconds = wall
	return res, nil
}

func (h *HiGHS) writeOptionsFile(path string, opts Options) error {
	var b strings.Builder
	if opts.TimeLimit > 0 {
		fmt.Fprintf(&b, "time_limit = %f\n", opts.TimeLimit.Seconds())
	}
	if opts.MIPGap > 0 {
		fmt.Fprintf(&b, "mip_rel_gap = %g\n", opts.MIPGap)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return planning.NewSolverError("writing highs options: %v", err)
	}
	return nil
}

// parseHiGHSSolution reads a HiGHS solution file: a model-status
// section, the objective, and a columns section of name/value pairs.
func parseHiGHSSolution(path string, numVars int) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, planning.NewSolverError("highs produced no solution file: %v", err)
	}
	defer f.Close()

	res := &Result{Gap: GapUnknown, Values: make([]float64, numVars)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	status := SolveError
	hasIncumbent := false
	inColumns := false
	expectStatus := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "Model status":
			expectStatus = true
			continue
		case expectStatus && line != "":
			status = parseHiGHSStatus(line)
			expectStatus = false
			continue
		case strings.HasPrefix(line, "Objective"):
			fields := strings.Fields(line)
			if len(fields) == 2 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					res.Objective = v
					hasIncumbent = true
				}
			}
			continue
		case strings.HasPrefix(line, "# Columns"):
			inColumns = true
			continue
		case strings.HasPrefix(line, "# Rows"):
			inColumns = false
			continue
		}
		if !inColumns {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		v, ok := parseVarName(fields[0], numVars)
		if !ok {
			continue
		}
		if val, err := strconv.ParseFloat(fields[1], 64); err == nil {
			res.Values[v] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, planning.NewSolverError("reading highs solution: %v", err)
	}

	res.Termination, res.HasSolution = resultFromStatus(status, hasIncumbent)
	if res.Termination == Optimal {
		res.Gap = 0
	}
	return res, nil
}

func parseHiGHSStatus(line string) Termination {
	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, "optimal"):
		return Optimal
	case strings.Contains(lower, "infeasible"):
		return Infeasible
	case strings.Contains(lower, "unbounded"):
		return Unbounded
	case strings.Contains(lower, "time"):
		return TimeLimit
	default:
		return SolveError
	}
}
