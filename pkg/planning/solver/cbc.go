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

// CBC drives the COIN-OR branch-and-cut solver through its command
// line, exchanging the model as an LP file and reading the solution
// file back.
type CBC struct {
	// Path overrides the binary location; empty resolves "cbc" on PATH.
	Path string
}

// Name implements Backend.
func (c *CBC) Name() string { return "cbc" }

// Capabilities implements Backend.
func (c *CBC) Capabilities() Capability {
	return CapLinearConstraints | CapBinaryVars | CapIntegerVars |
		CapWarmStart | CapTimeLimit | CapGapTolerance
}

// Available implements Backend.
func (c *CBC) Available() error {
	if _, err := exec.LookPath(c.binary()); err != nil {
		return planning.NewSolverError("cbc binary not found: %v", err)
	}
	return nil
}

func (c *CBC) binary() string {
	if c.Path != "" {
		return c.Path
	}
	return "cbc"
}

// Solve implements Backend.
func (c *CBC) Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	dir, cleanup, err := workDir(opts, "coldplan-cbc-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	if err := writeLPFile(lpPath, m); err != nil {
		return nil, err
	}

	args := []string{lpPath}
	if opts.TimeLimit > 0 {
		args = append(args, "-seconds", strconv.FormatFloat(opts.TimeLimit.Seconds(), 'f', 0, 64))
	}
	if opts.MIPGap > 0 {
		args = append(args, "-ratioGap", strconv.FormatFloat(opts.MIPGap, 'g', 6, 64))
	}
	if opts.WarmStart {
		if hints := m.Hints(); len(hints) > 0 {
			mstPath := filepath.Join(dir, "warmstart.mst")
			if err := writeMSTFile(mstPath, hints); err != nil {
				return nil, err
			}
			args = append(args, "-mipstart", mstPath)
		}
	}
	args = append(args, "-printingOptions", "all", "-solve", "-solution", solPath)

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.binary(), args...)
	out, err := cmd.CombinedOutput()
	wall := time.Since(start).Seconds()
	if err != nil {
		if ctx.Err() != nil {
			return nil, planning.NewSolverError("cbc interrupted: %v", ctx.Err())
		}
		return nil, planning.NewSolverError("cbc failed: %v: %s", err, firstLines(string(out), 5))
	}

	res, err := parseCBCSolution(solPath, m.NumVars())
	if err != nil {
		return nil, err
	}
	res.WallSeconds = wall
	return res, nil
}

// parseCBCSolution reads a CBC solution file: a status header line
// followed by one row per column.
func parseCBCSolution(path string, numVars int) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, planning.NewSolverError("cbc produced no solution file: %v", err)
	}
	defer f.Close()

	res := &Result{Gap: GapUnknown, Values: make([]float64, numVars)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, planning.NewSolverError("cbc solution file %s is empty", path)
	}
	header := strings.TrimSpace(scanner.Text())
	status, objective, hasObjective := parseCBCHeader(header)
	res.Objective = objective
	res.Termination, res.HasSolution = resultFromStatus(status, hasObjective)
	if res.Termination == Optimal {
		res.Gap = 0
	}

	for scanner.Scan() {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "**"))
		if len(fields) < 3 {
			continue
		}
		// fields: index, name, value, reduced cost
		v, ok := parseVarName(fields[1], numVars)
		if !ok {
			continue
		}
		val, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		res.Values[v] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, planning.NewSolverError("reading cbc solution: %v", err)
	}
	return res, nil
}

// parseCBCHeader classifies the first solution-file line, e.g.
// "Optimal - objective value 123.45" or
// "Stopped on time limit - objective value 99.1".
func parseCBCHeader(header string) (Termination, float64, bool) {
	lower := strings.ToLower(header)
	objective, hasObjective := parseTrailingObjective(header)
	switch {
	case strings.HasPrefix(lower, "optimal"):
		return Optimal, objective, hasObjective
	case strings.Contains(lower, "infeasible"):
		return Infeasible, 0, false
	case strings.Contains(lower, "unbounded"):
		return Unbounded, 0, false
	case strings.Contains(lower, "time") || strings.Contains(lower, "stopped"):
		return TimeLimit, objective, hasObjective
	default:
		return SolveError, objective, hasObjective
	}
}

// parseTrailingObjective pulls the objective value off a header line.
// CBC reports a huge placeholder when no incumbent exists.
func parseTrailingObjective(header string) (float64, bool) {
	fields := strings.Fields(header)
	for i := len(fields) - 1; i >= 0; i-- {
		if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
			if v >= 1e49 || v <= -1e49 {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func writeLPFile(path string, m *model.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return planning.NewSolverError("creating model file: %v", err)
	}
	defer f.Close()
	if err := WriteLP(f, m); err != nil {
		return planning.NewSolverError("writing model file: %v", err)
	}
	return nil
}

// writeMSTFile writes warm-start hints in the name/value format CBC's
// mipstart option reads.
func writeMSTFile(path string, hints []model.Term) error {
	f, err := os.Create(path)
	if err != nil {
		return planning.NewSolverError("creating warm-start file: %v", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	for _, h := range hints {
		fmt.Fprintf(bw, "x%d %s\n", h.Var, strconv.FormatFloat(h.Coef, 'g', 12, 64))
	}
	if err := bw.Flush(); err != nil {
		return planning.NewSolverError("writing warm-start file: %v", err)
	}
	return nil
}

func workDir(opts Options, prefix string) (string, func(), error) {
	if opts.WorkDir != "" {
		if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
			return "", nil, planning.NewSolverError("creating work dir: %v", err)
		}
		return opts.WorkDir, func() {}, nil
	}
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, planning.NewSolverError("creating work dir: %v", err)
	}
	cleanup := func() {
		if !opts.KeepFiles {
			os.RemoveAll(dir)
		}
	}
	return dir, cleanup, nil
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
