package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"coldplan/pkg/planning/model"
)

// WriteLP encodes the model in CPLEX LP format. Variables are emitted
// under canonical names x<id> so solution files map back to the arena
// without name mangling; human-readable names stay in the model for
// diagnostics.
func WriteLP(w io.Writer, m *model.Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\ %s\n", m.Name)
	fmt.Fprintln(bw, "Minimize")

	objTerms, _ := m.Objective()
	bw.WriteString(" obj:")
	if len(objTerms) == 0 && m.NumVars() > 0 {
		// degenerate but valid: a zero objective over the first variable
		bw.WriteString(" 0 x0")
	}
	writeTerms(bw, objTerms)
	bw.WriteString("\n")

	fmt.Fprintln(bw, "Subject To")
	for i, c := range m.Constraints() {
		if len(c.Terms) == 0 {
			continue
		}
		fmt.Fprintf(bw, " c%d:", i)
		writeTerms(bw, c.Terms)
		fmt.Fprintf(bw, " %s %s\n", lpSense(c.Sense), lpFloat(c.RHS))
	}

	fmt.Fprintln(bw, "Bounds")
	for i := 0; i < m.NumVars(); i++ {
		v := model.VarID(i)
		lb, ub := m.Bounds(v)
		switch {
		case lb == ub:
			fmt.Fprintf(bw, " x%d = %s\n", i, lpFloat(lb))
		case math.IsInf(ub, 1) && lb == 0:
			// default bounds, nothing to emit
		case math.IsInf(ub, 1):
			fmt.Fprintf(bw, " x%d >= %s\n", i, lpFloat(lb))
		default:
			fmt.Fprintf(bw, " %s <= x%d <= %s\n", lpFloat(lb), i, lpFloat(ub))
		}
	}

	var generals, binaries []int
	for i := 0; i < m.NumVars(); i++ {
		switch m.VarTypeOf(model.VarID(i)) {
		case model.Integer:
			generals = append(generals, i)
		case model.Binary:
			binaries = append(binaries, i)
		}
	}
	if len(generals) > 0 {
		fmt.Fprintln(bw, "General")
		for _, i := range generals {
			fmt.Fprintf(bw, " x%d\n", i)
		}
	}
	if len(binaries) > 0 {
		fmt.Fprintln(bw, "Binary")
		for _, i := range binaries {
			fmt.Fprintf(bw, " x%d\n", i)
		}
	}
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func writeTerms(bw *bufio.Writer, terms []model.Term) {
	for _, t := range terms {
		coef := t.Coef
		if coef >= 0 {
			fmt.Fprintf(bw, " + %s x%d", lpFloat(coef), t.Var)
		} else {
			fmt.Fprintf(bw, " - %s x%d", lpFloat(-coef), t.Var)
		}
	}
}

func lpSense(s model.Sense) string {
	switch s {
	case model.LessEq:
		return "<="
	case model.GreaterEq:
		return ">="
	default:
		return "="
	}
}

func lpFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 12, 64)
}

// parseVarName maps a canonical LP name back to a variable index.
func parseVarName(name string, numVars int) (model.VarID, bool) {
	if len(name) < 2 || name[0] != 'x' {
		return 0, false
	}
	idx, err := strconv.Atoi(name[1:])
	if err != nil || idx < 0 || idx >= numVars {
		return 0, false
	}
	return model.VarID(idx), true
}
