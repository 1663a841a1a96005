// Package model holds a solver-independent mixed-integer program: a
// dense arena of variables addressed by integer IDs, linear
// constraints, and a linear objective. The builder owns the model for
// the duration of a solve; solver backends only read it.
package model

import (
	"fmt"
	"math"
	"sort"
)

// VarType represents a decision-variable domain
type VarType int

const (
	Continuous VarType = iota
	Binary
	Integer
)

// String method for VarType enum
func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "unknown"
	}
}

// VarID indexes a variable in the model's arena.
type VarID int32

// Sense represents a constraint relation
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Term is one coefficient of a linear expression.
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression under construction. Duplicate variable
// references accumulate.
type Expr struct {
	terms    map[VarID]float64
	Constant float64
}

// NewExpr creates an empty linear expression.
func NewExpr() *Expr {
	return &Expr{terms: make(map[VarID]float64)}
}

// Add accumulates coef * v into the expression and returns the
// expression for chaining.
func (e *Expr) Add(v VarID, coef float64) *Expr {
	if coef != 0 {
		e.terms[v] += coef
	}
	return e
}

// AddConstant accumulates a constant offset.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// Terms returns the expression's nonzero terms sorted by variable ID,
// giving deterministic encodings.
func (e *Expr) Terms() []Term {
	terms := make([]Term, 0, len(e.terms))
	for v, c := range e.terms {
		if c != 0 {
			terms = append(terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Var < terms[j].Var })
	return terms
}

// Len returns the number of nonzero terms.
func (e *Expr) Len() int {
	n := 0
	for _, c := range e.terms {
		if c != 0 {
			n++
		}
	}
	return n
}

// Constraint is a stored linear constraint.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is an arena of variables, constraints, and a minimization
// objective.
type Model struct {
	Name string

	varNames []string
	varTypes []VarType
	varLB    []float64
	varUB    []float64

	constraints []Constraint
	objective   []Term
	objConstant float64

	hints map[VarID]float64
}

// New creates an empty model.
func New(name string) *Model {
	return &Model{Name: name, hints: make(map[VarID]float64)}
}

// AddVar declares a variable and returns its ID. Use math.Inf(1) for an
// unbounded upper limit.
func (m *Model) AddVar(name string, t VarType, lb, ub float64) VarID {
	if t == Binary {
		lb, ub = 0, 1
	}
	m.varNames = append(m.varNames, name)
	m.varTypes = append(m.varTypes, t)
	m.varLB = append(m.varLB, lb)
	m.varUB = append(m.varUB, ub)
	return VarID(len(m.varNames) - 1)
}

// FixVar pins a variable to a value by collapsing its bounds.
func (m *Model) FixVar(v VarID, value float64) {
	m.varLB[v] = value
	m.varUB[v] = value
}

// AddConstraint stores expr (sense) rhs. A constant on the expression
// moves to the right-hand side.
func (m *Model) AddConstraint(name string, expr *Expr, sense Sense, rhs float64) {
	m.constraints = append(m.constraints, Constraint{
		Name:  name,
		Terms: expr.Terms(),
		Sense: sense,
		RHS:   rhs - expr.Constant,
	})
}

// SetObjective replaces the minimization objective.
func (m *Model) SetObjective(expr *Expr) {
	m.objective = expr.Terms()
	m.objConstant = expr.Constant
}

// SetHint records a warm-start value for a variable.
func (m *Model) SetHint(v VarID, value float64) {
	m.hints[v] = value
}

// Accessors used by solver backends and the extractor.

// NumVars returns the variable count.
func (m *Model) NumVars() int { return len(m.varNames) }

// NumConstraints returns the constraint count.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// VarName returns a variable's diagnostic name.
func (m *Model) VarName(v VarID) string { return m.varNames[v] }

// VarTypeOf returns a variable's domain.
func (m *Model) VarTypeOf(v VarID) VarType { return m.varTypes[v] }

// Bounds returns a variable's lower and upper bound.
func (m *Model) Bounds(v VarID) (lb, ub float64) { return m.varLB[v], m.varUB[v] }

// Constraints returns the stored constraints.
func (m *Model) Constraints() []Constraint { return m.constraints }

// Objective returns the objective terms and constant.
func (m *Model) Objective() ([]Term, float64) { return m.objective, m.objConstant }

// Hints returns warm-start values in deterministic (VarID) order.
func (m *Model) Hints() []Term {
	hints := make([]Term, 0, len(m.hints))
	for v, val := range m.hints {
		hints = append(hints, Term{Var: v, Coef: val})
	}
	sort.Slice(hints, func(i, j int) bool { return hints[i].Var < hints[j].Var })
	return hints
}

// HasIntegers reports whether any variable is binary or integer.
func (m *Model) HasIntegers() bool {
	for _, t := range m.varTypes {
		if t != Continuous {
			return true
		}
	}
	return false
}

// Stats returns a one-line size summary for logs.
func (m *Model) Stats() string {
	ints := 0
	for _, t := range m.varTypes {
		if t != Continuous {
			ints++
		}
	}
	return fmt.Sprintf("%d vars (%d integer), %d constraints", len(m.varNames), ints, len(m.constraints))
}

// EvalExpr computes the value of stored terms under a value vector.
func EvalExpr(terms []Term, values []float64) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Satisfied reports whether a constraint holds under values within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := EvalExpr(c.Terms, values)
	switch c.Sense {
	case LessEq:
		return lhs <= c.RHS+tol
	case GreaterEq:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}
