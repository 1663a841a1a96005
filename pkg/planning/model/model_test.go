package model

import (
	"math"
	"testing"
)

func TestExpr_Accumulates(t *testing.T) {
	m := New("test")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))

	e := NewExpr().Add(x, 2).Add(x, 3).Add(y, -1).Add(y, 1)
	terms := e.Terms()
	if len(terms) != 1 {
		t.Fatalf("expected 1 nonzero term after accumulation, got %d", len(terms))
	}
	if terms[0].Var != x || terms[0].Coef != 5 {
		t.Errorf("expected 5*x, got %f*var%d", terms[0].Coef, terms[0].Var)
	}
}

func TestModel_ConstraintRHSAbsorbsConstant(t *testing.T) {
	m := New("test")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))

	e := NewExpr().Add(x, 1).AddConstant(4)
	m.AddConstraint("c", e, LessEq, 10)

	c := m.Constraints()[0]
	if c.RHS != 6 {
		t.Errorf("constant should move to RHS: got %f, want 6", c.RHS)
	}
	if !c.Satisfied([]float64{6}, 1e-9) {
		t.Error("x=6 should satisfy x <= 6")
	}
	if c.Satisfied([]float64{6.1}, 1e-9) {
		t.Error("x=6.1 should violate x <= 6")
	}
}

func TestModel_BinaryBoundsForced(t *testing.T) {
	m := New("test")
	b := m.AddVar("b", Binary, -5, 7)
	lb, ub := m.Bounds(b)
	if lb != 0 || ub != 1 {
		t.Errorf("binary bounds = [%f, %f], want [0, 1]", lb, ub)
	}
}

func TestModel_FixVar(t *testing.T) {
	m := New("test")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.FixVar(x, 42)
	lb, ub := m.Bounds(x)
	if lb != 42 || ub != 42 {
		t.Errorf("fixed bounds = [%f, %f], want [42, 42]", lb, ub)
	}
}

func TestModel_HintsSorted(t *testing.T) {
	m := New("test")
	a := m.AddVar("a", Continuous, 0, 1)
	b := m.AddVar("b", Continuous, 0, 1)
	c := m.AddVar("c", Continuous, 0, 1)
	m.SetHint(c, 3)
	m.SetHint(a, 1)
	m.SetHint(b, 2)

	hints := m.Hints()
	if len(hints) != 3 {
		t.Fatalf("expected 3 hints, got %d", len(hints))
	}
	for i, h := range hints {
		if h.Var != VarID(i) {
			t.Errorf("hints not sorted by variable: position %d has var %d", i, h.Var)
		}
	}
}

func TestModel_HasIntegers(t *testing.T) {
	m := New("test")
	m.AddVar("x", Continuous, 0, 1)
	if m.HasIntegers() {
		t.Error("continuous-only model reported integers")
	}
	m.AddVar("n", Integer, 0, 10)
	if !m.HasIntegers() {
		t.Error("integer variable not detected")
	}
}

func TestEvalExpr(t *testing.T) {
	terms := []Term{{Var: 0, Coef: 2}, {Var: 2, Coef: -1}}
	if got := EvalExpr(terms, []float64{3, 99, 4}); got != 2 {
		t.Errorf("EvalExpr = %f, want 2", got)
	}
}
