package exprsearch

import (
	"fmt"
	"math"
	mop "reflect"
	test "testing"
)

// distanceProblem is the arith fixture scored by |value - target|, kept
// local to the package tests to avoid an import cycle with the arith
// example package.
type distanceProblem struct {
	target  float64
	grammar *Grammar
}

func newDistanceProblem(target float64) *distanceProblem {
	return &distanceProblem{target: target, grammar: arithGrammar()}
}

func (p *distanceProblem) Grammar() *Grammar { return p.grammar }

func (p *distanceProblem) Fitness(expr any) (float64, error) {
	v, err := evalArith(expr)
	if err != nil {
		return 0, err
	}
	return math.Abs(v - p.target), nil
}

func evalArith(expr any) (float64, error) {
	switch e := expr.(type) {
	case int:
		return float64(e), nil
	case []any:
		left, err := evalArith(e[0])
		if err != nil {
			return 0, err
		}
		right, err := evalArith(e[2])
		if err != nil {
			return 0, err
		}
		switch e[1] {
		case "+":
			return left + right, nil
		case "*":
			return left * right, nil
		case "-":
			return left - right, nil
		}
	}
	return 0, fmt.Errorf("bad expr %v", expr)
}

// failingProblem always raises; drivers must map the failure to +Inf.
type failingProblem struct {
	grammar *Grammar
}

func (p *failingProblem) Grammar() *Grammar { return p.grammar }

func (p *failingProblem) Fitness(any) (float64, error) {
	return 0, fmt.Errorf("boom: %w", ErrEvaluationFailed)
}

// recorder captures the current_best stream for determinism checks.
type recorder struct {
	NopObserver
	bests []string
}

func (r *recorder) CurrentBest(nevals int, fitness float64, expr string, actions []int) {
	r.bests = append(r.bests, fmt.Sprintf("%d|%g|%s|%v", nevals, fitness, expr, actions))
}

func TestMCFindsZero(t *test.T) {
	params := &MCParams{MaxSteps: 10, NSamples: 1000, Seed: 1}
	result, err := MCSearch(params, newDistanceProblem(0), nil)
	if err != nil {
		t.Fatalf("MCSearch failed: %v", err)
	}
	if result.Fitness != 0 {
		t.Errorf("MC fitness on target 0: Expected: 0 Actual: %v", result.Fitness)
	}
	if result.TotalEvals != 1000 {
		t.Errorf("TotalEvals: Expected: 1000 Actual: %v", result.TotalEvals)
	}
	if result.BestAtEval < 1 || result.BestAtEval > result.TotalEvals {
		t.Errorf("BestAtEval out of range: %v", result.BestAtEval)
	}
}

func TestMCTargetNine(t *test.T) {
	params := &MCParams{MaxSteps: 10, NSamples: 2000, Seed: 1}
	result, err := MCSearch(params, newDistanceProblem(9), nil)
	if err != nil {
		t.Fatalf("MCSearch failed: %v", err)
	}
	if result.Fitness > 1 {
		t.Errorf("MC fitness on target 9: Expected: <= 1 Actual: %v", result.Fitness)
	}
}

func TestMCResultReplays(t *test.T) {
	params := &MCParams{MaxSteps: 10, NSamples: 200, Seed: 5}
	result, err := MCSearch(params, newDistanceProblem(9), nil)
	if err != nil {
		t.Fatalf("MCSearch failed: %v", err)
	}
	replayed := arithTree(10)
	if err := replayed.ReplayActions(result.Actions); err != nil {
		t.Fatalf("replaying result actions failed: %v", err)
	}
	expr, _ := replayed.GetExpr()
	if !mop.DeepEqual(expr, result.Expr) {
		t.Errorf("replayed best expr:\nExpected: %v\nActual: %v", result.Expr, expr)
	}
}

func TestMCDeterminism(t *test.T) {
	run := func() []string {
		rec := &recorder{}
		params := &MCParams{MaxSteps: 10, NSamples: 300, Seed: 42}
		if _, err := MCSearch(params, newDistanceProblem(9), rec); err != nil {
			t.Fatalf("MCSearch failed: %v", err)
		}
		return rec.bests
	}
	first, second := run(), run()
	if !mop.DeepEqual(first, second) {
		t.Errorf("current_best streams differ between identically seeded runs")
	}
}

func TestMCEvaluationFailure(t *test.T) {
	params := &MCParams{MaxSteps: 10, NSamples: 10, Seed: 1}
	result, err := MCSearch(params, &failingProblem{grammar: arithGrammar()}, nil)
	if err != nil {
		t.Fatalf("MCSearch failed: %v", err)
	}
	if !math.IsInf(result.Fitness, 1) {
		t.Errorf("fitness after universal failure: Expected: +Inf Actual: %v", result.Fitness)
	}
	if result.TotalEvals != 10 {
		t.Errorf("TotalEvals: Expected: 10 Actual: %v", result.TotalEvals)
	}
}

func TestPMC(t *test.T) {
	params := &PMCParams{
		MC:       MCParams{MaxSteps: 10, NSamples: 250, Seed: 1},
		NThreads: 4,
	}
	result, err := PMCSearch(params, newDistanceProblem(9), nil)
	if err != nil {
		t.Fatalf("PMCSearch failed: %v", err)
	}
	if result.TotalEvals != 1000 {
		t.Errorf("PMC TotalEvals: Expected: 1000 Actual: %v", result.TotalEvals)
	}
	if result.BestAtEval != 0 {
		t.Errorf("PMC BestAtEval: Expected: 0 Actual: %v", result.BestAtEval)
	}

	again, err := PMCSearch(params, newDistanceProblem(9), nil)
	if err != nil {
		t.Fatalf("PMCSearch failed: %v", err)
	}
	if result.Fitness != again.Fitness {
		t.Errorf("PMC fitness not reproducible: Expected: %v Actual: %v",
			result.Fitness, again.Fitness)
	}
}
