package exprsearch

import (
	mop "reflect"
	test "testing"
)

func mctsTestParams() *MCTSParams {
	return &MCTSParams{
		MaxSteps:         20,
		MaxNegReward:     -100,
		StepReward:       0,
		NIters:           2000,
		SearchDepth:      10,
		ExplorationConst: 100,
		Q0:               0,
		MaxMod:           false,
		Seed:             1,
	}
}

func TestMCTSTargetSeven(t *test.T) {
	result, err := MCTSSearch(mctsTestParams(), newDistanceProblem(7), nil)
	if err != nil {
		t.Fatalf("MCTSSearch failed: %v", err)
	}
	if result.Fitness > 1 {
		t.Errorf("MCTS fitness on target 7: Expected: <= 1 Actual: %v", result.Fitness)
	}
	if result.BestAtEval > result.TotalEvals {
		t.Errorf("BestAtEval %v exceeds TotalEvals %v", result.BestAtEval, result.TotalEvals)
	}
	if result.TotalEvals < 1 || result.TotalEvals > 2000 {
		t.Errorf("TotalEvals out of range: %v", result.TotalEvals)
	}
	if result.Tree == nil || !result.Tree.IsComplete() {
		t.Fatalf("best tree missing or incomplete")
	}
}

func TestMCTSResultReplays(t *test.T) {
	params := mctsTestParams()
	params.NIters = 500
	result, err := MCTSSearch(params, newDistanceProblem(7), nil)
	if err != nil {
		t.Fatalf("MCTSSearch failed: %v", err)
	}
	replayed := arithTree(20)
	if err := replayed.ReplayActions(result.Actions); err != nil {
		t.Fatalf("replaying best action path failed: %v", err)
	}
	expr, _ := replayed.GetExpr()
	if !mop.DeepEqual(expr, result.Expr) {
		t.Errorf("replayed best expr:\nExpected: %v\nActual: %v", result.Expr, expr)
	}
}

func TestMCTSDeterminism(t *test.T) {
	run := func() []string {
		rec := &recorder{}
		params := mctsTestParams()
		params.NIters = 400
		if _, err := MCTSSearch(params, newDistanceProblem(7), rec); err != nil {
			t.Fatalf("MCTSSearch failed: %v", err)
		}
		return rec.bests
	}
	if first, second := run(), run(); !mop.DeepEqual(first, second) {
		t.Errorf("current_best streams differ between identically seeded MCTS runs")
	}
}

func TestMCTSMaxMod(t *test.T) {
	params := mctsTestParams()
	params.NIters = 400
	params.MaxMod = true
	result, err := MCTSSearch(params, newDistanceProblem(7), nil)
	if err != nil {
		t.Fatalf("MCTSSearch (maxmod) failed: %v", err)
	}
	if result.TotalEvals < 1 {
		t.Errorf("maxmod run produced no complete rollouts")
	}
}

// A tiny grammar drains quickly: the driver must stop on root exhaustion
// rather than spin out the full iteration budget.
func TestMCTSRootExhaustion(t *test.T) {
	g := NewGrammar("start").Add(
		NewRef("start", "num"),
		NewRange("num", 1, 3),
	)
	params := mctsTestParams()
	params.NIters = 1000
	prob := &tinyProblem{grammar: g}
	result, err := MCTSSearch(params, prob, nil)
	if err != nil {
		t.Fatalf("MCTSSearch failed: %v", err)
	}
	if result.Fitness != 0 {
		t.Errorf("exhaustive search best: Expected: 0 Actual: %v", result.Fitness)
	}
	// three leaves, each evaluated at least once, far fewer than NIters
	if result.TotalEvals >= 1000 {
		t.Errorf("root exhaustion did not stop the search: %v evals", result.TotalEvals)
	}
}

type tinyProblem struct {
	grammar *Grammar
}

func (p *tinyProblem) Grammar() *Grammar { return p.grammar }

func (p *tinyProblem) Fitness(expr any) (float64, error) {
	v, _ := expr.(int)
	return float64(v - 1), nil
}
