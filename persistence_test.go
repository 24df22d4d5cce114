package exprsearch

import (
	"path/filepath"
	test "testing"
)

func TestRunLogPersistsEvents(t *test.T) {
	dir := t.TempDir()
	cfg := &RunLogConfig{Name: "runs.db", Path: dir}

	rl, err := NewRunLog(cfg, DriverMC)
	if err != nil {
		t.Fatalf("NewRunLog failed: %v", err)
	}

	rl.Parameter("maxsteps", 10)
	rl.Parameter("n_samples", 100)
	rl.CurrentBest(1, 3.5, "(1 + 2)", nil)
	rl.CurrentBest(2, 1.0, "(3 * 3)", nil)
	rl.Fitness(1, 1.0)
	rl.Result(&SearchResult{Expr: []any{3, "*", 3}, Fitness: 1.0, BestAtEval: 2, TotalEvals: 100})

	var runs []RunRecord
	if err := rl.DB.Find(&runs).Error; err != nil {
		t.Fatalf("querying runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run rows: Expected: 1 Actual: %v", len(runs))
	}
	if runs[0].Driver != DriverMC {
		t.Errorf("run driver: Expected: %v Actual: %v", DriverMC, runs[0].Driver)
	}

	var count int64
	if err := rl.DB.Model(&EventRecord{}).Where("run_id = ?", rl.RunID).Count(&count).Error; err != nil {
		t.Fatalf("counting events failed: %v", err)
	}
	if count != 6 {
		t.Errorf("event rows: Expected: 6 Actual: %v", count)
	}

	var bests []EventRecord
	if err := rl.DB.Where("run_id = ? AND name = ?", rl.RunID, "current_best").
		Order("n_evals").Find(&bests).Error; err != nil {
		t.Fatalf("querying current_best failed: %v", err)
	}
	if len(bests) != 2 || bests[1].Fitness != 1.0 || bests[1].Expr != "(3 * 3)" {
		t.Errorf("current_best rows wrong: %+v", bests)
	}

	if err := rl.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestRunLogConfigValidation(t *test.T) {
	if _, err := NewRunLog(nil, DriverMC); err == nil {
		t.Errorf("Expected error for nil config")
	}
	if _, err := NewRunLog(&RunLogConfig{Path: filepath.Join("some", "where")}, DriverMC); err == nil {
		t.Errorf("Expected error for missing database name")
	}
}

func TestRunLogAsObserver(t *test.T) {
	dir := t.TempDir()
	rl, err := NewRunLog(&RunLogConfig{Name: "mc.db", Path: dir}, DriverMC)
	if err != nil {
		t.Fatalf("NewRunLog failed: %v", err)
	}
	defer rl.Shutdown()

	params := &MCParams{MaxSteps: 10, NSamples: 50, Seed: 1}
	if _, err := MCSearch(params, newDistanceProblem(9), rl); err != nil {
		t.Fatalf("MCSearch failed: %v", err)
	}

	var count int64
	if err := rl.DB.Model(&EventRecord{}).
		Where("run_id = ? AND name = ?", rl.RunID, "current_best").
		Count(&count).Error; err != nil {
		t.Fatalf("counting events failed: %v", err)
	}
	if count != 50 {
		t.Errorf("persisted current_best rows: Expected: 50 Actual: %v", count)
	}
}
