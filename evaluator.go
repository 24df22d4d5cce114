package exprsearch

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// Evaluator scores every unevaluated individual of a batch. The two
// implementations differ only in scheduling: fitness slots of distinct
// individuals are independent, so the parallel one needs nothing from the
// problem beyond concurrent-safe Fitness calls.
type Evaluator interface {
	// Evaluate fills in Expr/Fitness for unevaluated members and returns
	// how many evaluations were performed.
	Evaluate(pop GPPopulation, problem ExprProblem, defaultExpr string) int
}

// evalOne folds and scores a single individual. A failed fold or fitness
// call yields +Inf and the default expression; the individual survives
// selection but is dominated by anything finite.
func evalOne(ind *GPIndividual, problem ExprProblem, defaultExpr string) {
	expr, err := ind.Tree.GetExpr()
	if err == nil {
		ind.Expr = expr
		ind.Fitness, err = problem.Fitness(expr)
	}
	if err != nil {
		ind.Fitness = math.Inf(1)
		ind.Expr = defaultExpr
	}
	ind.Evaluated = true
}

// SeqEvaluator evaluates in slice order on the calling goroutine.
type SeqEvaluator struct{}

func (SeqEvaluator) Evaluate(pop GPPopulation, problem ExprProblem, defaultExpr string) int {
	count := 0
	for _, ind := range pop {
		if ind.Evaluated {
			continue
		}
		evalOne(ind, problem, defaultExpr)
		count++
	}
	return count
}

// ParallelEvaluator fans evaluation out over Workers goroutines. Results
// land in per-individual slots; the caller combines (sorts) only after all
// fitness calls complete.
type ParallelEvaluator struct {
	Workers int
}

func (pe ParallelEvaluator) Evaluate(pop GPPopulation, problem ExprProblem, defaultExpr string) int {
	var eg errgroup.Group
	if pe.Workers > 0 {
		eg.SetLimit(pe.Workers)
	}
	count := 0
	for _, ind := range pop {
		if ind.Evaluated {
			continue
		}
		count++
		ind := ind
		eg.Go(func() error {
			evalOne(ind, problem, defaultExpr)
			return nil
		})
	}
	eg.Wait() // workers never return errors
	return count
}
