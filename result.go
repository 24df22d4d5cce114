package exprsearch

import "fmt"

// SearchResult is the uniform record every driver returns.
type SearchResult struct {
	Expr       any
	Fitness    float64
	BestAtEval int
	TotalEvals int
	Actions    []int
	Tree       *DerivationTree
}

// ExprStr renders the best expression for logs and run records.
func (r *SearchResult) ExprStr() string {
	return ExprString(r.Expr)
}

func (r *SearchResult) String() string {
	return fmt.Sprintf("SearchResult{fitness=%g, best_at_eval=%d, total_evals=%d, expr=%s}",
		r.Fitness, r.BestAtEval, r.TotalEvals, r.ExprStr())
}
