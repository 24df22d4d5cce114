package exprsearch

import "github.com/xrash/smetrics"

// Diversity is the mean pairwise Wagner-Fischer edit distance between the
// rendered expressions of evaluated individuals. Zero means the population
// has collapsed to one expression; the population event reports it so
// stagnation shows up in the logs before fitness flatlines.
func (pop GPPopulation) Diversity() float64 {
	var rendered []string
	for _, ind := range pop {
		if ind.Evaluated {
			rendered = append(rendered, ExprString(ind.Expr))
		}
	}
	if len(rendered) < 2 {
		return 0
	}
	total, pairs := 0, 0
	for i := 0; i < len(rendered); i++ {
		for j := i + 1; j < len(rendered); j++ {
			total += smetrics.WagnerFischer(rendered[i], rendered[j], 1, 1, 2)
			pairs++
		}
	}
	return float64(total) / float64(pairs)
}
