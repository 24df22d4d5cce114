package exprsearch

import (
	"math"
	"math/rand"
	"sort"
)

// GPIndividual is one population member. Fitness is unset until the
// individual is evaluated and never recomputed afterwards.
type GPIndividual struct {
	Tree      *DerivationTree
	Expr      any
	Fitness   float64
	Evaluated bool
}

// Clone deep-copies the individual, tree included.
func (ind *GPIndividual) Clone() *GPIndividual {
	return &GPIndividual{
		Tree:      ind.Tree.Copy(),
		Expr:      ind.Expr,
		Fitness:   ind.Fitness,
		Evaluated: ind.Evaluated,
	}
}

// GPPopulation is a slice of individuals, kept sorted ascending by fitness
// between generations.
type GPPopulation []*GPIndividual

// SortByFitness orders ascending (lower is better). Unevaluated individuals
// rank as +Inf. The sort is stable so equal-fitness order is reproducible.
func (pop GPPopulation) SortByFitness() {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop.fitnessAt(i) < pop.fitnessAt(j)
	})
}

func (pop GPPopulation) fitnessAt(i int) float64 {
	if !pop[i].Evaluated {
		return math.Inf(1)
	}
	return pop[i].Fitness
}

// Best returns the front of a sorted population.
func (pop GPPopulation) Best() *GPIndividual {
	if len(pop) == 0 {
		return nil
	}
	return pop[0]
}

// rampedInit fills size individuals, cycling target depths from the
// grammar's minimum to maxdepth and regenerating on IncompleteExpansion.
// If any depth exhausts the retry cap, initialization stops with that error.
func rampedInit(rng *rand.Rand, g *Grammar, md *MinDepths, size, maxdepth, retries int) (GPPopulation, error) {
	lo := md.MinDepth(g)
	if lo > maxdepth {
		return nil, ErrIncompleteExpansion
	}
	pop := make(GPPopulation, 0, size)
	depth := lo
	for len(pop) < size {
		tree := NewDerivationTree(g, md, maxdepth)
		if err := tree.RandWithRetry(rng, depth, retries); err != nil {
			return nil, err
		}
		pop = append(pop, &GPIndividual{Tree: tree})
		depth++
		if depth > maxdepth {
			depth = lo
		}
	}
	return pop, nil
}
