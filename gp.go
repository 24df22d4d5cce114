package exprsearch

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// GPParams drives the genetic-programming search. The fractions partition
// the next generation; anything left after elites, crossover, mutation and
// random injection is filled with tournament-winner clones.
type GPParams struct {
	PopSize        int     `toml:"pop_size"`
	MaxDepth       int     `toml:"maxdepth"`
	Iterations     int     `toml:"iterations"`
	TournamentSize int     `toml:"tournament_size"`
	TopKeep        float64 `toml:"top_keep"`
	CrossoverFrac  float64 `toml:"crossover_frac"`
	MutateFrac     float64 `toml:"mutate_frac"`
	RandFrac       float64 `toml:"rand_frac"`
	DefaultExpr    string  `toml:"default_expr"`
	Retries        int     `toml:"retries"`
	Seed           int64   `toml:"seed"`
}

func (p *GPParams) retries() int {
	if p.Retries <= 0 {
		return DefaultRetries
	}
	return p.Retries
}

func (p *GPParams) echo(obs Observer) {
	obs.Parameter("driver", DriverGP)
	obs.Parameter("pop_size", p.PopSize)
	obs.Parameter("maxdepth", p.MaxDepth)
	obs.Parameter("iterations", p.Iterations)
	obs.Parameter("tournament_size", p.TournamentSize)
	obs.Parameter("top_keep", p.TopKeep)
	obs.Parameter("crossover_frac", p.CrossoverFrac)
	obs.Parameter("mutate_frac", p.MutateFrac)
	obs.Parameter("rand_frac", p.RandFrac)
	obs.Parameter("default_expr", p.DefaultExpr)
	obs.Parameter("seed", p.Seed)
}

// GPSearch evolves a ramped-init population for Iterations generations and
// returns the best individual ever evaluated. The global best is monotone
// non-increasing in fitness across generations, and the returned fitness is
// never worse than the best of the final population.
func GPSearch(params *GPParams, problem ExprProblem, obs Observer) (*SearchResult, error) {
	return GPSearchWith(params, problem, obs, SeqEvaluator{})
}

// GPSearchWith runs GP with a caller-chosen evaluation schedule.
func GPSearchWith(params *GPParams, problem ExprProblem, obs Observer, eval Evaluator) (*SearchResult, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	start := time.Now()
	params.echo(obs)

	if err := initProblem(problem); err != nil {
		return nil, err
	}
	grammar := problem.Grammar()
	depths, err := ComputeMinDepths(grammar)
	if err != nil {
		return nil, err
	}

	rng := newRand(params.Seed)
	pop, err := rampedInit(rng, grammar, depths, params.PopSize, params.MaxDepth, params.retries())
	if err != nil {
		return nil, fmt.Errorf("ramped init: %w", err)
	}

	result := &SearchResult{Fitness: math.Inf(1)}
	totalEvals := 0

	for iter := 1; iter <= params.Iterations; iter++ {
		obs.Iteration(iter)

		totalEvals += eval.Evaluate(pop, problem, params.DefaultExpr)
		pop.SortByFitness()

		if best := pop.Best(); best.Fitness < result.Fitness || result.Tree == nil {
			result.Fitness = best.Fitness
			result.Expr = best.Expr
			result.Tree = best.Tree.Copy()
			result.Actions = result.Tree.Actions()
			result.BestAtEval = totalEvals
		}
		result.TotalEvals = totalEvals

		obs.Fitness(iter, result.Fitness)
		obs.Code(iter, ExprString(result.Expr))
		obs.Population(iter, pop)
		obs.CurrentBest(totalEvals, result.Fitness, ExprString(result.Expr), nil)
		obs.ElapsedCPU(totalEvals, time.Since(start).Seconds())

		if iter == params.Iterations {
			break
		}
		pop = nextGeneration(rng, params, grammar, depths, pop)
	}

	obs.Result(result)
	emitComputeInfo(obs, start, time.Now())
	return result, nil
}

// nextGeneration builds the successor population from a fitness-sorted one:
// elites first, then crossover children, mutants, fresh random individuals,
// and tournament-clone fill. Operator failures are retried without counting
// toward their quota; past the retry cap the remainder falls through to the
// fill stage.
func nextGeneration(rng *rand.Rand, params *GPParams, g *Grammar, md *MinDepths, pop GPPopulation) GPPopulation {
	size := params.PopSize
	next := make(GPPopulation, 0, size+1)

	nElite := int(params.TopKeep * float64(size))
	for i := 0; i < nElite && i < len(pop); i++ {
		next = append(next, pop[i].Clone())
	}

	nCross := int(params.CrossoverFrac * float64(size))
	for made, tries := 0, 0; made < nCross && tries < nCross*params.retries(); tries++ {
		p1 := pop[tournament(rng, len(pop), params.TournamentSize)]
		p2 := pop[tournament(rng, len(pop), params.TournamentSize)]
		c1, c2, err := crossover(rng, p1, p2, params.MaxDepth)
		if err != nil {
			if DEBUG {
				log.Debugf("crossover attempt failed: %v", err)
			}
			continue
		}
		next = append(next, c1)
		made++
		if made < nCross {
			next = append(next, c2)
			made++
		}
	}

	nMut := int(params.MutateFrac * float64(size))
	for made, tries := 0, 0; made < nMut && tries < nMut*params.retries(); tries++ {
		parent := pop[tournament(rng, len(pop), params.TournamentSize)]
		child, err := mutate(rng, parent, params.MaxDepth)
		if err != nil {
			continue
		}
		next = append(next, child)
		made++
	}

	nRand := int(params.RandFrac * float64(size))
	for made, tries := 0, 0; made < nRand && tries < nRand*params.retries(); tries++ {
		tree := NewDerivationTree(g, md, params.MaxDepth)
		if err := tree.Rand(rng, params.MaxDepth); err != nil {
			continue
		}
		next = append(next, &GPIndividual{Tree: tree})
		made++
	}

	for len(next) < size {
		next = append(next, pop[tournament(rng, len(pop), params.TournamentSize)].Clone())
	}
	return next[:size]
}
