package exprsearch

import (
	"fmt"
	"math"
	"time"

	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

// MCParams drives the uniform Monte Carlo baseline.
type MCParams struct {
	MaxSteps int   `toml:"maxsteps"`
	NSamples int   `toml:"n_samples"`
	Retries  int   `toml:"retries"`
	Seed     int64 `toml:"seed"`
}

func (p *MCParams) retries() int {
	if p.Retries <= 0 {
		return DefaultRetries
	}
	return p.Retries
}

func (p *MCParams) echo(obs Observer) {
	obs.Parameter("driver", DriverMC)
	obs.Parameter("maxsteps", p.MaxSteps)
	obs.Parameter("n_samples", p.NSamples)
	obs.Parameter("seed", p.Seed)
}

// MCSearch samples NSamples uniform random trees of depth at most MaxSteps
// and keeps the strictly best. Evaluation failures score +Inf and lose to
// anything finite.
func MCSearch(params *MCParams, problem ExprProblem, obs Observer) (*SearchResult, error) {
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
	result := &SearchResult{Fitness: math.Inf(1)}

	for i := 1; i <= params.NSamples; i++ {
		obs.Iteration(i)

		tree := NewDerivationTree(grammar, depths, params.MaxSteps)
		if err := tree.RandWithRetry(rng, params.MaxSteps, params.retries()); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		expr, _ := tree.GetExpr()
		fitness, err := problem.Fitness(expr)
		if err != nil {
			fitness = math.Inf(1)
		}

		if fitness < result.Fitness {
			result.Fitness = fitness
			result.Expr = expr
			result.Tree = tree
			result.Actions = tree.Actions()
			result.BestAtEval = i
		}
		result.TotalEvals = i

		obs.CurrentBest(i, result.Fitness, ExprString(result.Expr), nil)
		obs.ElapsedCPU(i, time.Since(start).Seconds())
	}

	obs.Result(result)
	emitComputeInfo(obs, start, time.Now())
	return result, nil
}

// PMCParams runs NThreads independent MC searches and keeps the overall
// minimum. Worker w gets seed Seed+w, so runs are reproducible and workers
// share no mutable state.
type PMCParams struct {
	MC       MCParams `toml:"mc"`
	NThreads int      `toml:"n_threads"`
}

func (p *PMCParams) threads() int {
	if p.NThreads <= 0 {
		return 1
	}
	return p.NThreads
}

// PMCSearch launches the workers, combines by minimum fitness and sums
// total_evals. BestAtEval is reported as 0: worker-local eval counts do not
// line up on a shared axis, and the upstream aggregators key on it that way.
func PMCSearch(params *PMCParams, problem ExprProblem, obs Observer) (*SearchResult, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	start := time.Now()
	obs.Parameter("driver", DriverPMC)
	obs.Parameter("n_threads", params.threads())

	results := make([]*SearchResult, params.threads())
	var eg errgroup.Group
	for w := 0; w < params.threads(); w++ {
		w := w
		eg.Go(func() error {
			worker := MCParams{}
			if err := copier.Copy(&worker, &params.MC); err != nil {
				return err
			}
			worker.Seed = params.MC.Seed + int64(w)
			r, err := MCSearch(&worker, problem, NopObserver{})
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			results[w] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	combined := &SearchResult{Fitness: math.Inf(1)}
	for _, r := range results {
		combined.TotalEvals += r.TotalEvals
		if r.Fitness < combined.Fitness {
			combined.Fitness = r.Fitness
			combined.Expr = r.Expr
			combined.Tree = r.Tree
			combined.Actions = r.Actions
		}
	}
	combined.BestAtEval = 0

	obs.CurrentBest(combined.TotalEvals, combined.Fitness, ExprString(combined.Expr), nil)
	obs.Result(combined)
	emitComputeInfo(obs, start, time.Now())
	return combined, nil
}
