package exprsearch

import (
	"fmt"
	"math"
	"time"
)

// LinearDerivTree is the MDP state: a derivation tree plus the action list
// that built it, recorded in visitation order. Replaying Actions on a fresh
// tree reconstructs the state.
type LinearDerivTree struct {
	Tree    *DerivationTree
	Actions []int
}

func newLinearState(g *Grammar, md *MinDepths, maxSteps int) *LinearDerivTree {
	tree := NewDerivationTree(g, md, maxSteps)
	tree.Initialize()
	return &LinearDerivTree{Tree: tree}
}

// Terminal: the episode ends when the tree completes or the step budget is
// spent with decisions still open.
func (s *LinearDerivTree) Terminal() bool {
	return s.Tree.IsComplete() || len(s.Actions) >= s.Tree.MaxSteps
}

// Complete reports a successfully finished derivation.
func (s *LinearDerivTree) Complete() bool {
	return s.Tree.IsComplete()
}

// LegalActions at the current decision node, pruned by the min-depth table
// against the tree's step bound.
func (s *LinearDerivTree) LegalActions() []int {
	id, ok := s.Tree.NextOpen()
	if !ok {
		return nil
	}
	return s.Tree.LegalActions(id, s.Tree.MaxSteps)
}

// Step applies one action; the transition is deterministic.
func (s *LinearDerivTree) Step(action int) {
	s.Tree.ExpandNext(action)
	s.Actions = append(s.Actions, action)
}

// Clone deep-copies the state.
func (s *LinearDerivTree) Clone() *LinearDerivTree {
	actions := make([]int, len(s.Actions))
	copy(actions, s.Actions)
	return &LinearDerivTree{Tree: s.Tree.Copy(), Actions: actions}
}

func (s *LinearDerivTree) String() string {
	return fmt.Sprintf("LinearDerivTree{actions=%v, nopen=%d}", s.Actions, s.Tree.NOpen)
}

// MCTSParams drives the UCT search over the derivation MDP.
type MCTSParams struct {
	MaxSteps         int     `toml:"maxsteps"`
	MaxNegReward     float64 `toml:"max_neg_reward"`
	StepReward       float64 `toml:"step_reward"`
	NIters           int     `toml:"n_iters"`
	SearchDepth      int     `toml:"searchdepth"`
	ExplorationConst float64 `toml:"exploration_const"`
	MaxMod           bool    `toml:"maxmod"`
	Q0               float64 `toml:"q0"`
	Discount         float64 `toml:"discount"`
	Seed             int64   `toml:"seed"`
	TreeEvery        int     `toml:"tree_every"` // mcts_tree event cadence; 0 disables
}

func (p *MCTSParams) discount() float64 {
	if p.Discount <= 0 || p.Discount > 1 {
		return 1.0
	}
	return p.Discount
}

func (p *MCTSParams) echo(obs Observer) {
	obs.Parameter("driver", DriverMCTS)
	obs.Parameter("maxsteps", p.MaxSteps)
	obs.Parameter("max_neg_reward", p.MaxNegReward)
	obs.Parameter("step_reward", p.StepReward)
	obs.Parameter("n_iters", p.NIters)
	obs.Parameter("searchdepth", p.SearchDepth)
	obs.Parameter("exploration_const", p.ExplorationConst)
	obs.Parameter("maxmod", p.MaxMod)
	obs.Parameter("q0", p.Q0)
	obs.Parameter("discount", p.discount())
	obs.Parameter("seed", p.Seed)
}

// mctsNode holds the per-state statistics: visit counts, per-action counts
// and Q-values initialized to q0. Actions are the legal ones at the state,
// tried in order before UCT takes over.
type mctsNode struct {
	actions   []int
	children  map[int]*mctsNode
	n         int
	na        map[int]int
	q         map[int]float64
	terminal  bool
	exhausted bool
}

func newMCTSNode(state *LinearDerivTree, q0 float64) *mctsNode {
	nd := &mctsNode{
		actions:  state.LegalActions(),
		children: make(map[int]*mctsNode),
		na:       make(map[int]int),
		q:        make(map[int]float64),
	}
	if state.Terminal() || len(nd.actions) == 0 {
		nd.terminal = true
		nd.exhausted = true
	}
	for _, a := range nd.actions {
		nd.q[a] = q0
	}
	return nd
}

// untried returns the first action with no visits, preserving action order
// so expansion is deterministic given the rollout seed.
func (nd *mctsNode) untried() (int, bool) {
	for _, a := range nd.actions {
		if nd.na[a] == 0 {
			return a, true
		}
	}
	return 0, false
}

// uctSelect picks argmax_a Q(s,a) + c*sqrt(ln N(s) / N(s,a)). All actions
// have been tried at least once when this runs. Exhausted subtrees are
// skipped so the search drains toward unexplored lines.
func (nd *mctsNode) uctSelect(c float64) int {
	best := 0
	bestVal := math.Inf(-1)
	lnN := math.Log(float64(nd.n))
	for _, a := range nd.actions {
		if child, ok := nd.children[a]; ok && child.exhausted {
			continue
		}
		val := nd.q[a] + c*math.Sqrt(lnN/float64(nd.na[a]))
		if val > bestVal {
			bestVal = val
			best = a
		}
	}
	if best == 0 {
		// everything below is exhausted, fall back to plain argmax
		for _, a := range nd.actions {
			val := nd.q[a]
			if val > bestVal {
				bestVal = val
				best = a
			}
		}
	}
	return best
}

// updateExhausted marks a node exhausted once every action leads to an
// exhausted child; lets the driver stop early when the root drains.
func (nd *mctsNode) updateExhausted() {
	if nd.terminal {
		return
	}
	for _, a := range nd.actions {
		child, ok := nd.children[a]
		if !ok || !child.exhausted {
			return
		}
	}
	nd.exhausted = true
}

// SearchTree is the MCTS bookkeeping structure, separate from any
// derivation tree; exposed to observers via the mcts_tree event.
type SearchTree struct {
	root *mctsNode
	size int
}

// Size is the number of MCTS nodes allocated so far.
func (t *SearchTree) Size() int {
	return t.size
}

type pathStep struct {
	node   *mctsNode
	action int
}

// MCTSSearch runs UCT from the empty-derivation root state for NIters
// iterations (or until the root subtree is exhausted), tracking the best
// completed rollout. Returned Fitness is the negated best reward.
func MCTSSearch(params *MCTSParams, problem ExprProblem, obs Observer) (*SearchResult, error) {
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
	rootState := newLinearState(grammar, depths, params.MaxSteps)
	tree := &SearchTree{root: newMCTSNode(rootState, params.Q0), size: 1}
	result := &SearchResult{Fitness: math.Inf(1)}
	var bestState *LinearDerivTree

	for i := 1; i <= params.NIters; i++ {
		if tree.root.exhausted {
			obs.Verbose1(fmt.Sprintf("root exhausted after %d iterations", i-1))
			break
		}
		obs.Iteration(i)

		state := rootState.Clone()
		node := tree.root
		var path []pathStep

		// selection: descend while fully explored
		for !node.terminal {
			if _, ok := node.untried(); ok {
				break
			}
			a := node.uctSelect(params.ExplorationConst)
			path = append(path, pathStep{node, a})
			state.Step(a)
			node = node.children[a]
		}

		// expansion: add a single new node
		if !node.terminal {
			a, _ := node.untried()
			path = append(path, pathStep{node, a})
			state.Step(a)
			child := newMCTSNode(state, params.Q0)
			node.children[a] = child
			tree.size++
			node = child
		}

		// rollout: uniform legal actions, at most SearchDepth steps
		steps := 0
		for !state.Terminal() && steps < params.SearchDepth {
			legal := state.LegalActions()
			if len(legal) == 0 {
				break
			}
			state.Step(legal[rng.Intn(len(legal))])
			steps++
		}

		// terminal reward; completed rollouts get evaluated
		terminal := params.MaxNegReward
		if state.Complete() {
			expr, _ := state.Tree.GetExpr()
			fitness, ferr := problem.Fitness(expr)
			if ferr != nil {
				fitness = math.Inf(1)
			}
			terminal = -fitness
			result.TotalEvals++
			if fitness < result.Fitness {
				result.Fitness = fitness
				result.Expr = expr
				result.BestAtEval = result.TotalEvals
				bestState = state.Clone()
				obs.CurrentBest(result.TotalEvals, result.Fitness,
					ExprString(result.Expr), bestState.Actions)
			}
		}

		// backup: discounted return per transition, final transition worth
		// the terminal reward, every other one a step reward. The rollout
		// transitions fold into the deepest path entry's return.
		ret := terminal
		for k := 0; k < steps-1; k++ {
			ret = params.StepReward + params.discount()*ret
		}
		for k := len(path) - 1; k >= 0; k-- {
			if k < len(path)-1 || steps > 0 {
				ret = params.StepReward + params.discount()*ret
			}
			step := path[k]
			step.node.n++
			step.node.na[step.action]++
			if params.MaxMod {
				if step.node.na[step.action] == 1 || ret > step.node.q[step.action] {
					step.node.q[step.action] = ret
				}
			} else {
				step.node.q[step.action] += (ret - step.node.q[step.action]) /
					float64(step.node.na[step.action])
			}
		}
		for k := len(path) - 1; k >= 0; k-- {
			path[k].node.updateExhausted()
		}

		obs.ElapsedCPU(result.TotalEvals, time.Since(start).Seconds())
		if params.TreeEvery > 0 && i%params.TreeEvery == 0 && bestState != nil {
			obs.MCTSTree(i, tree, bestState)
		}
	}

	if bestState != nil {
		result.Tree = bestState.Tree
		result.Actions = bestState.Actions
	}
	obs.Result(result)
	emitComputeInfo(obs, start, time.Now())
	return result, nil
}
