package exprsearch

import "fmt"

// unbounded stands in for "not yet known / infinite" during the fixpoint.
const unbounded = int(^uint(0) >> 1)

// MinDepths holds the two precomputed feasibility tables:
// ByRule[r] is the minimum number of tree levels a completed subtree rooted
// at an r-node occupies (the node itself included); ByAction[r][k-1] is the
// number of levels required strictly below the node if action k is taken.
// A node at depth d can legally take action k iff d+ByAction[r][k-1] stays
// within the target depth.
type MinDepths struct {
	ByRule   map[*Rule]int
	ByAction map[*Rule][]int
}

// ComputeMinDepths runs the fixpoint over all rules reachable from the
// grammar. Any rule whose depth never stabilizes cannot derive a finite
// tree, and the whole grammar is rejected with ErrUnproductiveGrammar.
func ComputeMinDepths(g *Grammar) (*MinDepths, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	all := g.AllRules()
	depth := make(map[*Rule]int, len(all))
	for _, r := range all {
		depth[r] = unbounded
	}

	eval := func(r *Rule) int {
		switch r.Kind {
		case TerminalRule, RangeRule:
			return 1
		case ReferencedRule:
			ref, _ := g.Rule(r.Ref)
			if d := depth[ref]; d != unbounded {
				return 1 + d
			}
		case AndRule:
			worst := 0
			for _, sub := range r.Subs {
				d := depth[sub]
				if d == unbounded {
					return unbounded
				}
				if d > worst {
					worst = d
				}
			}
			return 1 + worst
		case OrRule:
			best := unbounded
			for _, sub := range r.Subs {
				if d := depth[sub]; d < best {
					best = d
				}
			}
			if best != unbounded {
				return 1 + best
			}
		}
		return unbounded
	}

	for changed := true; changed; {
		changed = false
		for _, r := range all {
			if d := eval(r); d < depth[r] {
				depth[r] = d
				changed = true
			}
		}
	}

	for _, r := range all {
		if depth[r] == unbounded {
			return nil, fmt.Errorf("rule %q: %w", r.Label(), ErrUnproductiveGrammar)
		}
	}

	md := &MinDepths{
		ByRule:   depth,
		ByAction: make(map[*Rule][]int, len(all)),
	}
	for _, r := range all {
		md.ByAction[r] = actionDepths(g, r, depth)
	}
	return md, nil
}

// actionDepths derives the per-action requirement from the rule table.
// Or: the chosen member's subtree hangs one level below, so the requirement
// is the member's own min depth. Range: the chosen integer is recorded on
// the node itself, no children, requirement zero. Non-decisions get a single
// entry for their only expansion.
func actionDepths(g *Grammar, r *Rule, depth map[*Rule]int) []int {
	switch r.Kind {
	case OrRule:
		out := make([]int, len(r.Subs))
		for i, sub := range r.Subs {
			out[i] = depth[sub]
		}
		return out
	case RangeRule:
		return make([]int, r.NumActions())
	case ReferencedRule:
		ref, _ := g.Rule(r.Ref)
		return []int{depth[ref]}
	case AndRule:
		worst := 0
		for _, sub := range r.Subs {
			if d := depth[sub]; d > worst {
				worst = d
			}
		}
		return []int{worst}
	}
	return []int{0} // terminal
}

// MinDepth is the depth of the shallowest complete tree for the grammar.
func (md *MinDepths) MinDepth(g *Grammar) int {
	return md.ByRule[g.StartRule()]
}
