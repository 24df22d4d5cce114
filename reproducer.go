package exprsearch

import "math/rand"

// graftSubtree deep-copies the subtree at srcID from src into dst's arena,
// rebasing depths to start at depth. Returns the new root slot in dst.
func graftSubtree(dst, src *DerivationTree, srcID NodeID, depth int) NodeID {
	srcN := src.Node(srcID)
	id := NodeID(len(dst.nodes))
	dst.nodes = append(dst.nodes, DerivTreeNode{
		Rule:   srcN.Rule,
		Cmd:    srcN.Cmd,
		Depth:  depth,
		Action: srcN.Action,
	})
	for _, c := range src.Node(srcID).Children {
		child := graftSubtree(dst, src, c, depth+1)
		dst.nodes[id].Children = append(dst.nodes[id].Children, child)
	}
	return id
}

// swapChildren exchanges the child sequences (and recorded actions, which
// must travel with them to keep action replay coherent) of two same-rule
// nodes in different trees. Old subtrees become arena garbage.
func swapChildren(t1 *DerivationTree, a NodeID, t2 *DerivationTree, b NodeID) {
	kidsA := append([]NodeID(nil), t1.Node(a).Children...)
	kidsB := append([]NodeID(nil), t2.Node(b).Children...)
	depthA := t1.Node(a).Depth
	depthB := t2.Node(b).Depth

	newA := make([]NodeID, 0, len(kidsB))
	for _, c := range kidsB {
		newA = append(newA, graftSubtree(t1, t2, c, depthA+1))
	}
	newB := make([]NodeID, 0, len(kidsA))
	for _, c := range kidsA {
		newB = append(newB, graftSubtree(t2, t1, c, depthB+1))
	}

	t1.Node(a).Children = newA
	t2.Node(b).Children = newB
	t1.Node(a).Action, t2.Node(b).Action = t2.Node(b).Action, t1.Node(a).Action
	t1.actions = nil
	t2.actions = nil
}

// crossover is single-point, rule-matched subtree exchange: copy both
// parents, pick a random non-terminal node in the first copy, find the nodes
// of the second copy governed by the same rule, swap child sequences with a
// uniformly chosen one. ErrRuleNotFound when the second copy has no match;
// ErrDepthExceeded when either product outgrows maxdepth.
func crossover(rng *rand.Rand, p1, p2 *GPIndividual, maxdepth int) (*GPIndividual, *GPIndividual, error) {
	c1 := p1.Tree.Copy()
	c2 := p2.Tree.Copy()

	cands1 := c1.CollectNodes(func(n *DerivTreeNode) bool { return n.Rule.Kind != TerminalRule })
	if len(cands1) == 0 {
		return nil, nil, ErrRuleNotFound
	}
	a := cands1[rng.Intn(len(cands1))]
	rule := c1.Node(a).Rule

	cands2 := c2.CollectNodes(func(n *DerivTreeNode) bool { return n.Rule == rule })
	if len(cands2) == 0 {
		return nil, nil, ErrRuleNotFound
	}
	b := cands2[rng.Intn(len(cands2))]

	swapChildren(c1, a, c2, b)

	if c1.MaxDepth() > maxdepth || c2.MaxDepth() > maxdepth {
		return nil, nil, ErrDepthExceeded
	}
	c1.Compact()
	c2.Compact()
	return &GPIndividual{Tree: c1}, &GPIndividual{Tree: c2}, nil
}
