package exprsearch

import "math/rand"

// ResampleSubtree discards the subtree below id and regrows it with uniform
// legal actions under targetDepth. Precondition: the tree is complete. On
// error the tree is left partially regrown; callers mutate a copy and throw
// it away on failure.
func (t *DerivationTree) ResampleSubtree(rng *rand.Rand, id NodeID, targetDepth int) error {
	n := &t.nodes[id]
	n.Action = 0
	n.Children = nil
	t.open = t.open[:0]
	t.NOpen = 0
	t.actions = nil

	if n.Rule.IsDecision() {
		t.open = append(t.open, id)
		t.NOpen = 1
	} else {
		t.materialize(id)
	}
	err := t.randExpand(rng, targetDepth)
	// the recorded list only covers the regrown subtree; force a rebuild
	t.actions = nil
	return err
}

// mutate copies the parent, picks a uniformly random live node and resamples
// its subtree within maxdepth. Either a complete tree of depth at most
// maxdepth comes back, or ErrIncompleteExpansion.
func mutate(rng *rand.Rand, parent *GPIndividual, maxdepth int) (*GPIndividual, error) {
	tree := parent.Tree.Copy()
	ids := tree.CollectNodes(nil)
	id := ids[rng.Intn(len(ids))]
	if err := tree.ResampleSubtree(rng, id, maxdepth); err != nil {
		return nil, err
	}
	tree.Compact()
	return &GPIndividual{Tree: tree}, nil
}
