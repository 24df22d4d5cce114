package exprsearch

import (
	"errors"
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// randExpand drives every open decision to completion with uniform choices
// among the actions legal under targetDepth. The loop always terminates:
// each decision either bottoms out on a terminal or strictly shrinks the
// depth budget on the branch it opens.
func (t *DerivationTree) randExpand(rng *rand.Rand, targetDepth int) error {
	for {
		id, ok := t.NextOpen()
		if !ok {
			return nil
		}
		legal := t.LegalActions(id, targetDepth)
		if len(legal) == 0 {
			return fmt.Errorf("node %q at depth %d: %w",
				t.nodes[id].Cmd, t.nodes[id].Depth, ErrIncompleteExpansion)
		}
		t.ExpandNext(legal[rng.Intn(len(legal))])
	}
}

// Rand generates a complete random tree with max depth at most targetDepth.
// It either returns a complete tree or ErrIncompleteExpansion; a partially
// expanded tree is never handed back.
func (t *DerivationTree) Rand(rng *rand.Rand, targetDepth int) error {
	t.Initialize()
	if err := t.randExpand(rng, targetDepth); err != nil {
		t.Initialize()
		return err
	}
	return nil
}

// RandWithRetry resets and retries on ErrIncompleteExpansion, failing with
// ErrSamplingExhausted once the cap is hit. Other errors pass through.
func (t *DerivationTree) RandWithRetry(rng *rand.Rand, targetDepth, retries int) error {
	var err error
	for i := 0; i < retries; i++ {
		err = t.Rand(rng, targetDepth)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrIncompleteExpansion) {
			return err
		}
		if DEBUG {
			log.Debugf("rand attempt %d/%d failed: %v", i+1, retries, err)
		}
	}
	return fmt.Errorf("%d attempts, last: %v: %w", retries, err, ErrSamplingExhausted)
}
