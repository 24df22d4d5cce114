package exprsearch

import "errors"

// The recoverable/fatal split matters more than the values themselves: the
// first four are caught inside drivers, the last two surface to the caller.
var (
	// ErrIncompleteExpansion means no legal action existed under the current
	// depth bound. Recovered locally: retry with a fresh tree or a fresh
	// mutation point.
	ErrIncompleteExpansion = errors.New("exprsearch: no legal action under depth bound")

	// ErrRuleNotFound means crossover found no node in the second parent
	// governed by the rule picked in the first. The attempt is skipped.
	ErrRuleNotFound = errors.New("exprsearch: no matching rule in second parent")

	// ErrDepthExceeded means a crossover product grew past maxdepth. The
	// attempt is skipped.
	ErrDepthExceeded = errors.New("exprsearch: crossover result exceeds maxdepth")

	// ErrEvaluationFailed wraps a fitness-function failure. The individual
	// gets +Inf fitness and the default expression, and survives selection.
	ErrEvaluationFailed = errors.New("exprsearch: fitness evaluation failed")

	// ErrSamplingExhausted means RandWithRetry hit its retry cap.
	ErrSamplingExhausted = errors.New("exprsearch: sampling retries exhausted")

	// ErrUnproductiveGrammar means the min-depth fixpoint never stabilized
	// for some rule; no finite tree can be derived from it. Fatal at setup.
	ErrUnproductiveGrammar = errors.New("exprsearch: grammar has an unproductive rule")
)
