package exprsearch

import (
	"math/rand"
	"time"
)

const (
	// DEBUG gates chatty per-attempt tracing in hot loops.
	DEBUG = false

	// DefaultRetries caps RandWithRetry and the GP operator retry loops.
	DefaultRetries = 100
)

// Driver names, used as event tags and run-log keys.
const (
	DriverMC   = "mc"
	DriverPMC  = "pmc"
	DriverGP   = "gp"
	DriverMCTS = "mcts"
)

// newRand builds a driver-owned random source. Seed 0 falls back to the
// clock (non-deterministic); any other seed gives reproducible runs. Each
// driver holds its own *rand.Rand; there is no package-level source, and
// parallel MC derives worker seeds from the master seed by offset.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
