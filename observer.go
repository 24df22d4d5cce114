package exprsearch

import (
	"os"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer is the event sink drivers report into: one method per event
// family, side-effect only, never consulted for control flow. The zero-cost
// default is NopObserver; compose sinks with Observers.
type Observer interface {
	// Verbose1 carries free-form progress text.
	Verbose1(msg string)
	// Iteration marks the top of driver iteration i.
	Iteration(i int)
	// ElapsedCPU reports wall/cpu seconds spent after nevals evaluations.
	ElapsedCPU(nevals int, seconds float64)
	// CurrentBest reports a (possibly unchanged) best-so-far. The actions
	// slice is nil except for the MCTS variant of the event.
	CurrentBest(nevals int, fitness float64, expr string, actions []int)
	// Fitness reports the best fitness found up to iteration iter.
	Fitness(iter int, fitness float64)
	// Code reports the best expression found up to iteration iter.
	Code(iter int, code string)
	// Population hands over the evaluated GP population of iteration iter.
	Population(iter int, pop GPPopulation)
	// Result reports the final search result.
	Result(r *SearchResult)
	// ComputeInfo reports run metadata: starttime, endtime, hostname,
	// gitSHA, cpu_time.
	ComputeInfo(key string, value any)
	// Parameter echoes one driver parameter.
	Parameter(key string, value any)
	// MCTSTree snapshots the search tree and its best state.
	MCTSTree(i int, tree *SearchTree, state *LinearDerivTree)
}

// NopObserver discards everything. Embed it to implement a partial sink.
type NopObserver struct{}

func (NopObserver) Verbose1(string)                              {}
func (NopObserver) Iteration(int)                                {}
func (NopObserver) ElapsedCPU(int, float64)                      {}
func (NopObserver) CurrentBest(int, float64, string, []int)      {}
func (NopObserver) Fitness(int, float64)                         {}
func (NopObserver) Code(int, string)                             {}
func (NopObserver) Population(int, GPPopulation)                 {}
func (NopObserver) Result(*SearchResult)                         {}
func (NopObserver) ComputeInfo(string, any)                      {}
func (NopObserver) Parameter(string, any)                        {}
func (NopObserver) MCTSTree(int, *SearchTree, *LinearDerivTree)  {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) Verbose1(msg string) {
	for _, s := range o {
		s.Verbose1(msg)
	}
}

func (o Observers) Iteration(i int) {
	for _, s := range o {
		s.Iteration(i)
	}
}

func (o Observers) ElapsedCPU(nevals int, seconds float64) {
	for _, s := range o {
		s.ElapsedCPU(nevals, seconds)
	}
}

func (o Observers) CurrentBest(nevals int, fitness float64, expr string, actions []int) {
	for _, s := range o {
		s.CurrentBest(nevals, fitness, expr, actions)
	}
}

func (o Observers) Fitness(iter int, fitness float64) {
	for _, s := range o {
		s.Fitness(iter, fitness)
	}
}

func (o Observers) Code(iter int, code string) {
	for _, s := range o {
		s.Code(iter, code)
	}
}

func (o Observers) Population(iter int, pop GPPopulation) {
	for _, s := range o {
		s.Population(iter, pop)
	}
}

func (o Observers) Result(r *SearchResult) {
	for _, s := range o {
		s.Result(r)
	}
}

func (o Observers) ComputeInfo(key string, value any) {
	for _, s := range o {
		s.ComputeInfo(key, value)
	}
}

func (o Observers) Parameter(key string, value any) {
	for _, s := range o {
		s.Parameter(key, value)
	}
}

func (o Observers) MCTSTree(i int, tree *SearchTree, state *LinearDerivTree) {
	for _, s := range o {
		s.MCTSTree(i, tree, state)
	}
}

// LogObserver renders events through a logrus logger with structured fields.
type LogObserver struct {
	Log logrus.FieldLogger
}

func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogObserver{Log: log}
}

func (o *LogObserver) Verbose1(msg string) {
	o.Log.Info(msg)
}

func (o *LogObserver) Iteration(i int) {
	o.Log.WithField("i", i).Debug("iteration")
}

func (o *LogObserver) ElapsedCPU(nevals int, seconds float64) {
	o.Log.WithFields(logrus.Fields{"nevals": nevals, "seconds": seconds}).Debug("elapsed_cpu_s")
}

func (o *LogObserver) CurrentBest(nevals int, fitness float64, expr string, actions []int) {
	f := logrus.Fields{"nevals": nevals, "fitness": fitness, "expr": expr}
	if actions != nil {
		f["actions"] = actions
	}
	o.Log.WithFields(f).Info("current_best")
}

func (o *LogObserver) Fitness(iter int, fitness float64) {
	o.Log.WithFields(logrus.Fields{"iter": iter, "fitness": fitness}).Info("fitness")
}

func (o *LogObserver) Code(iter int, code string) {
	o.Log.WithFields(logrus.Fields{"iter": iter, "code": code}).Info("code")
}

func (o *LogObserver) Population(iter int, pop GPPopulation) {
	o.Log.WithFields(logrus.Fields{
		"iter":      iter,
		"size":      len(pop),
		"diversity": pop.Diversity(),
	}).Info("population")
}

func (o *LogObserver) Result(r *SearchResult) {
	o.Log.WithFields(logrus.Fields{
		"fitness":      r.Fitness,
		"expr":         r.ExprStr(),
		"best_at_eval": r.BestAtEval,
		"total_evals":  r.TotalEvals,
	}).Info("result")
}

func (o *LogObserver) ComputeInfo(key string, value any) {
	o.Log.WithFields(logrus.Fields{"key": key, "value": value}).Info("computeinfo")
}

func (o *LogObserver) Parameter(key string, value any) {
	o.Log.WithFields(logrus.Fields{"key": key, "value": value}).Debug("parameters")
}

func (o *LogObserver) MCTSTree(i int, tree *SearchTree, state *LinearDerivTree) {
	o.Log.WithFields(logrus.Fields{
		"i":     i,
		"nodes": tree.Size(),
		"state": state.String(),
	}).Debug("mcts_tree")
}

// emitComputeInfo reports the standard run metadata block. gitSHA comes from
// the binary's embedded VCS stamp when present.
func emitComputeInfo(obs Observer, start, end time.Time) {
	obs.ComputeInfo("starttime", start.Format(time.RFC3339))
	obs.ComputeInfo("endtime", end.Format(time.RFC3339))
	if host, err := os.Hostname(); err == nil {
		obs.ComputeInfo("hostname", host)
	}
	obs.ComputeInfo("gitSHA", vcsRevision())
	obs.ComputeInfo("cpu_time", end.Sub(start).Seconds())
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
