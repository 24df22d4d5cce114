// Command exprsearch runs the search drivers against the arith example
// problem. Driver parameters come from a TOML search config when given,
// with flag overrides for the common knobs.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sisl/exprsearch"
	"github.com/sisl/exprsearch/arith"
)

var (
	configPath string
	toolPath   string
	dbName     string
	target     float64
	seed       int64
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "exprsearch",
		Short: "Grammar-driven expression search over the arith example problem",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML search config path")
	root.PersistentFlags().StringVar(&toolPath, "toolconfig", "", "TOML tool config path (log level, run-log database)")
	root.PersistentFlags().StringVar(&dbName, "db", "", "sqlite run-log database (empty disables persistence)")
	root.PersistentFlags().Float64Var(&target, "target", 9, "target value for the arith fitness")
	root.PersistentFlags().Int64Var(&seed, "seed", 1, "random seed (0 = clock)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(mcCmd(), pmcCmd(), gpCmd(), mctsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *exprsearch.SearchConfig {
	cfg := &exprsearch.SearchConfig{
		MC:   exprsearch.MCParams{MaxSteps: 10, NSamples: 2000},
		PMC:  exprsearch.PMCParams{MC: exprsearch.MCParams{MaxSteps: 10, NSamples: 2000}, NThreads: 4},
		GP:   exprsearch.GPParams{PopSize: 50, MaxDepth: 6, Iterations: 30, TournamentSize: 5, TopKeep: 0.1, CrossoverFrac: 0.5, MutateFrac: 0.3, RandFrac: 0.1, DefaultExpr: "1"},
		MCTS: exprsearch.MCTSParams{MaxSteps: 20, MaxNegReward: -100, NIters: 2000, SearchDepth: 20, ExplorationConst: 100},
	}
	if configPath != "" {
		loaded, err := exprsearch.LoadSearchConfig(configPath)
		if err != nil {
			log.Fatalf("Unable to load search config: %v", err)
		}
		cfg = loaded
	}
	return cfg
}

// observers wires up the logrus sink and, when a run-log database is
// configured (--db or the tool config), the sqlite run log. The returned
// closer finalizes the run row.
func observers(driver string) (exprsearch.Observer, func()) {
	rlConfig := &exprsearch.RunLogConfig{Name: dbName}
	if toolPath != "" {
		tc, err := exprsearch.LoadToolConfig(toolPath)
		if err != nil {
			log.Fatalf("Unable to load tool config: %v", err)
		}
		if tc.LogLevel != "" {
			level, err := log.ParseLevel(tc.LogLevel)
			if err != nil {
				log.Fatalf("Bad log level %q: %v", tc.LogLevel, err)
			}
			log.SetLevel(level)
		}
		if dbName == "" && tc.RunLog != nil {
			rlConfig = tc.RunLog
		}
	}

	obs := exprsearch.Observers{exprsearch.NewLogObserver(log.StandardLogger())}
	closer := func() {}
	if rlConfig.Name != "" {
		rl, err := exprsearch.NewRunLog(rlConfig, driver)
		if err != nil {
			log.Fatalf("Unable to open run log: %v", err)
		}
		obs = append(obs, rl)
		closer = func() {
			if err := rl.Shutdown(); err != nil {
				log.Errorf("run log shutdown: %v", err)
			}
		}
	}
	return obs, closer
}

func report(r *exprsearch.SearchResult, err error) {
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	fmt.Printf("best expression: %s\n", r.ExprStr())
	fmt.Printf("fitness:         %g\n", r.Fitness)
	fmt.Printf("found at eval:   %d of %d\n", r.BestAtEval, r.TotalEvals)
}

func mcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mc",
		Short: "Uniform Monte Carlo baseline",
		Run: func(cmd *cobra.Command, args []string) {
			params := loadConfig().MC
			params.Seed = seed
			obs, closer := observers(exprsearch.DriverMC)
			defer closer()
			report(exprsearch.MCSearch(&params, arith.NewProblem(target), obs))
		},
	}
}

func pmcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pmc",
		Short: "Parallel Monte Carlo",
		Run: func(cmd *cobra.Command, args []string) {
			params := loadConfig().PMC
			params.MC.Seed = seed
			obs, closer := observers(exprsearch.DriverPMC)
			defer closer()
			report(exprsearch.PMCSearch(&params, arith.NewProblem(target), obs))
		},
	}
}

func gpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gp",
		Short: "Genetic programming",
		Run: func(cmd *cobra.Command, args []string) {
			params := loadConfig().GP
			params.Seed = seed
			obs, closer := observers(exprsearch.DriverGP)
			defer closer()
			report(exprsearch.GPSearch(&params, arith.NewProblem(target), obs))
		},
	}
}

func mctsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcts",
		Short: "Monte Carlo tree search over the derivation MDP",
		Run: func(cmd *cobra.Command, args []string) {
			params := loadConfig().MCTS
			params.Seed = seed
			obs, closer := observers(exprsearch.DriverMCTS)
			defer closer()
			report(exprsearch.MCTSSearch(&params, arith.NewProblem(target), obs))
		},
	}
}
