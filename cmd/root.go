package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/routing-sim/routing-sim/sim"
	"github.com/routing-sim/routing-sim/sim/trace"
	"github.com/routing-sim/routing-sim/sim/workload"
)

var (
	scenarioPath string // Path to the YAML scenario spec
	duration     int64  // Virtual ticks to simulate (0 = run to exhaustion)
	logLevel     string // Log verbosity level
	seed         int64  // Seed override (0 = use the spec's seed)
	recordPath   string // SQLite recording output path ("" = no recording)
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "routing-sim",
	Short: "Deterministic virtual-time load simulator for request routing",
}

// runCmd executes one scenario from a YAML spec.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a routing simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatal("No scenario spec provided. Exiting simulation.")
		}
		spec, err := workload.LoadSpec(scenarioPath)
		if err != nil {
			logrus.Fatalf("unable to read scenario spec: %v", err)
		}
		if seed != 0 {
			spec.Seed = seed
		}

		logrus.Infof("Starting simulation: service=%s destinations=%d interval=%d seed=%d",
			spec.Service.Name, len(spec.Destinations), spec.Interval, spec.Seed)

		s, err := sim.FromSpec(spec)
		if err != nil {
			logrus.Fatalf("unable to build simulator: %v", err)
		}

		// The repeating driver never exhausts the queue on its own, so an
		// unset duration falls back to the scenario's horizon.
		if duration == 0 {
			duration = spec.Horizon
		}

		if recordPath != "" {
			rec, err := trace.NewRecorder(recordPath)
			if err != nil {
				logrus.Fatalf("unable to open recorder: %v", err)
			}
			defer rec.Close()
			s.AttachRecorder(rec)
		}

		if err := s.RunWait(duration); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}

		printResults(s, spec)

		if err := s.Shutdown(); err != nil {
			logrus.Fatalf("shutdown failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

func printResults(s *sim.Simulator, spec *workload.Spec) {
	summary := s.Trace().Summarize()
	fmt.Printf("ended at tick %d after %d firings, %d requests issued\n",
		s.Clock().Now(), summary.Firings, summary.TotalRequests)

	counters := s.ClientCounters()
	dests := make([]string, 0, len(counters))
	for dest := range counters {
		dests = append(dests, dest)
	}
	sort.Strings(dests)
	fmt.Println("last interval:")
	for _, dest := range dests {
		fmt.Printf("  %-40s hits=%-6d share=%.3f points=%d\n",
			dest, counters[dest], s.CountPercent(dest), s.Point(spec.Service.Name, 0, dest))
	}

	shares := make([]string, 0, len(summary.Share))
	for dest := range summary.Share {
		shares = append(shares, dest)
	}
	sort.Strings(shares)
	fmt.Println("whole run:")
	for _, dest := range shares {
		fmt.Printf("  %-40s share=%.3f\n", dest, summary.Share[dest])
	}
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands.
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the YAML scenario spec")
	runCmd.Flags().Int64Var(&duration, "duration", 0, "Virtual ticks to simulate (0 = scenario horizon, or run until no work remains)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Override the scenario seed")
	runCmd.Flags().StringVar(&recordPath, "record", "", "Record interval observations to <path>.sqlite3")

	rootCmd.AddCommand(runCmd)
}
