package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/airgap-labs/wiresim/internal/config"
	"github.com/airgap-labs/wiresim/internal/logging"
	"github.com/airgap-labs/wiresim/internal/metrics"
	"github.com/airgap-labs/wiresim/internal/report"
	"github.com/airgap-labs/wiresim/internal/tui"
	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

var (
	dryRun          bool
	interactive     bool
	metricsAddr     string
	propagationFlag string
	simulatorFlag   string
	persistenceFlag float64
)

// metricsStepFraction splits the horizon into this many chunks between
// metrics refreshes when a metrics endpoint is active.
const metricsStepFraction = 200

var runCmd = &cobra.Command{
	Use:   "run <config.json>",
	Short: "Run a single simulation to completion",
	Long: `Run one simulation described by the given configuration file and
write its CSV event log.

The --propagation, --simulator, and --persistence flags override the
corresponding configuration fields. Use --dry-run to validate the
configuration without scheduling any events.

Use --interactive or -i to watch the run in a live TUI dashboard.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without running the simulation")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run with interactive TUI")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve live Prometheus metrics on this address during the run (e.g. :9091)")
	runCmd.Flags().StringVar(&propagationFlag, "propagation", "", "override the propagation model (original, realistic)")
	runCmd.Flags().StringVar(&simulatorFlag, "simulator", "", "override the MAC variant (aloha, trivial, simple)")
	runCmd.Flags().Float64Var(&persistenceFlag, "persistence", 0, "override the p-persistence value")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}

	// For interactive mode, reduce log noise so zap doesn't fight the TUI
	if interactive {
		logCfg.Format = "text"
		logCfg.Level = "error"
	}

	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Nodes:       %d\n", len(cfg.Simulation.Nodes))
		fmt.Printf("  Simulator:   %s\n", cfg.Simulation.Simulator)
		fmt.Printf("  Propagation: %s\n", cfg.Simulation.Propagation)
		fmt.Printf("  Duration:    %gs\n", cfg.Simulation.Duration)
		fmt.Printf("  Output:      %s\n", cfg.OutputPath())
		return nil
	}

	summary, err := execute(cfg)
	if err != nil {
		diagnose(err)
		return err
	}

	return publish(cfg, summary)
}

// applyOverrides folds the run command's override flags into cfg, matching
// the original tooling's habit of deriving per-variant configurations from
// one base file.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("propagation") {
		cfg.Simulation.Propagation = propagationFlag
	}
	if cmd.Flags().Changed("simulator") {
		cfg.Simulation.Simulator = simulatorFlag
	}
	if cmd.Flags().Changed("persistence") {
		p := persistenceFlag
		cfg.Simulation.Persistence = &p
	}
}

// execute builds and drives one simulation, returning its summary.
func execute(cfg *config.Config) (report.Summary, error) {
	simCfg, err := cfg.ToSimConfig()
	if err != nil {
		return report.Summary{}, err
	}

	outPath := cfg.OutputPath()
	simLog, err := wiresim.NewLog(outPath)
	if err != nil {
		return report.Summary{}, err
	}
	defer func() {
		if err := simLog.Close(); err != nil {
			logging.Error("Failed to close log", zap.Error(err))
		}
	}()

	sim, err := wiresim.New(simCfg, simLog)
	if err != nil {
		return report.Summary{}, err
	}

	var exporter *metrics.Exporter
	if metricsAddr != "" {
		exporter = metrics.New(metricsAddr)
		defer func() {
			if err := exporter.Close(); err != nil {
				logging.Error("Failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	logging.Info("Starting simulation",
		zap.String("simulator", cfg.Simulation.Simulator),
		zap.String("propagation", cfg.Simulation.Propagation),
		zap.Int("nodes", len(cfg.Simulation.Nodes)),
		zap.Float64("duration", cfg.Simulation.Duration),
		zap.String("output", outPath))

	switch {
	case interactive:
		if err := tui.Run(sim); err != nil {
			return report.Summary{}, err
		}
		if err := sim.Finish(); err != nil {
			return report.Summary{}, err
		}
	case exporter != nil:
		sim.Start()
		step := sim.Duration() / metricsStepFraction
		for target := step; ; target += step {
			if err := sim.StepUntil(target); err != nil {
				return report.Summary{}, err
			}
			exporter.Observe(sim)
			if target >= sim.Duration() {
				break
			}
		}
		if err := sim.Finish(); err != nil {
			return report.Summary{}, err
		}
	default:
		if err := sim.Run(); err != nil {
			return report.Summary{}, err
		}
	}

	logging.Info("Simulation finished", zap.Float64("sim_time", sim.Duration()))
	return summarize(cfg, sim), nil
}

// summarize computes the derived metrics for every node the log holds
// counters for: any node that generated, dropped, or heard at least one
// frame.
func summarize(cfg *config.Config, sim *wiresim.Simulator) report.Summary {
	s := report.Summary{
		Output:      cfg.OutputPath(),
		Propagation: cfg.Simulation.Propagation,
		Simulator:   cfg.Simulation.Simulator,
		Persistence: cfg.Simulation.Persistence,
		Seed:        cfg.Simulation.Seed,
		Lambda:      cfg.Lambda(),
		SimTime:     sim.Duration(),
	}
	for _, dst := range sim.Log().Destinations() {
		s.Metrics = append(s.Metrics, sim.Log().DerivedMetrics(dst, sim.Duration()))
	}
	return s
}

// publish hands the summary to every configured reporter. A reporter
// failure is logged, never fatal: the CSV log is already on disk.
func publish(cfg *config.Config, summary report.Summary) error {
	reporters, err := report.New(cfg.Simulation.Report)
	if err != nil {
		logging.Error("Failed to build reporters", zap.Error(err))
		return nil
	}
	ctx := context.Background()
	for _, r := range reporters {
		if err := r.Publish(ctx, summary); err != nil {
			logging.Error("Reporter failed", zap.String("reporter", r.Name()), zap.Error(err))
		}
		if err := r.Close(); err != nil {
			logging.Error("Failed to close reporter", zap.String("reporter", r.Name()), zap.Error(err))
		}
	}
	return nil
}

// diagnose logs the detail an aborted run leaves behind. An invariant
// violation names the node, state, and event kind that hit it.
func diagnose(err error) {
	var iv *wiresim.InvariantViolation
	if errors.As(err, &iv) {
		logging.Error("Invariant violation",
			zap.Int("node", iv.NodeID),
			zap.String("state", iv.State.String()),
			zap.String("event", iv.Op),
			zap.String("detail", iv.Detail))
		return
	}
	logging.Error("Simulation failed", zap.Error(err))
}
