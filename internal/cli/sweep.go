package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/airgap-labs/wiresim/internal/config"
	"github.com/airgap-labs/wiresim/internal/logging"
	"github.com/airgap-labs/wiresim/internal/report"
	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

var (
	sweepLambdas  []float64
	sweepSeeds    []int64
	sweepParallel int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <config.json>",
	Short: "Run the simulation across several offered loads and seeds",
	Long: `Run the cross product of --lambda values and --seeds off one base
configuration, one simulation per combination, each writing its own CSV.

Each lambda value replaces the interarrival distribution with an
exponential of mean 1/lambda; each seed replaces the base seed. Runs are
independent simulations executed concurrently up to --parallel at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Float64SliceVar(&sweepLambdas, "lambda", nil, "offered loads in packets/second (e.g. 50,100,200)")
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", []int64{1}, "RNG seeds to run per lambda")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", runtime.NumCPU(), "maximum simulations running at once")
	sweepCmd.Flags().StringVar(&propagationFlag, "propagation", "", "override the propagation model (original, realistic)")
	sweepCmd.Flags().StringVar(&simulatorFlag, "simulator", "", "override the MAC variant (aloha, trivial, simple)")
	sweepCmd.Flags().Float64Var(&persistenceFlag, "persistence", 0, "override the p-persistence value")
}

func runSweep(cmd *cobra.Command, args []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	base, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cmd, base)

	if len(sweepLambdas) == 0 {
		return fmt.Errorf("at least one --lambda value is required")
	}
	if sweepParallel < 1 {
		return fmt.Errorf("--parallel must be at least 1")
	}

	type combo struct {
		lambda float64
		seed   int64
	}
	var combos []combo
	for _, lambda := range sweepLambdas {
		if lambda <= 0 {
			return fmt.Errorf("lambda must be positive, got %v", lambda)
		}
		for _, seed := range sweepSeeds {
			combos = append(combos, combo{lambda: lambda, seed: seed})
		}
	}

	logging.Info("Starting sweep",
		zap.Int("runs", len(combos)),
		zap.Int("parallel", sweepParallel))

	summaries := make([]report.Summary, len(combos))
	var g errgroup.Group
	g.SetLimit(sweepParallel)
	for i, c := range combos {
		g.Go(func() error {
			cfg := *base
			cfg.Simulation.Seed = c.seed
			cfg.Simulation.Interarrival = wiresim.DistributionSpec{
				Kind: "exponential",
				Mean: 1 / c.lambda,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := execute(&cfg)
			if err != nil {
				diagnose(err)
				return fmt.Errorf("lambda=%g seed=%d: %w", c.lambda, c.seed, err)
			}
			summaries[i] = summary

			logging.Info("Run finished",
				zap.Float64("lambda", c.lambda),
				zap.Int64("seed", c.seed),
				zap.String("output", summary.Output))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Publish in combo order once all runs are done, so summaries don't
	// interleave on stdout.
	stdout := report.NewStdout()
	ctx := context.Background()
	for _, s := range summaries {
		if err := stdout.Publish(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
