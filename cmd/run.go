/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/josephgoksu/causalfuse/internal/config"
	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/internal/pipeline"
	"github.com/josephgoksu/causalfuse/internal/ui"
	"github.com/josephgoksu/causalfuse/internal/util"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type runOptions struct {
	configPath     string
	lr             float64
	l2             float64
	batchSize      int
	combinerLR     float64
	combinerEpochs int
	alpha          int
	logPath        string
	logBase        string
	runID          string
	report         bool
}

var runOpts = runOptions{logBase: config.DefaultLogBase}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate, fuse and train across the configured sweep",
	Long: `Run loads the dataset named by the config, invokes every active estimator,
fuses their estimates at each sweep point (vote thresholds or search
checkpoints), trains on each distinct selected node set and reports the
candidate with the best validation score.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		summary, err := executeRun(ctx, afero.NewOsFs(), runOpts, overridesFromFlags(cmd), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), summary, runOpts.report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVarP(&runOpts.configPath, "config", "c", "", "run config file (YAML)")
	f.Float64VarP(&runOpts.lr, "learning-rate", "l", 0, "override opt.lr")
	f.Float64Var(&runOpts.l2, "l2", 0, "override opt.l2")
	f.IntVarP(&runOpts.batchSize, "batch-size", "b", 0, "override data.batch_size")
	f.Float64Var(&runOpts.combinerLR, "combiner-lr", 0, "override opt.comnivore_v.snorkel_lr")
	f.IntVar(&runOpts.combinerEpochs, "combiner-epochs", 0, "override opt.comnivore_v.snorkel_ep")
	f.IntVarP(&runOpts.alpha, "alpha", "a", 0, "override model.alpha")
	f.StringVar(&runOpts.logPath, "log-path", "", "log directory suffix under log/")
	f.StringVar(&runOpts.runID, "run-id", "", "use this run ID (run-<8 hex>) instead of a random one")
	f.BoolVar(&runOpts.report, "report", true, "print the candidate table after the run")
	_ = runCmd.MarkFlagRequired("config")
}

// overridesFromFlags returns only the overrides the user actually passed.
func overridesFromFlags(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	f := cmd.Flags()
	if f.Changed("learning-rate") {
		o.LR = &runOpts.lr
	}
	if f.Changed("l2") {
		o.L2 = &runOpts.l2
	}
	if f.Changed("batch-size") {
		o.BatchSize = &runOpts.batchSize
	}
	if f.Changed("combiner-lr") {
		o.CombinerLR = &runOpts.combinerLR
	}
	if f.Changed("combiner-epochs") {
		o.CombinerEpochs = &runOpts.combinerEpochs
	}
	if f.Changed("alpha") {
		o.Alpha = &runOpts.alpha
	}
	return o
}

// executeRun loads the config and dataset through fs and runs the pipeline.
func executeRun(ctx context.Context, fs afero.Fs, opts runOptions, overrides config.Overrides, console io.Writer) (*pipeline.Summary, error) {
	cfg, err := config.NewLoader(fs).Load(opts.configPath, overrides)
	if err != nil {
		return nil, err
	}

	id := util.NewRunID()
	if opts.runID != "" {
		if id, err = util.ParseRunID(opts.runID); err != nil {
			return nil, types.Configf("--run-id: %w", err)
		}
	}
	crash := logger.NewCrashReporter(fs, GetVersion(), "run")
	crash.SetRunID(id)
	crash.SetBasePath(opts.logBase)
	defer crash.HandlePanic()

	dir := logger.RunDir(opts.logBase, opts.logPath, cfg.Data.Dataset.Name, cfg.Model.Fuser, time.Now())
	rc, err := logger.NewRunContext(fs, logger.Options{
		ID:      id,
		Tasks:   cfg.Data.Dataset.Tasks,
		Seed:    cfg.Seed,
		Dir:     dir,
		Console: console,
		Verbose: viper.GetBool("verbose"),
		Crash:   crash,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	rc.Log.Info("run started", "dir", dir, "version", GetVersion())

	rc.Stage("load")
	store, err := dataset.NewLoader(fs).Load(dataset.LayoutFromConfig(cfg.Data.Dataset))
	if err != nil {
		return nil, types.NewStageError(types.ErrMaterialization, "load", cfg.Data.Dataset.Name, err)
	}

	return pipeline.Run(ctx, rc, cfg, pipeline.NewDeps(cfg, store))
}

func printSummary(w io.Writer, s *pipeline.Summary, report bool) {
	if report && ui.IsInteractive() {
		fmt.Fprint(w, ui.RenderRun(s))
		return
	}
	for _, line := range s.Lines() {
		fmt.Fprintln(w, line)
	}
}
