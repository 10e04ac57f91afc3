// Package pipeline drives one run end to end: estimate, optionally train the
// baseline and individual passes, fuse across the sweep axis, train each new
// candidate and select the best by validation score.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/bridge"
	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/fusion"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/internal/sweep"
	"github.com/josephgoksu/causalfuse/internal/trainer"
	"github.com/josephgoksu/causalfuse/types"
)

// Deps are the collaborators of a run. Vote and Search, when nil, are built
// from the configured backend.
type Deps struct {
	Store    *dataset.SampleStore
	Resolver estimator.Resolver
	Trainer  trainer.Trainer
	Worker   *bridge.Runner

	Vote   func(c *estimator.Collection) fusion.VoteEngine
	Search func(c *estimator.Collection) fusion.SearchEngine
}

// NewDeps wires the default collaborators for cfg: the native estimator pool
// falling back to a worker when one is configured, and the loom MLP trainer.
func NewDeps(cfg *types.RunConfig, store *dataset.SampleStore) Deps {
	deps := Deps{Store: store, Trainer: trainer.MLP{}}
	var fallback estimator.Estimator
	if len(cfg.Worker.Command) > 0 {
		deps.Worker = bridge.NewRunner(cfg.Worker.Command).WithEnv(cfg.Worker.Env...)
		deps.Worker.WorkDir = cfg.Worker.WorkDir
		if cfg.Worker.Timeout > 0 {
			deps.Worker = deps.Worker.WithTimeout(cfg.Worker.Timeout)
		}
		fallback = &estimator.WorkerEstimator{Runner: deps.Worker, Dataset: wireDataset(cfg.Data.Dataset)}
	}
	deps.Resolver = estimator.NewPool(fallback)
	return deps
}

func wireDataset(ds types.DatasetConfig) bridge.Dataset {
	return bridge.Dataset{
		Name:        ds.Name,
		LoadPath:    ds.LoadPath,
		NOrig:       ds.NOrigFeatures,
		NumFeatures: ds.NPCAFeatures,
		Tasks:       ds.Tasks,
	}
}

// Run executes the pipeline described by cfg. On success the summary is also
// written to results.yaml in the run directory.
func Run(ctx context.Context, rc *logger.RunContext, cfg *types.RunConfig, deps Deps) (*Summary, error) {
	if deps.Store == nil || deps.Resolver == nil || deps.Trainer == nil {
		return nil, types.Configf("pipeline needs a sample store, an estimator resolver and a trainer")
	}
	logConfig(rc, cfg)

	plan, err := estimator.PlanFromConfig(cfg.Model)
	if err != nil {
		return nil, err
	}
	collection, err := estimator.BuildCollection(ctx, rc, deps.Resolver, deps.Store, plan)
	if err != nil {
		return nil, err
	}

	r := &runner{rc: rc, cfg: cfg, deps: deps, score: trainer.ScoringFor(cfg.Data.Dataset.Name)}
	summary := &Summary{
		RunID:    rc.ID,
		Dataset:  cfg.Data.Dataset.Name,
		Scoring:  trainer.Family(cfg.Data.Dataset.Name),
		Fuser:    cfg.Model.Fuser,
		Strategy: cfg.Model.Strategy(),
		Seed:     rc.Seed,
	}

	if cfg.Pipeline.Baseline {
		rc.Log.Info("Training baseline....")
		_, scores, err := r.trainFused(ctx, "baseline", nil)
		if err != nil {
			return nil, err
		}
		rc.Log.Info("baseline", "test", scores.Test)
		summary.Baseline = &scores
	}

	if cfg.Pipeline.IndivTraining {
		rc.Log.Info("Training using individual LF estimates...")
		for _, name := range collection.Names() {
			rc.Log.Info(name)
			estimate, _ := collection.Get(name)
			nodes, scores, err := r.trainFused(ctx, "indiv:"+name, estimate)
			if err != nil {
				return nil, err
			}
			summary.Individual = append(summary.Individual, Individual{Name: name, Nodes: nodes, Scores: scores})
		}
	}

	rc.Log.Info("Training with fused causal estimates...")
	rc.Log.Info("FUSE ALGORITHM: " + cfg.Model.Fuser)

	stage, err := r.stage(ctx, collection)
	if err != nil {
		return nil, err
	}
	out, err := sweep.Run(ctx, rc, stage)
	if err != nil {
		return nil, err
	}

	best, ok := out.Results.Select()
	if !ok {
		return nil, types.NewStageError(types.ErrFusionFailure, "select", cfg.Model.Fuser, fmt.Errorf("no trained candidate has a comparable validation score"))
	}
	summary.Candidates = out.Results.Entries()
	summary.Best = best
	summary.Points = len(stage.Points)
	summary.Trained = out.Trained
	summary.Skipped = out.Skipped

	rc.Log.Info("best candidate", "key", best.Key, "val", best.Validation, "test", best.Test, "nodes", best.Nodes.Fingerprint().String())
	if err := writeSummary(rc, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func logConfig(rc *logger.RunContext, cfg *types.RunConfig) {
	rc.Log.Info("log_config",
		"dataset", cfg.Data.Dataset.Name,
		"tasks", cfg.Data.Dataset.Tasks,
		"fuser", cfg.Model.Fuser,
		"backend", cfg.Model.Backend,
		"lr", cfg.Opt.LR,
		"l2", cfg.Opt.L2,
		"batch_size", cfg.Data.BatchSize,
		"alpha", cfg.Model.Alpha,
		"epochs", cfg.Opt.Epochs,
		"seed", cfg.Seed,
	)
}

type runner struct {
	rc    *logger.RunContext
	cfg   *types.RunConfig
	deps  Deps
	score trainer.ScoreFunc
}

func (r *runner) options() trainer.Options {
	return trainer.Options{
		Epochs:    r.cfg.Opt.Epochs,
		LR:        r.cfg.Opt.LR,
		L2:        r.cfg.Opt.L2,
		BatchSize: r.cfg.Data.BatchSize,
		Alpha:     r.cfg.Model.Alpha,
		LogFreq:   r.cfg.Utils.LogFreq,
	}
}

func (r *runner) train(ctx context.Context, t *dataset.Tensors) (sweep.Scores, error) {
	res, err := r.deps.Trainer.Train(ctx, r.rc, trainer.Input{Tensors: t, Options: r.options(), Score: r.score})
	if err != nil {
		return sweep.Scores{}, err
	}
	return sweep.Scores{Validation: res.Validation, Test: res.Test}, nil
}

// trainFused trains one fixed structure outside the sweep.
func (r *runner) trainFused(ctx context.Context, name string, fused graph.PerTask) (graph.NodeSet, sweep.Scores, error) {
	r.rc.Stage(name)
	t, nodes, err := dataset.Materialize(r.deps.Store, fused)
	if err != nil {
		return nil, sweep.Scores{}, wrap(err, types.ErrMaterialization, "materialize", name)
	}
	scores, err := r.train(ctx, t)
	if err != nil {
		return nil, sweep.Scores{}, wrap(err, types.ErrTraining, "train", name)
	}
	return nodes, scores, nil
}

func (r *runner) stage(ctx context.Context, c *estimator.Collection) (sweep.Stage[*dataset.Tensors], error) {
	tasks := r.cfg.Data.Dataset.Tasks
	numFeatures := r.deps.Store.NumFeatures
	stage := sweep.Stage[*dataset.Tensors]{
		Materialize: func(fused graph.PerTask) (*dataset.Tensors, graph.NodeSet, error) {
			return dataset.Materialize(r.deps.Store, fused)
		},
		Train: func(ctx context.Context, _ sweep.Point, t *dataset.Tensors) (sweep.Scores, error) {
			return r.train(ctx, t)
		},
	}
	if r.cfg.Utils.RenderGraphs {
		stage.OnFused = func(p sweep.Point, fused graph.PerTask) error {
			return r.rc.WriteGraphs(fmt.Sprintf("%s_%s", r.cfg.Model.Strategy(), p.Key), fused)
		}
	}

	switch r.cfg.Model.Strategy() {
	case types.StrategyVote:
		vc := r.cfg.Opt.ComnivoreV
		points, err := sweep.VoteAxisFromRange(vc.AllNegativeBalance)
		if err != nil {
			return stage, types.Configf("vote axis: %w", err)
		}
		r.rc.Log.Info(fmt.Sprintf("SNORKEL PARAMS: lr %v | ep %v", vc.SnorkelLR, vc.SnorkelEpochs))
		engine := fusion.GuardVote(c, tasks, numFeatures, r.voteEngine(c))
		stage.Points = points
		stage.Header = func(p sweep.Point) string { return fmt.Sprintf("###### %s ######", p.Key) }
		stage.Fuse = func(ctx context.Context, p sweep.Point) (graph.PerTask, error) {
			return engine.Fuse(ctx, p.Value)
		}

	case types.StrategySearch:
		params := searchParams(r.cfg.Opt.ComnivoreG)
		points, err := sweep.SearchAxis(params)
		if err != nil {
			return stage, types.Configf("search axis: %w", err)
		}
		engine := fusion.GuardSearch(c, tasks, numFeatures, params, r.searchEngine(c, params))
		trajectory, err := engine.Trajectory(ctx)
		if err != nil {
			return stage, err
		}
		stage.Points = points
		stage.Header = func(p sweep.Point) string { return fmt.Sprintf("##### ITER: %s #####", p.Key) }
		stage.Fuse = func(_ context.Context, p sweep.Point) (graph.PerTask, error) {
			return trajectory.At(tasks, p.Index), nil
		}

	default:
		return stage, types.Configf("unknown fuser %q", r.cfg.Model.Fuser)
	}
	return stage, nil
}

func searchParams(g types.SearchConfig) fusion.SearchParams {
	return fusion.SearchParams{NTriplets: g.NTriplets, MinIters: g.MinIters, MaxIters: g.MaxIters, Step: g.Step}
}

func (r *runner) voteEngine(c *estimator.Collection) fusion.VoteEngine {
	if r.deps.Vote != nil {
		return r.deps.Vote(c)
	}
	params := fusion.VoteParams{LR: r.cfg.Opt.ComnivoreV.SnorkelLR, Epochs: r.cfg.Opt.ComnivoreV.SnorkelEpochs}
	if r.useWorker() {
		return &fusion.WorkerVote{Runner: r.deps.Worker, Collection: c, Tasks: r.cfg.Data.Dataset.Tasks, Params: params, Seed: r.rc.Seed}
	}
	return fusion.NewNativeVote(c, r.cfg.Data.Dataset.Tasks, params)
}

func (r *runner) searchEngine(c *estimator.Collection, params fusion.SearchParams) fusion.SearchEngine {
	if r.deps.Search != nil {
		return r.deps.Search(c)
	}
	if r.useWorker() {
		return &fusion.WorkerSearch{Runner: r.deps.Worker, Collection: c, Tasks: r.cfg.Data.Dataset.Tasks, Params: params, Seed: r.rc.Seed}
	}
	return fusion.NewNativeSearch(c, r.cfg.Data.Dataset.Tasks, params, r.rc.Seed+1)
}

func (r *runner) useWorker() bool {
	return r.cfg.Model.Backend == "worker" && r.deps.Worker != nil
}

func wrap(err, kind error, stage, name string) error {
	var se *types.StageError
	if errors.As(err, &se) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return types.NewStageError(kind, stage, name, err)
}
