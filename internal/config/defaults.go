// Package config loads, defaults and validates run configuration.
package config

import (
	"time"

	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CAUSALFUSE_OPT_LR.
	EnvPrefix = "CAUSALFUSE"

	// DefaultSeed seeds a run whose config omits seed.
	DefaultSeed = 2022

	// DefaultBackend runs fusion engines in process.
	DefaultBackend = "native"

	// DefaultLogBase is the root of run log directories.
	DefaultLogBase = "log"

	// DefaultWorkerTimeout bounds one worker call.
	DefaultWorkerTimeout = 30 * time.Minute
)

// requiredKeys must be present in the file (or environment); defaults do not
// satisfy them.
var requiredKeys = []string{
	"data.batch_size",
	"data.dataset.dataset_name",
	"data.dataset.load_path",
	"data.dataset.n_orig_features",
	"data.dataset.n_pca_features",
	"data.dataset.tasks",
	"model.fuser",
	"model.alpha",
	"model.active_lfs.notears",
	"model.active_lfs.classic",
	"model.active_lfs.pycausal",
	"opt.epochs",
	"opt.lr",
	"opt.l2",
	"pipeline.baseline",
	"pipeline.indiv_training",
	"utils.log_freq",
}

// strategyKeys are required only when the fuser selects that strategy.
var strategyKeys = map[types.Strategy][]string{
	types.StrategyVote: {
		"opt.comnivore_v.all_negative_balance",
		"opt.comnivore_v.snorkel_lr",
		"opt.comnivore_v.snorkel_ep",
	},
	types.StrategySearch: {
		"opt.comnivore_g.n_triplets",
		"opt.comnivore_g.min_iters",
		"opt.comnivore_g.max_iters",
		"opt.comnivore_g.step",
	},
}

// missingKeys lists the required keys v does not set. Strategy keys are only
// checked once the fuser itself is present.
func missingKeys(v *viper.Viper) []string {
	keys := requiredKeys
	if v.IsSet("model.fuser") {
		strategy := types.ModelConfig{Fuser: v.GetString("model.fuser")}.Strategy()
		keys = append(append([]string(nil), keys...), strategyKeys[strategy]...)
	}
	var missing []string
	for _, key := range keys {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", DefaultSeed)
	v.SetDefault("model.backend", DefaultBackend)
	v.SetDefault("utils.render_graphs", false)
	v.SetDefault("worker.timeout", DefaultWorkerTimeout)
}
