/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import "time"

// Strategy names the fusion strategy active for a run.
type Strategy string

const (
	StrategyVote   Strategy = "vote"
	StrategySearch Strategy = "search"
)

// TaskSet is the ordered list of prediction targets for a run.
type TaskSet []string

// RunConfig represents the complete configuration of one fusion run.
type RunConfig struct {
	Seed     int64          `mapstructure:"seed"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Opt      OptConfig      `mapstructure:"opt" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Utils    UtilsConfig    `mapstructure:"utils"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// DataConfig holds dataset identity and loader settings.
type DataConfig struct {
	BatchSize int           `mapstructure:"batch_size" validate:"required,min=1"`
	Dataset   DatasetConfig `mapstructure:"dataset" validate:"required"`
}

// DatasetConfig identifies the dataset directory and its dimensionality.
type DatasetConfig struct {
	Name          string  `mapstructure:"dataset_name" validate:"required"`
	LoadPath      string  `mapstructure:"load_path" validate:"required"`
	NOrigFeatures int     `mapstructure:"n_orig_features" validate:"required,min=1"`
	NPCAFeatures  int     `mapstructure:"n_pca_features" validate:"required,min=1"`
	Tasks         TaskSet `mapstructure:"tasks" validate:"required,min=1,unique,dive,required"`
}

// ModelConfig selects the fuser, its backend and the weak estimators.
type ModelConfig struct {
	Fuser   string `mapstructure:"fuser" validate:"required,oneof=vote search COmnivore_V COmnivore_G"`
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=native worker"`
	// Alpha is the hidden width of the end model.
	Alpha      int                       `mapstructure:"alpha" validate:"required,min=1"`
	ActiveLFs  ActiveLFs                 `mapstructure:"active_lfs"`
	LFSettings map[string]map[string]any `mapstructure:"lf_settings"`
}

// Strategy maps the configured fuser (including the legacy names) to a Strategy.
func (m ModelConfig) Strategy() Strategy {
	switch m.Fuser {
	case "search", "COmnivore_G":
		return StrategySearch
	default:
		return StrategyVote
	}
}

// ActiveLFs lists the configured estimator names per family.
type ActiveLFs struct {
	Notears  []string `mapstructure:"notears"`
	Classic  []string `mapstructure:"classic"`
	Pycausal []string `mapstructure:"pycausal"`
}

// OptConfig holds end-model optimizer settings and fuser hyperparameters.
type OptConfig struct {
	Epochs     int          `mapstructure:"epochs" validate:"required,min=1"`
	LR         float64      `mapstructure:"lr" validate:"gt=0"`
	L2         float64      `mapstructure:"l2" validate:"gte=0"`
	ComnivoreV VoteConfig   `mapstructure:"comnivore_v"`
	ComnivoreG SearchConfig `mapstructure:"comnivore_g"`
}

// VoteConfig holds Vote Fusion's threshold range and combiner settings.
type VoteConfig struct {
	// AllNegativeBalance is the [start, stop, step) threshold range.
	AllNegativeBalance []float64 `mapstructure:"all_negative_balance"`
	SnorkelLR          float64   `mapstructure:"snorkel_lr"`
	SnorkelEpochs      int       `mapstructure:"snorkel_ep"`
}

// SearchConfig holds Search Fusion's iteration checkpoints.
type SearchConfig struct {
	NTriplets int `mapstructure:"n_triplets"`
	MinIters  int `mapstructure:"min_iters"`
	MaxIters  int `mapstructure:"max_iters"`
	Step      int `mapstructure:"step"`
}

// PipelineConfig toggles the comparison passes.
type PipelineConfig struct {
	Baseline      bool `mapstructure:"baseline"`
	IndivTraining bool `mapstructure:"indiv_training"`
}

// UtilsConfig holds logging settings.
type UtilsConfig struct {
	LogFreq      int  `mapstructure:"log_freq" validate:"required,min=1"`
	RenderGraphs bool `mapstructure:"render_graphs"`
}

// WorkerConfig describes the external worker used by the worker backend.
type WorkerConfig struct {
	Command []string      `mapstructure:"command"`
	WorkDir string        `mapstructure:"work_dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Env     []string      `mapstructure:"env"`
}
