package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/sweep"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// legacyKeys maps misspelled keys still found in older configs to their
// current names.
var legacyKeys = map[string]string{
	"data.dataset.n_pac_features": "data.dataset.n_pca_features",
}

// Overrides are command-line values that replace configured ones. Nil fields
// leave the configuration untouched.
type Overrides struct {
	LR             *float64
	L2             *float64
	BatchSize      *int
	CombinerLR     *float64
	CombinerEpochs *int
	Alpha          *int
}

func (o Overrides) apply(v *viper.Viper) {
	if o.LR != nil {
		v.Set("opt.lr", *o.LR)
	}
	if o.L2 != nil {
		v.Set("opt.l2", *o.L2)
	}
	if o.BatchSize != nil {
		v.Set("data.batch_size", *o.BatchSize)
	}
	if o.CombinerLR != nil {
		v.Set("opt.comnivore_v.snorkel_lr", *o.CombinerLR)
	}
	if o.CombinerEpochs != nil {
		v.Set("opt.comnivore_v.snorkel_ep", *o.CombinerEpochs)
	}
	if o.Alpha != nil {
		v.Set("model.alpha", *o.Alpha)
	}
}

// Loader reads run configs through an afero.Fs.
type Loader struct {
	fs       afero.Fs
	validate *validator.Validate
}

// NewLoader creates a Loader using the provided filesystem.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs, validate: validator.New()}
}

// Load reads the YAML config at path, applies environment variables and
// overrides, and validates the result. Every failure is a ConfigError.
func (l *Loader) Load(path string, overrides Overrides) (*types.RunConfig, error) {
	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.Configf("read %s: %w", path, err)
	}
	for old, current := range legacyKeys {
		if !v.IsSet(current) && v.IsSet(old) {
			v.Set(current, v.Get(old))
		}
	}
	overrides.apply(v)

	if missing := missingKeys(v); len(missing) > 0 {
		return nil, types.Configf("missing required keys: %s", strings.Join(missing, ", "))
	}

	var cfg types.RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.Configf("decode %s: %w", path, err)
	}
	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct-tag validation and the cross-field checks.
func (l *Loader) Validate(cfg *types.RunConfig) error {
	if err := l.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
			}
			return types.Configf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return types.Configf("invalid config: %w", err)
	}
	return crossCheck(cfg)
}

func crossCheck(cfg *types.RunConfig) error {
	ds := cfg.Data.Dataset
	if ds.NPCAFeatures > ds.NOrigFeatures {
		return types.Configf("n_pca_features (%d) exceeds n_orig_features (%d)", ds.NPCAFeatures, ds.NOrigFeatures)
	}

	switch cfg.Model.Strategy() {
	case types.StrategyVote:
		r := cfg.Opt.ComnivoreV.AllNegativeBalance
		if len(r) != 3 {
			return types.Configf("opt.comnivore_v.all_negative_balance needs [start, stop, step], got %v", r)
		}
		if !(r[2] > 0) {
			return types.Configf("opt.comnivore_v.all_negative_balance step must be positive, got %v", r[2])
		}
		if _, err := sweep.VoteAxisFromRange(r); err != nil {
			return types.Configf("opt.comnivore_v.all_negative_balance: %w", err)
		}
		if cfg.Opt.ComnivoreV.SnorkelEpochs < 0 || cfg.Opt.ComnivoreV.SnorkelLR < 0 {
			return types.Configf("combiner lr and epochs must not be negative")
		}
	case types.StrategySearch:
		g := cfg.Opt.ComnivoreG
		if g.Step <= 0 {
			return types.Configf("opt.comnivore_g.step must be positive, got %d", g.Step)
		}
		if g.MinIters < 0 || g.MaxIters < g.MinIters {
			return types.Configf("opt.comnivore_g iterations [%d, %d] are not an ascending range", g.MinIters, g.MaxIters)
		}
		if g.NTriplets <= 0 {
			return types.Configf("opt.comnivore_g.n_triplets must be positive, got %d", g.NTriplets)
		}
		if (g.MaxIters-g.MinIters)/g.Step >= sweep.MaxPoints {
			return types.Configf("opt.comnivore_g yields more than %d checkpoints", sweep.MaxPoints)
		}
	}

	plan, err := estimator.PlanFromConfig(cfg.Model)
	if err != nil {
		return err
	}
	if len(cfg.Worker.Command) > 0 {
		return nil
	}
	if cfg.Model.Backend == "worker" {
		return types.Configf("model.backend is worker but worker.command is empty")
	}
	native := estimator.NewPool(nil)
	for _, e := range plan {
		if !native.Native(e.Kind) {
			return types.Configf("estimator %q runs in a worker; set worker.command", e.Name)
		}
	}
	return nil
}
