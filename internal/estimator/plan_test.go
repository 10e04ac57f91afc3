package estimator

import (
	"errors"
	"testing"

	"github.com/josephgoksu/causalfuse/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFromConfig_OrderAndSettings(t *testing.T) {
	cfg := types.ModelConfig{
		ActiveLFs: types.ActiveLFs{
			Notears:  []string{"golem"},
			Classic:  []string{"corr", "pc"},
			Pycausal: []string{"fges"},
		},
		LFSettings: map[string]map[string]any{
			"classic": {"alpha": 0.05, "threshold": 0.2},
			"corr":    {"threshold": 0.3},
		},
	}

	plan, err := PlanFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"golem", "corr", "pc", "fges"}, plan.Names())
	assert.Equal(t, Corr, plan[1].Kind)
	assert.Equal(t, map[string]any{"alpha": 0.05, "threshold": 0.3}, plan[1].Settings)
	assert.Equal(t, map[string]any{"alpha": 0.05, "threshold": 0.2}, plan[2].Settings)
	assert.Empty(t, plan[0].Settings)
}

func TestPlanFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		lfs  types.ActiveLFs
		msg  string
	}{
		{"unknown name", types.ActiveLFs{Classic: []string{"magic"}}, "unknown classic estimator"},
		{"wrong family", types.ActiveLFs{Notears: []string{"pc"}}, "unknown notears estimator"},
		{"duplicate in family", types.ActiveLFs{Classic: []string{"pc", "pc"}}, "listed twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanFromConfig(types.ModelConfig{ActiveLFs: tt.lfs})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrConfig))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPlanFromConfig_Empty(t *testing.T) {
	plan, err := PlanFromConfig(types.ModelConfig{})
	require.NoError(t, err)
	assert.Empty(t, plan)
}
