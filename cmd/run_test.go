package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephgoksu/causalfuse/internal/config"
	"github.com/josephgoksu/causalfuse/internal/pipeline"
	"github.com/josephgoksu/causalfuse/internal/sweep"
	"github.com/josephgoksu/causalfuse/internal/util"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runYAML = `
seed: 3
data:
  batch_size: 4
  dataset:
    dataset_name: synthetic
    load_path: /data
    n_orig_features: 8
    n_pca_features: 3
    tasks: [y]
model:
  fuser: vote
  alpha: 4
  active_lfs:
    notears: []
    classic: [corr]
    pycausal: []
opt:
  epochs: 2
  lr: 0.05
  l2: 0
  comnivore_v:
    all_negative_balance: [0.1, 0.9, 0.2]
    snorkel_lr: 0.05
    snorkel_ep: 20
pipeline:
  baseline: true
  indiv_training: false
utils:
  log_freq: 1
`

// writeNPY stores rows as a little-endian float64 .npy v1.0 array.
func writeNPY(t *testing.T, fs afero.Fs, path string, rows [][]float64) {
	t.Helper()
	var flat []float64
	for _, r := range rows {
		flat = append(flat, r...)
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d, %d), }", len(rows), len(rows[0]))
	if pad := (10 + len(header) + 1) % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	for _, v := range flat {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float64bits(v)))
	}
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func syntheticFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte(runYAML), 0644))

	var train, split, meta [][]float64
	for i := 0; i < 12; i++ {
		y := float64(i % 2)
		row := []float64{y + 0.1*float64(i%3), float64(i % 5), 1 - y, y}
		train = append(train, row)
		if i < 6 {
			split = append(split, row)
			meta = append(meta, []float64{float64(i % 2)})
		}
	}
	writeNPY(t, fs, "/data/samples_y_8.npy", train)
	writeNPY(t, fs, "/data/orig_full_val_8.npy", split)
	writeNPY(t, fs, "/data/orig_full_test_8.npy", split)
	writeNPY(t, fs, "/data/metadata_val.npy", meta)
	writeNPY(t, fs, "/data/metadata_test.npy", meta)
	return fs
}

func testRunOptions() runOptions {
	return runOptions{configPath: "/cfg.yaml", logBase: "/log", logPath: "exp1"}
}

func TestExecuteRun_EndToEnd(t *testing.T) {
	fs := syntheticFs(t)

	summary, err := executeRun(context.Background(), fs, testRunOptions(), config.Overrides{}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "synthetic", summary.Dataset)
	assert.Equal(t, int64(3), summary.Seed)
	assert.Equal(t, 4, summary.Points)
	assert.Equal(t, summary.Points, summary.Trained+summary.Skipped)
	require.NotNil(t, summary.Baseline)
	assert.Contains(t, summary.RunID, "run-")

	var results, logs []string
	require.NoError(t, afero.Walk(fs, "/log", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		switch filepath.Base(path) {
		case pipeline.ResultsFileName:
			results = append(results, path)
		case "log.txt":
			logs = append(logs, path)
		}
		return nil
	}))
	require.Len(t, results, 1)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(results[0], filepath.Join("/log", "exp1", "synthetic", "vote")))

	content, err := afero.ReadFile(fs, logs[0])
	require.NoError(t, err)
	for _, want := range []string{"log_config", "Running corr...", "Training baseline....", "FUSE ALGORITHM: vote", "###### 0.1 ######"} {
		assert.Contains(t, string(content), want)
	}
}

func TestExecuteRun_OverridesReachLog(t *testing.T) {
	fs := syntheticFs(t)
	alpha := 2

	_, err := executeRun(context.Background(), fs, testRunOptions(), config.Overrides{Alpha: &alpha}, io.Discard)
	require.NoError(t, err)

	var found bool
	require.NoError(t, afero.Walk(fs, "/log", func(path string, info os.FileInfo, err error) error {
		if err == nil && filepath.Base(path) == "log.txt" {
			content, _ := afero.ReadFile(fs, path)
			found = strings.Contains(string(content), "alpha=2")
		}
		return err
	}))
	assert.True(t, found)
}

func TestExecuteRun_ConfigErrorBeforeAnyOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte("data: {}\n"), 0644))

	_, err := executeRun(context.Background(), fs, testRunOptions(), config.Overrides{}, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))

	exists, _ := afero.DirExists(fs, "/log")
	assert.False(t, exists)
}

func TestExecuteRun_RunIDFlag(t *testing.T) {
	fs := syntheticFs(t)
	opts := testRunOptions()
	opts.runID = "ABCDEF12"

	summary, err := executeRun(context.Background(), fs, opts, config.Overrides{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "run-abcdef12", summary.RunID)

	opts.runID = "run-xyz"
	_, err = executeRun(context.Background(), fs, opts, config.Overrides{}, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
	assert.True(t, errors.Is(err, util.ErrInvalidRunID))
}

func TestExecuteRun_MissingDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte(runYAML), 0644))

	_, err := executeRun(context.Background(), fs, testRunOptions(), config.Overrides{}, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMaterialization))
}

func TestPrintSummary_Plain(t *testing.T) {
	var buf bytes.Buffer
	s := &pipeline.Summary{
		Baseline: &sweep.Scores{Test: 0.5},
		Best:     sweep.Entry{Scores: sweep.Scores{Validation: 0.75, Test: 0.6667}},
	}
	printSummary(&buf, s, false)

	assert.Equal(t, "Baseline test accuracy: 0.500\nBest validation set accuracy: 0.750\nBest model test accuracy: 0.667\n", buf.String())
}
