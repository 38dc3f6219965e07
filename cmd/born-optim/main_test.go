package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), version)
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.ErrorIs(t, run([]string{"serve"}, &stdout, &stderr), errUsage)
	require.ErrorIs(t, run(nil, &stdout, &stderr), errUsage)
	assert.Contains(t, stderr.String(), "Commands:")
}

// TestLeastSquaresGradients compares the analytic gradients with central
// differences of the loss.
func TestLeastSquaresGradients(t *testing.T) {
	cfg := config.Default().Training
	cfg.InFeatures, cfg.OutFeatures, cfg.BatchSize = 3, 2, 5
	p := newLeastSquares(cfg, cpu.New())

	_, grads, err := p.gradients()
	require.NoError(t, err)
	gw, ok := grads.Get(weightID)
	require.True(t, ok)

	const h = 1e-2
	w := p.weight.Tensor().Data()
	for i := range w {
		orig := w[i]
		w[i] = orig + h
		plus, _, err := p.gradients()
		require.NoError(t, err)
		w[i] = orig - h
		minus, _, err := p.gradients()
		require.NoError(t, err)
		w[i] = orig

		numeric := (plus - minus) / (2 * h)
		assert.InDelta(t, numeric, float64(gw.Data()[i]), 1e-3, "weight[%d]", i)
	}
}

func TestTrainAndInspect(t *testing.T) {
	for _, kind := range []string{"adagrad", "sgd", "adam"} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, kind+".json")

			var stdout, stderr bytes.Buffer
			err := run([]string{"train", "-optimizer", kind, "-steps", "20", "-lr", "0.05", "-workers", "1", "-out", out}, &stdout, &stderr)
			require.NoError(t, err, stderr.String())
			assert.Contains(t, stdout.String(), "final loss")
			assert.Contains(t, stderr.String(), "saved optimizer record")

			stdout.Reset()
			require.NoError(t, run([]string{"inspect", out}, &stdout, &stderr))
			assert.Contains(t, stdout.String(), "optimizer: "+kind)
			assert.Contains(t, stdout.String(), string(weightID))
			assert.Contains(t, stdout.String(), string(biasID))
		})
	}
}

func TestTrainLowersLoss(t *testing.T) {
	dir := t.TempDir()
	var short, long, stderr bytes.Buffer

	require.NoError(t, run([]string{"train", "-steps", "1", "-lr", "0.1", "-out", filepath.Join(dir, "a.json")}, &short, &stderr))
	require.NoError(t, run([]string{"train", "-steps", "200", "-lr", "0.1", "-out", filepath.Join(dir, "b.json")}, &long, &stderr))

	var lossShort, lossLong float64
	var steps int
	var kind string
	_, err := sscanLoss(short.String(), &lossShort, &steps, &kind)
	require.NoError(t, err)
	_, err = sscanLoss(long.String(), &lossLong, &steps, &kind)
	require.NoError(t, err)
	assert.Less(t, lossLong, lossShort)
}

func TestTrainResumeAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	var stdout, stderr bytes.Buffer

	args := []string{"train", "-steps", "3", "-workers", "1", "-out", db}
	require.NoError(t, run(args, &stdout, &stderr), stderr.String())
	require.NoError(t, run(append(args, "-resume"), &stdout, &stderr), stderr.String())
	assert.Contains(t, stderr.String(), "resumed optimizer state")

	stdout.Reset()
	require.NoError(t, run([]string{"snapshots", db}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "adagrad")
	assert.Equal(t, 3, bytes.Count(stdout.Bytes(), []byte("\n")), "header plus two snapshots")

	// The first snapshot holds three steps, the latest six.
	stdout.Reset()
	require.NoError(t, run([]string{"inspect", "-snapshot", "1", db}, &stdout, &stderr))
	assert.Regexp(t, `lr_decay/time\s+int\s+3\n`, stdout.String())

	stdout.Reset()
	require.NoError(t, run([]string{"inspect", db}, &stdout, &stderr))
	assert.Regexp(t, `lr_decay/time\s+int\s+6\n`, stdout.String())
}

func TestTrainConfigFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "state.boro")
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
optimizer:
  kind: adagrad
  adagrad:
    lr_decay: 0.1
    weight_decay:
      penalty: 0.01
    grad_clipping:
      norm: 5
training:
  steps: 4
  workers: 2
record:
  path: `+out+`
`), 0o600))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"train", "-config", cfgPath}, &stdout, &stderr), stderr.String())

	stdout.Reset()
	require.NoError(t, run([]string{"inspect", out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "weight_decay/grad_last_step")
	assert.Contains(t, stdout.String(), "float32[6x6]")
}

func TestTrainRejectsBadInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.ErrorIs(t, run([]string{"train", "-optimizer", "rmsprop"}, &stdout, &stderr), config.ErrInvalid)
	require.Error(t, run([]string{"inspect"}, &stdout, &stderr))
	require.Error(t, run([]string{"inspect", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr))
}

func sscanLoss(s string, loss *float64, steps *int, kind *string) (int, error) {
	return fmt.Sscanf(s, "final loss %g after %d steps (%s", loss, steps, kind)
}
