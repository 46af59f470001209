package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mrsinham/calciumforge/internal/render"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOptions() synth.Options {
	opts := synth.DefaultOptions()
	opts.Dims = synth.Dims{Height: 16, Width: 18}
	opts.Cells = 2
	opts.Frames = 40
	opts.WarmupFrames = 5
	opts.Fluctuations = nil
	return opts
}

func TestRun_AllOutputs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "synthetic")

	var mu sync.Mutex
	stages := map[string]int{}
	res, err := Run(context.Background(), Request{
		Options: smallOptions(),
		Output:  base,
		Formats: []util.Format{util.FormatStore, util.FormatHDF5, util.FormatDICOM},
		Plots:   "heat",
		Workers: 2,
		Progress: func(stage string, current, total int) {
			mu.Lock()
			defer mu.Unlock()
			stages[stage]++
		},
	})
	require.NoError(t, err)

	assert.Len(t, res.Outputs, 3)
	assert.Equal(t, 4, stages[StageGenerate])
	assert.Equal(t, 40, stages[StageDICOM])
	assert.Equal(t, base+"_plots", res.PlotDir)

	for _, name := range []string{render.TracesFile, render.ResidualsFile, render.ProjectionsFile} {
		_, err := os.Stat(filepath.Join(res.PlotDir, name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, 2, res.Dataset.A.RawMatrix().Cols)
}

func TestRun_NoOutputs(t *testing.T) {
	res, err := Run(context.Background(), Request{Options: smallOptions()})
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	assert.Empty(t, res.PlotDir)
	assert.NotNil(t, res.Dataset)
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), Request{Options: smallOptions(), Plots: "nope"})
	assert.ErrorContains(t, err, "unknown colormap")

	bad := smallOptions()
	bad.Cells = 0
	_, err = Run(context.Background(), Request{Options: bad})
	assert.ErrorIs(t, err, synth.ErrInvalidOptions)
}
