package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// DecayFactor returns the per-frame calcium decay for a time constant tau
// (seconds) at the given framerate.
func DecayFactor(tau, framerate float64) float64 {
	return math.Exp(-1 / (tau * framerate))
}

// WarmupCutoff returns the first frame at which cell i of n may fire. Cells
// in the second half have no warm-up.
func WarmupCutoff(i, n, frames, warmup int) int {
	if i >= n/2 {
		return 0
	}
	return min(frames, warmup+i*frames/n*2/3)
}

// synthesizeSpikes draws the binary event matrix (cells x frames).
func synthesizeSpikes(rng *rand.Rand, opts *Options) *mat.Dense {
	n, frames := opts.Cells, opts.Frames
	p := opts.FireRate / opts.Framerate

	spikes := mat.NewDense(n, frames, nil)
	for i := 0; i < n; i++ {
		for t := 0; t < frames; t++ {
			if rng.Float64() < p {
				spikes.Set(i, t, 1)
			}
		}
	}

	for i := 0; i < n; i++ {
		spikes.Set(i, 0, 0)
		cutoff := WarmupCutoff(i, n, frames, opts.WarmupFrames)
		for t := 0; t < cutoff; t++ {
			spikes.Set(i, t, 0)
		}
	}
	return spikes
}

// integrateCalcium runs the leaky integrator C[i,t] = S[i,t] + g_i*C[i,t-1]
// over every row of spikes.
func integrateCalcium(spikes *mat.Dense, opts *Options) *mat.Dense {
	n, frames := spikes.Dims()
	calcium := mat.NewDense(n, frames, nil)
	calcium.Copy(spikes)

	row := make([]float64, frames)
	for i := 0; i < n; i++ {
		gamma := DecayFactor(opts.tau(i), opts.Framerate)
		mat.Row(row, i, calcium)
		for t := 1; t < frames; t++ {
			row[t] += gamma * row[t-1]
		}
		calcium.SetRow(i, row)
	}
	return calcium
}

// synthesizeTraces returns the spike trains and their calcium traces.
func synthesizeTraces(rng *rand.Rand, opts *Options) (spikes, calcium *mat.Dense) {
	spikes = synthesizeSpikes(rng, opts)
	return spikes, integrateCalcium(spikes, opts)
}
