package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// initialJitter is added to the covariance diagonal before factorizing.
	initialJitter = 1e-10

	temporalMagnitude = 1e-2
	spatialMagnitude  = 3e-2
)

// squaredExponential builds K[i,j] = exp(-(i-j)^2 / (2 l^2)) over n indices.
func squaredExponential(n int, lengthScale float64) *mat.SymDense {
	k := mat.NewSymDense(n, nil)
	denom := 2 * lengthScale * lengthScale
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := float64(i - j)
			k.SetSym(i, j, math.Exp(-d*d/denom))
		}
	}
	return k
}

// choleskyFactor returns the lower-triangular factor of k plus a diagonal
// jitter, escalating the jitter by 10x up to maxJitter when k is not
// numerically positive definite.
func choleskyFactor(k *mat.SymDense, maxJitter float64) (*mat.TriDense, error) {
	n := k.SymmetricDim()
	jittered := mat.NewSymDense(n, nil)
	for jitter := initialJitter; ; jitter *= 10 {
		jittered.CopySym(k)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+jitter)
		}

		var chol mat.Cholesky
		if chol.Factorize(jittered) {
			var l mat.TriDense
			chol.LTo(&l)
			return &l, nil
		}
		if jitter*10 > maxJitter {
			return nil, fmt.Errorf("%w: %dx%d covariance not positive definite with jitter %g", ErrCorrelatedField, n, n, jitter)
		}
	}
}

// correlatedSample draws one zero-mean Gaussian-process sample of length n
// with a squared-exponential covariance.
func correlatedSample(rng *rand.Rand, n int, lengthScale, maxJitter float64) (*mat.VecDense, error) {
	l, err := choleskyFactor(squaredExponential(n, lengthScale), maxJitter)
	if err != nil {
		return nil, err
	}
	z := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		z.SetVec(i, rng.NormFloat64())
	}
	var sample mat.VecDense
	sample.MulVec(l, z)
	return &sample, nil
}

// recenter shifts values so their mean becomes target.
func recenter(values []float64, target float64) {
	floats.AddConst(target-stat.Mean(values, nil), values)
}

// synthesizeFluctuations returns the temporal modulation (frames) and the
// spatial background (pixels, column-major). With fluctuations disabled they
// are exactly 1 and exactly the baseline.
func synthesizeFluctuations(rng *rand.Rand, opts *Options) (modulation, background *mat.VecDense, err error) {
	dims := opts.Dims
	f := make([]float64, opts.Frames)
	b := make([]float64, dims.Pixels())

	if opts.Fluctuations == nil {
		floats.AddConst(1, f)
		floats.AddConst(opts.Baseline, b)
		return mat.NewVecDense(len(f), f), mat.NewVecDense(len(b), b), nil
	}

	temporal, err := correlatedSample(rng, opts.Frames, opts.Fluctuations.Temporal, opts.MaxJitter)
	if err != nil {
		return nil, nil, fmt.Errorf("temporal modulation: %w", err)
	}
	for t := range f {
		f[t] = temporalMagnitude * temporal.AtVec(t) / opts.Baseline
	}
	recenter(f, 1)

	rows, err := correlatedSample(rng, dims.Height, opts.Fluctuations.Spatial, opts.MaxJitter)
	if err != nil {
		return nil, nil, fmt.Errorf("spatial background rows: %w", err)
	}
	cols, err := correlatedSample(rng, dims.Width, opts.Fluctuations.Spatial, opts.MaxJitter)
	if err != nil {
		return nil, nil, fmt.Errorf("spatial background columns: %w", err)
	}
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			b[dims.Index(r, c)] = spatialMagnitude * rows.AtVec(r) * cols.AtVec(c)
		}
	}
	recenter(b, 1)
	floats.Scale(opts.Baseline, b)

	return mat.NewVecDense(len(f), f), mat.NewVecDense(len(b), b), nil
}
