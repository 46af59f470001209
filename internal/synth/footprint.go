package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// dogRatio is the scale ratio between the two blurs of a
// difference-of-Gaussians footprint.
const dogRatio = 0.75

// Center is the seed position of a candidate footprint.
type Center struct {
	Row  int
	Col  int
	Kept bool // survived overlap pruning
}

// sampleCenters draws m centers uniformly inside the inset region, row then
// column for each candidate.
func sampleCenters(rng *rand.Rand, dims Dims, boundary, m int) ([]Center, error) {
	spanRows := dims.Height - 2*boundary
	spanCols := dims.Width - 2*boundary
	if spanRows <= 0 || spanCols <= 0 {
		return nil, fmt.Errorf("%w: %s leaves no room for centers with boundary %d", ErrInvalidDimensions, dims, boundary)
	}

	centers := make([]Center, m)
	for i := range centers {
		centers[i] = Center{
			Row:  boundary + int(rng.Float64()*float64(spanRows)),
			Col:  boundary + int(rng.Float64()*float64(spanCols)),
			Kept: true,
		}
	}
	return centers, nil
}

// candidateShape renders one footprint around c as a row-major image.
func candidateShape(rng *rand.Rand, dims Dims, c Center, sig [2]float64, dog bool) []float64 {
	impulse := make([]float64, dims.Pixels())
	impulse[c.Row*dims.Width+c.Col] = 1

	if !dog {
		var s [2]float64
		for k := range s {
			s[k] = sig[k] * (0.75 + 0.25*rng.Float64())
		}
		return gaussianFilter2D(impulse, dims.Height, dims.Width, s)
	}

	var s, inner [2]float64
	for k := range s {
		s[k] = (0.67 + 0.33*rng.Float64()) * sig[k]
		inner[k] = dogRatio * s[k]
	}
	outer := gaussianFilter2D(impulse, dims.Height, dims.Width, s)
	surround := gaussianFilter2D(impulse, dims.Height, dims.Width, inner)
	weight := dogRatio * dogRatio * (0.2 + 0.6*rng.Float64())
	for i := range outer {
		outer[i] = math.Max(outer[i]-surround[i]*weight, 0)
	}
	return outer
}

// truncateAndNormalize zeroes entries below frac of the column peak and
// scales the column to unit L2 norm. An all-zero column is left untouched.
func truncateAndNormalize(col []float64, frac float64) {
	peak := floats.Max(col)
	cut := peak * frac
	for i, v := range col {
		if v < cut {
			col[i] = 0
		}
	}
	if norm := floats.Norm(col, 2); norm > 0 {
		floats.Scale(1/norm, col)
	}
}

// pruneByOverlap marks candidates as dropped until n remain. At each step it
// scans the overlap matrix of the kept candidates in row-major order and drops
// the column index of the first maximum, so ties resolve to the lowest index.
func pruneByOverlap(overlap *mat.Dense, keep []bool, n int) {
	m := len(keep)
	remaining := 0
	for _, k := range keep {
		if k {
			remaining++
		}
	}

	for remaining > n {
		best := math.Inf(-1)
		drop := -1
		for i := 0; i < m; i++ {
			if !keep[i] {
				continue
			}
			for j := 0; j < m; j++ {
				if j == i || !keep[j] {
					continue
				}
				if v := overlap.At(i, j); v > best {
					best = v
					drop = j
				}
			}
		}
		keep[drop] = false
		remaining--
	}
}

// synthesizeFootprints draws candidate footprints and keeps the opts.Cells
// least overlapping ones. The returned matrix is (pixels x Cells) in
// column-major pixel order.
func synthesizeFootprints(rng *rand.Rand, opts *Options) (*mat.Dense, []Center, error) {
	dims := opts.Dims
	m := CandidateCount(opts.Cells)

	centers, err := sampleCenters(rng, dims, opts.Boundary, m)
	if err != nil {
		return nil, nil, err
	}

	pixels := dims.Pixels()
	candidates := mat.NewDense(pixels, m, nil)
	col := make([]float64, pixels)
	for n, c := range centers {
		shape := candidateShape(rng, dims, c, opts.Sig, opts.DifferenceOfGaussians)
		for r := 0; r < dims.Height; r++ {
			for cc := 0; cc < dims.Width; cc++ {
				col[dims.Index(r, cc)] = shape[r*dims.Width+cc]
			}
		}
		truncateAndNormalize(col, opts.Truncate)
		candidates.SetCol(n, col)
	}

	keep := make([]bool, m)
	for i := range keep {
		keep[i] = true
	}
	if m > opts.Cells {
		var overlap mat.Dense
		overlap.Mul(candidates.T(), candidates)
		for i := 0; i < m; i++ {
			overlap.Set(i, i, overlap.At(i, i)-1)
		}
		pruneByOverlap(&overlap, keep, opts.Cells)
	}

	footprints := mat.NewDense(pixels, opts.Cells, nil)
	k := 0
	for i, kept := range keep {
		centers[i].Kept = kept
		if !kept {
			continue
		}
		footprints.SetCol(k, mat.Col(nil, i, candidates))
		k++
	}
	return footprints, centers, nil
}
