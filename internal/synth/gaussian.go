package synth

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// gaussianTruncate is the kernel half-width in standard deviations.
const gaussianTruncate = 4.0

// gaussianKernel returns a normalized 1D Gaussian kernel of radius
// int(4*sigma + 0.5).
func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// reflectIndex maps i into [0, n) mirroring at the edges, edge sample
// included (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// correlate1D filters n samples read through get, writing through set.
func correlate1D(n int, kernel []float64, get func(int) float64, set func(int, float64)) {
	radius := len(kernel) / 2
	line := make([]float64, n)
	for i := range line {
		line[i] = get(i)
	}
	for i := 0; i < n; i++ {
		var acc float64
		for k, w := range kernel {
			acc += w * line[reflectIndex(i+k-radius, n)]
		}
		set(i, acc)
	}
}

// gaussianFilter2D returns a copy of img (row-major, h rows by w columns)
// blurred with per-axis standard deviations sigma[0] (rows) and sigma[1]
// (columns).
func gaussianFilter2D(img []float64, h, w int, sigma [2]float64) []float64 {
	out := make([]float64, len(img))
	copy(out, img)

	if sigma[0] > 1e-15 {
		kernel := gaussianKernel(sigma[0])
		for c := 0; c < w; c++ {
			col := c
			correlate1D(h, kernel,
				func(r int) float64 { return out[r*w+col] },
				func(r int, v float64) { out[r*w+col] = v })
		}
	}
	if sigma[1] > 1e-15 {
		kernel := gaussianKernel(sigma[1])
		for r := 0; r < h; r++ {
			row := out[r*w : (r+1)*w]
			correlate1D(w, kernel,
				func(c int) float64 { return row[c] },
				func(c int, v float64) { row[c] = v })
		}
	}
	return out
}
