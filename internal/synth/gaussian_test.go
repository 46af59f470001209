package synth

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		sigma      float64
		wantLength int
	}{
		{1, 9},
		{3, 25},
		{2.25, 19},
		{0.1, 1},
	}
	for _, tt := range tests {
		k := gaussianKernel(tt.sigma)
		if len(k) != tt.wantLength {
			t.Errorf("gaussianKernel(%v) length = %d, want %d", tt.sigma, len(k), tt.wantLength)
		}
		if s := floats.Sum(k); math.Abs(s-1) > 1e-12 {
			t.Errorf("gaussianKernel(%v) sums to %v", tt.sigma, s)
		}
		for i := range k {
			if k[i] != k[len(k)-1-i] {
				t.Errorf("gaussianKernel(%v) not symmetric at %d", tt.sigma, i)
				break
			}
		}
	}
}

func TestReflectIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 4, 0},
		{3, 4, 3},
		{-1, 4, 0},
		{-2, 4, 1},
		{4, 4, 3},
		{5, 4, 2},
		{8, 4, 0},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflectIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("reflectIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestGaussianFilter2D_ConservesMass(t *testing.T) {
	h, w := 12, 9
	img := make([]float64, h*w)
	img[1*w+2] = 1 // near a corner so reflection kicks in

	out := gaussianFilter2D(img, h, w, [2]float64{2, 1.5})
	if s := floats.Sum(out); math.Abs(s-1) > 1e-12 {
		t.Errorf("filtered impulse sums to %v, want 1", s)
	}
	if img[1*w+2] != 1 {
		t.Error("input image was modified")
	}
	if floats.Min(out) < 0 {
		t.Error("blur produced negative values")
	}
}

func TestGaussianFilter2D_SeparableAxes(t *testing.T) {
	h, w := 15, 15
	img := make([]float64, h*w)
	img[7*w+7] = 1

	// Blurring only along rows leaves other columns untouched.
	out := gaussianFilter2D(img, h, w, [2]float64{2, 0})
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if c != 7 && out[r*w+c] != 0 {
				t.Fatalf("value leaked to column %d", c)
			}
		}
	}
	if out[6*w+7] != out[8*w+7] {
		t.Error("row blur is not symmetric")
	}
}
