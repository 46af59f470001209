package correlation

import (
	"errors"
	"math"
	"testing"

	"github.com/mrsinham/calciumforge/internal/synth"
	"gonum.org/v1/gonum/mat"
)

func movieFrom(dims synth.Dims, frames int, value func(row, col, t int) float64) *synth.Movie {
	yr := mat.NewDense(dims.Pixels(), frames, nil)
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			for t := 0; t < frames; t++ {
				yr.Set(dims.Index(r, c), t, value(r, c, t))
			}
		}
	}
	return synth.NewMovie(yr, dims)
}

func TestLocal_IdenticalPixels(t *testing.T) {
	dims := synth.Dims{Height: 5, Width: 4}
	movie := movieFrom(dims, 50, func(r, c, t int) float64 {
		return math.Sin(float64(t)/3) + float64(r+c)
	})

	img, err := Local(movie)
	if err != nil {
		t.Fatalf("Local failed: %v", err)
	}
	rows, cols := img.Dims()
	if rows != dims.Height || cols != dims.Width {
		t.Fatalf("image shape = %dx%d, want %s", rows, cols, dims)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if math.Abs(img.At(r, c)-1) > 1e-12 {
				t.Errorf("Cn[%d,%d] = %v, want 1", r, c, img.At(r, c))
			}
		}
	}
}

func TestLocal_ConstantPixelsAreZero(t *testing.T) {
	dims := synth.Dims{Height: 3, Width: 3}
	movie := movieFrom(dims, 20, func(r, c, t int) float64 { return 7 })

	img, err := Local(movie)
	if err != nil {
		t.Fatalf("Local failed: %v", err)
	}
	if mat.Max(img) != 0 || mat.Min(img) != 0 {
		t.Errorf("expected an all-zero image, got max %v min %v", mat.Max(img), mat.Min(img))
	}
}

func TestImage_AntiCorrelatedCheckerboard(t *testing.T) {
	dims := synth.Dims{Height: 4, Width: 4}
	movie := movieFrom(dims, 40, func(r, c, t int) float64 {
		s := math.Cos(float64(t))
		if (r+c)%2 == 1 {
			return -s
		}
		return s
	})

	four, err := Image(movie, Four)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	// every 4-neighbour has the opposite phase
	if math.Abs(four.At(1, 1)+1) > 1e-12 {
		t.Errorf("4-neighbour Cn = %v, want -1", four.At(1, 1))
	}

	eight, err := Image(movie, Eight)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	// interior pixel: 4 opposite, 4 diagonal in phase
	if math.Abs(eight.At(1, 1)) > 1e-12 {
		t.Errorf("8-neighbour Cn = %v, want 0", eight.At(1, 1))
	}
}

func TestImage_Errors(t *testing.T) {
	empty := synth.NewMovie(mat.NewDense(1, 1, nil), synth.Dims{})
	if _, err := Local(empty); !errors.Is(err, ErrEmptyMovie) {
		t.Errorf("expected ErrEmptyMovie, got %v", err)
	}

	movie := movieFrom(synth.Dims{Height: 2, Width: 2}, 3, func(r, c, t int) float64 { return float64(t) })
	if _, err := Image(movie, Neighbourhood(7)); err == nil {
		t.Error("expected error for unknown neighbourhood")
	}
}
