// Package correlation computes local correlation images: for every pixel,
// the average temporal correlation with its neighbours.
package correlation

import (
	"errors"
	"fmt"

	"github.com/mrsinham/calciumforge/internal/synth"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Neighbourhood selects which adjacent pixels take part in the average.
type Neighbourhood int

const (
	// Eight uses the 3x3 neighbourhood minus the centre.
	Eight Neighbourhood = iota
	// Four uses only the horizontal and vertical neighbours.
	Four
)

// ErrEmptyMovie is returned for movies without pixels or frames.
var ErrEmptyMovie = errors.New("empty movie")

var offsets = map[Neighbourhood][][2]int{
	Eight: {{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}},
	Four:  {{-1, 0}, {0, -1}, {0, 1}, {1, 0}},
}

// Local returns the 8-neighbour correlation image of movie. It matches the
// Visualizer.Correlate signature.
func Local(movie *synth.Movie) (*mat.Dense, error) {
	return Image(movie, Eight)
}

// Image returns a Height x Width matrix where each entry is the mean Pearson
// correlation between the pixel and its in-bounds neighbours. Pixels with a
// constant time series contribute zero.
func Image(movie *synth.Movie, n Neighbourhood) (*mat.Dense, error) {
	dims := movie.Dims
	if dims.Pixels() == 0 || movie.Frames == 0 {
		return nil, fmt.Errorf("%w: %s with %d frames", ErrEmptyMovie, dims, movie.Frames)
	}
	nb, ok := offsets[n]
	if !ok {
		return nil, fmt.Errorf("unknown neighbourhood %d", n)
	}

	// z-score every pixel once
	z := make([][]float64, dims.Pixels())
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			series := movie.Pixel(nil, r, c)
			mean, std := stat.PopMeanStdDev(series, nil)
			for t := range series {
				if std > 0 {
					series[t] = (series[t] - mean) / std
				} else {
					series[t] = 0
				}
			}
			z[dims.Index(r, c)] = series
		}
	}

	frames := float64(movie.Frames)
	img := mat.NewDense(dims.Height, dims.Width, nil)
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			self := z[dims.Index(r, c)]
			var sum float64
			count := 0
			for _, o := range nb {
				rr, cc := r+o[0], c+o[1]
				if rr < 0 || rr >= dims.Height || cc < 0 || cc >= dims.Width {
					continue
				}
				sum += floats.Dot(self, z[dims.Index(rr, cc)]) / frames
				count++
			}
			if count > 0 {
				img.Set(r, c, sum/float64(count))
			}
		}
	}
	return img, nil
}
