package synth

import "gonum.org/v1/gonum/mat"

// Movie is a read-only (row, col, frame) view over a pixel-by-time matrix
// whose pixel index is column-major.
type Movie struct {
	Dims   Dims
	Frames int
	data   mat.Matrix
}

// NewMovie wraps yr (pixels x frames) as a movie of the given dims.
func NewMovie(yr mat.Matrix, dims Dims) *Movie {
	_, frames := yr.Dims()
	return &Movie{Dims: dims, Frames: frames, data: yr}
}

// At returns the value of pixel (row, col) at frame t.
func (m *Movie) At(row, col, t int) float64 {
	return m.data.At(m.Dims.Index(row, col), t)
}

// Pixel copies the time series of pixel (row, col) into dst, allocating when
// dst is nil.
func (m *Movie) Pixel(dst []float64, row, col int) []float64 {
	if dst == nil {
		dst = make([]float64, m.Frames)
	}
	p := m.Dims.Index(row, col)
	for t := 0; t < m.Frames; t++ {
		dst[t] = m.data.At(p, t)
	}
	return dst
}

// Diagnostics is everything a renderer needs to draw the reference plots.
type Diagnostics struct {
	Colormap    string
	Movie       *Movie
	Correlation *mat.Dense // Height x Width
	Dataset     *Dataset
	Baseline    float64
}

// Visualizer is the optional plotting capability of Generate. Correlate
// computes a correlation image (Height x Width) from the movie; Render draws
// the diagnostics. Both are required.
type Visualizer struct {
	Colormap  string
	Correlate func(movie *Movie) (*mat.Dense, error)
	Render    func(d Diagnostics) error
}
