// Package render draws the diagnostic figures of a synthetic dataset as PNG
// files: ground-truth traces, projected residual traces and the max, mean and
// correlation projections of the movie with the footprint centers overlaid.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/mrsinham/calciumforge/internal/correlation"
	"github.com/mrsinham/calciumforge/internal/synth"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Output file names, relative to Renderer.Dir.
const (
	TracesFile      = "traces.png"
	ResidualsFile   = "residuals.png"
	ProjectionsFile = "projections.png"
)

// blockFrames is the block length of the temporally averaged max projection.
const blockFrames = 10

var (
	keptColor   = color.RGBA{G: 160, A: 255}
	prunedColor = color.RGBA{R: 220, A: 255}
)

// Renderer writes diagnostic plots into Dir.
type Renderer struct {
	Dir string

	TraceWidth, TraceHeight vg.Length
	PanelSize               vg.Length
}

// NewRenderer returns a renderer with the default figure sizes.
func NewRenderer(dir string) *Renderer {
	return &Renderer{
		Dir:         dir,
		TraceWidth:  20 * vg.Inch,
		TraceHeight: 3 * vg.Inch,
		PanelSize:   4 * vg.Inch,
	}
}

// NewVisualizer wires the local correlation image and a Renderer into a
// synth.Visualizer. The colormap is checked up front.
func NewVisualizer(dir, colormap string) (*synth.Visualizer, error) {
	if _, err := LookupColormap(colormap); err != nil {
		return nil, err
	}
	r := NewRenderer(dir)
	return &synth.Visualizer{
		Colormap:  colormap,
		Correlate: correlation.Local,
		Render:    r.Render,
	}, nil
}

// Render writes TracesFile, ResidualsFile and ProjectionsFile.
func (r *Renderer) Render(d synth.Diagnostics) error {
	pal, err := LookupColormap(d.Colormap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}

	ds := d.Dataset
	traces, err := linePlot("True calcium traces", "Frame", "Fluorescence", ds.C)
	if err != nil {
		return fmt.Errorf("traces plot: %w", err)
	}
	if err := traces.Save(r.TraceWidth, r.TraceHeight, filepath.Join(r.Dir, TracesFile)); err != nil {
		return fmt.Errorf("save traces plot: %w", err)
	}

	residuals, err := linePlot("Projected traces", "Frame", "A^T (Y - baseline) / |A|^2",
		ProjectedTraces(ds.A, ds.Yr, d.Baseline))
	if err != nil {
		return fmt.Errorf("residuals plot: %w", err)
	}
	if err := residuals.Save(r.TraceWidth, r.TraceHeight, filepath.Join(r.Dir, ResidualsFile)); err != nil {
		return fmt.Errorf("save residuals plot: %w", err)
	}

	if err := r.saveProjections(d, pal); err != nil {
		return fmt.Errorf("projections plot: %w", err)
	}
	return nil
}

// ProjectedTraces returns (A^T (Yr - baseline)) / sum(A^2) per footprint,
// cells x frames. All-zero footprints give zero rows.
func ProjectedTraces(a, yr *mat.Dense, baseline float64) *mat.Dense {
	pixels, n := a.Dims()
	_, frames := yr.Dims()

	var proj mat.Dense
	proj.Mul(a.T(), yr)

	row := make([]float64, frames)
	for j := 0; j < n; j++ {
		var sum, sq float64
		for p := 0; p < pixels; p++ {
			v := a.At(p, j)
			sum += v
			sq += v * v
		}
		mat.Row(row, j, &proj)
		for t := range row {
			if sq > 0 {
				row[t] = (row[t] - baseline*sum) / sq
			} else {
				row[t] = 0
			}
		}
		proj.SetRow(j, row)
	}
	return &proj
}

// linePlot draws one line per row of m.
func linePlot(title, xLabel, yLabel string, m mat.Matrix) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	rows, cols := m.Dims()
	colors := palette.Rainbow(max(rows, 2), palette.Red, palette.Magenta, 0.8, 0.8, 1).Colors()
	for i := 0; i < rows; i++ {
		pts := make(plotter.XYs, cols)
		for t := 0; t < cols; t++ {
			pts[t] = plotter.XY{X: float64(t), Y: m.At(i, t)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return p, nil
}

func (r *Renderer) saveProjections(d synth.Diagnostics, pal palette.Palette) error {
	images := []struct {
		title string
		data  *mat.Dense
	}{
		{"Max", MaxBlockMean(d.Movie, blockFrames)},
		{"Mean", MeanImage(d.Movie)},
		{"Correlation", d.Correlation},
	}

	plots := [][]*plot.Plot{make([]*plot.Plot, len(images))}
	for i, img := range images {
		p, err := imagePlot(img.title, img.data, pal, d.Dataset.Centers)
		if err != nil {
			return err
		}
		plots[0][i] = p
	}

	canvas := vgimg.New(vg.Length(len(images))*r.PanelSize, r.PanelSize)
	dc := draw.New(canvas)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(images),
		PadX:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots[0] {
		plots[0][i].Draw(canvases[0][i])
	}

	f, err := os.Create(filepath.Join(r.Dir, ProjectionsFile))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// imagePlot draws m as a heat map with kept centers in green and pruned ones
// in red.
func imagePlot(title string, m *mat.Dense, pal palette.Palette, centers []synth.Center) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(plotter.NewHeatMap(grid{m}, pal))

	var kept, pruned plotter.XYs
	for _, c := range centers {
		xy := plotter.XY{X: float64(c.Col), Y: float64(c.Row)}
		if c.Kept {
			kept = append(kept, xy)
		} else {
			pruned = append(pruned, xy)
		}
	}
	for _, set := range []struct {
		pts   plotter.XYs
		color color.Color
	}{{kept, keptColor}, {pruned, prunedColor}} {
		if len(set.pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(set.pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = set.color
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
	}
	return p, nil
}

// grid adapts a Height x Width image to plotter.GridXYZ with X the column and
// Y the row.
type grid struct{ m *mat.Dense }

func (g grid) Dims() (c, r int)   { r, c = g.m.Dims(); return c, r }
func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// MeanImage returns the temporal mean of every pixel, Height x Width.
func MeanImage(movie *synth.Movie) *mat.Dense {
	dims := movie.Dims
	img := mat.NewDense(dims.Height, dims.Width, nil)
	series := make([]float64, movie.Frames)
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			movie.Pixel(series, r, c)
			img.Set(r, c, floats.Sum(series)/float64(movie.Frames))
		}
	}
	return img
}

// MaxBlockMean averages consecutive blocks of frames and returns the maximum
// block mean of every pixel. Trailing frames that do not fill a block are
// ignored; movies shorter than one block fall back to the plain mean.
func MaxBlockMean(movie *synth.Movie, block int) *mat.Dense {
	blocks := movie.Frames / block
	if blocks == 0 {
		return MeanImage(movie)
	}

	dims := movie.Dims
	img := mat.NewDense(dims.Height, dims.Width, nil)
	series := make([]float64, movie.Frames)
	for r := 0; r < dims.Height; r++ {
		for c := 0; c < dims.Width; c++ {
			movie.Pixel(series, r, c)
			best := 0.0
			for b := 0; b < blocks; b++ {
				mean := floats.Sum(series[b*block:(b+1)*block]) / float64(block)
				if b == 0 || mean > best {
					best = mean
				}
			}
			img.Set(r, c, best)
		}
	}
	return img
}
