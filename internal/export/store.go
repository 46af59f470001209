// Package export writes generated datasets to disk: the SQLite mapping
// store, HDF5 and per-frame DICOM images.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mrsinham/calciumforge/internal/persist"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
	"gonum.org/v1/gonum/mat"
)

// DatasetMapping returns the dataset as a persistable mapping. Footprints
// are stored sparse; the generation parameters go under "params".
func DatasetMapping(ds *synth.Dataset) map[string]any {
	centers := &mat.Dense{}
	if len(ds.Centers) > 0 {
		centers = mat.NewDense(len(ds.Centers), 3, nil)
		for i, c := range ds.Centers {
			kept := 0.0
			if c.Kept {
				kept = 1
			}
			centers.SetRow(i, []float64{float64(c.Row), float64(c.Col), kept})
		}
	}

	return map[string]any{
		"Yr":      ds.Yr,
		"trueC":   ds.C,
		"trueS":   ds.S,
		"A":       persist.NewSparseCSC(ds.A),
		"trueb":   ds.B,
		"truef":   ds.F,
		"centers": centers,
		"dims":    []int{ds.Dims.Height, ds.Dims.Width},
		"params":  ds.Options,
	}
}

// WriteStore saves DatasetMapping(ds) into a SQLite store at path.
func WriteStore(ctx context.Context, path string, ds *synth.Dataset, logger *slog.Logger) error {
	var opts []persist.Option
	if logger != nil {
		opts = append(opts, persist.WithLogger(logger))
	}
	if err := persist.Save(ctx, path, DatasetMapping(ds), opts...); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

// Options selects the outputs written by Write.
type Options struct {
	Formats []util.Format
	DICOM   DICOMOptions
	Logger  *slog.Logger
}

// Output names one written artifact.
type Output struct {
	Format util.Format
	Path   string
	Files  int // number of files written (DICOM writes one per frame)
}

// Write exports ds in every requested format. base is the output path
// without extension; DICOM images go into the directory base.
func Write(ctx context.Context, base string, ds *synth.Dataset, opts Options) ([]Output, error) {
	outputs := make([]Output, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		path := base + format.Extension()
		switch format {
		case util.FormatStore:
			if err := WriteStore(ctx, path, ds, opts.Logger); err != nil {
				return outputs, err
			}
			outputs = append(outputs, Output{Format: format, Path: path, Files: 1})
		case util.FormatHDF5:
			if err := WriteHDF5(path, ds); err != nil {
				return outputs, fmt.Errorf("write hdf5: %w", err)
			}
			outputs = append(outputs, Output{Format: format, Path: path, Files: 1})
		case util.FormatDICOM:
			files, err := WriteDICOM(ctx, filepath.Clean(path), ds, opts.DICOM)
			if err != nil {
				return outputs, fmt.Errorf("write dicom: %w", err)
			}
			outputs = append(outputs, Output{Format: format, Path: path, Files: len(files)})
		default:
			return outputs, fmt.Errorf("unsupported format %v", format)
		}
	}
	return outputs, nil
}
