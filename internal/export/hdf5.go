package export

import (
	"fmt"

	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/scigolib/hdf5"
	"gonum.org/v1/gonum/mat"
)

// HDF5 dataset names, matching the keys of the SQLite store.
const (
	h5Yr      = "/Yr"
	h5TrueC   = "/trueC"
	h5TrueS   = "/trueS"
	h5TrueA   = "/trueA"
	h5TrueB   = "/trueb"
	h5TrueF   = "/truef"
	h5Centers = "/centers"
	h5Dims    = "/dims"
)

// WriteHDF5 writes the dataset into a single HDF5 file. Matrices are stored
// row-major with their natural shape (pixels x frames for Yr, pixels x cells
// for trueA); centers are M x 3 int64 rows of (row, col, kept).
func WriteHDF5(path string, ds *synth.Dataset) (err error) {
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	writeFloats := func(name string, data []float64, shape ...uint64) error {
		dw, err := fw.CreateDataset(name, hdf5.Float64, shape)
		if err != nil {
			return fmt.Errorf("create dataset %s: %w", name, err)
		}
		if err := dw.Write(data); err != nil {
			return fmt.Errorf("write dataset %s: %w", name, err)
		}
		return nil
	}
	writeInts := func(name string, data []int64, shape ...uint64) error {
		dw, err := fw.CreateDataset(name, hdf5.Int64, shape)
		if err != nil {
			return fmt.Errorf("create dataset %s: %w", name, err)
		}
		if err := dw.Write(data); err != nil {
			return fmt.Errorf("write dataset %s: %w", name, err)
		}
		return nil
	}

	for _, m := range []struct {
		name string
		data *mat.Dense
	}{
		{h5Yr, ds.Yr},
		{h5TrueC, ds.C},
		{h5TrueS, ds.S},
		{h5TrueA, ds.A},
	} {
		r, c := m.data.Dims()
		if err := writeFloats(m.name, rowMajor(m.data), uint64(r), uint64(c)); err != nil {
			return err
		}
	}

	if err := writeFloats(h5TrueB, vector(ds.B), uint64(ds.B.Len())); err != nil {
		return err
	}
	if err := writeFloats(h5TrueF, vector(ds.F), uint64(ds.F.Len())); err != nil {
		return err
	}

	centers := make([]int64, 0, 3*len(ds.Centers))
	for _, c := range ds.Centers {
		kept := int64(0)
		if c.Kept {
			kept = 1
		}
		centers = append(centers, int64(c.Row), int64(c.Col), kept)
	}
	if err := writeInts(h5Centers, centers, uint64(len(ds.Centers)), 3); err != nil {
		return err
	}

	dims := []int64{int64(ds.Dims.Height), int64(ds.Dims.Width)}
	return writeInts(h5Dims, dims, 2)
}

// rowMajor returns a contiguous row-major copy of m.
func rowMajor(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

func vector(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
