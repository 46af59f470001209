// Package persist saves nested string-keyed mappings of numeric arrays,
// scalars and strings to a single SQLite file and loads them back.
//
// Keys are matched against a declared rule table that can skip them, store
// them as none, or coerce them into tuples and arrays before encoding.
package persist

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidKey is returned for empty keys and keys containing "/".
var ErrInvalidKey = errors.New("invalid key")

// ErrCorruptStore is returned when a stored hierarchy cannot be rebuilt.
var ErrCorruptStore = errors.New("corrupt store")

// UnsupportedTypeError reports a value that has no storage encoding.
type UnsupportedTypeError struct {
	Key  string // full path of the offending entry
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot save %s for key %q", e.Type, e.Key)
}

// Tuple is a short fixed sequence of numbers such as image dimensions.
type Tuple []float64

// Fielder is implemented by parameter objects that are stored as a nested
// mapping of their fields.
type Fielder interface {
	Fields() map[string]any
}

// SparseCSC is a matrix in compressed sparse column form.
type SparseCSC struct {
	Rows, Cols int
	Data       []float64
	Indices    []int64 // row index of each value
	Indptr     []int64 // len Cols+1, column c spans Data[Indptr[c]:Indptr[c+1]]
}

// NewSparseCSC compresses m, dropping exact zeros.
func NewSparseCSC(m mat.Matrix) *SparseCSC {
	rows, cols := m.Dims()
	s := &SparseCSC{Rows: rows, Cols: cols, Indptr: make([]int64, cols+1)}
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			if v := m.At(r, c); v != 0 {
				s.Data = append(s.Data, v)
				s.Indices = append(s.Indices, int64(r))
			}
		}
		s.Indptr[c+1] = int64(len(s.Data))
	}
	return s
}

// Dense expands the matrix.
func (s *SparseCSC) Dense() *mat.Dense {
	d := mat.NewDense(s.Rows, s.Cols, nil)
	for c := 0; c < s.Cols; c++ {
		for k := s.Indptr[c]; k < s.Indptr[c+1]; k++ {
			d.Set(int(s.Indices[k]), c, s.Data[k])
		}
	}
	return d
}

// NNZ returns the number of stored values.
func (s *SparseCSC) NNZ() int {
	return len(s.Data)
}

func (s *SparseCSC) validate() error {
	if s.Rows < 0 || s.Cols < 0 || len(s.Indptr) != s.Cols+1 || len(s.Indices) != len(s.Data) {
		return fmt.Errorf("%w: sparse matrix %dx%d with %d values, %d indices, %d pointers",
			ErrCorruptStore, s.Rows, s.Cols, len(s.Data), len(s.Indices), len(s.Indptr))
	}
	if s.Indptr[0] != 0 || s.Indptr[s.Cols] != int64(len(s.Data)) {
		return fmt.Errorf("%w: sparse column pointers out of range", ErrCorruptStore)
	}
	for c := 0; c < s.Cols; c++ {
		if s.Indptr[c] > s.Indptr[c+1] {
			return fmt.Errorf("%w: sparse column pointers not monotonic", ErrCorruptStore)
		}
	}
	for _, r := range s.Indices {
		if r < 0 || r >= int64(s.Rows) {
			return fmt.Errorf("%w: sparse row index %d out of range", ErrCorruptStore, r)
		}
	}
	return nil
}
