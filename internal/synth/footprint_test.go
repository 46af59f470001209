package synth

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestCandidateCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 2},
		{2, 3},
		{3, 5},
		{10, 15},
		{11, 17},
	}
	for _, tt := range tests {
		if got := CandidateCount(tt.n); got != tt.want {
			t.Errorf("CandidateCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
		if CandidateCount(tt.n) < tt.n {
			t.Errorf("CandidateCount(%d) < %d", tt.n, tt.n)
		}
	}
}

func TestSampleCenters_InsideBoundary(t *testing.T) {
	rng := NewRand(7)
	dims := Dims{Height: 30, Width: 20}
	centers, err := sampleCenters(rng, dims, 4, 200)
	if err != nil {
		t.Fatalf("sampleCenters failed: %v", err)
	}
	for i, c := range centers {
		if c.Row < 4 || c.Row >= dims.Height-4 || c.Col < 4 || c.Col >= dims.Width-4 {
			t.Errorf("center %d = (%d,%d) outside inset region", i, c.Row, c.Col)
		}
		if !c.Kept {
			t.Errorf("center %d should start kept", i)
		}
	}
}

func TestSampleCenters_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name string
		dims Dims
	}{
		{"too short", Dims{Height: 8, Width: 48}},
		{"too narrow", Dims{Height: 48, Width: 7}},
		{"empty", Dims{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sampleCenters(NewRand(1), tt.dims, 4, 3)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("expected ErrInvalidDimensions, got %v", err)
			}
		})
	}
}

func TestTruncateAndNormalize(t *testing.T) {
	col := []float64{0.05, 1, 2, 4, 0.2}
	truncateAndNormalize(col, 0.1)

	if col[0] != 0 || col[4] != 0 {
		t.Errorf("values below 10%% of peak should be zeroed, got %v", col)
	}
	if norm := floats.Norm(col, 2); math.Abs(norm-1) > 1e-12 {
		t.Errorf("norm = %v, want 1", norm)
	}

	zero := make([]float64, 4)
	truncateAndNormalize(zero, 0.1)
	for _, v := range zero {
		if v != 0 || math.IsNaN(v) {
			t.Fatalf("zero column should stay zero, got %v", zero)
		}
	}
}

func TestPruneByOverlap_DropsMostOverlapping(t *testing.T) {
	// 0 and 2 overlap strongly, 1 is isolated, 3 overlaps a little with 0.
	overlap := mat.NewDense(4, 4, []float64{
		0, 0, 0.9, 0.1,
		0, 0, 0, 0,
		0.9, 0, 0, 0,
		0.1, 0, 0, 0,
	})
	keep := []bool{true, true, true, true}
	pruneByOverlap(overlap, keep, 3)

	want := []bool{true, true, false, true}
	for i := range keep {
		if keep[i] != want[i] {
			t.Fatalf("keep = %v, want %v", keep, want)
		}
	}

	pruneByOverlap(overlap, keep, 2)
	want = []bool{true, true, false, false}
	for i := range keep {
		if keep[i] != want[i] {
			t.Fatalf("keep = %v, want %v", keep, want)
		}
	}
}

func TestPruneByOverlap_TieBreakLowestIndex(t *testing.T) {
	// All overlaps equal: the first kept pair in row-major order is (0,1),
	// so candidate 1 goes first, then 2.
	overlap := mat.NewDense(3, 3, []float64{
		0, 0.5, 0.5,
		0.5, 0, 0.5,
		0.5, 0.5, 0,
	})
	keep := []bool{true, true, true}
	pruneByOverlap(overlap, keep, 1)
	if !keep[0] || keep[1] || keep[2] {
		t.Errorf("keep = %v, want [true false false]", keep)
	}
}

func TestPruneByOverlap_ZeroOverlapTerminates(t *testing.T) {
	overlap := mat.NewDense(4, 4, nil)
	keep := []bool{true, true, true, true}
	pruneByOverlap(overlap, keep, 2)

	count := 0
	for _, k := range keep {
		if k {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 kept, got %d (%v)", count, keep)
	}
}

func TestSynthesizeFootprints(t *testing.T) {
	for _, dog := range []bool{true, false} {
		for _, n := range []int{1, 2, 5, 10} {
			opts := DefaultOptions()
			opts.Cells = n
			opts.DifferenceOfGaussians = dog

			a, centers, err := synthesizeFootprints(NewRand(11), &opts)
			if err != nil {
				t.Fatalf("synthesizeFootprints(n=%d, dog=%v) failed: %v", n, dog, err)
			}

			rows, cols := a.Dims()
			if rows != opts.Dims.Pixels() || cols != n {
				t.Fatalf("footprints shape = %dx%d, want %dx%d", rows, cols, opts.Dims.Pixels(), n)
			}
			if len(centers) != CandidateCount(n) {
				t.Errorf("expected %d centers, got %d", CandidateCount(n), len(centers))
			}

			kept := 0
			for _, c := range centers {
				if c.Kept {
					kept++
				}
			}
			if kept != n {
				t.Errorf("expected %d kept centers, got %d", n, kept)
			}

			for j := 0; j < n; j++ {
				col := mat.Col(nil, j, a)
				norm := floats.Norm(col, 2)
				if norm != 0 && math.Abs(norm-1) > 1e-9 {
					t.Errorf("column %d norm = %v, want 1", j, norm)
				}
				if floats.Min(col) < 0 {
					t.Errorf("column %d has negative weights", j)
				}
			}
		}
	}
}

func TestSynthesizeFootprints_PeakNearCenter(t *testing.T) {
	opts := DefaultOptions()
	opts.DifferenceOfGaussians = false
	a, centers, err := synthesizeFootprints(NewRand(5), &opts)
	if err != nil {
		t.Fatalf("synthesizeFootprints failed: %v", err)
	}

	j := 0
	for _, c := range centers {
		if !c.Kept {
			continue
		}
		col := mat.Col(nil, j, a)
		peak := floats.MaxIdx(col)
		row, cc := peak%opts.Dims.Height, peak/opts.Dims.Height
		if row != c.Row || cc != c.Col {
			t.Errorf("footprint %d peaks at (%d,%d), center is (%d,%d)", j, row, cc, c.Row, c.Col)
		}
		j++
	}
}
