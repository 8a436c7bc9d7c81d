package advisor

import (
	"math"
	"testing"
)

func TestReconstructEmptyGridIsUnknown(t *testing.T) {
	est := newAbsolute(t)
	field := est.Reconstruct(DefaultKernel())
	if field.Known() != 0 {
		t.Fatalf("Known() = %d, want 0", field.Known())
	}
	if _, _, ok := field.Peak(); ok {
		t.Fatal("empty field should have no peak")
	}
}

func TestReconstructSingleCellSpreadsWithinRadius(t *testing.T) {
	est := newAbsolute(t)
	est.RecordInPlace(-50)

	field := est.Reconstruct(Kernel{Radius: 2, Sigma: 1})

	for row := 0; row < field.Size(); row++ {
		for col := 0; col < field.Size(); col++ {
			dr, dc := row-5, col-5
			inside := dr*dr+dc*dc <= 4
			v := field.At(row, col)
			if v.IsKnown() != inside {
				t.Fatalf("cell (%d,%d) known=%v, want %v", row, col, v.IsKnown(), inside)
			}
			if inside {
				if got, _ := v.Value(); math.Abs(got+50) > 1e-9 {
					t.Fatalf("cell (%d,%d) = %v, want -50", row, col, got)
				}
			}
		}
	}

	w0, w1, w2 := field.Weight(5, 5), field.Weight(5, 6), field.Weight(5, 7)
	if !(w0 > w1 && w1 > w2 && w2 > 0) {
		t.Fatalf("weights not strictly decaying: %v, %v, %v", w0, w1, w2)
	}
	if math.Abs(w1-math.Exp(-0.5)) > 1e-12 {
		t.Fatalf("unit-distance weight = %v, want %v", w1, math.Exp(-0.5))
	}
	if field.Weight(5, 8) != 0 {
		t.Fatalf("weight outside radius = %v, want 0", field.Weight(5, 8))
	}
}

func TestReconstructWeighsByConfidence(t *testing.T) {
	est := newAbsolute(t)
	est.AddAbsoluteSample(-1, 0, -40)
	est.AddAbsoluteSample(1, 0, -60)
	est.AddAbsoluteSample(1, 0, -60)
	est.AddAbsoluteSample(1, 0, -60)

	field := est.Reconstruct(Kernel{Radius: 1, Sigma: 1})

	got, ok := field.At(5, 5).Value()
	if !ok {
		t.Fatal("centre should be reconstructed")
	}
	// Equal distances, so only confidence (1 vs 3) weights the average.
	want := (1*-40.0 + 3*-60.0) / 4
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("centre = %v, want %v", got, want)
	}
}

func TestReconstructDoesNotMutateGrid(t *testing.T) {
	est := newAbsolute(t)
	est.RecordInPlace(-50)
	before := est.Cells()

	est.Reconstruct(Kernel{Radius: 3, Sigma: 2})

	after := est.Cells()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("cell %v changed: %+v -> %+v", before[i].Cell, before[i], after[i])
		}
	}
}

func TestReconstructZeroRadiusCopiesKnownCells(t *testing.T) {
	est := newAbsolute(t)
	est.AddAbsoluteSample(2, 1, -42)

	field := est.Reconstruct(Kernel{Radius: 0})
	if field.Known() != 1 {
		t.Fatalf("Known() = %d, want 1", field.Known())
	}
	c, v, ok := field.Peak()
	if !ok || c != (Cell{Row: 4, Col: 7}) || v != -42 {
		t.Fatalf("Peak() = %v %v %v, want (4,7) -42 true", c, v, ok)
	}
	if field.At(-1, 0).IsKnown() {
		t.Fatal("off-grid At should be unknown")
	}
	if rows := field.Rows(); len(rows) != 11 || !rows[4][7].IsKnown() {
		t.Fatalf("Rows() shape or content wrong")
	}
}
