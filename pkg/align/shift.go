package align

import (
	"fmt"

	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
)

// A Point is a beam centre in pixels. X runs along the fast axis
// (columns), Y along the slow axis (rows).
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) String() string { return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y) }

// A Shift is how far, in whole pixels, the measured beam centre of an
// image sits from the reference centre. Applying it moves the image
// content by (-Rows, -Cols), so the beam lands on the reference.
type Shift struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

func (s Shift) String() string { return fmt.Sprintf("Shift[rows %+d, cols %+d]", s.Rows, s.Cols) }

func (s Shift) IsZero() bool { return s.Rows == 0 && s.Cols == 0 }

func (s Shift) Inverse() Shift { return Shift{Rows: -s.Rows, Cols: -s.Cols} }

// ComputeShift works out the shift for one image from its smoothed,
// whole pixel beam centre. The fast axis gives the column shift, the
// slow axis the row shift. The reference stays fractional until after
// the subtraction, and the difference is truncated towards zero.
func ComputeShift(ref Point, smoothedFast, smoothedSlow int) Shift {
	return Shift{
		Rows: int(float64(smoothedSlow) - ref.Y),
		Cols: int(float64(smoothedFast) - ref.X),
	}
}

// ComputeShifts applies ComputeShift to every image of a sweep.
func ComputeShifts(ref Point, fast, slow []int) ([]Shift, error) {
	if len(fast) != len(slow) {
		return nil, fmt.Errorf("compute shifts: %d fast centres but %d slow", len(fast), len(slow))
	}

	shifts := make([]Shift, len(fast))
	for i := range fast {
		shifts[i] = ComputeShift(ref, fast[i], slow[i])
	}
	return shifts, nil
}

// Apply returns a translated copy of g: out(x, y) = in(x+Cols, y+Rows).
// Pixels that would come from outside the image are zero; nothing wraps
// around and nothing is interpolated.
func (s Shift) Apply(g *pixgrid.Grid) *pixgrid.Grid {
	out := g.NewFromThis()
	w, h := g.Dx(), g.Dy()

	// The range of output columns whose source column is inside the image
	x0 := max(0, -s.Cols)
	x1 := min(w, w-s.Cols)
	if x0 >= x1 {
		return out
	}

	for y := 0; y < h; y++ {
		sy := y + s.Rows
		if sy < 0 || sy >= h {
			continue
		}
		copy(out.Row(y)[x0:x1], g.Row(sy)[x0+s.Cols:x1+s.Cols])
	}
	return out
}
