package pixgrid

import "fmt"

// Shape is a (rows, cols) pair.
type Shape struct {
	Rows, Cols int
}

func (s Shape) String() string { return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols) }

func (g *Grid) Shape() Shape { return Shape{Rows: g.Dy(), Cols: g.Dx()} }

// A ShapeError is returned when a grid does not have the exact shape an
// operation requires.
type ShapeError struct {
	Op   string
	Want Shape
	Got  Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: input must be of shape %s, got %s", e.Op, e.Want, e.Got)
}

// CheckShape returns a *ShapeError unless g is exactly rows x cols.
func CheckShape(op string, g *Grid, rows, cols int) error {
	want := Shape{Rows: rows, Cols: cols}
	if g == nil {
		return &ShapeError{Op: op, Want: want}
	}
	if got := g.Shape(); got != want {
		return &ShapeError{Op: op, Want: want, Got: got}
	}
	return nil
}
