// Package timepix normalises the pixel pitch of a 2x2 quad of Timepix
// chips. The pixels on the outer edge of each chip, and on either side
// of the seams between chips, are physically wider than the rest; we
// split each of them into two pixels of normal width, and mask the
// cross where the chips meet.
package timepix

import (
	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
)

const (
	SensorSize   = 512 // raw quad, pixels per side
	ExpandedSize = 516 // after splitting the wide pixels

	CrossStart = 256 // first masked row/column of the expanded image
	CrossWidth = 4
)

// wideIndices are the rows/columns of the raw sensor that get
// duplicated. They must be walked in this (descending) order: each
// insertion shifts everything after it along by one, so doing the
// highest index first leaves the lower ones where we expect them.
var wideIndices = []int{511, 256, 255, 0}

// Expand splits the wide pixels of a 512x512 quad image, returning a
// new 516x516 grid of the same bit depth. Columns are done first, then
// rows on the 512x516 intermediate.
func Expand(g *pixgrid.Grid) (*pixgrid.Grid, error) {
	if err := pixgrid.CheckShape("expand", g, SensorSize, SensorSize); err != nil {
		return nil, err
	}

	out := g
	for _, col := range wideIndices {
		out = duplicateColumn(out, col)
	}
	for _, row := range wideIndices {
		out = duplicateRow(out, row)
	}

	return out, nil
}

// MaskCross sets the four pixel wide central cross of a 516x516 grid to
// the grid's maximum sample value, in place.
func MaskCross(g *pixgrid.Grid) error {
	if err := pixgrid.CheckShape("mask cross", g, ExpandedSize, ExpandedSize); err != nil {
		return err
	}

	maskVal := g.Max()
	for y := CrossStart; y < CrossStart+CrossWidth; y++ {
		row := g.Row(y)
		for x := range row {
			row[x] = maskVal
		}
	}
	for y := 0; y < g.Dy(); y++ {
		row := g.Row(y)
		for x := CrossStart; x < CrossStart+CrossWidth; x++ {
			row[x] = maskVal
		}
	}

	return nil
}

// ExpandAndMask is Expand followed by MaskCross.
func ExpandAndMask(g *pixgrid.Grid) (*pixgrid.Grid, error) {
	out, err := Expand(g)
	if err != nil {
		return nil, err
	}
	if err := MaskCross(out); err != nil {
		return nil, err
	}
	return out, nil
}

// duplicateColumn returns a grid one column wider, with a copy of column
// `col` inserted immediately after it.
func duplicateColumn(g *pixgrid.Grid, col int) *pixgrid.Grid {
	out := pixgrid.New(g.Dx()+1, g.Dy(), g.Depth())
	for y := 0; y < g.Dy(); y++ {
		src, dst := g.Row(y), out.Row(y)
		copy(dst[:col+1], src[:col+1])
		dst[col+1] = src[col]
		copy(dst[col+2:], src[col+1:])
	}
	return out
}

// duplicateRow returns a grid one row taller, with a copy of row `row`
// inserted immediately after it.
func duplicateRow(g *pixgrid.Grid, row int) *pixgrid.Grid {
	out := pixgrid.New(g.Dx(), g.Dy()+1, g.Depth())
	for y := 0; y < g.Dy(); y++ {
		dy := y
		if y > row {
			dy++
		}
		copy(out.Row(dy), g.Row(y))
	}
	copy(out.Row(row+1), g.Row(row))
	return out
}
