package pixgrid

import (
	"fmt"
	"image"
	"image/color"
)

// BitDepth is the width of one sample. The largest value a sample can
// hold doubles as the mask sentinel.
type BitDepth int

const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
	Depth32 BitDepth = 32
)

func (d BitDepth) Max() uint32 { return uint32(uint64(1)<<uint(d) - 1) }

func (d BitDepth) Valid() bool { return d == Depth8 || d == Depth16 || d == Depth32 }

// A Grid is a row-major grid of integer detector samples. x runs along
// the fast axis (columns), y along the slow axis (rows).
type Grid struct {
	stride int
	rows   int
	depth  BitDepth
	values []uint32
}

func New(w, h int, depth BitDepth) *Grid {
	return &Grid{
		stride: w,
		rows:   h,
		depth:  depth,
		values: make([]uint32, w*h),
	}
}

func (g *Grid) Set(x, y int, v uint32) { g.values[g.stride*y+x] = v }
func (g *Grid) Get(x, y int) uint32    { return g.values[g.stride*y+x] }
func (g *Grid) Dx() int                { return g.stride }
func (g *Grid) Dy() int                { return g.rows }
func (g *Grid) Depth() BitDepth        { return g.depth }
func (g *Grid) Max() uint32            { return g.depth.Max() }

// Row returns row y as a slice sharing storage with the grid.
func (g *Grid) Row(y int) []uint32 { return g.values[g.stride*y : g.stride*(y+1)] }

// NewFromThis returns a zeroed grid with the same shape and depth.
func (g *Grid) NewFromThis() *Grid { return New(g.Dx(), g.Dy(), g.depth) }

func (g *Grid) Copy() *Grid {
	g2 := g.NewFromThis()
	copy(g2.values, g.values)
	return g2
}

// Fill sets every sample to v.
func (g *Grid) Fill(v uint32) {
	for i := range g.values {
		g.values[i] = v
	}
}

// Equal reports whether both grids have the same shape, depth and samples.
func (g *Grid) Equal(o *Grid) bool {
	if g.stride != o.stride || g.rows != o.rows || g.depth != o.depth {
		return false
	}
	for i, v := range g.values {
		if o.values[i] != v {
			return false
		}
	}
	return true
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid[%dx%d, u%d]", g.Dy(), g.Dx(), g.depth)
}

// FromImage copies a single channel gray image into a grid. Only 8 and
// 16 bit gray models carry exact detector counts, so anything else is
// refused rather than converted.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()

	switch src := img.(type) {
	case *image.Gray:
		g := New(b.Dx(), b.Dy(), Depth8)
		for y := 0; y < b.Dy(); y++ {
			row := g.Row(y)
			for x := range row {
				row[x] = uint32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return g, nil

	case *image.Gray16:
		g := New(b.Dx(), b.Dy(), Depth16)
		for y := 0; y < b.Dy(); y++ {
			row := g.Row(y)
			for x := range row {
				row[x] = uint32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return g, nil

	default:
		return nil, fmt.Errorf("unsupported color model %T, want 8 or 16 bit gray", img)
	}
}

// ToImage converts the grid back into a gray image of matching depth.
func (g *Grid) ToImage() (image.Image, error) {
	r := image.Rect(0, 0, g.Dx(), g.Dy())

	switch g.depth {
	case Depth8:
		img := image.NewGray(r)
		for y := 0; y < g.Dy(); y++ {
			for x, v := range g.Row(y) {
				img.SetGray(x, y, color.Gray{Y: uint8(v)})
			}
		}
		return img, nil

	case Depth16:
		img := image.NewGray16(r)
		for y := 0; y < g.Dy(); y++ {
			for x, v := range g.Row(y) {
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("no gray image model for %d bit samples", g.depth)
	}
}
