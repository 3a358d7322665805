package pixgrid

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Preview renders the grid as a titled PNG for a human to eyeball. The
// gray level is stretched over the range of unmasked samples, gamma
// scaled so faint diffraction is visible; masked samples are drawn red.
// The image is scaled up to `width` pixels with nearest neighbour, so
// duplicated pixels stay visibly square.
func (g *Grid) Preview(title, filename string, width int) error {
	if g.Dx() == 0 || g.Dy() == 0 {
		return fmt.Errorf("preview '%s': empty grid", filename)
	}

	sentinel := g.Max()
	min, max := uint32(math.MaxUint32), uint32(0)
	for _, v := range g.values {
		if v == sentinel {
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	span := float64(max) - float64(min)
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA64(image.Rect(0, 0, g.Dx(), g.Dy()))
	for y := 0; y < g.Dy(); y++ {
		for x, v := range g.Row(y) {
			if v == sentinel {
				img.Set(x, y, color.RGBA64{0xFFFF, 0, 0, 0xFFFF})
				continue
			}
			gray := uint16(gammaExpand((float64(v)-float64(min))/span) * 65535.0)
			img.Set(x, y, color.RGBA64{gray, gray, gray, 0xFFFF})
		}
	}

	out := image.Image(img)
	if width > g.Dx() {
		height := width * g.Dy() / g.Dx()
		scaled := image.NewRGBA64(image.Rect(0, 0, width, height))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = scaled
	}

	dc := gg.NewContextForImage(out)
	dc.SetRGB(1, 1, 0)
	dc.DrawString(title, 10, 20)
	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("preview '%s': %v", filename, err)
	}
	return nil
}

// sRGB style gamma expansion, for values in [0,1]
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
