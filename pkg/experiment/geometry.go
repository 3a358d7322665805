package experiment

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/abworrall/expand-and-shift/pkg/align"
)

// RayIntersection returns where a ray along `s` hits the panel plane, in
// mm along the fast and slow axes from the panel origin.
func (p Panel) RayIntersection(s Vec3) (float64, float64, error) {
	// Columns are fast, slow, origin: d.v == s gives the ray in panel coords
	d := mat.NewDense(3, 3, []float64{
		p.FastAxis[0], p.SlowAxis[0], p.Origin[0],
		p.FastAxis[1], p.SlowAxis[1], p.Origin[1],
		p.FastAxis[2], p.SlowAxis[2], p.Origin[2],
	})

	var v mat.VecDense
	if err := v.SolveVec(d, mat.NewVecDense(3, s[:])); err != nil {
		return 0, 0, fmt.Errorf("panel '%s' geometry is degenerate: %v", p.Name, err)
	}
	if v.AtVec(2) <= 0 {
		return 0, 0, fmt.Errorf("ray does not hit panel '%s'", p.Name)
	}

	return v.AtVec(0) / v.AtVec(2), v.AtVec(1) / v.AtVec(2), nil
}

// MmToPx converts panel mm coordinates into pixels.
func (p Panel) MmToPx(fast, slow float64) (float64, float64, error) {
	if p.PixelSize[0] <= 0 || p.PixelSize[1] <= 0 {
		return 0, 0, fmt.Errorf("panel '%s' has pixel size %v", p.Name, p.PixelSize)
	}
	return fast / p.PixelSize[0], slow / p.PixelSize[1], nil
}

// BeamCentre is the pixel the direct beam hits, used as the fixed
// reference every image gets shifted to.
func (e *Experiment) BeamCentre() (align.Point, error) {
	panel, err := e.Panel()
	if err != nil {
		return align.Point{}, err
	}
	if e.Beam.Wavelength <= 0 {
		return align.Point{}, fmt.Errorf("beam wavelength %v is not positive", e.Beam.Wavelength)
	}

	fastMm, slowMm, err := panel.RayIntersection(e.Beam.S0())
	if err != nil {
		return align.Point{}, err
	}
	x, y, err := panel.MmToPx(fastMm, slowMm)
	if err != nil {
		return align.Point{}, err
	}

	return align.Point{X: x, Y: y}, nil
}

// ImagePaths lists the image files in sweep order. An explicit list
// wins; otherwise the run of '#' in the template is replaced by each
// image number of the scan, zero padded.
func (e *Experiment) ImagePaths() ([]string, error) {
	var paths []string

	switch {
	case len(e.ImageSet.Images) > 0:
		paths = append(paths, e.ImageSet.Images...)

	case e.ImageSet.Template != "":
		if e.Scan == nil {
			return nil, fmt.Errorf("imageset template '%s' has no scan", e.ImageSet.Template)
		}
		first, last := e.Scan.ImageRange[0], e.Scan.ImageRange[1]
		if last < first {
			return nil, fmt.Errorf("scan image range %v is empty", e.Scan.ImageRange)
		}
		for i := first; i <= last; i++ {
			p, err := expandTemplate(e.ImageSet.Template, i)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}

	default:
		return nil, fmt.Errorf("imageset lists no images")
	}

	for i, p := range paths {
		if !filepath.IsAbs(p) {
			paths[i] = filepath.Join(e.dir, p)
		}
	}
	return paths, nil
}

func expandTemplate(template string, n int) (string, error) {
	start := strings.LastIndex(template, "#")
	if start < 0 {
		return "", fmt.Errorf("template '%s' has no '#' placeholder", template)
	}
	end := start + 1
	for start > 0 && template[start-1] == '#' {
		start--
	}

	return fmt.Sprintf("%s%0*d%s", template[:start], end-start, n, template[end:]), nil
}
