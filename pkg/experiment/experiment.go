// Package experiment reads the parts of a DIALS experiment list (.expt)
// needed to shift images: the beam, the detector panel and the list of
// image files.
package experiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
	"github.com/abworrall/expand-and-shift/pkg/timepix"
)

var (
	ErrExperimentCount = errors.New("exactly one experiment required")
	ErrMultiPanel      = errors.New("only a single panel detector is supported")
)

// A LoadError means the experiment list could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load '%s' as an experiment list: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type Vec3 [3]float64

type Beam struct {
	Direction  Vec3    `json:"direction"` // unit vector, sample towards source
	Wavelength float64 `json:"wavelength"`
}

// S0 is the incident beam vector, pointing from the source to the sample.
func (b Beam) S0() Vec3 {
	return Vec3{
		-b.Direction[0] / b.Wavelength,
		-b.Direction[1] / b.Wavelength,
		-b.Direction[2] / b.Wavelength,
	}
}

type Panel struct {
	Name      string     `json:"name"`
	Origin    Vec3       `json:"origin"`
	FastAxis  Vec3       `json:"fast_axis"`
	SlowAxis  Vec3       `json:"slow_axis"`
	PixelSize [2]float64 `json:"pixel_size"` // mm, fast then slow
	ImageSize [2]int     `json:"image_size"` // pixels, fast then slow
}

func (p Panel) Shape() pixgrid.Shape {
	return pixgrid.Shape{Rows: p.ImageSize[1], Cols: p.ImageSize[0]}
}

type Detector struct {
	Panels []Panel `json:"panels"`
}

type Scan struct {
	ImageRange [2]int `json:"image_range"`
}

type ImageSet struct {
	ID       string   `json:"__id__"`
	Template string   `json:"template"`
	Images   []string `json:"images"`
	Scan     *int     `json:"scan"`
}

// Refs index an experiment's models in the List.
type Refs struct {
	Beam     *int `json:"beam"`
	Detector *int `json:"detector"`
	ImageSet *int `json:"imageset"`
	Scan     *int `json:"scan"`
}

// List is the decoded experiment list file. The experiments refer to
// the shared models by index.
type List struct {
	Filename    string     `json:"-"`
	Experiments []Refs     `json:"experiment"`
	Beams       []Beam     `json:"beam"`
	Detectors   []Detector `json:"detector"`
	ImageSets   []ImageSet `json:"imageset"`
	Scans       []Scan     `json:"scan"`
}

// An Experiment is one experiment with its models resolved.
type Experiment struct {
	Beam     Beam
	Detector Detector
	ImageSet ImageSet
	Scan     *Scan

	dir string // relative image paths are taken from here
}

func Load(filename string) (*List, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}

	l := List{Filename: filename}
	if err := json.Unmarshal(contents, &l); err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}
	return &l, nil
}

// Single returns the only experiment in the list, with its models
// resolved.
func (l *List) Single() (*Experiment, error) {
	if len(l.Experiments) != 1 {
		return nil, fmt.Errorf("%w, '%s' has %d", ErrExperimentCount, l.Filename, len(l.Experiments))
	}
	refs := l.Experiments[0]

	e := Experiment{dir: filepath.Dir(l.Filename)}

	if i, err := lookup("beam", refs.Beam, len(l.Beams)); err != nil {
		return nil, err
	} else {
		e.Beam = l.Beams[i]
	}
	if i, err := lookup("detector", refs.Detector, len(l.Detectors)); err != nil {
		return nil, err
	} else {
		e.Detector = l.Detectors[i]
	}
	if i, err := lookup("imageset", refs.ImageSet, len(l.ImageSets)); err != nil {
		return nil, err
	} else {
		e.ImageSet = l.ImageSets[i]
	}

	scanRef := refs.Scan
	if scanRef == nil {
		scanRef = e.ImageSet.Scan
	}
	if scanRef != nil {
		i, err := lookup("scan", scanRef, len(l.Scans))
		if err != nil {
			return nil, err
		}
		e.Scan = &l.Scans[i]
	}

	return &e, nil
}

func lookup(model string, ref *int, n int) (int, error) {
	if ref == nil {
		return 0, fmt.Errorf("experiment has no %s", model)
	}
	if *ref < 0 || *ref >= n {
		return 0, fmt.Errorf("experiment %s index %d out of range (%d listed)", model, *ref, n)
	}
	return *ref, nil
}

// Panel returns the detector's only panel. It must be the size of an
// expanded quad, since that is what the shifted images are.
func (e *Experiment) Panel() (Panel, error) {
	if len(e.Detector.Panels) != 1 {
		return Panel{}, fmt.Errorf("%w, detector has %d", ErrMultiPanel, len(e.Detector.Panels))
	}
	p := e.Detector.Panels[0]
	if got := p.Shape(); got.Rows != timepix.ExpandedSize || got.Cols != timepix.ExpandedSize {
		return Panel{}, &pixgrid.ShapeError{
			Op:   "panel",
			Want: pixgrid.Shape{Rows: timepix.ExpandedSize, Cols: timepix.ExpandedSize},
			Got:  got,
		}
	}
	return p, nil
}
