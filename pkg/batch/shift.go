package batch

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abworrall/expand-and-shift/pkg/align"
	"github.com/abworrall/expand-and-shift/pkg/beamcentre"
	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
	"github.com/abworrall/expand-and-shift/pkg/timepix"
)

// ShiftedPrefix is prepended to the name of each shifted image.
const ShiftedPrefix = "shifted_"

// A Shifter moves each expanded image of a sweep so that its beam
// centre sits on the reference. Frame i of the input list is paired
// with row i of the beam position series.
type Shifter struct {
	Options

	Reference  align.Point
	Series     beamcentre.Series
	Smoother   *beamcentre.Smoother
	RecordPath string // if set, the applied shifts are written here

	shifts []align.Shift
}

func NewShifter(opts Options, ref align.Point, series beamcentre.Series) *Shifter {
	return &Shifter{
		Options:   opts,
		Reference: ref,
		Series:    series,
		Smoother:  beamcentre.NewSmoother(),
	}
}

// Shifts smooths the whole beam centre series (once) and returns the
// shift for every frame.
func (s *Shifter) Shifts() ([]align.Shift, error) {
	if s.shifts != nil {
		return s.shifts, nil
	}
	if s.Smoother == nil {
		s.Smoother = beamcentre.NewSmoother()
	}

	if err := s.Series.Validate(); err != nil {
		return nil, err
	}

	indices := s.Series.Indices()
	fast, err := s.Smoother.Smooth(indices, s.Series.Fast(), "fast")
	if err != nil {
		return nil, err
	}
	slow, err := s.Smoother.Smooth(indices, s.Series.Slow(), "slow")
	if err != nil {
		return nil, err
	}

	shifts, err := align.ComputeShifts(s.Reference, fast, slow)
	if err != nil {
		return nil, err
	}
	s.shifts = shifts
	return shifts, nil
}

// Run shifts every frame. The error is only for problems that stop the
// run before any image is touched; per-image problems are in the Report.
func (s *Shifter) Run(frames []string) (Report, error) {
	s.defaults()

	shifts, err := s.Shifts()
	if err != nil {
		return Report{}, err
	}
	if len(shifts) != len(frames) {
		s.Log.WithFields(logrus.Fields{"images": len(frames), "positions": len(shifts)}).
			Warn("Number of beam positions does not match number of images")
	}

	record := align.NewRecord(s.Reference)
	want := pixgrid.Shape{Rows: timepix.ExpandedSize, Cols: timepix.ExpandedSize}

	r := s.run(frames, ShiftedPrefix, want, func(i int, path string, g *pixgrid.Grid) (*pixgrid.Grid, error) {
		if i >= len(shifts) {
			return nil, fmt.Errorf("no beam position for image %d", i)
		}
		s.Log.WithFields(logrus.Fields{"path": path, "shift": shifts[i]}).Debug("Shifting")
		return shifts[i].Apply(g), nil
	}, func(i int, path string) {
		record.Add(path, shifts[i])
	})

	if s.RecordPath != "" {
		if err := record.WriteYaml(s.RecordPath); err != nil {
			s.Log.WithError(err).Warn("Could not write shift record")
		}
	}

	return r, nil
}
