// Package beamcentre loads the per-image beam positions measured across
// a sweep, and smooths them into whole-pixel beam centres.
package beamcentre

import "fmt"

// A Sample is the beam centre measured on one image, in pixels.
type Sample struct {
	Index int     // image number in the sweep
	Fast  float64 // along the fast axis (columns)
	Slow  float64 // along the slow axis (rows)
}

func (s Sample) String() string {
	return fmt.Sprintf("#%d (%7.2f,%7.2f)", s.Index, s.Fast, s.Slow)
}

// Series is the full, ordered set of samples for a sweep.
type Series []Sample

func (s Series) Indices() []int {
	out := make([]int, len(s))
	for i, smp := range s {
		out[i] = smp.Index
	}
	return out
}

func (s Series) Fast() []float64 {
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.Fast
	}
	return out
}

func (s Series) Slow() []float64 {
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.Slow
	}
	return out
}

// Validate checks the series is non-empty and the image numbers are
// strictly increasing.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("no beam positions")
	}
	for i := 1; i < len(s); i++ {
		if s[i].Index <= s[i-1].Index {
			return fmt.Errorf("image numbers not increasing at row %d (%d after %d)", i, s[i].Index, s[i-1].Index)
		}
	}
	return nil
}
