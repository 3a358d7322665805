package beamcentre

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSigma    = 3.0 // in images
	DefaultTruncate = 4.0 // kernel radius, in sigmas
)

// A Reporter gets to see each axis as it is smoothed, e.g. to plot it.
type Reporter interface {
	Report(axis string, indices []int, raw, smoothed []float64, whole []int) error
}

// A Smoother turns a noisy beam centre series into whole pixel
// positions. The filter always spans the entire series, so it can only
// run once every beam position is known.
type Smoother struct {
	Sigma    float64
	Truncate float64
	Reporter Reporter // may be nil
	Log      logrus.FieldLogger
}

func NewSmoother() *Smoother {
	return &Smoother{
		Sigma:    DefaultSigma,
		Truncate: DefaultTruncate,
		Log:      logrus.StandardLogger(),
	}
}

// Smooth is NewSmoother().Smooth, with no reporting.
func Smooth(indices []int, centres []float64, axis string) ([]int, error) {
	return NewSmoother().Smooth(indices, centres, axis)
}

// Smooth gaussian filters the centres along one axis, then rounds each
// to the nearest pixel. Ties round to even. The result has one entry per
// input centre, in the same order.
func (s *Smoother) Smooth(indices []int, centres []float64, axis string) ([]int, error) {
	if len(indices) != len(centres) {
		return nil, fmt.Errorf("smooth %s: %d image numbers but %d centres", axis, len(indices), len(centres))
	}

	smoothed := GaussianFilter1D(centres, s.Sigma, s.Truncate)
	whole := make([]int, len(smoothed))
	for i, v := range smoothed {
		whole[i] = int(math.RoundToEven(v))
	}

	if s.Log != nil && len(centres) > 0 {
		mean, std := stat.MeanStdDev(centres, nil)
		s.Log.WithFields(logrus.Fields{
			"axis":  axis,
			"n":     len(centres),
			"mean":  mean,
			"std":   std,
			"drift": floats.Max(smoothed) - floats.Min(smoothed),
		}).Debug("Smoothed beam centre")
	}

	if s.Reporter != nil {
		if err := s.Reporter.Report(axis, indices, centres, smoothed, whole); err != nil && s.Log != nil {
			s.Log.WithError(err).WithField("axis", axis).Warn("Beam centre report failed")
		}
	}

	return whole, nil
}

// GaussianKernel returns the normalised weights for offsets -r..r, where
// r = int(truncate*sigma + 0.5).
func GaussianKernel(sigma, truncate float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1.0/floats.Sum(kernel), kernel)
	return kernel
}

// GaussianFilter1D convolves values with a gaussian kernel. Beyond the
// ends the series is mirrored about the edge of the end sample
// (d c b a | a b c d | d c b a), repeating as often as the kernel needs,
// so even a single value filters to itself.
func GaussianFilter1D(values []float64, sigma, truncate float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, values)
		return out
	}

	kernel := GaussianKernel(sigma, truncate)
	radius := len(kernel) / 2
	window := make([]float64, len(kernel))

	for i := range values {
		for k := range window {
			window[k] = values[reflectIndex(i+k-radius, n)]
		}
		out[i] = floats.Dot(window, kernel)
	}
	return out
}

func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
