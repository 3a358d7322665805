package beamcentre

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	axis     string
	indices  []int
	raw      []float64
	smoothed []float64
	whole    []int
}

func (r *recordingReporter) Report(axis string, indices []int, raw, smoothed []float64, whole []int) error {
	r.axis, r.indices, r.raw, r.smoothed, r.whole = axis, indices, raw, smoothed, whole
	return nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestGaussianKernel(t *testing.T) {
	k := GaussianKernel(3, 4)
	require.Len(t, k, 25) // radius int(4*3+0.5) = 12

	sum := 0.0
	for i, w := range k {
		sum += w
		assert.InDelta(t, w, k[len(k)-1-i], 1e-15, "kernel must be symmetric")
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 1.0/(3*math.Sqrt(2*math.Pi)), k[12], 1e-4)
}

func TestGaussianFilterImpulse(t *testing.T) {
	values := make([]float64, 41)
	values[20] = 1

	out := GaussianFilter1D(values, 3, 4)
	k := GaussianKernel(3, 4)
	for i := 0; i < len(k); i++ {
		assert.InDelta(t, k[i], out[8+i], 1e-12)
	}
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[40])
}

func TestGaussianFilterReflectsAtEdges(t *testing.T) {
	// A ramp mirrored about the edge of its first sample looks like
	// 2 1 0 | 0 1 2 ..., so the first output is pulled upwards.
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i)
	}
	out := GaussianFilter1D(values, 3, 4)
	assert.Greater(t, out[0], 0.0)
	assert.InDelta(t, 15.0, out[15], 1e-9, "interior of a ramp is unchanged")

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 0, 0}, []int{
		reflectIndex(-1, 3), reflectIndex(0, 3), reflectIndex(5, 3),
		reflectIndex(4, 3), reflectIndex(-2, 3), reflectIndex(7, 3),
		reflectIndex(-13, 1), reflectIndex(12, 1),
	})
}

func TestSmoothConstantSeries(t *testing.T) {
	for _, n := range []int{1, 2, 5, 24, 100} {
		centres := make([]float64, n)
		for i := range centres {
			centres[i] = 257.3
		}
		whole, err := Smooth(seq(n), centres, "fast")
		require.NoError(t, err)
		require.Len(t, whole, n)
		for _, w := range whole {
			assert.Equal(t, 257, w)
		}
	}
}

func TestSmoothRemovesJitter(t *testing.T) {
	centres := make([]float64, 60)
	for i := range centres {
		centres[i] = 300.1
		if i%2 == 0 {
			centres[i] += 0.6
		}
	}

	whole, err := Smooth(seq(60), centres, "slow")
	require.NoError(t, err)
	for i, w := range whole {
		assert.Equal(t, 300, w, "image %d", i)
	}
}

func TestSmoothRoundsHalfToEven(t *testing.T) {
	s := NewSmoother()
	s.Sigma = 0 // no filtering, just rounding

	whole, err := s.Smooth([]int{1, 2, 3, 4}, []float64{2.5, 3.5, -0.5, 7.49}, "fast")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 0, 7}, whole)
}

func TestSmoothEmptyAndMismatched(t *testing.T) {
	whole, err := Smooth(nil, nil, "fast")
	require.NoError(t, err)
	assert.Empty(t, whole)

	_, err = Smooth([]int{1, 2}, []float64{1}, "fast")
	assert.Error(t, err)
}

func TestSmoothReports(t *testing.T) {
	rec := &recordingReporter{}
	s := NewSmoother()
	s.Reporter = rec

	centres := []float64{10.1, 10.2, 10.4, 10.3}
	whole, err := s.Smooth([]int{3, 4, 7, 9}, centres, "slow")
	require.NoError(t, err)

	assert.Equal(t, "slow", rec.axis)
	assert.Equal(t, []int{3, 4, 7, 9}, rec.indices)
	assert.Equal(t, centres, rec.raw)
	assert.Len(t, rec.smoothed, 4)
	assert.Equal(t, whole, rec.whole)
}

func TestPlotReporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	s := NewSmoother()
	s.Reporter = PlotReporter{Dir: dir}

	centres := []float64{100.2, 100.6, 101.1, 101.4, 101.9, 102.2}
	_, err := s.Smooth(seq(len(centres)), centres, "fast")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "shift_images_fast.png"))
}
