package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/expand-and-shift/pkg/align"
	"github.com/abworrall/expand-and-shift/pkg/beamcentre"
	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
	"github.com/abworrall/expand-and-shift/pkg/tiffio"
	"github.com/abworrall/expand-and-shift/pkg/timepix"
)

// memSink keeps written grids in memory, and fails on request.
type memSink struct {
	written map[string]*pixgrid.Grid
	fail    map[string]bool
}

func newMemSink() *memSink {
	return &memSink{written: map[string]*pixgrid.Grid{}, fail: map[string]bool{}}
}

func (s *memSink) Write(g *pixgrid.Grid, filename, software string) error {
	if software != Software {
		return errors.New("wrong software tag")
	}
	if s.fail[filepath.Base(filename)] {
		return errors.New("disk full")
	}
	s.written[filename] = g
	return nil
}

// fixture creates empty placeholder files, and a loader that serves the
// given grid for each of them.
func fixture(t *testing.T, grids map[string]*pixgrid.Grid) (string, Loader) {
	dir := t.TempDir()
	for name := range grids {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	load := func(filename string) (*pixgrid.Grid, error) {
		g, ok := grids[filepath.Base(filename)]
		if !ok || g == nil {
			return nil, errors.New("unreadable")
		}
		return g.Copy(), nil
	}
	return dir, load
}

func TestExpanderSkipsBadInputs(t *testing.T) {
	raw := pixgrid.New(timepix.SensorSize, timepix.SensorSize, pixgrid.Depth16)
	raw.Set(10, 20, 42)

	dir, load := fixture(t, map[string]*pixgrid.Grid{
		"good.tif":  raw,
		"small.tif": pixgrid.New(100, 100, pixgrid.Depth16),
	})
	out := t.TempDir()
	sink := newMemSink()
	log, hook := test.NewNullLogger()

	e := NewExpander(Options{OutputDir: out, Load: load, Sink: sink, Log: log})
	r := e.Run([]string{
		filepath.Join(dir, "good.tif"),
		filepath.Join(dir, "missing.tif"),
		filepath.Join(dir, "small.tif"),
	})

	require.Equal(t, []string{filepath.Join(out, "expanded_good.tif")}, r.Written)
	require.Len(t, r.Skipped, 2)

	var missing *MissingFileError
	assert.ErrorAs(t, r.Skipped[0].Err, &missing)
	var shape *pixgrid.ShapeError
	assert.ErrorAs(t, r.Skipped[1].Err, &shape)

	g := sink.written[filepath.Join(out, "expanded_good.tif")]
	require.NotNil(t, g)
	assert.Equal(t, pixgrid.Shape{Rows: timepix.ExpandedSize, Cols: timepix.ExpandedSize}, g.Shape())
	assert.Equal(t, uint32(42), g.Get(11, 21))
	assert.Equal(t, g.Max(), g.Get(257, 3))

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestExpanderContinuesAfterSinkFailure(t *testing.T) {
	raw := pixgrid.New(timepix.SensorSize, timepix.SensorSize, pixgrid.Depth16)
	dir, load := fixture(t, map[string]*pixgrid.Grid{"a.tif": raw, "b.tif": raw, "c.tif": nil})
	sink := newMemSink()
	sink.fail["expanded_a.tif"] = true
	log, _ := test.NewNullLogger()

	r := NewExpander(Options{Load: load, Sink: sink, Log: log}).Run([]string{
		filepath.Join(dir, "a.tif"),
		filepath.Join(dir, "b.tif"),
		filepath.Join(dir, "c.tif"),
	})

	assert.Equal(t, []string{"expanded_b.tif"}, r.Written)
	require.Len(t, r.Skipped, 2)
	for _, skip := range r.Skipped {
		var item *ItemError
		assert.ErrorAs(t, skip.Err, &item)
	}
	assert.Equal(t, "1 written, 2 skipped", r.String())
}

func constantSeries(n int, fast, slow float64) beamcentre.Series {
	s := beamcentre.Series{}
	for i := 0; i < n; i++ {
		s = append(s, beamcentre.Sample{Index: i + 1, Fast: fast, Slow: slow})
	}
	return s
}

func TestShifter(t *testing.T) {
	frame := pixgrid.New(timepix.ExpandedSize, timepix.ExpandedSize, pixgrid.Depth16)
	frame.Set(100, 100, 7)

	dir, load := fixture(t, map[string]*pixgrid.Grid{
		"f1.tif": frame,
		"f2.tif": frame,
		"f3.tif": pixgrid.New(timepix.SensorSize, timepix.SensorSize, pixgrid.Depth16),
		"f4.tif": frame,
	})
	out := t.TempDir()
	sink := newMemSink()
	log, _ := test.NewNullLogger()
	record := filepath.Join(out, "shifts.yaml")

	// Three positions for four frames: the last frame has no shift.
	s := NewShifter(Options{OutputDir: out, Load: load, Sink: sink, Log: log},
		align.Point{X: 258, Y: 259.5}, constantSeries(3, 260.0, 258.0))
	s.Smoother.Log = log
	s.RecordPath = record

	r, err := s.Run([]string{
		filepath.Join(dir, "f1.tif"),
		filepath.Join(dir, "f2.tif"),
		filepath.Join(dir, "f3.tif"),
		filepath.Join(dir, "f4.tif"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(out, "shifted_f1.tif"),
		filepath.Join(out, "shifted_f2.tif"),
	}, r.Written)
	require.Len(t, r.Skipped, 2)
	var shape *pixgrid.ShapeError
	assert.ErrorAs(t, r.Skipped[0].Err, &shape)
	var item *ItemError
	assert.ErrorAs(t, r.Skipped[1].Err, &item)

	// cols = int(260 - 258) = 2, rows = int(258 - 259.5) = -1
	g := sink.written[filepath.Join(out, "shifted_f1.tif")]
	require.NotNil(t, g)
	assert.Equal(t, uint32(7), g.Get(98, 101))
	assert.Equal(t, uint32(0), g.Get(100, 100))

	rec, err := align.LoadRecord(record)
	require.NoError(t, err)
	assert.Equal(t, align.Shift{Rows: -1, Cols: 2}, rec.Shifts["f2.tif"])
}

func TestShifterRejectsBadSeries(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := NewShifter(Options{Log: log}, align.Point{}, nil)
	s.Smoother.Log = log

	_, err := s.Run([]string{"whatever.tif"})
	assert.Error(t, err)
}

func TestWithTiffFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.tif")
	raw := pixgrid.New(timepix.SensorSize, timepix.SensorSize, pixgrid.Depth16)
	raw.Set(511, 511, 1000)
	require.NoError(t, tiffio.Sink{}.Write(raw, in, Software))

	log, _ := test.NewNullLogger()
	r := NewExpander(Options{OutputDir: filepath.Join(dir, "out"), Log: log}).Run([]string{in})
	require.Len(t, r.Written, 1)

	g, err := tiffio.Load(r.Written[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), g.Get(515, 515))
	assert.Equal(t, uint32(1000), g.Get(514, 514))
}

func TestShifterRecordsOnlyWrittenFrames(t *testing.T) {
	frame := pixgrid.New(timepix.ExpandedSize, timepix.ExpandedSize, pixgrid.Depth16)
	dir, load := fixture(t, map[string]*pixgrid.Grid{"f1.tif": frame, "f2.tif": frame})
	out := t.TempDir()
	sink := newMemSink()
	sink.fail["shifted_f2.tif"] = true
	log, _ := test.NewNullLogger()

	s := NewShifter(Options{OutputDir: out, Load: load, Sink: sink, Log: log},
		align.Point{X: 258, Y: 259.5}, constantSeries(2, 258.0, 259.0))
	s.Smoother.Log = log
	s.RecordPath = filepath.Join(out, "shifts.yaml")

	r, err := s.Run([]string{filepath.Join(dir, "f1.tif"), filepath.Join(dir, "f2.tif")})
	require.NoError(t, err)
	require.Len(t, r.Written, 1)
	require.Len(t, r.Skipped, 1)

	rec, err := align.LoadRecord(s.RecordPath)
	require.NoError(t, err)
	assert.Contains(t, rec.Shifts, "f1.tif")
	assert.NotContains(t, rec.Shifts, "f2.tif")
}

func TestLoaderReturningNoGrid(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tif")
	empty := filepath.Join(dir, "empty.tif")
	require.NoError(t, os.WriteFile(good, nil, 0644))
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	load := func(filename string) (*pixgrid.Grid, error) {
		if filename == empty {
			return nil, nil
		}
		return pixgrid.New(timepix.SensorSize, timepix.SensorSize, pixgrid.Depth16), nil
	}
	log, _ := test.NewNullLogger()

	r := NewExpander(Options{Load: load, Sink: newMemSink(), Log: log}).Run([]string{empty, good})

	assert.Equal(t, []string{"expanded_good.tif"}, r.Written)
	require.Len(t, r.Skipped, 1)
	var item *ItemError
	assert.ErrorAs(t, r.Skipped[0].Err, &item)
	assert.Equal(t, empty, item.Path)
}

func TestDebugEnabled(t *testing.T) {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.InfoLevel)
	assert.False(t, debugEnabled(log))
	assert.False(t, debugEnabled(log.WithField("path", "x")))

	log.SetLevel(logrus.DebugLevel)
	assert.True(t, debugEnabled(log))
	assert.True(t, debugEnabled(log.WithField("path", "x")))
}
