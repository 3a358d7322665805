// Package batch runs a transform over a list of image files. A problem
// with one file is logged and skipped; it never stops the rest.
package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
	"github.com/abworrall/expand-and-shift/pkg/tiffio"
)

// Software is the tag handed to the sink with every image we write.
const Software = "expand-and-shift"

// A Loader reads one image file.
type Loader func(filename string) (*pixgrid.Grid, error)

// A Sink stores one output image.
type Sink interface {
	Write(g *pixgrid.Grid, filename, software string) error
}

// MissingFileError means an input file isn't there.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string { return fmt.Sprintf("'%s': file not found", e.Path) }

// ItemError wraps anything else that went wrong with one file.
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string { return fmt.Sprintf("'%s': %v", e.Path, e.Err) }
func (e *ItemError) Unwrap() error { return e.Err }

// A Skip is an input that produced no output, and why.
type Skip struct {
	Path string
	Err  error
}

// Report says what a run did.
type Report struct {
	Written []string
	Skipped []Skip
}

func (r Report) String() string {
	return fmt.Sprintf("%d written, %d skipped", len(r.Written), len(r.Skipped))
}

// Options are shared by the drivers. Zero values are filled in with the
// TIFF loader/sink and the standard logger.
type Options struct {
	OutputDir  string
	PreviewDir string
	Load       Loader
	Sink       Sink
	Log        logrus.FieldLogger
}

func (o *Options) defaults() {
	if o.Load == nil {
		o.Load = tiffio.Load
	}
	if o.Sink == nil {
		o.Sink = tiffio.Sink{}
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// OutputPath names the output for an input: the input's basename with a
// fixed prefix, in OutputDir.
func (o *Options) OutputPath(prefix, input string) string {
	return filepath.Join(o.OutputDir, prefix+filepath.Base(input))
}

// transformFunc turns the i'th input grid into an output grid.
type transformFunc func(i int, path string, g *pixgrid.Grid) (*pixgrid.Grid, error)

// doneFunc is told about each input whose output was written.
type doneFunc func(i int, path string)

// run is the per-file loop common to all drivers. done may be nil.
func (o *Options) run(paths []string, prefix string, want pixgrid.Shape, xform transformFunc, done doneFunc) Report {
	o.defaults()
	r := Report{}

	o.Log.Infof("Found %d image(s) to process", len(paths))

	for i, path := range paths {
		out, err := o.processOne(i, path, prefix, want, xform)
		if err != nil {
			r.Skipped = append(r.Skipped, Skip{Path: path, Err: err})

			var missing *MissingFileError
			var shape *pixgrid.ShapeError
			switch {
			case errors.As(err, &missing):
				o.Log.WithField("path", path).Warn("Skipping: file not found")
			case errors.As(err, &shape):
				o.Log.WithField("path", path).WithError(err).Warn("Skipping: wrong shape")
			default:
				o.Log.WithField("path", path).WithError(err).Error("An error occurred while processing")
			}
			continue
		}

		r.Written = append(r.Written, out)
		if done != nil {
			done(i, path)
		}
	}

	o.Log.Infof("All tasks complete: %s", r)
	return r
}

func (o *Options) processOne(i int, path, prefix string, want pixgrid.Shape, xform transformFunc) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", &MissingFileError{Path: path}
	} else if err != nil {
		return "", &ItemError{Path: path, Err: err}
	}

	log := o.Log.WithField("path", path)
	log.Debug("Processing")

	g, err := o.Load(path)
	if err != nil {
		return "", &ItemError{Path: path, Err: err}
	} else if g == nil {
		return "", &ItemError{Path: path, Err: errors.New("loader returned no image")}
	}
	log.WithFields(logrus.Fields{"shape": g.Shape(), "depth": g.Depth()}).Debug("Image loaded")

	if err := pixgrid.CheckShape("load", g, want.Rows, want.Cols); err != nil {
		return "", err
	}

	out, err := xform(i, path, g)
	if err != nil {
		return "", &ItemError{Path: path, Err: err}
	}
	if debugEnabled(o.Log) {
		log.WithFields(out.Stats().Fields()).Debug("Transformed")
	}

	outPath := o.OutputPath(prefix, path)
	if err := o.Sink.Write(out, outPath, Software); err != nil {
		return "", &ItemError{Path: path, Err: err}
	}
	log.WithField("output", outPath).Info("Image successfully saved")

	if o.PreviewDir != "" {
		o.writePreview(out, outPath)
	}

	return outPath, nil
}

// debugEnabled says whether debug lines would be emitted, so we can skip
// building expensive fields. Unknown loggers are assumed to want them.
func debugEnabled(l logrus.FieldLogger) bool {
	switch l := l.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

// Previews are a debugging aid; failing to write one is not an item error.
func (o *Options) writePreview(g *pixgrid.Grid, outPath string) {
	if err := os.MkdirAll(o.PreviewDir, 0755); err != nil {
		o.Log.WithError(err).Warn("Cannot create preview dir")
		return
	}

	base := filepath.Base(outPath)
	filename := filepath.Join(o.PreviewDir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
	title := fmt.Sprintf("%s %s", base, g.Stats())
	if err := g.Preview(title, filename, 1032); err != nil {
		o.Log.WithError(err).Warn("Preview failed")
	}
}
