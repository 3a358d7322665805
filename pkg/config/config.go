package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/expand-and-shift/pkg/beamcentre"
	"github.com/abworrall/expand-and-shift/pkg/tiffio"
)

/* Example config file ...

verbosity: 1
outputdir: corrected
compression: deflate
previewdir: previews
beampositions: beam_positions.json
plotdir: plots
shiftrecord: shifts.yaml
smoothing:
  sigma: 3
  truncate: 4

*/

type Smoothing struct {
	Sigma    float64 // in images
	Truncate float64 // kernel radius, in sigmas
}

type Config struct {
	Verbosity int

	OutputDir   string // where expanded_*/shifted_* files go; "" is the working dir
	Compression string // "none" or "deflate"
	PreviewDir  string // if set, a PNG preview is written per output image

	BeamPositions string // beam position feed for shift-images
	PlotDir       string // where the beam centre plots go
	ShiftRecord   string // if set, the applied shifts are written here as YAML
	Smoothing     Smoothing
}

func NewConfig() Config {
	return Config{
		Compression:   "none",
		BeamPositions: "beam_positions.json",
		Smoothing: Smoothing{
			Sigma:    beamcentre.DefaultSigma,
			Truncate: beamcentre.DefaultTruncate,
		},
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Load reads a YAML config over the defaults. No filename, or a file
// that isn't there, just gives the defaults.
func Load(filename string) (Config, error) {
	if filename == "" {
		return NewConfig(), nil
	}

	contents, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return NewConfig(), nil
	} else if err != nil {
		return Config{}, fmt.Errorf("config read '%s': %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse '%s': %v", filename, err)
	}
	return c, nil
}

// Validate does sanity checks.
func (c Config) Validate() error {
	if _, err := tiffio.ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.Smoothing.Sigma < 0 {
		return fmt.Errorf("smoothing sigma %v is negative", c.Smoothing.Sigma)
	}
	if c.Smoothing.Truncate <= 0 {
		return fmt.Errorf("smoothing truncate %v must be positive", c.Smoothing.Truncate)
	}
	return nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		logrus.Fatalf("Can't marshal config yaml: %v", err)
	}
	return string(b)
}

// Sink returns the TIFF sink described by the config.
func (c Config) Sink() (tiffio.Sink, error) {
	compression, err := tiffio.ParseCompression(c.Compression)
	if err != nil {
		return tiffio.Sink{}, err
	}
	return tiffio.Sink{Compression: compression}, nil
}

// SetupLogging points the standard logrus logger at stderr, at a level
// set by the verbosity.
func (c Config) SetupLogging() *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case c.Verbosity >= 2:
		l.SetLevel(logrus.TraceLevel)
	case c.Verbosity == 1:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
