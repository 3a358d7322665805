package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abworrall/expand-and-shift/pkg/batch"
	"github.com/abworrall/expand-and-shift/pkg/beamcentre"
	"github.com/abworrall/expand-and-shift/pkg/config"
	"github.com/abworrall/expand-and-shift/pkg/experiment"
)

var (
	rootCmd = &cobra.Command{
		Use:   "shift-images [flags] imported.expt [beam_positions=path]",
		Short: "Shift the images of a sweep so they share one beam centre",
		Long: `The beam centre of each expanded image is read from a beam position feed
(JSON or CSV), smoothed over the whole sweep, and each image is moved by
whole pixels so its beam centre lands on the one in the experiment's
detector model. Output is written as shifted_<name> in the output dir.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, args)
		},
	}

	fConfigFilename string
	fOutputDir      string
	fPreviewDir     string
	fBeamPositions  string
	fPlotDir        string
	fShiftRecord    string
	fSigma          float64
	fVerbosity      int
)

func init() {
	rootCmd.Flags().StringVar(&fConfigFilename, "config", "", "YAML config file")
	rootCmd.Flags().StringVarP(&fOutputDir, "output-dir", "o", "", "where to write the shifted images")
	rootCmd.Flags().StringVar(&fPreviewDir, "preview", "", "if set, write a PNG preview of each output here")
	rootCmd.Flags().StringVar(&fBeamPositions, "beam-positions", "", "beam position feed (default beam_positions.json)")
	rootCmd.Flags().StringVar(&fPlotDir, "plot-dir", "", "where to write the beam centre plots")
	rootCmd.Flags().StringVar(&fShiftRecord, "shift-record", "", "if set, write the applied shifts here as YAML")
	rootCmd.Flags().Float64Var(&fSigma, "sigma", 0, "smoothing width, in images")
	rootCmd.Flags().CountVarP(&fVerbosity, "verbose", "v", "more logging (repeat for more)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseArgs picks out the experiment file, and any beam_positions=
// argument.
func parseArgs(args []string) (exptFile, beamPositions string, err error) {
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok {
			if k != "beam_positions" {
				return "", "", fmt.Errorf("unknown argument '%s'", arg)
			}
			beamPositions = v
			continue
		}
		if exptFile != "" {
			return "", "", fmt.Errorf("more than one experiment file ('%s', '%s')", exptFile, arg)
		}
		exptFile = arg
	}
	if exptFile == "" {
		return "", "", fmt.Errorf("no experiment file given")
	}
	return exptFile, beamPositions, nil
}

func run(cmd *cobra.Command, args []string) {
	exptFile, beamPositions, err := parseArgs(args)
	if err != nil {
		logrus.Fatal(err)
	}

	c, err := config.Load(fConfigFilename)
	if err != nil {
		logrus.Fatal(err)
	}

	// Override the config file with command line args, if relevant
	if cmd.Flags().Changed("output-dir") {
		c.OutputDir = fOutputDir
	}
	if fPreviewDir != "" {
		c.PreviewDir = fPreviewDir
	}
	if beamPositions != "" {
		c.BeamPositions = beamPositions
	}
	if fBeamPositions != "" {
		c.BeamPositions = fBeamPositions
	}
	if fPlotDir != "" {
		c.PlotDir = fPlotDir
	}
	if fShiftRecord != "" {
		c.ShiftRecord = fShiftRecord
	}
	if cmd.Flags().Changed("sigma") {
		c.Smoothing.Sigma = fSigma
	}
	if fVerbosity > c.Verbosity {
		c.Verbosity = fVerbosity
	}
	if err := c.Validate(); err != nil {
		logrus.Fatal(err)
	}

	log := c.SetupLogging()
	log.Debugf("Final configuration:-\n\n%s", c.AsYaml())

	list, err := experiment.Load(exptFile)
	if err != nil {
		log.Fatal(err)
	}
	expt, err := list.Single()
	if err != nil {
		log.Fatal(err)
	}
	ref, err := expt.BeamCentre()
	if err != nil {
		log.Fatal(err)
	}
	frames, err := expt.ImagePaths()
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(logrus.Fields{"reference": ref, "images": len(frames)}).Info("Experiment loaded")

	series, err := beamcentre.LoadPositions(c.BeamPositions)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("positions", len(series)).Infof("Beam positions loaded from '%s'", c.BeamPositions)

	sink, err := c.Sink()
	if err != nil {
		log.Fatal(err)
	}

	s := batch.NewShifter(batch.Options{
		OutputDir:  c.OutputDir,
		PreviewDir: c.PreviewDir,
		Sink:       sink,
		Log:        log,
	}, ref, series)
	s.Smoother.Sigma = c.Smoothing.Sigma
	s.Smoother.Truncate = c.Smoothing.Truncate
	s.Smoother.Reporter = beamcentre.PlotReporter{Dir: c.PlotDir}
	s.Smoother.Log = log
	s.RecordPath = c.ShiftRecord

	if _, err := s.Run(frames); err != nil {
		log.Fatal(err)
	}
}
