package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abworrall/expand-and-shift/pkg/batch"
	"github.com/abworrall/expand-and-shift/pkg/config"
)

var (
	rootCmd = &cobra.Command{
		Use:   "split-wide-pixels [flags] <file.tif>...",
		Short: "Split the wide pixels between the chips of Timepix quad images",
		Long: `Each 512x512 image is expanded to 516x516 by duplicating the wide pixels
at the chip edges, and the central cross (rows and columns 256-259) is
masked. Output is written as expanded_<name> in the output dir.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				fmt.Fprintln(os.Stderr, "Error: No input files provided.")
				cmd.Usage()
				os.Exit(1)
			}
			run(cmd, args)
		},
	}

	fConfigFilename string
	fOutputDir      string
	fPreviewDir     string
	fCompression    string
	fVerbosity      int
)

func init() {
	rootCmd.Flags().StringVar(&fConfigFilename, "config", "", "YAML config file")
	rootCmd.Flags().StringVarP(&fOutputDir, "output-dir", "o", "", "where to write the expanded images")
	rootCmd.Flags().StringVar(&fPreviewDir, "preview", "", "if set, write a PNG preview of each output here")
	rootCmd.Flags().StringVar(&fCompression, "compression", "", "TIFF compression for output: none or deflate")
	rootCmd.Flags().CountVarP(&fVerbosity, "verbose", "v", "more logging (repeat for more)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, paths []string) {
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
	if fCompression != "" {
		c.Compression = fCompression
	}
	if fVerbosity > c.Verbosity {
		c.Verbosity = fVerbosity
	}

	log := c.SetupLogging()
	log.Debugf("Final configuration:-\n\n%s", c.AsYaml())

	sink, err := c.Sink()
	if err != nil {
		log.Fatal(err)
	}

	e := batch.NewExpander(batch.Options{
		OutputDir:  c.OutputDir,
		PreviewDir: c.PreviewDir,
		Sink:       sink,
		Log:        log,
	})
	e.Run(paths)
}
