// Package tiffio moves detector images between TIFF files and grids.
// Everything written is lossless: samples and bit depth come back
// exactly as they went in.
package tiffio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
)

// Load reads an 8 or 16 bit grayscale TIFF.
func Load(filename string) (*pixgrid.Grid, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}

	g, err := pixgrid.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}
	return g, nil
}

// ParseCompression maps a config name onto a (lossless) TIFF compression.
func ParseCompression(name string) (tiff.CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return tiff.Uncompressed, nil
	case "deflate":
		return tiff.Deflate, nil
	default:
		return tiff.Uncompressed, fmt.Errorf("no lossless compression named '%s'", name)
	}
}

// A Sink writes grids out as grayscale TIFFs.
type Sink struct {
	Compression tiff.CompressionType
}

// Write encodes g into filename, creating any missing directories. The
// encoder has no way to store a software tag, so it is ignored.
func (s Sink) Write(g *pixgrid.Grid, filename, software string) error {
	img, err := g.ToImage()
	if err != nil {
		return fmt.Errorf("tiff writing '%s': %v", filename, err)
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir '%s': %v", dir, err)
		}
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}

	opts := &tiff.Options{Compression: s.Compression}
	if err := tiff.Encode(writer, img, opts); err != nil {
		writer.Close()
		return fmt.Errorf("tiff encoding '%s': %v", filename, err)
	}
	return writer.Close()
}
