package batch

import (
	"github.com/abworrall/expand-and-shift/pkg/pixgrid"
	"github.com/abworrall/expand-and-shift/pkg/timepix"
)

// ExpandedPrefix is prepended to the name of each expanded image.
const ExpandedPrefix = "expanded_"

// An Expander splits the wide pixels and masks the central cross of
// raw 512x512 quad images.
type Expander struct {
	Options
}

func NewExpander(opts Options) *Expander { return &Expander{Options: opts} }

func (e *Expander) Run(paths []string) Report {
	want := pixgrid.Shape{Rows: timepix.SensorSize, Cols: timepix.SensorSize}

	return e.run(paths, ExpandedPrefix, want, func(_ int, _ string, g *pixgrid.Grid) (*pixgrid.Grid, error) {
		return timepix.ExpandAndMask(g)
	}, nil)
}
