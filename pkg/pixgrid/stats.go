package pixgrid

import (
	"fmt"

	"github.com/codahale/hdrhistogram"
	"github.com/sirupsen/logrus"
)

// Stats summarises the sample distribution of a grid. Masked samples
// (those at the depth maximum) are counted but kept out of the
// histogram, so they don't swamp the percentiles.
type Stats struct {
	Min, Max int64
	Mean     float64
	P50, P99 int64
	Masked   int
	Total    int
}

func (g *Grid) Stats() Stats {
	st := Stats{Total: len(g.values)}
	h := hdrhistogram.New(1, int64(g.Max()), 3)
	sentinel := g.Max()

	for _, v := range g.values {
		if v == sentinel {
			st.Masked++
			continue
		}
		if err := h.RecordValue(int64(v)); err != nil {
			continue
		}
	}

	if h.TotalCount() > 0 {
		st.Min = h.Min()
		st.Max = h.Max()
		st.Mean = h.Mean()
		st.P50 = h.ValueAtQuantile(50)
		st.P99 = h.ValueAtQuantile(99)
	}

	return st
}

func (st Stats) String() string {
	return fmt.Sprintf("vals{%d,%d} mean %.1f p50 %d p99 %d, %d/%d masked",
		st.Min, st.Max, st.Mean, st.P50, st.P99, st.Masked, st.Total)
}

// Fields renders the stats for structured logging.
func (st Stats) Fields() logrus.Fields {
	return logrus.Fields{
		"min":    st.Min,
		"max":    st.Max,
		"mean":   st.Mean,
		"p50":    st.P50,
		"p99":    st.P99,
		"masked": st.Masked,
	}
}
