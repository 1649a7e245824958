// Package linebreak splits a horizontal list into lines with the
// Knuth-Plass total-fit algorithm and stacks the set lines into a
// vertical list.
package linebreak

import (
	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/layout"
)

// Params are the paragraph parameters. Zero values are not usable for the
// integer thresholds; start from DefaultParams.
type Params struct {
	LineWidth float64
	// ParShape gives the width of each line; the last entry repeats.
	// LineWidth is used when empty.
	ParShape []float64
	// Indent is a kern in front of the first line.
	Indent    float64
	LeftSkip  box.Glue
	RightSkip box.Glue

	Pretolerance     int // first pass threshold; negative skips the pass
	Tolerance        int
	EmergencyStretch float64
	Looseness        int

	LinePenalty          int
	HyphenPenalty        int // discretionary with a pre-break
	ExHyphenPenalty      int // discretionary with an empty pre-break
	AdjDemerits          int
	DoubleHyphenDemerits int
	FinalHyphenDemerits  int

	BaselineSkip     box.Glue
	LineSkip         box.Glue
	LineSkipLimit    float64
	InterLinePenalty int
	ClubPenalty      int
	WidowPenalty     int

	// Set controls the diagnostics reported when lines are set.
	Set layout.Options
	// Greedy selects the first-fit breaker.
	Greedy bool
	// Paragraph numbers the diagnostics.
	Paragraph int
}

// DefaultParams returns plain TeX's values for a 10pt font.
func DefaultParams(width float64) Params {
	return Params{
		LineWidth:            width,
		Pretolerance:         100,
		Tolerance:            200,
		LinePenalty:          10,
		HyphenPenalty:        50,
		ExHyphenPenalty:      50,
		AdjDemerits:          10000,
		DoubleHyphenDemerits: 10000,
		FinalHyphenDemerits:  5000,
		BaselineSkip:         box.FixedGlue(12),
		LineSkip:             box.FixedGlue(1),
		ClubPenalty:          150,
		WidowPenalty:         150,
		Set:                  layout.DefaultOptions(),
	}
}

// width returns the width of line k (0-based).
func (p *Params) width(k int) float64 {
	if len(p.ParShape) == 0 {
		return p.LineWidth
	}
	if k >= len(p.ParShape) {
		return p.ParShape[len(p.ParShape)-1]
	}
	return p.ParShape[k]
}

// Fitness is TeX's classification of a line by how much its glue was
// changed.
type Fitness int

const (
	VeryLoose Fitness = iota
	Loose
	Decent
	Tight
)

func (f Fitness) String() string {
	switch f {
	case VeryLoose:
		return "very loose"
	case Loose:
		return "loose"
	case Decent:
		return "decent"
	case Tight:
		return "tight"
	}
	return "unknown"
}

func (f Fitness) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Badness is TeX's badness of a line that must absorb excess using the
// available stretch or shrink.
func Badness(excess, available float64) int {
	return layout.Badness(excess, available)
}

func fitnessOf(b int, shrinking bool) Fitness {
	switch {
	case shrinking && b > 12:
		return Tight
	case shrinking:
		return Decent
	case b > 99:
		return VeryLoose
	case b > 12:
		return Loose
	default:
		return Decent
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
