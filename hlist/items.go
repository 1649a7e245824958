// Package hlist turns a paragraph's semantic items into a horizontal list
// ready for line breaking: it looks up glyph metrics, inserts interword,
// inter-sentence and math glue, and closes the paragraph.
package hlist

import (
	"fmt"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/mathspace"
)

// Item is one element of the semantic input stream of a paragraph.
type Item interface {
	item()
}

// Char is a character in a font.
type Char struct {
	Rune rune
	Font string
}

// Space is a run of source whitespace; adjacent spaces collapse.
type Space struct {
	Font string
}

// Glue is explicit glue from the source.
type Glue struct {
	box.Glue
}

// Kern is an explicit kern.
type Kern struct {
	Width float64
}

// Penalty is an explicit penalty.
type Penalty struct {
	Cost    int
	Flagged bool
}

// Disc is an explicit discretionary break.
type Disc struct {
	Pre, Post, NoBreak []Item
}

// Atom is a math atom with its already laid out box.
type Atom struct {
	Class box.AtomClass
	Inner box.Node
}

// Math is a run of math atoms set in one style.
type Math struct {
	Style mathspace.Style
	Atoms []Atom
}

// Box inserts pre-built material unchanged.
type Box struct {
	Node box.Node
}

func (Char) item()    {}
func (Space) item()   {}
func (Glue) item()    {}
func (Kern) item()    {}
func (Penalty) item() {}
func (Disc) item()    {}
func (Math) item()    {}
func (Box) item()     {}

// ItemError locates a malformed item in the input.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// GlyphMetrics are the dimensions of one character.
type GlyphMetrics struct {
	Width, Height, Depth, Italic float64
}

// FontParams are the font-wide constants used for spacing.
type FontParams struct {
	Size         float64
	Space        float64
	SpaceStretch float64
	SpaceShrink  float64
	ExtraSpace   float64
	Quad         float64
	XHeight      float64
}

// FontMetrics provides read-only font measurements. Implementations must
// be safe for concurrent use.
type FontMetrics interface {
	Glyph(font string, r rune) (GlyphMetrics, error)
	Font(font string) (FontParams, error)
	// Kern returns the implicit kern between two characters, or zero.
	Kern(font string, left, right rune) float64
}
