// Package mathspace implements TeX's inter-atom spacing table
// (The TeXbook, chapter 18 and Appendix G rules 5, 6 and 20).
package mathspace

import (
	"fmt"

	"github.com/ByLCY/galley/box"
)

// Style is the math style. Cramped variants space like their uncramped
// counterparts and are not distinguished here.
type Style int

const (
	Display Style = iota
	Text
	Script
	ScriptScript
)

func (s Style) String() string {
	switch s {
	case Display:
		return "display"
	case Text:
		return "text"
	case Script:
		return "script"
	case ScriptScript:
		return "scriptscript"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// ParseStyle maps a style name to its Style.
func ParseStyle(s string) (Style, bool) {
	for st := Display; st <= ScriptScript; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return Text, false
}

// Level is a discrete amount of math spacing.
type Level int

const (
	None Level = iota
	Thin
	Medium
	Thick
)

func (l Level) String() string {
	return [...]string{"none", "thin", "medium", "thick"}[l]
}

// entry encodes one table cell: the level and whether it only applies in
// display and text styles (the parenthesised entries of the TeXbook table).
type entry struct {
	level     Level
	textsOnly bool
}

var (
	n  = entry{}
	t1 = entry{Thin, false}
	p1 = entry{Thin, true}
	p2 = entry{Medium, true}
	p3 = entry{Thick, true}
)

// table[left][right]. Impossible pairs (a Bin next to something that turns
// it into an Ord) never reach the lookup and are stored as none.
var table = [8][8]entry{
	//        Ord Op  Bin Rel Open Close Punct Inner
	box.Ord:   {n, t1, p2, p3, n, n, n, p1},
	box.Op:    {t1, t1, n, p3, n, n, n, p1},
	box.Bin:   {p2, p2, n, n, p2, n, n, p2},
	box.Rel:   {p3, p3, n, n, p3, n, n, p3},
	box.Open:  {n, n, n, n, n, n, n, n},
	box.Close: {n, t1, p2, p3, n, n, n, p1},
	box.Punct: {p1, p1, n, p1, p1, p1, p1, p1},
	box.Inner: {p1, t1, p2, p3, p1, n, p1, p1},
}

// Between returns the spacing level between two adjacent atoms.
func Between(left, right box.AtomClass, style Style) Level {
	if left < box.Ord || left > box.Inner || right < box.Ord || right > box.Inner {
		return None
	}
	e := table[left][right]
	if e.textsOnly && style > Text {
		return None
	}
	return e.level
}

// Muskips holds the three math glue parameters in mu.
type Muskips struct {
	Thin   box.Glue
	Medium box.Glue
	Thick  box.Glue
}

// DefaultMuskips are plain TeX's \thinmuskip, \medmuskip and \thickmuskip.
var DefaultMuskips = Muskips{
	Thin:   box.Glue{Space: 3},
	Medium: box.Glue{Space: 4, Stretch: 2, Shrink: 4},
	Thick:  box.Glue{Space: 5, Stretch: 5},
}

// Glue converts a level into glue for a math quad of the given size;
// one mu is quad/18.
func (m Muskips) Glue(l Level, quad float64) (box.Glue, bool) {
	mu := quad / 18
	switch l {
	case Thin:
		return m.Thin.Scale(mu), true
	case Medium:
		return m.Medium.Scale(mu), true
	case Thick:
		return m.Thick.Scale(mu), true
	default:
		return box.Glue{}, false
	}
}

// Reclassify applies Appendix G rules 5 and 6: a Bin atom at the start of
// the list, or after Bin, Op, Rel, Open or Punct, becomes Ord; so does a
// Bin atom that is last or followed by Rel, Close or Punct. The input is
// not modified.
func Reclassify(classes []box.AtomClass) []box.AtomClass {
	out := append([]box.AtomClass(nil), classes...)
	for i, c := range out {
		if c != box.Bin {
			continue
		}
		if i == 0 {
			out[i] = box.Ord
			continue
		}
		switch out[i-1] {
		case box.Bin, box.Op, box.Rel, box.Open, box.Punct:
			out[i] = box.Ord
			continue
		}
		if i == len(out)-1 {
			out[i] = box.Ord
			continue
		}
		switch out[i+1] {
		case box.Rel, box.Close, box.Punct:
			out[i] = box.Ord
		}
	}
	return out
}

// Spacing returns, for each adjacent pair i,i+1 of a reclassified atom
// list, the level to insert between them.
func Spacing(classes []box.AtomClass, style Style) []Level {
	if len(classes) < 2 {
		return nil
	}
	cls := Reclassify(classes)
	out := make([]Level, len(cls)-1)
	for i := range out {
		out[i] = Between(cls[i], cls[i+1], style)
	}
	return out
}
