// Package box defines the node types of horizontal and vertical lists:
// characters, boxes, glue, kerns, penalties, discretionaries, rules, leaders
// and math atoms. Every node is immutable once built; boxes cache their
// natural size when they are packed.
package box

import "fmt"

// Kind tags the concrete type of a Node.
type Kind int

const (
	KindChar Kind = iota
	KindHBox
	KindVBox
	KindGlue
	KindKern
	KindPenalty
	KindDisc
	KindRule
	KindMath
	KindLeaders
)

var kindNames = [...]string{
	KindChar:    "char",
	KindHBox:    "hbox",
	KindVBox:    "vbox",
	KindGlue:    "glue",
	KindKern:    "kern",
	KindPenalty: "penalty",
	KindDisc:    "disc",
	KindRule:    "rule",
	KindMath:    "math",
	KindLeaders: "leaders",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets Kind appear by name in debug JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Dims is the natural width, height and depth of a node.
type Dims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Node is an element of a horizontal or vertical list. The set of
// implementations is closed; switch on the concrete type to handle them.
type Node interface {
	Kind() Kind
	// Size reports the natural dimensions. Glue reports its space as width.
	Size() Dims
	node()
}

// Penalty limits.
const (
	InfPenalty   = 10000  // forbids a break
	EjectPenalty = -10000 // forces a break
)

// Char is a single glyph with its font metrics.
type Char struct {
	Rune   rune    `json:"rune"`
	Font   string  `json:"font"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Italic float64 `json:"italic,omitempty"`
}

// HBox is a horizontal list packed into a box. Width is the outer width;
// it equals Content.Natural unless the box was packed to a given size.
type HBox struct {
	Children []Node   `json:"children"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Depth    float64  `json:"depth"`
	Shift    float64  `json:"shift,omitempty"` // moves the box down (positive) in a horizontal list
	Content  Totals   `json:"content"`
	To       *float64 `json:"to,omitempty"`
}

// VBox is a vertical list packed into a box. Its reference point is the
// baseline of its last box; Depth is that box's depth.
type VBox struct {
	Children []Node   `json:"children"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Depth    float64  `json:"depth"`
	Shift    float64  `json:"shift,omitempty"` // moves the box right in a vertical list
	Content  Totals   `json:"content"`
	To       *float64 `json:"to,omitempty"`
}

// Kern is rigid space. Explicit kerns come from the source; implicit ones
// are font kerns.
type Kern struct {
	Width    float64 `json:"width"`
	Explicit bool    `json:"explicit,omitempty"`
}

// Penalty is the cost of breaking at this point.
type Penalty struct {
	Cost    int  `json:"cost"`
	Flagged bool `json:"flagged,omitempty"`
}

// Discretionary is a potential break with different material depending on
// whether the break is taken. A nil branch is empty.
type Discretionary struct {
	PreBreak  Node `json:"preBreak,omitempty"`
	PostBreak Node `json:"postBreak,omitempty"`
	NoBreak   Node `json:"noBreak,omitempty"`
}

// Rule is a solid box. A nil dimension is running and takes its size from
// the enclosing box.
type Rule struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

// AtomClass is the TeX math atom class used for inter-atom spacing.
type AtomClass int

const (
	Ord AtomClass = iota
	Op
	Bin
	Rel
	Open
	Close
	Punct
	Inner
)

var atomNames = [...]string{"ord", "op", "bin", "rel", "open", "close", "punct", "inner"}

func (c AtomClass) String() string {
	if c >= 0 && int(c) < len(atomNames) {
		return atomNames[c]
	}
	return fmt.Sprintf("atom(%d)", int(c))
}

// ParseAtomClass maps a lower case class name to its AtomClass.
func ParseAtomClass(s string) (AtomClass, bool) {
	for i, n := range atomNames {
		if n == s {
			return AtomClass(i), true
		}
	}
	return Ord, false
}

// MathAtom wraps an already laid out math sub-box with its class.
type MathAtom struct {
	Class AtomClass `json:"class"`
	Inner Node      `json:"inner,omitempty"`
}

// Leaders is glue that is filled with copies of Pattern when set.
type Leaders struct {
	Glue    Glue `json:"glue"`
	Pattern Node `json:"pattern,omitempty"`
}

func (*Char) Kind() Kind          { return KindChar }
func (*HBox) Kind() Kind          { return KindHBox }
func (*VBox) Kind() Kind          { return KindVBox }
func (Glue) Kind() Kind           { return KindGlue }
func (Kern) Kind() Kind           { return KindKern }
func (Penalty) Kind() Kind        { return KindPenalty }
func (*Discretionary) Kind() Kind { return KindDisc }
func (*Rule) Kind() Kind          { return KindRule }
func (*MathAtom) Kind() Kind      { return KindMath }
func (*Leaders) Kind() Kind       { return KindLeaders }

func (c *Char) Size() Dims { return Dims{c.Width, c.Height, c.Depth} }
func (b *HBox) Size() Dims { return Dims{b.Width, b.Height, b.Depth} }
func (b *VBox) Size() Dims { return Dims{b.Width, b.Height, b.Depth} }
func (g Glue) Size() Dims  { return Dims{Width: g.Space} }
func (k Kern) Size() Dims  { return Dims{Width: k.Width} }
func (Penalty) Size() Dims { return Dims{} }

func (d *Discretionary) Size() Dims {
	if d.NoBreak == nil {
		return Dims{}
	}
	return d.NoBreak.Size()
}

func (r *Rule) Size() Dims {
	return Dims{deref(r.Width), deref(r.Height), deref(r.Depth)}
}

func (a *MathAtom) Size() Dims {
	if a.Inner == nil {
		return Dims{}
	}
	return a.Inner.Size()
}

func (l *Leaders) Size() Dims {
	d := Dims{Width: l.Glue.Space}
	if l.Pattern != nil {
		p := l.Pattern.Size()
		d.Height, d.Depth = p.Height, p.Depth
	}
	return d
}

func (*Char) node()          {}
func (*HBox) node()          {}
func (*VBox) node()          {}
func (Glue) node()           {}
func (Kern) node()           {}
func (Penalty) node()        {}
func (*Discretionary) node() {}
func (*Rule) node()          {}
func (*MathAtom) node()      {}
func (*Leaders) node()       {}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Dim returns a pointer to v, for the running dimensions of Rule.
func Dim(v float64) *float64 { return &v }

// Width returns the natural width of a list node, i.e. its contribution
// along the horizontal axis.
func Width(n Node) float64 {
	if n == nil {
		return 0
	}
	return n.Size().Width
}

// IsDiscardable reports whether n disappears at a line break: glue, kerns,
// penalties and leaders.
func IsDiscardable(n Node) bool {
	switch n.(type) {
	case Glue, Kern, Penalty, *Leaders:
		return true
	}
	return false
}
