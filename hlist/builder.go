package hlist

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/mathspace"
)

// Params controls glue insertion and the paragraph end.
type Params struct {
	// Font is used for spaces and math quads when no character has set
	// a current font yet.
	Font string
	// MathFont supplies the quad for mu units; Font is used when empty.
	MathFont string
	// ParFillSkip closes the last line.
	ParFillSkip box.Glue
	// FrenchSpacing disables inter-sentence glue.
	FrenchSpacing bool
	// SentenceFactor scales the stretch (and divides the shrink) of the
	// space after a sentence; 3 matches TeX's space factor 3000.
	SentenceFactor float64
	BinOpPenalty   int
	RelPenalty     int
	MathSurround   float64
	Muskips        mathspace.Muskips
	// Open leaves the list unterminated: no parfillskip and no final
	// penalty are appended.
	Open bool
}

// DefaultParams returns plain TeX's settings.
func DefaultParams() Params {
	return Params{
		ParFillSkip:    box.FilGlue(),
		SentenceFactor: 3,
		BinOpPenalty:   700,
		RelPenalty:     500,
		Muskips:        mathspace.DefaultMuskips,
	}
}

// ErrNoMetrics is returned when Build is called without a metrics source
// and the input contains characters.
var ErrNoMetrics = errors.New("hlist: no font metrics")

type builder struct {
	m    FontMetrics
	p    Params
	list []box.Node

	font         string
	pendingSpace bool
	spaceFont    string
	sentenceEnd  bool
	prevRune     rune
}

// Build converts items into a horizontal list. Errors carry the index of
// the offending item.
func Build(items []Item, m FontMetrics, p Params) ([]box.Node, error) {
	if p.SentenceFactor <= 0 {
		p.SentenceFactor = 1
	}
	b := &builder{m: m, p: p, font: p.Font}
	for i, it := range items {
		if err := b.add(it); err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
	}
	if !p.Open {
		b.closeParagraph()
	}
	return b.list, nil
}

func (b *builder) add(it Item) error {
	if sp, ok := it.(Space); ok {
		if len(b.list) > 0 {
			b.pendingSpace = true
			b.spaceFont = sp.Font
		}
		return nil
	}
	if err := b.flushSpace(); err != nil {
		return err
	}
	switch v := it.(type) {
	case Char:
		return b.addChar(v)
	case Glue:
		if err := box.Validate(v.Glue); err != nil {
			return err
		}
		b.list = append(b.list, v.Glue)
		b.resetSentence()
	case Kern:
		k := box.Kern{Width: v.Width, Explicit: true}
		if err := box.Validate(k); err != nil {
			return err
		}
		b.list = append(b.list, k)
		b.resetSentence()
	case Penalty:
		b.list = append(b.list, box.Penalty{Cost: v.Cost, Flagged: v.Flagged})
	case Disc:
		d, err := b.disc(v)
		if err != nil {
			return err
		}
		b.list = append(b.list, d)
		b.resetSentence()
	case Math:
		if err := b.addMath(v); err != nil {
			return err
		}
		b.resetSentence()
	case Box:
		if v.Node == nil {
			return fmt.Errorf("hlist: empty box item")
		}
		if err := box.Validate(v.Node); err != nil {
			return err
		}
		b.list = append(b.list, v.Node)
		b.resetSentence()
	case nil:
		return fmt.Errorf("hlist: nil item")
	default:
		return fmt.Errorf("hlist: unsupported item %T", it)
	}
	return nil
}

func (b *builder) resetSentence() {
	b.sentenceEnd = false
	b.prevRune = 0
}

func (b *builder) char(v Char) (*box.Char, error) {
	if b.m == nil {
		return nil, ErrNoMetrics
	}
	font := v.Font
	if font == "" {
		font = b.font
	}
	gm, err := b.m.Glyph(font, v.Rune)
	if err != nil {
		return nil, err
	}
	return box.NewChar(v.Rune, font, gm.Width, gm.Height, gm.Depth, gm.Italic)
}

func (b *builder) addChar(v Char) error {
	c, err := b.char(v)
	if err != nil {
		return err
	}
	if n := len(b.list); n > 0 {
		if prev, ok := b.list[n-1].(*box.Char); ok && prev.Font == c.Font {
			if k := b.m.Kern(c.Font, prev.Rune, c.Rune); k != 0 {
				b.list = append(b.list, box.Kern{Width: k})
			}
		}
	}
	b.list = append(b.list, c)
	b.font = c.Font
	b.trackSentence(c.Rune)
	return nil
}

// trackSentence follows TeX's space factor codes: sentence punctuation
// raises the factor unless an uppercase letter precedes it, closing
// punctuation leaves it alone and everything else resets it.
func (b *builder) trackSentence(r rune) {
	switch r {
	case '.', '!', '?':
		b.sentenceEnd = !unicode.IsUpper(b.prevRune)
	case ')', '\'', '"', ']', '’', '”':
		// transparent
	default:
		b.sentenceEnd = false
	}
	b.prevRune = r
}

func (b *builder) flushSpace() error {
	if !b.pendingSpace {
		return nil
	}
	b.pendingSpace = false
	font := b.spaceFont
	if font == "" {
		font = b.font
	}
	if b.m == nil {
		return ErrNoMetrics
	}
	fp, err := b.m.Font(font)
	if err != nil {
		return err
	}
	g := box.Glue{Space: fp.Space, Stretch: fp.SpaceStretch, Shrink: fp.SpaceShrink}
	if b.sentenceEnd && !b.p.FrenchSpacing {
		g.Space += fp.ExtraSpace
		g.Stretch *= b.p.SentenceFactor
		g.Shrink /= b.p.SentenceFactor
	}
	b.list = append(b.list, g)
	b.resetSentence()
	return nil
}

func (b *builder) disc(v Disc) (*box.Discretionary, error) {
	pre, err := b.branch(v.Pre)
	if err != nil {
		return nil, fmt.Errorf("pre-break: %w", err)
	}
	post, err := b.branch(v.Post)
	if err != nil {
		return nil, fmt.Errorf("post-break: %w", err)
	}
	noBreak, err := b.branch(v.NoBreak)
	if err != nil {
		return nil, fmt.Errorf("no-break: %w", err)
	}
	return box.NewDiscretionary(pre, post, noBreak)
}

// branch builds one discretionary branch. Only characters, kerns, boxes
// and rules are allowed; several nodes are packed into an hbox.
func (b *builder) branch(items []Item) (box.Node, error) {
	var nodes []box.Node
	for _, it := range items {
		switch v := it.(type) {
		case Char:
			c, err := b.char(v)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, c)
		case Kern:
			nodes = append(nodes, box.Kern{Width: v.Width, Explicit: true})
		case Box:
			if err := box.Validate(v.Node); err != nil {
				return nil, err
			}
			nodes = append(nodes, v.Node)
		default:
			return nil, fmt.Errorf("hlist: %T not allowed in a discretionary", it)
		}
	}
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	default:
		return box.HPack(nodes...), nil
	}
}

func (b *builder) mathQuad(style mathspace.Style) (float64, error) {
	font := b.p.MathFont
	if font == "" {
		font = b.font
	}
	if b.m == nil {
		return 0, ErrNoMetrics
	}
	fp, err := b.m.Font(font)
	if err != nil {
		return 0, err
	}
	switch style {
	case mathspace.Script:
		return fp.Quad * 0.7, nil
	case mathspace.ScriptScript:
		return fp.Quad * 0.5, nil
	default:
		return fp.Quad, nil
	}
}

func (b *builder) addMath(v Math) error {
	if len(v.Atoms) == 0 {
		return nil
	}
	classes := make([]box.AtomClass, len(v.Atoms))
	for i, a := range v.Atoms {
		classes[i] = a.Class
	}
	classes = mathspace.Reclassify(classes)
	levels := mathspace.Spacing(classes, v.Style)

	var quad float64
	for _, l := range levels {
		if l != mathspace.None {
			q, err := b.mathQuad(v.Style)
			if err != nil {
				return err
			}
			quad = q
			break
		}
	}

	if b.p.MathSurround != 0 {
		b.list = append(b.list, box.Kern{Width: b.p.MathSurround})
	}
	penalties := v.Style <= mathspace.Text
	for i, a := range v.Atoms {
		atom := &box.MathAtom{Class: classes[i], Inner: a.Inner}
		if err := box.Validate(atom); err != nil {
			return fmt.Errorf("atom %d: %w", i, err)
		}
		b.list = append(b.list, atom)
		if i == len(v.Atoms)-1 {
			break
		}
		if penalties && classes[i+1] != box.Rel {
			switch classes[i] {
			case box.Bin:
				if b.p.BinOpPenalty < box.InfPenalty {
					b.list = append(b.list, box.Penalty{Cost: b.p.BinOpPenalty})
				}
			case box.Rel:
				if b.p.RelPenalty < box.InfPenalty {
					b.list = append(b.list, box.Penalty{Cost: b.p.RelPenalty})
				}
			}
		}
		if g, ok := b.p.Muskips.Glue(levels[i], quad); ok {
			b.list = append(b.list, g)
		}
	}
	if b.p.MathSurround != 0 {
		b.list = append(b.list, box.Kern{Width: b.p.MathSurround})
	}
	return nil
}

// closeParagraph removes trailing glue and appends
// \penalty10000 \parfillskip \penalty-10000.
func (b *builder) closeParagraph() {
	for n := len(b.list); n > 0; n = len(b.list) {
		if _, ok := b.list[n-1].(box.Glue); !ok {
			break
		}
		b.list = b.list[:n-1]
	}
	b.list = append(b.list,
		box.Penalty{Cost: box.InfPenalty},
		b.p.ParFillSkip,
		box.Penalty{Cost: box.EjectPenalty},
	)
}

// IsBreakpoint reports whether list[i] is a legal breakpoint: glue (or
// leaders) preceded by a non-discardable node, a penalty below
// InfPenalty, a discretionary, or a kern immediately followed by glue.
func IsBreakpoint(list []box.Node, i int) bool {
	if i < 0 || i >= len(list) {
		return false
	}
	switch n := list[i].(type) {
	case box.Glue, *box.Leaders:
		return i > 0 && !box.IsDiscardable(list[i-1])
	case box.Penalty:
		return n.Cost < box.InfPenalty
	case *box.Discretionary:
		return true
	case box.Kern:
		if i+1 < len(list) {
			_, ok := list[i+1].(box.Glue)
			return ok
		}
	}
	return false
}
