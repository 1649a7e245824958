package layout

import (
	"math"

	"github.com/ByLCY/galley/box"
)

// InfBad is the badness of a line that cannot reach its size.
const InfBad = 10000

// sizeEpsilon treats tiny excesses left by float arithmetic as exact fits.
const sizeEpsilon = 1e-9

// Badness approximates 100·(excess/total)³ the way TeX does, capped at
// InfBad. A positive excess with no flexibility is InfBad.
func Badness(excess, total float64) int {
	excess = math.Abs(excess)
	if excess <= sizeEpsilon {
		return 0
	}
	if total <= 0 {
		return InfBad
	}
	r := excess / total
	if r > 4.65 { // 100·4.65³ > 10000
		return InfBad
	}
	b := int(100*r*r*r + 0.5)
	if b > InfBad {
		return InfBad
	}
	return b
}

// Options 控制盒子设置时的报告阈值，默认值与 plain TeX 相同。
type Options struct {
	HBadness int     `json:"hbadness"`
	VBadness int     `json:"vbadness"`
	HFuzz    float64 `json:"hfuzz"`
	VFuzz    float64 `json:"vfuzz"`
}

func DefaultOptions() Options {
	return Options{HBadness: 1000, VBadness: 1000, HFuzz: 0.1, VFuzz: 0.1}
}

// GlueSet computes how the glue of content with the given totals must be
// set to reach target. The diagnostic is nil when the result is acceptable.
func (o Options) GlueSet(t box.Totals, target float64, vertical bool) (GlueSet, *Diagnostic) {
	bad, fuzz := o.HBadness, o.HFuzz
	if vertical {
		bad, fuzz = o.VBadness, o.VFuzz
	}
	excess := target - t.Natural
	gs := GlueSet{Excess: excess}
	diag := func(k DiagKind, b int, amount float64) *Diagnostic {
		sev := SeverityInfo
		if k == Overfull || b >= InfBad {
			sev = SeverityWarning
		}
		return &Diagnostic{Kind: k, Severity: sev, Vertical: vertical, Badness: b, Amount: amount}
	}

	switch {
	case math.Abs(excess) <= sizeEpsilon:
		return gs, nil

	case excess > 0:
		gs.Sign = Stretching
		order, total := t.StretchOrder()
		gs.Order = order
		if total <= 0 {
			// nothing can stretch: the box stays at natural size
			gs.Order = box.Normal
			gs.Badness = InfBad
			if excess <= fuzz {
				return gs, nil
			}
			gs.Underfull = true
			return gs, diag(Underfull, InfBad, excess)
		}
		gs.Ratio = excess / total
		if order != box.Normal {
			return gs, nil
		}
		gs.Badness = Badness(excess, total)
		if gs.Badness > bad {
			gs.Underfull = true
			return gs, diag(Underfull, gs.Badness, excess)
		}
		return gs, nil

	default:
		gs.Sign = Shrinking
		order, total := t.ShrinkOrder()
		gs.Order = order
		if order != box.Normal && total > 0 {
			gs.Ratio = -excess / total
			return gs, nil
		}
		if total > 0 && -excess <= total+sizeEpsilon {
			gs.Ratio = -excess / total
			gs.Badness = Badness(excess, total)
			if gs.Badness > bad {
				return gs, diag(Tight, gs.Badness, -excess)
			}
			return gs, nil
		}
		// overfull: shrink everything fully and let the rest stick out
		if total > 0 {
			gs.Ratio = 1
		} else {
			total = 0
		}
		gs.Overfull = true
		gs.Badness = InfBad
		overflow := -excess - total
		if overflow <= fuzz {
			return gs, nil
		}
		return gs, diag(Overfull, InfBad, overflow)
	}
}

// ComputeGlueSet is GlueSet with the default thresholds.
func ComputeGlueSet(t box.Totals, target float64, vertical bool) (GlueSet, *Diagnostic) {
	return DefaultOptions().GlueSet(t, target, vertical)
}

// Set places n so that an hbox is target wide or a vbox is target high.
// Nested boxes are set to their own declared size. Other nodes ignore
// target and are placed at their natural size.
func Set(n box.Node, target float64) (*Placed, []Diagnostic) {
	return DefaultOptions().Set(n, target)
}

// Place sets n to its declared size.
func Place(n box.Node) (*Placed, []Diagnostic) {
	return DefaultOptions().Place(n)
}

func (o Options) Place(n box.Node) (*Placed, []Diagnostic) {
	switch b := n.(type) {
	case *box.HBox:
		return o.Set(b, b.Width)
	case *box.VBox:
		return o.Set(b, b.Height)
	}
	return o.Set(n, 0)
}

func (o Options) Set(n box.Node, target float64) (*Placed, []Diagnostic) {
	s := &setter{o: o}
	var p *Placed
	switch b := n.(type) {
	case *box.HBox:
		p = s.hbox(b, target)
	case *box.VBox:
		p = s.vbox(b, target)
	default:
		p = s.inH(n, GlueSet{}, 0, 0)
	}
	return p, s.diags
}

type setter struct {
	o     Options
	diags []Diagnostic
	path  []int
}

func (s *setter) report(d *Diagnostic) {
	if d == nil {
		return
	}
	d.Path = append([]int(nil), s.path...)
	s.diags = append(s.diags, *d)
}

func (s *setter) hbox(b *box.HBox, width float64) *Placed {
	gs, d := s.o.GlueSet(b.Content, width, false)
	s.report(d)
	p := &Placed{Kind: box.KindHBox, Width: width, Height: b.Height, Depth: b.Depth, Glue: &gs}
	p.Children = make([]*Placed, 0, len(b.Children))
	x := 0.0
	for i, c := range b.Children {
		s.path = append(s.path, i)
		cp := s.inH(c, gs, b.Height, b.Depth)
		s.path = s.path[:len(s.path)-1]
		cp.Index = i
		cp.X = x
		x += cp.Width
		p.Children = append(p.Children, cp)
	}
	return p
}

// inH places one node of a horizontal list at x = 0; height and depth
// resolve running rule dimensions.
func (s *setter) inH(n box.Node, gs GlueSet, height, depth float64) *Placed {
	switch v := n.(type) {
	case box.Glue:
		return &Placed{Kind: box.KindGlue, Width: gs.Apply(v)}
	case *box.Leaders:
		return s.leaders(v, gs.Apply(v.Glue), false, height, depth)
	case box.Kern:
		return &Placed{Kind: box.KindKern, Width: v.Width}
	case box.Penalty:
		return &Placed{Kind: box.KindPenalty}
	case *box.Char:
		return &Placed{Kind: box.KindChar, Width: v.Width, Height: v.Height, Depth: v.Depth, Rune: v.Rune, Font: v.Font}
	case *box.HBox:
		p := s.hbox(v, v.Width)
		p.Y = v.Shift
		return p
	case *box.VBox:
		p := s.vbox(v, v.Height)
		p.Y = v.Shift
		return p
	case *box.Rule:
		return &Placed{Kind: box.KindRule, Width: orDefault(v.Width, 0), Height: orDefault(v.Height, height), Depth: orDefault(v.Depth, depth)}
	case *box.Discretionary:
		return s.wrap(box.KindDisc, v.NoBreak, height, depth)
	case *box.MathAtom:
		return s.wrap(box.KindMath, v.Inner, height, depth)
	}
	return &Placed{Kind: n.Kind()}
}

// wrap places inner (may be nil) at natural size inside a node of kind k.
func (s *setter) wrap(k box.Kind, inner box.Node, height, depth float64) *Placed {
	p := &Placed{Kind: k}
	if inner == nil {
		return p
	}
	c := s.inH(inner, GlueSet{}, height, depth)
	p.Width, p.Height, p.Depth = c.Width, c.Height, c.Depth
	p.Children = []*Placed{c}
	return p
}

func (s *setter) vbox(b *box.VBox, height float64) *Placed {
	gs, d := s.o.GlueSet(b.Content, height, true)
	s.report(d)
	p := &Placed{Kind: box.KindVBox, Width: b.Width, Height: height, Depth: b.Depth, Glue: &gs}
	p.Children = make([]*Placed, 0, len(b.Children))
	// top runs from the upper edge; the reference point sits at height.
	top, prevDepth := 0.0, 0.0
	for i, c := range b.Children {
		s.path = append(s.path, i)
		var cp *Placed
		switch v := c.(type) {
		case box.Glue:
			top += prevDepth
			h := gs.Apply(v)
			cp = &Placed{Kind: box.KindGlue, Height: h}
			top += h
			prevDepth = 0
		case *box.Leaders:
			top += prevDepth
			h := gs.Apply(v.Glue)
			cp = s.leaders(v, h, true, b.Width, 0)
			top += h
			prevDepth = 0
		case box.Kern:
			top += prevDepth
			cp = &Placed{Kind: box.KindKern, Height: v.Width}
			top += v.Width
			prevDepth = 0
		case box.Penalty:
			cp = &Placed{Kind: box.KindPenalty}
		case *box.HBox:
			top += prevDepth
			cp = s.hbox(v, v.Width)
			cp.X = v.Shift
			top += v.Height
			prevDepth = v.Depth
		case *box.VBox:
			top += prevDepth
			cp = s.vbox(v, v.Height)
			cp.X = v.Shift
			top += v.Height
			prevDepth = v.Depth
		case *box.Rule:
			top += prevDepth
			cp = &Placed{Kind: box.KindRule, Width: orDefault(v.Width, b.Width), Height: orDefault(v.Height, 0), Depth: orDefault(v.Depth, 0)}
			top += cp.Height
			prevDepth = cp.Depth
		default:
			top += prevDepth
			cp = s.inH(c, GlueSet{}, 0, 0)
			top += cp.Height
			prevDepth = cp.Depth
		}
		s.path = s.path[:len(s.path)-1]
		cp.Index = i
		cp.Y = top - height
		p.Children = append(p.Children, cp)
	}
	return p
}

// leaders fills size with copies of the pattern, aligned to the start of
// the leader space. A rule pattern (or none) becomes a single rule.
func (s *setter) leaders(l *box.Leaders, size float64, vertical bool, a, b float64) *Placed {
	p := &Placed{Kind: box.KindLeaders}
	if vertical {
		p.Width, p.Height = a, size
	} else {
		p.Width, p.Height, p.Depth = size, a, b
	}
	switch pat := l.Pattern.(type) {
	case nil:
		return p
	case *box.Rule:
		r := &Placed{Kind: box.KindRule}
		if vertical {
			r.Width, r.Height = orDefault(pat.Width, a), size
		} else {
			r.Width, r.Height, r.Depth = size, orDefault(pat.Height, a), orDefault(pat.Depth, b)
		}
		p.Children = []*Placed{r}
		return p
	}
	d := l.Pattern.Size()
	step := d.Width
	if vertical {
		step = d.Height + d.Depth
	}
	if step <= 0 {
		return p
	}
	for k := 0; float64(k+1)*step <= size+sizeEpsilon; k++ {
		c := s.inH(l.Pattern, GlueSet{}, d.Height, d.Depth)
		c.Index = k
		if vertical {
			c.Y = float64(k)*step + d.Height - size
		} else {
			c.X = float64(k) * step
		}
		p.Children = append(p.Children, c)
	}
	return p
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
