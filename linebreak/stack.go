package linebreak

import (
	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/logging"
)

// Interline returns the glue TeX puts between a box of depth prevDepth and
// a following box of the given height.
func Interline(baselineSkip, lineSkip box.Glue, lineSkipLimit, prevDepth, height float64) box.Glue {
	gap := baselineSkip.Space - prevDepth - height
	if gap < lineSkipLimit {
		return lineSkip
	}
	g := baselineSkip
	g.Space = gap
	return g
}

// stack interleaves lines with penalties and interline glue. It returns
// the vertical list and the index of every line in it.
func stack(lines []*box.HBox, p *Params) ([]box.Node, []int) {
	vlist := make([]box.Node, 0, 3*len(lines))
	at := make([]int, len(lines))
	prevDepth := 0.0
	for k, line := range lines {
		if k > 0 {
			pen := p.InterLinePenalty
			if k == 1 {
				pen += p.ClubPenalty
			}
			if k == len(lines)-1 {
				pen += p.WidowPenalty
			}
			if pen != 0 {
				vlist = append(vlist, box.Penalty{Cost: pen})
			}
			vlist = append(vlist, Interline(p.BaselineSkip, p.LineSkip, p.LineSkipLimit, prevDepth, line.Height))
		}
		at[k] = len(vlist)
		vlist = append(vlist, line)
		prevDepth = line.Depth
	}
	return vlist, at
}

// finish packs the lines chosen by breaks, stacks and sets them.
func finish(list []box.Node, breaks []Breakpoint, p *Params) *Paragraph {
	segs := Split(list, breaks)
	lines := make([]*box.HBox, len(segs))
	for k, seg := range segs {
		children := make([]box.Node, 0, len(seg)+3)
		if !p.LeftSkip.IsZero() {
			children = append(children, p.LeftSkip)
		}
		if k == 0 && p.Indent != 0 {
			children = append(children, box.Kern{Width: p.Indent, Explicit: true})
		}
		children = append(children, seg...)
		if !p.RightSkip.IsZero() {
			children = append(children, p.RightSkip)
		}
		lines[k] = box.HPackTo(p.width(k), children...)
	}

	vlist, at := stack(lines, p)
	vbox := box.VPack(vlist...)
	placed, diags := p.Set.Place(vbox)

	lineOf := make(map[int]int, len(at))
	for k, i := range at {
		lineOf[i] = k
		if gs := placed.Children[i].Glue; gs != nil {
			breaks[k].Set = GlueRatio{Sign: gs.Sign, Order: gs.Order, Ratio: gs.Ratio}
		}
	}
	log := logging.Logger()
	for i := range diags {
		d := &diags[i]
		d.Paragraph = p.Paragraph
		if len(d.Path) == 0 {
			continue
		}
		if k, ok := lineOf[d.Path[0]]; ok {
			d.Line = k + 1
			d.Index = breaks[k].Start
			d.Path = d.Path[1:]
		}
		if d.Kind == layout.Overfull {
			log.Warn("linebreak: overfull line", "paragraph", p.Paragraph, "line", d.Line, "amount", d.Amount)
		}
	}

	return &Paragraph{
		Breaks:      breaks,
		Lines:       lines,
		VList:       vlist,
		Box:         vbox,
		Placed:      placed,
		Diagnostics: diags,
	}
}
