package linebreak

import (
	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/hlist"
)

// Greedy breaks list with the first-fit breaker. The result has the same
// shape as Break's; Pass is 0 and no demerits are computed.
func Greedy(list []box.Node, p Params) (*Paragraph, error) {
	if err := validate(list); err != nil {
		return nil, err
	}
	return greedy(list, &p), nil
}

// greedy fills each line with as much material as fits, breaking at the
// last legal breakpoint before the line would have to shrink beyond its
// shrink. A word that is wider than the line is set on its own line.
func greedy(list []box.Node, p *Params) *Paragraph {
	if len(list) == 0 {
		return finish(list, nil, p)
	}
	br := newBreaker(list, p)
	cur := &active{fitness: Decent}
	var breaks []Breakpoint
	type fit struct {
		pos, pi int
		flagged bool
	}
	var last *fit

	commit := func(f fit) {
		t := br.lineTotals(cur, f.pos)
		bad, fitness := judge(t, p.width(cur.line)-t.Natural, 0)
		breaks = append(breaks, Breakpoint{
			Pos:     f.pos,
			Kind:    kindAt(list, f.pos),
			Line:    cur.line + 1,
			Fitness: fitness,
			Badness: bad,
			Penalty: f.pi,
			Flagged: f.flagged,
			Start:   min(cur.start, f.pos),
		})
		start, post := br.after(f.pos)
		cur = &active{line: cur.line + 1, fitness: fitness, start: start, post: post}
		last = nil
	}

	for b := 0; b <= br.end; b++ {
		pi, flagged := box.EjectPenalty, false
		if b < br.end {
			if !hlist.IsBreakpoint(list, b) {
				continue
			}
			pi = 0
			switch n := list[b].(type) {
			case box.Penalty:
				pi, flagged = n.Cost, n.Flagged
			case *box.Discretionary:
				flagged = true
				pi = p.ExHyphenPenalty
				if n.PreBreak != nil {
					pi = p.HyphenPenalty
				}
			}
			if pi >= box.InfPenalty {
				continue
			}
		}
		t := br.lineTotals(cur, b)
		order, shrink := t.ShrinkOrder()
		fits := order != box.Normal || t.Natural-shrink <= p.width(cur.line)+eps
		switch {
		case fits && pi <= box.EjectPenalty:
			commit(fit{b, pi, flagged})
		case fits:
			last = &fit{b, pi, flagged}
		case last != nil:
			commit(*last)
			b-- // retry this breakpoint on the new line
		default:
			commit(fit{b, pi, flagged})
		}
	}
	return finish(list, breaks, p)
}

func kindAt(list []box.Node, i int) box.Kind {
	if i < len(list) {
		return list[i].Kind()
	}
	return box.KindPenalty
}
