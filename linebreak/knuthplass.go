package linebreak

import (
	"math"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/logging"
)

// eps absorbs float noise when comparing line widths.
const eps = 1e-9

// passive records a feasible break found during a pass. Chains of
// passives through prev are the candidate paths.
type passive struct {
	pos        int
	start      int // first index of the line ended here
	line       int // number of lines up to and including this one
	fitness    Fitness
	badness    int
	penalty    int
	flagged    bool
	demerits   float64
	artificial bool
	prev       *passive
}

// active is a break from which the next line may start.
type active struct {
	brk     *passive // nil at the paragraph start
	line    int
	fitness Fitness
	flagged bool
	total   float64
	start   int     // first index of the next line
	post    float64 // post-break width carried into the next line
}

type passConfig struct {
	threshold int
	emergency float64
	final     bool
}

type breaker struct {
	p    *Params
	list []box.Node
	// sums[i] holds the totals of list[:i]; a discretionary counts with
	// its no-break width.
	sums []box.Totals
	end  int
}

func newBreaker(list []box.Node, p *Params) *breaker {
	br := &breaker{p: p, list: list, sums: make([]box.Totals, len(list)+1)}
	for i, n := range list {
		t := br.sums[i]
		switch v := n.(type) {
		case box.Glue:
			t.AddGlue(v)
		case *box.Leaders:
			t.AddGlue(v.Glue)
		default:
			t.AddFixed(box.Width(n))
		}
		br.sums[i+1] = t
	}
	br.end = len(list)
	if n := len(list); n > 0 {
		if pen, ok := list[n-1].(box.Penalty); ok && pen.Cost <= box.EjectPenalty {
			br.end = n - 1
		}
	}
	return br
}

// Break breaks list into lines of p.LineWidth (or p.ParShape) and stacks
// them. Passes run with Pretolerance, then Tolerance, then with
// EmergencyStretch; the last pass always yields lines.
func Break(list []box.Node, p Params) (*Paragraph, error) {
	if err := validate(list); err != nil {
		return nil, err
	}
	if p.Greedy {
		return greedy(list, &p), nil
	}
	if len(list) == 0 {
		return finish(list, nil, &p), nil
	}
	br := newBreaker(list, &p)
	log := logging.Logger()

	passes := []passConfig{
		{threshold: p.Pretolerance},
		{threshold: p.Tolerance, final: p.EmergencyStretch <= 0},
		{threshold: p.Tolerance, emergency: p.EmergencyStretch, final: true},
	}
	for i, cfg := range passes {
		if i == 0 && p.Pretolerance < 0 {
			continue
		}
		if i == 2 && p.EmergencyStretch <= 0 {
			break
		}
		finals := br.run(cfg)
		chosen, ok := br.choose(finals, cfg.final)
		if !ok {
			log.Debug("linebreak: pass failed", "paragraph", p.Paragraph, "pass", i+1, "threshold", cfg.threshold)
			continue
		}
		breaks := br.breakpoints(chosen.brk)
		par := finish(list, breaks, &p)
		par.Pass = i + 1
		par.TotalDemerits = chosen.total
		for _, a := range finals {
			par.Considered = append(par.Considered, a.total)
		}
		if pathArtificial(chosen.brk) {
			log.Warn("linebreak: no feasible breaks", "paragraph", p.Paragraph, "lines", len(breaks))
			par.Diagnostics = append(par.Diagnostics, layout.Diagnostic{
				Kind:      layout.Infeasible,
				Severity:  layout.SeverityWarning,
				Paragraph: p.Paragraph,
			})
		}
		return par, nil
	}
	// unreachable: the final pass always keeps an active node
	return greedy(list, &p), nil
}

// run performs one pass and returns the active nodes at the final break.
func (br *breaker) run(cfg passConfig) []*active {
	actives := []*active{{fitness: Decent}}
	for b := 0; b <= br.end; b++ {
		pi, flagged, ok := br.breakAt(b)
		if !ok {
			continue
		}
		actives = br.try(actives, b, pi, flagged, b == br.end, cfg)
		if len(actives) == 0 {
			return nil
		}
	}
	finals := actives[:0:0]
	for _, a := range actives {
		if a.brk != nil && a.brk.pos == br.end {
			finals = append(finals, a)
		}
	}
	return finals
}

// breakAt returns the penalty and flag of a break at b, or false when b
// is not a legal breakpoint. The paragraph end is always a forced break.
func (br *breaker) breakAt(b int) (int, bool, bool) {
	if b == br.end {
		return box.EjectPenalty, false, true
	}
	if !hlist.IsBreakpoint(br.list, b) {
		return 0, false, false
	}
	pi, flagged := 0, false
	switch n := br.list[b].(type) {
	case box.Penalty:
		pi, flagged = n.Cost, n.Flagged
	case *box.Discretionary:
		flagged = true
		pi = br.p.ExHyphenPenalty
		if n.PreBreak != nil {
			pi = br.p.HyphenPenalty
		}
	}
	if pi >= box.InfPenalty {
		return 0, false, false
	}
	return pi, flagged, true
}

type candidate struct {
	class      int
	fitness    Fitness
	total      float64
	from       *active
	badness    int
	demerits   float64
	artificial bool
}

// try evaluates a break at b against every active node, deactivating
// nodes whose lines became too long, and records the best new active
// node per line class and fitness.
func (br *breaker) try(actives []*active, b, pi int, flagged, final bool, cfg passConfig) []*active {
	forced := pi <= box.EjectPenalty
	kept := make([]*active, 0, len(actives)+4)
	var cands []*candidate

	for i, a := range actives {
		t := br.lineTotals(a, b)
		bad, fit := judge(t, br.p.width(a.line)-t.Natural, cfg.emergency)

		artificial := false
		stays := true
		if bad > layout.InfBad || forced {
			if cfg.final && len(cands) == 0 && len(kept) == 0 && i == len(actives)-1 {
				artificial = true
			} else if bad > cfg.threshold {
				continue
			}
			stays = false
		} else if bad > cfg.threshold {
			kept = append(kept, a)
			continue
		}

		d := 0.0
		if !artificial {
			d = br.demerits(bad, pi, fit, a, flagged, final)
		}
		class := br.lineClass(a.line + 1)
		total := a.total + d
		var c *candidate
		for _, x := range cands {
			if x.class == class && x.fitness == fit {
				c = x
				break
			}
		}
		switch {
		case c == nil:
			cands = append(cands, &candidate{class: class, fitness: fit, total: total, from: a, badness: bad, demerits: d, artificial: artificial})
		case total <= c.total:
			c.total, c.from, c.badness, c.demerits, c.artificial = total, a, bad, d, artificial
		}
		if stays {
			kept = append(kept, a)
		}
	}

	if len(cands) == 0 {
		return kept
	}
	// every path goes through a forced break, so only the cheapest one
	// continues; at the paragraph end all candidates stay for looseness
	if forced && !final {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.total < best.total {
				best = c
			}
		}
		cands = []*candidate{best}
	}
	minimum := map[int]float64{}
	for _, c := range cands {
		if m, ok := minimum[c.class]; !ok || c.total < m {
			minimum[c.class] = c.total
		}
	}
	start, post := br.after(b)
	for _, c := range cands {
		if c.total > minimum[c.class]+float64(absInt(br.p.AdjDemerits)) {
			continue
		}
		from := c.from
		brk := &passive{
			pos:        b,
			start:      min(from.start, b),
			line:       from.line + 1,
			fitness:    c.fitness,
			badness:    c.badness,
			penalty:    pi,
			flagged:    flagged,
			demerits:   c.demerits,
			artificial: c.artificial,
			prev:       from.brk,
		}
		kept = append(kept, &active{
			brk:     brk,
			line:    from.line + 1,
			fitness: c.fitness,
			flagged: flagged,
			total:   c.total,
			start:   start,
			post:    post,
		})
	}
	return kept
}

// lineTotals returns the totals of the line from a to a break at b.
func (br *breaker) lineTotals(a *active, b int) box.Totals {
	s := min(a.start, b)
	t := br.sums[b].Sub(br.sums[s])
	t.AddFixed(a.post)
	if b < len(br.list) {
		if d, ok := br.list[b].(*box.Discretionary); ok {
			t.AddFixed(box.Width(d.PreBreak))
		}
	}
	t.AddGlue(br.p.LeftSkip)
	t.AddGlue(br.p.RightSkip)
	if a.line == 0 {
		t.AddFixed(br.p.Indent)
	}
	return t
}

// after returns where the line following a break at b starts and the
// width of material the break carries into it. Discardable nodes after
// the break are pruned unless a post-break starts the line.
func (br *breaker) after(b int) (int, float64) {
	if b >= len(br.list) {
		return len(br.list), 0
	}
	i := b + 1
	if d, ok := br.list[b].(*box.Discretionary); ok && d.PostBreak != nil {
		return i, box.Width(d.PostBreak)
	}
	for i < len(br.list) && box.IsDiscardable(br.list[i]) {
		i++
	}
	return i, 0
}

// lineClass merges line numbers past the last distinct line width so
// that equivalent paths compete, unless looseness needs exact counts.
func (br *breaker) lineClass(line int) int {
	if br.p.Looseness != 0 {
		return line
	}
	last := max(len(br.p.ParShape)-1, 0)
	return min(line, last)
}

// judge returns the badness and fitness of a line with totals t that must
// absorb excess. Lines that would have to shrink beyond their shrink are
// infeasible (InfBad+1). The emergency stretch is added to the finite
// stretch and so also shapes the fitness class.
func judge(t box.Totals, excess, emergency float64) (int, Fitness) {
	if excess >= -eps {
		order, st := t.StretchOrder()
		if order != box.Normal {
			return 0, Decent
		}
		b := Badness(excess, st+emergency)
		return b, fitnessOf(b, false)
	}
	order, sh := t.ShrinkOrder()
	if order != box.Normal {
		return 0, Decent
	}
	if -excess > sh+eps {
		return layout.InfBad + 1, Tight
	}
	b := Badness(excess, sh)
	return b, fitnessOf(b, true)
}

func (br *breaker) demerits(bad, pi int, fit Fitness, a *active, flagged, final bool) float64 {
	p := br.p
	d := float64(p.LinePenalty + bad)
	if math.Abs(d) >= 10000 {
		d = 1e8
	} else {
		d *= d
	}
	switch {
	case pi > 0:
		d += float64(pi * pi)
	case pi < 0 && pi > box.EjectPenalty:
		d -= float64(pi * pi)
	}
	if a.flagged {
		if final {
			d += float64(p.FinalHyphenDemerits)
		} else if flagged {
			d += float64(p.DoubleHyphenDemerits)
		}
	}
	if absInt(int(fit)-int(a.fitness)) > 1 {
		d += float64(p.AdjDemerits)
	}
	return d
}

// choose picks the final active node: the fewest demerits, or with
// Looseness the node whose line count is closest to best+Looseness.
// A non-final pass fails when the looseness cannot be met exactly.
func (br *breaker) choose(finals []*active, final bool) (*active, bool) {
	if len(finals) == 0 {
		return nil, false
	}
	best := finals[0]
	for _, a := range finals[1:] {
		if a.total < best.total {
			best = a
		}
	}
	if br.p.Looseness == 0 {
		return best, true
	}
	bestLine := best.line
	actual := 0
	fewest := best.total
	for _, a := range finals {
		diff := a.line - bestLine
		switch {
		case (diff < actual && br.p.Looseness <= diff) || (diff > actual && br.p.Looseness >= diff):
			best, actual, fewest = a, diff, a.total
		case diff == actual && a.total < fewest:
			best, fewest = a, a.total
		}
	}
	if actual != br.p.Looseness && !final {
		return nil, false
	}
	return best, true
}

// breakpoints walks the chosen path back to the paragraph start.
func (br *breaker) breakpoints(last *passive) []Breakpoint {
	var rev []*passive
	for q := last; q != nil; q = q.prev {
		rev = append(rev, q)
	}
	out := make([]Breakpoint, len(rev))
	for i, q := range rev {
		out[len(rev)-1-i] = Breakpoint{
			Pos:      q.pos,
			Kind:     kindAt(br.list, q.pos),
			Line:     q.line,
			Fitness:  q.fitness,
			Badness:  q.badness,
			Penalty:  q.penalty,
			Flagged:  q.flagged,
			Demerits: q.demerits,
			Start:    q.start,
		}
	}
	return out
}

func pathArtificial(q *passive) bool {
	for ; q != nil; q = q.prev {
		if q.artificial {
			return true
		}
	}
	return false
}
