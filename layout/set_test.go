package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/galley/box"
)

func word(s string, w float64) []box.Node {
	out := make([]box.Node, 0, len(s))
	for _, r := range s {
		out = append(out, &box.Char{Rune: r, Font: "body", Width: w, Height: 7, Depth: 1})
	}
	return out
}

// helloWorld is "Hello" glue(3,1,1) "world" with 5pt characters.
func helloWorld(g box.Glue) *box.HBox {
	nodes := word("Hello", 5)
	nodes = append(nodes, g)
	nodes = append(nodes, word("world", 5)...)
	return box.HPack(nodes...)
}

func childWidths(p *Placed) float64 {
	sum := 0.0
	for _, c := range p.Children {
		sum += c.Width
	}
	return sum
}

func TestSetAtNaturalWidth(t *testing.T) {
	b := helloWorld(box.Glue{Space: 3, Stretch: 1, Shrink: 1})
	p, diags := Set(b, 53)
	assert.Empty(t, diags)
	require.NotNil(t, p.Glue)
	assert.Equal(t, Natural, p.Glue.Sign)
	assert.Equal(t, 0.0, p.Glue.Ratio)
	assert.Equal(t, 3.0, p.Children[5].Width)
	assert.Equal(t, 28.0, p.Children[6].X)
}

func TestSetStretchRatio(t *testing.T) {
	b := helloWorld(box.Glue{Space: 3, Stretch: 1, Shrink: 1})
	p, diags := Set(b, 55)
	require.NotNil(t, p.Glue)
	assert.Equal(t, Stretching, p.Glue.Sign)
	assert.InDelta(t, 2.0, p.Glue.Ratio, 1e-12)
	assert.InDelta(t, 5.0, p.Children[5].Width, 1e-12)
	assert.Equal(t, 800, p.Glue.Badness)
	assert.Empty(t, diags, "badness 800 is within hbadness")

	// without stretch the box cannot grow
	rigid := helloWorld(box.FixedGlue(3))
	p, diags = Set(rigid, 55)
	assert.Equal(t, 0.0, p.Glue.Ratio)
	assert.True(t, p.Glue.Underfull)
	require.Len(t, diags, 1)
	assert.Equal(t, Underfull, diags[0].Kind)
	assert.Equal(t, InfBad, diags[0].Badness)
	assert.InDelta(t, 2, diags[0].Amount, 1e-12)
}

func TestSetOverfullClampsRatio(t *testing.T) {
	b := helloWorld(box.Glue{Space: 3, Stretch: 1, Shrink: 1})
	p, diags := Set(b, 50)
	assert.True(t, p.Glue.Overfull)
	assert.Equal(t, 1.0, p.Glue.Ratio)
	assert.Equal(t, 2.0, p.Children[5].Width)
	require.Len(t, diags, 1)
	assert.Equal(t, Overfull, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.InDelta(t, 2, diags[0].Amount, 1e-12)

	// within hfuzz nothing is reported
	_, diags = Set(b, 51.95)
	assert.Empty(t, diags)
}

func TestSetTight(t *testing.T) {
	b := helloWorld(box.Glue{Space: 3, Stretch: 1, Shrink: 1})
	p, diags := Set(b, 52)
	assert.Equal(t, Shrinking, p.Glue.Sign)
	assert.Equal(t, 100, p.Glue.Badness)
	assert.Empty(t, diags)

	strict := DefaultOptions()
	strict.HBadness = 50
	_, diags = strict.Set(b, 52)
	require.Len(t, diags, 1)
	assert.Equal(t, Tight, diags[0].Kind)
	assert.Equal(t, SeverityInfo, diags[0].Severity)
}

func TestWidthConservationAllOrders(t *testing.T) {
	for _, o := range []box.Order{box.Normal, box.Fil, box.Fill, box.Filll} {
		nodes := word("ab", 5)
		nodes = append(nodes,
			box.Glue{Space: 3, Stretch: 2, StretchOrder: o, Shrink: 1.5, ShrinkOrder: o},
			box.Kern{Width: 1},
			box.Glue{Space: 2, Stretch: 1, Shrink: 0.5}, // loses to higher orders
		)
		nodes = append(nodes, word("cd", 5)...)
		b := box.HPack(nodes...)
		for _, target := range []float64{b.Width - 1.5, b.Width, b.Width + 0.5, b.Width + 17} {
			p, _ := Set(b, target)
			assert.InDelta(t, target, childWidths(p), 1e-9, "order %v target %g", o, target)
			if o != box.Normal && target > b.Width {
				assert.Equal(t, 2.0, p.Children[4].Width, "lower order glue keeps its space")
			}
		}
	}
}

func TestSetIsIdempotent(t *testing.T) {
	b := helloWorld(box.Glue{Space: 3, Stretch: 1, Shrink: 1})
	p1, d1 := Set(b, 60)
	p2, d2 := Set(b, 60)
	if diff := cmp.Diff(p1, p2); diff != "" {
		t.Fatalf("setting twice differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, d1, d2)
	assert.Equal(t, 53.0, b.Content.Natural, "natural size untouched")

	p3, _ := Set(b, 50)
	assert.NotEqual(t, p1.Children[5].Width, p3.Children[5].Width)
}

func TestSetVBoxStacksFromTop(t *testing.T) {
	l1 := box.HPack(word("ab", 5)...)
	l2 := box.HPack(word("cd", 5)...)
	v := box.VPack(l1, box.Glue{Space: 4, Stretch: 1}, l2)
	// 7 + 1 + 4 + 7 = 19
	require.InDelta(t, 19, v.Height, 1e-12)

	p, diags := Set(v, 21)
	assert.Empty(t, diags)
	require.Len(t, p.Children, 3)
	assert.InDelta(t, -14, p.Children[0].Y, 1e-12)
	assert.InDelta(t, 6, p.Children[1].Height, 1e-12)
	assert.InDelta(t, 0, p.Children[2].Y, 1e-12)

	heights := 0.0
	for _, c := range p.Children {
		heights += c.Height
	}
	// two lines of height 7 plus the stretched glue and the first depth
	assert.InDelta(t, 21, heights+l1.Depth, 1e-12)
}

func TestNestedBoxesKeepDeclaredSize(t *testing.T) {
	inner := box.HPackTo(30, append(word("ab", 5), box.FilGlue())...)
	inner.Shift = 2
	outer := box.HPack(&box.Char{Rune: 'x', Width: 5, Height: 7}, inner, box.Glue{Space: 1, Stretch: 1, StretchOrder: box.Fil})
	p, diags := Set(outer, 40)
	assert.Empty(t, diags)
	in := p.Children[1]
	assert.Equal(t, box.KindHBox, in.Kind)
	assert.Equal(t, 30.0, in.Width)
	assert.Equal(t, 5.0, in.X)
	assert.Equal(t, 2.0, in.Y)
	assert.Equal(t, box.Fil, in.Glue.Order)
	assert.InDelta(t, 20, in.Children[2].Width, 1e-12)
}

func TestRunningRuleAndLeaders(t *testing.T) {
	dot := box.HPack(&box.Char{Rune: '.', Width: 2, Height: 1})
	b := box.HPack(
		&box.Char{Rune: 'A', Width: 5, Height: 7, Depth: 1},
		&box.Rule{Width: box.Dim(0.4)},
		&box.Leaders{Glue: box.Glue{Stretch: 1, StretchOrder: box.Fil}, Pattern: dot},
	)
	p, _ := Set(b, 15.4)
	rule := p.Children[1]
	assert.Equal(t, 7.0, rule.Height)
	assert.Equal(t, 1.0, rule.Depth)

	lead := p.Children[2]
	assert.InDelta(t, 10, lead.Width, 1e-12)
	require.Len(t, lead.Children, 5)
	assert.InDelta(t, 8, lead.Children[4].X, 1e-12)
}

func TestDiscretionaryAndMathPlaceInner(t *testing.T) {
	x := &box.Char{Rune: 'x', Width: 5, Height: 4}
	b := box.HPack(&box.Discretionary{NoBreak: x}, &box.MathAtom{Class: box.Ord, Inner: x})
	p, _ := Set(b, 10)
	require.Len(t, p.Children, 2)
	assert.Equal(t, box.KindDisc, p.Children[0].Kind)
	assert.Equal(t, 'x', p.Children[0].Children[0].Rune)
	assert.Equal(t, 5.0, p.Children[1].X)
}

func TestWalkAbsolutePositions(t *testing.T) {
	inner := box.HPack(word("ab", 5)...)
	outer := box.HPack(box.Kern{Width: 3}, inner)
	p, _ := Place(outer)
	var xs []float64
	p.Walk(func(n *Placed, x, y float64) {
		if n.Kind == box.KindChar {
			xs = append(xs, x)
		}
	})
	assert.Equal(t, []float64{3, 8}, xs)
}

func TestBadness(t *testing.T) {
	assert.Equal(t, 0, Badness(0, 0))
	assert.Equal(t, InfBad, Badness(1, 0))
	assert.Equal(t, 100, Badness(1, 1))
	assert.Equal(t, 13, Badness(1, 2))
	assert.Equal(t, InfBad, Badness(10, 1))
	assert.Equal(t, 100, Badness(-1, 1))
	assert.Equal(t, 0, Badness(1e-12, 0))
}
