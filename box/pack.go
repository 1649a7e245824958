package box

import "math"

// HPack packs children into an hbox of natural size.
func HPack(children ...Node) *HBox {
	b := &HBox{Children: append([]Node(nil), children...)}
	for _, c := range b.Children {
		switch n := c.(type) {
		case Glue:
			b.Content.AddGlue(n)
		case *Leaders:
			b.Content.AddGlue(n.Glue)
			b.grow(n.Size(), 0)
		case Penalty:
		case *HBox:
			b.Content.AddFixed(n.Width)
			b.grow(n.Size(), n.Shift)
		case *VBox:
			b.Content.AddFixed(n.Width)
			b.grow(n.Size(), n.Shift)
		case *Rule:
			b.Content.AddFixed(deref(n.Width))
			b.grow(n.Size(), 0)
		default:
			d := c.Size()
			b.Content.AddFixed(d.Width)
			b.grow(d, 0)
		}
	}
	b.Width = b.Content.Natural
	return b
}

// HPackTo packs children into an hbox whose outer width is w. The content
// keeps its natural totals; setting distributes the difference.
func HPackTo(w float64, children ...Node) *HBox {
	b := HPack(children...)
	b.Width = w
	b.To = &w
	return b
}

func (b *HBox) grow(d Dims, shift float64) {
	b.Height = math.Max(b.Height, d.Height-shift)
	b.Depth = math.Max(b.Depth, d.Depth+shift)
}

// VPack packs children into a vbox of natural size, following TeX's vpack:
// the depth of the last box becomes the box depth, unless glue or a kern
// follows it.
func VPack(children ...Node) *VBox {
	b := &VBox{Children: append([]Node(nil), children...)}
	prevDepth := 0.0
	for _, c := range b.Children {
		switch n := c.(type) {
		case Glue:
			b.Content.AddFixed(prevDepth)
			b.Content.AddGlue(n)
			prevDepth = 0
		case *Leaders:
			b.Content.AddFixed(prevDepth)
			b.Content.AddGlue(n.Glue)
			prevDepth = 0
		case Kern:
			b.Content.AddFixed(prevDepth + n.Width)
			prevDepth = 0
		case Penalty:
		case *HBox:
			b.Content.AddFixed(prevDepth + n.Height)
			prevDepth = n.Depth
			b.Width = math.Max(b.Width, n.Width+n.Shift)
		case *VBox:
			b.Content.AddFixed(prevDepth + n.Height)
			prevDepth = n.Depth
			b.Width = math.Max(b.Width, n.Width+n.Shift)
		case *Rule:
			b.Content.AddFixed(prevDepth + deref(n.Height))
			prevDepth = deref(n.Depth)
			b.Width = math.Max(b.Width, deref(n.Width))
		default:
			d := c.Size()
			b.Content.AddFixed(prevDepth + d.Height)
			prevDepth = d.Depth
			b.Width = math.Max(b.Width, d.Width)
		}
	}
	b.Height = b.Content.Natural
	b.Depth = prevDepth
	return b
}

// VPackTo packs children into a vbox whose height is h.
func VPackTo(h float64, children ...Node) *VBox {
	b := VPack(children...)
	b.Height = h
	b.To = &h
	return b
}

// NaturalWidth returns the natural content width of an hbox, which differs
// from Width when the box was packed to a size.
func (b *HBox) NaturalWidth() float64 { return b.Content.Natural }

// NaturalHeight returns the natural content height of a vbox.
func (b *VBox) NaturalHeight() float64 { return b.Content.Natural }
