package box

import (
	"fmt"
	"math"
)

// Order is the order of infinity of a glue stretch or shrink component.
type Order int

const (
	Normal Order = iota // finite
	Fil
	Fill
	Filll
)

// String returns the TeX spelling of the order.
func (o Order) String() string {
	switch o {
	case Normal:
		return ""
	case Fil:
		return "fil"
	case Fill:
		return "fill"
	case Filll:
		return "filll"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// Valid reports whether o is one of the four known orders.
func (o Order) Valid() bool { return o >= Normal && o <= Filll }

// Glue is stretchable and shrinkable space.
// A Glue value is also a node of a horizontal or vertical list.
type Glue struct {
	Space        float64 `json:"space"`
	Stretch      float64 `json:"stretch"`
	Shrink       float64 `json:"shrink"`
	StretchOrder Order   `json:"stretchOrder,omitempty"`
	ShrinkOrder  Order   `json:"shrinkOrder,omitempty"`
}

// FixedGlue returns glue that neither stretches nor shrinks.
func FixedGlue(space float64) Glue { return Glue{Space: space} }

// FilGlue returns glue with a first order infinite stretch, like \hfil.
func FilGlue() Glue { return Glue{Stretch: 1, StretchOrder: Fil} }

// Scale multiplies all finite dimensions of g by f. Infinite components
// keep their order and are scaled as well, which matches TeX's \multiply.
func (g Glue) Scale(f float64) Glue {
	g.Space *= f
	g.Stretch *= f
	g.Shrink *= f
	return g
}

// IsZero reports whether g has no space and no stretch or shrink.
func (g Glue) IsZero() bool {
	return g.Space == 0 && g.Stretch == 0 && g.Shrink == 0
}

func (g Glue) String() string {
	s := fmt.Sprintf("%gpt", g.Space)
	if g.Stretch != 0 {
		s += fmt.Sprintf(" plus %g%s", g.Stretch, unitFor(g.StretchOrder))
	}
	if g.Shrink != 0 {
		s += fmt.Sprintf(" minus %g%s", g.Shrink, unitFor(g.ShrinkOrder))
	}
	return s
}

func unitFor(o Order) string {
	if o == Normal {
		return "pt"
	}
	return o.String()
}

// Totals accumulates natural size and stretch/shrink per order.
type Totals struct {
	Natural float64    `json:"natural"`
	Stretch [4]float64 `json:"stretch"`
	Shrink  [4]float64 `json:"shrink"`
}

// AddGlue adds the glue's space to the natural size and its stretch and
// shrink to the bucket of their respective order.
func (t *Totals) AddGlue(g Glue) {
	t.Natural += g.Space
	if g.StretchOrder.Valid() {
		t.Stretch[g.StretchOrder] += g.Stretch
	}
	if g.ShrinkOrder.Valid() {
		t.Shrink[g.ShrinkOrder] += g.Shrink
	}
}

// AddFixed adds a rigid dimension.
func (t *Totals) AddFixed(w float64) { t.Natural += w }

// Add accumulates all components of o into t.
func (t *Totals) Add(o Totals) {
	t.Natural += o.Natural
	for i := range t.Stretch {
		t.Stretch[i] += o.Stretch[i]
		t.Shrink[i] += o.Shrink[i]
	}
}

// Sub returns t - o componentwise.
func (t Totals) Sub(o Totals) Totals {
	t.Natural -= o.Natural
	for i := range t.Stretch {
		t.Stretch[i] -= o.Stretch[i]
		t.Shrink[i] -= o.Shrink[i]
	}
	return t
}

// StretchOrder returns the highest order with a non-zero stretch total and
// the total at that order. Lower orders are insignificant when a higher
// one is present.
func (t Totals) StretchOrder() (Order, float64) {
	return highest(t.Stretch)
}

// ShrinkOrder is the shrink counterpart of StretchOrder.
func (t Totals) ShrinkOrder() (Order, float64) {
	return highest(t.Shrink)
}

// orderEpsilon absorbs rounding left over by Sub on infinite buckets.
const orderEpsilon = 1e-9

func highest(v [4]float64) (Order, float64) {
	for o := Filll; o > Normal; o-- {
		if math.Abs(v[o]) > orderEpsilon {
			return o, v[o]
		}
	}
	return Normal, v[Normal]
}
