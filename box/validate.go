package box

import (
	"fmt"
	"math"
)

// MalformedError reports a node that cannot take part in typesetting.
type MalformedError struct {
	Kind   Kind
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: %s", e.Kind, e.Reason)
}

func malformed(k Kind, format string, args ...any) error {
	return &MalformedError{Kind: k, Reason: fmt.Sprintf(format, args...)}
}

// NewChar returns a character node after checking its dimensions.
func NewChar(r rune, font string, width, height, depth, italic float64) (*Char, error) {
	c := &Char{Rune: r, Font: font, Width: width, Height: height, Depth: depth, Italic: italic}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewRule returns a rule; pass nil for running dimensions.
func NewRule(width, height, depth *float64) (*Rule, error) {
	r := &Rule{Width: width, Height: height, Depth: depth}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// NewDiscretionary returns a discretionary break. At least one branch must
// be present.
func NewDiscretionary(pre, post, noBreak Node) (*Discretionary, error) {
	d := &Discretionary{PreBreak: pre, PostBreak: post, NoBreak: noBreak}
	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks n and its descendants.
func Validate(n Node) error {
	switch v := n.(type) {
	case nil:
		return nil
	case *Char:
		if v == nil {
			return malformed(KindChar, "nil node")
		}
		return checkDims(KindChar, v.Width, v.Height, v.Depth, v.Italic)
	case *HBox:
		if v == nil {
			return malformed(KindHBox, "nil node")
		}
		return validateChildren(v.Children)
	case *VBox:
		if v == nil {
			return malformed(KindVBox, "nil node")
		}
		return validateChildren(v.Children)
	case Glue:
		if !v.StretchOrder.Valid() || !v.ShrinkOrder.Valid() {
			return malformed(KindGlue, "order out of range")
		}
		if !finite(v.Space, v.Stretch, v.Shrink) {
			return malformed(KindGlue, "non-finite component")
		}
		return nil
	case Kern:
		if !finite(v.Width) {
			return malformed(KindKern, "non-finite width")
		}
		return nil
	case Penalty:
		return nil
	case *Discretionary:
		if v == nil {
			return malformed(KindDisc, "nil node")
		}
		if v.PreBreak == nil && v.PostBreak == nil && v.NoBreak == nil {
			return malformed(KindDisc, "all branches are empty")
		}
		for _, c := range []Node{v.PreBreak, v.PostBreak, v.NoBreak} {
			if _, ok := c.(*Discretionary); ok {
				return malformed(KindDisc, "nested discretionary")
			}
			if err := Validate(c); err != nil {
				return err
			}
		}
		return nil
	case *Rule:
		if v == nil {
			return malformed(KindRule, "nil node")
		}
		for _, p := range []*float64{v.Width, v.Height, v.Depth} {
			if p != nil {
				if err := checkDims(KindRule, *p); err != nil {
					return err
				}
			}
		}
		return nil
	case *MathAtom:
		if v == nil {
			return malformed(KindMath, "nil node")
		}
		if v.Class < Ord || v.Class > Inner {
			return malformed(KindMath, "unknown atom class %d", int(v.Class))
		}
		return Validate(v.Inner)
	case *Leaders:
		if v == nil {
			return malformed(KindLeaders, "nil node")
		}
		if err := Validate(v.Glue); err != nil {
			return err
		}
		return Validate(v.Pattern)
	default:
		return fmt.Errorf("box: unknown node type %T", n)
	}
}

func validateChildren(children []Node) error {
	for i, c := range children {
		if c == nil {
			return malformed(KindHBox, "child %d is nil", i)
		}
		if err := Validate(c); err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
	}
	return nil
}

func checkDims(k Kind, vs ...float64) error {
	if !finite(vs...) {
		return malformed(k, "non-finite dimension")
	}
	for _, v := range vs[:min(len(vs), 3)] {
		if v < 0 {
			return malformed(k, "negative dimension %g", v)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
