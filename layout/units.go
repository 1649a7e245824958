package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/galley/box"
)

// This file defines unit-safe types and helpers for lengths and glue.
// All dimensions inside the engine are TeX points (1/72.27 in).

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitPT               // TeX points
	UnitBP               // big (PostScript) points
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPC               // picas
	UnitDD               // didot points
	UnitCC               // cicero
	UnitSP               // scaled points
)

// Conversion constants between TeX points and other units.
const (
	PtPerIn = 72.27
	PtToMm  = 25.4 / PtPerIn
	MmToPt  = 1.0 / PtToMm
	BpToPt  = PtPerIn / 72
	SpPerPt = 65536
)

var unitNames = []struct {
	s string
	u Unit
}{
	{"pt", UnitPT}, {"bp", UnitBP}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN},
	{"pc", UnitPC}, {"dd", UnitDD}, {"cc", UnitCC}, {"sp", UnitSP},
}

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	for _, n := range unitNames {
		if n.u == u {
			return n.s
		}
	}
	return ""
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToPT converts the length to TeX points. Unit-less values are taken as
// points already.
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitBP:
		return l.Value * BpToPt
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * PtPerIn
	case UnitPC:
		return l.Value * 12
	case UnitDD:
		return l.Value * 1238 / 1157
	case UnitCC:
		return l.Value * 12 * 1238 / 1157
	case UnitSP:
		return l.Value / SpPerPt
	default:
		return l.Value
	}
}

// ToMM converts the length to millimeters.
func (l Length) ToMM() float64 { return l.ToPT() * PtToMm }

// ParseRawLengthStr parses a DSL length string preserving its unit.
func ParseRawLengthStr(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	unit := UnitNone
	num := v
	for _, n := range unitNames {
		if strings.HasSuffix(v, n.s) {
			unit = n.u
			num = strings.TrimSpace(strings.TrimSuffix(v, n.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// ParseLength parses a length like "12pt" or "3.5mm" into TeX points.
func ParseLength(value string) (float64, error) {
	l, err := ParseRawLengthStr(value)
	if err != nil {
		return 0, err
	}
	return l.ToPT(), nil
}

// ParseGlue parses TeX glue syntax: "<len> [plus <len|Nfil>] [minus <len|Nfil>]".
func ParseGlue(value string) (box.Glue, error) {
	fields := strings.Fields(strings.ToLower(value))
	if len(fields) == 0 {
		return box.Glue{}, fmt.Errorf("empty glue")
	}
	var g box.Glue
	space, err := ParseLength(fields[0])
	if err != nil {
		return box.Glue{}, err
	}
	g.Space = space
	for i := 1; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			return box.Glue{}, fmt.Errorf("glue %q: %s needs a value", value, fields[i])
		}
		amount, order, err := parseStretch(fields[i+1])
		if err != nil {
			return box.Glue{}, fmt.Errorf("glue %q: %w", value, err)
		}
		switch fields[i] {
		case "plus":
			g.Stretch, g.StretchOrder = amount, order
		case "minus":
			g.Shrink, g.ShrinkOrder = amount, order
		default:
			return box.Glue{}, fmt.Errorf("glue %q: unexpected %q", value, fields[i])
		}
	}
	return g, nil
}

// parseStretch accepts either a length or an infinite amount like "1fil".
func parseStretch(s string) (float64, box.Order, error) {
	for _, o := range []box.Order{box.Filll, box.Fill, box.Fil} {
		if strings.HasSuffix(s, o.String()) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, o.String()), 64)
			if err != nil {
				return 0, box.Normal, fmt.Errorf("invalid %s amount %q", o, s)
			}
			return f, o, nil
		}
	}
	v, err := ParseLength(s)
	return v, box.Normal, err
}
