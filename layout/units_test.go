package layout

import (
	"math"
	"testing"

	"github.com/ByLCY/galley/box"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72.27, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性。
func TestLengthToConversions(t *testing.T) {
	cases := []struct {
		in   Length
		want float64 // pt
	}{
		{Length{1, UnitIN}, 72.27},
		{Length{2.54, UnitCM}, 72.27},
		{Length{72, UnitBP}, 72.27},
		{Length{1, UnitPC}, 12},
		{Length{65536, UnitSP}, 1},
		{Length{1157, UnitDD}, 1238},
		{Length{1, UnitCC}, 12 * 1238.0 / 1157},
		{Length{10, UnitNone}, 10},
	}
	for _, c := range cases {
		if got := c.in.ToPT(); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("%g%s 转 pt 期望 %g，实际 %g", c.in.Value, UnitToString(c.in.Unit), c.want, got)
		}
	}
	if got := (Length{1, UnitIN}).ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("1in 转 mm 期望 25.4，实际 %g", got)
	}
}

func TestParseLength(t *testing.T) {
	got, err := ParseLength(" 10mm ")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 期望 %g，实际 %g", 10*MmToPt, got)
	}
	if v, _ := ParseLength("-2.5pt"); v != -2.5 {
		t.Fatalf("负长度解析错误: %g", v)
	}
	for _, bad := range []string{"", "pt", "abc", "1.2.3mm"} {
		if _, err := ParseLength(bad); err == nil {
			t.Fatalf("%q 应当解析失败", bad)
		}
	}
}

func TestParseGlue(t *testing.T) {
	cases := map[string]box.Glue{
		"3pt":                     {Space: 3},
		"3pt plus 1pt minus 1pt":  {Space: 3, Stretch: 1, Shrink: 1},
		"0pt plus 1fil":           {Stretch: 1, StretchOrder: box.Fil},
		"2pt minus 2fill":         {Space: 2, Shrink: 2, ShrinkOrder: box.Fill},
		"12pt plus -1filll":       {Space: 12, Stretch: -1, StretchOrder: box.Filll},
		"1pc plus 6pt minus 12sp": {Space: 12, Stretch: 6, Shrink: 12.0 / 65536},
	}
	for in, want := range cases {
		got, err := ParseGlue(in)
		if err != nil {
			t.Fatalf("%q 解析失败: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q 期望 %+v，实际 %+v", in, want, got)
		}
	}
	for _, bad := range []string{"", "3pt plus", "3pt times 2pt", "3pt plus xfil"} {
		if _, err := ParseGlue(bad); err == nil {
			t.Fatalf("%q 应当解析失败", bad)
		}
	}
}
