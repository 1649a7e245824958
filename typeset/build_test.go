package typeset

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/config"
	"github.com/ByLCY/galley/dsl"
	"github.com/ByLCY/galley/fonts"
	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
)

// monoMetrics sets every glyph 5pt wide; only 'g' has a depth.
type monoMetrics struct{}

func (monoMetrics) Glyph(font string, r rune) (hlist.GlyphMetrics, error) {
	g := hlist.GlyphMetrics{Width: 5, Height: 7}
	if r == 'g' {
		g.Depth = 2
	}
	return g, nil
}

func (monoMetrics) Font(font string) (hlist.FontParams, error) {
	return hlist.FontParams{Size: 10, Space: 3, SpaceStretch: 1.5, SpaceShrink: 1, ExtraSpace: 1, Quad: 10, XHeight: 4}, nil
}

func (monoMetrics) Kern(string, rune, rune) float64 { return 0 }

func mono(layout.ResourceSet) (hlist.FontMetrics, error) { return monoMetrics{}, nil }

// smallPage is 200pt × 100pt with 10pt margins: a 180pt × 80pt text area.
func smallPage() config.Config {
	cfg := config.Default()
	cfg.Page.Width = "200pt"
	cfg.Page.Height = "100pt"
	cfg.Page.Margin = "10pt"
	cfg.Page.ParSkip = "0pt"
	return cfg
}

func build(t *testing.T, src string, data any, cfg config.Config) *layout.Result {
	t.Helper()
	doc, err := dsl.ParseString(src)
	require.NoError(t, err)
	res, err := Build(doc, data, Options{Config: cfg, Metrics: mono})
	require.NoError(t, err)
	return res
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("abcd ", n))
}

// lines returns the line boxes of a page with the absolute baseline of each.
func lines(p layout.Page) ([]*layout.Placed, []float64) {
	var out []*layout.Placed
	var ys []float64
	for _, c := range p.Body.Children {
		if c.Kind == box.KindHBox {
			out = append(out, c)
			ys = append(ys, p.Body.Y+c.Y)
		}
	}
	return out, ys
}

func pageText(p layout.Page) string {
	var sb strings.Builder
	p.Body.Walk(func(n *layout.Placed, _, _ float64) {
		if n.Kind == box.KindChar {
			sb.WriteRune(n.Rune)
		}
	})
	return sb.String()
}

func TestBuildSingleParagraph(t *testing.T) {
	res := build(t, `
doc Test v1 {
  meta {
    title: "Specimen"
    keywords: ["a", "b"]
  }
  par { "Hello world." }
}
`, nil, smallPage())

	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Specimen", res.Meta.Title)
	assert.Equal(t, "Galley", res.Meta.Creator)
	assert.Equal(t, []string{"a", "b"}, res.Meta.Keywords)
	assert.Contains(t, res.Resources.Fonts, "roman")
	assert.Empty(t, res.Diagnostics)

	page := res.Pages[0]
	assert.Equal(t, 1, page.Number)
	assert.InDelta(t, 10, page.Body.X, 1e-9)
	assert.InDelta(t, 90, page.Body.Y, 1e-9)
	assert.InDelta(t, 80, page.Body.Height, 1e-9)
	assert.Equal(t, "Helloworld.", pageText(page))

	ls, ys := lines(page)
	require.Len(t, ls, 1)
	assert.InDelta(t, 180, ls[0].Width, 1e-9)
	// baseline sits topskip below the top of the text area
	assert.InDelta(t, 20, ys[0], 1e-9)
}

func TestSettingsAndBinding(t *testing.T) {
	res := build(t, `
doc Test v1 {
  meta { author: "${user.name}" }
  settings {
    line-width: 100pt
    indent: 0pt
  }
  par { "Dear ${user.name}," "hello." }
}
`, map[string]any{"user": map[string]any{"name": "Ada"}}, smallPage())

	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Ada", res.Meta.Author)
	assert.Equal(t, "DearAda,hello.", pageText(res.Pages[0]))
	ls, _ := lines(res.Pages[0])
	require.NotEmpty(t, ls)
	for _, l := range ls {
		assert.InDelta(t, 100, l.Width, 1e-9)
	}
}

func TestParShapeOption(t *testing.T) {
	res := build(t, `
doc Test v1 {
  par [parshape 60pt 120pt] [indent 0pt] { "`+words(20)+`" }
}
`, nil, smallPage())

	ls, ys := lines(res.Pages[0])
	require.Greater(t, len(ls), 2)
	assert.InDelta(t, 60, ls[0].Width, 1e-9)
	for _, l := range ls[1:] {
		assert.InDelta(t, 120, l.Width, 1e-9)
	}
	for i := 1; i < len(ys); i++ {
		assert.InDelta(t, 12, ys[i]-ys[i-1], 1e-9, "baselineskip between lines %d and %d", i, i+1)
	}
}

func TestLongParagraphSpillsOntoPages(t *testing.T) {
	res := build(t, `
doc Test v1 {
  par { "`+words(120)+`" }
}
`, nil, smallPage())

	require.Greater(t, len(res.Pages), 1)
	total := 0
	for i, p := range res.Pages {
		assert.Equal(t, i+1, p.Number)
		assert.InDelta(t, 80, p.Body.Height, 1e-9)
		ls, ys := lines(p)
		require.NotEmpty(t, ls)
		// first baseline at topskip, last one inside the text area
		assert.InDelta(t, 20, ys[0], 1e-9)
		assert.LessOrEqual(t, ys[len(ys)-1], 90+1e-9)
		total += len(ls)
	}
	assert.Greater(t, total, 6)
}

func TestPageBreakAndVerticalSkip(t *testing.T) {
	res := build(t, `
doc Test v1 {
  par { "one" }
  vskip 20pt
  par { "two" }
  pagebreak
  vskip 30pt
  par { "three" }
}
`, nil, smallPage())

	require.Len(t, res.Pages, 2)
	assert.Equal(t, "onetwo", pageText(res.Pages[0]))
	assert.Equal(t, "three", pageText(res.Pages[1]))

	_, ys := lines(res.Pages[0])
	require.Len(t, ys, 2)
	// 20pt skip plus the 12pt baselineskip
	assert.InDelta(t, 32, ys[1]-ys[0], 1e-9)

	// skips at the top of a page are discarded
	_, ys = lines(res.Pages[1])
	require.Len(t, ys, 1)
	assert.InDelta(t, 20, ys[0], 1e-9)
}

func TestEmptyDocumentHasOnePage(t *testing.T) {
	res := build(t, "doc Empty v1 { }", nil, smallPage())
	require.Len(t, res.Pages, 1)
	assert.Len(t, res.Pages[0].Body.Children, 1)
	assert.Empty(t, pageText(res.Pages[0]))
	assert.Empty(t, res.Diagnostics)
}

func TestInlineCommands(t *testing.T) {
	res := build(t, `
doc Test v1 {
  par {
    "x"
    kern 2pt
    glue 3pt plus 1pt
    disc { pre "-" post "" nobreak "" }
    math text { ord "a" bin "+" ord "b" }
    rule 1pt 5pt 0pt
    hbox 40pt { "in" hfil }
    leaders 10pt
    penalty 50 flagged
    font bold
    "y"
  }
}
`, nil, smallPage())
	assert.Equal(t, "xa+biny", pageText(res.Pages[0]))
	assert.Empty(t, res.Diagnostics)
}

func TestOverfullLineIsReported(t *testing.T) {
	res := build(t, `
doc Test v1 {
  settings { line-width: 30pt
  }
  par [indent 0pt] { "abcdefghij" }
}
`, nil, smallPage())

	require.NotEmpty(t, res.Diagnostics)
	d := res.Diagnostics[0]
	assert.Equal(t, layout.Overfull, d.Kind)
	assert.Equal(t, 1, d.Paragraph)
	assert.Equal(t, 1, d.Line)
	assert.InDelta(t, 20, d.Amount, 1e-9)
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		"unknown command": `doc T v1 { par { frobnicate 1 } }`,
		"unknown setting": "doc T v1 {\n settings { nope: 1\n }\n}",
		"undefined font":  "doc T v1 {\n settings { font: nope\n }\n}",
		"bad kern":        `doc T v1 { par { kern wide } }`,
		"font without src": `doc T v1 {
  resources { font X { size: 10pt } }
}`,
	}
	for name, src := range cases {
		doc, err := dsl.ParseString(src)
		require.NoError(t, err, name)
		_, err = Build(doc, nil, Options{Config: smallPage(), Metrics: mono})
		assert.Error(t, err, name)
	}
}

func TestCancelledContext(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 { par { "a" } }`)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildContext(ctx, doc, nil, Options{Config: smallPage(), Metrics: mono})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFontTableSharesDefaults(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 { }`)
	require.NoError(t, err)
	res, err := collectResources(doc, config.Default())
	require.NoError(t, err)
	m, err := FontTable("")(res)
	require.NoError(t, err)
	assert.Same(t, fonts.Default(), m)

	res.Fonts["big"] = layout.FontResource{Name: "big", Src: "lm:roman12", Size: 12}
	m, err = FontTable("")(res)
	require.NoError(t, err)
	params, err := m.Font("big")
	require.NoError(t, err)
	assert.InDelta(t, 12, params.Size, 1e-9)
}

func TestRealFontsEndToEnd(t *testing.T) {
	doc, err := dsl.ParseString(`
doc T v1 {
  par { "The quick brown fox jumps over the lazy dog." }
}
`)
	require.NoError(t, err)
	res, err := Build(doc, nil, Options{Config: smallPage()})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Thequickbrownfoxjumpsoverthelazydog.", pageText(res.Pages[0]))
}

func TestRaggedBottom(t *testing.T) {
	src := `doc T v1 { par { "` + words(120) + `" } }`
	pageDiags := func(res *layout.Result) []layout.Diagnostic {
		var out []layout.Diagnostic
		for _, d := range res.Diagnostics {
			if d.Page > 0 {
				out = append(out, d)
			}
		}
		return out
	}

	cfg := smallPage()
	cfg.Page.RaggedBottom = true
	assert.Empty(t, pageDiags(build(t, src, nil, cfg)))

	// without raggedbottom the rigid baselineskip cannot fill a page
	cfg.Page.RaggedBottom = false
	res := build(t, src, nil, cfg)
	diags := pageDiags(res)
	require.NotEmpty(t, diags)
	assert.Equal(t, layout.Underfull, diags[0].Kind)
	assert.Equal(t, 1, diags[0].Page)
	for _, d := range diags {
		assert.Less(t, d.Page, len(res.Pages), "the last page is filled")
	}
}

func TestVerticalRule(t *testing.T) {
	res := build(t, `
doc T v1 {
  par { "one" }
  rule
  vfill
  par { "two" }
}
`, nil, smallPage())
	require.Len(t, res.Pages, 1)
	var rules []*layout.Placed
	for _, c := range res.Pages[0].Body.Children {
		if c.Kind == box.KindRule {
			rules = append(rules, c)
		}
	}
	require.Len(t, rules, 1)
	assert.InDelta(t, 180, rules[0].Width, 1e-9)
	assert.InDelta(t, 0.4, rules[0].Height, 1e-9)

	// vfill pushes the second line to the bottom of the text area
	_, ys := lines(res.Pages[0])
	require.Len(t, ys, 2)
	assert.InDelta(t, 90, ys[1], 1e-9)
}
