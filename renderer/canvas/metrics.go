package canvasrenderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
)

// descenders 是按 x 高度与基线估算字形深度时视为带下伸部的字符。
const descenders = "gjpqy,;()[]{}|/@$Q"

// ascenders 中的小写字母高度取大写字母高度。
const ascenders = "bdfhklt"

// Metrics 用渲染器自身的字体面测量字符，返回的度量表与 PDF 中实际使用的字形一致。
// canvas 只提供字体级的上伸与下伸，单个字形的高度与深度按字符类别估算。
func (r *Renderer) Metrics(res layout.ResourceSet) (hlist.FontMetrics, error) {
	m := &faceMetrics{faces: make(map[string]*measuredFace, len(res.Fonts))}
	for name, font := range res.Fonts {
		face, err := r.fontFace(font)
		if err != nil {
			return nil, fmt.Errorf("字体 %s: %w", name, err)
		}
		m.faces[name] = &measuredFace{face: face, size: font.Size, widths: map[rune]float64{}}
	}
	return m, nil
}

type faceMetrics struct {
	faces map[string]*measuredFace
}

type measuredFace struct {
	mu     sync.Mutex
	face   *canvas.FontFace
	size   float64
	widths map[rune]float64
}

func (m *faceMetrics) lookup(font string) (*measuredFace, error) {
	f, ok := m.faces[font]
	if !ok {
		return nil, fmt.Errorf("未定义的字体 %s", font)
	}
	return f, nil
}

// width 返回字符串宽度（pt），调用方持有 mu。
func (f *measuredFace) width(s string) float64 {
	return toPt(f.face.TextWidth(s))
}

// runeWidth 调用方持有 mu。
func (f *measuredFace) runeWidth(r rune) float64 {
	if w, ok := f.widths[r]; ok {
		return w
	}
	w := f.width(string(r))
	f.widths[r] = w
	return w
}

func (m *faceMetrics) Glyph(font string, r rune) (hlist.GlyphMetrics, error) {
	f, err := m.lookup(font)
	if err != nil {
		return hlist.GlyphMetrics{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fm := f.face.Metrics()
	g := hlist.GlyphMetrics{Width: f.runeWidth(r)}
	switch {
	case r >= 'a' && r <= 'z' && !strings.ContainsRune(ascenders, r):
		g.Height = toPt(fm.XHeight)
	default:
		g.Height = toPt(fm.CapHeight)
	}
	if strings.ContainsRune(descenders, r) {
		g.Depth = toPt(fm.Descent)
	}
	return g, nil
}

func (m *faceMetrics) Font(font string) (hlist.FontParams, error) {
	f, err := m.lookup(font)
	if err != nil {
		return hlist.FontParams{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	space := f.runeWidth(' ')
	if space <= 0 {
		space = f.size / 3
	}
	return hlist.FontParams{
		Size:         f.size,
		Space:        space,
		SpaceStretch: space / 2,
		SpaceShrink:  space / 3,
		ExtraSpace:   space / 3,
		Quad:         f.size,
		XHeight:      toPt(f.face.Metrics().XHeight),
	}, nil
}

// Kern 取字符对整体宽度与单字宽度之和的差值。
func (m *faceMetrics) Kern(font string, left, right rune) float64 {
	f, err := m.lookup(font)
	if err != nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.width(string([]rune{left, right})) - f.runeWidth(left) - f.runeWidth(right)
	if k > -1.0/64 && k < 1.0/64 {
		return 0
	}
	return k
}
