package fonts

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/galley/hlist"
)

// Table 是按名称注册的字体度量表，实现 hlist.FontMetrics。
// 度量结果会被缓存，Table 可在多个 goroutine 间共享。
type Table struct {
	mu    sync.RWMutex
	faces map[string]*face
}

var _ hlist.FontMetrics = (*Table)(nil)

// face wraps one parsed font at one size. font.Face and the shaper keep
// mutable caches, so every access goes through mu.
type face struct {
	mu     sync.Mutex
	font   *font.Face
	shaper shaping.HarfbuzzShaper
	size   float64
	scale  float64 // pt per font unit
	params hlist.FontParams
	glyphs map[rune]hlist.GlyphMetrics
	kerns  map[[2]rune]float64
}

func NewTable() *Table {
	return &Table{faces: map[string]*face{}}
}

// Register 解析 TrueType/OpenType 字体数据，并以 name 注册为 size pt 的字体。
// 同名字体会被替换。
func (t *Table) Register(name string, data []byte, size float64) error {
	if name == "" {
		return fmt.Errorf("字体名不能为空")
	}
	if !(size > 0) || math.IsInf(size, 0) {
		return fmt.Errorf("字体 %s 的字号无效: %v", name, size)
	}
	parsed, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	f := &face{
		font:   parsed,
		size:   size,
		scale:  size / float64(parsed.Upem()),
		glyphs: map[rune]hlist.GlyphMetrics{},
		kerns:  map[[2]rune]float64{},
	}
	f.params = f.measureParams()

	t.mu.Lock()
	t.faces[name] = f
	t.mu.Unlock()
	return nil
}

// Names 返回已注册的字体名。
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.faces))
}

func (t *Table) lookup(name string) (*face, error) {
	t.mu.RLock()
	f, ok := t.faces[name]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未注册的字体 %q", name)
	}
	return f, nil
}

func (t *Table) Glyph(name string, r rune) (hlist.GlyphMetrics, error) {
	f, err := t.lookup(name)
	if err != nil {
		return hlist.GlyphMetrics{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	gm, ok := f.glyph(r)
	if !ok {
		return hlist.GlyphMetrics{}, fmt.Errorf("字体 %q 缺少字符 %q", name, r)
	}
	return gm, nil
}

func (t *Table) Font(name string) (hlist.FontParams, error) {
	f, err := t.lookup(name)
	if err != nil {
		return hlist.FontParams{}, err
	}
	return f.params, nil
}

// Kern 通过 HarfBuzz 整形一对字符得到字距调整；未注册的字体返回 0。
func (t *Table) Kern(name string, left, right rune) float64 {
	f, err := t.lookup(name)
	if err != nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kern(left, right)
}

// glyph returns the cached metrics of r. Callers hold f.mu.
func (f *face) glyph(r rune) (hlist.GlyphMetrics, bool) {
	if gm, ok := f.glyphs[r]; ok {
		return gm, true
	}
	gid, ok := f.font.NominalGlyph(r)
	if !ok {
		return hlist.GlyphMetrics{}, false
	}
	adv := float64(f.font.HorizontalAdvance(gid)) * f.scale
	gm := hlist.GlyphMetrics{Width: adv}
	if ext, ok := f.font.GlyphExtents(gid); ok {
		// YBearing is the top of the ink, Height runs downwards (negative)
		top := float64(ext.YBearing) * f.scale
		bottom := float64(ext.YBearing+ext.Height) * f.scale
		gm.Height = max(top, 0)
		gm.Depth = max(-bottom, 0)
		gm.Italic = max(float64(ext.XBearing+ext.Width)*f.scale-adv, 0)
	}
	f.glyphs[r] = gm
	return gm, true
}

// kern shapes the pair and compares the first advance with its nominal
// advance. Pairs that form a ligature get no kern. Callers hold f.mu.
func (f *face) kern(left, right rune) float64 {
	key := [2]rune{left, right}
	if k, ok := f.kerns[key]; ok {
		return k
	}
	k := 0.0
	if gm, ok := f.glyph(left); ok {
		out := f.shaper.Shape(shaping.Input{
			Text:      []rune{left, right},
			RunStart:  0,
			RunEnd:    2,
			Direction: di.DirectionLTR,
			Face:      f.font,
			Size:      fixed.Int26_6(math.Round(f.size * 64)),
			Script:    language.LookupScript(left),
			Language:  language.NewLanguage("en"),
		})
		if len(out.Glyphs) == 2 {
			k = float64(out.Glyphs[0].XAdvance)/64 - gm.Width
			// 26.6 rounding leaves noise below one unit
			if math.Abs(k) < 1.0/64 {
				k = 0
			}
		}
	}
	f.kerns[key] = k
	return k
}

// measureParams derives TeX's font parameters from the space glyph and the
// x-height; stretch and shrink follow the cmr10 proportions.
func (f *face) measureParams() hlist.FontParams {
	space := f.size / 3
	if gm, ok := f.glyph(' '); ok && gm.Width > 0 {
		space = gm.Width
	}
	p := hlist.FontParams{
		Size:         f.size,
		Space:        space,
		SpaceStretch: space / 2,
		SpaceShrink:  space / 3,
		ExtraSpace:   space / 3,
		Quad:         f.size,
	}
	if gm, ok := f.glyph('x'); ok {
		p.XHeight = gm.Height
	}
	return p
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultFaces 列出 Default 注册的字体名及其内置来源，字号均为 10pt。
var DefaultFaces = map[string]string{
	"roman":  "lm:roman10",
	"bold":   "lm:roman10-bold",
	"italic": "lm:roman10-italic",
	"sans":   "lm:sans10",
	"mono":   "lm:mono10",
}

// DefaultErr 返回只构建一次、只读共享的默认字体表；内置字体无法加载时返回错误。
func DefaultErr() (*Table, error) {
	defaultOnce.Do(func() {
		t := NewTable()
		for _, name := range slices.Sorted(maps.Keys(DefaultFaces)) {
			data, err := Load("", DefaultFaces[name])
			if err == nil {
				err = t.Register(name, data, 10)
			}
			if err != nil {
				defaultErr = fmt.Errorf("加载默认字体 %s 失败: %w", name, err)
				return
			}
		}
		defaultTable = t
	})
	return defaultTable, defaultErr
}

// Default 与 DefaultErr 相同，出错时 panic。
func Default() *Table {
	t, err := DefaultErr()
	if err != nil {
		panic(err)
	}
	return t
}
