package canvasrenderer

import (
	"bytes"
	"cmp"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/fonts"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/renderer"
)

// boxStrokeWidth 是调试边框的线宽（mm）。
const boxStrokeWidth = 0.05

// fallbackSrc 在字体无法加载时使用。
const fallbackSrc = fonts.LatinModernPrefix + "roman10"

// Renderer draws paginated results via github.com/tdewolff/canvas.
// Layout coordinates are TeX points; canvas works in millimetres.
type Renderer struct {
	baseDir   string
	showBoxes bool

	fontBlobs map[string][]byte // built-in:<name>

	fontMu   sync.Mutex
	families map[string]*fontFamilyEntry
	faces    map[string]*canvas.FontFace
}

var _ renderer.Renderer = (*Renderer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	// ShowBoxes 为每个 hbox 与规则画出外框，便于检查排版。
	ShowBoxes bool
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected font blobs.
// A Resource whose Path cannot be read is skipped; using it later fails
// with a missing built-in font error.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		showBoxes: opts.ShowBoxes,
		fontBlobs: make(map[string][]byte, len(opts.Fonts)),
		families:  map[string]*fontFamilyEntry{},
		faces:     map[string]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if blob := res.load(); name != "" && len(blob) > 0 {
			r.fontBlobs[name] = blob
		}
	}
	return r
}

func (res Resource) load() []byte {
	if len(res.Bytes) > 0 || res.Path == "" {
		return res.Bytes
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		return nil
	}
	return data
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage walks the placed body. Walk yields reference points: the
// baseline for characters and boxes.
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	if page.Body == nil {
		return nil
	}
	var err error
	page.Body.Walk(func(n *layout.Placed, x, y float64) {
		if err != nil {
			return
		}
		switch n.Kind {
		case box.KindChar:
			err = r.drawChar(ctx, n, x, y, resources)
		case box.KindRule:
			r.drawRule(ctx, n, x, y)
		case box.KindHBox:
			if r.showBoxes {
				r.drawOutline(ctx, n, x, y)
			}
		}
	})
	return err
}

func (r *Renderer) drawChar(ctx *canvas.Context, n *layout.Placed, x, y float64, resources layout.ResourceSet) error {
	font, ok := resources.Fonts[n.Font]
	if !ok {
		return fmt.Errorf("未定义的字体 %s", n.Font)
	}
	face, err := r.fontFace(font)
	if err != nil {
		return err
	}
	ctx.DrawText(toMm(x), toMm(y), canvas.NewTextLine(face, string(n.Rune), canvas.Left))
	return nil
}

func (r *Renderer) drawRule(ctx *canvas.Context, n *layout.Placed, x, y float64) {
	h := n.Height + n.Depth
	if n.Width <= 0 || h <= 0 {
		return
	}
	ctx.SetFillColor(canvas.Black)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(toMm(x), toMm(y-n.Height), canvas.Rectangle(toMm(n.Width), toMm(h)))
}

// drawOutline 画出盒子的外框与基线。
func (r *Renderer) drawOutline(ctx *canvas.Context, n *layout.Placed, x, y float64) {
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(canvas.Hex("#d04040"))
	ctx.SetStrokeWidth(boxStrokeWidth)
	ctx.DrawPath(toMm(x), toMm(y-n.Height), canvas.Rectangle(toMm(n.Width), toMm(n.Height+n.Depth)))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(toMm(n.Width), 0)
	ctx.DrawPath(toMm(x), toMm(y), p)
}

// fontFace returns the face of a font resource at its size, black.
func (r *Renderer) fontFace(font layout.FontResource) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	// canvas 的字号单位是 PostScript 点
	face := family.Face(font.Size/layout.BpToPt, color.Black, style, canvas.FontNormal)
	r.faces[key] = face
	return face, nil
}

// ensureFontFamily loads the font file of a resource once. A source that
// cannot be loaded falls back to Latin Modern Roman so a document with a
// missing font still renders.
func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if entry, ok := r.families[key]; ok {
		return entry.family, entry.style, nil
	}

	entry := &fontFamilyEntry{family: canvas.NewFontFamily(cmp.Or(font.Name, "Body")), style: parseFontStyle(font.Style)}
	if err := r.loadFontIntoFamily(entry.family, font.Src, entry.style); err != nil {
		entry = &fontFamilyEntry{family: canvas.NewFontFamily("galley-fallback"), style: canvas.FontRegular}
		if fbErr := r.loadFontIntoFamily(entry.family, fallbackSrc, entry.style); fbErr != nil {
			return nil, canvas.FontRegular, err
		}
	}
	r.families[key] = entry
	return entry.family, entry.style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, src string, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(src string) ([]byte, error) {
	if name, ok := builtinName(src); ok {
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	return fonts.Load(r.baseDir, src)
}

func builtinName(src string) (string, bool) {
	for _, prefix := range []string{"built-in:", "builtin:"} {
		if name, ok := strings.CutPrefix(src, prefix); ok {
			return name, true
		}
	}
	return "", false
}

// weightWords 按匹配优先级排列，"extrabold" 必须先于 "bold"。
var weightWords = []struct {
	word  string
	style canvas.FontStyle
}{
	{"black", canvas.FontBlack},
	{"extrabold", canvas.FontExtraBold},
	{"semibold", canvas.FontSemiBold},
	{"demibold", canvas.FontSemiBold},
	{"bold", canvas.FontBold},
	{"medium", canvas.FontMedium},
	{"light", canvas.FontLight},
}

// parseFontStyle 把 "bold italic" 一类的描述转成 canvas 字重与斜体标志。
func parseFontStyle(desc string) canvas.FontStyle {
	desc = strings.ToLower(desc)
	style := canvas.FontRegular
	for _, w := range weightWords {
		if strings.Contains(desc, w.word) {
			style = w.style
			break
		}
	}
	if strings.Contains(desc, "italic") || strings.Contains(desc, "oblique") {
		style |= canvas.FontItalic
	}
	return style
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s|%g", font.Name, font.Src, font.Style, font.Size)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
