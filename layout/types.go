package layout

// 该文件定义排版结果与诊断信息，供断行、分页、渲染与调试 JSON 共用。

import (
	"fmt"

	"github.com/ByLCY/galley/box"
)

// Result 保存分页后的页面、字体资源、文档元信息与全部诊断。
type Result struct {
	Pages       []Page       `json:"pages"`
	Resources   ResourceSet  `json:"resources"`
	Meta        DocumentMeta `json:"meta"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// ResourceSet 记录解析出的字体定义。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径或 lm:<face> 形式的内置 Latin Modern 字体。
type FontResource struct {
	Name  string  `json:"name"`
	Src   string  `json:"src"`
	Size  float64 `json:"size"` // pt
	Style string  `json:"style,omitempty"`
}

// Page 记录页面尺寸（pt）、边距以及已经定位好的正文 vbox。
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
	Body   *Placed `json:"body"`
}

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Sign tells whether a box's glue was stretched or shrunk.
type Sign int

const (
	Natural Sign = iota
	Stretching
	Shrinking
)

func (s Sign) String() string {
	switch s {
	case Stretching:
		return "stretching"
	case Shrinking:
		return "shrinking"
	default:
		return "natural"
	}
}

func (s Sign) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// GlueSet is the outcome of setting a box: every glue of the given order
// grows (or shrinks) by Ratio times its stretch (or shrink).
type GlueSet struct {
	Sign      Sign      `json:"sign"`
	Order     box.Order `json:"order"`
	Ratio     float64   `json:"ratio"`
	Badness   int       `json:"badness"`
	Overfull  bool      `json:"overfull,omitempty"`
	Underfull bool      `json:"underfull,omitempty"`
	// Excess is target minus natural size.
	Excess float64 `json:"excess"`
}

// Apply returns the effective size of g under this glue set. Glue whose
// order differs from the set order keeps its natural space.
func (gs GlueSet) Apply(g box.Glue) float64 {
	switch gs.Sign {
	case Stretching:
		if g.StretchOrder == gs.Order {
			return g.Space + gs.Ratio*g.Stretch
		}
	case Shrinking:
		if g.ShrinkOrder == gs.Order {
			return g.Space - gs.Ratio*g.Shrink
		}
	}
	return g.Space
}

// Placed is a node with its resolved position and size. X and Y locate the
// node's reference point relative to the parent's reference point; y grows
// downwards. Children of an hbox sit on its baseline, children of a vbox
// are stacked from its top edge.
type Placed struct {
	Kind     box.Kind  `json:"kind"`
	Index    int       `json:"index"` // position in the parent's list
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Depth    float64   `json:"depth"`
	Rune     rune      `json:"rune,omitempty"`
	Font     string    `json:"font,omitempty"`
	Glue     *GlueSet  `json:"glue,omitempty"`
	Children []*Placed `json:"children,omitempty"`
}

// Walk calls fn for p and all descendants in document order with their
// absolute position relative to the root.
func (p *Placed) Walk(fn func(n *Placed, x, y float64)) {
	p.walk(0, 0, fn)
}

func (p *Placed) walk(ox, oy float64, fn func(*Placed, float64, float64)) {
	x, y := ox+p.X, oy+p.Y
	fn(p, x, y)
	for _, c := range p.Children {
		c.walk(x, y, fn)
	}
}

// DiagKind classifies a typesetting problem.
type DiagKind int

const (
	Overfull DiagKind = iota
	Underfull
	Tight
	Infeasible
)

func (k DiagKind) String() string {
	switch k {
	case Overfull:
		return "overfull"
	case Underfull:
		return "underfull"
	case Tight:
		return "tight"
	case Infeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("diag(%d)", int(k))
	}
}

func (k DiagKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Severity ranks diagnostics.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "info"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Diagnostic reports a box that could not be set well. Amount is the
// overflow for overfull boxes and the unfilled excess otherwise.
type Diagnostic struct {
	Kind      DiagKind `json:"kind"`
	Severity  Severity `json:"severity"`
	Vertical  bool     `json:"vertical,omitempty"`
	Paragraph int      `json:"paragraph"`
	Line      int      `json:"line"`           // 1-based, 0 when not a paragraph line
	Index     int      `json:"index"`          // h-list position where the line starts
	Page      int      `json:"page,omitempty"` // 1-based page of a page box
	Path      []int    `json:"path,omitempty"`
	Badness   int      `json:"badness"`
	Amount    float64  `json:"amount"`
}

func (d Diagnostic) String() string {
	dir := "hbox"
	if d.Vertical {
		dir = "vbox"
	}
	if d.Page > 0 {
		return fmt.Sprintf("%s %s (badness %d, %.3fpt) on page %d", d.Kind, dir, d.Badness, d.Amount, d.Page)
	}
	switch d.Kind {
	case Overfull:
		return fmt.Sprintf("%s %s (%.3fpt too wide) in paragraph %d line %d at %d", d.Kind, dir, d.Amount, d.Paragraph, d.Line, d.Index)
	case Infeasible:
		return fmt.Sprintf("paragraph %d: no feasible breaks, forced least-bad lines", d.Paragraph)
	default:
		return fmt.Sprintf("%s %s (badness %d) in paragraph %d line %d at %d", d.Kind, dir, d.Badness, d.Paragraph, d.Line, d.Index)
	}
}
