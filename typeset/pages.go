package typeset

import (
	"fmt"
	"math"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/config"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/logging"
)

// geometry 是页面尺寸、边距与正文区域，单位 pt。
type geometry struct {
	width      float64
	height     float64
	margin     layout.Margin
	textWidth  float64
	textHeight float64
	topSkip    float64
	ragged     bool
	set        layout.Options
}

func resolveGeometry(cfg config.Config) (geometry, error) {
	var geo geometry
	var err error
	if geo.width, geo.height, err = cfg.PageSize(); err != nil {
		return geo, err
	}
	if geo.margin, err = cfg.Margin(); err != nil {
		return geo, err
	}
	geo.textWidth = geo.width - geo.margin.Left - geo.margin.Right
	geo.textHeight = geo.height - geo.margin.Top - geo.margin.Bottom
	if geo.textWidth <= 0 || geo.textHeight <= 0 {
		return geo, fmt.Errorf("边距过大，正文区域为 %.2fpt × %.2fpt", geo.textWidth, geo.textHeight)
	}
	if geo.topSkip, err = cfg.TopSkip(); err != nil {
		return geo, err
	}
	geo.ragged = cfg.Page.RaggedBottom
	lp, err := cfg.LineParams(geo.textWidth)
	if err != nil {
		return geo, err
	}
	geo.set = lp.Set
	return geo, nil
}

// pageCollector 把主竖直列表按正文高度切成页面。
// 胶、kern 与 penalty 先挂起，等下一个盒子决定是否换页；换页时它们被丢弃。
type pageCollector struct {
	geo     geometry
	pages   []layout.Page
	current []box.Node
	pending []box.Node
	boxes   int
	// natural 不含最后一个盒子的深度
	natural float64
	depth   float64
	diags   []layout.Diagnostic
}

func newPageCollector(geo geometry) *pageCollector {
	return &pageCollector{geo: geo}
}

func (pc *pageCollector) add(n box.Node) {
	switch v := n.(type) {
	case box.Penalty:
		if v.Cost <= box.EjectPenalty {
			pc.flush(true)
			return
		}
		if pc.boxes > 0 {
			pc.pending = append(pc.pending, v)
		}
	case box.Glue, box.Kern, *box.Leaders:
		if pc.boxes > 0 {
			pc.pending = append(pc.pending, v)
		}
	default:
		pc.ensureSpace(n.Size())
		pc.current = append(pc.current, n)
		pc.natural += n.Size().Height
		pc.depth = n.Size().Depth
		pc.boxes++
	}
}

// ensureSpace 在放入高为 d.Height 的盒子前检查剩余空间，不够且可以断开时换页。
func (pc *pageCollector) ensureSpace(d box.Dims) {
	if pc.boxes == 0 {
		pc.startPage(d.Height)
		return
	}
	gap := pendingSize(pc.pending)
	need := pc.natural + pc.depth + gap + d.Height
	if need > pc.geo.textHeight+1e-9 && breakable(pc.pending) {
		pc.flush(false)
		pc.startPage(d.Height)
		return
	}
	pc.current = append(pc.current, pc.pending...)
	pc.natural += pc.depth + gap
	pc.depth = 0
	pc.pending = nil
}

// startPage 放入 topskip，使首行基线距正文顶部 topskip。
func (pc *pageCollector) startPage(height float64) {
	top := math.Max(0, pc.geo.topSkip-height)
	pc.current = append(pc.current[:0], box.FixedGlue(top))
	pc.natural = top
	pc.depth = 0
	pc.pending = nil
}

func pendingSize(nodes []box.Node) float64 {
	var h float64
	for _, n := range nodes {
		switch v := n.(type) {
		case box.Glue:
			h += v.Space
		case box.Kern:
			h += v.Width
		case *box.Leaders:
			h += v.Glue.Space
		}
	}
	return h
}

// breakable reports whether the material between two boxes holds a legal
// page break: glue, or a penalty below InfPenalty.
func breakable(nodes []box.Node) bool {
	for _, n := range nodes {
		switch v := n.(type) {
		case box.Glue, *box.Leaders:
			return true
		case box.Penalty:
			if v.Cost < box.InfPenalty {
				return true
			}
		}
	}
	return false
}

// flush 把当前内容设置为一页。fill 为真或 raggedbottom 时页面底部补 1fil。
func (pc *pageCollector) flush(fill bool) {
	if pc.boxes == 0 {
		return
	}
	children := pc.current
	if fill || pc.geo.ragged {
		children = append(children, box.FilGlue())
	}
	pc.emit(children)
	pc.current = nil
	pc.pending = nil
	pc.boxes = 0
	pc.natural = 0
	pc.depth = 0
}

func (pc *pageCollector) emit(children []box.Node) {
	number := len(pc.pages) + 1
	body := box.VPackTo(pc.geo.textHeight, children...)
	placed, diags := pc.geo.set.Place(body)
	placed.X = pc.geo.margin.Left
	placed.Y = pc.geo.margin.Top + body.Height

	log := logging.Logger()
	for _, d := range diags {
		// lines were already reported by the line breaker
		if len(d.Path) > 0 {
			continue
		}
		d.Page = number
		log.Warn("typeset: page box", "page", number, "kind", d.Kind.String(), "badness", d.Badness, "amount", d.Amount)
		pc.diags = append(pc.diags, d)
	}
	pc.pages = append(pc.pages, layout.Page{
		Number: number,
		Width:  pc.geo.width,
		Height: pc.geo.height,
		Margin: pc.geo.margin,
		Body:   placed,
	})
}

// finish 输出最后一页；文档为空时仍返回一张空白页。
func (pc *pageCollector) finish() []layout.Page {
	pc.flush(true)
	if len(pc.pages) == 0 {
		pc.emit([]box.Node{box.FilGlue()})
	}
	return pc.pages
}
