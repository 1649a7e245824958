// Package typeset 把 DSL 文档排成页面：收集资源与设置，把每个段落转成 h-list，
// 并行断行，再由页面收集器把行堆叠到页面上并设置每页的正文盒子。
package typeset

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ByLCY/galley/binding"
	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/config"
	"github.com/ByLCY/galley/dsl"
	"github.com/ByLCY/galley/fonts"
	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/linebreak"
	"github.com/ByLCY/galley/logging"
)

// MetricsFunc 根据收集到的字体资源返回度量表。
type MetricsFunc func(res layout.ResourceSet) (hlist.FontMetrics, error)

type Options struct {
	// Config 为空值时使用 config.Default()。
	Config config.Config
	// BaseDir 用于解析相对路径的字体文件。
	BaseDir string
	// Metrics 为空时使用 FontTable(BaseDir)。
	Metrics MetricsFunc
}

// settingAliases 让 DSL 可以使用更短的键名。
var settingAliases = map[string]string{
	"width":     "line-width",
	"font":      "default",
	"math-font": "math",
}

func settingKey(key string) string {
	if alias, ok := settingAliases[key]; ok {
		return alias
	}
	return key
}

// Build 根据 DSL AST 与绑定数据生成分页结果。
func Build(doc *dsl.Document, data any, opts Options) (*layout.Result, error) {
	return BuildContext(context.Background(), doc, data, opts)
}

// BuildContext 与 Build 相同；ctx 取消时并行断行随之停止。
func BuildContext(ctx context.Context, doc *dsl.Document, data any, opts Options) (*layout.Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	cfg := opts.Config
	if cfg.Fonts.Default == "" {
		cfg = config.Default()
	}
	if err := applySettings(&cfg, doc); err != nil {
		return nil, err
	}

	res, err := collectResources(doc, cfg)
	if err != nil {
		return nil, err
	}
	metricsFn := opts.Metrics
	if metricsFn == nil {
		metricsFn = FontTable(opts.BaseDir)
	}
	metrics, err := metricsFn(res)
	if err != nil {
		return nil, fmt.Errorf("加载字体度量失败: %w", err)
	}

	geo, err := resolveGeometry(cfg)
	if err != nil {
		return nil, err
	}

	flow, jobs, err := collectParagraphs(doc, data, cfg, geo.textWidth, metrics)
	if err != nil {
		return nil, err
	}
	pars, err := linebreak.BreakJobs(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("断行失败: %w", err)
	}

	var diags []layout.Diagnostic
	for _, par := range pars {
		diags = append(diags, par.Diagnostics...)
	}
	mvl := verticalList(flow, pars, jobs)
	pc := newPageCollector(geo)
	for _, n := range mvl {
		pc.add(n)
	}
	pages := pc.finish()
	diags = append(diags, pc.diags...)

	logging.Logger().Info("typeset: done",
		"pages", len(pages), "paragraphs", len(pars), "diagnostics", len(diags))
	return &layout.Result{
		Pages:       pages,
		Resources:   res,
		Meta:        collectMeta(doc, data),
		Diagnostics: diags,
	}, nil
}

// applySettings 依次应用 settings 段落中的键值。
func applySettings(cfg *config.Config, doc *dsl.Document) error {
	for _, section := range doc.Sections {
		if section.Settings == nil {
			continue
		}
		for _, entry := range section.Settings.Entries {
			if err := cfg.Set(settingKey(entry.Key), dsl.JoinValues(entry.Value)); err != nil {
				return fmt.Errorf("第 %d 行: %w", entry.Pos.Line, err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("settings 无效: %w", err)
	}
	return nil
}

// FontTable 返回基于 fonts 包的度量函数。只用到默认字体时共享 fonts.DefaultErr() 的表。
func FontTable(baseDir string) MetricsFunc {
	return func(res layout.ResourceSet) (hlist.FontMetrics, error) {
		if onlyDefaultFaces(res) {
			t, err := fonts.DefaultErr()
			if err != nil {
				return nil, err
			}
			return t, nil
		}
		t := fonts.NewTable()
		for _, name := range slices.Sorted(maps.Keys(res.Fonts)) {
			f := res.Fonts[name]
			data, err := fonts.Load(baseDir, f.Src)
			if err != nil {
				return nil, err
			}
			if err := t.Register(name, data, f.Size); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
}

func onlyDefaultFaces(res layout.ResourceSet) bool {
	if len(res.Fonts) != len(fonts.DefaultFaces) {
		return false
	}
	for name, f := range res.Fonts {
		if fonts.DefaultFaces[name] != f.Src || f.Size != 10 {
			return false
		}
	}
	return true
}

// collectResources 合并默认字体、配置中的 [fonts.face] 与文档 resources 中的 font。
// 后者覆盖前者。
func collectResources(doc *dsl.Document, cfg config.Config) (layout.ResourceSet, error) {
	res := layout.ResourceSet{Fonts: map[string]layout.FontResource{}}
	for name, src := range fonts.DefaultFaces {
		res.Fonts[name] = layout.FontResource{Name: name, Src: src, Size: 10}
	}
	for name, face := range cfg.Fonts.Faces {
		size, err := cfg.FaceSize(name)
		if err != nil {
			return res, err
		}
		res.Fonts[name] = layout.FontResource{Name: name, Src: face.Src, Size: size}
	}

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil || stmt.Command.Name != "font" {
				continue
			}
			font, err := parseFontResource(stmt.Command)
			if err != nil {
				return res, fmt.Errorf("第 %d 行: %w", stmt.Command.Pos.Line, err)
			}
			res.Fonts[font.Name] = font
		}
	}

	for _, name := range []string{cfg.Fonts.Default, cfg.Fonts.Math} {
		if name == "" {
			continue
		}
		if _, ok := res.Fonts[name]; !ok {
			return res, fmt.Errorf("未定义的字体 %s", name)
		}
	}
	return res, nil
}

func parseFontResource(cmd *dsl.Command) (layout.FontResource, error) {
	if len(cmd.Args) == 0 {
		return layout.FontResource{}, fmt.Errorf("font 缺少名称")
	}
	font := layout.FontResource{Name: cmd.Args[0].Value, Size: 10}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := valueToString(stmt.Assignment.Value)
			switch stmt.Assignment.Key {
			case "src":
				font.Src = val
			case "size":
				size, err := layout.ParseLength(val)
				if err != nil || size <= 0 {
					return font, fmt.Errorf("字体 %s 的字号无效: %q", font.Name, val)
				}
				font.Size = size
			case "style":
				font.Style = val
			}
		}
	}
	if font.Src == "" {
		return font, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	return font, nil
}

// collectMeta 读取 meta 段落，字符串中的占位符用 data 替换。
func collectMeta(doc *dsl.Document, data any) layout.DocumentMeta {
	meta := layout.DocumentMeta{
		Creator: "Galley",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = binding.Interpolate(valueToString(stmt.Assignment.Value), data)
			case "author":
				meta.Author = binding.Interpolate(valueToString(stmt.Assignment.Value), data)
			case "subject":
				meta.Subject = binding.Interpolate(valueToString(stmt.Assignment.Value), data)
			case "creator":
				meta.Creator = binding.Interpolate(valueToString(stmt.Assignment.Value), data)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Expr != nil:
		return dsl.JoinValues(val.Expr.Parts)
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}

// flowItem is one entry of the main vertical list before line breaking:
// a paragraph (par >= 0) or vertical material.
type flowItem struct {
	par     int
	node    box.Node
	parSkip box.Glue
}

// collectParagraphs turns every section into flow items and every par into
// a line-breaking job numbered from 1.
func collectParagraphs(doc *dsl.Document, data any, cfg config.Config, textWidth float64, metrics hlist.FontMetrics) ([]flowItem, []linebreak.Job, error) {
	var flow []flowItem
	var jobs []linebreak.Job
	for _, section := range doc.Sections {
		switch {
		case section.Par != nil:
			job, parSkip, err := paragraphJob(section.Par, data, cfg, textWidth, metrics)
			if err != nil {
				return nil, nil, fmt.Errorf("第 %d 行段落: %w", section.Par.Pos.Line, err)
			}
			job.Params.Paragraph = len(jobs) + 1
			flow = append(flow, flowItem{par: len(jobs), parSkip: parSkip})
			jobs = append(jobs, job)
		case section.Vertical != nil:
			n, err := verticalCommand(section.Vertical)
			if err != nil {
				return nil, nil, fmt.Errorf("第 %d 行: %w", section.Vertical.Pos.Line, err)
			}
			flow = append(flow, flowItem{par: -1, node: n})
		}
	}
	return flow, jobs, nil
}

// paragraphJob applies the paragraph's options to its own copy of cfg and
// builds the h-list. It also returns the parskip that precedes it.
func paragraphJob(par *dsl.ParSection, data any, cfg config.Config, textWidth float64, metrics hlist.FontMetrics) (linebreak.Job, box.Glue, error) {
	var job linebreak.Job
	var parShape []float64
	for _, opt := range par.Options {
		if opt.Key == "parshape" {
			for _, arg := range opt.Args {
				w, err := layout.ParseLength(arg.Value)
				if err != nil {
					return job, box.Glue{}, fmt.Errorf("parshape: %w", err)
				}
				parShape = append(parShape, w)
			}
			continue
		}
		value := dsl.JoinValues(opt.Args)
		if value == "" {
			value = "true"
		}
		if err := cfg.Set(settingKey(opt.Key), value); err != nil {
			return job, box.Glue{}, err
		}
	}
	lp, err := cfg.LineParams(textWidth)
	if err != nil {
		return job, box.Glue{}, err
	}
	lp.ParShape = parShape
	hp, err := cfg.HListParams()
	if err != nil {
		return job, box.Glue{}, err
	}

	ib := &itemBuilder{font: hp.Font, data: data, metrics: metrics, hp: hp}
	items, err := ib.block(par.Block)
	if err != nil {
		return job, box.Glue{}, err
	}
	list, err := hlist.Build(items, metrics, hp)
	if err != nil {
		return job, box.Glue{}, err
	}
	parSkip, err := cfg.ParSkip()
	if err != nil {
		return job, box.Glue{}, err
	}
	return linebreak.Job{List: list, Params: lp}, parSkip, nil
}

// verticalCommand handles the document-level commands between paragraphs.
func verticalCommand(cmd *dsl.Command) (box.Node, error) {
	switch cmd.Name {
	case "vskip":
		return layout.ParseGlue(dsl.JoinValues(cmd.Args))
	case "vfill":
		return box.Glue{Stretch: 1, StretchOrder: box.Fill}, nil
	case "pagebreak":
		return box.Penalty{Cost: box.EjectPenalty}, nil
	case "rule":
		return ruleFromArgs(cmd.Args, hruleDefaults)
	}
	return nil, fmt.Errorf("未知的命令 %s", cmd.Name)
}

// verticalList joins the broken paragraphs with parskip and interline glue
// computed from the previous paragraph's last depth.
func verticalList(flow []flowItem, pars []*linebreak.Paragraph, jobs []linebreak.Job) []box.Node {
	var mvl []box.Node
	started := false
	prevDepth := 0.0
	for _, it := range flow {
		if it.par < 0 {
			mvl = append(mvl, it.node)
			if r, ok := it.node.(*box.Rule); ok {
				prevDepth = r.Size().Depth
				started = true
			}
			continue
		}
		par := pars[it.par]
		if len(par.Lines) == 0 {
			continue
		}
		p := jobs[it.par].Params
		if started {
			mvl = append(mvl, it.parSkip)
			mvl = append(mvl, linebreak.Interline(p.BaselineSkip, p.LineSkip, p.LineSkipLimit, prevDepth, par.Lines[0].Height))
		}
		mvl = append(mvl, par.VList...)
		prevDepth = par.Lines[len(par.Lines)-1].Depth
		started = true
	}
	return mvl
}
