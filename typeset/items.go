package typeset

import (
	"fmt"
	"strconv"

	"github.com/ByLCY/galley/binding"
	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/dsl"
	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/logging"
	"github.com/ByLCY/galley/mathspace"
)

// itemBuilder converts the statements of a paragraph body into h-list
// items. Consecutive text literals are joined by an interword space.
type itemBuilder struct {
	font     string
	data     any
	metrics  hlist.FontMetrics
	hp       hlist.Params
	lastText bool
}

func (ib *itemBuilder) block(b *dsl.Block) ([]hlist.Item, error) {
	var items []hlist.Item
	if b == nil {
		return items, nil
	}
	for _, stmt := range b.Statements {
		switch {
		case stmt.Text != nil:
			text, missing := binding.Expand(string(stmt.Text.Value), ib.data)
			if len(missing) > 0 {
				logging.Logger().Warn("typeset: unresolved placeholders",
					"line", stmt.Text.Pos.Line, "paths", missing)
			}
			if ib.lastText {
				items = append(items, hlist.Space{Font: ib.font})
			}
			items = append(items, hlist.FromText(text, ib.font)...)
			ib.lastText = true
		case stmt.Command != nil:
			more, err := ib.command(stmt.Command)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行 %s: %w", stmt.Command.Pos.Line, stmt.Command.Name, err)
			}
			items = append(items, more...)
		case stmt.Assignment != nil:
			return nil, fmt.Errorf("段落中不支持赋值 %s", stmt.Assignment.Key)
		}
	}
	return items, nil
}

func (ib *itemBuilder) command(cmd *dsl.Command) ([]hlist.Item, error) {
	if cmd.Name != "font" {
		ib.lastText = false
	}
	args := cmd.Args
	switch cmd.Name {
	case "space", "hfil", "hfill", "hss", "break":
		if len(args) > 0 {
			return nil, fmt.Errorf("不接受参数")
		}
	}
	switch cmd.Name {
	case "font":
		if len(args) != 1 {
			return nil, fmt.Errorf("需要一个字体名")
		}
		if _, err := ib.metrics.Font(args[0].Value); err != nil {
			return nil, err
		}
		ib.font = args[0].Value
		return nil, nil
	case "space":
		return []hlist.Item{hlist.Space{Font: ib.font}}, nil
	case "glue":
		g, err := layout.ParseGlue(dsl.JoinValues(args))
		if err != nil {
			return nil, err
		}
		return []hlist.Item{hlist.Glue{Glue: g}}, nil
	case "hfil":
		return []hlist.Item{hlist.Glue{Glue: box.FilGlue()}}, nil
	case "hfill":
		return []hlist.Item{hlist.Glue{Glue: box.Glue{Stretch: 1, StretchOrder: box.Fill}}}, nil
	case "hss":
		return []hlist.Item{hlist.Glue{Glue: box.Glue{Stretch: 1, StretchOrder: box.Fil, Shrink: 1, ShrinkOrder: box.Fil}}}, nil
	case "kern":
		if len(args) != 1 {
			return nil, fmt.Errorf("需要一个长度")
		}
		w, err := layout.ParseLength(args[0].Value)
		if err != nil {
			return nil, err
		}
		return []hlist.Item{hlist.Kern{Width: w}}, nil
	case "penalty":
		return penaltyFromArgs(args)
	case "break":
		return []hlist.Item{hlist.Penalty{Cost: box.EjectPenalty}}, nil
	case "disc":
		return ib.disc(cmd)
	case "math":
		return ib.math(cmd)
	case "rule":
		r, err := ruleFromArgs(args, vruleDefaults)
		if err != nil {
			return nil, err
		}
		return []hlist.Item{hlist.Box{Node: r}}, nil
	case "leaders":
		return ib.leaders(cmd)
	case "hbox":
		return ib.hbox(cmd)
	}
	return nil, fmt.Errorf("未知的命令")
}

func penaltyFromArgs(args []*dsl.Lexeme) ([]hlist.Item, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("用法: penalty <cost> [flagged]")
	}
	cost, err := strconv.Atoi(args[0].Value)
	if err != nil {
		return nil, fmt.Errorf("无效的 penalty 值 %q", args[0].Value)
	}
	flagged := false
	if len(args) == 2 {
		if args[1].Value != "flagged" {
			return nil, fmt.Errorf("未知的 penalty 选项 %q", args[1].Value)
		}
		flagged = true
	}
	return []hlist.Item{hlist.Penalty{Cost: cost, Flagged: flagged}}, nil
}

// pairs flattens a body such as `{ pre "-" post "" }` into key/value pairs.
// Assignments (`pre: "-"`) are accepted as well.
func pairs(b *dsl.Block) ([][2]string, error) {
	var out [][2]string
	if b == nil {
		return out, nil
	}
	for _, stmt := range b.Statements {
		switch {
		case stmt.Assignment != nil:
			out = append(out, [2]string{stmt.Assignment.Key, valueToString(stmt.Assignment.Value)})
		case stmt.Command != nil:
			toks := append([]string{stmt.Command.Name}, lexemeValues(stmt.Command.Args)...)
			if len(toks)%2 != 0 {
				return nil, fmt.Errorf("%s 缺少取值", toks[len(toks)-1])
			}
			for i := 0; i < len(toks); i += 2 {
				out = append(out, [2]string{toks[i], toks[i+1]})
			}
			if stmt.Command.Block != nil {
				return nil, fmt.Errorf("%s 不接受嵌套内容", stmt.Command.Name)
			}
		case stmt.Text != nil:
			return nil, fmt.Errorf("文本 %q 缺少键名", string(stmt.Text.Value))
		}
	}
	return out, nil
}

func lexemeValues(ls []*dsl.Lexeme) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Value
	}
	return out
}

func (ib *itemBuilder) disc(cmd *dsl.Command) ([]hlist.Item, error) {
	kv, err := pairs(cmd.Block)
	if err != nil {
		return nil, err
	}
	var d hlist.Disc
	for _, p := range kv {
		branch := hlist.FromText(p[1], ib.font)
		switch p[0] {
		case "pre":
			d.Pre = branch
		case "post":
			d.Post = branch
		case "nobreak":
			d.NoBreak = branch
		default:
			return nil, fmt.Errorf("未知的分支 %s", p[0])
		}
	}
	return []hlist.Item{d}, nil
}

func (ib *itemBuilder) math(cmd *dsl.Command) ([]hlist.Item, error) {
	style := mathspace.Text
	if len(cmd.Args) > 0 {
		st, ok := mathspace.ParseStyle(cmd.Args[0].Value)
		if !ok {
			return nil, fmt.Errorf("未知的数学样式 %s", cmd.Args[0].Value)
		}
		style = st
	}
	kv, err := pairs(cmd.Block)
	if err != nil {
		return nil, err
	}
	font := ib.hp.MathFont
	if font == "" {
		font = ib.font
	}
	inner := ib.hp
	inner.Open = true
	m := hlist.Math{Style: style}
	for _, p := range kv {
		class, ok := box.ParseAtomClass(p[0])
		if !ok {
			return nil, fmt.Errorf("未知的原子类型 %s", p[0])
		}
		list, err := hlist.Build(hlist.FromText(p[1], font), ib.metrics, inner)
		if err != nil {
			return nil, err
		}
		m.Atoms = append(m.Atoms, hlist.Atom{Class: class, Inner: box.HPack(list...)})
	}
	return []hlist.Item{m}, nil
}

// leaders takes a glue specification and an optional `{ rule ... }` body
// for the repeated pattern. Without a body the leaders are a running rule.
func (ib *itemBuilder) leaders(cmd *dsl.Command) ([]hlist.Item, error) {
	g, err := layout.ParseGlue(dsl.JoinValues(cmd.Args))
	if err != nil {
		return nil, err
	}
	l := &box.Leaders{Glue: g}
	if cmd.Block != nil && len(cmd.Block.Statements) > 0 {
		items, err := (&itemBuilder{font: ib.font, data: ib.data, metrics: ib.metrics, hp: ib.hp}).block(cmd.Block)
		if err != nil {
			return nil, err
		}
		open := ib.hp
		open.Open = true
		list, err := hlist.Build(items, ib.metrics, open)
		if err != nil {
			return nil, err
		}
		l.Pattern = box.HPack(list...)
	} else {
		r, err := box.NewRule(nil, box.Dim(0.4), box.Dim(0))
		if err != nil {
			return nil, err
		}
		l.Pattern = r
	}
	return []hlist.Item{hlist.Box{Node: l}}, nil
}

// hbox packs its body to its natural width, or to the width given as the
// only argument.
func (ib *itemBuilder) hbox(cmd *dsl.Command) ([]hlist.Item, error) {
	sub := &itemBuilder{font: ib.font, data: ib.data, metrics: ib.metrics, hp: ib.hp}
	items, err := sub.block(cmd.Block)
	if err != nil {
		return nil, err
	}
	open := ib.hp
	open.Open = true
	open.Font = ib.font
	list, err := hlist.Build(items, ib.metrics, open)
	if err != nil {
		return nil, err
	}
	switch len(cmd.Args) {
	case 0:
		return []hlist.Item{hlist.Box{Node: box.HPack(list...)}}, nil
	case 1:
		w, err := layout.ParseLength(cmd.Args[0].Value)
		if err != nil {
			return nil, err
		}
		return []hlist.Item{hlist.Box{Node: box.HPackTo(w, list...)}}, nil
	}
	return nil, fmt.Errorf("hbox 最多一个宽度参数")
}

// Omitted rule dimensions. A nil entry is running.
var (
	vruleDefaults = [3]*float64{box.Dim(0.4), nil, nil}
	hruleDefaults = [3]*float64{nil, box.Dim(0.4), box.Dim(0)}
)

// ruleFromArgs reads `rule [width [height [depth]]]`; "*" marks a running
// dimension.
func ruleFromArgs(args []*dsl.Lexeme, defaults [3]*float64) (*box.Rule, error) {
	if len(args) > 3 {
		return nil, fmt.Errorf("rule 最多三个尺寸")
	}
	dims := defaults
	for i, a := range args {
		if a.Value == "*" {
			dims[i] = nil
			continue
		}
		v, err := layout.ParseLength(a.Value)
		if err != nil {
			return nil, err
		}
		dims[i] = box.Dim(v)
	}
	return box.NewRule(dims[0], dims[1], dims[2])
}
