// Package binding 把 JSON 数据插入文本中的 ${path} 占位符。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径可以写成 data.a.b 或 a.b；若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	out, _ := Expand(text, data)
	return out
}

// Expand 与 Interpolate 相同，并返回未能解析的路径，供调用方记录日志。
func Expand(text string, data any) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if val, ok := Resolve(data, path); ok {
			return format(val)
		}
		missing = append(missing, path)
		return match
	})
	return out, missing
}

// Resolve 按 a.b[0].c 形式的路径取值。前缀 "data." 指数据根本身，
// 除非根上恰好有名为 data 的键。
func Resolve(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(path, "data."); ok {
		if _, own := (step{key: "data"}).apply(data); !own {
			path = rest
		}
	}
	steps, ok := splitPath(path)
	if !ok {
		return nil, false
	}
	current := data
	for _, st := range steps {
		if current, ok = st.apply(current); !ok {
			return nil, false
		}
	}
	return current, true
}

// step 是路径中的一级：对象键或数组下标。
type step struct {
	key   string
	index int
	isIdx bool
}

func (st step) apply(current any) (any, bool) {
	if !st.isIdx {
		switch c := current.(type) {
		case map[string]any:
			v, ok := c[st.key]
			return v, ok
		case map[string]string:
			v, ok := c[st.key]
			return v, ok
		}
		return nil, false
	}
	switch c := current.(type) {
	case []any:
		if st.index < len(c) {
			return c[st.index], true
		}
	case []string:
		if st.index < len(c) {
			return c[st.index], true
		}
	}
	return nil, false
}

// splitPath 把 a.b[1][2] 拆成 a、b、1、2 四步。未闭合的方括号之后的内容被忽略。
func splitPath(path string) ([]step, bool) {
	var steps []step
	for _, segment := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(segment, "[")
		if name != "" {
			steps = append(steps, step{key: name})
		}
		for rest != "" {
			idx, tail, closed := strings.Cut(rest, "]")
			if !closed {
				break
			}
			n, err := strconv.Atoi(idx)
			if err != nil || n < 0 {
				return nil, false
			}
			steps = append(steps, step{index: n, isIdx: true})
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return steps, true
}

// format prints JSON numbers without exponent noise.
func format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
