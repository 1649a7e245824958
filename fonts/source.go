// Package fonts 提供内置的 Latin Modern 字体以及基于 go-text/typesetting 的字形度量表。
package fonts

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-fonts/latin-modern/lmmath"
	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmroman12regular"
	"github.com/go-fonts/latin-modern/lmroman7regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// LatinModernPrefix 标记内置字体，例如 "lm:roman10"。
const LatinModernPrefix = "lm:"

var latinModern = map[string][]byte{
	"roman10":        lmroman10regular.TTF,
	"roman10-bold":   lmroman10bold.TTF,
	"roman10-italic": lmroman10italic.TTF,
	"roman12":        lmroman12regular.TTF,
	"roman7":         lmroman7regular.TTF,
	"sans10":         lmsans10regular.TTF,
	"sans10-bold":    lmsans10bold.TTF,
	"mono10":         lmmono10regular.TTF,
	"math":           lmmath.TTF,
}

// Faces 返回全部内置字体名（不含前缀），按字母序排列。
func Faces() []string {
	return slices.Sorted(maps.Keys(latinModern))
}

// Load 返回字体字节数据。src 可写为 "lm:roman10" 使用内置字体，
// 否则视为文件路径，相对路径以 baseDir 为根。
func Load(baseDir, src string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, LatinModernPrefix); ok {
		data, ok := latinModern[name]
		if !ok {
			return nil, fmt.Errorf("未知的内置字体 %s（可用：%s）", name, strings.Join(Faces(), ", "))
		}
		return data, nil
	}
	if src == "" {
		return nil, fmt.Errorf("字体路径不能为空")
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}
