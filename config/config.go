// Package config 读取 TOML 排版配置，并把其中的尺寸与胶解析为各层使用的参数。
//
// 配置分为四节：
//
//	[paragraph]  断行与行距参数，名称沿用 TeX（tolerance、baselineskip 等）
//	[page]       纸张、边距与段间距
//	[fonts]      默认字体与额外注册的字体
//	[log]        日志级别
//
// 尺寸写成带单位的字符串（"12pt"、"20mm"），胶写成 TeX 语法
// （"12pt plus 1pt minus 1pt"、"0pt plus 1fil"）。
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/hlist"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/linebreak"
	"github.com/ByLCY/galley/logging"
)

type Config struct {
	Paragraph Paragraph `toml:"paragraph"`
	Page      Page      `toml:"page"`
	Fonts     Fonts     `toml:"fonts"`
	Log       Log       `toml:"log"`
}

type Paragraph struct {
	// LineWidth 为空时使用页面正文宽度。
	LineWidth   string `toml:"line-width"`
	Indent      string `toml:"indent"`
	LeftSkip    string `toml:"leftskip"`
	RightSkip   string `toml:"rightskip"`
	ParFillSkip string `toml:"parfillskip"`

	Pretolerance     int    `toml:"pretolerance"`
	Tolerance        int    `toml:"tolerance"`
	EmergencyStretch string `toml:"emergencystretch"`
	Looseness        int    `toml:"looseness"`

	LinePenalty          int `toml:"linepenalty"`
	HyphenPenalty        int `toml:"hyphenpenalty"`
	ExHyphenPenalty      int `toml:"exhyphenpenalty"`
	AdjDemerits          int `toml:"adjdemerits"`
	DoubleHyphenDemerits int `toml:"doublehyphendemerits"`
	FinalHyphenDemerits  int `toml:"finalhyphendemerits"`

	BaselineSkip     string `toml:"baselineskip"`
	LineSkip         string `toml:"lineskip"`
	LineSkipLimit    string `toml:"lineskiplimit"`
	InterLinePenalty int    `toml:"interlinepenalty"`
	ClubPenalty      int    `toml:"clubpenalty"`
	WidowPenalty     int    `toml:"widowpenalty"`

	HBadness int    `toml:"hbadness"`
	VBadness int    `toml:"vbadness"`
	HFuzz    string `toml:"hfuzz"`
	VFuzz    string `toml:"vfuzz"`

	FrenchSpacing bool   `toml:"frenchspacing"`
	MathSurround  string `toml:"mathsurround"`
	BinOpPenalty  int    `toml:"binoppenalty"`
	RelPenalty    int    `toml:"relpenalty"`
	// Greedy 选用首次适配断行。
	Greedy bool `toml:"greedy"`
}

type Page struct {
	// Size 为预设纸张名（A4、A5、letter）；Width 与 Height 非空时覆盖它。
	Size      string `toml:"size"`
	Landscape bool   `toml:"landscape"`
	Width     string `toml:"width"`
	Height    string `toml:"height"`
	// Margin 使用 CSS 语义：1 到 4 个长度，依次为上、右、下、左。
	Margin  string `toml:"margin"`
	ParSkip string `toml:"parskip"`
	// TopSkip 是页首基线到正文顶部的距离。
	TopSkip string `toml:"topskip"`
	// RaggedBottom 在每页末尾补 0pt plus 1fil，页面不再纵向拉伸。
	RaggedBottom bool `toml:"raggedbottom"`
}

type Fonts struct {
	Default string `toml:"default"`
	// Math 提供数学间距的 quad，为空时使用 Default。
	Math  string          `toml:"math"`
	Faces map[string]Face `toml:"face,omitempty"`
}

// Face 声明一个额外字体，src 可以是 lm:<name> 或文件路径。
type Face struct {
	Src  string `toml:"src"`
	Size string `toml:"size"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default 返回 plain TeX 的段落参数、A4 纸张与 10pt Latin Modern 字体。
func Default() Config {
	return Config{
		Paragraph: Paragraph{
			Indent:               "15pt",
			ParFillSkip:          "0pt plus 1fil",
			Pretolerance:         100,
			Tolerance:            200,
			EmergencyStretch:     "0pt",
			LinePenalty:          10,
			HyphenPenalty:        50,
			ExHyphenPenalty:      50,
			AdjDemerits:          10000,
			DoubleHyphenDemerits: 10000,
			FinalHyphenDemerits:  5000,
			BaselineSkip:         "12pt",
			LineSkip:             "1pt",
			LineSkipLimit:        "0pt",
			ClubPenalty:          150,
			WidowPenalty:         150,
			HBadness:             1000,
			VBadness:             1000,
			HFuzz:                "0.1pt",
			VFuzz:                "0.1pt",
			BinOpPenalty:         700,
			RelPenalty:           500,
		},
		Page: Page{
			Size:         "A4",
			Margin:       "25mm",
			ParSkip:      "0pt plus 1pt",
			TopSkip:      "10pt",
			RaggedBottom: true,
		},
		Fonts: Fonts{Default: "roman"},
		Log:   Log{Level: "info"},
	}
}

// Load 读取 TOML 配置文件；未出现的键保留 Default 的取值。
func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("无法打开配置文件 %s: %w", path, err)
	}
	defer file.Close()
	cfg, err := Decode(file)
	if err != nil {
		return Config{}, fmt.Errorf("配置文件 %s: %w", path, err)
	}
	return cfg, nil
}

// Decode 从 r 解析 TOML 配置，拒绝未知的键。
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("解析 TOML 失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode 以 TOML 写出配置。
func (c Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// Validate 解析全部尺寸，返回遇到的第一个错误。
func (c Config) Validate() error {
	w, _, err := c.PageSize()
	if err != nil {
		return err
	}
	margin, err := c.Margin()
	if err != nil {
		return err
	}
	if _, err := c.LineParams(w - margin.Left - margin.Right); err != nil {
		return err
	}
	if _, err := c.HListParams(); err != nil {
		return err
	}
	if _, err := c.ParSkip(); err != nil {
		return err
	}
	if _, err := c.TopSkip(); err != nil {
		return err
	}
	for name, f := range c.Fonts.Faces {
		if f.Src == "" {
			return fmt.Errorf("字体 %s 缺少 src", name)
		}
		if _, err := c.FaceSize(name); err != nil {
			return err
		}
	}
	if c.Fonts.Default == "" {
		return fmt.Errorf("fonts.default 不能为空")
	}
	return nil
}

// Set 按 TOML 键名覆盖单个设置，例如 Set("tolerance", "1000")。
// 键名在各节之间唯一，DSL 的 settings 块经由这里生效。
func (c *Config) Set(key, value string) error {
	sections := reflect.ValueOf(c).Elem()
	for i := 0; i < sections.NumField(); i++ {
		section := sections.Field(i)
		st := section.Type()
		for j := 0; j < st.NumField(); j++ {
			tag, _, _ := strings.Cut(st.Field(j).Tag.Get("toml"), ",")
			if tag != key {
				continue
			}
			if err := setField(section.Field(j), value); err != nil {
				return fmt.Errorf("设置 %s 失败: %w", key, err)
			}
			return nil
		}
	}
	return fmt.Errorf("未知的设置项 %s", key)
}

func setField(f reflect.Value, value string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Int:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("需要整数: %q", value)
		}
		f.SetInt(int64(v))
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("需要布尔值: %q", value)
		}
		f.SetBool(v)
	default:
		return fmt.Errorf("不能以字符串设置 %s 类型", f.Kind())
	}
	return nil
}

// pagePresets 以 mm 记录纸张尺寸。
var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"B5":     {176, 250},
	"LETTER": {215.9, 279.4},
}

// PageSize 返回纸张宽高（pt）。
func (c Config) PageSize() (float64, float64, error) {
	var w, h float64
	if c.Page.Width != "" || c.Page.Height != "" {
		var err error
		if w, err = length("page.width", c.Page.Width); err != nil {
			return 0, 0, err
		}
		if h, err = length("page.height", c.Page.Height); err != nil {
			return 0, 0, err
		}
	} else {
		base, ok := pagePresets[strings.ToUpper(c.Page.Size)]
		if !ok {
			return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", c.Page.Size)
		}
		w, h = base[0]*layout.MmToPt, base[1]*layout.MmToPt
	}
	if c.Page.Landscape {
		w, h = h, w
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("纸张尺寸必须为正数")
	}
	return w, h, nil
}

// Margin 按 CSS 语义解析 page.margin。
func (c Config) Margin() (layout.Margin, error) {
	fields := strings.Fields(c.Page.Margin)
	vals := make([]float64, 0, 4)
	for _, f := range fields {
		v, err := length("page.margin", f)
		if err != nil {
			return layout.Margin{}, err
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 0:
		return layout.Margin{}, nil
	case 1:
		v := vals[0]
		return layout.Margin{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	case 4:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
	return layout.Margin{}, fmt.Errorf("page.margin 最多 4 个值: %q", c.Page.Margin)
}

// ParSkip 返回段间胶。
func (c Config) ParSkip() (box.Glue, error) {
	return glue("page.parskip", c.Page.ParSkip)
}

// TopSkip 返回页首胶的基准长度。
func (c Config) TopSkip() (float64, error) {
	if c.Page.TopSkip == "" {
		return 0, nil
	}
	return length("page.topskip", c.Page.TopSkip)
}

// FaceSize 返回 [fonts.face.<name>] 的字号，未写时为 10pt。
func (c Config) FaceSize(name string) (float64, error) {
	f := c.Fonts.Faces[name]
	if f.Size == "" {
		return 10, nil
	}
	size, err := length("fonts.face."+name+".size", f.Size)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("字体 %s 的字号必须为正数", name)
	}
	return size, nil
}

// LineParams 把 [paragraph] 转为断行参数；line-width 为空时使用 textWidth。
func (c Config) LineParams(textWidth float64) (linebreak.Params, error) {
	p := c.Paragraph
	out := linebreak.DefaultParams(textWidth)
	var err error
	if p.LineWidth != "" {
		if out.LineWidth, err = length("line-width", p.LineWidth); err != nil {
			return out, err
		}
	}
	if out.LineWidth <= 0 {
		return out, fmt.Errorf("行宽必须为正数: %.2fpt", out.LineWidth)
	}
	lengths := []struct {
		key string
		val string
		dst *float64
	}{
		{"indent", p.Indent, &out.Indent},
		{"emergencystretch", p.EmergencyStretch, &out.EmergencyStretch},
		{"lineskiplimit", p.LineSkipLimit, &out.LineSkipLimit},
		{"hfuzz", p.HFuzz, &out.Set.HFuzz},
		{"vfuzz", p.VFuzz, &out.Set.VFuzz},
	}
	for _, l := range lengths {
		if l.val == "" {
			continue
		}
		if *l.dst, err = length(l.key, l.val); err != nil {
			return out, err
		}
	}
	glues := []struct {
		key string
		val string
		dst *box.Glue
	}{
		{"leftskip", p.LeftSkip, &out.LeftSkip},
		{"rightskip", p.RightSkip, &out.RightSkip},
		{"baselineskip", p.BaselineSkip, &out.BaselineSkip},
		{"lineskip", p.LineSkip, &out.LineSkip},
	}
	for _, g := range glues {
		if g.val == "" {
			continue
		}
		if *g.dst, err = glue(g.key, g.val); err != nil {
			return out, err
		}
	}
	out.Pretolerance = p.Pretolerance
	out.Tolerance = p.Tolerance
	out.Looseness = p.Looseness
	out.LinePenalty = p.LinePenalty
	out.HyphenPenalty = p.HyphenPenalty
	out.ExHyphenPenalty = p.ExHyphenPenalty
	out.AdjDemerits = p.AdjDemerits
	out.DoubleHyphenDemerits = p.DoubleHyphenDemerits
	out.FinalHyphenDemerits = p.FinalHyphenDemerits
	out.InterLinePenalty = p.InterLinePenalty
	out.ClubPenalty = p.ClubPenalty
	out.WidowPenalty = p.WidowPenalty
	out.Set.HBadness = p.HBadness
	out.Set.VBadness = p.VBadness
	out.Greedy = p.Greedy
	return out, nil
}

// HListParams 把 [paragraph] 与 [fonts] 转为 h-list 构建参数。
func (c Config) HListParams() (hlist.Params, error) {
	p := c.Paragraph
	out := hlist.DefaultParams()
	out.Font = c.Fonts.Default
	out.MathFont = c.Fonts.Math
	out.FrenchSpacing = p.FrenchSpacing
	out.BinOpPenalty = p.BinOpPenalty
	out.RelPenalty = p.RelPenalty
	var err error
	if p.ParFillSkip != "" {
		if out.ParFillSkip, err = glue("parfillskip", p.ParFillSkip); err != nil {
			return out, err
		}
	}
	if p.MathSurround != "" {
		if out.MathSurround, err = length("mathsurround", p.MathSurround); err != nil {
			return out, err
		}
	}
	return out, nil
}

// LogLevel 返回 [log] 的级别。
func (c Config) LogLevel() slog.Level {
	return logging.ParseLevel(c.Log.Level)
}

func length(key, value string) (float64, error) {
	v, err := layout.ParseLength(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func glue(key, value string) (box.Glue, error) {
	g, err := layout.ParseGlue(value)
	if err != nil {
		return box.Glue{}, fmt.Errorf("%s: %w", key, err)
	}
	return g, nil
}
