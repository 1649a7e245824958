package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ByLCY/galley/config"
	"github.com/ByLCY/galley/dsl"
	"github.com/ByLCY/galley/layout"
	"github.com/ByLCY/galley/logging"
	canvasrenderer "github.com/ByLCY/galley/renderer/canvas"
	"github.com/ByLCY/galley/typeset"
)

// options 汇总命令行参数。
type options struct {
	input     string
	output    string
	debug     string
	metrics   string
	showBoxes bool
	data      any
}

func main() {
	input := flag.String("in", "examples/demo.galley", "DSL 文件路径")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	metrics := flag.String("metrics", "fonts", "字体度量来源：fonts 或 canvas")
	showBoxes := flag.Bool("boxes", false, "在 PDF 中画出盒子外框")
	verbose := flag.Bool("v", false, "输出调试日志")
	printConfig := flag.Bool("print-config", false, "打印生效的配置后退出")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	level := cfg.LogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(logging.NewText(os.Stderr, level))

	if *printConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			log.Fatalf("输出配置失败: %v", err)
		}
		return
	}

	opts := options{
		input:     *input,
		output:    *output,
		debug:     *debug,
		metrics:   *metrics,
		showBoxes: *showBoxes,
	}
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &opts.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	if err := run(opts, cfg); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// run 依次完成解析、排版与渲染，调试 JSON 在渲染之前写出，便于排查渲染错误。
func run(opts options, cfg config.Config) error {
	doc, err := parseInput(opts.input)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(opts.input)
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:   baseDir,
		ShowBoxes: opts.showBoxes,
	})
	tsOpts := typeset.Options{Config: cfg, BaseDir: baseDir}
	switch opts.metrics {
	case "", "fonts":
	case "canvas":
		tsOpts.Metrics = r.Metrics
	default:
		return fmt.Errorf("未知的度量来源 %s", opts.metrics)
	}

	result, err := typeset.Build(doc, opts.data, tsOpts)
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}

	if opts.debug != "" {
		var buf bytes.Buffer
		if err := layout.EncodeDebugJSON(&buf, result); err != nil {
			return fmt.Errorf("编码调试 JSON 失败: %w", err)
		}
		if err := writeOutput(opts.debug, buf.Bytes()); err != nil {
			return fmt.Errorf("调试 JSON: %w", err)
		}
	}

	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := writeOutput(opts.output, pdfBytes); err != nil {
		return fmt.Errorf("PDF: %w", err)
	}
	return nil
}

func parseInput(path string) (*dsl.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return doc, nil
}

// writeOutput 写文件，必要时先创建目录。
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
