package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/vellum/doc"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/editor"
	canvasmeasure "github.com/ByLCY/vellum/measure/canvas"
	"github.com/ByLCY/vellum/paginate"
	"github.com/ByLCY/vellum/render"
	canvasrender "github.com/ByLCY/vellum/render/canvas"
)

func main() {
	input := flag.String("in", "examples/demo.vellum", "标记文件路径")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "分页调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到标记的 JSON 数据")
	sel := flag.String("select", "", "选区偏移 start:end（叠加绘制选区矩形）")
	caret := flag.Int("caret", -1, "光标偏移（叠加绘制光标并打印坐标）")
	click := flag.String("click", "", "坐标反解 page,x,y（打印命中的偏移）")
	scale := flag.Float64("scale", 1, "几何倍率")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	if err := run(*input, *output, *debug, *sel, *click, *caret, *scale, inputData); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// run 串联解析、转换、分页与渲染。
func run(inputPath, outputPath, debugPath, sel, click string, caret int, scale float64, data any) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开标记文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	d, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析标记失败: %w", err)
	}
	tree, err := doc.FromDSL(d, data)
	if err != nil {
		return fmt.Errorf("构建文档树失败: %w", err)
	}
	cfg, err := pageConfig(d, scale)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(inputPath)
	ed := editor.New(canvasmeasure.NewService(baseDir), cfg)
	ed.Post(editor.ReplaceDocument{Tree: tree})
	ed.Drain()

	layout := ed.Layout()
	if debugPath != "" {
		if err := writeDebug(layout, debugPath); err != nil {
			return err
		}
	}
	if click != "" {
		if err := resolveClick(ed, click); err != nil {
			return err
		}
	}

	overlay, err := buildOverlay(ed, sel, caret)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	painter := canvasrender.NewPainter(baseDir)
	pdfBytes, err := painter.Render(layout, ed, overlay)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

// pageConfig 由标记的 page 头与命令行倍率合成分页配置。
func pageConfig(d *dsl.Document, scale float64) (paginate.Config, error) {
	cfg := paginate.DefaultConfig()
	cfg.Scale = scale

	page := d.FirstPage()
	if page == nil {
		return cfg, fmt.Errorf("文档中缺少 page 段落")
	}
	params := make([]string, 0, len(page.Spec.Params))
	for _, lx := range page.Spec.Params {
		params = append(params, lx.Value)
	}
	pc, err := paginate.ParsePageSpec(page.Spec.Size, params)
	if err != nil {
		return cfg, err
	}
	cfg.Page = pc
	return cfg, nil
}

// buildOverlay 按命令行参数生成选区/光标叠加。
func buildOverlay(ed *editor.Editor, sel string, caret int) (*render.Overlay, error) {
	ov := &render.Overlay{}
	if sel != "" {
		var start, end int
		if _, err := fmt.Sscanf(sel, "%d:%d", &start, &end); err != nil {
			return nil, fmt.Errorf("无法解析选区 %q（期望 start:end）: %w", sel, err)
		}
		ed.Post(editor.SetSelection{Anchor: start, Head: end})
		ed.Drain()
		ov.Selection = ed.Selection().Rects()
	}
	if caret >= 0 {
		v := ed.Mapper().OffsetToVisual(caret)
		if v != nil {
			fmt.Printf("偏移 %d → 第 %d 页 (%.2f, %.2f) 行高 %.2f\n", caret, v.Page+1, v.X, v.Y, v.Height)
		}
		ov.Caret = v
	}
	if ov.Selection == nil && ov.Caret == nil {
		return nil, nil
	}
	return ov, nil
}

// resolveClick 把 "page,x,y" 反解为文档偏移并打印。
func resolveClick(ed *editor.Editor, click string) error {
	parts := strings.Split(click, ",")
	if len(parts) != 3 {
		return fmt.Errorf("无法解析 click %q（期望 page,x,y）", click)
	}
	var page int
	var x, y float64
	if _, err := fmt.Sscanf(click, "%d,%f,%f", &page, &x, &y); err != nil {
		return fmt.Errorf("无法解析 click %q: %w", click, err)
	}
	off, ok := ed.Mapper().VisualToOffset(page-1, x, y)
	if !ok {
		fmt.Println("空文档，无可命中内容")
		return nil
	}
	fmt.Printf("点击 (第 %d 页, %.2f, %.2f) → 偏移 %d\n", page, x, y, off)
	return nil
}

func writeDebug(layout *paginate.DocumentLayout, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := paginate.WriteDebugJSON(layout, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
