// Package canvasrender 用 github.com/tdewolff/canvas 将分页结果绘制为 PDF。
// 坐标约定：布局输出以左上角为原点（mm），绘制前切换画布坐标系对齐。
package canvasrender

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/fonts"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/paginate"
	"github.com/ByLCY/vellum/render"
	"github.com/ByLCY/vellum/unit"
)

const (
	ruleStrokeWidth  = 0.4
	tableBorderWidth = 0.2
	caretWidth       = 0.4
)

// 选区底色：预乘透明度的淡蓝
var selectionColor = color.RGBA{R: 13, G: 26, B: 64, A: 64}

// Painter 实现 render.Painter。字体族按来源缓存。
type Painter struct {
	baseDir string

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
}

var _ render.Painter = (*Painter)(nil)

// NewPainter 构造 PDF 画家，baseDir 用于解析图片与字体路径。
func NewPainter(baseDir string) *Painter {
	return &Painter{baseDir: baseDir, families: map[string]*canvas.FontFamily{}}
}

// Render 将分页结果绘制为 PDF 字节。
func (p *Painter) Render(dl *paginate.DocumentLayout, src render.Source, ov *render.Overlay) ([]byte, error) {
	if dl == nil || len(dl.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	var buf bytes.Buffer
	writer := pdf.New(&buf, dl.Config.Page.Width, dl.Config.Page.Height, nil)
	for i, page := range dl.Pages {
		if i > 0 {
			writer.NewPage(dl.Config.Page.Width, dl.Config.Page.Height)
		}
		c := canvas.New(dl.Config.Page.Width, dl.Config.Page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 与布局一致：左上角为原点

		if ov != nil {
			p.drawSelection(ctx, ov, page.Index, dl.Scale())
		}
		for _, f := range page.Fragments {
			if err := p.drawFragment(ctx, f, src, dl.Config.Page.ContentWidth()); err != nil {
				return nil, err
			}
		}
		if ov != nil {
			p.drawCaret(ctx, ov, page.Index, dl.Scale())
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Painter) drawFragment(ctx *canvas.Context, f paginate.Fragment, src render.Source, contentWidth float64) error {
	b := src.Block(f.BlockID)
	if b == nil {
		return fmt.Errorf("找不到片段对应的块 %s", f.BlockID)
	}
	switch b.Kind {
	case flow.KindRule:
		return p.drawRule(ctx, f, contentWidth)
	case flow.KindImage:
		return p.drawImage(ctx, f, b)
	case flow.KindTable:
		return p.drawTable(ctx, f, b, contentWidth)
	case flow.KindPageBreak:
		return nil
	default:
		return p.drawTextLines(ctx, f, b, src.Lines(f.BlockID))
	}
}

// drawTextLines 绘制片段覆盖的行区间，按分段切换字体面。
func (p *Painter) drawTextLines(ctx *canvas.Context, f paginate.Fragment, b *flow.Block, lines []measure.LineMeasure) error {
	if len(lines) == 0 || f.FromLine >= len(lines) {
		return nil
	}
	base := lines[f.FromLine].YOffset
	for l := f.FromLine; l < f.ToLine && l < len(lines); l++ {
		line := lines[l]
		y := f.Y + line.YOffset - base
		x := f.X
		if l == 0 {
			x += b.Format.FirstLineIndent
		}
		baseline := y + line.Ascent
		for _, seg := range line.Segments {
			if seg.RunIndex >= len(b.Runs) {
				continue
			}
			r := b.Runs[seg.RunIndex]
			switch r.Kind {
			case flow.RunImage:
				w := r.Width
				if w <= 0 {
					w = 10
				}
				p.drawPlaceholder(ctx, x, y, w, line.Height)
				x += w
			case flow.RunBreak:
				// 换行符本身无墨迹
			default:
				face, err := p.face(r.Format)
				if err != nil {
					return err
				}
				text := canvas.NewTextLine(face, seg.Text, canvas.Left)
				ctx.DrawText(x, baseline, text)
				x += face.TextWidth(seg.Text) * unit.PtToMm
			}
		}
	}
	return nil
}

func (p *Painter) drawRule(ctx *canvas.Context, f paginate.Fragment, contentWidth float64) error {
	ctx.SetStrokeColor(canvas.Gray)
	ctx.SetStrokeWidth(ruleStrokeWidth)
	line := &canvas.Path{}
	line.MoveTo(0, 0)
	line.LineTo(contentWidth, 0)
	ctx.DrawPath(f.X, f.Y+f.Height/2, line)
	return nil
}

func (p *Painter) drawImage(ctx *canvas.Context, f paginate.Fragment, b *flow.Block) error {
	w := b.Width
	if w <= 0 {
		w = 40
	}
	if b.Src != "" && p.baseDir != "" {
		path := b.Src
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.baseDir, path)
		}
		if file, err := os.Open(path); err == nil {
			img, _, derr := image.Decode(file)
			file.Close()
			if derr == nil {
				dpmm := float64(img.Bounds().Dx()) / w
				if dpmm <= 0 {
					dpmm = 1
				}
				ctx.DrawImage(f.X, f.Y, img, canvas.DPMM(dpmm))
				return nil
			}
		}
	}
	// 图片缺失：画占位框
	p.drawPlaceholder(ctx, f.X, f.Y, w, f.Height)
	return nil
}

// drawTable 以均分列宽绘制边框网格，单元格内容取块文本首行。
func (p *Painter) drawTable(ctx *canvas.Context, f paginate.Fragment, b *flow.Block, contentWidth float64) error {
	cols := 0
	for _, row := range b.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	if cols == 0 {
		return nil
	}
	colWidth := contentWidth / float64(cols)
	rowHeight := f.Height / float64(len(b.Rows))
	face, err := p.face(flow.TextFormat{})
	if err != nil {
		return err
	}
	y := f.Y
	for _, row := range b.Rows {
		x := f.X
		for _, cell := range row.Cells {
			ctx.SetFillColor(canvas.White)
			ctx.SetStrokeColor(canvas.Black)
			ctx.SetStrokeWidth(tableBorderWidth)
			ctx.DrawPath(x, y, canvas.Rectangle(colWidth, rowHeight))
			text := cellText(cell)
			if text != "" {
				tl := canvas.NewTextLine(face, text, canvas.Left)
				ctx.DrawText(x+1, y+face.Metrics().Ascent*unit.PtToMm+0.5, tl)
			}
			x += colWidth
		}
		y += rowHeight
	}
	return nil
}

func cellText(cell []*flow.Block) string {
	var parts []string
	for _, b := range cell {
		if t := b.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (p *Painter) drawPlaceholder(ctx *canvas.Context, x, y, w, h float64) {
	ctx.SetFillColor(canvas.Hex("#f0f0f0"))
	ctx.SetStrokeColor(canvas.Gray)
	ctx.SetStrokeWidth(tableBorderWidth)
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

// drawSelection 绘制落在本页的选区矩形（矩形坐标已含倍率，除回 mm）。
func (p *Painter) drawSelection(ctx *canvas.Context, ov *render.Overlay, page int, scale float64) {
	for _, r := range ov.Selection {
		if r.Page != page {
			continue
		}
		ctx.SetFillColor(selectionColor)
		ctx.SetStrokeColor(color.RGBA{})
		ctx.DrawPath(r.X/scale, r.Y/scale, canvas.Rectangle(r.Width/scale, r.Height/scale))
	}
}

func (p *Painter) drawCaret(ctx *canvas.Context, ov *render.Overlay, page int, scale float64) {
	v := ov.Caret
	if v == nil || v.Page != page {
		return
	}
	ctx.SetStrokeColor(canvas.Black)
	ctx.SetStrokeWidth(caretWidth)
	line := &canvas.Path{}
	line.MoveTo(0, 0)
	line.LineTo(0, v.Height/scale)
	ctx.DrawPath(v.X/scale, v.Y/scale, line)
}

// face 按字体属性取字体面，与测量服务同源（内置 Latin Modern 字族）。
func (p *Painter) face(f flow.TextFormat) (*canvas.FontFace, error) {
	sizeMm := f.Size
	if sizeMm <= 0 {
		sizeMm = 12 * unit.PtToMm
	}
	variant := fonts.Variant(f.Bold, f.Italic)
	key := f.Font + "|" + variant
	p.fontMu.Lock()
	defer p.fontMu.Unlock()

	family, ok := p.families[key]
	if !ok {
		data, err := p.loadFontBytes(f.Font, variant)
		if err != nil {
			return nil, err
		}
		family = canvas.NewFontFamily(key)
		if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", key, err)
		}
		p.families[key] = family
	}
	return family.Face(sizeMm*unit.MmToPt, canvas.Black, canvas.FontRegular, canvas.FontNormal), nil
}

func (p *Painter) loadFontBytes(src, variant string) ([]byte, error) {
	if src == "" {
		return fonts.Load(variant)
	}
	path := src
	if !filepath.IsAbs(path) {
		if p.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s", src)
		}
		path = filepath.Join(p.baseDir, path)
	}
	return os.ReadFile(path)
}
