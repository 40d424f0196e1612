// Package canvasmeasure 基于 github.com/tdewolff/canvas 的字体度量实现测量服务：
// 给定块与内容宽度，按贪心换行产出逐行度量与字符分段。
// 约定：对外尺寸一律为 mm；与字体系统交互使用 pt，在边界换算。
package canvasmeasure

import (
	"fmt"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/unit"
)

const (
	defaultSizeMm     = 12 * unit.PtToMm
	defaultLineFactor = 1.4
	defaultBoxWidth   = 10.0
	emptyLineWidth    = 0.2 // 空块的近零宽度行，保证可见、可选中
)

// Service 实现 measure.Service 与 measure.AdvanceProvider。
// 字体族按来源缓存；最近一次测量结果按块 ID 备忘，供位移查询复用。
type Service struct {
	baseDir string

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily

	memo map[string]*measured
}

type measured struct {
	width float64
	lines []measure.LineMeasure
	block *flow.Block
}

var (
	_ measure.Service         = (*Service)(nil)
	_ measure.AdvanceProvider = (*Service)(nil)
	_ measure.Sweeper         = (*Service)(nil)
)

// NewService 构造测量服务，baseDir 用于解析字体文件路径。
func NewService(baseDir string) *Service {
	return &Service{
		baseDir:  baseDir,
		families: map[string]*canvas.FontFamily{},
		memo:     map[string]*measured{},
	}
}

// Measure 产出块的逐行度量。相同 (内容, 宽度, 字体) 输入结果确定。
func (s *Service) Measure(b *flow.Block, contentWidth float64) ([]measure.LineMeasure, error) {
	lines, err := s.measure(b, contentWidth)
	if err != nil {
		return nil, err
	}
	s.memo[b.ID] = &measured{width: contentWidth, lines: lines, block: b}
	return lines, nil
}

// Invalidate 丢弃单个块的测量备忘。
func (s *Service) Invalidate(id string) { delete(s.memo, id) }

// Sweep 实现 measure.Sweeper：仅保留 live 中仍然存活的块 ID 的备忘。
// 不回收的话，备忘会随每次重转换产生的新 ID 无界增长。
func (s *Service) Sweep(live map[string]struct{}) {
	for id := range s.memo {
		if _, ok := live[id]; !ok {
			delete(s.memo, id)
		}
	}
}

func (s *Service) measure(b *flow.Block, contentWidth float64) ([]measure.LineMeasure, error) {
	switch b.Kind {
	case flow.KindPageBreak:
		return nil, nil
	case flow.KindImage:
		h := b.Height
		if h <= 0 {
			if b.Width > 0 {
				h = b.Width * 0.75
			} else {
				h = 40
			}
		}
		w := b.Width
		if w <= 0 {
			w = 40
		}
		return []measure.LineMeasure{{Height: h, Width: w}}, nil
	case flow.KindRule:
		h := b.Height
		if h <= 0 {
			h = 1
		}
		return []measure.LineMeasure{{Height: h, Width: contentWidth}}, nil
	case flow.KindTable:
		return s.measureTable(b, contentWidth)
	default:
		return s.measureText(b, contentWidth)
	}
}

// measureTable 整表测量：列宽均分内容宽度，行高取单元格堆叠高度的最大值。
// 表格整体放置，产出单条覆盖全表的度量行。
func (s *Service) measureTable(b *flow.Block, contentWidth float64) ([]measure.LineMeasure, error) {
	cols := 0
	for _, row := range b.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	if cols == 0 {
		return nil, fmt.Errorf("表格没有单元格")
	}
	colWidth := contentWidth / float64(cols)
	total := 0.0
	for _, row := range b.Rows {
		rowH := 0.0
		for _, cell := range row.Cells {
			cellH := 0.0
			for _, cb := range cell {
				lines, err := s.measure(cb, colWidth)
				if err != nil {
					return nil, err
				}
				cellH += measure.TotalHeight(lines)
			}
			if cellH > rowH {
				rowH = cellH
			}
		}
		total += rowH
	}
	return []measure.LineMeasure{{Height: total, Width: contentWidth}}, nil
}

// measureText 对段落/标题/列表项做贪心换行。
// 不变式：全部行的分段恰好按序划分块的 Run 文本一次。
func (s *Service) measureText(b *flow.Block, contentWidth float64) ([]measure.LineMeasure, error) {
	factor := b.Format.LineHeight
	if factor <= 0 {
		factor = defaultLineFactor
	}

	tokens, err := s.tokenize(b)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return []measure.LineMeasure{s.emptyLine(b, factor)}, nil
	}

	var lines []measure.LineMeasure
	var cur lineBuilder
	limit := func() float64 {
		w := contentWidth
		if len(lines) == 0 {
			w -= b.Format.FirstLineIndent
		}
		if w <= 0 {
			w = contentWidth
		}
		return w
	}
	emit := func() {
		lines = append(lines, cur.finish(factor))
		cur = lineBuilder{}
	}

	for _, tok := range tokens {
		if tok.forced {
			cur.add(tok)
			emit()
			continue
		}
		// 行尾空白留在它结束的行上，不触发换行；续行永不以空白开头
		if tok.space && cur.used {
			cur.add(tok)
			continue
		}
		if cur.width > 0 && cur.width+tok.width > limit() {
			emit()
		}
		if tok.width <= limit() {
			cur.add(tok)
			continue
		}
		// 单 token 超行宽：按宽度硬切
		for _, chunk := range s.splitByWidth(tok, limit()) {
			if cur.width > 0 && cur.width+chunk.width > limit() {
				emit()
			}
			cur.add(chunk)
		}
	}
	if cur.used {
		emit()
	}

	yoff := 0.0
	for i := range lines {
		lines[i].YOffset = yoff
		yoff += lines[i].Height
	}
	return lines, nil
}

// emptyLine 为空块产出一条近零宽度的行。
func (s *Service) emptyLine(b *flow.Block, factor float64) measure.LineMeasure {
	size := defaultSizeMm
	ascent, descent := size*0.8, size*0.2
	if face, err := s.face(flow.TextFormat{Size: size}); err == nil {
		m := face.Metrics()
		ascent, descent = m.Ascent*unit.PtToMm, m.Descent*unit.PtToMm
	}
	h := size * factor
	if n := ascent + descent; n > h {
		h = n
	}
	return measure.LineMeasure{Height: h, Width: emptyLineWidth, Ascent: ascent, Descent: descent}
}

// lineBuilder 累积一行的 token 并在收口时合并为分段。
type lineBuilder struct {
	used    bool
	width   float64
	ascent  float64
	descent float64
	sizeMax float64
	segs    []measure.Segment
}

func (lb *lineBuilder) add(tok styledToken) {
	lb.used = true
	lb.width += tok.width
	if tok.ascent > lb.ascent {
		lb.ascent = tok.ascent
	}
	if tok.descent > lb.descent {
		lb.descent = tok.descent
	}
	if tok.size > lb.sizeMax {
		lb.sizeMax = tok.size
	}
	// 同 run 且偏移连续时并入上一分段
	if n := len(lb.segs); n > 0 {
		last := &lb.segs[n-1]
		if last.RunIndex == tok.run && last.EndOffset == tok.start {
			last.EndOffset = tok.end
			last.Text += tok.text
			return
		}
	}
	lb.segs = append(lb.segs, measure.Segment{
		RunIndex:    tok.run,
		StartOffset: tok.start,
		EndOffset:   tok.end,
		Text:        tok.text,
	})
}

func (lb *lineBuilder) finish(factor float64) measure.LineMeasure {
	size := lb.sizeMax
	if size <= 0 {
		size = defaultSizeMm
	}
	ascent, descent := lb.ascent, lb.descent
	if ascent <= 0 {
		ascent = size * 0.8
	}
	if descent <= 0 {
		descent = size * 0.2
	}
	h := size * factor
	if n := ascent + descent; n > h {
		h = n
	}
	return measure.LineMeasure{
		Height:   h,
		Width:    lb.width,
		Ascent:   ascent,
		Descent:  descent,
		Segments: lb.segs,
	}
}
