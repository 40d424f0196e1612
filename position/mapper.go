// Package position 实现文档偏移与页面坐标之间的双向映射。
// 映射建立在分页结果之上：先定位块的偏移区间，再经逐行累计字符数
// 定位行，最后在行内按字符位置插值横坐标。
package position

import (
	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/paginate"
)

// Source 提供映射所需的内容与测量数据，由布局控制器实现。
// LineAdvances 返回某行逐字符的精确累计横向位移（长度 = 行字符数 + 1）；
// 渲染边界无法提供时返回 nil，映射退回按比例估算。
type Source interface {
	Block(id string) *flow.Block
	Range(id string) (flow.Range, bool)
	Lines(id string) []measure.LineMeasure
	LineAdvances(id string, line int) []float64
}

// Visual 是偏移对应的页面坐标：页号、页内 X/Y（已含倍率）与行高。
type Visual struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

// Mapper 持有惰性重建的片段偏移索引。单线程使用。
type Mapper struct {
	src     Source
	layout  *paginate.DocumentLayout
	spans   []*span
	perPage [][]int
	stale   bool
}

// NewMapper 构造映射器。
func NewMapper(src Source) *Mapper {
	return &Mapper{src: src, stale: true}
}

// SetLayout 更新底层布局并使索引失效。重建推迟到下一次查询。
func (m *Mapper) SetLayout(dl *paginate.DocumentLayout) {
	m.layout = dl
	m.Invalidate()
}

// Invalidate 丢弃索引。布局重算或渲染面重建后调用。
func (m *Mapper) Invalidate() {
	m.spans = nil
	m.perPage = nil
	m.stale = true
}

// ensureIndex 按需重建索引；同帧内的后续查询直接复用。
func (m *Mapper) ensureIndex() {
	if !m.stale {
		return
	}
	m.spans, m.perPage = buildIndex(m.layout, m.src)
	m.stale = false
}

func (m *Mapper) scale() float64 {
	if m.layout == nil {
		return 1
	}
	return m.layout.Scale()
}

// OffsetToVisual 将文档偏移解析为页面坐标。
// 越界偏移收敛到最近的有效边界；仅空文档返回 nil。
func (m *Mapper) OffsetToVisual(off int) *Visual {
	m.ensureIndex()
	if len(m.spans) == 0 {
		return nil
	}
	if off < m.spans[0].start {
		off = m.spans[0].start
	}
	if last := m.spans[len(m.spans)-1]; off > last.end {
		off = last.end
	}
	sp := findSpan(m.spans, off)
	s := m.scale()

	if !sp.text {
		return &Visual{
			Page:   sp.page,
			X:      sp.frag.X * s,
			Y:      sp.frag.Y * s,
			Height: sp.frag.Height * s,
		}
	}

	rel := off - sp.rng.Start
	l := m.lineOf(sp, rel)
	base := sp.lines[sp.frag.FromLine].YOffset
	line := sp.lines[l]
	x := sp.frag.X + m.indent(sp, l) + m.advanceX(sp, l, rel-sp.starts[l])
	return &Visual{
		Page:   sp.page,
		X:      x * s,
		Y:      (sp.frag.Y + line.YOffset - base) * s,
		Height: line.Height * s,
	}
}

// lineOf 在片段的行区间内定位承载块内偏移 rel 的行。
func (m *Mapper) lineOf(sp *span, rel int) int {
	for l := sp.frag.FromLine; l < sp.frag.ToLine; l++ {
		if rel < sp.starts[l+1] {
			return l
		}
	}
	// rel 等于片段末偏移（块尾光标位），归入最后一行
	return sp.frag.ToLine - 1
}

func (m *Mapper) indent(sp *span, line int) float64 {
	if line != 0 {
		return 0
	}
	if b := m.src.Block(sp.frag.BlockID); b != nil {
		return b.Format.FirstLineIndent
	}
	return 0
}

// advanceX 求行内第 c 个字符边界的横向位移。
// 优先使用渲染边界提供的精确位移表，否则按行宽等比估算。
func (m *Mapper) advanceX(sp *span, line, c int) float64 {
	chars := sp.starts[line+1] - sp.starts[line]
	if c < 0 {
		c = 0
	}
	if c > chars {
		c = chars
	}
	if adv := m.src.LineAdvances(sp.frag.BlockID, line); len(adv) == chars+1 {
		return adv[c]
	}
	if chars == 0 {
		return 0
	}
	return sp.lines[line].Width * float64(c) / float64(chars)
}

// VisualToOffset 将页面坐标解析为文档偏移。
// 页号与坐标越界时收敛到最近的有效位置；空文档返回 ok=false。
func (m *Mapper) VisualToOffset(page int, x, y float64) (int, bool) {
	m.ensureIndex()
	if len(m.spans) == 0 {
		return 0, false
	}
	if page < 0 {
		page = 0
	}
	if page >= len(m.perPage) {
		page = len(m.perPage) - 1
	}
	idx := m.perPage[page]
	for idx == nil && page > 0 {
		page--
		idx = m.perPage[page]
	}
	if len(idx) == 0 {
		return 0, false
	}
	s := m.scale()
	x /= s
	y /= s

	sp := m.spanAtY(idx, y)
	if !sp.text {
		// 非文本块：上半归块首，下半归块尾
		if y < sp.frag.Y+sp.frag.Height/2 {
			return sp.rng.Start, true
		}
		return sp.rng.End, true
	}

	l := m.lineAtY(sp, y)
	chars := sp.starts[l+1] - sp.starts[l]
	relx := x - sp.frag.X - m.indent(sp, l)
	c := m.charAtX(sp, l, chars, relx)
	off := sp.rng.Start + sp.starts[l] + c
	if off > sp.end {
		off = sp.end
	}
	return off, true
}

// spanAtY 选出纵向带包含 y 的片段；y 落在片段间隙时按中点就近吸附。
func (m *Mapper) spanAtY(idx []int, y float64) *span {
	prev := m.spans[idx[0]]
	if y < prev.frag.Y {
		return prev
	}
	for _, i := range idx {
		sp := m.spans[i]
		if y < sp.frag.Y {
			mid := (prev.frag.Y + prev.frag.Height + sp.frag.Y) / 2
			if y < mid {
				return prev
			}
			return sp
		}
		if y <= sp.frag.Y+sp.frag.Height {
			return sp
		}
		prev = sp
	}
	return prev
}

// lineAtY 在片段内按纵坐标定位行，越界收敛到首/末行。
func (m *Mapper) lineAtY(sp *span, y float64) int {
	base := sp.lines[sp.frag.FromLine].YOffset
	yrel := y - sp.frag.Y
	for l := sp.frag.FromLine; l < sp.frag.ToLine; l++ {
		line := sp.lines[l]
		if yrel < line.YOffset-base+line.Height {
			return l
		}
	}
	return sp.frag.ToLine - 1
}

// charAtX 在行内按横坐标定位最近的字符边界。
func (m *Mapper) charAtX(sp *span, line, chars int, relx float64) int {
	if chars == 0 || relx <= 0 {
		return 0
	}
	if adv := m.src.LineAdvances(sp.frag.BlockID, line); len(adv) == chars+1 {
		best, bestDist := 0, relx
		for c := 1; c <= chars; c++ {
			d := adv[c] - relx
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		return best
	}
	w := sp.lines[line].Width
	if w <= 0 {
		return 0
	}
	c := int(relx/w*float64(chars) + 0.5)
	if c > chars {
		c = chars
	}
	return c
}
