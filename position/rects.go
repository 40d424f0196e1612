package position

// Rect 是选区在某页上的一个矩形（已含倍率）。
type Rect struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RangeRects 求偏移区间 [start, end) 的可视矩形：每个 页×行 交集一个矩形。
// 选区内部整行取满行宽，仅首/末触及行按字符边界截断。
// 矩形未做相邻合并，由调用方按容差合并。
func (m *Mapper) RangeRects(start, end int) []Rect {
	m.ensureIndex()
	if len(m.spans) == 0 || end <= start {
		return nil
	}
	s := m.scale()
	var rects []Rect
	for i := overlapFrom(m.spans, start); i < len(m.spans); i++ {
		sp := m.spans[i]
		if sp.start >= end {
			break
		}
		if !sp.text {
			rects = append(rects, Rect{
				Page:   sp.page,
				X:      sp.frag.X * s,
				Y:      sp.frag.Y * s,
				Width:  m.blockWidth(sp) * s,
				Height: sp.frag.Height * s,
			})
			continue
		}
		rects = append(rects, m.spanRects(sp, start, end, s)...)
	}
	return rects
}

// spanRects 求选区与单个文本片段的逐行交集矩形。
func (m *Mapper) spanRects(sp *span, start, end int, s float64) []Rect {
	lo := start - sp.rng.Start
	hi := end - sp.rng.Start
	base := sp.lines[sp.frag.FromLine].YOffset
	var rects []Rect
	for l := sp.frag.FromLine; l < sp.frag.ToLine; l++ {
		ls, le := sp.starts[l], sp.starts[l+1]
		a, b := lo, hi
		if a < ls {
			a = ls
		}
		if b > le {
			b = le
		}
		if b < a {
			continue
		}
		if b == a && le > ls {
			continue // 选区未触及该行
		}
		indent := m.indent(sp, l)
		x0 := m.advanceX(sp, l, a-ls)
		x1 := m.advanceX(sp, l, b-ls)
		line := sp.lines[l]
		rects = append(rects, Rect{
			Page:   sp.page,
			X:      (sp.frag.X + indent + x0) * s,
			Y:      (sp.frag.Y + line.YOffset - base) * s,
			Width:  (x1 - x0) * s,
			Height: line.Height * s,
		})
	}
	return rects
}

// blockWidth 求整体块的可视宽度：块自带宽度，否则取页面内容区宽度。
func (m *Mapper) blockWidth(sp *span) float64 {
	if b := m.src.Block(sp.frag.BlockID); b != nil && b.Width > 0 {
		return b.Width
	}
	if m.layout != nil {
		return m.layout.Config.Page.ContentWidth()
	}
	return 0
}
