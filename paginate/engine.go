package paginate

// 分页引擎：对行做单趟贪心装箱。消费内容块与预先算好的测量结果，
// 产出按页组织的片段集合。引擎是数据的纯函数，不触碰测量来源。

import (
	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
)

// 行高比较允许的浮点容差：恰好用尽剩余空间的行留在当前页（贪心含入规则）。
const fitEpsilon = 1e-6

// ComputeLayout 依据页面几何将块序列装入若干页。
// measures 按块 ID 提供逐行度量；缺失条目按一条兜底行处理，分页永不中止。
// 相同输入产出结构一致的页/片段边界（幂等）。
func ComputeLayout(blocks []*flow.Block, measures map[string][]measure.LineMeasure, cfg Config) *DocumentLayout {
	cfg = cfg.normalized()
	e := &engine{
		cfg:    cfg,
		top:    cfg.Page.ContentTop(),
		bottom: cfg.Page.ContentBottom(),
		left:   cfg.Page.Margins.Left,
	}
	e.openPage()

	for _, b := range blocks {
		switch {
		case b.Kind == flow.KindPageBreak:
			e.forceBreak()
		case b.Kind.Splittable():
			e.placeSplittable(b, e.linesFor(b, measures))
		default:
			e.placeWhole(b, e.linesFor(b, measures))
		}
	}
	// 末尾空着的当前页不输出：文档以分页块结尾时不留尾随空页。
	// 空文档仍保底一页。
	if e.hasContent() || len(e.pages) == 0 {
		e.closePage()
	}

	n := len(e.pages)
	total := float64(n) * cfg.Page.Height
	if n > 1 {
		total += float64(n-1) * cfg.PageGap
	}
	return &DocumentLayout{
		Pages:       e.pages,
		TotalHeight: total * cfg.Scale,
		Config:      cfg,
	}
}

type engine struct {
	cfg    Config
	top    float64
	bottom float64
	left   float64

	pages   []Page
	frags   []Fragment
	cursorY float64
}

func (e *engine) openPage() {
	e.frags = nil
	e.cursorY = e.top
}

func (e *engine) closePage() {
	e.pages = append(e.pages, Page{
		Index:         len(e.pages),
		Fragments:     e.frags,
		ContentHeight: e.cursorY - e.top,
	})
	e.frags = nil
	e.cursorY = e.top
}

func (e *engine) breakPage() {
	e.closePage()
	e.openPage()
}

func (e *engine) hasContent() bool { return len(e.frags) > 0 }

// forceBreak 处理显式分页块：无条件关闭当前页。
// 当前页尚为空时说明紧邻的上一个边界已经生效，连续分页塌缩为一个边界。
func (e *engine) forceBreak() {
	if e.hasContent() {
		e.breakPage()
	}
}

// linesFor 取块的测量行；条目缺失时构造一条兜底行。
func (e *engine) linesFor(b *flow.Block, measures map[string][]measure.LineMeasure) []measure.LineMeasure {
	if lines, ok := measures[b.ID]; ok && len(lines) > 0 {
		return lines
	}
	height := b.Height
	if height <= 0 {
		height = 12 * 0.352777 * 1.4
	}
	return []measure.LineMeasure{{Height: height, Ascent: height * 0.8, Descent: height * 0.2}}
}

// placeWhole 放置不可拆分的块（图片、分隔线、表格）。
// 预算不足且当前页已有内容时先关页；块高超过整页内容区时
// 独占一页并允许溢出。
func (e *engine) placeWhole(b *flow.Block, lines []measure.LineMeasure) {
	h := measure.TotalHeight(lines)
	if h <= 0 {
		h = b.Height
	}
	oversized := h > e.bottom-e.top

	if e.cursorY+b.Format.SpaceBefore+h > e.bottom+fitEpsilon && e.hasContent() {
		e.breakPage()
	}
	y := e.cursorY + b.Format.SpaceBefore
	e.frags = append(e.frags, Fragment{
		BlockID:  b.ID,
		FromLine: 0,
		ToLine:   len(lines),
		X:        e.left,
		Y:        y,
		Height:   h,
		First:    true,
		Last:     true,
	})
	e.cursorY = y + h + b.Format.SpaceAfter

	if oversized {
		// 隔离超尺寸块：之后的内容从新页开始
		e.breakPage()
	}
}

// placeSplittable 按行追加段落/标题/列表项，跨页时在行边界断开。
// 孤行控制：断点两侧少于 MinLinesAtBreak 行时回拉断点让最小行组整体移动；
// 块总行数 ≤ 2×阈值时豁免，避免无限推迟。
func (e *engine) placeSplittable(b *flow.Block, lines []measure.LineMeasure) {
	n := len(lines)
	if n == 0 {
		return
	}
	m := e.cfg.MinLinesAtBreak
	waive := n <= 2*m

	i := 0
	for i < n {
		before := 0.0
		if i == 0 {
			before = b.Format.SpaceBefore
		}
		avail := e.bottom - e.cursorY - before
		fit := e.countFit(lines, i, avail)

		if i+fit == n {
			e.emitFragment(b, lines, i, n, before)
			e.cursorY += b.Format.SpaceAfter
			return
		}

		take := fit
		if !waive {
			if rem := n - (i + take); rem < m {
				take -= m - rem // 回拉断点，尾组满足最小行数
			}
			if take < m {
				take = 0 // 首组不足最小行数，整组后移
			}
		}

		if take <= 0 {
			if e.hasContent() {
				e.breakPage()
				continue
			}
			// 空页仍容不下最小行组：退化为自然容量，保证推进
			take = fit
			if take == 0 {
				take = 1
			}
		}

		e.emitFragment(b, lines, i, i+take, before)
		i += take
		e.breakPage()
	}
}

// countFit 统计自第 from 行起在 avail 预算内可容纳的行数（含入规则）。
func (e *engine) countFit(lines []measure.LineMeasure, from int, avail float64) int {
	base := lines[from].YOffset
	fit := 0
	for from+fit < len(lines) {
		l := lines[from+fit]
		if l.YOffset+l.Height-base > avail+fitEpsilon {
			break
		}
		fit++
	}
	return fit
}

// emitFragment 追加块的 [from, to) 行片段。
// 空间属性只作用于真实首/末片段：内部断点不追加 space-before/after。
func (e *engine) emitFragment(b *flow.Block, lines []measure.LineMeasure, from, to int, spaceBefore float64) {
	last := lines[to-1]
	h := last.YOffset + last.Height - lines[from].YOffset
	y := e.cursorY + spaceBefore
	e.frags = append(e.frags, Fragment{
		BlockID:  b.ID,
		FromLine: from,
		ToLine:   to,
		X:        e.left,
		Y:        y,
		Height:   h,
		First:    from == 0,
		Last:     to == len(lines),
	})
	e.cursorY = y + h
}
