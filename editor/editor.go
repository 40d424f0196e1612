// Package editor 是单线程布局控制器：以消息队列为唯一入口，
// 独占持有内容模型、测量缓存、分页结果、偏移索引与选区状态。
// 所有操作在一次 Step 内同步完成；新一轮布局整体取代旧结果，
// 调用方永远看不到部分更新。
package editor

import (
	"github.com/ByLCY/vellum/doc"
	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/paginate"
	"github.com/ByLCY/vellum/position"
	"github.com/ByLCY/vellum/selection"
)

// 拖拽自动滚动：指针进入视口上下边缘区后每帧滚动一步，
// 离开边缘区或拖拽结束即停止。
const (
	scrollEdgeZone = 8.0 // mm
	scrollStep     = 4.0 // mm / 帧
)

// Editor 拥有全部布局状态。字段只在消息处理中变更。
type Editor struct {
	cfg   paginate.Config
	svc   measure.Service
	cache *measure.Cache
	conv  *flow.Converter

	tree   *doc.Tree
	blocks []*flow.Block
	byID   map[string]*flow.Block // id → 块（含表格单元格内的嵌套块）
	index  flow.OffsetIndex

	layout *paginate.DocumentLayout
	mapper *position.Mapper
	sel    *selection.Controller

	queue []Msg

	viewTop  float64 // 视口在文档坐标系中的滚动位置
	viewH    float64
	dragging bool
	ptrX     float64
	ptrY     float64
}

// New 构造编辑器。svc 为测量服务；cfg 给出页面几何。
func New(svc measure.Service, cfg paginate.Config) *Editor {
	e := &Editor{
		cfg:   cfg,
		svc:   svc,
		cache: measure.NewCache(svc),
		conv:  flow.NewConverter(),
		byID:  map[string]*flow.Block{},
		index: flow.OffsetIndex{},
		viewH: 200,
	}
	e.mapper = position.NewMapper(e)
	e.sel = selection.NewController(e.mapper)
	return e
}

// Post 投递一条消息，处理推迟到下一次 Step。
func (e *Editor) Post(m Msg) { e.queue = append(e.queue, m) }

// Step 是每帧入口：处理累积消息、执行拖拽自动滚动、收口选区重算。
func (e *Editor) Step() {
	msgs := e.queue
	e.queue = nil
	for _, m := range msgs {
		e.handle(m)
	}
	e.autoScroll()
	e.sel.Frame()
}

// Drain 反复 Step 直到队列清空（自动滚动可能续投消息）。
func (e *Editor) Drain() {
	e.Step()
	for len(e.queue) > 0 {
		e.Step()
	}
}

func (e *Editor) handle(m Msg) {
	switch msg := m.(type) {
	case ReplaceDocument:
		e.tree = msg.Tree
		e.reflow(true)
	case SetConfig:
		e.cfg = msg.Config
		e.reflow(false)
	case SetSelection:
		e.sel.Set(msg.Anchor, msg.Head)
	case PointerDown:
		e.ptrX, e.ptrY = msg.X, msg.Y
		if off, ok := e.offsetAtPointer(); ok {
			e.sel.SetImmediate(off, off)
			e.dragging = true
		}
	case PointerMove:
		e.ptrX, e.ptrY = msg.X, msg.Y
		if e.dragging {
			if off, ok := e.offsetAtPointer(); ok {
				e.sel.SetImmediate(e.sel.Anchor(), off)
			}
		}
	case PointerUp:
		e.dragging = false
	case Scroll:
		e.scrollBy(msg.DeltaY)
	}
}

// reflow 重建布局。reconvert 为真时先从外部树重转换内容模型
// （块 ID 整体更新，测量缓存随 ID 回收）。
func (e *Editor) reflow(reconvert bool) {
	if reconvert {
		e.blocks, e.index = e.conv.Convert(e.tree)
		e.byID = map[string]*flow.Block{}
		registerBlocks(e.byID, e.blocks)
		live := make(map[string]struct{}, len(e.index))
		for id := range e.index {
			live[id] = struct{}{}
		}
		e.cache.Sweep(live)
		if sw, ok := e.svc.(measure.Sweeper); ok {
			sw.Sweep(live)
		}
	}

	width := e.cfg.Page.ContentWidth()
	measures := make(map[string][]measure.LineMeasure, len(e.blocks))
	for _, b := range e.blocks {
		measures[b.ID] = e.cache.Lines(b, width)
	}
	e.layout = paginate.ComputeLayout(e.blocks, measures, e.cfg)
	e.mapper.SetLayout(e.layout)
	e.sel.BumpLayout()
}

func registerBlocks(byID map[string]*flow.Block, blocks []*flow.Block) {
	for _, b := range blocks {
		byID[b.ID] = b
		for _, row := range b.Rows {
			for _, cell := range row.Cells {
				registerBlocks(byID, cell)
			}
		}
	}
}

// autoScroll 拖拽中按指针与视口边缘的关系逐帧滚动并重采样选区。
func (e *Editor) autoScroll() {
	if !e.dragging || e.layout == nil {
		return
	}
	switch {
	case e.ptrY < scrollEdgeZone:
		e.scrollBy(-scrollStep)
	case e.ptrY > e.viewH-scrollEdgeZone:
		e.scrollBy(scrollStep)
	default:
		return
	}
	if off, ok := e.offsetAtPointer(); ok {
		e.sel.SetImmediate(e.sel.Anchor(), off)
	}
}

func (e *Editor) scrollBy(dy float64) {
	e.viewTop += dy
	if e.layout != nil {
		if max := e.layout.TotalHeight - e.viewH; e.viewTop > max {
			e.viewTop = max
		}
	}
	if e.viewTop < 0 {
		e.viewTop = 0
	}
}

// offsetAtPointer 把视口坐标换算为页号与页内坐标再反解偏移。
func (e *Editor) offsetAtPointer() (int, bool) {
	if e.layout == nil || len(e.layout.Pages) == 0 {
		return 0, false
	}
	docY := e.viewTop + e.ptrY
	span := (e.cfg.Page.Height + e.cfg.PageGap) * e.layout.Scale()
	page := int(docY / span)
	if page < 0 {
		page = 0
	}
	if page >= len(e.layout.Pages) {
		page = len(e.layout.Pages) - 1
	}
	localY := docY - float64(page)*span
	return e.mapper.VisualToOffset(page, e.ptrX, localY)
}

// SetViewport 设置视口高度（文档坐标，含倍率）。
func (e *Editor) SetViewport(height float64) { e.viewH = height }

// ScrollTop 返回当前滚动位置。
func (e *Editor) ScrollTop() float64 { return e.viewTop }

// Layout 返回当前分页结果；尚未排版时为 nil。
func (e *Editor) Layout() *paginate.DocumentLayout { return e.layout }

// Selection 返回选区控制器。
func (e *Editor) Selection() *selection.Controller { return e.sel }

// Mapper 返回偏移坐标映射器。
func (e *Editor) Mapper() *position.Mapper { return e.mapper }

// Blocks 返回文档顺序的顶层内容块。
func (e *Editor) Blocks() []*flow.Block { return e.blocks }

// Block 实现 position.Source。
func (e *Editor) Block(id string) *flow.Block { return e.byID[id] }

// Range 实现 position.Source。
func (e *Editor) Range(id string) (flow.Range, bool) {
	rg, ok := e.index[id]
	return rg, ok
}

// Lines 实现 position.Source：经测量缓存取逐行度量。
func (e *Editor) Lines(id string) []measure.LineMeasure {
	b := e.byID[id]
	if b == nil {
		return nil
	}
	return e.cache.Lines(b, e.cfg.Page.ContentWidth())
}

// LineAdvances 实现 position.Source：测量服务支持精确位移时透传，
// 否则返回 nil 让映射退回比例估算。
func (e *Editor) LineAdvances(id string, line int) []float64 {
	ap, ok := e.svc.(measure.AdvanceProvider)
	if !ok {
		return nil
	}
	b := e.byID[id]
	if b == nil {
		return nil
	}
	return ap.LineAdvances(b, e.cfg.Page.ContentWidth(), line)
}
