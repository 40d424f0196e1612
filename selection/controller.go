// Package selection 维护光标与选区的可视状态。
// 同一帧内的多次变更合并为一次重算（最后一次生效）；拖拽等低延迟
// 场景走立即模式，绕过合并并取消挂起的重算。
package selection

import "github.com/ByLCY/vellum/position"

// Mode 标识互斥的两种可视形态。
type Mode int

const (
	ModeCaret Mode = iota // 折叠光标
	ModeRange             // 区间选区
)

// 矩形合并容差：横向相邻像素、纵向对齐（行高倍数）。
// 纵向容差必须小于 1，否则相邻两行会被误并。
const (
	mergePixelTol      = 1.0
	mergeLineHeightTol = 0.5
)

// Controller 持有选区状态并驱动可视几何重算。单线程使用，
// 由外部事件源（输入分发 + 每帧回调）驱动。
type Controller struct {
	mapper *position.Mapper

	anchor, head int
	layoutVer    uint64 // 布局版本，几何变化时递增

	pending     bool   // 有合并待处理的变更
	renderedVer uint64 // 上次重算时的布局版本
	rendered    bool

	mode  Mode
	caret *position.Visual
	rects []position.Rect

	renders int
}

// NewController 构造选区控制器。
func NewController(m *position.Mapper) *Controller {
	return &Controller{mapper: m}
}

// Set 记录新的选区端点，重算推迟到本帧结束。
// 同帧多次调用只保留最后一组端点。
func (c *Controller) Set(anchor, head int) {
	c.anchor, c.head = anchor, head
	c.pending = true
}

// SetImmediate 立即按新端点重算，绕过合并并取消挂起的重算。
// 拖拽选区等需要最低延迟的交互使用。
func (c *Controller) SetImmediate(anchor, head int) {
	c.anchor, c.head = anchor, head
	c.pending = false
	c.recompute()
}

// BumpLayout 通知底层几何已变化。即使偏移未动，下一帧也会强制重算
// （例如仅格式变更而光标未移动的场景）。
func (c *Controller) BumpLayout() {
	c.layoutVer++
}

// LayoutVersion 返回当前布局版本号。
func (c *Controller) LayoutVersion() uint64 { return c.layoutVer }

// Frame 是每帧回调入口：有挂起变更或布局版本落后时执行一次重算。
func (c *Controller) Frame() {
	if !c.pending && c.rendered && c.renderedVer == c.layoutVer {
		return
	}
	c.pending = false
	c.recompute()
}

func (c *Controller) recompute() {
	c.renders++
	c.rendered = true
	c.renderedVer = c.layoutVer

	start, end := c.anchor, c.head
	if start > end {
		start, end = end, start
	}
	if start == end {
		c.mode = ModeCaret
		c.rects = nil
		c.caret = c.mapper.OffsetToVisual(start)
		return
	}
	c.mode = ModeRange
	c.caret = c.mapper.OffsetToVisual(c.head)
	c.rects = Merge(c.mapper.RangeRects(start, end), mergePixelTol, mergeLineHeightTol)
}

// Mode 返回当前可视形态。
func (c *Controller) Mode() Mode { return c.mode }

// Anchor 返回选区锚点偏移。
func (c *Controller) Anchor() int { return c.anchor }

// Head 返回选区活动端偏移。
func (c *Controller) Head() int { return c.head }

// Caret 返回光标（或选区活动端）的可视位置；空文档为 nil。
func (c *Controller) Caret() *position.Visual { return c.caret }

// Rects 返回选区矩形（已合并）；光标形态下为空。
func (c *Controller) Rects() []position.Rect { return c.rects }

// RenderCount 返回累计重算次数（测试用）。
func (c *Controller) RenderCount() int { return c.renders }
