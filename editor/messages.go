package editor

import (
	"github.com/ByLCY/vellum/doc"
	"github.com/ByLCY/vellum/paginate"
)

// Msg 是投递给编辑器的消息。输入事件源与布局状态之间只经由
// 消息队列交互，不共享可变状态。
type Msg interface{ isMsg() }

// ReplaceDocument 以新的外部模型树整体替换文档内容。
// 触发完整的 重转换 → 重测量 → 重分页 → 索引失效 流程。
type ReplaceDocument struct {
	Tree *doc.Tree
}

// SetConfig 更新页面几何配置并触发重排（内容与块 ID 不变）。
type SetConfig struct {
	Config paginate.Config
}

// SetSelection 设置选区端点。同帧多条只有最后一条生效。
type SetSelection struct {
	Anchor, Head int
}

// PointerDown 在视口坐标处按下指针：定位光标并开始拖拽选区。
type PointerDown struct {
	X, Y float64 // 视口内坐标（已含倍率）
}

// PointerMove 更新指针位置；拖拽中时立即扩展选区。
type PointerMove struct {
	X, Y float64
}

// PointerUp 结束拖拽。
type PointerUp struct{}

// Scroll 调整视口滚动位置。
type Scroll struct {
	DeltaY float64
}

func (ReplaceDocument) isMsg() {}
func (SetConfig) isMsg()       {}
func (SetSelection) isMsg()    {}
func (PointerDown) isMsg()     {}
func (PointerMove) isMsg()     {}
func (PointerUp) isMsg()       {}
func (Scroll) isMsg()          {}
