// Package measure 定义测量服务契约：给定块与内容宽度，产出逐行度量。
// 分页引擎只消费这里的纯数据，不关心几何从何而来。
package measure

import "github.com/ByLCY/vellum/flow"

// Segment 记录一行上来自某个 Run 的字符区间。偏移为 run 内 rune 偏移。
// 不变式：一个块所有行的 Segment 恰好按序划分其 Run 文本一次，无缺口无重叠。
type Segment struct {
	RunIndex    int    `json:"runIndex"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	Text        string `json:"text"`
}

// Chars 返回该段占用的字符数。
func (s Segment) Chars() int { return s.EndOffset - s.StartOffset }

// LineMeasure 描述一行的几何度量。YOffset 为行顶相对块顶的累计偏移，
// 含行间距；单位均为 mm。
type LineMeasure struct {
	Height   float64   `json:"height"`
	Width    float64   `json:"width"`
	Ascent   float64   `json:"ascent"`
	Descent  float64   `json:"descent"`
	YOffset  float64   `json:"yOffset"`
	Segments []Segment `json:"segments"`
}

// Chars 返回该行的字符总数。
func (lm LineMeasure) Chars() int {
	total := 0
	for _, s := range lm.Segments {
		total += s.Chars()
	}
	return total
}

// Service 是测量服务的抽象契约。对相同 (内容, 宽度, 字体度量) 输入
// 必须返回确定性的结果；调用方按块 ID 缓存。
// 空块也必须产出恰好一行近零宽度的行，保证空块可见、可选中。
type Service interface {
	Measure(b *flow.Block, contentWidth float64) ([]LineMeasure, error)
}

// AdvanceProvider 是可选扩展：返回某一行内逐字符的精确累计横向位移
// （长度 = 行字符数 + 1，首元素 0，末元素为行宽）。
// 渲染边界能提供精确几何时坐标映射优先使用；否则退回按比例估算。
type AdvanceProvider interface {
	LineAdvances(b *flow.Block, contentWidth float64, line int) []float64
}

// Sweeper 是可选扩展：自持按块 ID 状态（测量备忘等）的服务实现它。
// 块 ID 每次重转换整体更新，布局控制器在重转换后以存活 ID 集合
// 调用 Sweep，回收过期条目。
type Sweeper interface {
	Sweep(live map[string]struct{})
}

// TotalHeight 返回整块的测量高度（最后一行的 YOffset + Height）。
func TotalHeight(lines []LineMeasure) float64 {
	if len(lines) == 0 {
		return 0
	}
	last := lines[len(lines)-1]
	return last.YOffset + last.Height
}
