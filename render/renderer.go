// Package render 定义绘制协作方的契约。布局核心不产出像素；
// 画家拿到分页结果后，凭片段携带的 blockId 与行区间回取内容模型
// 中的精确 Run 文本。
package render

import (
	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/paginate"
	"github.com/ByLCY/vellum/position"
)

// Source 供画家按块 ID 回取内容与测量。布局控制器实现该接口。
type Source interface {
	Block(id string) *flow.Block
	Lines(id string) []measure.LineMeasure
}

// Overlay 是叠加在内容之上的可视状态（选区矩形与光标）。
type Overlay struct {
	Selection []position.Rect
	Caret     *position.Visual
}

// Painter 将分页结果绘制为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Painter interface {
	Render(dl *paginate.DocumentLayout, src Source, ov *Overlay) ([]byte, error)
}
