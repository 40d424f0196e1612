package flow

// 该文件定义内容模型：块（Block）与行内单元（Run）。
// 内容模型由外部编辑模型转换而来，供测量、分页与坐标映射共用。
// 约定：所有偏移量均按 rune 计数；Run 一经创建不可修改，编辑以整块替换表达。

import (
	"strings"
	"unicode/utf8"
)

// BlockKind 标识块级内容的类型。
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindListItem
	KindTable
	KindImage
	KindRule
	KindPageBreak
)

// String 返回块类型的可读名称（用于调试 JSON 与日志）。
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list-item"
	case KindTable:
		return "table"
	case KindImage:
		return "image"
	case KindRule:
		return "rule"
	case KindPageBreak:
		return "page-break"
	default:
		return "unknown"
	}
}

// Splittable 报告该类块是否允许在行边界跨页拆分。
// 图片、分隔线与表格整体放置；段落、标题与列表项按行拆分。
func (k BlockKind) Splittable() bool {
	switch k {
	case KindParagraph, KindHeading, KindListItem:
		return true
	default:
		return false
	}
}

// RunKind 标识行内单元的类型。
type RunKind int

const (
	RunText RunKind = iota
	RunLink
	RunImage
	RunBreak
)

// TextFormat 描述行内文本的字体属性。Size 单位为 mm。
// Font 为空表示使用内置字体；否则为字体文件路径。
type TextFormat struct {
	Font   string  `json:"font,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// Run 是最小的行内内容单元。Text/Link 携带文本；
// 行内图片与强制换行各占用 1 个字符的偏移空间。
type Run struct {
	Kind   RunKind    `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Href   string     `json:"href,omitempty"`
	Src    string     `json:"src,omitempty"`
	Width  float64    `json:"width,omitempty"`
	Height float64    `json:"height,omitempty"`
	Format TextFormat `json:"format"`
}

// Size 返回该 Run 在线性偏移空间中占用的字符数。
func (r Run) Size() int {
	switch r.Kind {
	case RunText, RunLink:
		return utf8.RuneCountInString(r.Text)
	case RunImage, RunBreak:
		return 1
	default:
		return 0
	}
}

// ListType 区分无序与有序列表。
type ListType int

const (
	ListBullet ListType = iota
	ListOrdered
)

// BlockFormat 描述块级排版属性，长度单位均为 mm。
// SpaceBefore/SpaceAfter 仅作用于块的真实首/末片段，跨页内部断点不追加。
type BlockFormat struct {
	SpaceBefore     float64 `json:"spaceBefore,omitempty"`
	SpaceAfter      float64 `json:"spaceAfter,omitempty"`
	FirstLineIndent float64 `json:"firstLineIndent,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"` // 行距因子，0 表示默认 1.4
}

// TableRow 是表格中的一行，单元格内容为嵌套块。
type TableRow struct {
	Cells [][]*Block `json:"cells"`
}

// Block 是块级内容单元。ID 仅在一次布局趟内稳定：
// 每次由外部模型重新转换都会生成新 ID，id→偏移 的关联必须随之重建。
type Block struct {
	ID      string      `json:"id"`
	Kind    BlockKind   `json:"kind"`
	Level   int         `json:"level,omitempty"`   // 标题层级 1–6，或列表嵌套深度
	List    ListType    `json:"list,omitempty"`    // 仅列表项有效
	Ordinal int         `json:"ordinal,omitempty"` // 有序列表序号
	Runs    []Run       `json:"runs,omitempty"`
	Rows    []TableRow  `json:"rows,omitempty"` // 仅表格有效
	Src     string      `json:"src,omitempty"`  // 仅图片块有效
	Width   float64     `json:"width,omitempty"`
	Height  float64     `json:"height,omitempty"`
	Format  BlockFormat `json:"format"`
}

// ContentSize 返回块内容在线性偏移空间中占用的字符数。
// 表格为所有单元格块的内容之和；图片/分隔线/分页符不占内容空间。
func (b *Block) ContentSize() int {
	switch b.Kind {
	case KindTable:
		total := 0
		for _, row := range b.Rows {
			for _, cell := range row.Cells {
				for _, cb := range cell {
					total += cb.ContentSize()
				}
			}
		}
		return total
	default:
		total := 0
		for _, r := range b.Runs {
			total += r.Size()
		}
		return total
	}
}

// Text 拼接块内全部 Run 的文本，行内对象以占位符表示。
func (b *Block) Text() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		switch r.Kind {
		case RunText, RunLink:
			sb.WriteString(r.Text)
		case RunBreak:
			sb.WriteByte('\n')
		case RunImage:
			sb.WriteRune('￼') // object replacement character
		}
	}
	return sb.String()
}

// RunStarts 返回每个 Run 起点的块内字符偏移，末尾附带总长。
// 测量段（Segment）中的 run 内偏移借此换算为块内偏移。
func (b *Block) RunStarts() []int {
	starts := make([]int, len(b.Runs)+1)
	for i, r := range b.Runs {
		starts[i+1] = starts[i] + r.Size()
	}
	return starts
}

// Range 表示外部模型线性偏移空间中的 [Start, End) 区间。
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains 报告 off 是否落在区间内（含 End，光标可停在块尾）。
func (rg Range) Contains(off int) bool { return off >= rg.Start && off <= rg.End }

// Len 返回区间长度。
func (rg Range) Len() int { return rg.End - rg.Start }

// OffsetIndex 记录 blockId → 线性偏移区间，随每次布局趟重建。
type OffsetIndex map[string]Range
