// Package doc 实现编辑模型协作方的最小契约：一棵带线性偏移空间的块树。
// 每个节点占用 [Start, Start+Size)，容器节点的子节点共享同一偏移空间。
// 编辑以整树替换表达；替换后所有派生关联（测量缓存、偏移索引）都必须重建。
package doc

import "unicode/utf8"

// Kind 标识节点类型。
type Kind int

const (
	NodeParagraph Kind = iota
	NodeHeading
	NodeListItem
	NodeTable
	NodeRow
	NodeCell
	NodeImage
	NodeRule
	NodePageBreak
)

// InlineKind 标识行内内容类型。
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineLink
	InlineImage
	InlineBreak
)

// Inline 是节点内的行内内容单元。
type Inline struct {
	Kind   InlineKind
	Text   string
	Href   string
	Src    string
	Width  float64
	Height float64
	Font   string
	Size   float64 // mm
	Bold   bool
	Italic bool
}

// ContentSize 返回行内单元占用的字符数（rune 计）。
func (in Inline) ContentSize() int {
	switch in.Kind {
	case InlineText, InlineLink:
		return utf8.RuneCountInString(in.Text)
	case InlineImage, InlineBreak:
		return 1
	default:
		return 0
	}
}

// Node 是外部模型中的一个块级节点。
// 叶子节点携带 Inlines；表格通过 Children（行→单元格→块）嵌套。
type Node struct {
	Kind     Kind
	Level    int  // 标题层级或列表嵌套深度
	Ordered  bool // 列表项是否有序
	Ordinal  int
	Inlines  []Inline
	Children []*Node
	Src      string
	Width    float64
	Height   float64

	// 块级排版属性（mm；LineHeight 为因子）
	SpaceBefore float64
	SpaceAfter  float64
	Indent      float64
	LineHeight  float64

	start int
	size  int
}

// Start 返回节点在线性偏移空间中的起点。
func (n *Node) Start() int { return n.start }

// Size 返回节点占用的偏移长度（含 1 个节点边界位）。
func (n *Node) Size() int { return n.size }

// End 返回节点区间的终点（不含）。
func (n *Node) End() int { return n.start + n.size }

// ContentSize 返回节点自身行内内容的字符数（不含边界位与子节点）。
func (n *Node) ContentSize() int {
	total := 0
	for _, in := range n.Inlines {
		total += in.ContentSize()
	}
	return total
}

// Tree 是一次编辑产出的完整文档树。
type Tree struct {
	Nodes []*Node
	size  int
}

// NewTree 构造文档树并为所有节点分配偏移。
func NewTree(nodes []*Node) *Tree {
	t := &Tree{Nodes: nodes}
	off := 0
	for _, n := range nodes {
		off = assignOffsets(n, off)
	}
	t.size = off
	return t
}

// assignOffsets 自 off 起为 n 及其子树分配偏移，返回下一个可用偏移。
// 节点大小 = 行内内容 + 子节点之和 + 1（节点边界位）。
func assignOffsets(n *Node, off int) int {
	n.start = off
	cur := off + n.ContentSize()
	for _, c := range n.Children {
		cur = assignOffsets(c, cur)
	}
	cur++ // 边界位
	n.size = cur - off
	return cur
}

// Size 返回整棵树占用的偏移长度。
func (t *Tree) Size() int { return t.size }

// Walk 依文档顺序遍历全部节点（先父后子）。
func (t *Tree) Walk(fn func(*Node)) {
	var rec func(*Node)
	rec = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			rec(c)
		}
	}
	for _, n := range t.Nodes {
		rec(n)
	}
}
