package flow

import (
	"fmt"

	"github.com/ByLCY/vellum/doc"
	"github.com/ByLCY/vellum/unit"
)

// 默认排版常量（mm）。标题字号按层级递减，正文 12pt。
const (
	defaultBodySize   = 12 * unit.PtToMm
	defaultRuleHeight = 1.0
	defaultListIndent = 6.0
	blockGap          = 3.0
)

var headingSizes = [7]float64{0, 24, 20, 17, 14.5, 13, 12} // pt，按层级 1–6

// Converter 将编辑模型树转换为内容模型块并建立偏移索引。
// 每次 Convert 生成全新 ID（pass 计数参与编号），旧关联随之失效。
type Converter struct {
	pass int
	seq  int
}

// NewConverter 构造转换器。
func NewConverter() *Converter { return &Converter{} }

// Convert 产出文档顺序的顶层块与 blockId → 偏移区间索引。
// 表格单元格内的嵌套块同样登记在索引中（共享同一线性偏移空间）。
func (c *Converter) Convert(tree *doc.Tree) ([]*Block, OffsetIndex) {
	c.pass++
	c.seq = 0
	index := OffsetIndex{}
	if tree == nil {
		return nil, index
	}
	blocks := make([]*Block, 0, len(tree.Nodes))
	for _, n := range tree.Nodes {
		if b := c.convertNode(n, index); b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks, index
}

func (c *Converter) nextID() string {
	c.seq++
	return fmt.Sprintf("b%d.%d", c.pass, c.seq)
}

func (c *Converter) convertNode(n *doc.Node, index OffsetIndex) *Block {
	switch n.Kind {
	case doc.NodeParagraph, doc.NodeHeading, doc.NodeListItem:
		return c.convertTextNode(n, index)
	case doc.NodeTable:
		return c.convertTable(n, index)
	case doc.NodeImage:
		b := &Block{
			ID:     c.nextID(),
			Kind:   KindImage,
			Src:    n.Src,
			Width:  n.Width,
			Height: n.Height,
			Format: BlockFormat{SpaceBefore: blockGap, SpaceAfter: blockGap},
		}
		index[b.ID] = contentRange(n)
		return b
	case doc.NodeRule:
		b := &Block{
			ID:     c.nextID(),
			Kind:   KindRule,
			Height: defaultRuleHeight,
			Format: BlockFormat{SpaceBefore: blockGap, SpaceAfter: blockGap},
		}
		index[b.ID] = contentRange(n)
		return b
	case doc.NodePageBreak:
		b := &Block{ID: c.nextID(), Kind: KindPageBreak}
		index[b.ID] = contentRange(n)
		return b
	default:
		return nil
	}
}

func (c *Converter) convertTextNode(n *doc.Node, index OffsetIndex) *Block {
	b := &Block{
		ID:     c.nextID(),
		Runs:   convertInlines(n),
		Format: textFormat(n),
	}
	switch n.Kind {
	case doc.NodeHeading:
		b.Kind = KindHeading
		b.Level = clampLevel(n.Level)
	case doc.NodeListItem:
		b.Kind = KindListItem
		b.Level = n.Level
		if n.Ordered {
			b.List = ListOrdered
			b.Ordinal = n.Ordinal
		}
		if b.Format.FirstLineIndent == 0 {
			b.Format.FirstLineIndent = defaultListIndent * float64(n.Level)
		}
	default:
		b.Kind = KindParagraph
	}
	if b.Kind == KindHeading {
		size := headingSizes[b.Level] * unit.PtToMm
		for i := range b.Runs {
			if b.Runs[i].Format.Size == 0 {
				b.Runs[i].Format.Size = size
			}
			b.Runs[i].Format.Bold = true
		}
	}
	for i := range b.Runs {
		if b.Runs[i].Format.Size == 0 {
			b.Runs[i].Format.Size = defaultBodySize
		}
	}
	index[b.ID] = contentRange(n)
	return b
}

func (c *Converter) convertTable(n *doc.Node, index OffsetIndex) *Block {
	b := &Block{
		ID:     c.nextID(),
		Kind:   KindTable,
		Format: BlockFormat{SpaceBefore: blockGap, SpaceAfter: blockGap},
	}
	for _, rowNode := range n.Children {
		if rowNode.Kind != doc.NodeRow {
			continue
		}
		row := TableRow{}
		for _, cellNode := range rowNode.Children {
			if cellNode.Kind != doc.NodeCell {
				continue
			}
			var cell []*Block
			for _, child := range cellNode.Children {
				if cb := c.convertNode(child, index); cb != nil {
					cell = append(cell, cb)
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		b.Rows = append(b.Rows, row)
	}
	index[b.ID] = contentRange(n)
	return b
}

// contentRange 求节点内容的偏移区间：去掉节点自身的 1 个边界位。
func contentRange(n *doc.Node) Range {
	return Range{Start: n.Start(), End: n.End() - 1}
}

func convertInlines(n *doc.Node) []Run {
	runs := make([]Run, 0, len(n.Inlines))
	for _, in := range n.Inlines {
		r := Run{
			Text:   in.Text,
			Href:   in.Href,
			Src:    in.Src,
			Width:  in.Width,
			Height: in.Height,
			Format: TextFormat{
				Font:   in.Font,
				Size:   in.Size,
				Bold:   in.Bold,
				Italic: in.Italic,
			},
		}
		switch in.Kind {
		case doc.InlineLink:
			r.Kind = RunLink
		case doc.InlineImage:
			r.Kind = RunImage
		case doc.InlineBreak:
			r.Kind = RunBreak
		default:
			r.Kind = RunText
		}
		runs = append(runs, r)
	}
	return runs
}

func textFormat(n *doc.Node) BlockFormat {
	f := BlockFormat{
		SpaceBefore:     n.SpaceBefore,
		SpaceAfter:      n.SpaceAfter,
		FirstLineIndent: n.Indent,
		LineHeight:      n.LineHeight,
	}
	if f.SpaceBefore == 0 {
		f.SpaceBefore = blockGap
	}
	if f.SpaceAfter == 0 {
		f.SpaceAfter = blockGap
	}
	return f
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}
