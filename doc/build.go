package doc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/unit"
)

// FromDSL 将标记文档的 page 段落转换为编辑模型树。
// data 用于 ${path} 文本插值；转换不分配 ID，ID 属于内容模型层。
func FromDSL(d *dsl.Document, data any) (*Tree, error) {
	if d == nil {
		return nil, fmt.Errorf("文档为空")
	}
	page := d.FirstPage()
	if page == nil {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	if page.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}
	nodes, err := buildNodes(page.Block, data)
	if err != nil {
		return nil, err
	}
	return NewTree(nodes), nil
}

// buildNodes 依次处理 block 内的内容命令。
func buildNodes(block *dsl.Block, data any) ([]*Node, error) {
	var nodes []*Node
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		name := strings.ToLower(cmd.Name)
		switch {
		case name == "p":
			n, err := buildTextNode(NodeParagraph, 0, cmd, data)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
			n, err := buildTextNode(NodeHeading, int(name[1]-'0'), cmd, data)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case name == "li":
			n, err := buildListItem(cmd, data)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case name == "table":
			n, err := buildTable(cmd, data)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case name == "image":
			n, err := buildImage(cmd)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case name == "rule":
			nodes = append(nodes, &Node{Kind: NodeRule})
		case name == "pagebreak":
			nodes = append(nodes, &Node{Kind: NodePageBreak})
		default:
			// 未识别的命令忽略，保持前向兼容
		}
	}
	return nodes, nil
}

// buildTextNode 构造段落/标题节点：文本字面量与行内命令按出现顺序成为 Inline。
func buildTextNode(kind Kind, level int, cmd *dsl.Command, data any) (*Node, error) {
	n := &Node{Kind: kind, Level: level}
	if cmd.Block == nil {
		return n, nil
	}
	if err := fillInlineContent(n, cmd.Block, data); err != nil {
		return nil, err
	}
	return n, nil
}

func buildListItem(cmd *dsl.Command, data any) (*Node, error) {
	n := &Node{Kind: NodeListItem, Level: 1}
	for i := 0; i < len(cmd.Args); i++ {
		switch strings.ToLower(cmd.Args[i].Value) {
		case "ordered":
			n.Ordered = true
			if i+1 < len(cmd.Args) {
				if v, err := strconv.Atoi(cmd.Args[i+1].Value); err == nil {
					n.Ordinal = v
					i++
				}
			}
		case "bullet":
			n.Ordered = false
		}
	}
	if cmd.Block == nil {
		return n, nil
	}
	if err := fillInlineContent(n, cmd.Block, data); err != nil {
		return nil, err
	}
	return n, nil
}

// fillInlineContent 解析块内语句：赋值设定块属性，其余按顺序生成行内单元。
func fillInlineContent(n *Node, block *dsl.Block, data any) error {
	fmtState := inlineFormat{}
	for _, stmt := range block.Statements {
		switch {
		case stmt.Assignment != nil:
			applyProperty(n, &fmtState, stmt.Assignment)
		case stmt.Text != nil:
			text := dsl.Interpolate(string(stmt.Text.Value), data)
			n.Inlines = append(n.Inlines, fmtState.inline(InlineText, text, ""))
		case stmt.Command != nil:
			in, err := buildInline(stmt.Command, fmtState, data)
			if err != nil {
				return err
			}
			if in != nil {
				n.Inlines = append(n.Inlines, *in)
			}
		}
	}
	return nil
}

// buildInline 处理行内命令：link、br、img。
func buildInline(cmd *dsl.Command, fmtState inlineFormat, data any) (*Inline, error) {
	switch strings.ToLower(cmd.Name) {
	case "link":
		if len(cmd.Args) < 2 {
			return nil, fmt.Errorf("link 需要文本与目标两个参数")
		}
		label := dsl.Interpolate(cmd.Args[0].Value, data)
		in := fmtState.inline(InlineLink, label, cmd.Args[1].Value)
		return &in, nil
	case "br":
		in := fmtState.inline(InlineBreak, "", "")
		return &in, nil
	case "img":
		attrs := argPairs(cmd.Args)
		src := attrs["src"]
		if src == "" {
			return nil, fmt.Errorf("行内 img 缺少 src")
		}
		in := fmtState.inline(InlineImage, "", "")
		in.Src = src
		in.Width = unit.ParseMM(attrs["width"])
		in.Height = unit.ParseMM(attrs["height"])
		return &in, nil
	default:
		return nil, nil
	}
}

func buildTable(cmd *dsl.Command, data any) (*Node, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("table 语句缺少内容")
	}
	table := &Node{Kind: NodeTable}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command == nil || strings.ToLower(stmt.Command.Name) != "row" {
			continue
		}
		row := &Node{Kind: NodeRow}
		if stmt.Command.Block != nil {
			for _, cs := range stmt.Command.Block.Statements {
				if cs.Command == nil || strings.ToLower(cs.Command.Name) != "cell" {
					continue
				}
				cell := &Node{Kind: NodeCell}
				if cs.Command.Block != nil {
					blocks, err := buildCellContent(cs.Command.Block, data)
					if err != nil {
						return nil, err
					}
					cell.Children = blocks
				}
				row.Children = append(row.Children, cell)
			}
		}
		if len(row.Children) == 0 {
			return nil, fmt.Errorf("row 中至少需要一个 cell")
		}
		table.Children = append(table.Children, row)
	}
	if len(table.Children) == 0 {
		return nil, fmt.Errorf("table 需要至少一行")
	}
	return table, nil
}

// buildCellContent 允许单元格直接书写文本字面量，自动包装为段落。
func buildCellContent(block *dsl.Block, data any) ([]*Node, error) {
	hasCommand := false
	for _, stmt := range block.Statements {
		if stmt.Command != nil {
			hasCommand = true
			break
		}
	}
	if hasCommand {
		return buildNodes(block, data)
	}
	p := &Node{Kind: NodeParagraph}
	if err := fillInlineContent(p, block, data); err != nil {
		return nil, err
	}
	return []*Node{p}, nil
}

func buildImage(cmd *dsl.Command) (*Node, error) {
	attrs := argPairs(cmd.Args)
	src := attrs["src"]
	if src == "" && len(cmd.Args) > 0 {
		src = cmd.Args[0].Value
	}
	if src == "" {
		return nil, fmt.Errorf("image 语句缺少 src")
	}
	n := &Node{
		Kind:   NodeImage,
		Src:    src,
		Width:  unit.ParseMM(attrs["width"]),
		Height: unit.ParseMM(attrs["height"]),
	}
	return n, nil
}

// inlineFormat 记录当前生效的行内格式，随赋值语句更新。
type inlineFormat struct {
	font   string
	size   float64
	bold   bool
	italic bool
}

func (f inlineFormat) inline(kind InlineKind, text, href string) Inline {
	return Inline{
		Kind:   kind,
		Text:   text,
		Href:   href,
		Font:   f.font,
		Size:   f.size,
		Bold:   f.bold,
		Italic: f.italic,
	}
}

// applyProperty 将赋值语句应用到块属性或行内格式。
func applyProperty(n *Node, f *inlineFormat, a *dsl.Assignment) {
	val := a.Value.Text()
	switch strings.ToLower(a.Key) {
	case "font":
		f.font = val
	case "size":
		f.size = unit.ParseMM(val)
	case "bold":
		f.bold = val == "true"
	case "italic":
		f.italic = val == "true"
	case "indent":
		n.Indent = unit.ParseMM(val)
	case "space-before":
		n.SpaceBefore = unit.ParseMM(val)
	case "space-after":
		n.SpaceAfter = unit.ParseMM(val)
	case "line-height":
		if factor, ok := unit.ParseFactor(val); ok {
			n.LineHeight = factor
		}
	case "level":
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			n.Level = v
		}
	}
}

// argPairs 将命令参数按 key value 成对解析。
func argPairs(args []*dsl.Lexeme) map[string]string {
	out := map[string]string{}
	for i := 0; i+1 < len(args); i += 2 {
		out[args[i].Value] = args[i+1].Value
	}
	return out
}
