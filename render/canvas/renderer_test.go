package canvasrender

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	canvasmeasure "github.com/ByLCY/vellum/measure/canvas"
	"github.com/ByLCY/vellum/paginate"
	"github.com/ByLCY/vellum/position"
	"github.com/ByLCY/vellum/render"
)

type memSource struct {
	blocks map[string]*flow.Block
	lines  map[string][]measure.LineMeasure
}

func (s *memSource) Block(id string) *flow.Block           { return s.blocks[id] }
func (s *memSource) Lines(id string) []measure.LineMeasure { return s.lines[id] }

func renderConfig() paginate.Config {
	return paginate.Config{
		Page: paginate.PageConfig{
			Width:   100,
			Height:  120,
			Margins: paginate.Margins{Top: 10, Right: 10, Bottom: 10, Left: 10},
		},
		Scale: 1, PageGap: 6, MinLinesAtBreak: 2,
	}
}

// TestRenderProducesMultiPagePDF 验证跨页文档（文本 + 分隔线 + 选区叠加）
// 绘制出合法的 PDF 字节流。
func TestRenderProducesMultiPagePDF(t *testing.T) {
	cfg := renderConfig()
	para := &flow.Block{
		ID:   "p1",
		Kind: flow.KindParagraph,
		Runs: []flow.Run{{Kind: flow.RunText, Text: strings.Repeat("lorem ipsum dolor sit amet ", 30)}},
	}
	rule := &flow.Block{ID: "r1", Kind: flow.KindRule}
	blocks := []*flow.Block{para, rule}

	svc := canvasmeasure.NewService("")
	src := &memSource{
		blocks: map[string]*flow.Block{"p1": para, "r1": rule},
		lines:  map[string][]measure.LineMeasure{},
	}
	for _, b := range blocks {
		lines, err := svc.Measure(b, cfg.Page.ContentWidth())
		if err != nil {
			t.Fatalf("测量失败: %v", err)
		}
		src.lines[b.ID] = lines
	}
	dl := paginate.ComputeLayout(blocks, src.lines, cfg)
	if len(dl.Pages) < 2 {
		t.Fatalf("长文应跨页: got=%d", len(dl.Pages))
	}

	ov := &render.Overlay{
		Selection: []position.Rect{{Page: 0, X: 10, Y: 12, Width: 40, Height: 6}},
		Caret:     &position.Visual{Page: 0, X: 50, Y: 12, Height: 6},
	}
	data, err := NewPainter("").Render(dl, src, ov)
	if err != nil {
		t.Fatalf("绘制失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF 字节流: %q", data[:min(len(data), 8)])
	}
}

// TestRenderRejectsEmptyLayout 验证无页面时报错而非产出空文件。
func TestRenderRejectsEmptyLayout(t *testing.T) {
	p := NewPainter("")
	src := &memSource{}
	if _, err := p.Render(nil, src, nil); err == nil {
		t.Fatalf("nil 布局应报错")
	}
	if _, err := p.Render(&paginate.DocumentLayout{}, src, nil); err == nil {
		t.Fatalf("零页布局应报错")
	}
}

// TestRenderMissingBlockFails 验证片段引用的块缺失时报错。
func TestRenderMissingBlockFails(t *testing.T) {
	cfg := renderConfig()
	dl := &paginate.DocumentLayout{
		Pages: []paginate.Page{{
			Index:     0,
			Fragments: []paginate.Fragment{{BlockID: "ghost", FromLine: 0, ToLine: 1, X: 10, Y: 10, Height: 6}},
		}},
		Config: cfg,
	}
	if _, err := NewPainter("").Render(dl, &memSource{}, nil); err == nil {
		t.Fatalf("缺块应报错")
	}
}
