package paginate

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
)

// testConfig 返回内容区高度恰为 contentH 的简化页面配置。
func testConfig(contentH float64) Config {
	return Config{
		Page: PageConfig{
			Width:   100,
			Height:  contentH + 20,
			Margins: Margins{Top: 10, Right: 10, Bottom: 10, Left: 10},
		},
		Scale:           1,
		PageGap:         6,
		MinLinesAtBreak: 2,
	}
}

// mkLines 生成 n 条等高行，YOffset 按行高累计。
func mkLines(n int, h float64) []measure.LineMeasure {
	lines := make([]measure.LineMeasure, n)
	for i := range lines {
		lines[i] = measure.LineMeasure{
			Height:  h,
			Ascent:  h * 0.8,
			Descent: h * 0.2,
			YOffset: float64(i) * h,
		}
	}
	return lines
}

func mkPara(id string) *flow.Block {
	return &flow.Block{ID: id, Kind: flow.KindParagraph}
}

func layoutOf(t *testing.T, blocks []*flow.Block, measures map[string][]measure.LineMeasure, cfg Config) *DocumentLayout {
	t.Helper()
	dl := ComputeLayout(blocks, measures, cfg)
	if dl == nil || len(dl.Pages) == 0 {
		t.Fatalf("分页未产出任何页面")
	}
	return dl
}

// fragmentsOf 收集某块跨全部页面的片段（按文档顺序）。
func fragmentsOf(dl *DocumentLayout, id string) []Fragment {
	var out []Fragment
	for _, p := range dl.Pages {
		for _, f := range p.Fragments {
			if f.BlockID == id {
				out = append(out, f)
			}
		}
	}
	return out
}

// TestSplitWithWaivedOrphanControl 验证豁免场景：3 行块、容量 2 行、阈值 2，
// 总行数 ≤ 2×阈值时豁免孤行规则，自然断为 2+1。
func TestSplitWithWaivedOrphanControl(t *testing.T) {
	blocks := []*flow.Block{mkPara("p1")}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(3, 20)}
	dl := layoutOf(t, blocks, measures, testConfig(50))

	if len(dl.Pages) != 2 {
		t.Fatalf("页数错误: got=%d want=2", len(dl.Pages))
	}
	frags := fragmentsOf(dl, "p1")
	if len(frags) != 2 {
		t.Fatalf("片段数错误: got=%d want=2", len(frags))
	}
	if frags[0].FromLine != 0 || frags[0].ToLine != 2 {
		t.Fatalf("首片段行区间错误: [%d,%d) want [0,2)", frags[0].FromLine, frags[0].ToLine)
	}
	if frags[1].FromLine != 2 || frags[1].ToLine != 3 {
		t.Fatalf("尾片段行区间错误: [%d,%d) want [2,3)", frags[1].FromLine, frags[1].ToLine)
	}
	if !frags[0].First || frags[0].Last {
		t.Fatalf("首片段标记错误: %+v", frags[0])
	}
	if frags[1].First || !frags[1].Last {
		t.Fatalf("尾片段标记错误: %+v", frags[1])
	}
}

// TestOrphanControlPullsBreakBack 验证回拉：自然容量留下孤行时，
// 断点前移使尾组满足最小行数。
func TestOrphanControlPullsBreakBack(t *testing.T) {
	// 10 行 × 10mm，容量 95mm：自然容纳 9 行，尾组只剩 1 行，
	// 回拉为 8+2。
	blocks := []*flow.Block{mkPara("p1")}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(10, 10)}
	dl := layoutOf(t, blocks, measures, testConfig(95))

	frags := fragmentsOf(dl, "p1")
	if len(frags) != 2 {
		t.Fatalf("片段数错误: got=%d want=2", len(frags))
	}
	if frags[0].Lines() != 8 || frags[1].Lines() != 2 {
		t.Fatalf("孤行回拉失败: 行数分布 %d+%d want 8+2", frags[0].Lines(), frags[1].Lines())
	}
}

// TestOrphanControlPushesWholeGroup 验证整组后移：页尾剩余空间
// 容不下最小行组时，块从下一页开始。
func TestOrphanControlPushesWholeGroup(t *testing.T) {
	// 第一块占掉 80mm，剩 15mm 只够 1 行；第二块 6 行不豁免，整体后移。
	blocks := []*flow.Block{mkPara("p1"), mkPara("p2")}
	measures := map[string][]measure.LineMeasure{
		"p1": mkLines(8, 10),
		"p2": mkLines(6, 10),
	}
	dl := layoutOf(t, blocks, measures, testConfig(95))

	frags := fragmentsOf(dl, "p2")
	if len(frags) != 1 {
		t.Fatalf("p2 应整体放置: 片段数=%d", len(frags))
	}
	found := false
	for _, f := range dl.Pages[1].Fragments {
		if f.BlockID == "p2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("p2 应出现在第 2 页")
	}
	for _, f := range dl.Pages[0].Fragments {
		if f.BlockID == "p2" {
			t.Fatalf("p2 不应出现在第 1 页")
		}
	}
}

// TestExactFitLineStaysOnPage 验证含入规则：恰好用尽剩余空间的行留在当前页。
func TestExactFitLineStaysOnPage(t *testing.T) {
	// 5 行 × 10mm 恰好等于 50mm 容量，应单页放下。
	blocks := []*flow.Block{mkPara("p1")}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(5, 10)}
	dl := layoutOf(t, blocks, measures, testConfig(50))

	if len(dl.Pages) != 1 {
		t.Fatalf("恰好填满应保持单页: got=%d", len(dl.Pages))
	}
	frags := fragmentsOf(dl, "p1")
	if len(frags) != 1 || frags[0].Lines() != 5 {
		t.Fatalf("应为单片段 5 行: %+v", frags)
	}
}

// TestFragmentsPartitionLines 验证覆盖不变式：任意块的片段跨页恰好
// 划分其行区间 [0, n)，无缺口无重叠。
func TestFragmentsPartitionLines(t *testing.T) {
	blocks := []*flow.Block{}
	measures := map[string][]measure.LineMeasure{}
	counts := []int{1, 3, 7, 12, 2, 25}
	for i, n := range counts {
		id := fmt.Sprintf("p%d", i)
		blocks = append(blocks, mkPara(id))
		measures[id] = mkLines(n, 8)
	}
	dl := layoutOf(t, blocks, measures, testConfig(60))

	for i, n := range counts {
		id := fmt.Sprintf("p%d", i)
		frags := fragmentsOf(dl, id)
		if len(frags) == 0 {
			t.Fatalf("块 %s 无片段", id)
		}
		next := 0
		for _, f := range frags {
			if f.FromLine != next {
				t.Fatalf("块 %s 片段不连续: from=%d want=%d", id, f.FromLine, next)
			}
			if f.ToLine <= f.FromLine {
				t.Fatalf("块 %s 空片段: %+v", id, f)
			}
			next = f.ToLine
		}
		if next != n {
			t.Fatalf("块 %s 覆盖不完整: got=%d want=%d", id, next, n)
		}
		if !frags[0].First || !frags[len(frags)-1].Last {
			t.Fatalf("块 %s 首尾标记错误", id)
		}
	}
}

// TestFragmentYMonotonic 验证页内片段 Y 严格递增且不越出内容区。
func TestFragmentYMonotonic(t *testing.T) {
	blocks := []*flow.Block{}
	measures := map[string][]measure.LineMeasure{}
	for i := 0; i < 9; i++ {
		id := fmt.Sprintf("p%d", i)
		blocks = append(blocks, mkPara(id))
		measures[id] = mkLines(4+i%5, 7)
	}
	cfg := testConfig(70)
	dl := layoutOf(t, blocks, measures, cfg)

	top := cfg.Page.ContentTop()
	bottom := cfg.Page.ContentBottom()
	for _, p := range dl.Pages {
		prev := top - 1
		for _, f := range p.Fragments {
			if f.Y <= prev {
				t.Fatalf("第 %d 页片段 Y 非递增: %g <= %g", p.Index, f.Y, prev)
			}
			if f.Y < top-1e-6 || f.Y+f.Height > bottom+1e-6 {
				t.Fatalf("第 %d 页片段越出内容区: y=%g h=%g", p.Index, f.Y, f.Height)
			}
			prev = f.Y
		}
	}
}

// TestLayoutIdempotent 验证相同输入两次分页产出完全一致的结构。
func TestLayoutIdempotent(t *testing.T) {
	blocks := []*flow.Block{mkPara("a"), mkPara("b"), mkPara("c")}
	measures := map[string][]measure.LineMeasure{
		"a": mkLines(9, 11),
		"b": mkLines(4, 13),
		"c": mkLines(17, 6),
	}
	cfg := testConfig(88)
	d1 := ComputeLayout(blocks, measures, cfg)
	d2 := ComputeLayout(blocks, measures, cfg)
	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("分页不幂等")
	}
}

// TestOversizedBlockIsolated 验证超尺寸整体块独占一页并允许溢出，
// 其后内容从新页开始。
func TestOversizedBlockIsolated(t *testing.T) {
	img := &flow.Block{ID: "img", Kind: flow.KindImage, Height: 200}
	blocks := []*flow.Block{mkPara("p1"), img, mkPara("p2")}
	measures := map[string][]measure.LineMeasure{
		"p1":  mkLines(2, 10),
		"img": {{Height: 200}},
		"p2":  mkLines(2, 10),
	}
	dl := layoutOf(t, blocks, measures, testConfig(100))

	if len(dl.Pages) != 3 {
		t.Fatalf("页数错误: got=%d want=3", len(dl.Pages))
	}
	if len(dl.Pages[1].Fragments) != 1 || dl.Pages[1].Fragments[0].BlockID != "img" {
		t.Fatalf("超尺寸块应独占第 2 页: %+v", dl.Pages[1].Fragments)
	}
	if dl.Pages[2].Fragments[0].BlockID != "p2" {
		t.Fatalf("后续内容应从第 3 页开始")
	}
}

// TestConsecutivePageBreaksCollapse 验证连续显式分页塌缩为一个边界，
// 不产生空页。
func TestConsecutivePageBreaksCollapse(t *testing.T) {
	br := func(id string) *flow.Block { return &flow.Block{ID: id, Kind: flow.KindPageBreak} }
	blocks := []*flow.Block{mkPara("p1"), br("x1"), br("x2"), br("x3"), mkPara("p2")}
	measures := map[string][]measure.LineMeasure{
		"p1": mkLines(2, 10),
		"p2": mkLines(2, 10),
	}
	dl := layoutOf(t, blocks, measures, testConfig(100))

	if len(dl.Pages) != 2 {
		t.Fatalf("连续分页应塌缩: got=%d want=2", len(dl.Pages))
	}
	for _, p := range dl.Pages {
		if len(p.Fragments) == 0 {
			t.Fatalf("出现空页: index=%d", p.Index)
		}
	}
}

// TestLeadingPageBreakIgnored 验证文档起始处的分页块不产生空首页。
func TestLeadingPageBreakIgnored(t *testing.T) {
	blocks := []*flow.Block{
		{ID: "x", Kind: flow.KindPageBreak},
		mkPara("p1"),
	}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(1, 10)}
	dl := layoutOf(t, blocks, measures, testConfig(100))

	if len(dl.Pages) != 1 {
		t.Fatalf("起始分页不应新建空页: got=%d", len(dl.Pages))
	}
}

// TestTrailingPageBreakLeavesNoEmptyPage 验证文档以分页块结尾时
// 不产出尾随空页。
func TestTrailingPageBreakLeavesNoEmptyPage(t *testing.T) {
	blocks := []*flow.Block{
		mkPara("p1"),
		{ID: "x", Kind: flow.KindPageBreak},
	}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(2, 10)}
	dl := layoutOf(t, blocks, measures, testConfig(100))

	if len(dl.Pages) != 1 {
		t.Fatalf("尾随分页不应新建空页: got=%d", len(dl.Pages))
	}
	if len(dl.Pages[0].Fragments) == 0 {
		t.Fatalf("内容页不应为空")
	}
}

// TestTrailingOversizedBlockLeavesNoEmptyPage 验证超尺寸块收尾时
// 隔离换页不产出尾随空页。
func TestTrailingOversizedBlockLeavesNoEmptyPage(t *testing.T) {
	img := &flow.Block{ID: "img", Kind: flow.KindImage, Height: 200}
	blocks := []*flow.Block{mkPara("p1"), img}
	measures := map[string][]measure.LineMeasure{
		"p1":  mkLines(2, 10),
		"img": {{Height: 200}},
	}
	dl := layoutOf(t, blocks, measures, testConfig(100))

	if len(dl.Pages) != 2 {
		t.Fatalf("页数错误: got=%d want=2", len(dl.Pages))
	}
	if len(dl.Pages[1].Fragments) != 1 || dl.Pages[1].Fragments[0].BlockID != "img" {
		t.Fatalf("超尺寸块应独占末页: %+v", dl.Pages[1].Fragments)
	}
}

// TestEmptyDocumentStillYieldsOnePage 验证空文档保底产出一页。
func TestEmptyDocumentStillYieldsOnePage(t *testing.T) {
	dl := ComputeLayout(nil, nil, testConfig(100))
	if len(dl.Pages) != 1 {
		t.Fatalf("空文档应保底一页: got=%d", len(dl.Pages))
	}
	if len(dl.Pages[0].Fragments) != 0 {
		t.Fatalf("空文档的页不应有片段")
	}
}

// TestOnlyPageBreaksYieldOnePage 验证只含分页块的文档塌缩为一页。
func TestOnlyPageBreaksYieldOnePage(t *testing.T) {
	blocks := []*flow.Block{
		{ID: "x1", Kind: flow.KindPageBreak},
		{ID: "x2", Kind: flow.KindPageBreak},
	}
	dl := ComputeLayout(blocks, nil, testConfig(100))
	if len(dl.Pages) != 1 {
		t.Fatalf("纯分页文档应保底一页: got=%d", len(dl.Pages))
	}
}

// TestSpaceBeforeOnlyOnFirstFragment 验证 space-before 只作用于首片段，
// 内部断点不重复追加。
func TestSpaceBeforeOnlyOnFirstFragment(t *testing.T) {
	p := mkPara("p1")
	p.Format.SpaceBefore = 5
	blocks := []*flow.Block{p}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(10, 10)}
	cfg := testConfig(55)
	dl := layoutOf(t, blocks, measures, cfg)

	frags := fragmentsOf(dl, "p1")
	if len(frags) < 2 {
		t.Fatalf("应跨页: 片段数=%d", len(frags))
	}
	top := cfg.Page.ContentTop()
	if got := frags[0].Y; got != top+5 {
		t.Fatalf("首片段应含 space-before: y=%g want=%g", got, top+5)
	}
	if got := frags[1].Y; got != top {
		t.Fatalf("续页片段不应含 space-before: y=%g want=%g", got, top)
	}
}

// TestMissingMeasureFallsBack 验证测量缺失时按兜底行分页，不中止。
func TestMissingMeasureFallsBack(t *testing.T) {
	blocks := []*flow.Block{mkPara("p1")}
	dl := layoutOf(t, blocks, nil, testConfig(100))

	frags := fragmentsOf(dl, "p1")
	if len(frags) != 1 || frags[0].Height <= 0 {
		t.Fatalf("兜底行缺失: %+v", frags)
	}
}

// TestTotalHeightWithGapAndScale 验证总高度公式：页高合计 + 页间距，再乘倍率。
func TestTotalHeightWithGapAndScale(t *testing.T) {
	blocks := []*flow.Block{mkPara("p1")}
	measures := map[string][]measure.LineMeasure{"p1": mkLines(12, 10)}
	cfg := testConfig(50)
	cfg.Scale = 2
	dl := layoutOf(t, blocks, measures, cfg)

	n := float64(len(dl.Pages))
	want := (n*cfg.Page.Height + (n-1)*cfg.PageGap) * 2
	if diff := dl.TotalHeight - want; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("总高度错误: got=%g want=%g", dl.TotalHeight, want)
	}
}
