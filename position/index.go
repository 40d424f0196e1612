package position

// 片段 → 偏移区间索引。按起始偏移排序，区间查询先二分到首个
// 可能重叠的条目再线性前扫，O(log n + k)。
// 布局每次重算后整体失效，首次查询时惰性重建。

import (
	"sort"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/measure"
	"github.com/ByLCY/vellum/paginate"
)

// span 是索引条目：一个片段承载的偏移区间。
// 文本片段覆盖 [start, end)；块的末片段与非文本片段额外含 end
// （光标可停在块尾边界位）。
type span struct {
	start, end int
	closed     bool // 是否含 end
	page       int
	frag       paginate.Fragment
	rng        flow.Range
	lines      []measure.LineMeasure
	starts     []int // 逐行起点的块内字符偏移，长度 = 行数 + 1
	text       bool  // 可拆分文本块
}

func (s *span) contains(off int) bool {
	if s.closed {
		return off >= s.start && off <= s.end
	}
	return off >= s.start && off < s.end
}

// lineStarts 计算逐行累计字符起点。
func lineStarts(lines []measure.LineMeasure) []int {
	starts := make([]int, len(lines)+1)
	for i, l := range lines {
		starts[i+1] = starts[i] + l.Chars()
	}
	return starts
}

// buildIndex 遍历布局生成排序后的 span 表与每页条目下标。
func buildIndex(dl *paginate.DocumentLayout, src Source) ([]*span, [][]int) {
	if dl == nil {
		return nil, nil
	}
	var spans []*span
	for _, p := range dl.Pages {
		for _, f := range p.Fragments {
			rng, ok := src.Range(f.BlockID)
			if !ok {
				continue
			}
			b := src.Block(f.BlockID)
			if b == nil {
				continue
			}
			sp := &span{page: p.Index, frag: f, rng: rng}
			if b.Kind.Splittable() {
				sp.text = true
				sp.lines = src.Lines(f.BlockID)
				sp.starts = lineStarts(sp.lines)
				sp.start = rng.Start + sp.starts[f.FromLine]
				sp.end = rng.Start + sp.starts[f.ToLine]
				if f.Last {
					sp.end = rng.End
					sp.closed = true
				}
			} else {
				sp.start = rng.Start
				sp.end = rng.End
				sp.closed = true
			}
			spans = append(spans, sp)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	perPage := make([][]int, len(dl.Pages))
	for i, sp := range spans {
		perPage[sp.page] = append(perPage[sp.page], i)
	}
	return spans, perPage
}

// findSpan 二分定位承载 off 的条目；off 落在间隙时返回其后第一个条目。
func findSpan(spans []*span, off int) *span {
	i := sort.Search(len(spans), func(i int) bool {
		sp := spans[i]
		if sp.closed {
			return sp.end >= off
		}
		return sp.end > off
	})
	if i >= len(spans) {
		return spans[len(spans)-1]
	}
	return spans[i]
}

// overlapFrom 二分到首个与 [lo, hi) 可能重叠的条目下标。
func overlapFrom(spans []*span, lo int) int {
	return sort.Search(len(spans), func(i int) bool {
		sp := spans[i]
		if sp.closed {
			return sp.end >= lo
		}
		return sp.end > lo
	})
}
