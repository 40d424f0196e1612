package measure

import (
	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/unit"
)

// 测量缺失时的兜底行高：正文 12pt × 1.4 行距。
const fallbackLineHeight = 12 * unit.PtToMm * 1.4

// Cache 按块 ID 缓存测量结果。宽度变化使条目失效；内容变化表现为
// 全新块 ID，旧条目由 Sweep 回收。单线程使用，无锁。
type Cache struct {
	svc     Service
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	width float64
	lines []LineMeasure
}

// NewCache 构造测量缓存。
func NewCache(svc Service) *Cache {
	return &Cache{svc: svc, entries: map[string]*cacheEntry{}}
}

// Lines 返回块的逐行度量，优先命中缓存。
// 测量服务无结果或出错时替换为一条兜底行，布局永不因测量失败中止。
func (c *Cache) Lines(b *flow.Block, contentWidth float64) []LineMeasure {
	if entry, ok := c.entries[b.ID]; ok && entry.width == contentWidth {
		return entry.lines
	}
	lines := c.measure(b, contentWidth)
	c.entries[b.ID] = &cacheEntry{width: contentWidth, lines: lines}
	return lines
}

func (c *Cache) measure(b *flow.Block, contentWidth float64) []LineMeasure {
	if c.svc != nil {
		lines, err := c.svc.Measure(b, contentWidth)
		if err == nil && len(lines) > 0 {
			return lines
		}
	}
	if b.Kind == flow.KindPageBreak {
		return nil
	}
	// 兜底：一条默认高度的行，覆盖块的全部内容
	seg := []Segment{}
	for i, r := range b.Runs {
		if n := r.Size(); n > 0 {
			seg = append(seg, Segment{RunIndex: i, StartOffset: 0, EndOffset: n, Text: r.Text})
		}
	}
	height := fallbackLineHeight
	if b.Kind == flow.KindImage || b.Kind == flow.KindRule {
		if b.Height > 0 {
			height = b.Height
		}
	}
	return []LineMeasure{{Height: height, Width: 0, Ascent: height * 0.8, Descent: height * 0.2, Segments: seg}}
}

// Invalidate 丢弃单个块的缓存条目。
func (c *Cache) Invalidate(id string) { delete(c.entries, id) }

// Sweep 仅保留 live 中仍然存活的块 ID，其余条目回收。
// 每次内容重新转换（ID 整体更新）后调用。
func (c *Cache) Sweep(live map[string]struct{}) {
	for id := range c.entries {
		if _, ok := live[id]; !ok {
			delete(c.entries, id)
		}
	}
}

// Len 返回缓存条目数（测试用）。
func (c *Cache) Len() int { return len(c.entries) }
