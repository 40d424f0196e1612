package paginate

// 该文件定义分页结果类型与页面几何配置，供布局计算、坐标映射与调试 JSON 共用。

import (
	"fmt"
	"strings"

	"github.com/ByLCY/vellum/unit"
)

// Margins 以毫米为单位。Header/Footer 为页眉/页脚占用高度，
// 内容区域顶部取 max(Top, Header)，底部同理。
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Header float64 `json:"header"`
	Footer float64 `json:"footer"`
}

// PageConfig 记录单页几何（mm）。
type PageConfig struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Margins Margins `json:"margins"`
}

// ContentTop 返回内容区域顶部的 Y 坐标。
func (pc PageConfig) ContentTop() float64 {
	if pc.Margins.Header > pc.Margins.Top {
		return pc.Margins.Header
	}
	return pc.Margins.Top
}

// ContentBottom 返回内容区域底部的 Y 坐标。
func (pc PageConfig) ContentBottom() float64 {
	b := pc.Margins.Bottom
	if pc.Margins.Footer > b {
		b = pc.Margins.Footer
	}
	return pc.Height - b
}

// ContentWidth 返回内容区域宽度。
func (pc PageConfig) ContentWidth() float64 {
	return pc.Width - pc.Margins.Left - pc.Margins.Right
}

// ContentHeight 返回内容区域高度。
func (pc PageConfig) ContentHeight() float64 {
	return pc.ContentBottom() - pc.ContentTop()
}

// Config 汇总分页引擎的全部可配置项。
type Config struct {
	Page            PageConfig `json:"page"`
	Scale           float64    `json:"scale"`           // 统一几何倍率，默认 1
	PageGap         float64    `json:"pageGap"`         // 页间距（mm），默认 6
	MinLinesAtBreak int        `json:"minLinesAtBreak"` // 孤行控制阈值，默认 2
}

// DefaultConfig 返回 A4 纵向、20mm 边距的默认配置。
func DefaultConfig() Config {
	return Config{
		Page: PageConfig{
			Width:  210,
			Height: 297,
			Margins: Margins{Top: 20, Right: 20, Bottom: 20, Left: 20},
		},
		Scale:           1,
		PageGap:         6,
		MinLinesAtBreak: 2,
	}
}

// normalized 返回填好默认值的配置副本。
func (c Config) normalized() Config {
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.PageGap < 0 {
		c.PageGap = 0
	}
	if c.MinLinesAtBreak <= 0 {
		c.MinLinesAtBreak = 2
	}
	return c
}

// Fragment 是一个块落在某页上的连续行区间 [FromLine, ToLine)，
// 或一个整体放置的非文本块（区间 [0, 1)）。
// 不变式：跨页看，一个块的全部片段恰好覆盖 [0, 行数)，无缺口无重叠。
type Fragment struct {
	BlockID  string  `json:"blockId"`
	FromLine int     `json:"fromLine"`
	ToLine   int     `json:"toLine"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Height   float64 `json:"height"`
	First    bool    `json:"isFirstFragment"`
	Last     bool    `json:"isLastFragment"`
}

// Lines 返回片段覆盖的行数。
func (f Fragment) Lines() int { return f.ToLine - f.FromLine }

// Page 按文档顺序保存片段；片段的 Y 坐标在页内严格递增。
type Page struct {
	Index         int        `json:"index"`
	Fragments     []Fragment `json:"fragments"`
	ContentHeight float64    `json:"contentHeight"`
}

// DocumentLayout 是一次分页的完整产物，结构性变化时整体重算。
type DocumentLayout struct {
	Pages       []Page  `json:"pages"`
	TotalHeight float64 `json:"totalHeight"` // 含页间距与倍率的总可视高度
	Config      Config  `json:"config"`
}

// Scale 返回布局使用的几何倍率。
func (dl *DocumentLayout) Scale() float64 { return dl.Config.Scale }

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

// ParsePageSpec 解析页面声明（尺寸预设 + 可选 landscape 与 margin 值），
// 例如 "A4"、["portrait", "margin", "20mm"]。
func ParsePageSpec(size string, params []string) (PageConfig, error) {
	base, ok := pagePresets[strings.ToUpper(size)]
	if !ok {
		return PageConfig{}, fmt.Errorf("暂不支持的纸张尺寸：%s", size)
	}
	pc := PageConfig{
		Width:   base[0],
		Height:  base[1],
		Margins: Margins{Top: 20, Right: 20, Bottom: 20, Left: 20},
	}
	for i := 0; i < len(params); i++ {
		switch strings.ToLower(params[i]) {
		case "landscape":
			pc.Width, pc.Height = pc.Height, pc.Width
		case "margin":
			vals := []float64{}
			for j := i + 1; j < len(params) && len(vals) < 4; j++ {
				if !looksNumeric(params[j]) {
					break
				}
				vals = append(vals, unit.ParseMM(params[j]))
			}
			applyMarginShorthand(&pc.Margins, vals)
			i += len(vals)
		case "header":
			if i+1 < len(params) {
				pc.Margins.Header = unit.ParseMM(params[i+1])
				i++
			}
		case "footer":
			if i+1 < len(params) {
				pc.Margins.Footer = unit.ParseMM(params[i+1])
				i++
			}
		}
	}
	return pc, nil
}

// applyMarginShorthand 按 CSS 缩写语义展开 1–4 个边距值。
func applyMarginShorthand(m *Margins, vals []float64) {
	switch len(vals) {
	case 1:
		m.Top, m.Right, m.Bottom, m.Left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		m.Top, m.Bottom = vals[0], vals[0]
		m.Right, m.Left = vals[1], vals[1]
	case 3:
		m.Top, m.Right, m.Bottom, m.Left = vals[0], vals[1], vals[2], 0
	case 4:
		m.Top, m.Right, m.Bottom, m.Left = vals[0], vals[1], vals[2], vals[3]
	}
}

func looksNumeric(v string) bool {
	_, ok := unit.Parse(v)
	return ok
}
