package canvasmeasure

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/vellum/flow"
	"github.com/ByLCY/vellum/fonts"
	"github.com/ByLCY/vellum/unit"
)

// styledToken 是换行的最小放置单元：一个词、一段空白、一个行内对象
// 或一次强制换行。start/end 为 run 内 rune 偏移。
type styledToken struct {
	run        int
	start, end int
	text       string
	width      float64
	ascent     float64
	descent    float64
	size       float64
	format     flow.TextFormat
	space      bool // 空白 token：换行时附着在当前行尾
	forced     bool // 强制换行
}

// tokenize 将块的全部 Run 展开为按序的 token 流。
// 空白与词分开成 token，保证分段恰好划分 run 文本。
func (s *Service) tokenize(b *flow.Block) ([]styledToken, error) {
	var tokens []styledToken
	for ri, r := range b.Runs {
		switch r.Kind {
		case flow.RunText, flow.RunLink:
			tt, err := s.tokenizeText(ri, r)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tt...)
		case flow.RunImage:
			w := r.Width
			if w <= 0 {
				w = defaultBoxWidth
			}
			h := r.Height
			if h <= 0 {
				h = w * 0.75
			}
			tokens = append(tokens, styledToken{
				run: ri, start: 0, end: 1,
				width: w, ascent: h, size: h,
				format: r.Format,
			})
		case flow.RunBreak:
			tokens = append(tokens, styledToken{
				run: ri, start: 0, end: 1,
				format: r.Format, forced: true,
			})
		}
	}
	return tokens, nil
}

func (s *Service) tokenizeText(ri int, r flow.Run) ([]styledToken, error) {
	face, err := s.face(r.Format)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	ascent := m.Ascent * unit.PtToMm
	descent := m.Descent * unit.PtToMm
	size := r.Format.Size
	if size <= 0 {
		size = defaultSizeMm
	}
	mk := func(runes []rune, start int) styledToken {
		text := string(runes)
		return styledToken{
			run: ri, start: start, end: start + len(runes),
			text:   text,
			width:  face.TextWidth(text) * unit.PtToMm,
			ascent: ascent, descent: descent, size: size,
			format: r.Format,
		}
	}

	var tokens []styledToken
	var buf []rune
	bufStart, off := 0, 0
	lastSpace := false
	flush := func() {
		if len(buf) > 0 {
			t := mk(buf, bufStart)
			t.space = lastSpace
			tokens = append(tokens, t)
			buf = nil
		}
	}
	for _, ch := range r.Text {
		if ch == '\n' {
			flush()
			tokens = append(tokens, styledToken{
				run: ri, start: off, end: off + 1, text: "\n",
				ascent: ascent, descent: descent, size: size,
				format: r.Format, forced: true,
			})
			off++
			continue
		}
		isSpace := unicode.IsSpace(ch)
		if len(buf) == 0 {
			bufStart = off
			lastSpace = isSpace
		} else if lastSpace != isSpace {
			flush()
			bufStart = off
			lastSpace = isSpace
		}
		buf = append(buf, ch)
		off++
	}
	flush()
	return tokens, nil
}

// splitByWidth 将超出行宽的 token 按宽度硬切为多段，保持偏移连续。
func (s *Service) splitByWidth(tok styledToken, limit float64) []styledToken {
	if limit <= 0 || tok.text == "" {
		return []styledToken{tok}
	}
	face, err := s.face(tok.format)
	if err != nil {
		return []styledToken{tok}
	}
	runes := []rune(tok.text)
	var parts []styledToken
	from := 0
	for from < len(runes) {
		to := from + 1
		for to < len(runes) &&
			face.TextWidth(string(runes[from:to+1]))*unit.PtToMm <= limit {
			to++
		}
		text := string(runes[from:to])
		parts = append(parts, styledToken{
			run: tok.run, start: tok.start + from, end: tok.start + to,
			text:   text,
			width:  face.TextWidth(text) * unit.PtToMm,
			ascent: tok.ascent, descent: tok.descent, size: tok.size,
			format: tok.format,
		})
		from = to
	}
	return parts
}

// LineAdvances 实现 measure.AdvanceProvider：返回某行逐字符的
// 精确累计横向位移，长度 = 行字符数 + 1。无法测量时返回 nil。
func (s *Service) LineAdvances(b *flow.Block, contentWidth float64, line int) []float64 {
	m, ok := s.memo[b.ID]
	if !ok || m.width != contentWidth {
		if _, err := s.Measure(b, contentWidth); err != nil {
			return nil
		}
		m = s.memo[b.ID]
	}
	if m == nil || line < 0 || line >= len(m.lines) {
		return nil
	}
	adv := []float64{0}
	x := 0.0
	for _, seg := range m.lines[line].Segments {
		if seg.RunIndex >= len(b.Runs) {
			return nil
		}
		r := b.Runs[seg.RunIndex]
		switch r.Kind {
		case flow.RunImage:
			w := r.Width
			if w <= 0 {
				w = defaultBoxWidth
			}
			x += w
			adv = append(adv, x)
		case flow.RunBreak:
			adv = append(adv, x)
		default:
			face, err := s.face(r.Format)
			if err != nil {
				return nil
			}
			runes := []rune(seg.Text)
			// 用前缀宽度求逐字符位移，保留字距影响
			for i := 1; i <= len(runes); i++ {
				adv = append(adv, x+face.TextWidth(string(runes[:i]))*unit.PtToMm)
			}
			x = adv[len(adv)-1]
		}
	}
	return adv
}

// face 按字体属性取字体面：显式文件路径优先，否则用内置字族。
func (s *Service) face(f flow.TextFormat) (*canvas.FontFace, error) {
	sizeMm := f.Size
	if sizeMm <= 0 {
		sizeMm = defaultSizeMm
	}
	family, err := s.ensureFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(sizeMm*unit.MmToPt, canvas.Black, canvas.FontRegular, canvas.FontNormal), nil
}

func (s *Service) ensureFamily(f flow.TextFormat) (*canvas.FontFamily, error) {
	variant := fonts.Variant(f.Bold, f.Italic)
	key := f.Font + "|" + variant
	s.fontMu.Lock()
	defer s.fontMu.Unlock()

	if fam, ok := s.families[key]; ok {
		return fam, nil
	}

	data, err := s.loadFontBytes(f.Font, variant)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily(key)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", key, err)
	}
	s.families[key] = family
	return family, nil
}

func (s *Service) loadFontBytes(src, variant string) ([]byte, error) {
	if src == "" {
		return fonts.Load(variant)
	}
	path := src
	if !filepath.IsAbs(path) {
		if s.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s", src)
		}
		path = filepath.Join(s.baseDir, path)
	}
	return os.ReadFile(path)
}
