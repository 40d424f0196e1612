// Package fonts 提供内置字体。内容模型未指定字体文件时，
// 测量与渲染回退到这里的 Latin Modern 字族。
package fonts

import (
	"fmt"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

var builtin = map[string][]byte{
	"regular":     lmroman10regular.TTF,
	"bold":        lmroman10bold.TTF,
	"italic":      lmroman10italic.TTF,
	"bold-italic": lmroman10bolditalic.TTF,
}

// Load 按名称返回内置字体字节。可用名称：regular、bold、italic、bold-italic。
func Load(name string) ([]byte, error) {
	if data, ok := builtin[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("找不到内置字体 %s", name)
}

// Variant 根据粗体/斜体组合返回内置字体名称。
func Variant(bold, italic bool) string {
	switch {
	case bold && italic:
		return "bold-italic"
	case bold:
		return "bold"
	case italic:
		return "italic"
	default:
		return "regular"
	}
}
