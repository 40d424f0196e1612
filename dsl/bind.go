package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var bindPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 占位符替换为 data 中的值。
// 路径支持点号分段与 [idx] 下标；data 为空或路径不存在时保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return bindPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		val, ok := lookupPath(data, path)
		if !ok {
			return match
		}
		return fmt.Sprint(val)
	})
}

// lookupPath 沿点号路径逐层下探，每段可附带若干 [idx] 下标。
func lookupPath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := splitSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			m, isMap := current.(map[string]any)
			if !isMap {
				return nil, false
			}
			current, isMap = m[name]
			if !isMap {
				return nil, false
			}
		}
		for _, idx := range indexes {
			arr, isArr := current.([]any)
			if !isArr || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// splitSegment 将 "items[0][1]" 拆为名称与下标序列。
func splitSegment(segment string) (string, []int, bool) {
	name := segment
	var indexes []int
	for {
		open := strings.IndexByte(name, '[')
		if open < 0 {
			break
		}
		rest := name[open:]
		name = name[:open]
		for len(rest) > 0 {
			if rest[0] != '[' {
				return "", nil, false
			}
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return "", nil, false
			}
			idx, err := strconv.Atoi(rest[1:close])
			if err != nil {
				return "", nil, false
			}
			indexes = append(indexes, idx)
			rest = rest[close+1:]
		}
	}
	return name, indexes, true
}
