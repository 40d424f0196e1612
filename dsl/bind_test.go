package dsl

import "testing"

// TestInterpolatePaths 验证 ${path} 插值：点号分段与下标。
func TestInterpolatePaths(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{"name": "王五"},
		"items": []any{
			[]any{"a0", "a1"},
			"b",
		},
		"version": 3,
	}
	cases := []struct {
		in, want string
	}{
		{"你好 ${user.name}", "你好 王五"},
		{"v${version}", "v3"},
		{"${items[0][1]}", "a1"},
		{"${items[1]}", "b"},
		{"${missing.path}", "${missing.path}"},
		{"无占位符", "无占位符"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("插值 %q 错误: got=%q want=%q", c.in, got, c.want)
		}
	}
}

// TestInterpolateNilData 验证 data 为空时文本原样返回。
func TestInterpolateNilData(t *testing.T) {
	if got := Interpolate("保留 ${x}", nil); got != "保留 ${x}" {
		t.Fatalf("空 data 应原样返回: %q", got)
	}
}
