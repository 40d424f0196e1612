package unit

import "testing"

func almost(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

// TestParsePreservesUnit 验证长度解析保留书写单位。
func TestParsePreservesUnit(t *testing.T) {
	cases := []struct {
		in   string
		val  float64
		unit Unit
	}{
		{"12pt", 12, PT},
		{"20mm", 20, MM},
		{"2.5cm", 2.5, CM},
		{"1in", 1, IN},
		{"1.4", 1.4, None},
		{" 6 mm ", 6, MM},
	}
	for _, c := range cases {
		l, ok := Parse(c.in)
		if !ok {
			t.Fatalf("解析 %q 失败", c.in)
		}
		if !almost(l.Value, c.val) || l.Unit != c.unit {
			t.Fatalf("解析 %q 结果错误: %+v", c.in, l)
		}
	}
	if _, ok := Parse("abc"); ok {
		t.Fatalf("非法输入不应解析成功")
	}
	if _, ok := Parse(""); ok {
		t.Fatalf("空串不应解析成功")
	}
}

// TestLengthConversions 验证 mm/pt 双向换算。
func TestLengthConversions(t *testing.T) {
	if v := (Length{Value: 1, Unit: IN}).MM(); !almost(v, 25.4) {
		t.Fatalf("1in 应为 25.4mm，实际 %g", v)
	}
	if v := (Length{Value: 2, Unit: CM}).MM(); !almost(v, 20) {
		t.Fatalf("2cm 应为 20mm，实际 %g", v)
	}
	if v := (Length{Value: 12, Unit: PT}).PT(); !almost(v, 12) {
		t.Fatalf("pt 自转换应恒等，实际 %g", v)
	}
	round := (Length{Value: 10, Unit: MM}).PT() * PtToMm
	if !almost(round, 10) {
		t.Fatalf("mm→pt→mm 往返应恒等，实际 %g", round)
	}
}

// TestParseFactor 验证行高因子解析。
func TestParseFactor(t *testing.T) {
	if f, ok := ParseFactor("1.4x"); !ok || !almost(f, 1.4) {
		t.Fatalf("1.4x 解析失败: %g %v", f, ok)
	}
	if _, ok := ParseFactor("1.4"); ok {
		t.Fatalf("缺少 x 后缀不应成功")
	}
	if _, ok := ParseFactor("-1x"); ok {
		t.Fatalf("负因子不应成功")
	}
}
