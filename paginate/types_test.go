package paginate

import "testing"

func feq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

// TestParsePageSpecMarginVariants 验证 margin 支持 1、2、3、4+ 个值的语义。
func TestParsePageSpecMarginVariants(t *testing.T) {
	get := func(params ...string) Margins {
		pc, err := ParsePageSpec("A4", params)
		if err != nil {
			t.Fatalf("解析页面声明失败: %v", err)
		}
		return pc.Margins
	}

	// 1 个值：四边相同
	m1 := get("margin", "10mm")
	if !(feq(m1.Top, 10) && feq(m1.Right, 10) && feq(m1.Bottom, 10) && feq(m1.Left, 10)) {
		t.Fatalf("1 值语义错误: %+v", m1)
	}

	// 2 个值：上下，左右
	m2 := get("margin", "10mm", "5mm")
	if !(feq(m2.Top, 10) && feq(m2.Bottom, 10) && feq(m2.Left, 5) && feq(m2.Right, 5)) {
		t.Fatalf("2 值语义错误: %+v", m2)
	}

	// 3 个值：上 右 下，左=0
	m3 := get("margin", "12mm", "8mm", "6mm")
	if !(feq(m3.Top, 12) && feq(m3.Right, 8) && feq(m3.Bottom, 6) && feq(m3.Left, 0)) {
		t.Fatalf("3 值语义错误: %+v", m3)
	}

	// 4 个值：上 右 下 左，支持混合单位
	m4 := get("margin", "1cm", "5mm", "2cm", "3mm")
	if !(feq(m4.Top, 10) && feq(m4.Right, 5) && feq(m4.Bottom, 20) && feq(m4.Left, 3)) {
		t.Fatalf("4 值语义错误: %+v", m4)
	}

	// >4 个值：只取前四个
	m5 := get("margin", "1mm", "2mm", "3mm", "4mm", "999mm")
	if !(feq(m5.Top, 1) && feq(m5.Right, 2) && feq(m5.Bottom, 3) && feq(m5.Left, 4)) {
		t.Fatalf(">4 值应忽略多余: %+v", m5)
	}
}

// TestParsePageSpecLandscape 验证横向翻转宽高。
func TestParsePageSpecLandscape(t *testing.T) {
	pc, err := ParsePageSpec("A4", []string{"landscape"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if !feq(pc.Width, 297) || !feq(pc.Height, 210) {
		t.Fatalf("横向尺寸错误: %gx%g", pc.Width, pc.Height)
	}
}

// TestParsePageSpecHeaderFooter 验证页眉/页脚参与内容区裁剪。
func TestParsePageSpecHeaderFooter(t *testing.T) {
	pc, err := ParsePageSpec("a4", []string{"margin", "10mm", "header", "25mm", "footer", "15mm"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	// 页眉 25 > 上边距 10，内容区顶部取大者
	if !feq(pc.ContentTop(), 25) {
		t.Fatalf("内容区顶部错误: %g", pc.ContentTop())
	}
	if !feq(pc.ContentBottom(), 297-15) {
		t.Fatalf("内容区底部错误: %g", pc.ContentBottom())
	}
	if !feq(pc.ContentWidth(), 210-20) {
		t.Fatalf("内容区宽度错误: %g", pc.ContentWidth())
	}
}

// TestParsePageSpecUnknownSize 验证未知纸张尺寸报错。
func TestParsePageSpecUnknownSize(t *testing.T) {
	if _, err := ParsePageSpec("B9", nil); err == nil {
		t.Fatalf("未知尺寸应报错")
	}
}

// TestConfigNormalized 验证零值配置回填默认。
func TestConfigNormalized(t *testing.T) {
	c := Config{}.normalized()
	if c.Scale != 1 || c.MinLinesAtBreak != 2 {
		t.Fatalf("默认值回填错误: %+v", c)
	}
}
