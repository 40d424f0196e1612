package selection

import "github.com/ByLCY/vellum/position"

// Merge 合并同一可视行上相邻的选区矩形，消除不同格式 Run 之间的接缝。
// 合并条件：同页、纵向对齐在一个行高容差内、横向间隙不超过 pixTol。
func Merge(rects []position.Rect, pixTol, lineHeightTol float64) []position.Rect {
	if len(rects) < 2 {
		return rects
	}
	out := make([]position.Rect, 0, len(rects))
	cur := rects[0]
	for _, r := range rects[1:] {
		if sameLine(cur, r, lineHeightTol) && adjacent(cur, r, pixTol) {
			right := r.X + r.Width
			if cr := cur.X + cur.Width; cr > right {
				right = cr
			}
			if r.X < cur.X {
				cur.X = r.X
			}
			cur.Width = right - cur.X
			if r.Height > cur.Height {
				cur.Height = r.Height
			}
			if r.Y < cur.Y {
				cur.Y = r.Y
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// sameLine 判断两矩形是否落在同一可视行：同页且纵向偏差小于
// 行高的 tol 倍。
func sameLine(a, b position.Rect, tol float64) bool {
	if a.Page != b.Page {
		return false
	}
	h := a.Height
	if b.Height > h {
		h = b.Height
	}
	d := a.Y - b.Y
	if d < 0 {
		d = -d
	}
	return d <= h*tol
}

// adjacent 判断 b 是否横向紧邻 a：间隙在像素容差内，重叠视为相邻。
func adjacent(a, b position.Rect, pixTol float64) bool {
	gap := b.X - (a.X + a.Width)
	return gap <= pixTol
}
