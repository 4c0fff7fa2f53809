package geomath

// 文档注释：按时间分数做线性插值
// 约束：t0 == t1 时分母为零，调用方必须保证括号点时间不同或自行处理单侧情形。
func Fraction(t0, t1, t float64) float64 {
	return (t - t0) / (t1 - t0)
}

// Lerp 分量线性插值
func Lerp(a, b, f float64) float64 { return a + f*(b-a) }

// 文档注释：朝向插值
// 背景：两端均有朝向时按同一分数线性插值；仅一端有值时取该值；均缺失时返回 nil。
// 约束：不做 359→1 的绕圈处理，与坐标插值保持同一线性规则。
func InterpolateHeading(h0, h1 *float64, f float64) *float64 {
	switch {
	case h0 != nil && h1 != nil:
		v := Lerp(*h0, *h1, f)
		return &v
	case h0 != nil:
		v := *h0
		return &v
	case h1 != nil:
		v := *h1
		return &v
	}
	return nil
}
