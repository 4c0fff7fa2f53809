package geomath

import "math"

// 文档注释：经纬度包围盒
// 背景：用于轨迹边界与静态区域表的快速命中判定。
// 约束：NewBBox 以 +Inf/-Inf 作为种子，单点扩展后得到退化盒（min == max）。
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

func NewBBox() BBox {
	return BBox{MinLat: math.Inf(1), MaxLat: math.Inf(-1), MinLon: math.Inf(1), MaxLon: math.Inf(-1)}
}

// Extend 按分量取最小/最大值
func (b *BBox) Extend(lat, lon float64) {
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLon = math.Max(b.MaxLon, lon)
}

// Contains 闭区间判定，边界点视为命中
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
