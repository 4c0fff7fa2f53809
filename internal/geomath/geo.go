// 包 geomath：轨迹解析、时间对齐与离线核验共用的数值原语（距离、方位、视场、插值）
package geomath

import "math"

// EarthRadiusKm 球面距离使用的固定地球半径
const EarthRadiusKm = 6371.0

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func deg(r float64) float64 { return r * 180 / math.Pi }

// 文档注释：球面距离（Haversine）
// 背景：入参为 WGS84 度，返回千米；需要米级契约的调用方自行乘以 1000。
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceMeters Haversine 的米制包装
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) * 1000
}

// 文档注释：初始方位角（正北为 0，顺时针）
// 约束：返回值归一化到 [0,360)；两点重合时返回 0。
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	phi1 := rad(lat1)
	phi2 := rad(lat2)
	dLon := rad(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return NormalizeDeg(deg(math.Atan2(y, x)))
}

// NormalizeDeg 将任意角度归一化到 [0,360)
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// 文档注释：两方向的最小夹角
// 约束：返回值位于 [0,180]，与输入的绕圈次数无关。
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeDeg(a) - NormalizeDeg(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// 文档注释：视场判定
// 背景：目标方位与设备朝向的夹角不超过视场宽度的一半即视为可见；视场宽度由调用方提供，不在此处设默认值。
func InFOV(heading, bearing, fovDeg float64) bool {
	return AngleDiff(heading, bearing) <= fovDeg/2
}
