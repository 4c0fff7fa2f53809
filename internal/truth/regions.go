package truth

import "geotruth/internal/geomath"

// 文档注释：静态国家包围盒表
// 背景：粗略近似，仅覆盖北美三国；表内存在重叠，按顺序首个命中即返回（美国优先于加拿大与墨西哥）。
type region struct {
	name string
	box  geomath.BBox
}

var countries = []region{
	{"United States", geomath.BBox{MinLat: 24, MaxLat: 50, MinLon: -125, MaxLon: -66}},
	{"Canada", geomath.BBox{MinLat: 41, MaxLat: 84, MinLon: -141, MaxLon: -52}},
	{"Mexico", geomath.BBox{MinLat: 14, MaxLat: 33, MinLon: -118, MaxLon: -86}},
}

// 文档注释：美国本土四个时区的经度带
// 约束：左闭右开；仅按经度判定，不看纬度。
type lonBand struct {
	name     string
	min, max float64
}

var timezones = []lonBand{
	{"America/Los_Angeles", -125, -115},
	{"America/Denver", -115, -100},
	{"America/Chicago", -100, -85},
	{"America/New_York", -85, -66},
}

func estimateCountry(lat, lon float64) string {
	for _, r := range countries {
		if r.box.Contains(lat, lon) {
			return r.name
		}
	}
	return ""
}

func estimateTimezone(lon float64) string {
	for _, b := range timezones {
		if lon >= b.min && lon < b.max {
			return b.name
		}
	}
	return ""
}

// regionInfo 国家与时区查表结果；空串表示未命中
type regionInfo struct {
	country  string
	timezone string
}

func lookupRegion(lat, lon float64) regionInfo {
	return regionInfo{country: estimateCountry(lat, lon), timezone: estimateTimezone(lon)}
}
