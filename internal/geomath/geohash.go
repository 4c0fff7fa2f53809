package geomath

// 文档注释：轻量 geohash 编码（base32）
// 背景：用于查询缓存键；精度 6 约 1.2km 网格，精度 7 约 150m。
// 约束：仅用于缓存分桶，不参与国家/时区判定。
var base32 = []byte("0123456789bcdefghjkmnpqrstuvwxyz")

func Geohash(lat, lon float64, precision int) string {
	h, _ := GeohashCell(lat, lon, precision)
	return h
}

// GeohashCell 同时返回编码与该网格的经纬度范围
func GeohashCell(lat, lon float64, precision int) (string, BBox) {
	latInt := [2]float64{-90, 90}
	lonInt := [2]float64{-180, 180}
	if precision <= 0 {
		return "", BBox{MinLat: latInt[0], MaxLat: latInt[1], MinLon: lonInt[0], MaxLon: lonInt[1]}
	}
	bit := 0
	ch := 0
	even := true
	out := make([]byte, 0, precision)
	for len(out) < precision {
		if even {
			mid := (lonInt[0] + lonInt[1]) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				lonInt[0] = mid
			} else {
				lonInt[1] = mid
			}
		} else {
			mid := (latInt[0] + latInt[1]) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latInt[0] = mid
			} else {
				latInt[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			out = append(out, base32[ch])
			bit = 0
			ch = 0
		}
	}
	return string(out), BBox{MinLat: latInt[0], MaxLat: latInt[1], MinLon: lonInt[0], MaxLon: lonInt[1]}
}
