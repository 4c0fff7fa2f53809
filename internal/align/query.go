package align

import (
	"math"

	"geotruth/internal/geomath"
	"geotruth/internal/track"
)

// 文档注释：最近点查询
// 背景：返回视频时间与查询时间绝对差最小的对齐点；并列时取列表中最早出现者。
func (r Result) Nearest(videoTime float64) (track.Point, bool) {
	best := -1
	bestD := math.Inf(1)
	for i, p := range r.Points {
		if d := math.Abs(p.VideoTime - videoTime); d < bestD {
			best = i
			bestD = d
		}
	}
	if best < 0 {
		return track.Point{}, false
	}
	return r.Points[best].Point, true
}

// 文档注释：按视频时间插值位置
// 背景：单次前向扫描找到最后一个 ≤ t 的点（before）与第一个 > t 的点（after）；两者皆有时线性插值，
// 仅一侧存在时原样返回该点坐标（不外推），对齐列表为空时 ok 为 false。
func (r Result) Interpolate(videoTime float64) (Position, bool) {
	var before, after *AlignedPoint
	for i := range r.Points {
		p := &r.Points[i]
		if p.VideoTime <= videoTime {
			before = p
			continue
		}
		after = p
		break
	}
	switch {
	case before != nil && after != nil:
		f := geomath.Fraction(before.VideoTime, after.VideoTime, videoTime)
		return Position{
			Lat:     geomath.Lerp(before.Point.Lat, after.Point.Lat, f),
			Lon:     geomath.Lerp(before.Point.Lon, after.Point.Lon, f),
			Heading: geomath.InterpolateHeading(before.Point.Heading, after.Point.Heading, f),
		}, true
	case before != nil:
		return positionOf(before.Point), true
	case after != nil:
		return positionOf(after.Point), true
	}
	return Position{}, false
}

func positionOf(p track.Point) Position {
	out := Position{Lat: p.Lat, Lon: p.Lon}
	if p.Heading != nil {
		h := *p.Heading
		out.Heading = &h
	}
	return out
}

// 文档注释：插值位置转为可核验的定位点
// 背景：核验引擎以 track.Point 为入参；时间取最近对齐点的时间戳，朝向取插值结果。
func (r Result) PointAt(videoTime float64) (track.Point, bool) {
	pos, ok := r.Interpolate(videoTime)
	if !ok {
		return track.Point{}, false
	}
	near, _ := r.Nearest(videoTime)
	return track.Point{Timestamp: near.Timestamp, Lat: pos.Lat, Lon: pos.Lon, Heading: pos.Heading, Elevation: near.Elevation}, true
}
