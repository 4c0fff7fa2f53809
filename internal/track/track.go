package track

import (
	"sort"
	"time"

	"geotruth/internal/geomath"
)

// 文档注释：由定位点集合构造轨迹
// 背景：两种格式解析器共用的后处理；稳定排序保证同一时间戳的点保留原始顺序。
// 约束：points 为空时返回 ErrNoPoints；入参切片会被原地排序。
func New(points []Point, format Format, sourceFile string, name *string) (*Track, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	b := geomath.NewBBox()
	for _, p := range points {
		b.Extend(p.Lat, p.Lon)
	}
	return &Track{
		Name:       name,
		SourceFile: sourceFile,
		Format:     format,
		PointCount: len(points),
		Start:      points[0].Timestamp,
		End:        points[len(points)-1].Timestamp,
		Bounds:     b,
		Points:     points,
	}, nil
}

// Duration 首尾定位点的时间跨度
func (t *Track) Duration() time.Duration { return t.End.Sub(t.Start) }

// 文档注释：轨迹总里程（千米）
// 背景：逐段 Haversine 累加；少于两个点时无意义，ok 返回 false。
func (t *Track) DistanceKm() (float64, bool) {
	if len(t.Points) < 2 {
		return 0, false
	}
	total := 0.0
	for i := 1; i < len(t.Points); i++ {
		p1, p2 := t.Points[i-1], t.Points[i]
		total += geomath.Haversine(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	}
	return total, true
}
