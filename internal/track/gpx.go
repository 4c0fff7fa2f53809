package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"geotruth/internal/logger"
)

// 文档注释：GPX 子集解析（trkpt / wpt / name / ele / time）
// 背景：航迹点与航点合并为同一序列；首个 <name> 作为轨迹名；未识别元素忽略。
// 约束：lat/lon 缺失或非法的点静默跳过而非中断整文件；<time> 缺失或非法时以解析时刻 now 占位；
// XML 结构损坏时保留损坏位置之前已解析的点；不启用 HTML 自动闭合，<link>/<hr> 等扩展元素按普通元素计深度。
func parseGPX(data []byte, now time.Time) ([]Point, int, *string) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var (
		points  []Point
		skipped int
		name    *string
		cur     *gpxPoint
		depth   int
		field   string
		text    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.L().Debug("gpx_decode_stopped", "err", err, "points", len(points))
			}
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			local := strings.ToLower(el.Name.Local)
			if cur == nil && (local == "trkpt" || local == "wpt") {
				cur = newGPXPoint(el.Attr)
				depth = 0
				continue
			}
			if cur != nil {
				depth++
			}
			if field == "" && (local == "name" && name == nil || cur != nil && (local == "ele" || local == "time")) {
				field = local
				text.Reset()
			}
		case xml.CharData:
			if field != "" {
				text.Write(el)
			}
		case xml.EndElement:
			local := strings.ToLower(el.Name.Local)
			if field != "" && local == field {
				v := strings.TrimSpace(text.String())
				switch {
				case field == "name" && name == nil:
					n := v
					name = &n
				case cur != nil && field == "ele" && cur.ele == nil:
					cur.ele = &v
				case cur != nil && field == "time" && cur.time == nil:
					cur.time = &v
				}
				field = ""
			}
			if cur != nil {
				if depth == 0 && (local == "trkpt" || local == "wpt") {
					if p, ok := cur.point(now); ok {
						points = append(points, p)
					} else {
						skipped++
						logger.L().Debug("gpx_point_skipped", "index", len(points)+skipped)
					}
					cur = nil
				} else {
					depth--
				}
			}
		}
	}
	// 文件截断时最后一个点仍可能具备完整属性
	if cur != nil {
		if p, ok := cur.point(now); ok {
			points = append(points, p)
		} else {
			skipped++
		}
	}
	return points, skipped, name
}

type gpxPoint struct {
	lat, lon *string
	ele      *string
	time     *string
}

func newGPXPoint(attrs []xml.Attr) *gpxPoint {
	p := &gpxPoint{}
	for _, a := range attrs {
		v := a.Value
		switch strings.ToLower(a.Name.Local) {
		case "lat":
			p.lat = &v
		case "lon":
			p.lon = &v
		}
	}
	return p
}

func (g *gpxPoint) point(now time.Time) (Point, bool) {
	if g.lat == nil || g.lon == nil {
		return Point{}, false
	}
	lat, ok := parseFinite(*g.lat)
	if !ok {
		return Point{}, false
	}
	lon, ok := parseFinite(*g.lon)
	if !ok {
		return Point{}, false
	}
	p := Point{Lat: lat, Lon: lon, Timestamp: now.Truncate(time.Millisecond)}
	if g.ele != nil {
		if e, ok := parseFinite(*g.ele); ok {
			p.Elevation = &e
		}
	}
	if g.time != nil {
		if ts, err := time.Parse(time.RFC3339Nano, *g.time); err == nil {
			p.Timestamp = ts.UTC().Truncate(time.Millisecond)
		}
	}
	return p, true
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
