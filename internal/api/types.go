package api

import (
	"time"

	"geotruth/internal/align"
	"geotruth/internal/geomath"
	"geotruth/internal/track"
)

// 文档注释：轨迹摘要（对外）
// 背景：上传接口不回传全部定位点，仅返回统计信息与对齐结果；对齐点数量可能很大，由 points 参数控制是否附带。
type trackSummary struct {
	Name       *string      `json:"name,omitempty"`
	SourceFile string       `json:"source_file,omitempty"`
	Format     track.Format `json:"track_type"`
	PointCount int          `json:"point_count"`
	Start      time.Time    `json:"start_time"`
	End        time.Time    `json:"end_time"`
	DurationS  float64      `json:"duration_seconds"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
	Bounds     geomath.BBox `json:"bounds"`
}

func summarize(t *track.Track) trackSummary {
	s := trackSummary{
		Name:       t.Name,
		SourceFile: t.SourceFile,
		Format:     t.Format,
		PointCount: t.PointCount,
		Start:      t.Start,
		End:        t.End,
		DurationS:  t.Duration().Seconds(),
		Bounds:     t.Bounds,
	}
	if d, ok := t.DistanceKm(); ok {
		s.DistanceKm = &d
	}
	return s
}

type syncSummary struct {
	Offset     float64              `json:"offset_seconds"`
	Confidence float64              `json:"confidence"`
	Method     align.Method         `json:"method"`
	Aligned    int                  `json:"aligned_count"`
	Points     []align.AlignedPoint `json:"aligned_points,omitempty"`
}

type trackResponse struct {
	Track trackSummary `json:"track"`
	Sync  syncSummary  `json:"sync"`
}

type errorBody struct {
	Error string `json:"error"`
}
