package align

import (
	"time"

	"geotruth/internal/logger"
	"geotruth/internal/metrics"
	"geotruth/internal/track"
)

// 文档注释：时间同步引擎
// 背景：持有只读轨迹、视频时长（秒）与可选的视频绝对起点；不保存对齐结果。
type Engine struct {
	track      *track.Track
	duration   float64
	videoStart *time.Time
}

func New(t *track.Track, durationSeconds float64, videoStart *time.Time) *Engine {
	return &Engine{track: t, duration: durationSeconds, videoStart: videoStart}
}

// 文档注释：自动对齐
// 背景：视频元数据与轨迹起点均已知时先尝试 video-metadata（置信度 0.9）；
// 无可用点时回退 first-point，假定轨迹首点对应视频 0 秒（置信度 0.5）。
// 返回：空轨迹返回 ErrNoGpsPoints；两种策略均无交集返回 ErrNoOverlap。
func (e *Engine) Synchronize() (Result, error) {
	if e.track == nil || len(e.track.Points) == 0 {
		metrics.SyncFailTotal.WithLabelValues("no_points").Inc()
		return Result{}, ErrNoGpsPoints
	}
	if r, ok := e.byVideoMetadata(); ok {
		return e.done(r), nil
	}
	if e.videoStart != nil {
		logger.L().Info("sync_fallback_first_point", "reason", "no_points_in_window")
	}
	start := e.track.Start
	pts := e.alignFrom(start, 0)
	if len(pts) == 0 {
		metrics.SyncFailTotal.WithLabelValues("no_overlap").Inc()
		logger.L().Warn("sync_no_overlap", "points", len(e.track.Points), "duration_s", e.duration)
		return Result{}, ErrNoOverlap
	}
	return e.done(Result{Offset: 0, Confidence: ConfidenceFirstPoint, Method: MethodFirstPoint, Points: pts}), nil
}

func (e *Engine) byVideoMetadata() (Result, bool) {
	if e.videoStart == nil || e.track.Start.IsZero() {
		return Result{}, false
	}
	offset := seconds(e.track.Start.Sub(*e.videoStart))
	pts := e.alignFrom(*e.videoStart, offset)
	if len(pts) == 0 {
		return Result{}, false
	}
	return Result{Offset: offset, Confidence: ConfidenceVideoMetadata, Method: MethodVideoMetadata, Points: pts}, true
}

// 文档注释：使用外部提供的偏移量对齐（manual）
// 背景：偏移量由调用方给出，不在内部推断；参考起点为视频绝对起点，未知时退化为轨迹起点。
func (e *Engine) SynchronizeManual(offsetSeconds float64) (Result, error) {
	if e.track == nil || len(e.track.Points) == 0 {
		metrics.SyncFailTotal.WithLabelValues("no_points").Inc()
		return Result{}, ErrNoGpsPoints
	}
	ref := e.track.Start
	if e.videoStart != nil {
		ref = *e.videoStart
	}
	pts := e.alignFrom(ref, offsetSeconds)
	if len(pts) == 0 {
		metrics.SyncFailTotal.WithLabelValues("no_overlap").Inc()
		return Result{}, ErrNoOverlap
	}
	return e.done(Result{Offset: offsetSeconds, Confidence: ConfidenceManual, Method: MethodManual, Points: pts}), nil
}

// alignFrom 视频时间 = (ts - ref) - offset，仅保留 [0, duration] 内的点
func (e *Engine) alignFrom(ref time.Time, offset float64) []AlignedPoint {
	var out []AlignedPoint
	for _, p := range e.track.Points {
		vt := seconds(p.Timestamp.Sub(ref)) - offset
		if vt >= 0 && vt <= e.duration {
			out = append(out, AlignedPoint{VideoTime: vt, Point: p})
		}
	}
	return out
}

func (e *Engine) done(r Result) Result {
	metrics.SyncTotal.WithLabelValues(r.Method.String()).Inc()
	logger.L().Info("sync_done", "method", r.Method.String(), "offset_s", r.Offset, "confidence", r.Confidence, "aligned", len(r.Points))
	return r
}

// seconds 按毫秒截断后转为秒
func seconds(d time.Duration) float64 { return float64(d.Milliseconds()) / 1000 }
