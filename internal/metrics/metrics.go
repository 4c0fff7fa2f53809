package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TracksParsedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_tracks_parsed_total",
		Help: "Total number of successfully parsed tracks by format",
	}, []string{"format"})
	TrackParseFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_track_parse_fail_total",
		Help: "Total number of whole-file track parse failures by reason",
	}, []string{"reason"})
	PointsParsedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_points_parsed_total",
		Help: "Total number of GPS fixes kept after parsing",
	}, []string{"format"})
	PointsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_points_skipped_total",
		Help: "Total number of malformed or invalid fixes skipped during parsing",
	}, []string{"format"})
	SyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_sync_total",
		Help: "Total number of successful alignments by method",
	}, []string{"method"})
	SyncFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_sync_fail_total",
		Help: "Total number of alignment failures by reason",
	}, []string{"reason"})
	VerifyRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotruth_verify_requests_total",
		Help: "Total number of offline verification queries",
	})
	VerifyDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geotruth_verify_duration_ms",
		Help:    "Offline verification duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
	})
	VerifyConfidenceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_verify_confidence_total",
		Help: "Truth bundles produced by aggregate confidence tier",
	}, []string{"tier"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_cache_hits_total",
		Help: "Lookup cache hits by layer",
	}, []string{"layer"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotruth_cache_misses_total",
		Help: "Lookup cache misses by layer",
	}, []string{"layer"})
	EventsPersistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotruth_events_persisted_total",
		Help: "Total number of truth events written to the store",
	})
)

func init() {
	prometheus.MustRegister(TracksParsedTotal)
	prometheus.MustRegister(TrackParseFailTotal)
	prometheus.MustRegister(PointsParsedTotal)
	prometheus.MustRegister(PointsSkippedTotal)
	prometheus.MustRegister(SyncTotal)
	prometheus.MustRegister(SyncFailTotal)
	prometheus.MustRegister(VerifyRequestsTotal)
	prometheus.MustRegister(VerifyDurationMs)
	prometheus.MustRegister(VerifyConfidenceTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(EventsPersistedTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
