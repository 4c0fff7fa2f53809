package truth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"geotruth/internal/geomath"
	"geotruth/internal/logger"
	"geotruth/internal/metrics"
	"geotruth/internal/track"
)

// DefaultRadiusM 周边 POI 默认查询半径（米）
const DefaultRadiusM = 500.0

// 文档注释：离线核验引擎配置
// 背景：瓦片与 POI 索引路径均可选；Source 为空且 LoadPOIIndex 为真时从 POIIndexPath 加载 KD 索引。
type Config struct {
	TilesPath    string
	POIIndexPath string
	LoadPOIIndex bool
	RadiusM      float64
	Source       POISource
	Remote       RemoteCache
	RemoteTTL    time.Duration
	MemoSize     int
	MemoTTL      time.Duration
}

// 文档注释：离线核验引擎
// 约束：构造后只读；唯一的可变状态为区域查表记忆，由读写锁保护，可并发调用 Verify。
type Engine struct {
	tilesPath string
	poiPath   string
	radiusM   float64
	source    POISource
	remote    RemoteCache
	remoteTTL time.Duration
	memo      *regionMemo
	log       *slog.Logger
}

func New(cfg Config) *Engine {
	e := &Engine{
		radiusM:   cfg.RadiusM,
		source:    cfg.Source,
		remote:    cfg.Remote,
		remoteTTL: cfg.RemoteTTL,
		memo:      newRegionMemo(cfg.MemoSize, cfg.MemoTTL),
		log:       logger.With("truth"),
	}
	if e.radiusM <= 0 {
		e.radiusM = DefaultRadiusM
	}
	if e.remoteTTL <= 0 {
		e.remoteTTL = 10 * time.Minute
	}
	if cfg.TilesPath != "" {
		if exists(cfg.TilesPath) {
			e.tilesPath = cfg.TilesPath
			e.log.Info("tiles_configured", "path", cfg.TilesPath)
		} else {
			e.log.Warn("tiles_not_found", "path", cfg.TilesPath)
		}
	}
	if cfg.POIIndexPath != "" {
		if exists(cfg.POIIndexPath) {
			e.poiPath = cfg.POIIndexPath
			e.log.Info("poi_index_configured", "path", cfg.POIIndexPath)
		} else {
			e.log.Warn("poi_index_not_found", "path", cfg.POIIndexPath)
		}
	}
	if e.source == nil && cfg.LoadPOIIndex && e.poiPath != "" {
		if idx, err := LoadKDIndex(e.poiPath); err != nil {
			e.log.Warn("poi_index_load_fail", "err", err.Error())
		} else {
			e.source = idx
			e.log.Info("poi_index_loaded", "places", idx.Len())
		}
	}
	if e.source == nil {
		e.source = emptySource{}
	}
	return e
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Available 构造时瓦片或 POI 索引任一存在即为可用
func (e *Engine) Available() bool { return e.tilesPath != "" || e.poiPath != "" }

// Tiles 返回已确认存在的瓦片路径
func (e *Engine) Tiles() (string, error) {
	if e.tilesPath == "" {
		return "", ErrTilesNotFound
	}
	return e.tilesPath, nil
}

// RadiusM 当前 POI 查询半径
func (e *Engine) RadiusM() float64 { return e.radiusM }

// 文档注释：单点离线核验
// 背景：位置取自原始点（匹配坐标与道路名留空）→ 国家/时区查表 → 半径内 POI 与视场判定 → 事实 → 聚合置信度。
// 约束：没有朝向时所有 POI 的 InFOV 为假；查表未命中不是错误。
// 返回：仅 POI 数据源 I/O 失败或 ctx 取消时返回错误。
func (e *Engine) Verify(ctx context.Context, p track.Point, fovDeg float64) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	start := time.Now()
	metrics.VerifyRequestsTotal.Inc()
	defer func() { metrics.VerifyDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000) }()

	key := bundleKey(p, fovDeg)
	if b, ok := e.remoteGet(ctx, key, p); ok {
		metrics.CacheHitsTotal.WithLabelValues("remote").Inc()
		metrics.VerifyConfidenceTotal.WithLabelValues(b.Confidence.String()).Inc()
		return b, nil
	}
	if e.remote != nil {
		metrics.CacheMissesTotal.WithLabelValues("remote").Inc()
	}

	info, hit := e.memo.lookup(p.Lat, p.Lon)
	if hit {
		metrics.CacheHitsTotal.WithLabelValues("memo").Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues("memo").Inc()
	}
	loc := Location{Lat: p.Lat, Lon: p.Lon, Country: optional(info.country), Timezone: optional(info.timezone)}

	pois, err := e.nearbyPOIs(ctx, p, fovDeg)
	if err != nil {
		return Bundle{}, err
	}

	facts := []Fact{}
	if loc.Country != nil {
		facts = append(facts, Fact{Kind: FactCountry, Name: "Country", Value: *loc.Country, Confidence: Medium, Source: SourceLocal})
	}
	if loc.Timezone != nil {
		facts = append(facts, Fact{Kind: FactTimezone, Name: "Timezone", Value: *loc.Timezone, Confidence: High, Source: SourceLocal})
	}

	b := Bundle{Location: loc, POIs: pois, Facts: facts, Mode: ModeOffline, Confidence: aggregate(pois, facts)}
	metrics.VerifyConfidenceTotal.WithLabelValues(b.Confidence.String()).Inc()
	e.log.Debug("verify_done", "lat", p.Lat, "lon", p.Lon, "pois", len(pois), "facts", len(facts), "confidence", b.Confidence.String())
	e.remoteSet(ctx, key, b)
	return b, nil
}

func (e *Engine) nearbyPOIs(ctx context.Context, p track.Point, fovDeg float64) ([]POI, error) {
	places, err := e.source.Nearby(ctx, p.Lat, p.Lon, e.radiusM)
	if err != nil {
		return nil, fmt.Errorf("poi query: %w", err)
	}
	out := make([]POI, 0, len(places))
	for _, pl := range places {
		d := geomath.DistanceMeters(p.Lat, p.Lon, pl.Lat, pl.Lon)
		if d > e.radiusM {
			continue
		}
		brg := geomath.Bearing(p.Lat, p.Lon, pl.Lat, pl.Lon)
		in := p.Heading != nil && geomath.InFOV(*p.Heading, brg, fovDeg)
		out = append(out, POI{
			ID: pl.ID, Name: pl.Name, Category: pl.Category,
			Lat: pl.Lat, Lon: pl.Lon,
			DistanceM: d, BearingDeg: brg, InFOV: in,
			Facts: []Fact{},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	return out, nil
}

// 文档注释：聚合置信度
// 约束：POI 与事实均为空 → Low；POI 多于两个 → High；其余 → Medium。
func aggregate(pois []POI, facts []Fact) Confidence {
	switch {
	case len(pois) == 0 && len(facts) == 0:
		return Low
	case len(pois) > 2:
		return High
	}
	return Medium
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
