package truth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"geotruth/internal/geomath"
	"geotruth/internal/track"
)

// remotePrecision 约 3.7cm 网格，远小于 GPS 精度
const remotePrecision = 12

// 文档注释：跨进程真值包缓存
// 背景：多实例部署时共享核验结果；任何读写错误由引擎降级为未命中。
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// ErrCacheMiss 远端缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// RedisCache 基于 go-redis 的远端缓存实现
type RedisCache struct {
	c *redis.Client
}

func NewRedisCache(c *redis.Client) *RedisCache { return &RedisCache{c: c} }

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.c.Set(ctx, key, val, ttl).Err()
}

// 文档注释：远端缓存键
// 约束：格式 bundle:<geohash12>:<fov>:<heading>，无朝向时为 "-"。
func bundleKey(p track.Point, fovDeg float64) string {
	h := "-"
	if p.Heading != nil {
		h = strconv.FormatFloat(*p.Heading, 'f', -1, 64)
	}
	return "bundle:" + geomath.Geohash(p.Lat, p.Lon, remotePrecision) + ":" + strconv.FormatFloat(fovDeg, 'f', -1, 64) + ":" + h
}

func (e *Engine) remoteGet(ctx context.Context, key string, p track.Point) (Bundle, bool) {
	if e.remote == nil {
		return Bundle{}, false
	}
	b, err := e.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			e.log.Warn("bundle_cache_get_fail", "err", err.Error())
		}
		return Bundle{}, false
	}
	var out Bundle
	if err := json.Unmarshal(b, &out); err != nil {
		e.log.Warn("bundle_cache_decode_fail", "err", err.Error())
		return Bundle{}, false
	}
	// 网格内坐标差异以查询点为准
	out.Location.Lat, out.Location.Lon = p.Lat, p.Lon
	return out, true
}

func (e *Engine) remoteSet(ctx context.Context, key string, b Bundle) {
	if e.remote == nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		e.log.Warn("bundle_cache_encode_fail", "err", err.Error())
		return
	}
	if err := e.remote.Set(ctx, key, raw, e.remoteTTL); err != nil {
		e.log.Warn("bundle_cache_set_fail", "err", err.Error())
	}
}
