package config

import (
	"strconv"
	"strings"
)

type lookupFunc func(string) (string, bool)

// 文档注释：环境变量覆盖
// 约束：空值视为未设置；数值解析失败时保留原值。
func (c *Config) applyEnv(lookup lookupFunc) {
	get := func(k string) (string, bool) {
		v, ok := lookup(k)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(k string, dst *string) {
		if v, ok := get(k); ok {
			*dst = v
		}
	}
	boolean := func(k string, dst *bool) {
		if v, ok := get(k); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(k string, dst *int) {
		if v, ok := get(k); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(k string, dst *float64) {
		if v, ok := get(k); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	str("ADDR", &c.Server.Addr)
	str("API_BASE", &c.Server.APIBase)
	boolean("RATE_LIMIT_ENABLED", &c.Server.RateLimitEnabled)
	float("RATE_LIMIT_QPS", &c.Server.RateLimitQPS)
	boolean("TLS_ENABLE", &c.Server.TLSEnable)
	str("TLS_CERT_PATH", &c.Server.TLSCertPath)
	str("TLS_KEY_PATH", &c.Server.TLSKeyPath)

	str("TILES_PATH", &c.Verify.TilesPath)
	str("POI_INDEX_PATH", &c.Verify.POIIndexPath)
	boolean("POI_INDEX_ENABLE", &c.Verify.POIIndexEnable)
	float("POI_RADIUS_M", &c.Verify.POIRadiusM)
	float("FOV_DEG", &c.Verify.FOVDeg)
	integer("VERIFY_CACHE_TTL_S", &c.Verify.CacheTTLSeconds)
	integer("VERIFY_CACHE_SIZE", &c.Verify.CacheSize)

	float("SAMPLE_INTERVAL_S", &c.Pipeline.SampleIntervalS)
	str("FFPROBE_BIN", &c.Pipeline.FFprobeBin)
	str("DATA_DIR", &c.Pipeline.DataDir)

	str("STORE_DRIVER", &c.Store.Driver)
	str("SQLITE_PATH", &c.Store.SQLitePath)

	str("PG_HOST", &c.Postgres.Host)
	str("PG_PORT", &c.Postgres.Port)
	str("PG_USER", &c.Postgres.User)
	str("PG_PASSWORD", &c.Postgres.Password)
	str("PG_DB", &c.Postgres.DB)
	str("PG_SSLMODE", &c.Postgres.SSLMode)
	integer("PG_MAX_OPEN_CONNS", &c.Postgres.MaxOpenConns)
	integer("PG_MAX_IDLE_CONNS", &c.Postgres.MaxIdleConns)

	boolean("REDIS_ENABLED", &c.Redis.Enabled)
	str("REDIS_HOST", &c.Redis.Host)
	str("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASS", &c.Redis.Pass)
	if v, ok := get("REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Redis.DB = n
		}
	}
}
