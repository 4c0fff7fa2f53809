// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"geotruth/internal/api"
	"geotruth/internal/config"
	"geotruth/internal/logger"
	"geotruth/internal/metrics"
	"geotruth/internal/middleware"
	"geotruth/internal/store"
	"geotruth/internal/truth"
	"geotruth/internal/utils"
)

// maxUploadBytes 轨迹上传请求体上限
const maxUploadBytes = 64 << 20

func main() {
	configPath := flag.String("config", "", "TOML 配置文件路径（缺省读取 GEOTRUTH_CONFIG）")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")

	cfg, path, found, err := config.Load(*configPath)
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_loaded", "path", path, "found", found, "api_base", cfg.Server.APIBase)

	st, err := store.Open(cfg)
	if err != nil {
		l.Error("store_open_error", "err", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer st.Close()

	var remote truth.RemoteCache
	if cfg.Redis.Enabled {
		rc := utils.OpenRedis(cfg.Redis.Addr(), cfg.Redis.Pass, cfg.Redis.DB)
		if err := rc.Ping(context.Background()).Err(); err != nil {
			// 背景：Redis 不可用时仍注册缓存，读写失败按未命中处理
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		remote = truth.NewRedisCache(rc)
	} else {
		l.Info("redis_disabled")
	}

	eng := truth.New(truth.Config{
		TilesPath:    cfg.Verify.TilesPath,
		POIIndexPath: cfg.Verify.POIIndexPath,
		LoadPOIIndex: cfg.Verify.POIIndexEnable,
		RadiusM:      cfg.Verify.POIRadiusM,
		Remote:       remote,
		RemoteTTL:    time.Duration(cfg.Verify.CacheTTLSeconds) * time.Second,
		MemoSize:     cfg.Verify.CacheSize,
		MemoTTL:      time.Duration(cfg.Verify.CacheTTLSeconds) * time.Second,
	})
	l.Info("truth_engine_ready", "offline_available", eng.Available(), "radius_m", eng.RadiusM())

	apiBase := cfg.Server.APIBase
	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(eng, st, api.Options{DefaultFOVDeg: cfg.Verify.FOVDeg})
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, middleware.Options{
		RateLimitEnabled: cfg.Server.RateLimitEnabled,
		RateLimitQPS:     cfg.Server.RateLimitQPS,
		MaxBodyBytes:     maxUploadBytes,
	})
	s := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	if cfg.Server.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath, "geotruth.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Server.Addr, "cert", cfg.Server.TLSCertPath)
		if err := s.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", cfg.Server.Addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}
