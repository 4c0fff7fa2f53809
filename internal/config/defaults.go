package config

import "path/filepath"

// Default 返回未经文件与环境覆盖的默认配置
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			APIBase:      "/api",
			RateLimitQPS: 200,
			TLSCertPath:  filepath.Join("data", "certs", "server.crt"),
			TLSKeyPath:   filepath.Join("data", "certs", "server.key"),
		},
		Verify: Verify{
			POIRadiusM:      500,
			FOVDeg:          90,
			CacheTTLSeconds: 3600,
			CacheSize:       4096,
		},
		Pipeline: Pipeline{
			SampleIntervalS: 5,
			FFprobeBin:      "ffprobe",
			DataDir:         "data",
		},
		Store: Store{
			Driver:     "sqlite",
			SQLitePath: filepath.Join("data", "geotruth.db"),
		},
		Postgres: Postgres{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			DB:           "geotruth",
			SSLMode:      "disable",
			MaxOpenConns: 50,
			MaxIdleConns: 25,
		},
		Redis: Redis{
			Host: "127.0.0.1",
			Port: "6379",
		},
	}
}
