// 包 migrate：首次运行自动建表，兼容 PostgreSQL 与 SQLite 两种方言
package migrate

import (
	"database/sql"
	"fmt"
	"strings"

	"geotruth/internal/logger"
)

// 方言标识
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// 背景：视频、定位点、事件与转写四张表；时间统一以毫秒时间戳（BIGINT）存储，避免方言差异
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；{{ID}} 按方言替换为自增主键
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		duration_seconds DOUBLE PRECISION,
		fps DOUBLE PRECISION,
		width INTEGER,
		height INTEGER,
		codec TEXT,
		file_size_bytes BIGINT,
		start_time_ms BIGINT,
		sync_method TEXT,
		sync_offset_seconds DOUBLE PRECISION,
		sync_confidence DOUBLE PRECISION,
		created_at_ms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gps_points (
		id {{ID}},
		video_id TEXT NOT NULL REFERENCES videos(id),
		timestamp_ms BIGINT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		elevation_m DOUBLE PRECISION,
		speed_kmh DOUBLE PRECISION,
		heading_deg DOUBLE PRECISION,
		accuracy_m DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id),
		event_type TEXT NOT NULL,
		start_time_seconds DOUBLE PRECISION NOT NULL,
		end_time_seconds DOUBLE PRECISION,
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION,
		heading_deg DOUBLE PRECISION,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_mode TEXT,
		confidence TEXT,
		truth_bundle_json TEXT,
		created_at_ms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transcriptions (
		id {{ID}},
		video_id TEXT NOT NULL REFERENCES videos(id),
		start_ms BIGINT NOT NULL,
		end_ms BIGINT NOT NULL,
		text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gps_video ON gps_points(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gps_timestamp ON gps_points(timestamp_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_events_video ON events(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_time ON events(start_time_seconds)`,
	`CREATE INDEX IF NOT EXISTS idx_transcriptions_video ON transcriptions(video_id)`,
}

func EnsureSchema(db *sql.DB, dialect string) error {
	var id string
	switch dialect {
	case Postgres:
		id = "BIGSERIAL PRIMARY KEY"
	case SQLite:
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i, "dialect", dialect)
		if _, err := db.Exec(strings.ReplaceAll(s, "{{ID}}", id)); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
