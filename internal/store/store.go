// 包 store：视频、轨迹、事件与转写的持久化访问层，支持 PostgreSQL 与 SQLite
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"geotruth/internal/logger"
	"geotruth/internal/metrics"
	"geotruth/internal/migrate"
	"geotruth/internal/track"
	"geotruth/internal/truth"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store: 数据库访问入口，持有连接池与方言
type Store struct {
	db      *sql.DB
	dialect string
}

// 文档注释：挂接已打开的连接
// 约束：dialect 取 migrate.Postgres 或 migrate.SQLite；SQL 以 ? 占位，PostgreSQL 下改写为 $N。
func AttachDB(db *sql.DB, dialect string) *Store { return &Store{db: db, dialect: dialect} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Dialect() string { return s.dialect }

// Migrate 按当前方言建表
func (s *Store) Migrate() error { return migrate.EnsureSchema(s.db, s.dialect) }

func (s *Store) rebind(q string) string {
	if s.dialect != migrate.Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Video: 视频记录；Start 为容器记录的绝对起点
type Video struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	FilePath       string     `json:"file_path"`
	Duration       float64    `json:"duration_seconds"`
	FPS            float64    `json:"fps"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Codec          string     `json:"codec,omitempty"`
	SizeBytes      int64      `json:"file_size_bytes"`
	Start          *time.Time `json:"start_time,omitempty"`
	SyncMethod     string     `json:"sync_method,omitempty"`
	SyncOffset     float64    `json:"sync_offset_seconds"`
	SyncConfidence float64    `json:"sync_confidence"`
}

// Event: 视频时间轴上的一次核验结果
type Event struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"video_id"`
	Type      string        `json:"event_type"`
	Start     float64       `json:"start_time_seconds"`
	End       *float64      `json:"end_time_seconds,omitempty"`
	Lat       *float64      `json:"lat,omitempty"`
	Lon       *float64      `json:"lon,omitempty"`
	Heading   *float64      `json:"heading_deg,omitempty"`
	Verified  bool          `json:"verified"`
	Mode      string        `json:"verification_mode,omitempty"`
	Bundle    *truth.Bundle `json:"truth_bundle,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Segment: 转写片段（毫秒）
type Segment struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// Totals: 各表记录数
type Totals struct {
	Videos         int64 `json:"videos"`
	Points         int64 `json:"gps_points"`
	Events         int64 `json:"events"`
	VerifiedEvents int64 `json:"verified_events"`
}

// SaveVideo 写入视频记录；ID 为空时生成 UUID
func (s *Store) SaveVideo(ctx context.Context, v Video) (string, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO videos
		(id, filename, file_path, duration_seconds, fps, width, height, codec, file_size_bytes, start_time_ms, created_at_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		v.ID, v.Filename, v.FilePath, v.Duration, v.FPS, v.Width, v.Height, v.Codec, v.SizeBytes, millisPtr(v.Start), nowMillis())
	if err != nil {
		return "", fmt.Errorf("insert video: %w", err)
	}
	logger.L().Debug("video_saved", "id", v.ID, "file", v.Filename)
	return v.ID, nil
}

// UpdateSync 记录对齐方法、偏移与置信度
func (s *Store) UpdateSync(ctx context.Context, videoID, method string, offset, confidence float64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE videos SET sync_method=?, sync_offset_seconds=?, sync_confidence=? WHERE id=?`),
		method, offset, confidence, videoID)
	if err != nil {
		return fmt.Errorf("update sync: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, filename, file_path, duration_seconds, fps, width, height, codec,
		file_size_bytes, start_time_ms, sync_method, sync_offset_seconds, sync_confidence FROM videos WHERE id=?`), id)
	var (
		v                  Video
		codec, method      sql.NullString
		startMs            sql.NullInt64
		offset, confidence sql.NullFloat64
	)
	err := row.Scan(&v.ID, &v.Filename, &v.FilePath, &v.Duration, &v.FPS, &v.Width, &v.Height, &codec,
		&v.SizeBytes, &startMs, &method, &offset, &confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	v.Codec, v.SyncMethod = codec.String, method.String
	v.SyncOffset, v.SyncConfidence = offset.Float64, confidence.Float64
	if startMs.Valid {
		t := time.UnixMilli(startMs.Int64).UTC()
		v.Start = &t
	}
	return &v, nil
}

// 文档注释：批量写入轨迹点
// 背景：单事务内预编译插入，失败整体回滚。
func (s *Store) SaveTrack(ctx context.Context, videoID string, pts []track.Point) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO gps_points
		(video_id, timestamp_ms, lat, lon, elevation_m, speed_kmh, heading_deg, accuracy_m) VALUES (?,?,?,?,?,?,?,?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, p := range pts {
		if _, err := stmt.ExecContext(ctx, videoID, p.Timestamp.UnixMilli(), p.Lat, p.Lon,
			nullFloat(p.Elevation), nullFloat(p.Speed), nullFloat(p.Heading), nullFloat(p.Accuracy)); err != nil {
			return 0, fmt.Errorf("insert point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logger.L().Debug("track_saved", "video_id", videoID, "points", len(pts))
	return len(pts), nil
}

// LoadTrack 按时间顺序读取视频关联的轨迹点
func (s *Store) LoadTrack(ctx context.Context, videoID string) ([]track.Point, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT timestamp_ms, lat, lon, elevation_m, speed_kmh, heading_deg, accuracy_m
		FROM gps_points WHERE video_id=? ORDER BY timestamp_ms, id`), videoID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()
	var out []track.Point
	for rows.Next() {
		var (
			ms                   int64
			p                    track.Point
			ele, spd, hdg, accur sql.NullFloat64
		)
		if err := rows.Scan(&ms, &p.Lat, &p.Lon, &ele, &spd, &hdg, &accur); err != nil {
			return nil, err
		}
		p.Timestamp = time.UnixMilli(ms).UTC()
		p.Elevation, p.Speed, p.Heading, p.Accuracy = floatPtr(ele), floatPtr(spd), floatPtr(hdg), floatPtr(accur)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveEvent 写入事件；Bundle 以 JSON 文本保存
func (s *Store) SaveEvent(ctx context.Context, e Event) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	var bundle, confidence sql.NullString
	if e.Bundle != nil {
		b, err := json.Marshal(e.Bundle)
		if err != nil {
			return "", fmt.Errorf("encode bundle: %w", err)
		}
		bundle = sql.NullString{String: string(b), Valid: true}
		confidence = sql.NullString{String: e.Bundle.Confidence.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO events
		(id, video_id, event_type, start_time_seconds, end_time_seconds, lat, lon, heading_deg, verified, verification_mode, confidence, truth_bundle_json, created_at_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		e.ID, e.VideoID, e.Type, e.Start, nullFloat(e.End), nullFloat(e.Lat), nullFloat(e.Lon), nullFloat(e.Heading),
		e.Verified, nullString(e.Mode), confidence, bundle, nowMillis())
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	metrics.EventsPersistedTotal.Inc()
	return e.ID, nil
}

const eventColumns = `id, video_id, event_type, start_time_seconds, end_time_seconds, lat, lon, heading_deg, verified, verification_mode, truth_bundle_json, created_at_ms`

func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+eventColumns+` FROM events WHERE id=?`), id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents 按视频时间升序返回事件
func (s *Store) ListEvents(ctx context.Context, videoID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+eventColumns+` FROM events WHERE video_id=? ORDER BY start_time_seconds`), videoID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanEvent(r scanner) (*Event, error) {
	var (
		e                  Event
		end, lat, lon, hdg sql.NullFloat64
		mode, bundle       sql.NullString
		created            int64
	)
	if err := r.Scan(&e.ID, &e.VideoID, &e.Type, &e.Start, &end, &lat, &lon, &hdg, &e.Verified, &mode, &bundle, &created); err != nil {
		return nil, err
	}
	e.End, e.Lat, e.Lon, e.Heading = floatPtr(end), floatPtr(lat), floatPtr(lon), floatPtr(hdg)
	e.Mode = mode.String
	e.CreatedAt = time.UnixMilli(created).UTC()
	if bundle.Valid && bundle.String != "" {
		var b truth.Bundle
		if err := json.Unmarshal([]byte(bundle.String), &b); err != nil {
			return nil, fmt.Errorf("decode bundle: %w", err)
		}
		e.Bundle = &b
	}
	return &e, nil
}

// SaveTranscript 写入转写片段
func (s *Store) SaveTranscript(ctx context.Context, videoID string, segs []Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, sg := range segs {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO transcriptions (video_id, start_ms, end_ms, text) VALUES (?,?,?,?)`),
			videoID, sg.StartMs, sg.EndMs, sg.Text); err != nil {
			return fmt.Errorf("insert segment: %w", err)
		}
	}
	return tx.Commit()
}

// Totals: 读取各表记录数，用于接口返回
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	queries := []struct {
		q   string
		dst *int64
	}{
		{"SELECT COUNT(1) FROM videos", &t.Videos},
		{"SELECT COUNT(1) FROM gps_points", &t.Points},
		{"SELECT COUNT(1) FROM events", &t.Events},
		{"SELECT COUNT(1) FROM events WHERE verified = TRUE", &t.VerifiedEvents},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.q).Scan(q.dst); err != nil {
			return Totals{}, fmt.Errorf("totals: %w", err)
		}
	}
	logger.L().Debug("stats_totals", "videos", t.Videos, "events", t.Events)
	return t, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func millisPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
