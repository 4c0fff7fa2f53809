// 包 pipeline：单个视频的离线处理流程（元数据 → 轨迹 → 对齐 → 采样核验 → 入库）
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"geotruth/internal/align"
	"geotruth/internal/logger"
	"geotruth/internal/store"
	"geotruth/internal/track"
	"geotruth/internal/truth"
	"geotruth/internal/videometa"
)

const (
	EventLocation   = "location"
	EventTranscript = "transcript"
)

// Prober 读取视频元数据；默认实现为 videometa.Probe
type Prober func(ctx context.Context, path string) (videometa.Metadata, error)

// Store 流程所需的持久化操作，由 *store.Store 实现
type Store interface {
	SaveVideo(ctx context.Context, v store.Video) (string, error)
	UpdateSync(ctx context.Context, videoID, method string, offset, confidence float64) error
	SaveTrack(ctx context.Context, videoID string, pts []track.Point) (int, error)
	SaveEvent(ctx context.Context, e store.Event) (string, error)
	SaveTranscript(ctx context.Context, videoID string, segs []store.Segment) error
}

// Verifier 单点核验，由 *truth.Engine 实现
type Verifier interface {
	Verify(ctx context.Context, p track.Point, fovDeg float64) (truth.Bundle, error)
}

type Options struct {
	SampleIntervalS float64
	FOVDeg          float64
}

type Processor struct {
	probe Prober
	st    Store
	ver   Verifier
	opt   Options
	log   *slog.Logger
}

// FFprobe 以指定可执行文件构造 Prober
func FFprobe(binary string) Prober {
	return func(ctx context.Context, path string) (videometa.Metadata, error) {
		return videometa.Probe(ctx, binary, path)
	}
}

func New(probe Prober, st Store, ver Verifier, opt Options) *Processor {
	if opt.SampleIntervalS <= 0 {
		opt.SampleIntervalS = 5
	}
	if opt.FOVDeg <= 0 {
		opt.FOVDeg = 90
	}
	return &Processor{probe: probe, st: st, ver: ver, opt: opt, log: logger.With("pipeline")}
}

// Input 一次处理的输入；GPSPath 与 Segments 均可选
type Input struct {
	VideoPath string
	GPSPath   string
	Segments  []store.Segment
}

// Report 处理结果；SyncError 非空表示对齐失败但事件仍已生成
type Report struct {
	VideoID   string             `json:"video_id"`
	Video     videometa.Metadata `json:"video"`
	Track     *track.Track       `json:"-"`
	Points    int                `json:"gps_points"`
	Sync      *align.Result      `json:"sync,omitempty"`
	SyncError string             `json:"sync_error,omitempty"`
	Events    []store.Event      `json:"events"`
}

// Verified 已完成核验的事件数
func (r *Report) Verified() int {
	n := 0
	for _, e := range r.Events {
		if e.Verified {
			n++
		}
	}
	return n
}

// 文档注释：处理单个视频
// 背景：元数据、入库与轨迹读取失败直接返回；对齐失败或单点核验失败只降级为未核验事件。
// 约束：采样点为每个转写片段起点，无转写时按 SampleIntervalS 覆盖 [0, duration]。
func (p *Processor) Process(ctx context.Context, in Input) (*Report, error) {
	meta, err := p.probe(ctx, in.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(in.VideoPath)
	}
	vid, err := p.st.SaveVideo(ctx, store.Video{
		Filename:  meta.Filename,
		FilePath:  in.VideoPath,
		Duration:  meta.Duration,
		FPS:       meta.FPS,
		Width:     meta.Width,
		Height:    meta.Height,
		Codec:     meta.Codec,
		SizeBytes: meta.SizeBytes,
		Start:     meta.Start,
	})
	if err != nil {
		return nil, err
	}
	rep := &Report{VideoID: vid, Video: meta, Events: []store.Event{}}
	l := p.log.With("video_id", vid)

	var res *align.Result
	if in.GPSPath != "" {
		t, err := track.ParseFile(in.GPSPath)
		if err != nil {
			return nil, err
		}
		n, err := p.st.SaveTrack(ctx, vid, t.Points)
		if err != nil {
			return nil, err
		}
		rep.Track, rep.Points = t, n
		r, err := align.New(t, meta.Duration, meta.Start).Synchronize()
		if err != nil {
			rep.SyncError = err.Error()
			l.Warn("pipeline_sync_fail", "err", err.Error())
		} else {
			res = &r
			rep.Sync = res
			if err := p.st.UpdateSync(ctx, vid, r.Method.String(), r.Offset, r.Confidence); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range p.samples(meta.Duration, in.Segments) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev := store.Event{VideoID: vid, Type: s.kind, Start: s.start, End: s.end}
		if res != nil {
			if err := p.locate(ctx, *res, &ev); err != nil {
				return nil, err
			}
		}
		id, err := p.st.SaveEvent(ctx, ev)
		if err != nil {
			return nil, err
		}
		ev.ID = id
		rep.Events = append(rep.Events, ev)
	}

	if len(in.Segments) > 0 {
		if err := p.st.SaveTranscript(ctx, vid, in.Segments); err != nil {
			return nil, err
		}
	}
	l.Info("pipeline_done", "events", len(rep.Events), "verified", rep.Verified(), "points", rep.Points)
	return rep, nil
}

// locate 为事件补充位置与核验结果；仅 ctx 取消向上返回
func (p *Processor) locate(ctx context.Context, res align.Result, ev *store.Event) error {
	pt, ok := res.PointAt(ev.Start)
	if !ok {
		return nil
	}
	lat, lon := pt.Lat, pt.Lon
	ev.Lat, ev.Lon, ev.Heading = &lat, &lon, pt.Heading
	b, err := p.ver.Verify(ctx, pt, p.opt.FOVDeg)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Warn("pipeline_verify_fail", "t", ev.Start, "err", err.Error())
		return nil
	}
	ev.Verified, ev.Mode, ev.Bundle = true, b.Mode, &b
	return nil
}

type sample struct {
	kind  string
	start float64
	end   *float64
}

func (p *Processor) samples(duration float64, segs []store.Segment) []sample {
	if len(segs) > 0 {
		out := make([]sample, 0, len(segs))
		for _, s := range segs {
			end := float64(s.EndMs) / 1000
			out = append(out, sample{kind: EventTranscript, start: float64(s.StartMs) / 1000, end: &end})
		}
		return out
	}
	if !(duration > 0) {
		duration = 0
	}
	step := p.opt.SampleIntervalS
	n := int(math.Floor(duration/step)) + 1
	out := make([]sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sample{kind: EventLocation, start: float64(i) * step})
	}
	return out
}

// LoadSegments 读取转写片段 JSON 数组（start_ms/end_ms/text）
func LoadSegments(path string) ([]store.Segment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	var segs []store.Segment
	if err := json.Unmarshal(raw, &segs); err != nil {
		return nil, fmt.Errorf("decode segments %s: %w", path, err)
	}
	for i, s := range segs {
		if s.StartMs < 0 || s.EndMs < s.StartMs {
			return nil, fmt.Errorf("segment %d: invalid range %d..%d", i, s.StartMs, s.EndMs)
		}
	}
	return segs, nil
}
