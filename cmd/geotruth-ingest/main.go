// 命令行：离线处理单个视频（可选轨迹与转写），结果写库并输出汇总表
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"geotruth/internal/config"
	"geotruth/internal/logger"
	"geotruth/internal/pipeline"
	"geotruth/internal/store"
	"geotruth/internal/truth"
)

func main() {
	video := flag.String("video", "", "视频文件路径")
	gps := flag.String("gps", "", "GPX/NMEA 轨迹文件路径（可选）")
	segments := flag.String("segments", "", "转写片段 JSON 路径（可选）")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	showEvents := flag.Bool("events", false, "输出逐事件明细")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	if *video == "" {
		fmt.Fprintln(os.Stderr, "usage: geotruth-ingest -video <file> [-gps <file>] [-segments <json>] [-config <toml>]")
		os.Exit(2)
	}
	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	// 约束：同一数据目录只允许一个写入进程
	if err := os.MkdirAll(cfg.Pipeline.DataDir, 0o755); err != nil {
		l.Error("data_dir_error", "err", err)
		os.Exit(1)
	}
	lockPath := filepath.Join(cfg.Pipeline.DataDir, ".geotruth.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		l.Error("lock_error", "err", err, "path", lockPath)
		os.Exit(1)
	}
	if !ok {
		l.Error("lock_busy", "path", lockPath)
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	var segs []store.Segment
	if *segments != "" {
		if segs, err = pipeline.LoadSegments(*segments); err != nil {
			l.Error("segments_error", "err", err)
			os.Exit(1)
		}
	}

	st, err := store.Open(cfg)
	if err != nil {
		l.Error("store_open_error", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	eng := truth.New(truth.Config{
		TilesPath:    cfg.Verify.TilesPath,
		POIIndexPath: cfg.Verify.POIIndexPath,
		LoadPOIIndex: cfg.Verify.POIIndexEnable,
		RadiusM:      cfg.Verify.POIRadiusM,
		MemoSize:     cfg.Verify.CacheSize,
		MemoTTL:      time.Duration(cfg.Verify.CacheTTLSeconds) * time.Second,
	})
	proc := pipeline.New(pipeline.FFprobe(cfg.Pipeline.FFprobeBin), st, eng, pipeline.Options{
		SampleIntervalS: cfg.Pipeline.SampleIntervalS,
		FOVDeg:          cfg.Verify.FOVDeg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rep, err := proc.Process(ctx, pipeline.Input{VideoPath: *video, GPSPath: *gps, Segments: segs})
	if err != nil {
		l.Error("ingest_error", "err", err)
		stop()
		_ = lock.Unlock()
		os.Exit(1)
	}
	fmt.Println(renderSummary(rep))
	if *showEvents {
		fmt.Println(renderEvents(rep.Events))
	}
}
