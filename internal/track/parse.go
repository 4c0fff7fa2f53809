package track

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geotruth/internal/logger"
	"geotruth/internal/metrics"
)

// 文档注释：解析格式字符串（接口入参）
// 约束：空串表示交由 Detect 判定；其余未知取值返回 ErrUnknownFormat。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "gpx":
		return FormatGPX, nil
	case "nmea", "log", "txt":
		return FormatNMEA, nil
	}
	return "", ErrUnknownFormat
}

// 文档注释：格式判定
// 背景：优先按扩展名（.gpx → GPX；.nmea/.log/.txt → NMEA），否则嗅探内容中的 <gpx 或 $GPRMC/$GPGGA 标记。
func Detect(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gpx":
		return FormatGPX, nil
	case ".nmea", ".log", ".txt":
		return FormatNMEA, nil
	}
	if bytes.Contains(data, []byte("<gpx")) {
		return FormatGPX, nil
	}
	if bytes.Contains(data, []byte("$GPRMC")) || bytes.Contains(data, []byte("$GPGGA")) {
		return FormatNMEA, nil
	}
	return "", ErrUnknownFormat
}

// ParseFile 读取文件并解析；读取是本包唯一的阻塞 I/O
func ParseFile(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}
	return Parse(path, data, "")
}

// 文档注释：解析内存中的轨迹数据
// 参数：name 用于扩展名判定与 SourceFile；format 为空时自动判定。
// 返回：整文件失败（未知格式/零点）时不返回部分轨迹。
func Parse(name string, data []byte, format Format) (*Track, error) {
	return parseAt(name, data, format, time.Now().UTC())
}

// parseAt 以固定的解析时刻运行，缺失时间与 GGA 日期均取自 now
func parseAt(name string, data []byte, format Format, now time.Time) (*Track, error) {
	if format == "" {
		f, err := Detect(name, data)
		if err != nil {
			metrics.TrackParseFailTotal.WithLabelValues("unknown_format").Inc()
			return nil, err
		}
		format = f
	}
	var (
		points  []Point
		skipped int
		trkName *string
	)
	switch format {
	case FormatGPX:
		points, skipped, trkName = parseGPX(data, now)
	case FormatNMEA:
		points, skipped = parseNMEA(data, now)
	default:
		metrics.TrackParseFailTotal.WithLabelValues("unknown_format").Inc()
		return nil, ErrUnknownFormat
	}
	metrics.PointsSkippedTotal.WithLabelValues(string(format)).Add(float64(skipped))
	src := ""
	if name != "" {
		src = filepath.Base(name)
	}
	t, err := New(points, format, src, trkName)
	if err != nil {
		metrics.TrackParseFailTotal.WithLabelValues("no_points").Inc()
		logger.L().Warn("track_no_points", "file", name, "format", format, "skipped", skipped)
		return nil, err
	}
	metrics.TracksParsedTotal.WithLabelValues(string(format)).Inc()
	metrics.PointsParsedTotal.WithLabelValues(string(format)).Add(float64(t.PointCount))
	logger.L().Info("track_parsed", "file", t.SourceFile, "format", format, "points", t.PointCount, "skipped", skipped)
	return t, nil
}
