// 包 videometa：通过 ffprobe 读取视频时长、绝对起始时间与流信息，供时间对齐使用
package videometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"geotruth/internal/logger"
)

// 文档注释：视频元数据
// 背景：Duration/FPS/SizeBytes 未知时为 0；Start 取自容器 creation_time 标签，缺失或无法解析时为 nil。
type Metadata struct {
	Filename     string     `json:"filename"`
	Duration     float64    `json:"duration_seconds"`
	Start        *time.Time `json:"start_time,omitempty"`
	CreationTime string     `json:"creation_time,omitempty"`
	FPS          float64    `json:"fps"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Codec        string     `json:"codec,omitempty"`
	SizeBytes    int64      `json:"file_size_bytes"`
	HasAudio     bool       `json:"has_audio"`
	AudioCodec   string     `json:"audio_codec,omitempty"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Filename string            `json:"filename"`
	Duration string            `json:"duration"`
	Size     string            `json:"size"`
	Tags     map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// 文档注释：执行 ffprobe 并解析 JSON 输出
// 约束：binary 为空时使用 PATH 中的 ffprobe；子进程受 ctx 控制。
func Probe(ctx context.Context, binary, path string) (Metadata, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Metadata{}, errors.New("ffprobe: empty path")
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return Metadata{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return Metadata{}, fmt.Errorf("ffprobe: %w", err)
	}
	md, err := Decode(out)
	if err != nil {
		return Metadata{}, err
	}
	md.Filename = filepath.Base(path)
	logger.L().Debug("video_probed", "file", md.Filename, "duration_s", md.Duration, "has_start", md.Start != nil)
	return md, nil
}

// Decode 解析 ffprobe -of json 的输出
func Decode(raw []byte) (Metadata, error) {
	var p probeOutput
	if err := json.Unmarshal(raw, &p); err != nil {
		return Metadata{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	md := Metadata{
		Filename:  filepath.Base(p.Format.Filename),
		Duration:  nonNegative(p.Format.Duration),
		SizeBytes: int64(nonNegative(p.Format.Size)),
	}
	if p.Format.Filename == "" {
		md.Filename = ""
	}
	if ct := strings.TrimSpace(p.Format.Tags["creation_time"]); ct != "" {
		md.CreationTime = ct
		if ts, err := time.Parse(time.RFC3339Nano, ct); err == nil {
			u := ts.UTC()
			md.Start = &u
		}
	}
	for _, s := range p.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if md.Codec != "" {
				continue
			}
			md.Codec = s.CodecName
			md.Width, md.Height = s.Width, s.Height
			if fps, ok := ParseFrameRate(s.AvgFrameRate); ok {
				md.FPS = fps
			} else if fps, ok := ParseFrameRate(s.RFrameRate); ok {
				md.FPS = fps
			}
		case "audio":
			if !md.HasAudio {
				md.HasAudio = true
				md.AudioCodec = s.CodecName
			}
		}
	}
	return md, nil
}

// 文档注释：解析帧率字符串
// 背景：ffprobe 以分数（"30000/1001"）或小数给出；分母为 0（"0/0"）视为未知。
func ParseFrameRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d <= 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func nonNegative(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
