// 包 align：将 GPS 绝对时间映射到视频相对时间轴，并提供按视频时间的定位查询与插值
package align

import (
	"errors"
	"fmt"

	"geotruth/internal/track"
)

var (
	// ErrNoGpsPoints 轨迹为空，无法对齐
	ErrNoGpsPoints = errors.New("no GPS points available")
	// ErrNoOverlap 轨迹时间窗与视频时长没有交集
	ErrNoOverlap = errors.New("time ranges don't overlap")
)

// 各策略的固定置信度
const (
	ConfidenceVideoMetadata = 0.9
	ConfidenceFirstPoint    = 0.5
	ConfidenceManual        = 1.0
)

// 文档注释：对齐方法标签（封闭枚举）
// 约束：AutoDetect 为保留值，当前引擎不会产出。
type Method int

const (
	MethodVideoMetadata Method = iota + 1
	MethodFirstPoint
	MethodManual
	MethodAutoDetect
)

var methodNames = map[Method]string{
	MethodVideoMetadata: "video-metadata",
	MethodFirstPoint:    "first-point",
	MethodManual:        "manual",
	MethodAutoDetect:    "auto-detected",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func (m Method) MarshalText() ([]byte, error) {
	s, ok := methodNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown sync method %d", int(m))
	}
	return []byte(s), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	for k, v := range methodNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown sync method %q", string(b))
}

// 文档注释：绑定到视频时间的定位点
// 约束：VideoTime 为有限值且位于 [0, 视频时长]；仅由引擎构造。
type AlignedPoint struct {
	VideoTime float64     `json:"video_time_seconds"`
	Point     track.Point `json:"gps"`
}

// 文档注释：一次对齐的结果
// 背景：Offset 为 GPS 起点绝对时间减视频起点绝对时间（秒，带符号）；Points 按视频时间升序。
// 约束：归请求方独占，返回后只读。
type Result struct {
	Offset     float64        `json:"offset_seconds"`
	Confidence float64        `json:"confidence"`
	Method     Method         `json:"method"`
	Points     []AlignedPoint `json:"aligned_points"`
}

// Position 插值得到的位置；Heading 在两端均无朝向时为 nil
type Position struct {
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	Heading *float64 `json:"heading_deg,omitempty"`
}
