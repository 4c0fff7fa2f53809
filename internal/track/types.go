// 包 track：将 GPX / NMEA 原始文件解析为按时间有序、带包围盒的统一定位点序列
package track

import (
	"errors"
	"time"

	"geotruth/internal/geomath"
)

var (
	// ErrUnknownFormat 扩展名与内容嗅探均无法识别
	ErrUnknownFormat = errors.New("unknown track format")
	// ErrNoPoints 解析后没有任何有效定位点
	ErrNoPoints = errors.New("no GPS points found")
)

// Format 轨迹来源格式标签
type Format string

const (
	FormatGPX  Format = "gpx"
	FormatNMEA Format = "nmea"
)

// 文档注释：单个定位点（一次定位）
// 约束：时间为 UTC、毫秒精度；可选字段以指针表示缺失；解析完成后视为不可变。
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation *float64  `json:"elevation_m,omitempty"`
	Speed     *float64  `json:"speed_kmh,omitempty"`
	Heading   *float64  `json:"heading_deg,omitempty"`
	Accuracy  *float64  `json:"accuracy_m,omitempty"`
}

// 文档注释：一次录制的完整轨迹
// 背景：Points 按时间非递减排列；Start/End 为排序后的首尾时间；Bounds 覆盖全部点。
// 约束：只能通过 New 或解析函数构造，零点轨迹为构造错误而非合法空值。
type Track struct {
	Name       *string      `json:"name,omitempty"`
	SourceFile string       `json:"source_file"`
	Format     Format       `json:"track_type"`
	PointCount int          `json:"point_count"`
	Start      time.Time    `json:"start_time"`
	End        time.Time    `json:"end_time"`
	Bounds     geomath.BBox `json:"bounds"`
	Points     []Point      `json:"points"`
}
