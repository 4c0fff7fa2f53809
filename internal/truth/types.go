// 包 truth：离线核验，由单个定位点生成包含国家、时区与周边 POI 的真值包
package truth

import "errors"

// ErrTilesNotFound 配置的离线瓦片路径不存在
var ErrTilesNotFound = errors.New("map tiles not found")

// ModeOffline 当前唯一的核验模式标签
const ModeOffline = "offline"

// 事实类型与来源
const (
	FactCountry  = "country"
	FactTimezone = "timezone"
	SourceLocal  = "local"
)

// 文档注释：一条已核验事实
// 约束：事实只追加不去重；Source 标识来源（当前仅 "local"）。
type Fact struct {
	Kind       string     `json:"fact_type"`
	Name       string     `json:"name"`
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
}

// 本地 POI 与查询点的相对关系
type POI struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceM  float64 `json:"distance_m"`
	BearingDeg float64 `json:"bearing_deg"`
	InFOV      bool    `json:"in_fov"`
	Facts      []Fact  `json:"facts"`
}

// 文档注释：核验后的位置上下文
// 背景：匹配坐标与道路名预留给路网匹配器，当前恒为空。
type Location struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	MatchedLat *float64 `json:"matched_lat"`
	MatchedLon *float64 `json:"matched_lon"`
	RoadName   *string  `json:"road_name"`
	Country    *string  `json:"country"`
	State      *string  `json:"state"`
	Timezone   *string  `json:"timezone"`
}

// 文档注释：真值包（单点核验的最终产物）
// 约束：每次查询新建，构造后不再修改；所有权归调用方。
type Bundle struct {
	Location   Location   `json:"location"`
	POIs       []POI      `json:"pois"`
	Facts      []Fact     `json:"facts"`
	Mode       string     `json:"verification_mode"`
	Confidence Confidence `json:"confidence"`
}
