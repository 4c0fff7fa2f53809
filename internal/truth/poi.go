package truth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"geotruth/internal/geomath"
)

// Place POI 数据源返回的原始地点
type Place struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// 文档注释：周边 POI 查询扩展点
// 背景：真实实现为本地空间索引；可能阻塞于磁盘 I/O，因此携带 context。
// 约束：返回半径（米）内的地点，顺序不限；距离、方位与视场由引擎计算。
type POISource interface {
	Nearby(ctx context.Context, lat, lon, radiusM float64) ([]Place, error)
}

// emptySource 默认数据源，恒返回空列表
type emptySource struct{}

func (emptySource) Nearby(context.Context, float64, float64, float64) ([]Place, error) {
	return nil, nil
}

// 文档注释：KD-Tree 半径查询索引（二维经纬）
// 背景：经度/纬度交替分割，中位数建树；查询时按分割面距离剪枝，最终以 Haversine 精确过滤。
// 约束：构建后只读，可并发查询；不处理 ±180° 经线环绕。
type KDIndex struct {
	root *kdNode
	size int
}

type kdNode struct {
	p  Place
	ax int // 0:lon,1:lat
	l  *kdNode
	r  *kdNode
}

func NewKDIndex(places []Place) *KDIndex {
	cp := append([]Place(nil), places...)
	return &KDIndex{root: buildKD(cp, 0), size: len(cp)}
}

// 文档注释：从 JSON 文件加载 POI 索引
// 约束：文件内容为 Place 数组；坐标非有限值的条目被丢弃。
func LoadKDIndex(path string) (*KDIndex, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poi index: %w", err)
	}
	var raw []Place
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode poi index %s: %w", path, err)
	}
	places := make([]Place, 0, len(raw))
	for _, p := range raw {
		if finite(p.Lat) && finite(p.Lon) {
			places = append(places, p)
		}
	}
	return NewKDIndex(places), nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Len 索引内地点数量
func (k *KDIndex) Len() int { return k.size }

func (k *KDIndex) Nearby(ctx context.Context, lat, lon, radiusM float64) ([]Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k.root == nil || radiusM < 0 {
		return nil, nil
	}
	latSpan, lonSpan := spans(lat, radiusM)
	var out []Place
	var dfs func(n *kdNode)
	dfs = func(n *kdNode) {
		if n == nil {
			return
		}
		if geomath.DistanceMeters(lat, lon, n.p.Lat, n.p.Lon) <= radiusM {
			out = append(out, n.p)
		}
		key, q, span := lon, n.p.Lon, lonSpan
		if n.ax == 1 {
			key, q, span = lat, n.p.Lat, latSpan
		}
		// 查询圆与分割面两侧的交集判断
		if key-span <= q {
			dfs(n.l)
		}
		if key+span >= q {
			dfs(n.r)
		}
	}
	dfs(k.root)
	return out, nil
}

// 文档注释：半径对应的经纬度跨度（度）
// 背景：纬度方向 1° 约 111.195km；经度方向按查询圆可达的最高纬度缩放，并留一倍余量。
// 约束：接近极点或跨度过大时不在经度上剪枝。
func spans(lat, radiusM float64) (float64, float64) {
	kmPerDeg := geomath.EarthRadiusKm * math.Pi / 180
	latSpan := radiusM / 1000 / kmPerDeg
	maxLat := math.Abs(lat) + latSpan
	if maxLat >= 89 {
		return latSpan, 360
	}
	lonSpan := 2 * latSpan / math.Cos(maxLat*math.Pi/180)
	if lonSpan > 180 {
		lonSpan = 360
	}
	return latSpan, lonSpan
}

func buildKD(ps []Place, depth int) *kdNode {
	if len(ps) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(ps) / 2
	selectNth(ps, mid, ax)
	node := &kdNode{p: ps[mid], ax: ax}
	node.l = buildKD(ps[:mid], depth+1)
	node.r = buildKD(ps[mid+1:], depth+1)
	return node
}

// 原地 nth 元素选择（轴为经度/纬度）
func selectNth(a []Place, n int, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(a []Place, lo, hi, pivot, ax int) int {
	pv := a[pivot]
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if axisLess(a[j], pv, ax) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func axisLess(x, y Place, ax int) bool {
	if ax == 0 {
		return x.Lon < y.Lon
	}
	return x.Lat < y.Lat
}
