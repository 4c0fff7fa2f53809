package truth

import (
	"container/list"
	"sync"
	"time"

	"geotruth/internal/geomath"
)

// memoPrecision 约 1.2km 网格
const memoPrecision = 6

// 文档注释：国家/时区查表记忆（geohash 网格为键）
// 背景：同一段行程的采样点高度聚集，按网格复用查表结果；读多写少，使用读写锁。
// 约束：读路径不调整顺序，容量超限时按写入先后淘汰（FIFO）；过期项在读时视为未命中。
// 仅当网格四角查表结果一致时才写入，区域表的每个盒子都远大于网格，角点一致即整格一致。
type regionMemo struct {
	mu   sync.RWMutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type memoItem struct {
	k   string
	v   regionInfo
	exp time.Time
}

func newRegionMemo(capacity int, ttl time.Duration) *regionMemo {
	if capacity <= 0 {
		capacity = 4096
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &regionMemo{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *regionMemo) get(k string) (regionInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.dict[k]
	if !ok {
		return regionInfo{}, false
	}
	it := e.Value.(memoItem)
	if !c.now().Before(it.exp) {
		return regionInfo{}, false
	}
	return it.v, true
}

func (c *regionMemo) set(k string, v regionInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if e, ok := c.dict[k]; ok {
		e.Value = memoItem{k: k, v: v, exp: exp}
		return
	}
	c.dict[k] = c.lst.PushBack(memoItem{k: k, v: v, exp: exp})
	for c.lst.Len() > c.cap {
		front := c.lst.Front()
		delete(c.dict, front.Value.(memoItem).k)
		c.lst.Remove(front)
	}
}

func (c *regionMemo) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lst.Len()
}

// 文档注释：带记忆的区域查表
// 返回：查表结果与是否命中记忆。
func (c *regionMemo) lookup(lat, lon float64) (regionInfo, bool) {
	key, cell := geomath.GeohashCell(lat, lon, memoPrecision)
	if v, ok := c.get(key); ok {
		return v, true
	}
	v := lookupRegion(lat, lon)
	if uniformCell(cell) {
		c.set(key, v)
	}
	return v, false
}

func uniformCell(b geomath.BBox) bool {
	ref := lookupRegion(b.MinLat, b.MinLon)
	return lookupRegion(b.MinLat, b.MaxLon) == ref &&
		lookupRegion(b.MaxLat, b.MinLon) == ref &&
		lookupRegion(b.MaxLat, b.MaxLon) == ref
}
