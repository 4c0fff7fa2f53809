// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geotruth/internal/align"
	"geotruth/internal/logger"
	"geotruth/internal/store"
	"geotruth/internal/track"
	"geotruth/internal/truth"
)

// Options 路由参数
type Options struct {
	// DefaultFOVDeg 请求未携带 fov 时使用的视场宽度
	DefaultFOVDeg float64
}

// 文档注释：构建并返回 API 路由
// 背景：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀；st 为空时持久化相关接口返回 503。
func BuildRoutes(eng *truth.Engine, st *store.Store, opt Options) *http.ServeMux {
	if opt.DefaultFOVDeg <= 0 {
		opt.DefaultFOVDeg = 90
	}
	h := &handlers{eng: eng, st: st, opt: opt}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /track", h.track)
	mux.HandleFunc("GET /verify", h.verify)
	mux.HandleFunc("GET /bundles/{id}", h.bundle)
	mux.HandleFunc("GET /videos/{id}/events", h.videoEvents)
	mux.HandleFunc("GET /stats", h.stats)
	mux.HandleFunc("GET /health", h.health)
	return mux
}

type handlers struct {
	eng *truth.Engine
	st  *store.Store
	opt Options
}

// writeJSON 先完整编码再写状态码，编码失败返回 500 而非空的 200
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.L().Error("json_encode_error", "err", err.Error())
		buf.Reset()
		buf.WriteString(`{"error":"response encoding failed"}` + "\n")
		code = http.StatusInternalServerError
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// parseFinite 解析有限浮点数；NaN 与 ±Inf 视为非法
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// 文档注释：上传轨迹并对齐
// 参数：format（gpx|nmea，缺省自动识别）、duration（秒，缺省取轨迹跨度）、start（视频起点 RFC3339，可选）、
// offset（手动偏移秒，可选）、name（文件名，参与格式识别）、points=true 附带对齐点。
// 返回：格式未知或无有效点 400；时间无交集 422。
func (h *handlers) track(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := track.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "read body: "+err.Error())
		return
	}
	t, err := track.Parse(q.Get("name"), body, format)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, track.ErrUnknownFormat) || errors.Is(err, track.ErrNoPoints) {
			code = http.StatusBadRequest
		}
		writeError(w, code, err.Error())
		return
	}
	duration := t.Duration().Seconds()
	if s := q.Get("duration"); s != "" {
		d, ok := parseFinite(s)
		if !ok || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		duration = d
	}
	var videoStart *time.Time
	if s := q.Get("start"); s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start")
			return
		}
		u := ts.UTC()
		videoStart = &u
	}
	eng := align.New(t, duration, videoStart)
	var res align.Result
	if s := q.Get("offset"); s != "" {
		off, ok := parseFinite(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		res, err = eng.SynchronizeManual(off)
	} else {
		res, err = eng.Synchronize()
	}
	switch {
	case errors.Is(err, align.ErrNoOverlap):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, align.ErrNoGpsPoints):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := trackResponse{
		Track: summarize(t),
		Sync:  syncSummary{Offset: res.Offset, Confidence: res.Confidence, Method: res.Method, Aligned: len(res.Points)},
	}
	if q.Get("points") == "true" {
		out.Sync.Points = res.Points
	}
	writeJSON(w, http.StatusOK, out)
}

// 文档注释：单点离线核验
// 参数：lat/lon 必填；heading（度）与 fov（度）可选。
func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, ok1 := parseFinite(q.Get("lat"))
	lon, ok2 := parseFinite(q.Get("lon"))
	if !ok1 || !ok2 || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lat and lon are required WGS84 degrees")
		return
	}
	p := track.Point{Timestamp: time.Now().UTC().Truncate(time.Millisecond), Lat: lat, Lon: lon}
	if s := q.Get("heading"); s != "" {
		hd, ok := parseFinite(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid heading")
			return
		}
		p.Heading = &hd
	}
	fov := h.opt.DefaultFOVDeg
	if s := q.Get("fov"); s != "" {
		f, ok := parseFinite(s)
		if !ok || f <= 0 || f > 360 {
			writeError(w, http.StatusBadRequest, "invalid fov")
			return
		}
		fov = f
	}
	b, err := h.eng.Verify(r.Context(), p, fov)
	if err != nil {
		logger.L().Error("verify_error", "err", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) bundle(w http.ResponseWriter, r *http.Request) {
	if h.st == nil {
		writeError(w, http.StatusServiceUnavailable, "store disabled")
		return
	}
	e, err := h.st.GetEvent(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) videoEvents(w http.ResponseWriter, r *http.Request) {
	if h.st == nil {
		writeError(w, http.StatusServiceUnavailable, "store disabled")
		return
	}
	id := r.PathValue("id")
	if _, err := h.st.GetVideo(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	events, err := h.st.ListEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	if h.st == nil {
		writeError(w, http.StatusServiceUnavailable, "store disabled")
		return
	}
	t, err := h.st.Totals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"status":            "ok",
		"offline_available": h.eng.Available(),
		"store":             h.st != nil,
		"poi_radius_m":      h.eng.RadiusM(),
	}
	if p, err := h.eng.Tiles(); err == nil {
		m["tiles"] = p
	}
	writeJSON(w, http.StatusOK, m)
}
