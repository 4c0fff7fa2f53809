package track

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"geotruth/internal/logger"
)

// knotsToKmh 航速换算系数（节 → km/h）
const knotsToKmh = 1.852

// 文档注释：NMEA 0183 逐行解析（RMC / GGA）
// 背景：RMC 携带日期、位置、航速与航向；GGA 携带位置与海拔但无日期。
// 约束：RMC 仅在状态位为 "A" 时有效；GGA 仅在定位质量非零时有效；其它语句忽略。
// GGA 日期取解析当天（UTC），仅对当天处理的记录时间正确，属已知限制，不做日期推断。
func parseNMEA(data []byte, now time.Time) ([]Point, int) {
	var points []Point
	skipped := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		var (
			p  Point
			ok bool
		)
		switch {
		case strings.HasPrefix(line, "$GPRMC"), strings.HasPrefix(line, "$GNRMC"):
			p, ok = parseRMC(line)
		case strings.HasPrefix(line, "$GPGGA"), strings.HasPrefix(line, "$GNGGA"):
			p, ok = parseGGA(line, now)
		default:
			continue
		}
		if ok {
			points = append(points, p)
		} else {
			skipped++
			logger.L().Debug("nmea_sentence_skipped", "sentence", line[:6])
		}
	}
	if err := sc.Err(); err != nil {
		logger.L().Debug("nmea_scan_stopped", "err", err, "points", len(points))
	}
	return points, skipped
}

// fields 去掉校验和后按逗号切分
func fields(line string) []string {
	if i := strings.IndexByte(line, '*'); i >= 0 {
		line = line[:i]
	}
	return strings.Split(line, ",")
}

// $GPRMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,x.x,x.x,ddmmyy,x.x,a*hh
func parseRMC(line string) (Point, bool) {
	parts := fields(line)
	if len(parts) < 10 {
		return Point{}, false
	}
	if parts[2] != "A" {
		return Point{}, false
	}
	y, mo, d, ok := parseDate(parts[9])
	if !ok {
		return Point{}, false
	}
	h, mi, s, ms, ok := parseClock(parts[1])
	if !ok {
		return Point{}, false
	}
	lat, ok := parseCoord(parts[3], parts[4], "S")
	if !ok {
		return Point{}, false
	}
	lon, ok := parseCoord(parts[5], parts[6], "W")
	if !ok {
		return Point{}, false
	}
	p := Point{
		Timestamp: time.Date(y, mo, d, h, mi, s, ms*int(time.Millisecond), time.UTC),
		Lat:       lat,
		Lon:       lon,
	}
	if kn, ok := parseFinite(parts[7]); ok {
		v := kn * knotsToKmh
		p.Speed = &v
	}
	if hd, ok := parseFinite(parts[8]); ok {
		p.Heading = &hd
	}
	return p, true
}

// $GPGGA,hhmmss.ss,llll.ll,a,yyyyy.yy,a,q,nn,h.h,a.a,M,...
func parseGGA(line string, now time.Time) (Point, bool) {
	parts := fields(line)
	if len(parts) < 10 {
		return Point{}, false
	}
	q, err := strconv.Atoi(strings.TrimSpace(parts[6]))
	if err != nil || q == 0 {
		return Point{}, false
	}
	h, mi, s, ms, ok := parseClock(parts[1])
	if !ok {
		return Point{}, false
	}
	lat, ok := parseCoord(parts[2], parts[3], "S")
	if !ok {
		return Point{}, false
	}
	lon, ok := parseCoord(parts[4], parts[5], "W")
	if !ok {
		return Point{}, false
	}
	today := now.UTC()
	p := Point{
		Timestamp: time.Date(today.Year(), today.Month(), today.Day(), h, mi, s, ms*int(time.Millisecond), time.UTC),
		Lat:       lat,
		Lon:       lon,
	}
	if e, ok := parseFinite(parts[9]); ok {
		p.Elevation = &e
	}
	return p, true
}

// 文档注释：DDMM.MMMM 坐标解码
// 背景：度 = 整除 100，分 = 余数，合成 度 + 分/60；南纬/西经取负。
func parseCoord(raw, hemi, negative string) (float64, bool) {
	v, ok := parseFinite(raw)
	if !ok {
		return 0, false
	}
	degrees := float64(int64(v / 100))
	minutes := v - degrees*100
	out := degrees + minutes/60
	if strings.TrimSpace(hemi) == negative {
		out = -out
	}
	return out, true
}

// parseClock 解析 hhmmss[.sss]，秒以下保留到毫秒
func parseClock(s string) (h, m, sec, ms int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return 0, 0, 0, 0, false
	}
	var err error
	if h, err = strconv.Atoi(s[0:2]); err != nil || h > 23 {
		return 0, 0, 0, 0, false
	}
	if m, err = strconv.Atoi(s[2:4]); err != nil || m > 59 {
		return 0, 0, 0, 0, false
	}
	if sec, err = strconv.Atoi(s[4:6]); err != nil || sec > 59 {
		return 0, 0, 0, 0, false
	}
	if len(s) > 7 && s[6] == '.' {
		frac := (s[7:] + "000")[:3]
		if v, e := strconv.Atoi(frac); e == nil {
			ms = v
		}
	}
	return h, m, sec, ms, true
}

// 文档注释：解析 ddmmyy
// 约束：两位年份以 80 为界，80–99 归入 19xx，其余归入 20xx。
func parseDate(s string) (int, time.Month, int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return 0, 0, 0, false
	}
	d, e1 := strconv.Atoi(s[0:2])
	mo, e2 := strconv.Atoi(s[2:4])
	yy, e3 := strconv.Atoi(s[4:6])
	if e1 != nil || e2 != nil || e3 != nil || d < 1 || d > 31 || mo < 1 || mo > 12 {
		return 0, 0, 0, false
	}
	y := 2000 + yy
	if yy >= 80 {
		y = 1900 + yy
	}
	// 拒绝 31/02 之类被 time.Date 静默归一化的日期
	if time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC).Day() != d {
		return 0, 0, 0, false
	}
	return y, time.Month(mo), d, true
}
