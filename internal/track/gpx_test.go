package track

import (
	"errors"
	"testing"
	"time"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><link href="x"><text>ignored</text></link></metadata>
  <trk>
    <name>Canyon Rim</name>
    <trkseg>
      <trkpt lat="36.0570" lon="-112.1390"><ele>2100.5</ele><time>2024-05-01T10:00:10Z</time></trkpt>
      <trkpt lat="36.0560" lon="-112.1380"><ele>2101</ele><time>2024-05-01T10:00:00Z</time></trkpt>
      <trkpt lat="36.0550"><time>2024-05-01T10:00:20Z</time></trkpt>
      <trkpt lat="abc" lon="-112.1370"><time>2024-05-01T10:00:30Z</time></trkpt>
      <trkpt lat="36.0540" lon="-112.1360"><extensions><hr>120</hr></extensions><time>2024-05-01T10:00:05.250+02:00</time></trkpt>
    </trkseg>
  </trk>
  <wpt lat="36.1000" lon="-112.2000"><name>Lookout</name></wpt>
</gpx>`

func TestParseGPXPoolsPointsAndSorts(t *testing.T) {
	now := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tr, err := parseAt("rim.gpx", []byte(sampleGPX), "", now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.Format != FormatGPX {
		t.Fatalf("expected gpx format, got %s", tr.Format)
	}
	if tr.PointCount != 4 || len(tr.Points) != 4 {
		t.Fatalf("expected 4 points with lat and lon, got %d", tr.PointCount)
	}
	if tr.Name == nil || *tr.Name != "Canyon Rim" {
		t.Fatalf("unexpected track name: %v", tr.Name)
	}
	if tr.SourceFile != "rim.gpx" {
		t.Fatalf("unexpected source file %q", tr.SourceFile)
	}
	for i := 1; i < len(tr.Points); i++ {
		if tr.Points[i].Timestamp.Before(tr.Points[i-1].Timestamp) {
			t.Fatalf("points not sorted at %d", i)
		}
	}
	// 带时区偏移的时间被转换为 UTC，早于其它所有点
	first := tr.Points[0]
	if !first.Timestamp.Equal(time.Date(2024, 5, 1, 8, 0, 5, 250*int(time.Millisecond), time.UTC)) {
		t.Fatalf("unexpected first timestamp %v", first.Timestamp)
	}
	// 航点缺失时间，以解析时刻占位，排在最后
	last := tr.Points[len(tr.Points)-1]
	if !last.Timestamp.Equal(now) || last.Lat != 36.1 {
		t.Fatalf("expected waypoint with placeholder time last, got %+v", last)
	}
	if tr.Points[1].Elevation == nil || *tr.Points[1].Elevation != 2101 {
		t.Fatalf("expected elevation 2101, got %v", tr.Points[1].Elevation)
	}
	if tr.Bounds.MinLat != 36.054 || tr.Bounds.MaxLat != 36.1 || tr.Bounds.MinLon != -112.2 || tr.Bounds.MaxLon != -112.136 {
		t.Fatalf("unexpected bounds %+v", tr.Bounds)
	}
	if !tr.Start.Equal(first.Timestamp) || !tr.End.Equal(last.Timestamp) {
		t.Fatalf("start/end should mirror first/last points")
	}
}

func TestParseGPXWithoutValidPoints(t *testing.T) {
	data := []byte(`<gpx><trk><trkseg><trkpt lat="1"></trkpt></trkseg></trk></gpx>`)
	if _, err := Parse("x.gpx", data, ""); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}

func TestParseGPXTruncatedDocument(t *testing.T) {
	data := []byte(`<gpx><trk><trkseg><trkpt lat="1.5" lon="2.5"><time>2024-01-01T00:00:00Z</time></trkpt><trkpt lat="1.6" lon="2.6"><time>2024-01-01T00:00:01Z`)
	tr, err := Parse("cut.gpx", data, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.PointCount != 2 {
		t.Fatalf("expected both points to survive truncation, got %d", tr.PointCount)
	}
}

func TestParseGPXSelfClosingPoints(t *testing.T) {
	data := []byte(`<gpx><wpt lat="10" lon="20"/><wpt lat="11" lon="21"/></gpx>`)
	tr, err := Parse("", data, FormatGPX)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.PointCount != 2 || tr.SourceFile != "" {
		t.Fatalf("unexpected track %+v", tr)
	}
}

func TestParseGPXMetadataLink(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<gpx version="1.1" creator="Garmin">
  <metadata><link href="https://www.garmin.com"><text>Garmin</text></link><time>2024-05-01T09:59:00Z</time></metadata>
  <trk><name>Morning</name><link href="https://example.com/trk"><text>trk</text></link><trkseg>
    <trkpt lat="47.60" lon="-122.33"><link href="x"><text>p</text></link><time>2024-05-01T10:00:00Z</time></trkpt>
    <trkpt lat="47.61" lon="-122.34"><time>2024-05-01T10:00:01Z</time></trkpt>
  </trkseg></trk>
</gpx>`)
	tr, err := Parse("garmin.gpx", data, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.PointCount != 2 {
		t.Fatalf("expected 2 points, got %d", tr.PointCount)
	}
	if tr.Name == nil || *tr.Name != "Morning" {
		t.Fatalf("unexpected name %v", tr.Name)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !tr.Start.Equal(want) {
		t.Fatalf("link inside trkpt must not swallow its time, got %v", tr.Start)
	}
}

func TestParseGPXHeartRateExtension(t *testing.T) {
	data := []byte(`<gpx version="1.1" xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1"><trk><trkseg>
  <trkpt lat="45.00" lon="7.00"><ele>300</ele><time>2024-06-01T08:00:00Z</time>
    <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>121</gpxtpx:hr></gpxtpx:TrackPointExtension></extensions></trkpt>
  <trkpt lat="45.01" lon="7.01"><time>2024-06-01T08:00:05Z</time>
    <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>125</gpxtpx:hr><gpxtpx:cad>80</gpxtpx:cad></gpxtpx:TrackPointExtension></extensions></trkpt>
  <trkpt lat="45.02" lon="7.02"><time>2024-06-01T08:00:10Z</time></trkpt>
</trkseg></trk></gpx>`)
	tr, err := Parse("hr.gpx", data, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.PointCount != 3 {
		t.Fatalf("expected every trkpt with lat and lon, got %d", tr.PointCount)
	}
	if tr.Points[0].Elevation == nil || *tr.Points[0].Elevation != 300 {
		t.Fatalf("unexpected elevation %v", tr.Points[0].Elevation)
	}
	if got := tr.End.Sub(tr.Start); got != 10*time.Second {
		t.Fatalf("unexpected span %v", got)
	}
}
