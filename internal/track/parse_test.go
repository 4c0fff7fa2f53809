package track

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		data string
		want Format
		err  error
	}{
		{"ride.GPX", "", FormatGPX, nil},
		{"ride.nmea", "", FormatNMEA, nil},
		{"ride.log", "", FormatNMEA, nil},
		{"ride.txt", "<gpx>", FormatNMEA, nil},
		{"ride.dat", "<?xml?><gpx version=\"1.1\">", FormatGPX, nil},
		{"ride", "$GPGGA,1", FormatNMEA, nil},
		{"ride.bin", "$GPRMC,1", FormatNMEA, nil},
		{"ride.bin", "$GNRMC,1", "", ErrUnknownFormat},
		{"ride.csv", "lat,lon", "", ErrUnknownFormat},
	}
	for _, c := range cases {
		got, err := Detect(c.name, []byte(c.data))
		if !errors.Is(err, c.err) || got != c.want {
			t.Fatalf("%s: expected %q/%v, got %q/%v", c.name, c.want, c.err, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" GPX "); err != nil || f != FormatGPX {
		t.Fatalf("unexpected %q/%v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != "" {
		t.Fatalf("empty format should defer to detection")
	}
	if _, err := ParseFormat("kml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseFileUnknownFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(p); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.gpx")); err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestParseFileSniffsContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "track.dat")
	if err := os.WriteFile(p, []byte(rmcSample+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.Format != FormatNMEA || tr.SourceFile != "track.dat" {
		t.Fatalf("unexpected track %+v", tr)
	}
}

func TestNewSinglePointBounds(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr, err := New([]Point{{Timestamp: ts, Lat: 45.5, Lon: -122.6}}, FormatGPX, "one.gpx", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b := tr.Bounds
	if b.MinLat != b.MaxLat || b.MinLon != b.MaxLon || b.MinLat != 45.5 || b.MinLon != -122.6 {
		t.Fatalf("expected degenerate bounds, got %+v", b)
	}
	if _, ok := tr.DistanceKm(); ok {
		t.Fatalf("distance undefined for one point")
	}
	if tr.Duration() != 0 {
		t.Fatalf("expected zero duration")
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil, FormatGPX, "", nil); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}

func TestDistanceAndDuration(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := []Point{
		{Timestamp: ts, Lat: 0, Lon: 0},
		{Timestamp: ts.Add(30 * time.Second), Lat: 0, Lon: 1},
		{Timestamp: ts.Add(60 * time.Second), Lat: 0, Lon: 2},
	}
	tr, err := New(pts, FormatNMEA, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := tr.DistanceKm()
	if !ok || math.Abs(d-222.39) > 0.1 {
		t.Fatalf("unexpected distance %.3f", d)
	}
	if tr.Duration() != time.Minute {
		t.Fatalf("unexpected duration %v", tr.Duration())
	}
}
