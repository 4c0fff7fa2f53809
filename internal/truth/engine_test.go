package truth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"geotruth/internal/track"
)

func fptr(v float64) *float64 { return &v }

type fixedSource struct {
	places []Place
	err    error
}

func (f fixedSource) Nearby(context.Context, float64, float64, float64) ([]Place, error) {
	return f.places, f.err
}

func TestVerifyUSPoint(t *testing.T) {
	e := New(Config{})
	b, err := e.Verify(context.Background(), track.Point{Lat: 39.7392, Lon: -104.9903}, 90)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if b.Location.Country == nil || *b.Location.Country != "United States" {
		t.Fatalf("unexpected country %v", b.Location.Country)
	}
	if b.Location.Timezone == nil || *b.Location.Timezone != "America/Denver" {
		t.Fatalf("unexpected timezone %v", b.Location.Timezone)
	}
	if b.Location.MatchedLat != nil || b.Location.RoadName != nil || b.Location.State != nil {
		t.Fatalf("reserved fields must stay unset")
	}
	if len(b.POIs) != 0 {
		t.Fatalf("default source must return no POIs")
	}
	if len(b.Facts) != 2 || b.Facts[0].Kind != FactCountry || b.Facts[0].Confidence != Medium ||
		b.Facts[1].Kind != FactTimezone || b.Facts[1].Confidence != High || b.Facts[1].Source != SourceLocal {
		t.Fatalf("unexpected facts %+v", b.Facts)
	}
	if b.Confidence != Medium || b.Mode != ModeOffline {
		t.Fatalf("unexpected confidence %v mode %s", b.Confidence, b.Mode)
	}
}

func TestVerifyRegionTables(t *testing.T) {
	cases := []struct {
		lat, lon float64
		country  string
		tz       string
	}{
		{45, -120, "United States", "America/Los_Angeles"},
		{45, -66, "United States", ""},
		{60, -100, "Canada", "America/Chicago"},
		{20, -100, "Mexico", "America/Chicago"},
		{48.8566, 2.3522, "", ""},
		{10, -110, "", "America/Denver"},
	}
	e := New(Config{})
	for _, c := range cases {
		b, err := e.Verify(context.Background(), track.Point{Lat: c.lat, Lon: c.lon}, 60)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got := deref(b.Location.Country); got != c.country {
			t.Fatalf("%v,%v: expected country %q, got %q", c.lat, c.lon, c.country, got)
		}
		if got := deref(b.Location.Timezone); got != c.tz {
			t.Fatalf("%v,%v: expected timezone %q, got %q", c.lat, c.lon, c.tz, got)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestVerifyNoMatchIsLow(t *testing.T) {
	b, err := New(Config{}).Verify(context.Background(), track.Point{Lat: -33.86, Lon: 151.2}, 60)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if b.Confidence != Low || len(b.Facts) != 0 || b.Location.Country != nil {
		t.Fatalf("unexpected bundle %+v", b)
	}
	raw, _ := json.Marshal(b)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	if _, ok := m["pois"].([]any); !ok {
		t.Fatalf("pois must encode as an array: %s", raw)
	}
}

func TestVerifyPOIsAndFOV(t *testing.T) {
	src := fixedSource{places: []Place{
		{ID: "n", Name: "North", Lat: 40.0020, Lon: -105},
		{ID: "e", Name: "East", Lat: 40, Lon: -104.9980},
		{ID: "s", Name: "South", Lat: 39.9990, Lon: -105},
		{ID: "far", Name: "Far", Lat: 40.1, Lon: -105},
	}}
	e := New(Config{Source: src})
	b, err := e.Verify(context.Background(), track.Point{Lat: 40, Lon: -105, Heading: fptr(0)}, 90)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(b.POIs) != 3 {
		t.Fatalf("expected 3 POIs within radius, got %d", len(b.POIs))
	}
	if b.POIs[0].ID != "s" || b.POIs[0].DistanceM > b.POIs[1].DistanceM {
		t.Fatalf("POIs not sorted by distance: %+v", b.POIs)
	}
	fov := map[string]bool{}
	for _, p := range b.POIs {
		fov[p.ID] = p.InFOV
	}
	if !fov["n"] || fov["e"] || fov["s"] {
		t.Fatalf("unexpected FOV flags %v", fov)
	}
	if b.Confidence != High {
		t.Fatalf("expected High with three POIs, got %v", b.Confidence)
	}

	// 无朝向时不在视场内
	b, _ = e.Verify(context.Background(), track.Point{Lat: 40, Lon: -105}, 360)
	for _, p := range b.POIs {
		if p.InFOV {
			t.Fatalf("POI %s in FOV without heading", p.ID)
		}
	}
}

func TestVerifySourceError(t *testing.T) {
	boom := errors.New("disk gone")
	e := New(Config{Source: fixedSource{err: boom}})
	if _, err := e.Verify(context.Background(), track.Point{Lat: 40, Lon: -105}, 60); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Config{}).Verify(ctx, track.Point{}, 60); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	if New(Config{}).Available() {
		t.Fatalf("unconfigured engine must not be available")
	}
	missing := New(Config{TilesPath: filepath.Join(dir, "nope.pmtiles")})
	if missing.Available() {
		t.Fatalf("missing tiles must not be available")
	}
	if _, err := missing.Tiles(); !errors.Is(err, ErrTilesNotFound) {
		t.Fatalf("expected ErrTilesNotFound, got %v", err)
	}
	tiles := filepath.Join(dir, "na.pmtiles")
	if err := os.WriteFile(tiles, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := New(Config{TilesPath: tiles})
	if !e.Available() {
		t.Fatalf("expected available")
	}
	if p, err := e.Tiles(); err != nil || p != tiles {
		t.Fatalf("unexpected %q/%v", p, err)
	}
}

func TestLoadPOIIndexFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pois.json")
	raw := `[{"id":"1","name":"Cafe","category":"food","lat":40.001,"lon":-105},{"id":"2","name":"Peak","category":"nature","lat":41,"lon":-105}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	off := New(Config{POIIndexPath: path})
	b, _ := off.Verify(context.Background(), track.Point{Lat: 40, Lon: -105}, 60)
	if !off.Available() || len(b.POIs) != 0 {
		t.Fatalf("index must not be queried unless enabled")
	}
	on := New(Config{POIIndexPath: path, LoadPOIIndex: true})
	b, err := on.Verify(context.Background(), track.Point{Lat: 40, Lon: -105}, 60)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(b.POIs) != 1 || b.POIs[0].Name != "Cafe" || b.POIs[0].Category != "food" {
		t.Fatalf("unexpected POIs %+v", b.POIs)
	}
}

type memRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func (m *memRemote) Get(_ context.Context, k string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if v, ok := m.data[k]; ok {
		return v, nil
	}
	return nil, ErrCacheMiss
}

func (m *memRemote) Set(_ context.Context, k string, v []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[k] = v
	return nil
}

func TestRemoteCacheRoundTrip(t *testing.T) {
	rc := &memRemote{data: map[string][]byte{}}
	e := New(Config{Remote: rc})
	p := track.Point{Lat: 39.7392, Lon: -104.9903, Heading: fptr(12.5)}
	first, err := e.Verify(context.Background(), p, 90)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(rc.data) != 1 {
		t.Fatalf("expected one cached bundle, got %d", len(rc.data))
	}
	for k := range rc.data {
		if k != bundleKey(p, 90) {
			t.Fatalf("unexpected key %s", k)
		}
	}
	second, err := e.Verify(context.Background(), p, 90)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if deref(second.Location.Country) != deref(first.Location.Country) || second.Confidence != first.Confidence {
		t.Fatalf("cached bundle mismatch: %+v vs %+v", second, first)
	}
	if bundleKey(p, 90) == bundleKey(track.Point{Lat: p.Lat, Lon: p.Lon}, 90) {
		t.Fatalf("heading must be part of the key")
	}
}

func TestVerifyConcurrent(t *testing.T) {
	e := New(Config{MemoSize: 8})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := track.Point{Lat: 30 + float64(i%4)*0.01, Lon: -95}
			for j := 0; j < 50; j++ {
				b, err := e.Verify(context.Background(), p, 60)
				if err != nil || deref(b.Location.Country) != "United States" {
					t.Errorf("unexpected %+v/%v", b.Location, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
