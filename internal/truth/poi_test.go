package truth

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"geotruth/internal/geomath"
)

func TestKDIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var places []Place
	for i := 0; i < 500; i++ {
		places = append(places, Place{
			ID:  strconv.Itoa(i),
			Lat: 60 + rng.Float64()*0.05,
			Lon: 10 + rng.Float64()*0.1,
		})
	}
	idx := NewKDIndex(places)
	if idx.Len() != 500 {
		t.Fatalf("unexpected size %d", idx.Len())
	}
	for q := 0; q < 20; q++ {
		lat, lon := 60+rng.Float64()*0.05, 10+rng.Float64()*0.1
		got, err := idx.Nearby(context.Background(), lat, lon, 800)
		if err != nil {
			t.Fatalf("nearby: %v", err)
		}
		var want []string
		for _, p := range places {
			if geomath.DistanceMeters(lat, lon, p.Lat, p.Lon) <= 800 {
				want = append(want, p.ID)
			}
		}
		var gotIDs []string
		for _, p := range got {
			gotIDs = append(gotIDs, p.ID)
		}
		sort.Strings(want)
		sort.Strings(gotIDs)
		if len(want) != len(gotIDs) {
			t.Fatalf("query %d: expected %d places, got %d", q, len(want), len(gotIDs))
		}
		for i := range want {
			if want[i] != gotIDs[i] {
				t.Fatalf("query %d: mismatch %v vs %v", q, want, gotIDs)
			}
		}
	}
}

func TestKDIndexEmpty(t *testing.T) {
	got, err := NewKDIndex(nil).Nearby(context.Background(), 0, 0, 1000)
	if err != nil || len(got) != 0 {
		t.Fatalf("unexpected %v/%v", got, err)
	}
}

func TestLoadKDIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pois.json")
	if err := os.WriteFile(path, []byte(`[{"id":"1","lat":1,"lon":2},{"id":"2","lat":3,"lon":4}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx, err := LoadKDIndex(path)
	if err != nil || idx.Len() != 2 {
		t.Fatalf("unexpected %v/%v", idx, err)
	}
	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{`), 0o644)
	if _, err := LoadKDIndex(bad); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := LoadKDIndex(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
