package videometa

import (
	"context"
	"math"
	"testing"
	"time"
)

const sampleProbe = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 3840, "height": 2160,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "0/0"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "opus", "codec_type": "audio"}
  ],
  "format": {
    "filename": "/media/dash/GX010042.MP4",
    "duration": "183.183000",
    "size": "734003200",
    "tags": {"creation_time": "2024-05-01T12:00:03.000000Z", "encoder": "GoPro AVC"}
  }
}`

func TestDecode(t *testing.T) {
	md, err := Decode([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md.Filename != "GX010042.MP4" || md.Duration != 183.183 || md.SizeBytes != 734003200 {
		t.Fatalf("unexpected format fields %+v", md)
	}
	if md.Codec != "h264" || md.Width != 3840 || md.Height != 2160 {
		t.Fatalf("unexpected video fields %+v", md)
	}
	if math.Abs(md.FPS-29.97) > 0.001 {
		t.Fatalf("unexpected fps %v", md.FPS)
	}
	if !md.HasAudio || md.AudioCodec != "aac" {
		t.Fatalf("unexpected audio fields %+v", md)
	}
	want := time.Date(2024, 5, 1, 12, 0, 3, 0, time.UTC)
	if md.Start == nil || !md.Start.Equal(want) {
		t.Fatalf("unexpected start %v", md.Start)
	}
}

func TestDecodeMissingFields(t *testing.T) {
	md, err := Decode([]byte(`{"format":{"duration":"bad","tags":{"creation_time":"yesterday"}},"streams":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md.Duration != 0 || md.Start != nil || md.CreationTime != "yesterday" || md.HasAudio || md.Filename != "" {
		t.Fatalf("unexpected %+v", md)
	}
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"30/1", 30, true},
		{"25", 25, true},
		{"0/0", 0, false},
		{"", 0, false},
		{"x/1", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFrameRate(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("%q: expected %v/%v, got %v/%v", c.in, c.want, c.ok, got, ok)
		}
	}
}

func TestProbeErrors(t *testing.T) {
	if _, err := Probe(context.Background(), "", "  "); err == nil {
		t.Fatalf("expected empty path error")
	}
	if _, err := Probe(context.Background(), "/nonexistent/ffprobe-bin", "clip.mp4"); err == nil {
		t.Fatalf("expected exec error")
	}
}
