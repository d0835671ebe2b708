package sampler_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"jellyzam/internal/config"
	"jellyzam/internal/sampler"
	"jellyzam/internal/services"
	"jellyzam/internal/testsupport"
)

func TestHeadSamplerBoundsSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	testsupport.WriteFile(t, path, 5000)

	sample, err := sampler.HeadSampler{}.Sample(context.Background(), path, 1024)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sample.Data) != 1024 || sample.Path != path {
		t.Fatalf("unexpected sample: path=%s len=%d", sample.Path, len(sample.Data))
	}

	small := filepath.Join(t.TempDir(), "small.mp3")
	testsupport.WriteFile(t, small, 10)
	sample, err = sampler.HeadSampler{}.Sample(context.Background(), small, 0)
	if err != nil {
		t.Fatalf("Sample small: %v", err)
	}
	if len(sample.Data) != 10 {
		t.Fatalf("expected whole short file, got %d bytes", len(sample.Data))
	}
}

func TestHeadSamplerHugeLimitReadsOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.mp3")
	testsupport.WriteFile(t, path, 64)

	sample, err := sampler.HeadSampler{}.Sample(context.Background(), path, math.MaxInt)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sample.Data) != 64 || cap(sample.Data) > 4096 {
		t.Fatalf("expected a file-sized buffer, got len=%d cap=%d", len(sample.Data), cap(sample.Data))
	}
}

func TestHeadSamplerErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "missing.mp3"), services.ErrNotFound},
		{"directory", dir, services.ErrNotFound},
		{"empty", empty, services.ErrSampleRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sampler.HeadSampler{}.Sample(context.Background(), tt.path, 1024)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHeadSamplerHonoursCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	testsupport.WriteFile(t, path, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (sampler.HeadSampler{}).Sample(ctx, path, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// writeRampWAV writes a mono 16-bit WAV whose sample value is frame/10.
func writeRampWAV(t *testing.T, path string, rate, seconds int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	frames := rate * seconds
	data := make([]int, frames)
	for i := range data {
		data[i] = i / 10
	}
	encoder := wav.NewEncoder(file, rate, 16, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: rate}, Data: data, SourceBitDepth: 16}
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func decodeWAV(t *testing.T, data []byte) *audio.IntBuffer {
	t.Helper()
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		t.Fatal("sample is not a valid wav payload")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return buf
}

func TestWAVWindowSamplerTakesMiddleWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	writeRampWAV(t, path, 8000, 10)

	s := sampler.WAVWindowSampler{Window: 2 * time.Second}
	sample, err := s.Sample(context.Background(), path, sampler.DefaultMaxBytes)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	buf := decodeWAV(t, sample.Data)
	if len(buf.Data) != 16000 {
		t.Fatalf("expected 2s window of 16000 frames, got %d", len(buf.Data))
	}
	if buf.Data[0] != 3200 {
		t.Fatalf("expected window to start at frame 32000 (value 3200), got %d", buf.Data[0])
	}
}

func TestWAVWindowSamplerRespectsByteLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	writeRampWAV(t, path, 8000, 10)

	sample, err := sampler.WAVWindowSampler{Window: 5 * time.Second}.Sample(context.Background(), path, 44+2000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sample.Data) > 44+2000 {
		t.Fatalf("sample exceeds limit: %d bytes", len(sample.Data))
	}
	buf := decodeWAV(t, sample.Data)
	if len(buf.Data) != 1000 || buf.Data[0] != 3950 {
		t.Fatalf("unexpected window: frames=%d first=%d", len(buf.Data), buf.Data[0])
	}
}

func TestWAVWindowSamplerFallsBackForNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	testsupport.WriteFile(t, path, 3000)

	sample, err := sampler.WAVWindowSampler{Window: time.Second}.Sample(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sample.Data) != 100 || sample.Data[0] != 0x42 {
		t.Fatalf("expected head fallback, got %d bytes", len(sample.Data))
	}
}

func TestFromConfigSelectsMode(t *testing.T) {
	cfg := config.Default()
	s, err := sampler.FromConfig(&cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := s.(sampler.HeadSampler); !ok {
		t.Fatalf("expected HeadSampler, got %T", s)
	}

	cfg.Sample.Mode = config.SampleModeWAVWindow
	s, err = sampler.FromConfig(&cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if w, ok := s.(sampler.WAVWindowSampler); !ok || w.Window != 12*time.Second {
		t.Fatalf("expected 12s WAVWindowSampler, got %#v", s)
	}

	if _, err := sampler.New("fft", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
