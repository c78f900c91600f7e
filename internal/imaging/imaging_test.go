package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/shuttermill/shuttermill/internal/config"
)

type fakeCopier struct {
	calls [][2]string
	err   error
}

func (c *fakeCopier) CopyTags(_ context.Context, from, to string) error {
	c.calls = append(c.calls, [2]string{from, to})
	return c.err
}

// writeJPEG encodes a gradient image so the bytes are non-trivial.
func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func decodeDims(t *testing.T, path string) (int, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func newRecompressor(copier TagCopier, maxEdge int) *Recompressor {
	return New(config.ImagingSettings{
		Enabled:     true,
		MaxLongEdge: maxEdge,
		Quality:     80,
	}, copier)
}

func TestRecompressScalesDown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jpg")
	writeJPEG(t, path, 64, 32)

	copier := &fakeCopier{}
	if err := newRecompressor(copier, 16).Recompress(context.Background(), path); err != nil {
		t.Fatalf("Recompress: %v", err)
	}

	w, h := decodeDims(t, path)
	if w != 16 || h != 8 {
		t.Errorf("dimensions = %dx%d, want 16x8", w, h)
	}
	if len(copier.calls) != 1 {
		t.Fatalf("CopyTags called %d times, want 1", len(copier.calls))
	}
	wantTemp := filepath.Join(dir, "big_temp.jpg")
	if copier.calls[0][0] != path || copier.calls[0][1] != wantTemp {
		t.Errorf("CopyTags(%q, %q), want (%q, %q)", copier.calls[0][0], copier.calls[0][1], path, wantTemp)
	}
	if _, err := os.Stat(wantTemp); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestRecompressKeepsSmallDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.jpg")
	writeJPEG(t, path, 20, 10)

	copier := &fakeCopier{}
	if err := newRecompressor(copier, 3840).Recompress(context.Background(), path); err != nil {
		t.Fatalf("Recompress: %v", err)
	}

	if w, h := decodeDims(t, path); w != 20 || h != 10 {
		t.Errorf("dimensions = %dx%d, want 20x10 (re-encode only)", w, h)
	}
	if len(copier.calls) != 1 {
		t.Errorf("CopyTags called %d times, want 1", len(copier.calls))
	}
}

func TestRecompressSkipsBelowSizeThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.jpg")
	writeJPEG(t, path, 8, 8)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	copier := &fakeCopier{}
	r := New(config.ImagingSettings{MaxLongEdge: 4, Quality: 80, MinSizeBytes: 1 << 20}, copier)
	if err := r.Recompress(context.Background(), path); err != nil {
		t.Fatalf("Recompress: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("file below threshold was rewritten")
	}
	if len(copier.calls) != 0 {
		t.Errorf("CopyTags called %d times, want 0", len(copier.calls))
	}
}

func TestRecompressCopyFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.jpg")
	writeJPEG(t, path, 64, 32)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	copier := &fakeCopier{err: errors.New("exiftool unavailable")}
	if err := newRecompressor(copier, 16).Recompress(context.Background(), path); err == nil {
		t.Fatal("Recompress succeeded, want error")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("original bytes changed after failed tag copy")
	}
	if _, err := os.Stat(filepath.Join(dir, "keep_temp.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestRecompressRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := newRecompressor(&fakeCopier{}, 16).Recompress(context.Background(), path); err == nil {
		t.Fatal("Recompress succeeded on garbage input")
	}
}

func TestFitLongEdge(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape scaled", 4000, 3000, 3840, 3840, 2880},
		{"portrait scaled", 3000, 4000, 3840, 2880, 3840},
		{"square scaled", 100, 100, 50, 50, 50},
		{"within bound", 100, 50, 200, 100, 50},
		{"exact bound", 3840, 2160, 3840, 3840, 2160},
		{"no bound", 9000, 5000, 0, 9000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitLongEdge(tt.w, tt.h, tt.max)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitLongEdge(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestTempPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/photos/a.jpg", "/photos/a_temp.jpg"},
		{"/photos/a.JPG", "/photos/a_temp.JPG"},
		{"b.jpeg", "b_temp.jpeg"},
	}
	for _, tt := range tests {
		if got := tempPath(tt.in); got != tt.want {
			t.Errorf("tempPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
