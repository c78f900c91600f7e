package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration (mislabeled .jpg files)
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/logging"
)

// TagCopier transplants all tags from one file onto another. The
// exiftool codec satisfies this.
type TagCopier interface {
	CopyTags(ctx context.Context, from, to string) error
}

// Recompressor re-encodes JPEGs in place: decode, scale the long edge
// down to the configured bound, re-encode at the configured quality,
// copy the tags from the original onto the result, then swap it in.
// Files already below the size threshold are left alone.
type Recompressor struct {
	maxLongEdge int
	quality     int
	minSize     int64
	copier      TagCopier
}

// New creates a Recompressor from the imaging settings.
func New(cfg config.ImagingSettings, copier TagCopier) *Recompressor {
	return &Recompressor{
		maxLongEdge: cfg.MaxLongEdge,
		quality:     cfg.Quality,
		minSize:     cfg.MinSizeBytes,
		copier:      copier,
	}
}

// Recompress shrinks the JPEG at path. The rewrite is staged in a
// sibling temp file; the original is only replaced after the tags have
// been copied over, so a failure at any step leaves it untouched.
func (r *Recompressor) Recompress(ctx context.Context, path string) error {
	log := logging.Ctx(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if r.minSize > 0 && info.Size() < r.minSize {
		log.Debug().Str("file", path).Int64("bytes", info.Size()).Msg("below recompression threshold, skipping")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := fitLongEdge(bounds.Dx(), bounds.Dy(), r.maxLongEdge)

	out := img
	if width != bounds.Dx() || height != bounds.Dy() {
		// Catmull-Rom for high-quality downscaling.
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp := tempPath(path)
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := r.copier.CopyTags(ctx, path, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("copying tags onto recompressed file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	log.Info().Str("file", path).
		Int64("bytes_before", info.Size()).
		Int64("bytes_after", int64(buf.Len())).
		Int("width", width).
		Int("height", height).
		Msg("recompressed")
	return nil
}

// fitLongEdge bounds the longer side to max, preserving the aspect
// ratio. A max of zero or less leaves the dimensions untouched.
func fitLongEdge(width, height, max int) (int, int) {
	if max <= 0 || (width <= max && height <= max) {
		return width, height
	}
	if width >= height {
		return max, int(float64(height) * float64(max) / float64(width))
	}
	return int(float64(width) * float64(max) / float64(height)), max
}

// tempPath keeps the original extension so the staging file is still
// recognized by tag tooling.
func tempPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_temp" + ext
}
