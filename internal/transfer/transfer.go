package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/shuttermill/shuttermill/internal/config"
	ioutils "github.com/shuttermill/shuttermill/internal/io"
	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/model"
	"github.com/shuttermill/shuttermill/internal/photos"
	"github.com/shuttermill/shuttermill/internal/process"
	"github.com/shuttermill/shuttermill/internal/sidecar"
)

// TagReader reads the embedded tags of one file with bare tag names.
// The exiftool codec satisfies this with its pooled stay-open reader,
// which suits a loop that runs every few seconds better than spawning
// a process per file.
type TagReader interface {
	ReadFields(ctx context.Context, path string) (map[string]string, error)
}

// AlbumResolver maps file metadata to destination album paths.
type AlbumResolver interface {
	Resolve(ctx context.Context, meta model.MediaMetadata) []string
}

// Transferer moves completion-marked files out of their processed
// directories along the configured routes, and hands library-bound
// files to the importer afterwards.
type Transferer struct {
	settings *config.Settings
	reader   TagReader
	resolver AlbumResolver
	importer photos.Importer

	now       func() time.Time
	moveFile  func(ctx context.Context, src, dst string) error
	canAccess func(ctx context.Context, path string, timeout time.Duration) bool
}

// New creates a Transferer. Pass photos.NopImporter{} when no library
// bridge is configured.
func New(settings *config.Settings, reader TagReader, resolver AlbumResolver, importer photos.Importer) *Transferer {
	return &Transferer{
		settings:  settings,
		reader:    reader,
		resolver:  resolver,
		importer:  importer,
		now:       time.Now,
		moveFile:  ioutils.MoveFile,
		canAccess: ioutils.CanAccess,
	}
}

// TransferFile moves one file along its route when every gate passes:
// the name carries the completion marker, the source directory has a
// route, the file has sat unchanged for the minimum age, and no other
// process holds it open. A false return without an error means a gate
// declined; the file stays put for a later pass.
//
// On import routes the move itself can succeed while the library
// import fails; that is reported as (true, err) and the next pass does
// not see the file again, so the caller decides what to do about it.
func (t *Transferer) TransferFile(ctx context.Context, path string) (bool, error) {
	log := logging.Ctx(ctx)

	if _, err := os.Stat(path); err != nil {
		return false, err
	}
	if !model.HasCompletionMarker(filepath.Base(path)) {
		log.Debug().Str("file", path).Msg("not a processed file")
		return false, nil
	}

	route := t.routeFor(filepath.Dir(path))
	if route == nil {
		return false, fmt.Errorf("no transfer route for directory %s", filepath.Dir(path))
	}

	if !ioutils.IsOldEnough(path, t.settings.Transfer.MinAge) {
		log.Debug().Str("file", path).Msg("too new to transfer")
		return false, nil
	}
	if !t.canAccess(ctx, path, t.settings.Transfer.LockTimeout) {
		log.Debug().Str("file", path).Msg("file busy, skipping this pass")
		return false, nil
	}

	destDir := route.Dest
	if route.DateSubfolders {
		when := t.captureTime(path)
		destDir = filepath.Join(destDir, fmt.Sprintf("%04d", when.Year()), fmt.Sprintf("%02d", int(when.Month())))
	}
	if err := ioutils.EnsureDir(destDir); err != nil {
		return false, err
	}

	dest := filepath.Join(destDir, filepath.Base(path))
	if err := t.moveFile(ctx, path, dest); err != nil {
		return false, fmt.Errorf("moving %s: %w", path, err)
	}
	log.Info().Str("file", filepath.Base(path)).Str("dest", destDir).Msg("transferred")

	if route.Import {
		if err := t.importFile(ctx, dest); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Sweep runs one pass over every route source, attempting each marked
// file in name order. It returns how many files moved.
func (t *Transferer) Sweep(ctx context.Context) int {
	moved := 0
	for _, route := range t.settings.Transfer.Routes {
		entries, err := os.ReadDir(route.Source)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("dir", route.Source).Msg("cannot scan transfer source")
			continue
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return moved
			}
			if entry.IsDir() || !model.HasCompletionMarker(entry.Name()) {
				continue
			}
			path := filepath.Join(route.Source, entry.Name())
			ok, err := t.TransferFile(logging.WithFile(ctx, path), path)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("file", path).Msg("transfer failed")
			}
			if ok {
				moved++
			}
		}
	}
	return moved
}

// Run polls the route sources until the context is cancelled.
func (t *Transferer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		t.Sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Transferer) routeFor(dir string) *config.TransferRoute {
	dir = filepath.Clean(dir)
	for i := range t.settings.Transfer.Routes {
		if filepath.Clean(t.settings.Transfer.Routes[i].Source) == dir {
			return &t.settings.Transfer.Routes[i]
		}
	}
	return nil
}

// importFile resolves album paths from the file's embedded tags and
// hands it to the library importer.
func (t *Transferer) importFile(ctx context.Context, path string) error {
	meta := t.readMetadata(ctx, path)
	albums := t.resolver.Resolve(ctx, meta)
	if err := t.importer.Import(ctx, path, albums); err != nil {
		return fmt.Errorf("library import: %w", err)
	}
	logging.Ctx(ctx).Info().Str("file", filepath.Base(path)).Strs("albums", albums).Msg("imported to library")
	return nil
}

// readMetadata rebuilds the aggregate from embedded tags alone; the
// sidecar is gone by the time a file reaches the transfer stage.
func (t *Transferer) readMetadata(ctx context.Context, path string) model.MediaMetadata {
	tags, err := t.reader.ReadFields(ctx, path)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("tag read failed, resolving albums without metadata")
		tags = nil
	}
	kind := process.KindVideo
	if t.settings.IsPhoto(filepath.Ext(path)) {
		kind = process.KindPhoto
	}
	return process.Aggregate(kind, sidecar.Fields{}, "", tags)
}

// captureTime is the timestamp used for date subfolders: the embedded
// EXIF original date for photos, the file's mtime otherwise.
func (t *Transferer) captureTime(path string) time.Time {
	if t.settings.IsPhoto(filepath.Ext(path)) {
		if when, err := exifDateTime(path); err == nil {
			return when
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return t.now()
}

func exifDateTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}
