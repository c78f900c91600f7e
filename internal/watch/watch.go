package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shuttermill/shuttermill/internal/config"
	ioutils "github.com/shuttermill/shuttermill/internal/io"
	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/model"
	"github.com/shuttermill/shuttermill/internal/process"
)

// Processor consumes one ready file. The process.Processor satisfies
// this.
type Processor interface {
	ProcessSeq(ctx context.Context, path string, seq int) (process.Result, error)
}

// maxSequence is where the per-file counter rolls over to 1, keeping
// the filename component four digits.
const maxSequence = 9999

// Watcher polls the incoming directories. Each pass distributes the
// shared drop directory first, then runs every ready file through the
// processor strictly one at a time, in name order.
type Watcher struct {
	settings   *config.Settings
	processor  Processor
	onProgress func(process.ProgressEvent)

	seq int

	copyFile   func(ctx context.Context, src, dst string) error
	removeFile func(path string) error
	canAccess  func(ctx context.Context, path string, timeout time.Duration) bool
}

// NewWatcher creates a Watcher. onProgress may be nil.
func NewWatcher(settings *config.Settings, processor Processor, onProgress func(process.ProgressEvent)) *Watcher {
	return &Watcher{
		settings:   settings,
		processor:  processor,
		onProgress: onProgress,
		copyFile:   ioutils.CopyFile,
		removeFile: os.Remove,
		canAccess:  ioutils.CanAccess,
	}
}

// Run polls until the context is cancelled. Cancellation is honored
// between files, never in the middle of one.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		w.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs one full pass: distribute the shared directory, then
// process each incoming directory. It returns the number of files fed
// through the processor.
func (w *Watcher) RunCycle(ctx context.Context) int {
	ctx = logging.WithNewBatchID(ctx)

	if w.settings.Watch.SharedIncomingDir != "" {
		w.DistributeShared(ctx)
	}

	processed := 0
	for _, dir := range w.settings.Watch.IncomingDirs {
		processed += w.scanDir(ctx, dir)
	}
	if processed > 0 {
		w.progress(process.ProgressEvent{
			Message: fmt.Sprintf("Pass complete: %d files processed", processed),
			Level:   process.LevelInfo,
		})
	}
	return processed
}

// DistributeShared copies every ready file in the shared drop
// directory into each incoming directory, then deletes the original.
// The delete happens only when all copies succeeded; a partial
// distribution stays in place and is retried next pass, overwriting
// the copies already made. Returns the number of files distributed.
func (w *Watcher) DistributeShared(ctx context.Context) int {
	shared := w.settings.Watch.SharedIncomingDir
	log := logging.Ctx(ctx)

	entries, err := os.ReadDir(shared)
	if err != nil {
		log.Warn().Err(err).Str("dir", shared).Msg("cannot scan shared incoming directory")
		return 0
	}

	distributed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return distributed
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(shared, entry.Name())
		if !w.ready(ctx, path) {
			log.Debug().Str("file", path).Msg("not ready for distribution")
			continue
		}

		failed := false
		for _, dir := range w.settings.Watch.IncomingDirs {
			if err := ioutils.EnsureDir(dir); err != nil {
				log.Error().Err(err).Str("dir", dir).Msg("cannot create incoming directory")
				failed = true
				continue
			}
			if err := w.copyFile(ctx, path, filepath.Join(dir, entry.Name())); err != nil {
				log.Error().Err(err).Str("file", path).Str("dir", dir).Msg("distribution copy failed")
				failed = true
			}
		}
		if failed {
			continue
		}
		if err := w.removeFile(path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("cannot remove distributed file")
			continue
		}

		distributed++
		log.Info().Str("file", entry.Name()).Int("targets", len(w.settings.Watch.IncomingDirs)).Msg("distributed")
		w.progress(process.ProgressEvent{
			Message: fmt.Sprintf("Distributed %s to %d incoming directories", entry.Name(), len(w.settings.Watch.IncomingDirs)),
			Level:   process.LevelInfo,
		})
	}
	return distributed
}

// scanDir feeds one directory's ready files through the processor in
// name order.
func (w *Watcher) scanDir(ctx context.Context, dir string) int {
	log := logging.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cannot scan incoming directory")
		return 0
	}

	processed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return processed
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !w.settings.IsVideo(ext) && !w.settings.IsPhoto(ext) {
			continue
		}
		if model.HasCompletionMarker(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !w.ready(ctx, path) {
			log.Debug().Str("file", path).Msg("not ready yet")
			continue
		}

		if _, err := w.processor.ProcessSeq(ctx, path, w.nextSeq()); err != nil {
			log.Error().Err(err).Str("file", path).Msg("processing failed")
			continue
		}
		processed++
	}
	return processed
}

// CollectBatch lists the files a one-shot run should process: root
// itself when it is a single media file, otherwise the unprocessed
// media files directly inside the directory, in name order. One-shot
// runs are explicit user requests, so the readiness gates of the
// polling loop do not apply.
func CollectBatch(settings *config.Settings, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		ext := filepath.Ext(root)
		if !settings.IsVideo(ext) && !settings.IsPhoto(ext) {
			return nil, fmt.Errorf("unsupported file type: %s", root)
		}
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !settings.IsVideo(ext) && !settings.IsPhoto(ext) {
			continue
		}
		if model.HasCompletionMarker(name) {
			continue
		}
		files = append(files, filepath.Join(root, name))
	}
	return files, nil
}

// ready reports whether a file looks safely complete: regular,
// non-empty, past its kind's minimum age, and not held by a writer.
// Distribution copies preserve modification times, so a file arriving
// from the shared directory does not restart its age.
func (w *Watcher) ready(ctx context.Context, path string) bool {
	if !ioutils.IsReady(path, w.minAge(path)) {
		return false
	}
	return w.canAccess(ctx, path, 0)
}

func (w *Watcher) minAge(path string) time.Duration {
	if w.settings.IsVideo(filepath.Ext(path)) {
		return w.settings.Process.MinFileAgeVideo
	}
	return w.settings.Process.MinFileAgePhoto
}

// nextSeq hands out 1 through 9999 and rolls over.
func (w *Watcher) nextSeq() int {
	w.seq = (w.seq % maxSequence) + 1
	return w.seq
}

func (w *Watcher) progress(event process.ProgressEvent) {
	if w.onProgress != nil {
		w.onProgress(event)
	}
}
