package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/model"
	"github.com/shuttermill/shuttermill/internal/sidecar"
)

// State names one step of the per-file pipeline. Each run moves through
// the states strictly in order; there is no way to reach StateRenamed
// without passing StateCleanup first, which is where the sidecar is
// removed. That ordering is the pipeline's central invariant: the
// sidecar is gone before the file gets its final name.
type State int

const (
	// StateSkip is terminal: the name already carries the completion
	// marker, nothing is read, written or deleted.
	StateSkip State = iota

	// StateEmpty means the aggregate had no usable field. The run
	// proceeds straight to StateCleanup without writing.
	StateEmpty

	// StateWritePending is the resting state of a run that has an
	// aggregate but has not yet touched the file.
	StateWritePending

	// StateWritten means the codec accepted every tag write.
	StateWritten

	// StateWriteFailed is terminal: the codec rejected the write and
	// the file, its name and its sidecar are untouched.
	StateWriteFailed

	// StateVerified means every required field read back equal.
	StateVerified

	// StateVerifyFailed is terminal: a required field did not read
	// back; sidecar and name stay untouched for the next pass.
	StateVerifyFailed

	// StateCleanup covers sidecar removal and the rename that follows.
	StateCleanup

	// StateRenamed is terminal success: the file bears its generated,
	// completion-marked name.
	StateRenamed

	// StateRenameFailed is terminal: tags are written and verified but
	// the name did not update. The file is picked up again next pass.
	StateRenameFailed
)

func (s State) String() string {
	switch s {
	case StateSkip:
		return "skip"
	case StateEmpty:
		return "empty"
	case StateWritePending:
		return "write-pending"
	case StateWritten:
		return "written"
	case StateWriteFailed:
		return "write-failed"
	case StateVerified:
		return "verified"
	case StateVerifyFailed:
		return "verify-failed"
	case StateCleanup:
		return "cleanup"
	case StateRenamed:
		return "renamed"
	case StateRenameFailed:
		return "rename-failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the pipeline stops in this state.
func (s State) Terminal() bool {
	switch s {
	case StateSkip, StateWriteFailed, StateVerifyFailed, StateRenamed, StateRenameFailed:
		return true
	}
	return false
}

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	Stage   State
	Path    string
}

// Codec is the boundary to the external metadata tool. ReadTags
// returns group-qualified tag names, WriteTags takes tag-name to value
// pairs, CopyTags clones every tag from one file onto another.
type Codec interface {
	ReadTags(ctx context.Context, path string) (map[string]string, error)
	WriteTags(ctx context.Context, path string, tags map[string]string) error
	CopyTags(ctx context.Context, from, to string) error
}

// Recompressor shrinks a photo in place, preserving its tags. A nil
// Recompressor on the Processor disables the step.
type Recompressor interface {
	Recompress(ctx context.Context, path string) error
}

// Result reports how one file moved through the pipeline.
type Result struct {
	// Path is the file as handed to Process.
	Path string

	// NewPath is where the file lives afterwards. It equals Path for
	// every outcome except StateRenamed.
	NewPath string

	// State is the state the run stopped in.
	State State

	// Metadata is the aggregate the run worked with. Zero when the
	// file was skipped.
	Metadata model.MediaMetadata

	// Warnings counts tolerated verify mismatches.
	Warnings int

	// Err carries the failure behind a *Failed state. It is reported
	// here rather than returned so one bad file never stops a pass.
	Err error
}

// Processor runs the metadata pipeline on single files: aggregate
// sidecar and embedded tags, write the aggregate into the file, verify
// it read back, delete the sidecar, rename to the generated name.
//
// Files are processed strictly one at a time; Processor keeps no
// per-file state between calls.
type Processor struct {
	// DryRun stops the run before anything is modified and reports
	// what would have been written and the name the file would get.
	DryRun bool

	settings   *config.Settings
	codec      Codec
	recompress Recompressor
	onProgress func(ProgressEvent)
	now        func() time.Time
	removeFile func(string) error
	renameFile func(oldpath, newpath string) error
	statFile   func(string) (os.FileInfo, error)
}

// NewProcessor creates a Processor. onProgress may be nil; recompress
// may be nil to disable JPEG recompression.
func NewProcessor(settings *config.Settings, codec Codec, recompress Recompressor, onProgress func(ProgressEvent)) *Processor {
	return &Processor{
		settings:   settings,
		codec:      codec,
		recompress: recompress,
		onProgress: onProgress,
		now:        time.Now,
		removeFile: os.Remove,
		renameFile: os.Rename,
		statFile:   os.Stat,
	}
}

// Process runs the pipeline on one file with no sequence component in
// the generated name. Pipeline failures never come back as the error
// return; they land in Result.State and Result.Err so a batch caller
// can log them and keep going. The error return is reserved for files
// the pipeline cannot even start on: missing, not a regular file, or
// an extension that is neither video nor photo.
func (p *Processor) Process(ctx context.Context, path string) (Result, error) {
	return p.ProcessSeq(ctx, path, 0)
}

// ProcessSeq is Process with a caller-assigned collision counter. The
// watcher hands every file of a pass its own value; seq greater than
// zero appends a four-digit component to the generated name.
func (p *Processor) ProcessSeq(ctx context.Context, path string, seq int) (Result, error) {
	res := Result{Path: path, NewPath: path, State: StateWritePending}

	info, err := p.statFile(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return res, fmt.Errorf("%s is not a regular file", path)
	}

	kind, err := p.kindFor(path)
	if err != nil {
		return res, err
	}

	ctx = logging.WithNewRunID(logging.WithFile(ctx, filepath.Base(path)))
	log := logging.Ctx(ctx)

	if model.HasCompletionMarker(path) {
		res.State = StateSkip
		log.Debug().Msg("already processed, skipping")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Skipping processed file: %s", filepath.Base(path)),
			Level:   LevelVerbose,
			Stage:   StateSkip,
			Path:    path,
		})
		return res, nil
	}

	scPath, hasSidecar := sidecar.Locate(path)
	var sc sidecar.Fields
	var scDate string
	if hasSidecar {
		sc = sidecar.Read(ctx, scPath)
		scDate = p.sidecarDate(ctx, scPath)
		log.Debug().Str("sidecar", filepath.Base(scPath)).Msg("sidecar found")
	}

	embedded, err := p.codec.ReadTags(ctx, path)
	if err != nil {
		log.Warn().Err(err).Msg("embedded tags unreadable, continuing with sidecar only")
		embedded = nil
	}

	meta := Aggregate(kind, sc, scDate, embedded)
	if kind == KindPhoto {
		p.enrichPhoto(&meta, embedded)
	}
	res.Metadata = meta

	if meta.IsEmpty() {
		res.State = StateEmpty
		if p.DryRun {
			p.reportDryRun(ctx, &res, nil, seq)
			return res, nil
		}
		log.Info().Msg("no metadata found, marking file without writing")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("No metadata in %s, marking as processed", filepath.Base(path)),
			Level:   LevelInfo,
			Stage:   StateEmpty,
			Path:    path,
		})
		p.cleanup(ctx, &res, kind, scPath, hasSidecar, seq)
		return res, nil
	}

	ops := writeOps(writesFor(kind), meta)

	if p.DryRun {
		p.reportDryRun(ctx, &res, ops, seq)
		return res, nil
	}

	if !p.write(ctx, &res, ops) {
		return res, nil
	}
	if !p.verify(ctx, &res, ops) {
		return res, nil
	}
	p.cleanup(ctx, &res, kind, scPath, hasSidecar, seq)
	return res, nil
}

// write moves the run from StateWritePending to StateWritten, or stops
// it at StateWriteFailed. On failure nothing has been renamed and the
// sidecar still exists, so the next pass retries from scratch.
func (p *Processor) write(ctx context.Context, res *Result, ops []writeOp) bool {
	log := logging.Ctx(ctx)

	tags := tagMap(ops)
	log.Debug().Int("fields", len(ops)).Int("tags", len(tags)).Msg("writing metadata")

	if err := p.codec.WriteTags(ctx, res.Path, tags); err != nil {
		res.State = StateWriteFailed
		res.Err = fmt.Errorf("write tags: %w", err)
		log.Error().Err(err).Msg("metadata write failed, file left untouched")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Error writing metadata to %s: %v", filepath.Base(res.Path), err),
			Level:   LevelError,
			Stage:   StateWriteFailed,
			Path:    res.Path,
		})
		return false
	}

	res.State = StateWritten
	return true
}

// verify re-reads the file and confirms every written field. Keyword
// mismatches are tolerated with a warning; any other mismatch stops
// the run at StateVerifyFailed with sidecar and name untouched.
func (p *Processor) verify(ctx context.Context, res *Result, ops []writeOp) bool {
	log := logging.Ctx(ctx)

	reread, err := p.codec.ReadTags(ctx, res.Path)
	if err != nil {
		res.State = StateVerifyFailed
		res.Err = fmt.Errorf("re-read tags: %w", err)
		log.Error().Err(err).Msg("verification re-read failed")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Error verifying %s: %v", filepath.Base(res.Path), err),
			Level:   LevelError,
			Stage:   StateVerifyFailed,
			Path:    res.Path,
		})
		return false
	}

	failures, warnings := verifyTags(ops, reread)
	for _, w := range warnings {
		res.Warnings++
		log.Warn().
			Str("field", w.Op.Field.String()).
			Str("wrote", w.Op.Value).
			Strs("observed", w.Observed).
			Msg("keyword verification mismatch tolerated")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Keyword mismatch in %s (tolerated)", filepath.Base(res.Path)),
			Level:   LevelWarning,
			Stage:   StateWritten,
			Path:    res.Path,
		})
	}

	if len(failures) > 0 {
		res.State = StateVerifyFailed
		res.Err = fmt.Errorf("verification failed for %s", describeFailures(failures))
		for _, f := range failures {
			log.Error().
				Str("field", f.Op.Field.String()).
				Str("wrote", f.Op.Value).
				Strs("observed", f.Observed).
				Msg("verification mismatch")
		}
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Verification failed for %s: %s", filepath.Base(res.Path), describeFailures(failures)),
			Level:   LevelError,
			Stage:   StateVerifyFailed,
			Path:    res.Path,
		})
		return false
	}

	res.State = StateVerified
	log.Debug().Int("fields", len(ops)).Msg("metadata verified")
	return true
}

// cleanup deletes the sidecar, recompresses photos when configured,
// and renames the file to its generated name. Sidecar removal comes
// first and its failure is logged but never blocks the rename; the
// marker on the new name is what stops reprocessing, not the sidecar's
// absence.
func (p *Processor) cleanup(ctx context.Context, res *Result, kind Kind, scPath string, hasSidecar bool, seq int) {
	log := logging.Ctx(ctx)
	res.State = StateCleanup

	if hasSidecar {
		if err := p.removeFile(scPath); err != nil {
			log.Warn().Err(err).Str("sidecar", scPath).Msg("sidecar delete failed, proceeding to rename")
			p.progress(ProgressEvent{
				Message: fmt.Sprintf("Could not delete sidecar %s: %v", filepath.Base(scPath), err),
				Level:   LevelWarning,
				Stage:   StateCleanup,
				Path:    res.Path,
			})
		} else {
			log.Debug().Str("sidecar", scPath).Msg("sidecar deleted")
		}
	}

	if kind == KindPhoto && p.recompress != nil {
		if err := p.recompress.Recompress(ctx, res.Path); err != nil {
			log.Warn().Err(err).Msg("recompression failed, keeping original bytes")
			p.progress(ProgressEvent{
				Message: fmt.Sprintf("Recompression of %s failed: %v", filepath.Base(res.Path), err),
				Level:   LevelWarning,
				Stage:   StateCleanup,
				Path:    res.Path,
			})
		}
	}

	p.rename(ctx, res, seq)
}

// rename gives the file its completion-marked name. A missing date
// degrades to the original stem plus marker rather than leaving the
// file unmarked, so the next pass skips it either way.
func (p *Processor) rename(ctx context.Context, res *Result, seq int) {
	log := logging.Ctx(ctx)

	base := filepath.Base(res.Path)
	newName, err := model.GenerateFilename(res.Metadata, base, seq)
	if err != nil {
		if !errors.Is(err, model.ErrNoDate) {
			log.Warn().Err(err).Msg("filename generation failed, using marked original name")
		}
		newName = model.MarkedName(base)
	}

	newPath := filepath.Join(filepath.Dir(res.Path), newName)
	if newPath == res.Path {
		res.State = StateRenamed
		return
	}

	if err := p.renameFile(res.Path, newPath); err != nil {
		res.State = StateRenameFailed
		res.Err = fmt.Errorf("rename to %s: %w", newName, err)
		log.Error().Err(err).Str("target", newName).Msg("rename failed, metadata already written")
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("Error renaming %s: %v", base, err),
			Level:   LevelError,
			Stage:   StateRenameFailed,
			Path:    res.Path,
		})
		return
	}

	res.State = StateRenamed
	res.NewPath = newPath
	log.Info().Str("renamed_to", newName).Msg("file processed")
	p.progress(ProgressEvent{
		Message: fmt.Sprintf("Processed: %s -> %s", base, newName),
		Level:   LevelSuccess,
		Stage:   StateRenamed,
		Path:    newPath,
	})
}

// reportDryRun stops a run before any modification and reports what
// the write and rename steps would have done.
func (p *Processor) reportDryRun(ctx context.Context, res *Result, ops []writeOp, seq int) {
	base := filepath.Base(res.Path)
	newName, err := model.GenerateFilename(res.Metadata, base, seq)
	if err != nil {
		newName = model.MarkedName(base)
	}

	message := fmt.Sprintf("Dry run: would mark %s -> %s", base, newName)
	fields := make([]string, 0, len(ops))
	if len(ops) > 0 {
		for _, op := range ops {
			fields = append(fields, op.Field.String())
		}
		message = fmt.Sprintf("Dry run: would write %s and rename %s -> %s", strings.Join(fields, ", "), base, newName)
	}

	logging.Ctx(ctx).Info().
		Strs("fields", fields).
		Str("would_rename_to", newName).
		Msg("dry run")
	p.progress(ProgressEvent{
		Message: message,
		Level:   LevelInfo,
		Stage:   res.State,
		Path:    res.Path,
	})
}

// kindFor classifies the file by its extension against the configured
// video and photo lists.
func (p *Processor) kindFor(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case p.settings.IsVideo(ext):
		return KindVideo, nil
	case p.settings.IsPhoto(ext):
		return KindPhoto, nil
	default:
		return KindVideo, fmt.Errorf("unsupported media extension %q", ext)
	}
}

// sidecarDate reads the capture date off the sidecar document itself.
// The date lives in an exif property there, which the XML reader does
// not extract, so it goes through the codec like any other tag read.
func (p *Processor) sidecarDate(ctx context.Context, scPath string) string {
	tags, err := p.codec.ReadTags(ctx, scPath)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sidecar", scPath).Msg("sidecar date unreadable")
		return ""
	}
	return lookupTag(tags, []string{"DateTimeOriginal", "CreateDate"})
}

func (p *Processor) progress(event ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(event)
	}
}

func describeFailures(failures []mismatch) string {
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Op.Field.String())
	}
	return strings.Join(names, ", ")
}
