package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/process"
)

type fakeProcessor struct {
	paths []string
	seqs  []int
}

func (p *fakeProcessor) ProcessSeq(_ context.Context, path string, seq int) (process.Result, error) {
	p.paths = append(p.paths, path)
	p.seqs = append(p.seqs, seq)
	return process.Result{Path: path, State: process.StateRenamed}, nil
}

func testSettings(incoming []string, shared string) *config.Settings {
	cfg := config.Defaults()
	cfg.Watch.IncomingDirs = incoming
	cfg.Watch.SharedIncomingDir = shared
	cfg.Process.MinFileAgeVideo = 0
	cfg.Process.MinFileAgePhoto = 0
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestScanProcessesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.mov", "video")
	writeFile(t, dir, "a.mov", "video")
	writeFile(t, dir, "c.txt", "not media")
	writeFile(t, dir, "2025_01_01_Done__LRE.mov", "already processed")

	proc := &fakeProcessor{}
	w := NewWatcher(testSettings([]string{dir}, ""), proc, nil)

	if got := w.RunCycle(context.Background()); got != 2 {
		t.Fatalf("RunCycle processed %d files, want 2", got)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "b.mov")}
	if len(proc.paths) != 2 || proc.paths[0] != want[0] || proc.paths[1] != want[1] {
		t.Errorf("processed %q, want %q", proc.paths, want)
	}
	if len(proc.seqs) != 2 || proc.seqs[0] != 1 || proc.seqs[1] != 2 {
		t.Errorf("sequences = %v, want [1 2]", proc.seqs)
	}
}

func TestScanSkipsZeroByteFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.mov", "")

	proc := &fakeProcessor{}
	w := NewWatcher(testSettings([]string{dir}, ""), proc, nil)

	if got := w.RunCycle(context.Background()); got != 0 {
		t.Fatalf("RunCycle processed %d files, want 0", got)
	}
	if len(proc.paths) != 0 {
		t.Errorf("processor saw %q, want nothing", proc.paths)
	}
}

func TestScanRespectsMinimumAge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fresh.mov", "video")

	cfg := testSettings([]string{dir}, "")
	cfg.Process.MinFileAgeVideo = time.Hour
	proc := &fakeProcessor{}
	w := NewWatcher(cfg, proc, nil)

	if got := w.RunCycle(context.Background()); got != 0 {
		t.Fatalf("RunCycle processed %d files, want 0", got)
	}
}

func TestScanToleratesMissingDirectory(t *testing.T) {
	proc := &fakeProcessor{}
	w := NewWatcher(testSettings([]string{"/nonexistent/shuttermill-watch"}, ""), proc, nil)
	if got := w.RunCycle(context.Background()); got != 0 {
		t.Fatalf("RunCycle processed %d files, want 0", got)
	}
}

func TestDistributeShared(t *testing.T) {
	shared := t.TempDir()
	base := t.TempDir()
	inA := filepath.Join(base, "a_incoming")
	inB := filepath.Join(base, "b_incoming")
	writeFile(t, shared, "drop.mov", "video")

	w := NewWatcher(testSettings([]string{inA, inB}, shared), &fakeProcessor{}, nil)
	if got := w.DistributeShared(context.Background()); got != 1 {
		t.Fatalf("DistributeShared = %d, want 1", got)
	}

	for _, dir := range []string{inA, inB} {
		if _, err := os.Stat(filepath.Join(dir, "drop.mov")); err != nil {
			t.Errorf("copy missing in %s: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(shared, "drop.mov")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("original still in shared directory: %v", err)
	}
}

func TestDistributeSharedKeepsOriginalOnCopyFailure(t *testing.T) {
	shared := t.TempDir()
	inA, inB := t.TempDir(), t.TempDir()
	path := writeFile(t, shared, "drop.mov", "video")

	w := NewWatcher(testSettings([]string{inA, inB}, shared), &fakeProcessor{}, nil)
	w.copyFile = func(_ context.Context, _, dst string) error {
		if strings.HasPrefix(dst, inB) {
			return errors.New("disk full")
		}
		return os.WriteFile(dst, []byte("video"), 0o644)
	}

	if got := w.DistributeShared(context.Background()); got != 0 {
		t.Fatalf("DistributeShared = %d, want 0", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original removed despite failed copy: %v", err)
	}
}

func TestDistributeSharedSkipsNotReady(t *testing.T) {
	shared := t.TempDir()
	in := t.TempDir()
	path := writeFile(t, shared, "empty.mov", "")

	w := NewWatcher(testSettings([]string{in}, shared), &fakeProcessor{}, nil)
	if got := w.DistributeShared(context.Background()); got != 0 {
		t.Fatalf("DistributeShared = %d, want 0", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("zero-byte file removed from shared directory: %v", err)
	}
}

func TestRunCycleDistributesThenProcesses(t *testing.T) {
	shared := t.TempDir()
	in := t.TempDir()
	writeFile(t, shared, "drop.jpg", "photo")
	writeFile(t, in, "already.mov", "video")

	proc := &fakeProcessor{}
	var events []process.ProgressEvent
	w := NewWatcher(testSettings([]string{in}, shared), proc, func(e process.ProgressEvent) {
		events = append(events, e)
	})

	if got := w.RunCycle(context.Background()); got != 2 {
		t.Fatalf("RunCycle processed %d files, want 2 (distributed copy + existing)", got)
	}

	want := []string{filepath.Join(in, "already.mov"), filepath.Join(in, "drop.jpg")}
	if len(proc.paths) != 2 || proc.paths[0] != want[0] || proc.paths[1] != want[1] {
		t.Errorf("processed %q, want %q", proc.paths, want)
	}

	var sawPass bool
	for _, e := range events {
		if strings.Contains(e.Message, "Pass complete") {
			sawPass = true
		}
	}
	if !sawPass {
		t.Error("no pass-complete progress event emitted")
	}
}

func TestCollectBatchDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.jpg", "photo")
	writeFile(t, dir, "a.mov", "video")
	writeFile(t, dir, "notes.txt", "not media")
	writeFile(t, dir, "done__LRE.jpg", "processed")

	files, err := CollectBatch(testSettings(nil, ""), dir)
	if err != nil {
		t.Fatalf("CollectBatch: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "b.jpg")}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("CollectBatch = %q, want %q", files, want)
	}
}

func TestCollectBatchSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clip.mov", "video")

	files, err := CollectBatch(testSettings(nil, ""), path)
	if err != nil {
		t.Fatalf("CollectBatch: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("CollectBatch = %q, want [%q]", files, path)
	}

	if _, err := CollectBatch(testSettings(nil, ""), writeFile(t, dir, "notes.txt", "x")); err == nil {
		t.Error("CollectBatch accepted a non-media file")
	}
}

func TestSequenceRollsOver(t *testing.T) {
	w := NewWatcher(testSettings(nil, ""), &fakeProcessor{}, nil)
	w.seq = 9998
	if got := w.nextSeq(); got != 9999 {
		t.Fatalf("nextSeq = %d, want 9999", got)
	}
	if got := w.nextSeq(); got != 1 {
		t.Fatalf("nextSeq after rollover = %d, want 1", got)
	}
}
