// Package exiftool wraps the external exiftool binary behind a small
// adapter used by every stage that reads or writes media tags.
//
// Reads come in two shapes. ReadTags shells out with -j -m -G and
// returns group-qualified names ("XMP:Title", "QuickTime:CreateDate"),
// which write verification matches against. ReadFields uses a pooled
// stay-open exiftool process and returns bare names ("Title",
// "DateTimeOriginal"), which the aggregator uses as its fallback
// source. Writes and tag copies always shell out: one invocation per
// file keeps -overwrite_original semantics simple.
package exiftool

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	goexiftool "github.com/barasher/go-exiftool"
	"github.com/goccy/go-json"
)

// Runner executes one external command and returns its combined
// output. Tests substitute a fake to capture arguments.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Tool is the production adapter around the exiftool binary.
//
// The zero value is not usable; construct it with NewTool. Tool is
// safe for concurrent use, though the pipeline itself processes files
// one at a time.
type Tool struct {
	binary string
	run    Runner

	mu sync.Mutex
	et *goexiftool.Exiftool
}

// NewTool starts a stay-open exiftool process for reads and prepares
// the exec-based write path. binary may be a bare name resolved via
// PATH or an absolute path. Call Close when done.
func NewTool(binary string) (*Tool, error) {
	et, err := goexiftool.NewExiftool(goexiftool.SetExiftoolBinaryPath(binary))
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &Tool{binary: binary, run: execRunner, et: et}, nil
}

// Close terminates the stay-open exiftool process.
func (t *Tool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.et == nil {
		return nil
	}
	err := t.et.Close()
	t.et = nil
	return err
}

// ReadTags reads every tag of the file with group-qualified names.
// List values are joined with ", "; numbers are rendered as plain
// strings. The returned map never contains the SourceFile entry.
func (t *Tool) ReadTags(ctx context.Context, path string) (map[string]string, error) {
	output, err := t.run(ctx, t.binary, "-j", "-m", "-G", path)
	if err != nil {
		return nil, fmt.Errorf("read tags from %s: %w (output: %s)", path, err, strings.TrimSpace(string(output)))
	}

	var records []map[string]any
	if err := json.Unmarshal(output, &records); err != nil {
		return nil, fmt.Errorf("parse tags from %s: %w", path, err)
	}
	if len(records) == 0 {
		return map[string]string{}, nil
	}

	tags := make(map[string]string, len(records[0]))
	for key, value := range records[0] {
		if key == "SourceFile" {
			continue
		}
		tags[key] = flattenValue(value)
	}
	return tags, nil
}

// ReadFields reads the file's tags with bare, ungrouped names through
// the pooled stay-open process.
func (t *Tool) ReadFields(ctx context.Context, path string) (map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.et == nil {
		return nil, fmt.Errorf("read fields from %s: exiftool closed", path)
	}

	infos := t.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return map[string]string{}, nil
	}
	if infos[0].Err != nil {
		return nil, fmt.Errorf("read fields from %s: %w", path, infos[0].Err)
	}

	fields := make(map[string]string, len(infos[0].Fields))
	for key, value := range infos[0].Fields {
		if key == "SourceFile" {
			continue
		}
		fields[key] = flattenValue(value)
	}
	return fields, nil
}

// WriteTags writes the given tag values into the file in place.
// Multi-valued kinds must arrive pre-joined with ", "; the fan-out
// from field kinds to concrete tag names happens in the caller.
// A non-zero exit is an error carrying exiftool's output.
func (t *Tool) WriteTags(ctx context.Context, path string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}

	args := make([]string, 0, len(tags)+3)
	args = append(args, "-overwrite_original", "-m")

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, "-"+name+"="+tags[name])
	}
	args = append(args, path)

	output, err := t.run(ctx, t.binary, args...)
	if err != nil {
		return fmt.Errorf("write tags to %s: %w (output: %s)", path, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// CopyTags copies all tags from one file onto another, overwriting the
// destination in place. Used to carry metadata across a re-encode.
func (t *Tool) CopyTags(ctx context.Context, from, to string) error {
	output, err := t.run(ctx, t.binary, "-TagsFromFile", from, "-all:all", "-overwrite_original", "-m", to)
	if err != nil {
		return fmt.Errorf("copy tags %s -> %s: %w (output: %s)", from, to, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// flattenValue renders a decoded tag value as the flat string form
// used across the pipeline. Lists become ", "-joined strings, matching
// how multi-valued tags are written.
func flattenValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
