package photos

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/logging"
)

// Importer ingests one file into the external photo library and places
// it into the given albums. Implementations must treat repeated calls
// for the same file as safe; the transfer loop may call again when a
// prior attempt's outcome is unknown, and never retries on its own.
type Importer interface {
	Import(ctx context.Context, path string, albums []string) error
}

// runner executes one external command and returns its combined
// output. Tests substitute a fake.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ScriptImporter bridges to the photo library through an external
// command, typically an osascript wrapper. The invocation is
//
//	<command> <fixed args...> <path> <album>...
//
// bounded by the configured timeout. A timeout is reported as a plain
// failure; whether the import went through is unknown and the caller's
// next pass decides.
type ScriptImporter struct {
	command string
	args    []string
	timeout time.Duration
	run     runner
}

// NewScriptImporter builds a ScriptImporter from the importer settings.
func NewScriptImporter(cfg config.ImporterSettings) *ScriptImporter {
	return &ScriptImporter{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		run:     execRunner,
	}
}

// Import runs the bridge command for one file.
func (s *ScriptImporter) Import(ctx context.Context, path string, albums []string) error {
	if s.command == "" {
		return fmt.Errorf("importer command not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := make([]string, 0, len(s.args)+1+len(albums))
	args = append(args, s.args...)
	args = append(args, path)
	args = append(args, albums...)

	logging.Ctx(ctx).Debug().Str("command", s.command).Strs("albums", albums).Msg("invoking library importer")

	out, err := s.run(ctx, s.command, args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("import of %s timed out after %s", path, s.timeout)
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("import of %s failed: %s: %w", path, msg, err)
		}
		return fmt.Errorf("import of %s failed: %w", path, err)
	}
	return nil
}

// NopImporter accepts every import without doing anything. It stands
// in during dry runs and wherever no bridge command is configured.
type NopImporter struct{}

func (NopImporter) Import(ctx context.Context, path string, albums []string) error {
	logging.Ctx(ctx).Info().Str("file", path).Strs("albums", albums).Msg("library import skipped (no importer configured)")
	return nil
}
