package photos

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shuttermill/shuttermill/internal/config"
)

type call struct {
	name string
	args []string
}

func scripted(t *testing.T, out []byte, err error) (*ScriptImporter, *[]call) {
	t.Helper()

	calls := &[]call{}
	imp := NewScriptImporter(config.ImporterSettings{
		Command: "import-bridge",
		Args:    []string{"--quiet"},
		Timeout: time.Second,
	})
	imp.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return out, err
	}
	return imp, calls
}

func TestScriptImporterArgumentOrder(t *testing.T) {
	imp, calls := scripted(t, nil, nil)

	err := imp.Import(context.Background(), "/photos/a.jpg", []string{"02/Travel/Rome", "02/Family"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(*calls))
	}
	got := (*calls)[0]
	if got.name != "import-bridge" {
		t.Errorf("command = %q, want import-bridge", got.name)
	}
	want := []string{"--quiet", "/photos/a.jpg", "02/Travel/Rome", "02/Family"}
	if len(got.args) != len(want) {
		t.Fatalf("args = %q, want %q", got.args, want)
	}
	for i := range want {
		if got.args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, got.args[i], want[i])
		}
	}
}

func TestScriptImporterNoAlbums(t *testing.T) {
	imp, calls := scripted(t, nil, nil)

	if err := imp.Import(context.Background(), "/photos/a.jpg", nil); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got := (*calls)[0].args
	if len(got) != 2 || got[1] != "/photos/a.jpg" {
		t.Errorf("args = %q, want fixed args then path only", got)
	}
}

func TestScriptImporterFailureCarriesOutput(t *testing.T) {
	imp, _ := scripted(t, []byte("no such album\n"), errors.New("exit status 1"))

	err := imp.Import(context.Background(), "/photos/a.jpg", []string{"02/Family"})
	if err == nil {
		t.Fatal("Import succeeded, want error")
	}
	if !strings.Contains(err.Error(), "no such album") {
		t.Errorf("error %q does not carry command output", err)
	}
}

func TestScriptImporterTimeout(t *testing.T) {
	imp := NewScriptImporter(config.ImporterSettings{
		Command: "import-bridge",
		Timeout: 20 * time.Millisecond,
	})
	imp.run = func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	err := imp.Import(context.Background(), "/photos/a.jpg", nil)
	if err == nil {
		t.Fatal("Import succeeded, want timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error %q, want timeout", err)
	}
}

func TestScriptImporterRequiresCommand(t *testing.T) {
	imp := NewScriptImporter(config.ImporterSettings{Timeout: time.Second})
	if err := imp.Import(context.Background(), "/photos/a.jpg", nil); err == nil {
		t.Fatal("Import succeeded without a command")
	}
}

func TestNopImporter(t *testing.T) {
	if err := (NopImporter{}).Import(context.Background(), "/photos/a.jpg", []string{"02/Family"}); err != nil {
		t.Fatalf("NopImporter: %v", err)
	}
}
