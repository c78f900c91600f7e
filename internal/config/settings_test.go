package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("Defaults() should validate, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty exiftool path", func(s *Settings) { s.Exiftool.Path = "" }},
		{"zero poll interval", func(s *Settings) { s.Watch.PollInterval = 0 }},
		{"negative file age", func(s *Settings) { s.Process.MinFileAgePhoto = -time.Second }},
		{"quality too high", func(s *Settings) { s.Imaging.Quality = 101 }},
		{"quality too low", func(s *Settings) { s.Imaging.Quality = 0 }},
		{"zero long edge", func(s *Settings) { s.Imaging.MaxLongEdge = 0 }},
		{"route without dest", func(s *Settings) {
			s.Transfer.Routes = []TransferRoute{{Source: "/a"}}
		}},
		{"zero lock timeout", func(s *Settings) { s.Transfer.LockTimeout = 0 }},
		{"zero importer timeout", func(s *Settings) { s.Importer.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shuttermill.yaml")

	content := `
exiftool:
  path: /usr/local/bin/exiftool
watch:
  incoming_dirs:
    - /data/in
  poll_interval: 30s
transfer:
  routes:
    - source: /data/processed
      dest: /data/out
      import: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Exiftool.Path != "/usr/local/bin/exiftool" {
		t.Errorf("Exiftool.Path = %q", settings.Exiftool.Path)
	}
	if settings.Watch.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %s", settings.Watch.PollInterval)
	}
	if len(settings.Watch.IncomingDirs) != 1 || settings.Watch.IncomingDirs[0] != "/data/in" {
		t.Errorf("IncomingDirs = %v", settings.Watch.IncomingDirs)
	}
	if len(settings.Transfer.Routes) != 1 {
		t.Fatalf("Routes = %v", settings.Transfer.Routes)
	}
	if route := settings.Transfer.Routes[0]; route.Dest != "/data/out" || !route.Import {
		t.Errorf("Routes[0] = %+v", route)
	}

	// Untouched sections keep their defaults.
	if settings.Albums.CategoryPrefix != "02" {
		t.Errorf("CategoryPrefix = %q, want default 02", settings.Albums.CategoryPrefix)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shuttermill.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHUTTERMILL_LOG_LEVEL", "debug")
	t.Setenv("SHUTTERMILL_INCOMING_DIRS", "/a, /b")
	t.Setenv("SHUTTERMILL_UNRELATED", "ignored")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", settings.Logging.Level)
	}
	want := []string{"/a", "/b"}
	if len(settings.Watch.IncomingDirs) != 2 ||
		settings.Watch.IncomingDirs[0] != want[0] ||
		settings.Watch.IncomingDirs[1] != want[1] {
		t.Errorf("IncomingDirs = %v, want %v", settings.Watch.IncomingDirs, want)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shuttermill.yaml")
	if err := os.WriteFile(path, []byte("imaging:\n  quality: 400\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject quality 400")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "shuttermill.yaml")

	original := Defaults()
	original.Exiftool.Path = "/opt/exiftool"
	original.Albums.CategoryPrefix = "07"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Exiftool.Path != "/opt/exiftool" {
		t.Errorf("Exiftool.Path = %q", loaded.Exiftool.Path)
	}
	if loaded.Albums.CategoryPrefix != "07" {
		t.Errorf("CategoryPrefix = %q", loaded.Albums.CategoryPrefix)
	}
}

func TestExtensionClassification(t *testing.T) {
	s := Defaults()

	if !s.IsVideo(".mov") || s.IsVideo(".jpg") {
		t.Error("IsVideo misclassifies")
	}
	if !s.IsPhoto(".jpeg") || s.IsPhoto(".mp4") {
		t.Error("IsPhoto misclassifies")
	}
	// Cameras write extensions in either case.
	if !s.IsVideo(".MOV") || !s.IsPhoto(".JPG") {
		t.Error("extension matching must ignore case")
	}
}
