package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shuttermill/shuttermill/internal/logging"
)

// Settings holds all configuration options for the pipeline and its
// surrounding loops.
//
// Settings are loaded in three layers with later layers winning:
// built-in defaults, an optional YAML file, then SHUTTERMILL_*
// environment variables. See Load.
type Settings struct {
	// Watch configures the incoming-directory polling loop.
	Watch WatchSettings `koanf:"watch"`

	// Process configures the per-file metadata pipeline.
	Process ProcessSettings `koanf:"process"`

	// Exiftool configures the external metadata codec.
	Exiftool ExiftoolSettings `koanf:"exiftool"`

	// Albums configures album path resolution.
	Albums AlbumSettings `koanf:"albums"`

	// Transfer configures routing of processed files.
	Transfer TransferSettings `koanf:"transfer"`

	// Imaging configures optional JPEG recompression.
	Imaging ImagingSettings `koanf:"imaging"`

	// Importer configures the external photo-library importer.
	Importer ImporterSettings `koanf:"importer"`

	// Logging configures log output.
	Logging LoggingSettings `koanf:"logging"`
}

// WatchSettings controls the polling watcher.
type WatchSettings struct {
	// IncomingDirs are the directories scanned for new media files.
	IncomingDirs []string `koanf:"incoming_dirs"`

	// SharedIncomingDir, when set, is a drop directory whose files are
	// copied into every incoming directory and then removed.
	SharedIncomingDir string `koanf:"shared_incoming_dir"`

	// PollInterval is the pause between scan passes.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// ProcessSettings controls the per-file pipeline.
type ProcessSettings struct {
	// MinFileAgeVideo is how long a video must sit unchanged before
	// it is considered fully written by its producer.
	MinFileAgeVideo time.Duration `koanf:"min_file_age_video"`

	// MinFileAgePhoto is the same threshold for photos.
	MinFileAgePhoto time.Duration `koanf:"min_file_age_photo"`

	// VideoExtensions lists the extensions treated as video, with
	// leading dot. Case does not matter.
	VideoExtensions []string `koanf:"video_extensions"`

	// PhotoExtensions lists the extensions treated as photos.
	PhotoExtensions []string `koanf:"photo_extensions"`
}

// ExiftoolSettings configures the codec adapter.
type ExiftoolSettings struct {
	// Path is the exiftool binary name or absolute path.
	Path string `koanf:"path"`
}

// AlbumSettings configures the album path resolver.
type AlbumSettings struct {
	// MappingPath is the YAML mapping-table document, re-read on
	// every resolution call.
	MappingPath string `koanf:"mapping_path"`

	// CategoryPrefix is the fixed top folder for colon-category
	// keywords ("Travel: Rome" lands under <prefix>/Travel/).
	CategoryPrefix string `koanf:"category_prefix"`
}

// TransferRoute maps one processed directory to a destination.
type TransferRoute struct {
	// Source is the directory holding completion-marked files.
	Source string `koanf:"source"`

	// Dest is where those files are moved.
	Dest string `koanf:"dest"`

	// Import routes the file through the photo-library importer after
	// the move, with its resolved album paths.
	Import bool `koanf:"import"`

	// DateSubfolders files assets into Dest/YYYY/MM by capture date.
	DateSubfolders bool `koanf:"date_subfolders"`
}

// TransferSettings controls the transfer loop.
type TransferSettings struct {
	// Routes lists the source-to-destination moves.
	Routes []TransferRoute `koanf:"routes"`

	// MinAge is how long a marked file must sit unchanged before it
	// is transferred.
	MinAge time.Duration `koanf:"min_age"`

	// LockTimeout bounds the advisory-lock probe that detects a
	// still-writing producer.
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// ImagingSettings controls JPEG recompression.
type ImagingSettings struct {
	// Enabled turns recompression on.
	Enabled bool `koanf:"enabled"`

	// MaxLongEdge is the bound the longer image side is scaled to.
	MaxLongEdge int `koanf:"max_long_edge"`

	// Quality is the JPEG encode quality, 1-100.
	Quality int `koanf:"quality"`

	// MinSizeBytes skips files already smaller than this.
	MinSizeBytes int64 `koanf:"min_size_bytes"`
}

// ImporterSettings configures the photo-library importer bridge.
type ImporterSettings struct {
	// Command is the executable invoked to import a file. Empty
	// disables importing.
	Command string `koanf:"command"`

	// Args are fixed arguments placed before the file path.
	Args []string `koanf:"args"`

	// Timeout bounds one import invocation.
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingSettings configures log output.
type LoggingSettings struct {
	// Level is the minimum emitted level.
	Level string `koanf:"level"`

	// Format is "console" or "json".
	Format string `koanf:"format"`

	// Caller adds source positions to log lines.
	Caller bool `koanf:"caller"`
}

// Defaults returns settings with default values, suitable for running
// against a local exiftool with no config file at all.
func Defaults() *Settings {
	return &Settings{
		Watch: WatchSettings{
			PollInterval: 10 * time.Second,
		},
		Process: ProcessSettings{
			MinFileAgeVideo: 30 * time.Second,
			MinFileAgePhoto: 60 * time.Second,
			VideoExtensions: []string{".mp4", ".mov", ".m4v", ".avi"},
			PhotoExtensions: []string{".jpg", ".jpeg"},
		},
		Exiftool: ExiftoolSettings{
			Path: "exiftool",
		},
		Albums: AlbumSettings{
			MappingPath:    "album.yaml",
			CategoryPrefix: "02",
		},
		Transfer: TransferSettings{
			MinAge:      60 * time.Second,
			LockTimeout: 5 * time.Second,
		},
		Imaging: ImagingSettings{
			Enabled:      false,
			MaxLongEdge:  3840,
			Quality:      85,
			MinSizeBytes: 4 << 20,
		},
		Importer: ImporterSettings{
			Timeout: 15 * time.Second,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.Exiftool.Path == "" {
		return fmt.Errorf("exiftool.path must not be empty")
	}
	if s.Watch.PollInterval <= 0 {
		return fmt.Errorf("watch.poll_interval must be positive, got %s", s.Watch.PollInterval)
	}
	if s.Process.MinFileAgeVideo < 0 || s.Process.MinFileAgePhoto < 0 {
		return fmt.Errorf("process.min_file_age values must not be negative")
	}
	if s.Imaging.Quality < 1 || s.Imaging.Quality > 100 {
		return fmt.Errorf("imaging.quality must be in 1..100, got %d", s.Imaging.Quality)
	}
	if s.Imaging.MaxLongEdge <= 0 {
		return fmt.Errorf("imaging.max_long_edge must be positive, got %d", s.Imaging.MaxLongEdge)
	}
	for i, route := range s.Transfer.Routes {
		if route.Source == "" || route.Dest == "" {
			return fmt.Errorf("transfer.routes[%d] needs both source and dest", i)
		}
	}
	if s.Transfer.LockTimeout <= 0 {
		return fmt.Errorf("transfer.lock_timeout must be positive, got %s", s.Transfer.LockTimeout)
	}
	if s.Importer.Timeout <= 0 {
		return fmt.Errorf("importer.timeout must be positive, got %s", s.Importer.Timeout)
	}
	return nil
}

// ToLoggingConfig converts the logging section into the logging
// package's Config.
func (s *Settings) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:     s.Logging.Level,
		Format:    s.Logging.Format,
		Caller:    s.Logging.Caller,
		Timestamp: true,
	}
}

// IsVideo reports whether the extension (with leading dot) is
// configured as a video type. Cameras write extensions in either case,
// so matching ignores it.
func (s *Settings) IsVideo(ext string) bool {
	return containsFold(s.Process.VideoExtensions, ext)
}

// IsPhoto reports whether the extension is configured as a photo type.
func (s *Settings) IsPhoto(ext string) bool {
	return containsFold(s.Process.PhotoExtensions, ext)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
