package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultSettingsPaths lists where a settings file is searched when no
// explicit path is given. The first existing file wins.
var DefaultSettingsPaths = []string{
	"shuttermill.yaml",
	"shuttermill.yml",
	"/etc/shuttermill/shuttermill.yaml",
}

// SettingsPathEnvVar overrides the settings file search.
const SettingsPathEnvVar = "SHUTTERMILL_CONFIG"

// envPrefix marks the environment variables consumed by Load.
const envPrefix = "SHUTTERMILL_"

// Load builds Settings from three layers, later layers winning:
//
//  1. Defaults()
//  2. a YAML settings file (explicit path, or the first of
//     DefaultSettingsPaths; a missing file is not an error)
//  3. SHUTTERMILL_* environment variables
//
// The result is validated before it is returned.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findSettingsFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load settings file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := k.Unmarshal("", settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return settings, nil
}

// Save writes the settings as YAML, creating parent directories as
// needed.
func (s *Settings) Save(path string) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(s, "koanf"), nil); err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func findSettingsFile() string {
	if envPath := os.Getenv(SettingsPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultSettingsPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings translates flat environment variable names into nested
// settings paths. Unmapped variables are dropped so unrelated
// SHUTTERMILL_* values cannot pollute the configuration.
var envMappings = map[string]string{
	"incoming_dirs":       "watch.incoming_dirs",
	"shared_incoming_dir": "watch.shared_incoming_dir",
	"poll_interval":       "watch.poll_interval",

	"min_file_age_video": "process.min_file_age_video",
	"min_file_age_photo": "process.min_file_age_photo",
	"video_extensions":   "process.video_extensions",
	"photo_extensions":   "process.photo_extensions",

	"exiftool_path": "exiftool.path",

	"album_mapping_path":    "albums.mapping_path",
	"album_category_prefix": "albums.category_prefix",

	"transfer_min_age": "transfer.min_age",
	"lock_timeout":     "transfer.lock_timeout",

	"recompress_enabled":   "imaging.enabled",
	"recompress_max_edge":  "imaging.max_long_edge",
	"recompress_quality":   "imaging.quality",
	"recompress_min_bytes": "imaging.min_size_bytes",

	"importer_command": "importer.command",
	"importer_args":    "importer.args",
	"importer_timeout": "importer.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// sliceSettingsPaths are the list-valued settings that environment
// variables provide as comma-separated strings.
var sliceSettingsPaths = []string{
	"watch.incoming_dirs",
	"process.video_extensions",
	"process.photo_extensions",
	"importer.args",
}

// processSliceFields splits comma-separated string values into slices
// for the known list-valued paths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceSettingsPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
