// Package config provides configuration management for shuttermill.
//
// This package handles:
//   - Layered loading: defaults, a YAML settings file, environment
//   - Default configuration values
//   - Validation before anything starts running
//
// # Loading
//
// Load applies the three layers in order, later layers winning:
//
//	settings, err := config.Load("") // search default paths
//	settings, err := config.Load("/etc/shuttermill/shuttermill.yaml")
//
// Environment variables use the SHUTTERMILL_ prefix and flat names:
//
//	SHUTTERMILL_LOG_LEVEL=debug
//	SHUTTERMILL_INCOMING_DIRS=/data/in1,/data/in2
//	SHUTTERMILL_EXIFTOOL_PATH=/opt/homebrew/bin/exiftool
//
// # Saving
//
// Save writes the current settings back out as YAML, which is handy
// for generating a starter file:
//
//	err := config.Defaults().Save("shuttermill.yaml")
//
// # Sections
//
// Settings covers the watcher, the per-file pipeline, the exiftool
// binary, album resolution, transfer routing, JPEG recompression, the
// photo-library importer and logging.
package config
