// Package app wires the pipeline from settings. Both binaries build
// the same stack: the exiftool codec, the per-file processor, the
// incoming watcher and the transfer stage.
package app

import (
	"fmt"

	"github.com/shuttermill/shuttermill/internal/albums"
	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/exiftool"
	"github.com/shuttermill/shuttermill/internal/imaging"
	"github.com/shuttermill/shuttermill/internal/photos"
	"github.com/shuttermill/shuttermill/internal/process"
	"github.com/shuttermill/shuttermill/internal/transfer"
	"github.com/shuttermill/shuttermill/internal/watch"
)

// App holds the wired pipeline. Close it to stop the codec's stay-open
// exiftool process.
type App struct {
	Settings   *config.Settings
	Codec      *exiftool.Tool
	Processor  *process.Processor
	Watcher    *watch.Watcher
	Transferer *transfer.Transferer
}

// New builds the pipeline. Dry runs report every planned change
// without touching files; they also disable the library importer.
// onProgress may be nil.
func New(settings *config.Settings, dryRun bool, onProgress func(process.ProgressEvent)) (*App, error) {
	tool, err := exiftool.NewTool(settings.Exiftool.Path)
	if err != nil {
		return nil, fmt.Errorf("starting exiftool: %w", err)
	}

	var recompress process.Recompressor
	if settings.Imaging.Enabled {
		recompress = imaging.New(settings.Imaging, tool)
	}

	proc := process.NewProcessor(settings, tool, recompress, onProgress)
	proc.DryRun = dryRun

	var importer photos.Importer = photos.NopImporter{}
	if settings.Importer.Command != "" && !dryRun {
		importer = photos.NewScriptImporter(settings.Importer)
	}
	resolver := albums.NewResolver(albums.NewLoader(settings.Albums.MappingPath), settings.Albums.CategoryPrefix)

	return &App{
		Settings:   settings,
		Codec:      tool,
		Processor:  proc,
		Watcher:    watch.NewWatcher(settings, proc, onProgress),
		Transferer: transfer.New(settings, tool, resolver, importer),
	}, nil
}

// Close releases the codec.
func (a *App) Close() error {
	return a.Codec.Close()
}
