package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to settings file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Structured log lines on stderr would tear the alternate screen;
	// the TUI renders progress events instead.
	logCfg := settings.ToLoggingConfig()
	logCfg.Output = io.Discard
	logging.Init(logCfg)

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
