package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/shuttermill/shuttermill/internal/app"
	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/logging"
	"github.com/shuttermill/shuttermill/internal/process"
	"github.com/shuttermill/shuttermill/internal/watch"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Command line flags
	var (
		configFlag  = flag.String("config", "", "Path to settings file")
		fileFlag    = flag.String("file", "", "Process a single media file")
		dirFlag     = flag.String("dir", "", "Process every media file in a directory")
		watchFlag   = flag.Bool("watch", false, "Watch the configured incoming directories")
		dryRunFlag  = flag.Bool("dry-run", false, "Report planned changes without touching files")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
		versionFlag = flag.Bool("version", false, "Print version and exit")
	)

	flag.Parse()

	if *versionFlag {
		fmt.Println("shuttermill " + version)
		return
	}

	modes := 0
	if *fileFlag != "" {
		modes++
	}
	if *dirFlag != "" {
		modes++
	}
	if *watchFlag {
		modes++
	}
	if modes == 0 {
		fmt.Println("Shuttermill - Sidecar-driven media ingest")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  shuttermill -file <path> [options]")
		fmt.Println("  shuttermill -dir <path> [options]")
		fmt.Println("  shuttermill -watch [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: shuttermill-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "Error: choose exactly one of -file, -dir or -watch")
		os.Exit(1)
	}
	if *watchFlag && *dryRunFlag {
		fmt.Fprintln(os.Stderr, "Error: dry-run is not available in watch mode")
		os.Exit(1)
	}

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logCfg := settings.ToLoggingConfig()
	if *verboseFlag {
		logCfg.Level = "debug"
	}
	logging.Init(logCfg)

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, stopping...")
		cancel()
	}()

	// Wire the pipeline with a progress printer
	a, err := app.New(settings, *dryRunFlag, func(event process.ProgressEvent) {
		if event.Level == process.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case process.LevelError:
			prefix = "❌ "
		case process.LevelWarning:
			prefix = "⚠️  "
		case process.LevelSuccess:
			prefix = "✅ "
		case process.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting pipeline: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	fmt.Println("📷 Shuttermill")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	switch {
	case *fileFlag != "":
		runFile(ctx, a, *fileFlag)
	case *dirFlag != "":
		runBatch(ctx, a, settings, *dirFlag)
	default:
		runWatch(ctx, a, settings)
	}
}

func runFile(ctx context.Context, a *app.App, path string) {
	res, err := a.Processor.Process(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(a, 1)
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Err)
		exit(a, 1)
	}
}

func runBatch(ctx context.Context, a *app.App, settings *config.Settings, dir string) {
	files, err := watch.CollectBatch(settings, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(a, 1)
	}
	if len(files) == 0 {
		fmt.Printf("No media files found at %s\n", dir)
		return
	}

	var renamed, skipped, failed, warnings int
	done := 0
	for i, path := range files {
		if ctx.Err() != nil {
			fmt.Println("\nBatch cancelled.")
			exit(a, 130)
		}
		res, err := a.Processor.ProcessSeq(ctx, path, i+1)
		done++
		if err != nil || res.Err != nil {
			failed++
			if err != nil {
				fmt.Fprintf(os.Stderr, "❌ %s: %v\n", path, err)
			}
			continue
		}
		warnings += res.Warnings
		switch res.State {
		case process.StateRenamed:
			renamed++
		case process.StateSkip:
			skipped++
		}
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✨ Complete! Processed %d/%d files (%d renamed, %d skipped, %d failed)\n",
		done, len(files), renamed, skipped, failed)
	if warnings > 0 {
		fmt.Printf("   (%d warnings)\n", warnings)
	}
	if failed > 0 {
		exit(a, 1)
	}
}

func runWatch(ctx context.Context, a *app.App, settings *config.Settings) {
	fmt.Printf("👀 Watching %d incoming directories (every %s)...\n",
		len(settings.Watch.IncomingDirs), settings.Watch.PollInterval)
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Watcher.Run(gctx, settings.Watch.PollInterval) })
	g.Go(func() error { return a.Transferer.Run(gctx, settings.Watch.PollInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(a, 1)
	}
	fmt.Println("Stopped.")
}

// exit closes the pipeline before terminating; os.Exit skips deferred
// calls.
func exit(a *app.App, code int) {
	_ = a.Close()
	os.Exit(code)
}
