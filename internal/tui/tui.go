// Package tui provides a Bubble Tea terminal user interface for shuttermill.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/shuttermill/shuttermill/internal/app"
	"github.com/shuttermill/shuttermill/internal/config"
	"github.com/shuttermill/shuttermill/internal/process"
	"github.com/shuttermill/shuttermill/internal/watch"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateStarting
	StateProcessing
	StateWatching
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   process.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	events    chan process.ProgressEvent
	err       error

	// Pipeline context
	ctx    context.Context
	cancel context.CancelFunc

	// Wired pipeline
	app   *app.App
	files []string

	// Tallies
	done     int
	renamed  int
	skipped  int
	failed   int
	warnings int

	// Options
	watch   bool
	dryRun  bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "/path/to/incoming (empty in watch mode)"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		events:    make(chan process.ProgressEvent, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one pipeline progress event into the UI.
	ProgressMsg struct {
		Event process.ProgressEvent
	}

	// StartDoneMsg is sent when the pipeline is wired and, for batch
	// runs, the file list collected.
	StartDoneMsg struct {
		App   *app.App
		Files []string
		Err   error
	}

	// FileDoneMsg is sent after each file of a batch run.
	FileDoneMsg struct {
		Result process.Result
		Err    error
	}

	// WatchDoneMsg is sent when the watch loops stop.
	WatchDoneMsg struct {
		Err error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateProcessing || m.state == StateStarting || m.state == StateWatching {
				m.cancel()
				if m.state != StateWatching {
					m.state = StateError
					m.err = fmt.Errorf("cancelled by user")
				}
			}

		case "enter":
			if m.state != StateInput {
				break
			}
			if m.watch && m.dryRun {
				m.state = StateError
				m.err = fmt.Errorf("dry-run is not available in watch mode")
				break
			}
			if !m.watch && strings.TrimSpace(m.textInput.Value()) == "" {
				break
			}
			m.state = StateStarting
			return m, tea.Batch(m.startPipeline(), m.waitForEvent(), m.spinner.Tick)

		case "w":
			if m.state == StateInput {
				m.watch = !m.watch
			}

		case "d":
			if m.state == StateInput {
				m.dryRun = !m.dryRun
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for another run
				m.finishRun()
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.app = nil
				m.files = nil
				m.done, m.renamed, m.skipped, m.failed, m.warnings = 0, 0, 0, 0, 0
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		if m.state == StateWatching {
			m.tallyEvent(msg.Event)
		}
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == process.LevelVerbose && !m.verbose {
			return m, tea.Batch(cmds...)
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}

	case StartDoneMsg:
		if m.state != StateStarting {
			if msg.App != nil {
				_ = msg.App.Close()
			}
			break
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.app = msg.App
		m.files = msg.Files
		if m.watch {
			m.state = StateWatching
			cmds = append(cmds, m.startWatch())
		} else {
			m.state = StateProcessing
			cmds = append(cmds, m.processNext())
		}

	case FileDoneMsg:
		if m.state != StateProcessing {
			break
		}
		m.done++
		if msg.Err != nil {
			m.failed++
			m.logs = append(m.logs, LogEntry{Message: msg.Err.Error(), Level: process.LevelError})
		} else {
			m.tallyResult(msg.Result)
		}
		if m.done < len(m.files) {
			cmds = append(cmds, m.processNext())
		} else {
			m.finishRun()
			m.state = StateComplete
		}

	case WatchDoneMsg:
		m.finishRun()
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startPipeline wires the pipeline and collects the batch file list.
func (m *Model) startPipeline() tea.Cmd {
	settings := m.settings
	dryRun := m.dryRun
	watchMode := m.watch
	target := strings.TrimSpace(m.textInput.Value())
	events := m.events

	return func() tea.Msg {
		a, err := app.New(settings, dryRun, func(event process.ProgressEvent) {
			select {
			case events <- event:
			default: // monitor is behind, drop rather than stall the pipeline
			}
		})
		if err != nil {
			return StartDoneMsg{Err: err}
		}

		if watchMode {
			return StartDoneMsg{App: a}
		}

		files, err := watch.CollectBatch(settings, target)
		if err != nil {
			a.Close()
			return StartDoneMsg{Err: err}
		}
		if len(files) == 0 {
			a.Close()
			return StartDoneMsg{Err: fmt.Errorf("no media files found at %s", target)}
		}
		return StartDoneMsg{App: a, Files: files}
	}
}

// processNext runs one file of the batch. Files are processed strictly
// one at a time; each gets the next four-digit sequence number.
func (m *Model) processNext() tea.Cmd {
	a := m.app
	ctx := m.ctx
	path := m.files[m.done]
	seq := m.done + 1

	return func() tea.Msg {
		res, err := a.Processor.ProcessSeq(ctx, path, seq)
		return FileDoneMsg{Result: res, Err: err}
	}
}

// startWatch runs the incoming watcher and the transfer loop until the
// context is cancelled.
func (m *Model) startWatch() tea.Cmd {
	a := m.app
	ctx := m.ctx
	interval := m.settings.Watch.PollInterval

	return func() tea.Msg {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.Watcher.Run(gctx, interval) })
		g.Go(func() error { return a.Transferer.Run(gctx, interval) })

		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		return WatchDoneMsg{Err: err}
	}
}

// waitForEvent forwards the next pipeline event into the UI.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

func (m *Model) tallyResult(res process.Result) {
	m.warnings += res.Warnings
	switch res.State {
	case process.StateRenamed:
		m.renamed++
	case process.StateSkip:
		m.skipped++
	case process.StateWriteFailed, process.StateVerifyFailed, process.StateRenameFailed:
		m.failed++
	}
}

// tallyEvent counts terminal per-file events during watch mode, where
// results are not returned to the UI directly.
func (m *Model) tallyEvent(event process.ProgressEvent) {
	if event.Level == process.LevelWarning {
		m.warnings++
	}
	if event.Path == "" || !event.Stage.Terminal() {
		return
	}
	m.done++
	switch event.Stage {
	case process.StateRenamed:
		m.renamed++
	case process.StateSkip:
		m.skipped++
	case process.StateWriteFailed, process.StateVerifyFailed, process.StateRenameFailed:
		m.failed++
	}
}

func (m *Model) finishRun() {
	if m.app != nil {
		_ = m.app.Close()
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("📷 Shuttermill"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Sidecar-driven media ingest"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateStarting:
		b.WriteString(m.viewStarting())
	case StateProcessing:
		b.WriteString(m.viewProcessing())
	case StateWatching:
		b.WriteString(m.viewWatching())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a file or directory to process:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	// Options
	watchCheck := "[ ]"
	if m.watch {
		watchCheck = "[×]"
	}
	dryRunCheck := "[ ]"
	if m.dryRun {
		dryRunCheck = "[×]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Watch configured directories (w)\n", watchCheck))
	b.WriteString(fmt.Sprintf("  %s Dry run (d)\n", dryRunCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Exiftool: %s", m.settings.Exiftool.Path)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Album mapping: %s", m.settings.Albums.MappingPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewStarting() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Starting pipeline..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewProcessing() string {
	var b strings.Builder

	var percent float64
	if len(m.files) > 0 {
		percent = float64(m.done) / float64(len(m.files))
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Renamed: %d | Skipped: %d | Failed: %d",
		m.done, len(m.files), m.renamed, m.skipped, m.failed,
	)))
	b.WriteString("\n")

	if m.done < len(m.files) {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(fileStyle.Render(m.files[m.done]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewWatching() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(
		"Watching %d incoming directories", len(m.settings.Watch.IncomingDirs),
	)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Processed: %d | Renamed: %d | Skipped: %d | Failed: %d | Warnings: %d",
		m.done, m.renamed, m.skipped, m.failed, m.warnings,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	label := "Ingest Complete!"
	if m.dryRun {
		label = "Dry Run Complete!"
	}
	return boxStyle.Render(fmt.Sprintf(
		"✨ %s\n\n"+
			"Files: %d\n"+
			"Renamed: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d\n"+
			"Warnings: %d",
		label, m.done, m.renamed, m.skipped, m.failed, m.warnings,
	))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case process.LevelError:
			style = errorStyle
			prefix = "✗"
		case process.LevelWarning:
			style = warningStyle
			prefix = "!"
		case process.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case process.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • w: watch • d: dry run • v: verbose • esc: quit"
	case StateStarting, StateProcessing:
		return "esc: cancel"
	case StateWatching:
		return "esc: stop watching"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
