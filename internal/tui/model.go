package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Phase represents the current state of the TUI.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseExecuting
	PhaseDone
	PhaseError
)

// Messages sent by the pipeline while it runs.
type (
	PlanMsg struct {
		Plan domain.Plan
	}
	EventMsg struct {
		Event domain.Event
	}
	DoneMsg struct {
		Result     domain.RunResult
		ReportPath string
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

const maxFailures = 5

type Config struct {
	SourceDir string
	DestDir   string
	Verbose   bool
	// Cancel is called when the user quits before the run has finished.
	Cancel func()
}

type failure struct {
	name string
	err  error
}

type Model struct {
	config      Config
	Phase       Phase
	Pass        domain.Pass
	spinner     spinner.Model
	progress    progress.Model
	current     int
	total       int
	currentFile string
	counters    domain.Counters
	failures    []failure
	warnings    []string
	Result      domain.RunResult
	reportPath  string
	Err         error
	Quitting    bool
	width       int
}

func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:   cfg,
		Phase:    PhasePlanning,
		spinner:  s,
		progress: p,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(min(msg.Width-20, 60), 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Phase == PhasePlanning || m.Phase == PhaseExecuting {
				if m.config.Cancel != nil {
					m.config.Cancel()
				}
			}
			m.Quitting = true
			return m, tea.Quit
		case "enter":
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case PlanMsg:
		m.Phase = PhaseExecuting
		m.Pass = msg.Plan.Pass
		m.current = 0
		m.total = len(msg.Plan.Jobs)
		m.currentFile = ""
		m.warnings = append(m.warnings, msg.Plan.Warnings...)
		return m, nil

	case EventMsg:
		ev := msg.Event
		m.current = ev.Index
		m.total = ev.Total
		m.currentFile = ev.Job.Source.Name
		switch ev.Status {
		case domain.EventProcessed:
			m.counters.Processed++
		case domain.EventSkipped:
			m.counters.Skipped++
		case domain.EventFailed:
			m.counters.Errors++
			m.failures = append(m.failures, failure{name: ev.Job.Source.Name, err: ev.Err})
		}
		return m, nil

	case DoneMsg:
		m.Phase = PhaseDone
		m.Result = msg.Result
		m.reportPath = msg.ReportPath
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhasePlanning || m.Phase == PhaseExecuting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhasePlanning || m.Phase == PhaseExecuting {
			var cmds []tea.Cmd
			if m.total > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.current)/float64(m.total)))
			}
			cmds = append(cmds, tickCmd())
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhasePlanning:
		b.WriteString(fmt.Sprintf("%s Scanning design assets...", m.spinner.View()))
	case PhaseExecuting:
		b.WriteString(m.renderExecution())
		b.WriteString(m.renderFailures())
	case PhaseDone:
		b.WriteString(m.renderSummary())
		b.WriteString(m.renderFailures())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	if m.config.Verbose && len(m.warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, w := range m.warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconWarning, w))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(iconImage + " assetopt")
	subtitle := subtitleStyle.Render("Design assets to web-ready WebP")

	dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Source: %s", iconFolder, shortenPath(m.config.SourceDir))),
		dimStyle.Render(fmt.Sprintf("%s Output: %s", iconFolder, shortenPath(m.config.DestDir))),
	)
}

func (m Model) renderExecution() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render(passLabel(m.Pass)))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	b.WriteString(fmt.Sprintf("  %s Optimizing...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	percentStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d files", m.current, m.total)),
		percentStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.currentFile != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, fileNameStyle.Render(m.currentFile)))
	}
	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	totals := m.Result.Totals()
	icon, msg := successStyle.Render(iconSuccess), successStyle.Render("Run complete")
	if totals.Counters.Errors > 0 {
		icon, msg = warningStyle.Render(iconWarning), warningStyle.Render("Run complete with errors")
	}
	b.WriteString(fmt.Sprintf("  %s %s\n\n", icon, msg))

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Brand:"), statValueStyle.Render(formatCounters(m.Result.Brand.Counters))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Clients:"), statValueStyle.Render(formatCounters(m.Result.Clients.Counters))))

	if totals.SourceBytes > 0 && totals.OutputBytes > 0 {
		size := fmt.Sprintf("%s %s %s",
			humanize.Bytes(uint64(totals.SourceBytes)),
			iconArrow,
			humanize.Bytes(uint64(totals.OutputBytes)),
		)
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Size:"), sizeStyle.Render(size)))
	}
	if m.reportPath != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Report:"), pathStyle.Render(m.reportPath)))
	}
	return b.String()
}

func (m Model) renderFailures() string {
	if len(m.failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(errorStyle.Render(fmt.Sprintf("%s Failed (%d files)", iconError, len(m.failures))))
	b.WriteString("\n\n")
	for i, f := range m.failures {
		if i >= maxFailures {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.failures)-maxFailures))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", fileNameStyle.Render(f.name), failureStyle.Render(appErrors.UserMessage(f.err))))
	}
	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render("Error: " + appErrors.UserMessage(m.Err))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhasePlanning, PhaseExecuting:
		help = "Press q to cancel"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

func formatCounters(c domain.Counters) string {
	return fmt.Sprintf("%d processed, %d skipped, %d errors", c.Processed, c.Skipped, c.Errors)
}

func passLabel(pass domain.Pass) string {
	switch pass {
	case domain.PassBrand:
		return "Brand Assets"
	case domain.PassClients:
		return "Client Work"
	default:
		return "Optimizing"
	}
}

// shortenPath replaces the home directory prefix with ~ for display.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
