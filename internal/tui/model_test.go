package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model
}

func TestModelTracksProgress(t *testing.T) {
	m := NewModel(Config{SourceDir: "reference", DestDir: "public/images"})
	if m.Phase != PhasePlanning {
		t.Fatalf("expected planning phase")
	}

	job := domain.Job{Source: domain.SourceAsset{Name: "logo.png"}}
	m = update(t, m, PlanMsg{Plan: domain.Plan{Pass: domain.PassBrand, Jobs: []domain.Job{job, job}}})
	if m.Phase != PhaseExecuting || m.total != 2 {
		t.Fatalf("expected executing phase with 2 jobs, got %v/%d", m.Phase, m.total)
	}

	m = update(t, m, EventMsg{Event: domain.Event{Index: 1, Total: 2, Job: job, Status: domain.EventProcessed}})
	m = update(t, m, EventMsg{Event: domain.Event{
		Index: 2, Total: 2, Job: job, Status: domain.EventFailed,
		Err: appErrors.Wrap(appErrors.CodecFailure, "decode", "logo.png", errors.New("bad header")),
	}})
	if m.counters != (domain.Counters{Processed: 1, Errors: 1}) {
		t.Fatalf("unexpected counters %+v", m.counters)
	}
	if m.current != 2 || m.currentFile != "logo.png" {
		t.Fatalf("unexpected progress %d %q", m.current, m.currentFile)
	}

	view := m.View()
	if !strings.Contains(view, "2/2 files") {
		t.Fatalf("expected progress in view:\n%s", view)
	}
	if !strings.Contains(view, "bad header") {
		t.Fatalf("expected failure in view:\n%s", view)
	}

	m = update(t, m, DoneMsg{Result: domain.RunResult{Brand: domain.PassResult{Counters: m.counters}}, ReportPath: "public/images/path-mapping.json"})
	if m.Phase != PhaseDone {
		t.Fatalf("expected done phase")
	}
	if !strings.Contains(m.View(), "path-mapping.json") {
		t.Fatalf("expected report path in summary")
	}
}

func TestModelQuitCancelsRun(t *testing.T) {
	canceled := false
	m := NewModel(Config{Cancel: func() { canceled = true }})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !canceled {
		t.Fatalf("expected quitting mid-run to cancel")
	}
	if cmd == nil || !next.(Model).Quitting {
		t.Fatalf("expected quit command")
	}
}

func TestModelShowsFatalError(t *testing.T) {
	m := NewModel(Config{})
	m = update(t, m, ErrorMsg{Err: appErrors.Wrap(appErrors.NotFound, "walk", "reference/Design Assets/Clients", errors.New("missing"))})
	if m.Phase != PhaseError {
		t.Fatalf("expected error phase")
	}
	if !strings.Contains(m.View(), "Path not found") {
		t.Fatalf("expected user message in view:\n%s", m.View())
	}
}
