package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastDuration is how long a notification stays on screen.
var toastDuration = 4 * time.Second

type toastKind int

const (
	toastError toastKind = iota
	toastSuccess
)

type toast struct {
	id   int
	text string
	kind toastKind
}

type toastExpiredMsg struct {
	id int
}

// pushToast queues a notification that dismisses itself.
func (m *Model) pushToast(kind toastKind, text string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	m.nextToastID++
	id := m.nextToastID
	m.toasts = append(m.toasts, toast{id: id, text: text, kind: kind})
	if len(m.toasts) > 3 {
		m.toasts = m.toasts[len(m.toasts)-3:]
	}

	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *Model) dropToast(id int) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.id != id {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func (m Model) viewToasts() string {
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		if t.kind == toastError {
			lines = append(lines, errorToastStyle.Render("✗ "+t.text))
		} else {
			lines = append(lines, successToastStyle.Render("✓ "+t.text))
		}
	}
	return strings.Join(lines, "\n")
}
