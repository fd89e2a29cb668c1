package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/taskfuture/internal/events"
	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/render"
	"github.com/aristath/taskfuture/internal/status"
)

// TaskState is the latest known state of one watched task.
type TaskState struct {
	ID      future.TaskID
	Status  status.Status
	Elapsed time.Duration // Set once settled
}

// listWidth is the task list column width.
const listWidth = 24

// busClosedMsg signals that no more events will arrive.
type busClosedMsg struct{}

// WatchModel is a live view of a watch session: task list, progress
// counts, and a scrollable log of every transition.
type WatchModel struct {
	tasks    map[future.TaskID]*TaskState
	order    []future.TaskID // first-seen order
	total    int
	log      []string
	viewport viewport.Model
	eventSub <-chan events.Event
	width    int
	height   int
	finished bool
	quitting bool
}

// NewWatchModel creates a view over sub for a session of total tasks.
func NewWatchModel(sub <-chan events.Event, total int) WatchModel {
	return WatchModel{
		tasks:    make(map[future.TaskID]*TaskState),
		total:    total,
		viewport: viewport.New(0, 0),
		eventSub: sub,
	}
}

// Init starts listening for events.
func (m WatchModel) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return busClosedMsg{}
		}
		return event
	}
}

// Update handles key, resize, and bus messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case events.StatusObservedEvent:
		m.task(msg.ID).Status = msg.Status
		m.appendLog(render.Transition(msg.ID, msg.Status))
		return m, waitForEvent(m.eventSub)

	case events.TaskSettledEvent:
		t := m.task(msg.ID)
		t.Elapsed = msg.Elapsed
		if msg.Success {
			t.Status = status.Success
		} else {
			t.Status = status.Failure
		}
		m.appendLog(render.Outcome(msg.ID, msg.Success, msg.Elapsed))
		return m, waitForEvent(m.eventSub)

	case busClosedMsg:
		m.finished = true
	}

	return m, nil
}

// task returns the state for id, adding it on first sight.
func (m *WatchModel) task(id future.TaskID) *TaskState {
	t, ok := m.tasks[id]
	if !ok {
		t = &TaskState{ID: id}
		m.tasks[id] = t
		m.order = append(m.order, id)
	}
	return t
}

func (m *WatchModel) appendLog(line string) {
	m.log = append(m.log, line)
	m.viewport.SetContent(strings.Join(m.log, "\n"))
	m.viewport.GotoBottom()
}

// Counts reports how many tasks have succeeded, failed, or not yet settled.
func (m WatchModel) Counts() (succeeded, failed, open int) {
	for _, t := range m.tasks {
		switch {
		case t.Status.Success():
			succeeded++
		case t.Status.Failure():
			failed++
		}
	}
	open = m.total - succeeded - failed
	return succeeded, failed, open
}

// View renders the watch session.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	succeeded, failed, open := m.Counts()

	var header strings.Builder
	header.WriteString(StyleTitle.Render("Tasks"))
	header.WriteString("  ")
	header.WriteString(fmt.Sprintf("%s %s  %s %s  %s open",
		StyleCount.Render(fmt.Sprintf("%d", succeeded)), render.Status(status.Success),
		StyleCount.Render(fmt.Sprintf("%d", failed)), render.Status(status.Failure),
		StyleCount.Render(fmt.Sprintf("%d", open)),
	))
	if m.finished {
		header.WriteString("  (all waits ended, press q)")
	}

	list := lipgloss.NewStyle().
		Width(listWidth).
		Height(m.viewport.Height).
		Render(m.renderTaskList())

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		list,
		StyleBorder.Render(m.viewport.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header.String(), body, HelpView())
}

func (m WatchModel) renderTaskList() string {
	if len(m.order) == 0 {
		return render.StylePending.Render("Waiting...")
	}

	var b strings.Builder
	for _, id := range m.order {
		t := m.tasks[id]
		fmt.Fprintf(&b, "%s task %d\n", statusIcon(t.Status), id)
	}
	return b.String()
}

// statusIcon returns a styled one-glyph status indicator.
func statusIcon(s status.Status) string {
	switch s {
	case status.Running:
		return render.StyleRunning.Render("●")
	case status.Success:
		return render.StyleSuccess.Render("✓")
	case status.Failure:
		return render.StyleFailure.Render("✗")
	default:
		return render.StylePending.Render("○")
	}
}

// resizeViewport fits the log next to the task list, leaving room for the
// header, help bar, and border.
func (m *WatchModel) resizeViewport() {
	w := m.width - listWidth - 2
	h := m.height - 2 - 2
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
}
