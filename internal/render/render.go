package render

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// Status styles
var (
	StylePending = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	StyleRunning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	StyleFailure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	StyleTaskID = lipgloss.NewStyle().
			Bold(true)
)

// Status renders a status name in its color.
func Status(s status.Status) string {
	switch s {
	case status.Pending:
		return StylePending.Render(s.String())
	case status.Running:
		return StyleRunning.Render(s.String())
	case status.Success:
		return StyleSuccess.Render(s.String())
	case status.Failure:
		return StyleFailure.Render(s.String())
	default:
		return s.String()
	}
}

// Transition renders one observed status line.
func Transition(id future.TaskID, s status.Status) string {
	return fmt.Sprintf("%s %s", StyleTaskID.Render(fmt.Sprintf("task %d", id)), Status(s))
}

// Outcome renders a settled task's summary line.
func Outcome(id future.TaskID, success bool, elapsed time.Duration) string {
	s := status.Failure
	if success {
		s = status.Success
	}
	return fmt.Sprintf("%s %s in %s", StyleTaskID.Render(fmt.Sprintf("task %d", id)), Status(s), elapsed.Round(time.Millisecond))
}
