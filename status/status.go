// Package status renders controller snapshots for a terminal
package status

import (
	"fmt"
	"strings"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/charmbracelet/lipgloss"
)

const barCells = 20

var (
	stateStyle    = lipgloss.NewStyle().Bold(true).Width(13)
	valueStyle    = lipgloss.NewStyle().Width(12)
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	emptyBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	completeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Bar draws the progress as a fixed number of cells
func Bar(p controller.Progress, barWidth int) string {
	filled := 0
	if barWidth > 0 {
		filled = p.Width * barCells / barWidth
	}
	filled = max(0, min(filled, barCells))
	return barStyle.Render(strings.Repeat("█", filled)) + emptyBarStyle.Render(strings.Repeat("░", barCells-filled))
}

// Render formats a snapshot on one line
func Render(s controller.Snapshot, barWidth int) string {
	parts := []string{stateStyle.Render(s.State.String())}

	if s.Active || s.State == pedaldose.StateCompleting {
		parts = append(parts,
			valueStyle.Render(fmt.Sprintf("%d/%d", s.Accumulated, s.Goal)),
			Bar(s.Progress, barWidth),
			s.Progress.String(),
		)
	}
	if s.AlarmVisible {
		parts = append(parts, completeStyle.Render("Complete!"))
	}
	if s.Notice != "" {
		parts = append(parts, noticeStyle.Render(s.Notice))
	}

	return strings.Join(parts, " ")
}

// Printer returns a controller subscriber that prints a line for every visible change
func Printer(print func(string), barWidth int) func(controller.Event) {
	return func(e controller.Event) {
		// nothing the user has not already seen
		if e.Type == controller.EventActuationDone {
			return
		}
		print(Render(e.Snapshot, barWidth))
	}
}
