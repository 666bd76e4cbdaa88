package controller

import (
	"errors"
	"fmt"
	"math"
)

// Progress is the completion of a session, derived from the accumulated value and goal
type Progress struct {
	Percentage float64
	// Width is the filled width of a progress bar in pixels
	Width int
}

func (p Progress) String() string {
	return fmt.Sprintf("%.2f%%", p.Percentage)
}

// ComputeProgress maps accumulated/goal onto a percentage and a bar of barWidth pixels.
// The width is clamped to [0, barWidth]; the percentage is not, so overshoot stays visible
func ComputeProgress(accumulated, goal, barWidth int) (Progress, error) {
	if goal <= 0 {
		return Progress{}, errors.New("goal must be positive")
	}

	pct := 100 * float64(accumulated) / float64(goal)
	width := int(math.Round(pct / 100 * float64(barWidth)))
	width = max(0, min(width, barWidth))

	return Progress{Percentage: pct, Width: width}, nil
}
