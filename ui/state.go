package ui

import (
	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
)

type screen int

const (
	screenGoal screen = iota
	screenPedal
)

func (s screen) String() string {
	switch s {
	case screenGoal:
		return "Goal"
	case screenPedal:
		return "Pedal"
	default:
		return "Unknown"
	}
}

// screenFor picks the screen for a snapshot. The pedal screen stays up through the
// completion alarm and the goal screen returns after a reset or stop
func screenFor(s controller.Snapshot) screen {
	if s.Active || s.State == pedaldose.StateCompleting {
		return screenPedal
	}
	return screenGoal
}
