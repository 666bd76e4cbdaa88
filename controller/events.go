package controller

import (
	"time"

	"github.com/calvinmclean/pedaldose"
)

// EventType identifies what changed in the controller
type EventType int

const (
	EventGoalSet EventType = iota
	EventGoalRejected
	EventPedalAccepted
	EventPedalRejected
	EventActuationDone
	EventCompleted
	EventStopped
	EventAlarmExpired
)

func (t EventType) String() string {
	switch t {
	case EventGoalSet:
		return "GoalSet"
	case EventGoalRejected:
		return "GoalRejected"
	case EventPedalAccepted:
		return "PedalAccepted"
	case EventPedalRejected:
		return "PedalRejected"
	case EventActuationDone:
		return "ActuationDone"
	case EventCompleted:
		return "Completed"
	case EventStopped:
		return "Stopped"
	case EventAlarmExpired:
		return "AlarmExpired"
	default:
		return "Unknown"
	}
}

// Event is delivered to subscribers with the snapshot taken right after the change
type Event struct {
	Type     EventType
	Kind     pedaldose.PedalKind
	Err      error
	Snapshot Snapshot
	Time     time.Time
}
