package pedaldose

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidGoal is returned when a goal is not a positive integer
	ErrInvalidGoal = errors.New("invalid goal: enter a positive whole number")
	// ErrGoalNotSet is returned when a pedal is pressed before a goal is submitted
	ErrGoalNotSet = errors.New("goal not set")
	// ErrActuationInProgress is returned when a pedal is pressed while the motors are moving
	ErrActuationInProgress = errors.New("actuation in progress")
	// ErrSessionActive is returned when a goal is submitted while a session is already running.
	// The goal of a session is immutable until it is completed or stopped
	ErrSessionActive = errors.New("session already active")
	// ErrAlarmPending is returned when the completion alarm is raised while a previous one is still sounding
	ErrAlarmPending = errors.New("alarm already pending")
)

// PedalKind is one of the three foot switches. Each one is bound to a fixed dose increment
// and the number of motor steps used to deliver it
type PedalKind int

const (
	PedalUnknown PedalKind = iota
	PedalStrong
	PedalMedium
	PedalWeak
)

// PedalKinds lists the real pedals in channel order
var PedalKinds = []PedalKind{PedalStrong, PedalMedium, PedalWeak}

func (k PedalKind) String() string {
	switch k {
	case PedalStrong:
		return "Strong"
	case PedalMedium:
		return "Medium"
	case PedalWeak:
		return "Weak"
	default:
		fallthrough
	case PedalUnknown:
		return "Unknown"
	}
}

// Increment is the amount added to the accumulated value for one press
func (k PedalKind) Increment() int {
	switch k {
	case PedalStrong:
		return 150
	case PedalMedium:
		return 106
	case PedalWeak:
		return 45
	default:
		return 0
	}
}

// Steps is the number of pulses sent to the motors in each direction for one press
func (k PedalKind) Steps() int {
	switch k {
	case PedalStrong:
		return 700
	case PedalMedium:
		return 500
	case PedalWeak:
		return 325
	default:
		return 0
	}
}

// Valid is true for the three real pedals
func (k PedalKind) Valid() bool {
	return k >= PedalStrong && k <= PedalWeak
}

// Flag is the single-byte code used for the pedal on serial links
func (k PedalKind) Flag() byte {
	switch k {
	case PedalStrong:
		return 'S'
	case PedalMedium:
		return 'M'
	case PedalWeak:
		return 'W'
	default:
		return 0
	}
}

// ParsePedalKind maps a serial flag byte back to a PedalKind
func ParsePedalKind(b byte) PedalKind {
	switch b {
	case 'S', 's':
		return PedalStrong
	case 'M', 'm':
		return PedalMedium
	case 'W', 'w':
		return PedalWeak
	default:
		return PedalUnknown
	}
}

// Direction is the travel direction of both motors
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
)

func (d Direction) String() string {
	if d == DirectionUp {
		return "Up"
	}
	return "Down"
}

// Level is the value written to the direction lines. Down drives them high
func (d Direction) Level() bool {
	return d == DirectionDown
}

// ParseDirection accepts "down" or "up"
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down":
		return DirectionDown, nil
	case "up":
		return DirectionUp, nil
	default:
		return DirectionDown, errors.New("invalid direction: " + s)
	}
}

// State is the phase of the actuation controller
type State int

const (
	StateAwaitingGoal State = iota
	StateReady
	StateActuating
	StateCompleting
)

func (s State) String() string {
	switch s {
	case StateAwaitingGoal:
		return "AwaitingGoal"
	case StateReady:
		return "Ready"
	case StateActuating:
		return "Actuating"
	case StateCompleting:
		return "Completing"
	default:
		return "Unknown"
	}
}

// ParseGoal converts user input into a goal. Anything that is not a positive integer is ErrInvalidGoal
func ParseGoal(input string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v <= 0 {
		return 0, ErrInvalidGoal
	}
	return v, nil
}
