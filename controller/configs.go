package controller

import (
	"time"

	"github.com/calvinmclean/pedaldose"
)

const (
	defaultSettleDelay   = 500 * time.Millisecond
	defaultPulseTrain    = 50 * time.Millisecond
	defaultPause         = time.Second
	defaultStrongDwell   = 2 * time.Second
	defaultAlarmDuration = time.Second
	defaultDeadTime      = 200 * time.Millisecond
	defaultBarWidth      = 400
	defaultInboxSize     = 16
)

// Line is a single binary output. machine.Pin satisfies it on TinyGo builds
type Line interface {
	Set(high bool)
}

// MotorPins are the three lines of one step/dir driver
type MotorPins struct {
	Pulse     Line
	Direction Line
	Enable    Line
}

// MotorConfig has the lines and timing for the motor pair
type MotorConfig struct {
	Channels [2]MotorPins
	// SettleDelay is waited after enabling and after disabling the drivers
	SettleDelay time.Duration
	// PulseTrain divided by the step count is the pulse half-period, so every train lasts
	// about 2*PulseTrain regardless of step count
	PulseTrain time.Duration
}

// StrongTiming selects how the Strong pedal is timed while the intended behavior is unconfirmed
type StrongTiming int

const (
	// StrongTimingComputed times every pedal the same way: PulseTrain/steps and the regular pause
	StrongTimingComputed StrongTiming = iota
	// StrongTimingDwell keeps the computed pulse width but pauses for StrongDwell between down and up
	StrongTimingDwell
)

func (st StrongTiming) String() string {
	if st == StrongTimingDwell {
		return "dwell"
	}
	return "computed"
}

// ParseStrongTiming accepts "computed" or "dwell". Empty input is StrongTimingComputed
func ParseStrongTiming(s string) (StrongTiming, bool) {
	switch s {
	case "", "computed":
		return StrongTimingComputed, true
	case "dwell":
		return StrongTimingDwell, true
	default:
		return StrongTimingComputed, false
	}
}

// Config has the session-level timing for the controller
type Config struct {
	// Pause is the wait between the down and up runs. The cancellation flag is checked once after it
	Pause        time.Duration
	StrongDwell  time.Duration
	StrongTiming StrongTiming
	// PulseTrain is used to compute the pulse half-period for each request
	PulseTrain time.Duration
	BarWidth   int
	InboxSize  int
}

// DefaultConfig returns the timing used by the original dispenser
func DefaultConfig() Config {
	return Config{
		Pause:        defaultPause,
		StrongDwell:  defaultStrongDwell,
		StrongTiming: StrongTimingComputed,
		PulseTrain:   defaultPulseTrain,
		BarWidth:     defaultBarWidth,
		InboxSize:    defaultInboxSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Pause <= 0 {
		c.Pause = d.Pause
	}
	if c.StrongDwell <= 0 {
		c.StrongDwell = d.StrongDwell
	}
	if c.PulseTrain <= 0 {
		c.PulseTrain = d.PulseTrain
	}
	if c.BarWidth <= 0 {
		c.BarWidth = d.BarWidth
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	return c
}

// pauseFor returns the wait between the down and up runs for a pedal
func (c Config) pauseFor(kind pedaldose.PedalKind) time.Duration {
	if kind == pedaldose.PedalStrong && c.StrongTiming == StrongTimingDwell {
		return c.StrongDwell
	}
	return c.Pause
}

// HalfPeriod is the high (and low) time of each pulse for a train of steps pulses
func HalfPeriod(pulseTrain time.Duration, steps int) time.Duration {
	if steps <= 0 {
		return 0
	}
	return pulseTrain / time.Duration(steps)
}
