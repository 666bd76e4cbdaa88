// Package sim provides in-memory GPIO lines for dry runs without hardware
package sim

import (
	"log/slog"
	"sync"

	"github.com/calvinmclean/pedaldose/controller"
)

// Line records every level written to it
type Line struct {
	name   string
	logger *slog.Logger

	mtx   sync.Mutex
	level bool
	rises int
	sets  int
}

var _ controller.Line = &Line{}

// NewLine creates a low line. A nil logger keeps it silent
func NewLine(name string, logger *slog.Logger) *Line {
	return &Line{name: name, logger: logger}
}

// Set implements controller.Line
func (l *Line) Set(high bool) {
	l.mtx.Lock()
	changed := l.level != high
	if high && !l.level {
		l.rises++
	}
	l.level = high
	l.sets++
	l.mtx.Unlock()

	// pulse lines toggle thousands of times per run, only log the slow lines
	if changed && l.logger != nil {
		l.logger.Debug("line changed", "line", l.name, "high", high)
	}
}

// High returns the current level
func (l *Line) High() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.level
}

// Rises is the number of low-to-high transitions
func (l *Line) Rises() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.rises
}

// Board has the seven output lines of the dispenser
type Board struct {
	Motors [2]struct {
		Pulse, Direction, Enable *Line
	}
	Relay *Line
}

// NewBoard creates a Board. Only the enable, direction and relay lines log transitions
func NewBoard(logger *slog.Logger) *Board {
	b := &Board{Relay: NewLine("relay", logger)}
	for i := range b.Motors {
		suffix := string(byte(i) + '1')
		b.Motors[i].Pulse = NewLine("pul"+suffix, nil)
		b.Motors[i].Direction = NewLine("dir"+suffix, logger)
		b.Motors[i].Enable = NewLine("ena"+suffix, logger)
	}
	return b
}

// MotorConfig returns the motor lines ready for controller.NewMotors
func (b *Board) MotorConfig() controller.MotorConfig {
	var cfg controller.MotorConfig
	for i, m := range b.Motors {
		cfg.Channels[i] = controller.MotorPins{
			Pulse:     m.Pulse,
			Direction: m.Direction,
			Enable:    m.Enable,
		}
	}
	return cfg
}

// Close drives every line low
func (b *Board) Close() error {
	for _, m := range b.Motors {
		m.Pulse.Set(false)
		m.Direction.Set(false)
		m.Enable.Set(false)
	}
	b.Relay.Set(false)
	return nil
}
