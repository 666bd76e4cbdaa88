// Package rpi drives the dispenser from a Raspberry Pi's GPIO header using BCM pin numbers
package rpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/stianeikeland/go-rpio/v4"
)

const defaultPollInterval = 5 * time.Millisecond

// Pins are BCM pin numbers
type Pins struct {
	Pulse     [2]int
	Direction [2]int
	Enable    [2]int
	Relay     int
	Strong    int
	Medium    int
	Weak      int
}

func (p Pins) outputs() []int {
	return []int{p.Pulse[0], p.Direction[0], p.Enable[0], p.Pulse[1], p.Direction[1], p.Enable[1], p.Relay}
}

func (p Pins) pedals() map[pedaldose.PedalKind]int {
	return map[pedaldose.PedalKind]int{
		pedaldose.PedalStrong: p.Strong,
		pedaldose.PedalMedium: p.Medium,
		pedaldose.PedalWeak:   p.Weak,
	}
}

// Validate rejects pins assigned twice
func (p Pins) Validate() error {
	seen := map[int]bool{}
	all := p.outputs()
	for _, pin := range p.pedals() {
		all = append(all, pin)
	}
	for _, pin := range all {
		if pin < 0 || pin > 27 {
			return fmt.Errorf("invalid BCM pin: %d", pin)
		}
		if seen[pin] {
			return fmt.Errorf("pin %d assigned twice", pin)
		}
		seen[pin] = true
	}
	return nil
}

// Line is an output pin
type Line rpio.Pin

var _ controller.Line = Line(0)

// Set implements controller.Line
func (l Line) Set(high bool) {
	if high {
		rpio.Pin(l).High()
	} else {
		rpio.Pin(l).Low()
	}
}

// Board holds the memory-mapped GPIO for the lifetime of the program. Close must be called
// to release it, whatever state the controller is in
type Board struct {
	pins   Pins
	logger *slog.Logger
	once   sync.Once
}

// Open maps the GPIO registers, drives every output low and arms falling-edge detection on the pedals
func Open(pins Pins, logger *slog.Logger) (*Board, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("error opening gpio: %w", err)
	}

	for _, n := range pins.outputs() {
		p := rpio.Pin(n)
		p.Output()
		p.Low()
	}

	for _, n := range pins.pedals() {
		p := rpio.Pin(n)
		p.Input()
		p.PullUp()
		p.Detect(rpio.FallEdge)
	}

	logger.Info("gpio initialized", "pins", fmt.Sprintf("%+v", pins))

	return &Board{pins: pins, logger: logger}, nil
}

// MotorConfig returns the six motor lines
func (b *Board) MotorConfig() controller.MotorConfig {
	var cfg controller.MotorConfig
	for i := range cfg.Channels {
		cfg.Channels[i] = controller.MotorPins{
			Pulse:     Line(b.pins.Pulse[i]),
			Direction: Line(b.pins.Direction[i]),
			Enable:    Line(b.pins.Enable[i]),
		}
	}
	return cfg
}

// Relay returns the alarm relay line
func (b *Board) Relay() controller.Line {
	return Line(b.pins.Relay)
}

// WatchPedals polls the edge detection status of each pedal and calls fire for every falling edge
// until ctx is done. go-rpio has no interrupt callbacks, so this goroutine stands in for them
func (b *Board) WatchPedals(ctx context.Context, interval time.Duration, fire func(pedaldose.PedalKind) bool) error {
	if fire == nil {
		return errors.New("nil pedal handler")
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}

	pedals := b.pins.pedals()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for _, kind := range pedaldose.PedalKinds {
			if !rpio.Pin(pedals[kind]).EdgeDetected() {
				continue
			}
			b.logger.Debug("pedal edge", "pedal", kind.String())
			fire(kind)
		}
	}
}

// Close drives the outputs low, disarms edge detection and unmaps the GPIO registers
func (b *Board) Close() error {
	var err error
	b.once.Do(func() {
		for _, n := range b.pins.outputs() {
			rpio.Pin(n).Low()
		}
		for _, n := range b.pins.pedals() {
			rpio.Pin(n).Detect(rpio.NoEdge)
		}
		err = rpio.Close()
		b.logger.Info("gpio released")
	})
	return err
}
