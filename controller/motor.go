package controller

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/calvinmclean/pedaldose"
)

// Actuator runs one blocking pulse train on the motor pair
type Actuator interface {
	Run(steps int, dir pedaldose.Direction, halfPeriod time.Duration) error
}

// Motors drives two step/dir drivers in lockstep. Both motors always receive identical signals
type Motors struct {
	channels    [2]MotorPins
	settleDelay time.Duration
	pulseTrain  time.Duration
	sleep       func(time.Duration)
	logger      *slog.Logger

	// mtx guards against overlapping runs, which would interleave pulses on the same lines
	mtx sync.Mutex
}

var _ Actuator = &Motors{}

// NewMotors validates the lines and returns a disabled motor pair
func NewMotors(cfg MotorConfig, logger *slog.Logger) (*Motors, error) {
	for i, ch := range cfg.Channels {
		if ch.Pulse == nil || ch.Direction == nil || ch.Enable == nil {
			return nil, errors.New("motor channel " + string(byte(i)+'1') + " is missing a line")
		}
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.PulseTrain <= 0 {
		cfg.PulseTrain = defaultPulseTrain
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Motors{
		channels:    cfg.Channels,
		settleDelay: cfg.SettleDelay,
		pulseTrain:  cfg.PulseTrain,
		sleep:       time.Sleep,
		logger:      logger,
	}
	m.Disable()
	return m, nil
}

// SetSleep replaces time.Sleep, mostly for tests
func (m *Motors) SetSleep(sleep func(time.Duration)) {
	m.sleep = sleep
}

// HalfPeriod returns the pulse half-period for the configured pulse train
func (m *Motors) HalfPeriod(steps int) time.Duration {
	return HalfPeriod(m.pulseTrain, steps)
}

// Run enables both drivers, emits steps pulses in the given direction, then disables them.
// It blocks for 2*settleDelay + 2*steps*halfPeriod
func (m *Motors) Run(steps int, dir pedaldose.Direction, halfPeriod time.Duration) error {
	if steps <= 0 {
		return errors.New("steps must be positive")
	}
	if halfPeriod <= 0 {
		return errors.New("pulse half-period must be positive")
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.logger.Debug("moving motors", "steps", steps, "direction", dir.String(), "half_period", halfPeriod)

	m.setEnable(true)
	m.sleep(m.settleDelay)

	m.setDirection(dir.Level())

	for range steps {
		m.setPulse(true)
		m.sleep(halfPeriod)
		m.setPulse(false)
		m.sleep(halfPeriod)
	}

	m.setEnable(false)
	m.sleep(m.settleDelay)

	return nil
}

// Disable drives every motor line low
func (m *Motors) Disable() {
	m.setPulse(false)
	m.setDirection(false)
	m.setEnable(false)
}

func (m *Motors) setEnable(v bool) {
	for _, ch := range m.channels {
		ch.Enable.Set(v)
	}
}

func (m *Motors) setDirection(v bool) {
	for _, ch := range m.channels {
		ch.Direction.Set(v)
	}
}

func (m *Motors) setPulse(v bool) {
	for _, ch := range m.channels {
		ch.Pulse.Set(v)
	}
}
