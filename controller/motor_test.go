package controller

import (
	"testing"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type motorLines struct {
	pulse, dir, enable [2]*recordingLine
}

func newMotorLines() (MotorConfig, *motorLines) {
	lines := &motorLines{}
	var cfg MotorConfig
	for i := range 2 {
		lines.pulse[i] = &recordingLine{}
		lines.dir[i] = &recordingLine{}
		lines.enable[i] = &recordingLine{}
		cfg.Channels[i] = MotorPins{
			Pulse:     lines.pulse[i],
			Direction: lines.dir[i],
			Enable:    lines.enable[i],
		}
	}
	return cfg, lines
}

func TestMotorsRun(t *testing.T) {
	tests := []struct {
		name  string
		dir   pedaldose.Direction
		level bool
	}{
		{"Down", pedaldose.DirectionDown, true},
		{"Up", pedaldose.DirectionUp, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, lines := newMotorLines()
			m, err := NewMotors(cfg, nil)
			require.NoError(t, err)

			var sleeps []time.Duration
			m.SetSleep(func(d time.Duration) { sleeps = append(sleeps, d) })

			require.NoError(t, m.Run(3, tt.dir, time.Millisecond))

			assert.Equal(t, []time.Duration{
				500 * time.Millisecond,
				time.Millisecond, time.Millisecond,
				time.Millisecond, time.Millisecond,
				time.Millisecond, time.Millisecond,
				500 * time.Millisecond,
			}, sleeps)

			for i := range 2 {
				// initial Disable, then enable and disable around the run
				assert.Equal(t, []bool{false, true, false}, lines.enable[i].values())
				assert.Equal(t, []bool{false, tt.level}, lines.dir[i].values())
				assert.Equal(t, 3, lines.pulse[i].rises())
				assert.False(t, lines.pulse[i].high())
			}

			// lockstep: both channels see the same transitions
			assert.Equal(t, lines.pulse[0].values(), lines.pulse[1].values())
		})
	}
}

func TestMotorsRunInvalid(t *testing.T) {
	cfg, _ := newMotorLines()
	m, err := NewMotors(cfg, nil)
	require.NoError(t, err)
	m.SetSleep(func(time.Duration) {})

	assert.Error(t, m.Run(0, pedaldose.DirectionDown, time.Millisecond))
	assert.Error(t, m.Run(10, pedaldose.DirectionDown, 0))
}

func TestNewMotorsMissingLine(t *testing.T) {
	cfg, _ := newMotorLines()
	cfg.Channels[1].Enable = nil

	_, err := NewMotors(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel 2")
}

func TestHalfPeriod(t *testing.T) {
	cfg, _ := newMotorLines()
	m, err := NewMotors(cfg, nil)
	require.NoError(t, err)

	for _, kind := range pedaldose.PedalKinds {
		half := m.HalfPeriod(kind.Steps())
		total := 2 * half * time.Duration(kind.Steps())
		assert.InDelta(t, float64(100*time.Millisecond), float64(total), float64(2*time.Microsecond), kind.String())
	}

	assert.Equal(t, time.Duration(0), HalfPeriod(time.Second, 0))
}
