package sim

import (
	"testing"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardWithMotors(t *testing.T) {
	b := NewBoard(nil)

	m, err := controller.NewMotors(b.MotorConfig(), nil)
	require.NoError(t, err)
	m.SetSleep(func(time.Duration) {})

	require.NoError(t, m.Run(pedaldose.PedalWeak.Steps(), pedaldose.DirectionDown, time.Microsecond))

	for _, motor := range b.Motors {
		assert.Equal(t, 325, motor.Pulse.Rises())
		assert.True(t, motor.Direction.High())
		assert.False(t, motor.Enable.High())
		assert.Equal(t, 1, motor.Enable.Rises())
	}

	b.Relay.Set(true)
	require.NoError(t, b.Close())
	assert.False(t, b.Relay.High())
	assert.False(t, b.Motors[0].Direction.High())
}
