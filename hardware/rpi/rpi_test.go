package rpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/pedaldose/config"
)

func defaultPins() Pins {
	return Pins(config.Default().Pins)
}

func TestDefaultPinsValid(t *testing.T) {
	require.NoError(t, defaultPins().Validate())
}

func TestPinsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Pins)
	}{
		{"DuplicateOutput", func(p *Pins) { p.Relay = p.Pulse[0] }},
		{"PedalOnMotorPin", func(p *Pins) { p.Weak = p.Enable[1] }},
		{"OutOfRange", func(p *Pins) { p.Strong = 40 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultPins()
			tt.modify(&p)
			assert.Error(t, p.Validate())
		})
	}
}
