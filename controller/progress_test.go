package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name        string
		accumulated int
		goal        int
		percentage  float64
		width       int
		str         string
	}{
		{"Empty", 0, 100, 0, 0, "0.00%"},
		{"Half", 50, 100, 50, 200, "50.00%"},
		{"Rounded", 45, 300, 15, 60, "15.00%"},
		{"Third", 1, 3, 100.0 / 3, 133, "33.33%"},
		{"Overshoot", 135, 100, 135, 400, "135.00%"},
		{"RoundsUp", 106, 1000, 10.6, 42, "10.60%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ComputeProgress(tt.accumulated, tt.goal, 400)
			require.NoError(t, err)
			assert.InDelta(t, tt.percentage, p.Percentage, 1e-9)
			assert.Equal(t, tt.width, p.Width)
			assert.Equal(t, tt.str, p.String())
		})
	}
}

func TestComputeProgressInvalidGoal(t *testing.T) {
	_, err := ComputeProgress(10, 0, 400)
	assert.Error(t, err)
}
