package status

import (
	"strings"
	"testing"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		filled int
	}{
		{"Empty", 0, 0},
		{"Half", 200, 10},
		{"Full", 400, 20},
		{"Over", 500, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Bar(controller.Progress{Width: tt.width}, 400)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, barCells-tt.filled, strings.Count(bar, "░"))
		})
	}
}

func TestRender(t *testing.T) {
	s := controller.Snapshot{
		State:        pedaldose.StateCompleting,
		Goal:         100,
		Accumulated:  135,
		Active:       true,
		Progress:     controller.Progress{Percentage: 135, Width: 400},
		AlarmVisible: true,
	}
	out := Render(s, 400)
	assert.Contains(t, out, "Completing")
	assert.Contains(t, out, "135/100")
	assert.Contains(t, out, "135.00%")
	assert.Contains(t, out, "Complete!")

	out = Render(controller.Snapshot{Notice: "goal not set"}, 400)
	assert.Contains(t, out, "AwaitingGoal")
	assert.Contains(t, out, "goal not set")
	assert.NotContains(t, out, "%")
}

func TestPrinterSkipsActuationDone(t *testing.T) {
	var lines []string
	p := Printer(func(s string) { lines = append(lines, s) }, 400)

	p(controller.Event{Type: controller.EventActuationDone})
	p(controller.Event{Type: controller.EventStopped})
	assert.Len(t, lines, 1)
}
