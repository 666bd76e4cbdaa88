package commands

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	calls []string
	snap  controller.Snapshot
}

func (f *fakeController) SubmitGoalText(_ context.Context, in string) error {
	f.calls = append(f.calls, "goal:"+in)
	goal, err := pedaldose.ParseGoal(in)
	if err != nil {
		return err
	}
	f.snap.Goal = goal
	f.snap.Active = true
	return nil
}

func (f *fakeController) PressPedal(_ context.Context, kind pedaldose.PedalKind) error {
	f.calls = append(f.calls, "pedal:"+kind.String())
	if !f.snap.Active {
		return pedaldose.ErrGoalNotSet
	}
	f.snap.Accumulated += kind.Increment()
	return nil
}

func (f *fakeController) Stop(context.Context) error {
	f.calls = append(f.calls, "stop")
	f.snap = controller.Snapshot{}
	return nil
}

func (f *fakeController) Snapshot() controller.Snapshot {
	return f.snap
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		calls    []string
		expected string
	}{
		{
			"GoalThenPedals",
			"G100\nWs\n",
			[]string{"goal:100", "pedal:Weak", "pedal:Strong"},
			"goal set: 100\nWeak +45: 45/100\nStrong +150: 195/100\n",
		},
		{
			"PedalWithoutGoal",
			"M",
			[]string{"pedal:Medium"},
			"error: goal not set\n",
		},
		{
			"InvalidGoal",
			"Gabc\r\n",
			[]string{"goal:abc"},
			"error: invalid goal: enter a positive whole number\n",
		},
		{
			"UnknownBytesSkipped",
			"?? q\nX",
			[]string{"stop"},
			"stopped\n",
		},
		{
			"GoalAtEOF",
			"g42",
			[]string{"goal:42"},
			"goal set: 42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeController{}
			var out bytes.Buffer

			err := Run(context.Background(), bufio.NewReader(strings.NewReader(tt.in)), c, &out)
			require.NoError(t, err)

			assert.Equal(t, tt.calls, c.calls)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &fakeController{}
	require.NoError(t, Run(ctx, bufio.NewReader(strings.NewReader("X")), c, nil))
	assert.Empty(t, c.calls)
}

func TestHelpListsCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), bufio.NewReader(strings.NewReader("H")), &fakeController{}, &out))

	for _, cmd := range All() {
		assert.Contains(t, out.String(), string(cmd.Flag)+": ")
	}
}

func TestDescribe(t *testing.T) {
	s := controller.Snapshot{
		State:        pedaldose.StateCompleting,
		Goal:         100,
		Accumulated:  135,
		Progress:     controller.Progress{Percentage: 135, Width: 400},
		AlarmVisible: true,
	}
	assert.Equal(t, "state=Completing value=135 goal=100 progress=135.00% COMPLETE", Describe(s))
}
