package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/stretchr/testify/require"
)

type recordingLine struct {
	mtx     sync.Mutex
	history []bool
}

func (l *recordingLine) Set(v bool) {
	l.mtx.Lock()
	l.history = append(l.history, v)
	l.mtx.Unlock()
}

func (l *recordingLine) values() []bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]bool(nil), l.history...)
}

func (l *recordingLine) high() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.history) > 0 && l.history[len(l.history)-1]
}

func (l *recordingLine) rises() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	n := 0
	prev := false
	for _, v := range l.history {
		if v && !prev {
			n++
		}
		prev = v
	}
	return n
}

type motorRun struct {
	steps int
	dir   pedaldose.Direction
	half  time.Duration
}

type fakeActuator struct {
	mtx      sync.Mutex
	runs     []motorRun
	onRun    func(motorRun)
	disabled int
}

func (f *fakeActuator) Run(steps int, dir pedaldose.Direction, half time.Duration) error {
	r := motorRun{steps, dir, half}
	f.mtx.Lock()
	f.runs = append(f.runs, r)
	hook := f.onRun
	f.mtx.Unlock()
	if hook != nil {
		hook(r)
	}
	return nil
}

func (f *fakeActuator) Disable() {
	f.mtx.Lock()
	f.disabled++
	f.mtx.Unlock()
}

func (f *fakeActuator) getRuns() []motorRun {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]motorRun(nil), f.runs...)
}

// manualScheduler holds callbacks until fire is called
type manualScheduler struct {
	mtx    sync.Mutex
	funcs  []func()
	delays []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mtx.Lock()
	s.funcs = append(s.funcs, f)
	s.delays = append(s.delays, d)
	s.mtx.Unlock()
}

func (s *manualScheduler) pending() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.funcs)
}

func (s *manualScheduler) fire() {
	s.mtx.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mtx.Unlock()
	for _, f := range funcs {
		f()
	}
}

type testRig struct {
	c         *Controller
	actuator  *fakeActuator
	scheduler *manualScheduler
	relay     *recordingLine
	done      chan struct{}
	cancel    context.CancelFunc
}

func newTestRig(t *testing.T, cfg Config) *testRig {
	t.Helper()

	r := &testRig{
		actuator:  &fakeActuator{},
		scheduler: &manualScheduler{},
		relay:     &recordingLine{},
		done:      make(chan struct{}),
	}
	alarm := NewAlarm(r.relay, r.scheduler, time.Second)
	r.c = New(r.actuator, alarm, cfg, nil)
	r.c.SetSleep(func(time.Duration) {})

	return r
}

func (r *testRig) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		defer close(r.done)
		_ = r.c.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-r.done
	})
}

func (r *testRig) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !r.c.Snapshot().Busy
	}, time.Second, time.Millisecond)
}

func (r *testRig) waitState(t *testing.T, state pedaldose.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.c.Snapshot().State == state
	}, time.Second, time.Millisecond)
}
