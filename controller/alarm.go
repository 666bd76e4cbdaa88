package controller

import (
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pedaldose"
)

// Scheduler runs f once after d. Implementations decide which goroutine runs f
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimeScheduler runs callbacks on their own goroutine using time.AfterFunc
type TimeScheduler struct{}

var _ Scheduler = TimeScheduler{}

// AfterFunc implements Scheduler
func (TimeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Alarm drives the completion relay high for a fixed duration
type Alarm struct {
	line      Line
	scheduler Scheduler
	duration  time.Duration
	pending   atomic.Bool
}

// NewAlarm creates an Alarm with the relay line low
func NewAlarm(line Line, scheduler Scheduler, duration time.Duration) *Alarm {
	if scheduler == nil {
		scheduler = TimeScheduler{}
	}
	if duration <= 0 {
		duration = defaultAlarmDuration
	}
	line.Set(false)
	return &Alarm{
		line:      line,
		scheduler: scheduler,
		duration:  duration,
	}
}

// Raise sets the relay high and schedules it to go low after the alarm duration, followed
// by onExpired. It returns ErrAlarmPending without side effects if a previous alarm has not expired
func (a *Alarm) Raise(onExpired func()) error {
	if !a.pending.CompareAndSwap(false, true) {
		return pedaldose.ErrAlarmPending
	}

	a.line.Set(true)
	a.scheduler.AfterFunc(a.duration, func() {
		a.line.Set(false)
		a.pending.Store(false)
		if onExpired != nil {
			onExpired()
		}
	})
	return nil
}

// Pending is true between Raise and expiry
func (a *Alarm) Pending() bool {
	return a.pending.Load()
}

// Silence drives the relay low without running any pending callback. Used on teardown
func (a *Alarm) Silence() {
	a.line.Set(false)
}
