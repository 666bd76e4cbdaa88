package controller

import (
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pedaldose"
)

// PedalSink accepts a pedal press without blocking
type PedalSink interface {
	Pedal(kind pedaldose.PedalKind) bool
}

// PedalEvents forwards switch edges to a PedalSink, dropping presses that arrive sooner than
// the dead-time after the previous accepted press on the same channel. Fire only uses atomics
// so it can be called from edge pollers and interrupt-driven goroutines
type PedalEvents struct {
	sink     PedalSink
	deadTime time.Duration
	now      func() time.Time
	last     [3]atomic.Int64
}

// NewPedalEvents uses a 200ms dead-time when deadTime is not positive
func NewPedalEvents(sink PedalSink, deadTime time.Duration) *PedalEvents {
	if deadTime <= 0 {
		deadTime = defaultDeadTime
	}
	return &PedalEvents{
		sink:     sink,
		deadTime: deadTime,
		now:      time.Now,
	}
}

// Fire reports one falling edge on the channel for kind. It returns true if the press reached the sink
func (p *PedalEvents) Fire(kind pedaldose.PedalKind) bool {
	if !kind.Valid() {
		return false
	}

	slot := &p.last[kind-pedaldose.PedalStrong]
	now := p.now().UnixNano()
	prev := slot.Load()
	if prev != 0 && now-prev < int64(p.deadTime) {
		return false
	}
	if !slot.CompareAndSwap(prev, now) {
		// another edge on the same channel won the race
		return false
	}

	return p.sink.Pedal(kind)
}
