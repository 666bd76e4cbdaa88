// Package report posts dose sessions to a TWChart server so each cycle can be reviewed later
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/calvinmclean/pedaldose/controller"
)

const requestTimeout = 5 * time.Second

type sessionClient interface {
	CreateSession(ctx context.Context, name string) (string, error)
	SetStartTime(ctx context.Context, startTime time.Time) error
	AddEvent(ctx context.Context, note string, now time.Time) error
	AddStage(ctx context.Context, name string, now time.Time) error
	Done(ctx context.Context, now time.Time) error
}

type noopClient struct{}

var _ sessionClient = noopClient{}

// CreateSession implements sessionClient.
func (noopClient) CreateSession(ctx context.Context, name string) (string, error) {
	return "", nil
}

// SetStartTime implements sessionClient.
func (noopClient) SetStartTime(ctx context.Context, startTime time.Time) error {
	return nil
}

// AddEvent implements sessionClient.
func (noopClient) AddEvent(ctx context.Context, note string, now time.Time) error {
	return nil
}

// AddStage implements sessionClient.
func (noopClient) AddStage(ctx context.Context, name string, now time.Time) error {
	return nil
}

// Done implements sessionClient.
func (noopClient) Done(ctx context.Context, now time.Time) error {
	return nil
}

// Reporter turns controller events into TWChart calls. Record never blocks; events are
// posted from Run's goroutine and dropped with a warning when the queue is full
type Reporter struct {
	client sessionClient
	queue  chan controller.Event
	logger *slog.Logger

	// owned by Run
	open bool
}

// New creates a Reporter for the server at addr. An empty addr reports nowhere
func New(addr string, queueSize int, logger *slog.Logger) *Reporter {
	var client sessionClient = noopClient{}
	if addr != "" {
		client = NewClient(addr)
	}
	return newReporter(client, queueSize, logger)
}

func newReporter(client sessionClient, queueSize int, logger *slog.Logger) *Reporter {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		client: client,
		queue:  make(chan controller.Event, queueSize),
		logger: logger,
	}
}

// Record queues an event. It is meant to be passed to Controller.Subscribe
func (r *Reporter) Record(e controller.Event) {
	select {
	case r.queue <- e:
	default:
		r.logger.Warn("report queue full, dropping event", "event", e.Type.String())
	}
}

// Run posts queued events until ctx is done
func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-r.queue:
			err := r.handle(ctx, e)
			if err != nil {
				r.logger.Warn("error reporting event", "event", e.Type.String(), "error", err)
			}
		}
	}
}

func (r *Reporter) handle(ctx context.Context, e controller.Event) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	s := e.Snapshot

	switch e.Type {
	case controller.EventGoalSet:
		id, err := r.client.CreateSession(ctx, fmt.Sprintf("Goal %d", s.Goal))
		if err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}
		r.open = true
		r.logger.Debug("created report session", "id", id)
		return r.client.SetStartTime(ctx, e.Time)
	case controller.EventPedalAccepted:
		if !r.open {
			return nil
		}
		note := fmt.Sprintf("%s +%d: %d/%d (%s)", e.Kind, e.Kind.Increment(), s.Accumulated, s.Goal, s.Progress)
		return r.client.AddEvent(ctx, note, e.Time)
	case controller.EventCompleted:
		if !r.open {
			return nil
		}
		r.open = false
		err := r.client.AddStage(ctx, "Complete", e.Time)
		if err != nil {
			return fmt.Errorf("error adding stage: %w", err)
		}
		return r.client.Done(ctx, e.Time)
	case controller.EventStopped:
		if !r.open {
			return nil
		}
		r.open = false
		err := r.client.AddEvent(ctx, "Stopped", e.Time)
		if err != nil {
			return fmt.Errorf("error adding event: %w", err)
		}
		return r.client.Done(ctx, e.Time)
	default:
		return nil
	}
}
