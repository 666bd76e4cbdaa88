package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
)

const requestTimeout = 2 * time.Second

// Controller is what the UI needs from the actuation controller
type Controller interface {
	SubmitGoalText(context.Context, string) error
	PressPedal(context.Context, pedaldose.PedalKind) error
	Stop(context.Context) error
	Snapshot() controller.Snapshot
	Subscribe(func(controller.Event))
}

var _ Controller = &controller.Controller{}

// controllerWrapper sends requests off the fyne main goroutine. Rejections that the user must
// see arrive as events, so only unexpected errors are logged here
type controllerWrapper struct {
	c      Controller
	logger *slog.Logger
}

func (w *controllerWrapper) SubmitGoal(input string) {
	go w.do("submit goal", func(ctx context.Context) error {
		return w.c.SubmitGoalText(ctx, input)
	})
}

func (w *controllerWrapper) Pedal(kind pedaldose.PedalKind) {
	go w.do("press pedal", func(ctx context.Context) error {
		return w.c.PressPedal(ctx, kind)
	})
}

func (w *controllerWrapper) Stop() {
	go w.do("stop", w.c.Stop)
}

func (w *controllerWrapper) do(action string, f func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	err := f(ctx)
	if err == nil || expected(err) {
		return
	}
	w.logger.Error("ui request failed", "action", action, "error", err)
}

// expected errors are shown through controller events or deliberately silent
func expected(err error) bool {
	return errors.Is(err, pedaldose.ErrInvalidGoal) ||
		errors.Is(err, pedaldose.ErrGoalNotSet) ||
		errors.Is(err, pedaldose.ErrActuationInProgress) ||
		errors.Is(err, pedaldose.ErrSessionActive)
}
