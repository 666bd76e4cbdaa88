package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/config"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/calvinmclean/pedaldose/hardware/rpi"
	"github.com/calvinmclean/pedaldose/hardware/sim"
)

type board interface {
	MotorConfig() controller.MotorConfig
	Relay() controller.Line
	Close() error
}

type pedalWatcher interface {
	WatchPedals(ctx context.Context, interval time.Duration, fire func(pedaldose.PedalKind) bool) error
}

var (
	_ board        = &rpi.Board{}
	_ pedalWatcher = &rpi.Board{}
	_ board        = simBoard{}
)

type simBoard struct {
	*sim.Board
}

func (b simBoard) Relay() controller.Line {
	return b.Board.Relay
}

func openBoard(cfg *config.Config, useSim bool, logger *slog.Logger) (board, error) {
	if useSim {
		logger.Info("using simulated GPIO")
		return simBoard{sim.NewBoard(logger)}, nil
	}
	return rpi.Open(rpi.Pins(cfg.Pins), logger)
}

// newMotors applies the configured timing to the board's motor lines
func newMotors(cfg *config.Config, b board, logger *slog.Logger) (*controller.Motors, error) {
	motorCfg := b.MotorConfig()
	motorCfg.SettleDelay = cfg.Timing.Settle.Std()
	motorCfg.PulseTrain = cfg.Timing.PulseTrain.Std()
	return controller.NewMotors(motorCfg, logger)
}
