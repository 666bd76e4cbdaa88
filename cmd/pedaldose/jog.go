package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/pedaldose"
)

var jogFlags struct {
	steps int
	dir   string
	sim   bool
}

var jogCmd = &cobra.Command{
	Use:   "jog",
	Short: "Run both motors once for calibration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return jog(jogFlags.steps, jogFlags.dir, jogFlags.sim)
	},
}

func init() {
	jogCmd.Flags().IntVar(&jogFlags.steps, "steps", pedaldose.PedalWeak.Steps(), "Number of steps")
	jogCmd.Flags().StringVar(&jogFlags.dir, "dir", pedaldose.DirectionDown.String(), "Direction: down or up")
	jogCmd.Flags().BoolVar(&jogFlags.sim, "sim", false, "Use simulated GPIO")
}

func jog(steps int, dirInput string, useSim bool) error {
	if steps <= 0 {
		return errors.New("steps must be positive")
	}
	dir, err := pedaldose.ParseDirection(dirInput)
	if err != nil {
		return err
	}

	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	b, err := openBoard(cfg, useSim, logger)
	if err != nil {
		return fmt.Errorf("error opening GPIO: %w", err)
	}
	defer b.Close()

	motors, err := newMotors(cfg, b, logger)
	if err != nil {
		return err
	}

	logger.Info("jogging motors", "steps", steps, "direction", dir.String())
	return motors.Run(steps, dir, motors.HalfPeriod(steps))
}
