package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/pedaldose/commands"
	"github.com/calvinmclean/pedaldose/config"
	"github.com/calvinmclean/pedaldose/controller"
	"github.com/calvinmclean/pedaldose/report"
	"github.com/calvinmclean/pedaldose/serialport"
	"github.com/calvinmclean/pedaldose/status"
	"github.com/calvinmclean/pedaldose/ui"
)

var runFlags struct {
	ui     bool
	sim    bool
	serial string
	baud   int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dispenser",
	Long: `Run the dispenser until interrupted.

Commands are read from stdin (unless --ui is set) and from --serial:
  G<goal>\n  set the goal
  S, M, W    strong, medium and weak pedal
  X          stop
  D          print status
  H          help`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispenser()
	},
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.ui, "ui", false, "Show the touchscreen UI")
	runCmd.Flags().BoolVar(&runFlags.sim, "sim", false, "Use simulated GPIO")
	runCmd.Flags().StringVar(&runFlags.serial, "serial", "", "Also read commands from this serial port")
	runCmd.Flags().IntVar(&runFlags.baud, "baud", 0, "Serial baud rate (default from config)")
}

func runDispenser() error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if runFlags.serial != "" {
		cfg.Serial.Port = runFlags.serial
	}
	if runFlags.baud > 0 {
		cfg.Serial.BaudRate = runFlags.baud
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBoard(cfg, runFlags.sim, logger)
	if err != nil {
		return fmt.Errorf("error opening GPIO: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("error releasing GPIO", "error", err)
		}
	}()

	motors, err := newMotors(cfg, b, logger)
	if err != nil {
		return err
	}

	var scheduler controller.Scheduler = controller.TimeScheduler{}
	if runFlags.ui {
		scheduler = ui.Scheduler{}
	}
	alarm := controller.NewAlarm(b.Relay(), scheduler, cfg.Alarm.Duration.Std())

	ctrlCfg := cfg.Controller()
	c := controller.New(motors, alarm, ctrlCfg, logger)

	reporter := report.New(cfg.Report.Addr, cfg.Report.QueueSize, logger)
	c.Subscribe(reporter.Record)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := c.Run(ctx); err != nil {
			logger.Error("controller stopped", "error", err)
		}
		cancel()
	})
	wg.Go(func() {
		if err := reporter.Run(ctx); err != nil {
			logger.Error("reporter stopped", "error", err)
		}
	})

	if w, ok := b.(pedalWatcher); ok {
		events := controller.NewPedalEvents(c, cfg.Pedals.DeadTime.Std())
		wg.Go(func() {
			if err := w.WatchPedals(ctx, cfg.Pedals.PollInterval.Std(), events.Fire); err != nil {
				logger.Error("pedal watcher stopped", "error", err)
			}
		})
	}

	if cfg.Serial.Port != "" {
		err := serveSerial(ctx, &wg, cfg.Serial, c, logger)
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
	}

	if runFlags.ui {
		doseUI := ui.NewDoseUI(c, ctrlCfg.BarWidth, logger)
		doseUI.Run(ctx)
		cancel()
		wg.Wait()
		return nil
	}

	c.Subscribe(status.Printer(func(s string) {
		fmt.Fprintln(os.Stdout, s)
	}, ctrlCfg.BarWidth))

	// stdin blocks past shutdown, so it is not waited on
	go func() {
		err := commands.Run(ctx, bufio.NewReader(os.Stdin), c, os.Stdout)
		if err != nil {
			logger.Error("error reading stdin", "error", err)
			return
		}
		logger.Debug("stdin closed")
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	return nil
}

// serveSerial reads commands from the configured port until ctx is done
func serveSerial(ctx context.Context, wg *sync.WaitGroup, cfg config.Serial, c *controller.Controller, logger *slog.Logger) error {
	port, err := serialport.Open(cfg.Port, cfg.BaudRate)
	if err != nil {
		return err
	}
	logger.Info("reading commands from serial port", "port", cfg.Port, "baud_rate", cfg.BaudRate)

	wg.Go(func() {
		<-ctx.Done()
		port.Close()
	})
	wg.Go(func() {
		err := commands.Run(ctx, bufio.NewReader(port), c, port)
		if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
			logger.Error("error reading serial port", "port", cfg.Port, "error", err)
		}
	})
	return nil
}
