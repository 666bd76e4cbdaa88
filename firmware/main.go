//go:build tinygo

// Firmware runs the dispenser on an RP2040 board. Commands arrive over the USB serial console.
package main

import (
	"context"
	"log/slog"
	"machine"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers/buzzer"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/commands"
	"github.com/calvinmclean/pedaldose/controller"
)

const (
	pedalPollInterval = 2 * time.Millisecond
	serialPollDelay   = 10 * time.Millisecond
)

var (
	motorPins = [2][3]machine.Pin{
		// pulse, direction, enable
		{machine.GP2, machine.GP3, machine.GP4},
		{machine.GP5, machine.GP6, machine.GP7},
	}
	relayPin  = machine.GP15
	pedalPins = [3]machine.Pin{machine.GP10, machine.GP11, machine.GP12}
)

// pending is set from pin interrupts, which cannot block or allocate
var pending [3]atomic.Bool

type pinLine machine.Pin

func (p pinLine) Set(high bool) {
	machine.Pin(p).Set(high)
}

// relayLine drives the alarm relay through the buzzer driver
type relayLine struct {
	dev *buzzer.Device
}

func (r relayLine) Set(high bool) {
	if high {
		r.dev.On()
		return
	}
	r.dev.Off()
}

// serialReader blocks until the console has a byte
type serialReader struct{}

func (serialReader) ReadByte() (byte, error) {
	for machine.Serial.Buffered() == 0 {
		time.Sleep(serialPollDelay)
	}
	return machine.Serial.ReadByte()
}

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var motorCfg controller.MotorConfig
	for i, pins := range motorPins {
		for _, p := range pins {
			p.Configure(machine.PinConfig{Mode: machine.PinOutput})
			p.Low()
		}
		motorCfg.Channels[i] = controller.MotorPins{
			Pulse:     pinLine(pins[0]),
			Direction: pinLine(pins[1]),
			Enable:    pinLine(pins[2]),
		}
	}
	motorCfg.SettleDelay = 500 * time.Millisecond
	motorCfg.PulseTrain = 50 * time.Millisecond

	motors, err := controller.NewMotors(motorCfg, logger)
	if err != nil {
		panic(err)
	}

	relayPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	relay := buzzer.New(relayPin)
	alarm := controller.NewAlarm(relayLine{&relay}, controller.TimeScheduler{}, time.Second)

	c := controller.New(motors, alarm, controller.DefaultConfig(), logger)

	ctx := context.Background()
	go func() {
		if err := c.Run(ctx); err != nil {
			logger.Error("controller stopped", "error", err)
		}
	}()

	events := controller.NewPedalEvents(c, 200*time.Millisecond)
	for i, p := range pedalPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		err := p.SetInterrupt(machine.PinFalling, func(machine.Pin) {
			pending[i].Store(true)
		})
		if err != nil {
			logger.Error("error setting pedal interrupt", "pedal", pedaldose.PedalKinds[i].String(), "error", err)
		}
	}
	go drainPedals(events)

	logger.Info("pedaldose ready")
	err = commands.Run(ctx, serialReader{}, c, machine.Serial)
	if err != nil {
		logger.Error("console stopped", "error", err)
	}
	select {}
}

// drainPedals forwards interrupt-recorded presses to the debouncer
func drainPedals(events *controller.PedalEvents) {
	for {
		for i, kind := range pedaldose.PedalKinds {
			if pending[i].Swap(false) {
				events.Fire(kind)
			}
		}
		time.Sleep(pedalPollInterval)
	}
}
