// Package serialport opens USB serial links to pedal boxes and the dispenser firmware
package serialport

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// None is offered alongside real ports to run without a serial link
const None = "None"

var (
	ErrNoUSBSerial = errors.New("no USB serial ports found")
	ErrNoPort      = errors.New("no serial port selected")
)

// List returns the names of USB serial ports
func List() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var names []string
	for _, p := range ports {
		if p.IsUSB {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoUSBSerial
	}
	return names, nil
}

// Open opens the named port at baudRate 8N1
func Open(name string, baudRate int) (serial.Port, error) {
	if name == "" || name == None {
		return nil, ErrNoPort
	}
	if baudRate <= 0 {
		baudRate = 115200
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", name, err)
	}
	return port, nil
}
