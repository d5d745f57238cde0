// Package serialport adapts go.bug.st/serial to the dxl.SerialPort
// contract, so the dxl core can run against real hardware without forcing
// a serial library choice on every caller. Nothing in dxl imports this
// package; it is wired up by callers such as cmd/dxlscan.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// CommonBaudrates lists the baudrates Dynamixel devices commonly ship
// configured for, in ascending order.
var CommonBaudrates = []int{
	9600,
	57600,
	115200,
	1_000_000,
	2_000_000,
	3_000_000,
	4_000_000,
	4_500_000,
	6_000_000,
	10_500_000,
}

// DefaultBaudrate is the factory baudrate most Dynamixel Protocol 2 devices
// ship configured for.
const DefaultBaudrate = 1_000_000

// DefaultTimeout is a one-second per-read timeout a caller can pass to Open.
// Open itself always uses the timeout it is given.
const DefaultTimeout = time.Second

// Port wraps a go.bug.st/serial connection and satisfies dxl.SerialPort.
type Port struct {
	name    string
	port    serial.Port
	timeout time.Duration
}

// Open opens name at baudrate with an 8N1 frame and the given read timeout.
func Open(name string, baudrate int, timeout time.Duration) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	sp, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", name, err)
	}
	if err := sp.SetReadTimeout(timeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("serialport: set read timeout on %s: %w", name, err)
	}

	return &Port{name: name, port: sp, timeout: timeout}, nil
}

// Read satisfies dxl.SerialPort.
func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write satisfies dxl.SerialPort.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close satisfies dxl.SerialPort.
func (p *Port) Close() error {
	return p.port.Close()
}

// SetBaudrate changes the port's baudrate without closing it, matching the
// control-table write that commonly precedes it on the device side.
func (p *Port) SetBaudrate(baudrate int) error {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := p.port.SetMode(mode); err != nil {
		return fmt.Errorf("serialport: set baudrate on %s: %w", p.name, err)
	}
	return nil
}

// SetTimeout changes the port's read timeout.
func (p *Port) SetTimeout(timeout time.Duration) error {
	if err := p.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("serialport: set read timeout on %s: %w", p.name, err)
	}
	p.timeout = timeout
	return nil
}

// Name returns the device path this Port was opened with.
func (p *Port) Name() string {
	return p.name
}

// ListPorts enumerates serial device paths available on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: list ports: %w", err)
	}
	return ports, nil
}
