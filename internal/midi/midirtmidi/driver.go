//go:build cgo
// +build cgo

// Package midirtmidi adapts the gomidi RtMidi driver (ALSA, CoreMIDI, WinMM
// through one C++ library) to contracts.Driver.
package midirtmidi

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midihex/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Driver wraps a gomidi driver. Tests substitute the gomidi driver through
// newWithDriver.
type Driver struct {
	logger contracts.Logger
	drv    drivers.Driver

	mu    sync.Mutex
	conns map[*inputConn]struct{}
}

// NewDriver opens the RtMidi backend.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmidi: %w", err)
	}
	options.Logger.Debug("RtMidi driver created", options.Logger.Field().String("backend", drv.String()))
	return newWithDriver(options.Logger, drv), nil
}

func newWithDriver(log contracts.Logger, drv drivers.Driver) *Driver {
	return &Driver{logger: log, drv: drv, conns: make(map[*inputConn]struct{})}
}

func (d *Driver) Name() string { return "rtmidi" }

// Ports lists gomidi ins or outs in driver order.
func (d *Driver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	var names []string
	switch dir {
	case contracts.Input:
		ins, err := d.drv.Ins()
		if err != nil {
			return nil, err
		}
		for _, in := range ins {
			names = append(names, in.String())
		}
	case contracts.Output:
		outs, err := d.drv.Outs()
		if err != nil {
			return nil, err
		}
		for _, out := range outs {
			names = append(names, out.String())
		}
	default:
		return nil, fmt.Errorf("unknown direction %v", dir)
	}
	ports := make([]contracts.Port, len(names))
	for i, n := range names {
		ports[i] = contracts.Port{Number: i, Name: n, Direction: dir}
	}
	return ports, nil
}

func (d *Driver) in(port contracts.Port) (drivers.In, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, err
	}
	if port.Number < 0 || port.Number >= len(ins) || ins[port.Number].String() != port.Name {
		return nil, &contracts.PortNotFoundError{Name: port.Name, Direction: port.Direction}
	}
	return ins[port.Number], nil
}

func (d *Driver) out(port contracts.Port) (drivers.Out, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, err
	}
	if port.Number < 0 || port.Number >= len(outs) || outs[port.Number].String() != port.Name {
		return nil, &contracts.PortNotFoundError{Name: port.Name, Direction: port.Direction}
	}
	return outs[port.Number], nil
}

// OpenInput opens the port and listens for every message kind, SysEx,
// timing and active sensing included.
func (d *Driver) OpenInput(port contracts.Port, handler contracts.MessageHandler) (contracts.InputConnection, error) {
	in, err := d.in(port)
	if err != nil {
		return nil, err
	}
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("open %q: %w", port.Name, err)
		}
	}

	stop, err := in.Listen(func(msg []byte, milliseconds int32) {
		handler(contracts.Message{
			Timestamp: uint64(milliseconds),
			Data:      append([]byte(nil), msg...),
		})
	}, drivers.ListenConfig{
		TimeCode:    true,
		ActiveSense: true,
		SysEx:       true,
		OnErr: func(err error) {
			d.logger.Warn("RtMidi input error",
				d.logger.Field().String("port", port.Name),
				d.logger.Field().Error("error", err))
		},
	})
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("listen on %q: %w", port.Name, err)
	}

	c := &inputConn{driver: d, port: port, in: in, stop: stop}
	d.mu.Lock()
	d.conns[c] = struct{}{}
	d.mu.Unlock()
	d.logger.Info("MIDI input listening", d.logger.Field().String("port", port.Name))
	return c, nil
}

// OpenOutput opens the output port.
func (d *Driver) OpenOutput(port contracts.Port) (contracts.OutputConnection, error) {
	out, err := d.out(port)
	if err != nil {
		return nil, err
	}
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			return nil, fmt.Errorf("open %q: %w", port.Name, err)
		}
	}
	d.logger.Info("MIDI output opened", d.logger.Field().String("port", port.Name))
	return &outputConn{port: port, out: out}, nil
}

// Close stops every listener and closes the underlying driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	conns := d.conns
	d.conns = make(map[*inputConn]struct{})
	d.mu.Unlock()
	for c := range conns {
		c.release()
	}
	return d.drv.Close()
}

type inputConn struct {
	driver *Driver
	port   contracts.Port
	in     drivers.In
	stop   func()
	once   sync.Once
	err    error
}

func (c *inputConn) Port() contracts.Port { return c.port }

func (c *inputConn) release() error {
	c.once.Do(func() {
		c.stop()
		c.err = c.in.Close()
	})
	return c.err
}

func (c *inputConn) Close() error {
	c.driver.mu.Lock()
	delete(c.driver.conns, c)
	c.driver.mu.Unlock()
	return c.release()
}

type outputConn struct {
	port contracts.Port
	out  drivers.Out

	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Port() contracts.Port { return c.port }

func (c *outputConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return contracts.ErrConnectionClosed
	}
	if len(data) == 0 {
		return nil
	}
	return c.out.Send(data)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.out.Close()
}
