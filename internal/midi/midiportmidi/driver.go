//go:build portmidi
// +build portmidi

// Package midiportmidi adapts PortMidi to contracts.Driver. It is compiled
// only with the portmidi build tag because it links against libportmidi.
package midiportmidi

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midihex/internal/midi/wire"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/rakyll/portmidi"
)

const (
	bufferSize   = 1024
	pollInterval = time.Millisecond
)

// Driver enumerates PortMidi devices, which carry both directions in one list.
type Driver struct {
	logger contracts.Logger

	mu    sync.Mutex
	conns map[*inputConn]struct{}
}

// NewDriver initializes PortMidi.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("portmidi: %w", err)
	}
	options.Logger.Debug("PortMidi initialized", options.Logger.Field().Int("devices", portmidi.CountDevices()))
	return &Driver{logger: options.Logger, conns: make(map[*inputConn]struct{})}, nil
}

func (d *Driver) Name() string { return "portmidi" }

type device struct {
	id   portmidi.DeviceID
	name string
}

// devices returns the PortMidi devices usable in dir, in device id order.
func devices(dir contracts.Direction) []device {
	var out []device
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info == nil {
			continue
		}
		if (dir == contracts.Input && info.IsInputAvailable) || (dir == contracts.Output && info.IsOutputAvailable) {
			out = append(out, device{id: portmidi.DeviceID(i), name: info.Name})
		}
	}
	return out
}

func (d *Driver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	devs := devices(dir)
	ports := make([]contracts.Port, len(devs))
	for i, dev := range devs {
		ports[i] = contracts.Port{Number: i, Name: dev.name, Direction: dir}
	}
	return ports, nil
}

func lookup(port contracts.Port) (portmidi.DeviceID, error) {
	devs := devices(port.Direction)
	if port.Number < 0 || port.Number >= len(devs) || devs[port.Number].name != port.Name {
		return 0, &contracts.PortNotFoundError{Name: port.Name, Direction: port.Direction}
	}
	return devs[port.Number].id, nil
}

// OpenInput opens an input stream and polls it on a dedicated goroutine.
func (d *Driver) OpenInput(port contracts.Port, handler contracts.MessageHandler) (contracts.InputConnection, error) {
	id, err := lookup(port)
	if err != nil {
		return nil, err
	}
	stream, err := portmidi.NewInputStream(id, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", port.Name, err)
	}
	c := &inputConn{
		driver:  d,
		port:    port,
		stream:  stream,
		handler: handler,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.poll()

	d.mu.Lock()
	d.conns[c] = struct{}{}
	d.mu.Unlock()
	d.logger.Info("MIDI input polling", d.logger.Field().String("port", port.Name))
	return c, nil
}

// OpenOutput opens an output stream with zero latency.
func (d *Driver) OpenOutput(port contracts.Port) (contracts.OutputConnection, error) {
	id, err := lookup(port)
	if err != nil {
		return nil, err
	}
	stream, err := portmidi.NewOutputStream(id, bufferSize, 0)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", port.Name, err)
	}
	d.logger.Info("MIDI output opened", d.logger.Field().String("port", port.Name))
	return &outputConn{port: port, stream: stream}, nil
}

// Close closes every input and terminates PortMidi.
func (d *Driver) Close() error {
	d.mu.Lock()
	conns := d.conns
	d.conns = make(map[*inputConn]struct{})
	d.mu.Unlock()
	for c := range conns {
		c.release()
	}
	return portmidi.Terminate()
}

type inputConn struct {
	driver  *Driver
	port    contracts.Port
	stream  *portmidi.Stream
	handler contracts.MessageHandler
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	err     error
}

func (c *inputConn) Port() contracts.Port { return c.port }

func (c *inputConn) poll() {
	defer close(c.stopped)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
		ok, err := c.stream.Poll()
		if err != nil {
			c.driver.logger.Warn("PortMidi poll failed", c.driver.logger.Field().Error("error", err))
			continue
		}
		if !ok {
			continue
		}
		events, err := c.stream.Read(bufferSize)
		if err != nil {
			c.driver.logger.Warn("PortMidi read failed", c.driver.logger.Field().Error("error", err))
			continue
		}
		dropped := 0
		for _, ev := range events {
			data := decodeEvent(ev.Status, ev.Data1, ev.Data2)
			if data == nil {
				dropped++
				continue
			}
			c.handler(contracts.Message{Timestamp: uint64(ev.Timestamp), Data: data})
		}
		if dropped > 0 {
			c.driver.logger.Debug("PortMidi SysEx events dropped",
				c.driver.logger.Field().String("port", c.port.Name),
				c.driver.logger.Field().Int("events", dropped))
		}
	}
}

func (c *inputConn) release() error {
	c.once.Do(func() {
		close(c.done)
		<-c.stopped
		c.err = c.stream.Close()
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
	port   contracts.Port
	stream *portmidi.Stream

	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Port() contracts.Port { return c.port }

// Send writes short messages with WriteShort and anything else as SysEx.
func (c *outputConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return contracts.ErrConnectionClosed
	}
	if len(data) == 0 {
		return nil
	}
	if wire.IsShort(data) {
		var d1, d2 int64
		if len(data) > 1 {
			d1 = int64(data[1])
		}
		if len(data) > 2 {
			d2 = int64(data[2])
		}
		return c.stream.WriteShort(int64(data[0]), d1, d2)
	}
	return c.stream.WriteSysExBytes(portmidi.Time(), data)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.stream.Close()
}
