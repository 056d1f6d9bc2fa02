// Package midiloop is an in-memory driver whose output ports feed the input
// ports of the same name. It needs no native MIDI subsystem.
package midiloop

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midihex/sdk/contracts"
)

// DefaultPort is exposed when no port names are configured.
const DefaultPort = "midihex loopback"

// Driver routes every message sent on an output port to all open input
// connections on the port with the same name.
type Driver struct {
	logger contracts.Logger
	start  time.Time
	names  []string

	mu        sync.Mutex
	listeners map[string]map[*inputConn]struct{}
	closed    bool
}

// NewDriver creates a loopback driver from the configured port names.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	names := options.LoopbackPorts
	if len(names) == 0 {
		names = []string{DefaultPort}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("duplicate loopback port %q", n)
		}
		seen[n] = true
	}
	return &Driver{
		logger:    options.Logger,
		start:     time.Now(),
		names:     append([]string(nil), names...),
		listeners: make(map[string]map[*inputConn]struct{}),
	}, nil
}

func (d *Driver) Name() string { return "loopback" }

// Ports lists the configured names; inputs and outputs mirror each other.
func (d *Driver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, contracts.ErrConnectionClosed
	}
	ports := make([]contracts.Port, len(d.names))
	for i, n := range d.names {
		ports[i] = contracts.Port{Number: i, Name: n, Direction: dir}
	}
	return ports, nil
}

func (d *Driver) lookup(port contracts.Port) error {
	if port.Number < 0 || port.Number >= len(d.names) || d.names[port.Number] != port.Name {
		return &contracts.PortNotFoundError{Name: port.Name, Direction: port.Direction}
	}
	return nil
}

// OpenInput registers handler for messages sent to the port's name.
func (d *Driver) OpenInput(port contracts.Port, handler contracts.MessageHandler) (contracts.InputConnection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, contracts.ErrConnectionClosed
	}
	if err := d.lookup(port); err != nil {
		return nil, err
	}
	c := &inputConn{driver: d, port: port, handler: handler}
	set := d.listeners[port.Name]
	if set == nil {
		set = make(map[*inputConn]struct{})
		d.listeners[port.Name] = set
	}
	set[c] = struct{}{}
	d.logger.Debug("loopback input opened", d.logger.Field().String("port", port.Name))
	return c, nil
}

// OpenOutput returns a connection that delivers to the matching inputs.
func (d *Driver) OpenOutput(port contracts.Port) (contracts.OutputConnection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, contracts.ErrConnectionClosed
	}
	if err := d.lookup(port); err != nil {
		return nil, err
	}
	d.logger.Debug("loopback output opened", d.logger.Field().String("port", port.Name))
	return &outputConn{driver: d, port: port}, nil
}

// Close detaches every input connection.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.listeners = make(map[string]map[*inputConn]struct{})
	return nil
}

// deliver runs the handlers on the sender's goroutine, outside the lock.
func (d *Driver) deliver(name string, data []byte) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return contracts.ErrConnectionClosed
	}
	targets := make([]*inputConn, 0, len(d.listeners[name]))
	for c := range d.listeners[name] {
		targets = append(targets, c)
	}
	d.mu.Unlock()

	ts := uint64(time.Since(d.start).Microseconds())
	for _, c := range targets {
		msg := contracts.Message{Timestamp: ts, Data: append([]byte(nil), data...)}
		c.handler(msg)
	}
	return nil
}

type inputConn struct {
	driver  *Driver
	port    contracts.Port
	handler contracts.MessageHandler
}

func (c *inputConn) Port() contracts.Port { return c.port }

func (c *inputConn) Close() error {
	d := c.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	if set := d.listeners[c.port.Name]; set != nil {
		delete(set, c)
	}
	return nil
}

type outputConn struct {
	driver *Driver
	port   contracts.Port

	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Port() contracts.Port { return c.port }

func (c *outputConn) Send(data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return contracts.ErrConnectionClosed
	}
	return c.driver.deliver(c.port.Name, data)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
