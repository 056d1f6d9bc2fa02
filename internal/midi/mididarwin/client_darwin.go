//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Driver exposes CoreMIDI sources as input ports and destinations as output
// ports. CoreMIDI invokes read procs on its own thread.
//
// go-coremidi has no dispose calls, so the client and one port per direction
// are created once and shared by every connection for the driver's lifetime.
type Driver struct {
	logger contracts.Logger
	client coremidi.Client
	name   string

	mu         sync.Mutex
	conns      map[*inputConn]struct{}
	inputPort  *coremidi.InputPort
	outputPort *coremidi.OutputPort
}

// NewDriver creates a CoreMIDI client named after options.ClientName.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	client, err := coremidi.NewClient(options.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Debug("CoreMIDI client created", options.Logger.Field().String("client", options.ClientName))

	return &Driver{
		logger: options.Logger,
		client: client,
		name:   options.ClientName,
		conns:  make(map[*inputConn]struct{}),
	}, nil
}

func (d *Driver) Name() string { return "coremidi" }

// Ports lists sources for Input and destinations for Output.
func (d *Driver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	var names []string
	switch dir {
	case contracts.Input:
		sources, err := coremidi.AllSources()
		if err != nil {
			return nil, fmt.Errorf("error listing MIDI sources: %w", err)
		}
		for _, s := range sources {
			names = append(names, s.Name())
		}
	case contracts.Output:
		destinations, err := coremidi.AllDestinations()
		if err != nil {
			return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
		}
		for _, dst := range destinations {
			names = append(names, dst.Name())
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

func (d *Driver) source(port contracts.Port) (coremidi.Source, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return coremidi.Source{}, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if port.Number < 0 || port.Number >= len(sources) || sources[port.Number].Name() != port.Name {
		return coremidi.Source{}, fmt.Errorf("%w: %v", ErrInvalidMIDIDevice, port)
	}
	return sources[port.Number], nil
}

func (d *Driver) destination(port contracts.Port) (coremidi.Destination, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return coremidi.Destination{}, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if port.Number < 0 || port.Number >= len(destinations) || destinations[port.Number].Name() != port.Name {
		return coremidi.Destination{}, fmt.Errorf("%w: %v", ErrInvalidMIDIDevice, port)
	}
	return destinations[port.Number], nil
}

// sharedInputPort returns the driver's input port, creating it on first use.
// Packets are routed to every connection whose source has the packet's
// source name. Callers hold d.mu.
func (d *Driver) sharedInputPort() (*coremidi.InputPort, error) {
	if d.inputPort != nil {
		return d.inputPort, nil
	}
	inputPort, err := coremidi.NewInputPort(d.client, d.name+" input", d.dispatch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	d.inputPort = &inputPort
	return d.inputPort, nil
}

func (d *Driver) dispatch(source coremidi.Source, packet coremidi.Packet) {
	name := source.Name()
	d.mu.Lock()
	var handlers []contracts.MessageHandler
	for c := range d.conns {
		if c.port.Name == name {
			handlers = append(handlers, c.handler)
		}
	}
	d.mu.Unlock()

	for _, h := range handlers {
		h(contracts.Message{
			Timestamp: packet.TimeStamp,
			Data:      append([]byte(nil), packet.Data...),
		})
	}
}

// OpenInput connects the shared input port to the source and forwards every
// packet from it to handler.
func (d *Driver) OpenInput(port contracts.Port, handler contracts.MessageHandler) (contracts.InputConnection, error) {
	source, err := d.source(port)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	inputPort, err := d.sharedInputPort()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	ic := &inputConn{driver: d, port: port, handler: handler}
	d.conns[ic] = struct{}{}
	d.mu.Unlock()

	// Connect runs unlocked because the read proc takes d.mu.
	conn, err := inputPort.Connect(source)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		delete(d.conns, ic)
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	ic.conn = conn

	d.logger.Info("MIDI source connected", d.logger.Field().String("port", port.Name))
	return ic, nil
}

// OpenOutput binds the shared output port to the destination.
func (d *Driver) OpenOutput(port contracts.Port) (contracts.OutputConnection, error) {
	destination, err := d.destination(port)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outputPort == nil {
		outputPort, err := coremidi.NewOutputPort(d.client, d.name+" output")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
		}
		d.outputPort = &outputPort
	}
	d.logger.Info("MIDI destination opened", d.logger.Field().String("port", port.Name))
	return &outputConn{port: port, outputPort: d.outputPort, destination: destination}, nil
}

// Close disconnects any input connection still attached.
func (d *Driver) Close() error {
	d.mu.Lock()
	var attached []internalPortConnection
	for c := range d.conns {
		if c.conn != nil {
			attached = append(attached, c.conn)
		}
	}
	d.conns = make(map[*inputConn]struct{})
	d.mu.Unlock()
	for _, conn := range attached {
		conn.Disconnect()
	}
	return nil
}

// forget reports whether c was still attached and detaches it.
func (d *Driver) forget(c *inputConn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conns[c]; !ok {
		return false
	}
	delete(d.conns, c)
	return true
}

type inputConn struct {
	driver  *Driver
	port    contracts.Port
	handler contracts.MessageHandler
	conn    internalPortConnection
}

func (c *inputConn) Port() contracts.Port { return c.port }

func (c *inputConn) Close() error {
	if c.driver.forget(c) {
		c.conn.Disconnect()
	}
	return nil
}

type outputConn struct {
	port        contracts.Port
	outputPort  *coremidi.OutputPort
	destination coremidi.Destination

	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Port() contracts.Port { return c.port }

// Send transmits data as one packet scheduled for immediate delivery.
func (c *outputConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return contracts.ErrConnectionClosed
	}
	if len(data) == 0 {
		return nil
	}
	packet := coremidi.NewPacket(data, 0)
	return packet.Send(c.outputPort, &c.destination)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
