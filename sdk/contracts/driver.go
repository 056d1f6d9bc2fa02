package contracts

// MessageHandler receives messages from an input connection. It runs on the
// driver's own goroutine or OS thread and must not block indefinitely.
type MessageHandler func(msg Message)

// Driver is the native MIDI subsystem as seen by the rest of the module.
type Driver interface {
	// Name returns the registry name of the driver, e.g. "coremidi".
	Name() string
	// Ports enumerates the currently visible ports for a direction.
	Ports(dir Direction) ([]Port, error)
	// OpenInput connects to an input port and starts delivering messages to handler.
	OpenInput(port Port, handler MessageHandler) (InputConnection, error)
	// OpenOutput connects to an output port.
	OpenOutput(port Port) (OutputConnection, error)
	// Close releases the driver and everything it opened.
	Close() error
}

// InputConnection is an open binding to an input port.
type InputConnection interface {
	Port() Port
	Close() error
}

// OutputConnection is an open binding to an output port.
type OutputConnection interface {
	Port() Port
	// Send transmits one message synchronously.
	Send(data []byte) error
	Close() error
}
