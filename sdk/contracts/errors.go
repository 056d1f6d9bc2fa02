package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by drivers and the session layer.
var (
	ErrPortNotFound      = errors.New("port not found")
	ErrUnsupportedDriver = errors.New("driver not supported on this platform")
	ErrUnknownDriver     = errors.New("unknown driver")
	ErrConnectionClosed  = errors.New("connection closed")
)

// PortNotFoundError is returned when no enumerated port has exactly the requested name.
type PortNotFoundError struct {
	Name      string
	Direction Direction
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("%s port %q not found", e.Direction, e.Name)
}

// Is makes errors.Is(err, ErrPortNotFound) hold.
func (e *PortNotFoundError) Is(target error) bool {
	return target == ErrPortNotFound
}

// ParseError reports a stdin token that is not a two-digit hexadecimal byte.
type ParseError struct {
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: token %q: %v", e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SubsystemError wraps failures reported by the native MIDI driver.
type SubsystemError struct {
	Op  string // "enumerate", "open input", "open output", "send", "close"
	Err error
}

func (e *SubsystemError) Error() string {
	return fmt.Sprintf("midi %s: %v", e.Op, e.Err)
}

func (e *SubsystemError) Unwrap() error { return e.Err }

// IOError wraps stdin and stdout failures.
type IOError struct {
	Op  string // "read stdin", "write stdout"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
