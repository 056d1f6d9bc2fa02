package contracts

import "fmt"

// Direction tells whether a port receives or transmits MIDI data.
type Direction int

const (
	// Input ports deliver messages to the process.
	Input Direction = iota
	// Output ports accept messages from the process.
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Port is one endpoint exposed by a driver. Ports are enumerated fresh on
// every lookup and never cached.
type Port struct {
	Number    int       // Position in the driver's enumeration order.
	Name      string    // Display name reported by the driver.
	Direction Direction // Input or Output.
}

func (p Port) String() string {
	return fmt.Sprintf("%s #%d %q", p.Direction, p.Number, p.Name)
}
