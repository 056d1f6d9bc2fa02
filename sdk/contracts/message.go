package contracts

// Message is one MIDI event or SysEx chunk as delivered by a driver. Data is
// opaque to this module.
type Message struct {
	Timestamp uint64 // Arrival time, in the driver's own unit.
	Data      []byte // Raw bytes, in wire order.
}

// Len returns the number of bytes in the message.
func (m Message) Len() int {
	return len(m.Data)
}

// FormatOptions control how received messages are printed. They are copied
// into each input connection when it is opened.
type FormatOptions struct {
	ShowTimestamp bool // Prefix each line with the decimal timestamp.
	ShowSize      bool // Prefix each line with the decimal byte count.
}
