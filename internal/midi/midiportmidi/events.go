package midiportmidi

import (
	"github.com/leandrodaf/midihex/internal/midi/wire"
)

// decodeEvent turns the fields of one PortMidi event into message bytes.
// PortMidi splits SysEx across events four bytes at a time and the Go
// binding only exposes three of them, so SysEx fragments and stray data
// bytes cannot be rebuilt and decode to nil.
func decodeEvent(status, data1, data2 int64) []byte {
	return wire.Unpack(uint32(status&0xff) | uint32(data1&0xff)<<8 | uint32(data2&0xff)<<16)
}
