// Package wire packs and unpacks MIDI short messages for drivers whose native
// API carries them as integers rather than byte slices.
package wire

// ShortLength returns the total length of a short message that starts with
// status, or 0 when status does not start a short message (SysEx, data bytes).
func ShortLength(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status < 0xc0, status >= 0xe0 && status < 0xf0:
		return 3
	case status < 0xe0:
		return 2
	}
	switch status {
	case 0xf1, 0xf3:
		return 2
	case 0xf2:
		return 3
	case 0xf0, 0xf7:
		return 0
	default:
		return 1
	}
}

// IsShort reports whether data is exactly one complete short message.
func IsShort(data []byte) bool {
	return len(data) > 0 && ShortLength(data[0]) == len(data)
}

// Pack encodes up to three bytes little endian, status in the low byte.
func Pack(data []byte) uint32 {
	var v uint32
	for i := 0; i < len(data) && i < 3; i++ {
		v |= uint32(data[i]) << (8 * i)
	}
	return v
}

// Unpack decodes a packed short message, trimming it to the length implied
// by its status byte. It returns nil for a packed value with no valid status.
func Unpack(v uint32) []byte {
	status := byte(v)
	n := ShortLength(status)
	if n == 0 {
		return nil
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(v >> (8 * i))
	}
	return data
}
