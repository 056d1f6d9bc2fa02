package hexline

import (
	"strconv"

	"github.com/leandrodaf/midihex/sdk/contracts"
)

const hexDigits = "0123456789abcdef"

// Format renders a received message as one newline-terminated line:
// optional decimal timestamp, optional decimal size, then the bytes as
// lowercase two-digit hex separated by single spaces.
func Format(timestamp uint64, data []byte, opts contracts.FormatOptions) string {
	return string(AppendFormat(nil, timestamp, data, opts))
}

// AppendFormat is like Format but appends to dst.
func AppendFormat(dst []byte, timestamp uint64, data []byte, opts contracts.FormatOptions) []byte {
	if opts.ShowTimestamp {
		dst = strconv.AppendUint(dst, timestamp, 10)
		dst = append(dst, ' ')
	}
	if opts.ShowSize {
		dst = strconv.AppendInt(dst, int64(len(data)), 10)
		dst = append(dst, ' ')
	}
	for i, b := range data {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return append(dst, '\n')
}
