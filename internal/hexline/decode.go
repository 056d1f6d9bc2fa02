// Package hexline converts between MIDI byte sequences and the line-oriented
// hexadecimal text used on stdin and stdout.
package hexline

import (
	"errors"
	"strconv"
	"strings"

	"github.com/leandrodaf/midihex/sdk/contracts"
)

var errTokenWidth = errors.New("expected exactly two hex digits")

// Decode parses a line of whitespace separated two-digit hex tokens. A blank
// line decodes to an empty message. Decoding stops at the first bad token and
// no bytes are returned in that case.
func Decode(line string) ([]byte, error) {
	tokens := strings.Fields(line)
	data := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) != 2 {
			return nil, &contracts.ParseError{Token: tok, Err: errTokenWidth}
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				err = numErr.Err
			}
			return nil, &contracts.ParseError{Token: tok, Err: err}
		}
		data = append(data, byte(v))
	}
	return data, nil
}
