//go:build !portmidi
// +build !portmidi

package midiportmidi

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// NewDriver reports that the binary was built without the portmidi tag.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("PortMidi driver requires the portmidi build tag")
	return nil, contracts.ErrUnsupportedDriver
}
