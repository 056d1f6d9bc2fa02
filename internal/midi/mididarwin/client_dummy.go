//go:build !darwin
// +build !darwin

package mididarwin

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// NewDriver reports that CoreMIDI is only available on macOS.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI driver requested on non-macOS system")
	return nil, contracts.ErrUnsupportedDriver
}
