//go:build !cgo
// +build !cgo

package midirtmidi

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// NewDriver reports that RtMidi needs a cgo build.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("RtMidi driver requires cgo")
	return nil, contracts.ErrUnsupportedDriver
}
