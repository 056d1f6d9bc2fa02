//go:build !windows
// +build !windows

package midiwindows

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// NewDriver reports that winmm is only available on Windows.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm driver requested on non-Windows system")
	return nil, contracts.ErrUnsupportedDriver
}
