package midi

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// NewDriver creates a MIDI driver with the specified options.
// It applies default options and initializes the driver.
//
// opts ...contracts.Option: A variadic list of option functions to customize the driver configuration.
//
// Returns:
//   - contracts.Driver: An open driver; the caller must Close it.
//   - error: An error, if any occurred during the creation of the driver.
func NewDriver(opts ...contracts.Option) (contracts.Driver, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	drv, err := newDriver(&options)
	if err != nil {
		return nil, err
	}

	options.Logger.Debug("MIDI driver initialized",
		options.Logger.Field().String("driver", drv.Name()),
		options.Logger.Field().String("client", options.ClientName))
	return drv, nil
}
