package midi

import (
	"fmt"

	"github.com/leandrodaf/midihex/internal/logger"
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// DefaultClientName is announced to the native subsystem when none is set.
const DefaultClientName = "midihex"

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if the log destination could not be applied.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientName == "" {
		options.ClientName = DefaultClientName
	}
	if options.Driver == "" {
		options.Driver = DefaultDriver()
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return *options, fmt.Errorf("configure logger: %w", err)
		}
	}
	return *options, nil
}
