package contracts

// ClientOptions defines the configuration used to build a driver.
type ClientOptions struct {
	Logger        Logger   // Logger for logging events and errors.
	LogLevel      LogLevel // Level of logging to use.
	LogFilePath   string   // File path for logging if file logging is enabled.
	Driver        string   // Registry name of the driver; empty selects the platform default.
	ClientName    string   // Name announced to the native subsystem.
	LoopbackPorts []string // Port names exposed by the loopback driver.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the driver.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to the given file instead of stderr.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithDriver selects a driver by registry name.
func WithDriver(name string) Option {
	return func(opts *ClientOptions) {
		opts.Driver = name
	}
}

// WithClientName sets the client name announced to the native subsystem.
func WithClientName(name string) Option {
	return func(opts *ClientOptions) {
		opts.ClientName = name
	}
}

// WithLoopbackPorts sets the port names of the loopback driver.
func WithLoopbackPorts(names ...string) Option {
	return func(opts *ClientOptions) {
		opts.LoopbackPorts = append([]string(nil), names...)
	}
}
