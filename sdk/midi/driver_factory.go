package midi

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/leandrodaf/midihex/internal/midi/mididarwin"
	"github.com/leandrodaf/midihex/internal/midi/midiloop"
	"github.com/leandrodaf/midihex/internal/midi/midiportmidi"
	"github.com/leandrodaf/midihex/internal/midi/midirtmidi"
	"github.com/leandrodaf/midihex/internal/midi/midiwindows"
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// driverInitializers maps driver names to their constructors. Constructors
// for drivers unavailable on the running platform return
// contracts.ErrUnsupportedDriver.
var driverInitializers = map[string]func(*contracts.ClientOptions) (contracts.Driver, error){
	"coremidi": mididarwin.NewDriver,   // macOS CoreMIDI.
	"winmm":    midiwindows.NewDriver,  // Windows multimedia API.
	"rtmidi":   midirtmidi.NewDriver,   // RtMidi through gomidi, needs cgo.
	"portmidi": midiportmidi.NewDriver, // PortMidi, needs the portmidi build tag.
	"loopback": midiloop.NewDriver,     // In-memory ports.
}

// platformDrivers maps OS names to the driver used when none is requested.
var platformDrivers = map[string]string{
	"darwin":  "coremidi",
	"windows": "winmm",
}

// DefaultDriver returns the driver name used when none is configured.
func DefaultDriver() string {
	if name, ok := platformDrivers[runtime.GOOS]; ok {
		return name
	}
	return "rtmidi"
}

// Drivers returns the registered driver names in sorted order.
func Drivers() []string {
	names := make([]string, 0, len(driverInitializers))
	for name := range driverInitializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newDriver initializes the driver named in opts.
func newDriver(opts *contracts.ClientOptions) (contracts.Driver, error) {
	initializer, exists := driverInitializers[opts.Driver]
	if !exists {
		return nil, fmt.Errorf("%w: %q (available: %v)", contracts.ErrUnknownDriver, opts.Driver, Drivers())
	}
	drv, err := initializer(opts)
	if err != nil {
		return nil, &contracts.SubsystemError{Op: "init " + opts.Driver, Err: err}
	}
	return drv, nil
}
