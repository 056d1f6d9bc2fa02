package midi

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midihex/internal/logger"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/leandrodaf/midihex/sdk/ports"
	"go.uber.org/zap"
)

func withTestLogger() contracts.Option {
	return contracts.WithLogger(logger.NewFromZap(zap.NewNop()))
}

func TestNewDriverLoopback(t *testing.T) {
	drv, err := NewDriver(
		withTestLogger(),
		contracts.WithDriver("loopback"),
		contracts.WithLoopbackPorts("one", "two"),
	)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	defer drv.Close()

	if drv.Name() != "loopback" {
		t.Errorf("driver name = %q", drv.Name())
	}
	p, err := ports.Find(drv, contracts.Output, "two")
	if err != nil || p.Number != 1 {
		t.Fatalf("Find = %v, %v", p, err)
	}
}

func TestNewDriverUnknown(t *testing.T) {
	_, err := NewDriver(withTestLogger(), contracts.WithDriver("jack"))
	if !errors.Is(err, contracts.ErrUnknownDriver) {
		t.Fatalf("NewDriver error = %v, want ErrUnknownDriver", err)
	}
}

func TestNewDriverUnsupported(t *testing.T) {
	// One of the two platform drivers is always a stub.
	var unsupported int
	for _, name := range []string{"coremidi", "winmm"} {
		drv, err := NewDriver(withTestLogger(), contracts.WithDriver(name))
		if err == nil {
			drv.Close()
			continue
		}
		var se *contracts.SubsystemError
		if errors.Is(err, contracts.ErrUnsupportedDriver) && errors.As(err, &se) {
			unsupported++
		}
	}
	if unsupported == 0 {
		t.Error("expected at least one unsupported platform driver")
	}
}

func TestApplyDefaultOptions(t *testing.T) {
	opts, err := applyDefaultOptions(withTestLogger())
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if opts.ClientName != DefaultClientName || opts.Driver != DefaultDriver() {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	found := false
	for _, name := range Drivers() {
		if name == opts.Driver {
			found = true
		}
	}
	if !found {
		t.Errorf("default driver %q not registered", opts.Driver)
	}
}
