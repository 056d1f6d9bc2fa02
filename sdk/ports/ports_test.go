package ports

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midihex/sdk/contracts"
)

type stubDriver struct {
	contracts.Driver
	ports map[contracts.Direction][]string
	err   error
	calls int
}

func (s *stubDriver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var ports []contracts.Port
	for i, n := range s.ports[dir] {
		ports = append(ports, contracts.Port{Number: i, Name: n, Direction: dir})
	}
	return ports, nil
}

func TestFindExactMatch(t *testing.T) {
	drv := &stubDriver{ports: map[contracts.Direction][]string{
		contracts.Input:  {"IAC Bus 1", "microKORG", "microKORG"},
		contracts.Output: {"Synth Out"},
	}}

	p, err := Find(drv, contracts.Input, "microKORG")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.Number != 1 || p.Direction != contracts.Input {
		t.Errorf("Find returned %v, want first match", p)
	}

	for _, name := range []string{"microkorg", "micro", "IAC Bus", "Synth Out", ""} {
		_, err := Find(drv, contracts.Input, name)
		var nf *contracts.PortNotFoundError
		if !errors.As(err, &nf) || !errors.Is(err, contracts.ErrPortNotFound) {
			t.Errorf("Find(%q) error = %v, want PortNotFoundError", name, err)
			continue
		}
		if nf.Name != name {
			t.Errorf("PortNotFoundError.Name = %q, want %q", nf.Name, name)
		}
	}
	if drv.calls != 6 {
		t.Errorf("ports enumerated %d times, want one per lookup", drv.calls)
	}
}

func TestFindEnumerationFailure(t *testing.T) {
	boom := errors.New("MIDIClientCreate failed")
	drv := &stubDriver{err: boom}

	_, err := Find(drv, contracts.Output, "x")
	var se *contracts.SubsystemError
	if !errors.As(err, &se) || !errors.Is(err, boom) {
		t.Fatalf("Find error = %v, want SubsystemError wrapping cause", err)
	}
}

func TestListKeepsDriverOrder(t *testing.T) {
	drv := &stubDriver{ports: map[contracts.Direction][]string{
		contracts.Output: {"b", "a", "c"},
	}}
	got, err := List(drv, contracts.Output)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].Name != "b" || got[2].Name != "c" {
		t.Errorf("List = %v", got)
	}
	if in, _ := List(drv, contracts.Input); len(in) != 0 {
		t.Errorf("List(Input) = %v, want none", in)
	}
}
