// Package ports resolves human-readable port names against a driver.
package ports

import (
	"github.com/leandrodaf/midihex/sdk/contracts"
)

// List enumerates the ports of one direction in driver order.
func List(drv contracts.Driver, dir contracts.Direction) ([]contracts.Port, error) {
	ports, err := drv.Ports(dir)
	if err != nil {
		return nil, &contracts.SubsystemError{Op: "enumerate " + dir.String() + " ports", Err: err}
	}
	return ports, nil
}

// Find returns the first port whose name equals name exactly. Matching is
// case-sensitive and never partial. Ports are enumerated on every call.
func Find(drv contracts.Driver, dir contracts.Direction, name string) (contracts.Port, error) {
	ports, err := List(drv, dir)
	if err != nil {
		return contracts.Port{}, err
	}
	for _, p := range ports {
		if p.Name == name {
			return p, nil
		}
	}
	return contracts.Port{}, &contracts.PortNotFoundError{Name: name, Direction: dir}
}
