// Command midihex lists MIDI ports, prints received MIDI messages as hex
// bytes and sends hex lines from stdin to a MIDI output port.
//
//	midihex ls
//	midihex r  <in_port_name> [--show-ts] [--show-size]
//	midihex w  <out_port_name>
//	midihex rw <in_port_name> <out_port_name> [--show-ts] [--show-size]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/midihex/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
