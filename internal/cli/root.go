// Package cli wires the midihex commands to cobra.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/leandrodaf/midihex/internal/logger"
	"github.com/leandrodaf/midihex/internal/session"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/leandrodaf/midihex/sdk/midi"
	"github.com/spf13/cobra"
)

// globalFlags holds the flags shared by every subcommand.
type globalFlags struct {
	driver        string
	clientName    string
	logLevel      string
	logFile       string
	queueSize     int
	loopbackPorts []string
}

// app carries the process streams into the subcommands.
type app struct {
	flags  globalFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the command tree bound to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "midihex",
		Short: "List MIDI ports and shuttle MIDI bytes as hex text over stdin/stdout",
		Long: "midihex lists MIDI ports, prints incoming messages as hexadecimal bytes,\n" +
			"and sends hexadecimal lines read from stdin to an output port.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.driver, "driver", midi.DefaultDriver(), "MIDI driver ("+strings.Join(midi.Drivers(), ", ")+")")
	pf.StringVar(&a.flags.clientName, "client-name", midi.DefaultClientName, "client name announced to the MIDI subsystem")
	pf.StringVar(&a.flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.IntVar(&a.flags.queueSize, "queue-size", session.DefaultQueueSize, "received messages buffered ahead of stdout")
	pf.StringArrayVar(&a.flags.loopbackPorts, "loopback-port", nil, "port name exposed by the loopback driver (repeatable)")

	root.AddCommand(
		a.listCommand(),
		a.readCommand(),
		a.writeCommand(),
		a.readWriteCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// run opens the driver, hands a session to fn and releases the driver.
func (a *app) run(ctx context.Context, fn func(context.Context, *session.Session) error) (err error) {
	level, err := contracts.ParseLogLevel(a.flags.logLevel)
	if err != nil {
		return err
	}
	log := logger.NewZapLoggerTo(a.stderr)
	defer log.Sync()

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithDriver(a.flags.driver),
		contracts.WithClientName(a.flags.clientName),
		contracts.WithLoopbackPorts(a.flags.loopbackPorts...),
	}
	if a.flags.logFile != "" {
		opts = append(opts, contracts.WithLogFile(a.flags.logFile))
	}

	drv, err := midi.NewDriver(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil && err == nil {
			err = &contracts.SubsystemError{Op: "close driver", Err: cerr}
		}
	}()

	s := session.New(drv, a.stdin, a.stdout,
		session.WithLogger(log),
		session.WithQueueSize(a.flags.queueSize))
	return fn(ctx, s)
}
