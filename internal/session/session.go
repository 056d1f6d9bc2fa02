// Package session runs one midihex command against a driver: listing ports,
// printing received messages and sending lines read from stdin.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/leandrodaf/midihex/internal/hexline"
	"github.com/leandrodaf/midihex/internal/logger"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/leandrodaf/midihex/sdk/ports"
	"go.uber.org/multierr"
)

// Session owns the connections opened for one command invocation.
type Session struct {
	id        string
	driver    contracts.Driver
	in        io.Reader
	out       io.Writer
	logger    contracts.Logger
	queueSize int
}

// New binds a driver to the given stdin and stdout.
func New(drv contracts.Driver, stdin io.Reader, stdout io.Writer, opts ...Option) *Session {
	s := &Session{
		driver:    drv,
		in:        stdin,
		out:       stdout,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewZapLogger()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = s.logger.With(
		s.logger.Field().String("session", s.id),
		s.logger.Field().String("driver", drv.Name()),
	)
	return s
}

// ID returns the session identifier attached to every log entry.
func (s *Session) ID() string { return s.id }

// List prints every input port, then every output port, numbered from one.
func (s *Session) List(ctx context.Context) error {
	ins, err := ports.List(s.driver, contracts.Input)
	if err != nil {
		return err
	}
	outs, err := ports.List(s.driver, contracts.Output)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(s.out)
	for i, p := range ins {
		fmt.Fprintf(w, "input #%d: %q\n", i+1, p.Name)
	}
	for i, p := range outs {
		fmt.Fprintf(w, "output #%d: %q\n", i+1, p.Name)
	}
	if err := w.Flush(); err != nil {
		return &contracts.IOError{Op: "write stdout", Err: err}
	}
	s.logger.Debug("ports listed",
		s.logger.Field().Int("inputs", len(ins)),
		s.logger.Field().Int("outputs", len(outs)))
	return nil
}

// Read prints every message received on the named input port until ctx is
// cancelled or stdout fails.
func (s *Session) Read(ctx context.Context, inName string, opts contracts.FormatOptions) error {
	port, err := ports.Find(s.driver, contracts.Input, inName)
	if err != nil {
		return err
	}
	l, err := s.listen(port, opts)
	if err != nil {
		return err
	}
	err = s.await(ctx, l)
	return multierr.Append(err, l.close())
}

// Write sends one message per stdin line to the named output port and
// returns at end of input or once ctx is cancelled, even while stdin is idle.
func (s *Session) Write(ctx context.Context, outName string) error {
	port, err := ports.Find(s.driver, contracts.Output, outName)
	if err != nil {
		return err
	}
	conn, err := s.driver.OpenOutput(port)
	if err != nil {
		return &contracts.SubsystemError{Op: "open output", Err: err}
	}
	_, err = s.pump(ctx, conn, nil)
	return multierr.Append(err, closeOutput(conn))
}

// ReadWrite prints messages from the input port while sending stdin lines to
// the output port. Once stdin is drained the output is closed and the input
// keeps printing until ctx is cancelled. A stdout failure ends it at any
// point.
func (s *Session) ReadWrite(ctx context.Context, inName, outName string, opts contracts.FormatOptions) error {
	inPort, err := ports.Find(s.driver, contracts.Input, inName)
	if err != nil {
		return err
	}
	outPort, err := ports.Find(s.driver, contracts.Output, outName)
	if err != nil {
		return err
	}

	l, err := s.listen(inPort, opts)
	if err != nil {
		return err
	}
	conn, err := s.driver.OpenOutput(outPort)
	if err != nil {
		return multierr.Append(&contracts.SubsystemError{Op: "open output", Err: err}, l.close())
	}

	stopped, err := s.pump(ctx, conn, l.printer.failed())
	if err = multierr.Append(err, closeOutput(conn)); err != nil || stopped {
		return multierr.Append(err, l.close())
	}
	s.logger.Info("stdin drained, output closed", s.logger.Field().String("port", outPort.Name))

	err = s.await(ctx, l)
	return multierr.Append(err, l.close())
}

// listener is an input connection feeding a printer.
type listener struct {
	conn    contracts.InputConnection
	printer *printer
}

func (s *Session) listen(port contracts.Port, opts contracts.FormatOptions) (*listener, error) {
	p := newPrinter(s.out, opts, s.queueSize, s.logger)
	conn, err := s.driver.OpenInput(port, p.handle)
	if err != nil {
		p.stop()
		return nil, &contracts.SubsystemError{Op: "open input", Err: err}
	}
	s.logger.Info("found port, listening",
		s.logger.Field().String("port", port.Name),
		s.logger.Field().Bool("show_ts", opts.ShowTimestamp),
		s.logger.Field().Bool("show_size", opts.ShowSize))
	return &listener{conn: conn, printer: p}, nil
}

// close detaches the input and flushes the printer. The printer is told to
// stop first so a callback blocked on a full queue can return.
func (l *listener) close() error {
	l.printer.shutdown()
	err := l.conn.Close()
	l.printer.wait()
	if err != nil {
		return &contracts.SubsystemError{Op: "close input", Err: err}
	}
	return nil
}

// await parks until ctx is done or the printer fails. Cancellation is the
// normal way for a reading command to end.
func (s *Session) await(ctx context.Context, l *listener) error {
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down", s.logger.Field().String("cause", context.Cause(ctx).Error()))
		return nil
	case err := <-l.printer.failed():
		return err
	}
}

// stdinLine is one line read from stdin, or the error that ended reading.
type stdinLine struct {
	text string
	err  error
}

// readLines reads r on its own goroutine so a blocked read cannot hold up
// cancellation. The channel is closed after EOF, a read error, or done.
func readLines(r io.Reader, done <-chan struct{}) <-chan stdinLine {
	lines := make(chan stdinLine)
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			text, err := br.ReadString('\n')
			if text == "" && err == io.EOF {
				return
			}
			select {
			case lines <- stdinLine{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// pump decodes stdin line by line and sends each message. The first bad
// line, failed send or printer failure stops it with an error. Cancelling
// ctx stops it early without one and reports true.
func (s *Session) pump(ctx context.Context, conn contracts.OutputConnection, failed <-chan error) (bool, error) {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(s.in, done)

	for lineNo := 1; ; lineNo++ {
		var (
			ln stdinLine
			ok bool
		)
		select {
		case <-ctx.Done():
			s.logger.Info("stdin abandoned", s.logger.Field().String("cause", context.Cause(ctx).Error()))
			return true, nil
		case err := <-failed:
			return false, err
		case ln, ok = <-lines:
		}
		if !ok {
			return false, nil
		}
		if ln.err != nil && ln.err != io.EOF {
			return false, &contracts.IOError{Op: "read stdin", Err: ln.err}
		}

		data, err := hexline.Decode(ln.text)
		if err != nil {
			return false, fmt.Errorf("stdin line %d: %w", lineNo, err)
		}
		if err := conn.Send(data); err != nil {
			return false, &contracts.SubsystemError{Op: "send", Err: err}
		}
		s.logger.Debug("MIDI message sent",
			s.logger.Field().Int("line", lineNo),
			s.logger.Field().Binary("data", data))
	}
}

func closeOutput(conn contracts.OutputConnection) error {
	if err := conn.Close(); err != nil {
		return &contracts.SubsystemError{Op: "close output", Err: err}
	}
	return nil
}
