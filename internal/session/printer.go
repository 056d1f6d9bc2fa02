package session

import (
	"io"
	"sync"

	"github.com/leandrodaf/midihex/internal/hexline"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// printer decouples driver callbacks from stdout. The callback enqueues a
// copy of the message; one goroutine formats and writes each line.
type printer struct {
	out    io.Writer
	opts   contracts.FormatOptions
	logger contracts.Logger

	queue chan contracts.Message
	done  chan struct{}
	errc  chan error
	wg    sync.WaitGroup
	once  sync.Once
}

func newPrinter(out io.Writer, opts contracts.FormatOptions, size int, log contracts.Logger) *printer {
	p := &printer{
		out:    out,
		opts:   opts,
		logger: log,
		queue:  make(chan contracts.Message, size),
		done:   make(chan struct{}),
		errc:   make(chan error, 1),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// handle is the contracts.MessageHandler given to the driver. It blocks while
// the queue is full and drops messages once the printer is stopping or has
// failed.
func (p *printer) handle(msg contracts.Message) {
	msg.Data = append([]byte(nil), msg.Data...)
	select {
	case p.queue <- msg:
	case <-p.done:
	}
}

func (p *printer) run() {
	defer p.wg.Done()
	var line []byte
	for {
		select {
		case <-p.done:
			p.drain(line)
			return
		case msg := <-p.queue:
			var err error
			if line, err = p.write(line, msg); err != nil {
				p.errc <- err
				p.shutdown()
				return
			}
		}
	}
}

// drain writes whatever is already queued when the printer stops.
func (p *printer) drain(line []byte) {
	for {
		select {
		case msg := <-p.queue:
			var err error
			if line, err = p.write(line, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (p *printer) write(line []byte, msg contracts.Message) ([]byte, error) {
	if len(msg.Data) > 0 {
		p.logger.Debug("MIDI message received",
			p.logger.Field().Uint64("timestamp", msg.Timestamp),
			p.logger.Field().Int("size", len(msg.Data)),
			p.logger.Field().Stringer("message", midi.Message(msg.Data)))
	}
	line = hexline.AppendFormat(line[:0], msg.Timestamp, msg.Data, p.opts)
	if _, err := p.out.Write(line); err != nil {
		return line, &contracts.IOError{Op: "write stdout", Err: err}
	}
	return line, nil
}

// failed delivers the first write error. It is sent at most once.
func (p *printer) failed() <-chan error {
	return p.errc
}

// shutdown asks the printer goroutine to flush what is queued and exit.
func (p *printer) shutdown() {
	p.once.Do(func() { close(p.done) })
}

// wait blocks until the printer goroutine has exited.
func (p *printer) wait() {
	p.wg.Wait()
}

func (p *printer) stop() {
	p.shutdown()
	p.wait()
}
