//go:build windows
// +build windows

package midiwindows

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/midihex/internal/midi/wire"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback, used for output devices
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const (
	mmsyserrNoError     = 0
	midierrStillPlaying = 65
	mhdrDone            = 0x00000001
	sysexBufferSize     = 4096
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors MIDIHDR, used for SysEx transfers.
type midiHdr struct {
	lpData          *byte
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          *midiHdr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                     = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs      = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps      = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen            = winmm.NewProc("midiInOpen")
	procMidiInStart           = winmm.NewProc("midiInStart")
	procMidiInStop            = winmm.NewProc("midiInStop")
	procMidiInReset           = winmm.NewProc("midiInReset")
	procMidiInClose           = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader   = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHeader = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer       = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs     = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps     = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen           = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg       = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg        = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader  = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHdr   = winmm.NewProc("midiOutUnprepareHeader")
	procMidiOutClose          = winmm.NewProc("midiOutClose")
)

// callback is shared by every input handle; winmm passes the connection id
// back as dwInstance.
var (
	callbackOnce sync.Once
	callback     uintptr
	nextConnID   atomic.Uintptr
	inputs       sync.Map // uintptr -> *inputConn
)

// Driver talks to the Windows multimedia MIDI API.
type Driver struct {
	logger contracts.Logger

	mu    sync.Mutex
	conns map[*inputConn]struct{}
}

// NewDriver creates a winmm driver.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	if err := winmm.Load(); err != nil {
		return nil, fmt.Errorf("load winmm.dll: %w", err)
	}
	options.Logger.Debug("winmm driver created")
	return &Driver{
		logger: options.Logger,
		conns:  make(map[*inputConn]struct{}),
	}, nil
}

func (d *Driver) Name() string { return "winmm" }

// Ports lists the device names reported by midiIn/midiOut GetDevCaps.
func (d *Driver) Ports(dir contracts.Direction) ([]contracts.Port, error) {
	names, err := deviceNames(dir)
	if err != nil {
		return nil, err
	}
	ports := make([]contracts.Port, len(names))
	for i, n := range names {
		ports[i] = contracts.Port{Number: i, Name: n, Direction: dir}
	}
	return ports, nil
}

func deviceNames(dir contracts.Direction) ([]string, error) {
	switch dir {
	case contracts.Input:
		r0, _, _ := procMidiInGetNumDevs.Call()
		names := make([]string, 0, uint32(r0))
		for i := uint32(0); i < uint32(r0); i++ {
			var caps midiInCaps
			r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
			if r1 != mmsyserrNoError {
				return nil, fmt.Errorf("midiInGetDevCaps(%d) failed: %d", i, r1)
			}
			names = append(names, windows.UTF16ToString(caps.szPname[:]))
		}
		return names, nil
	case contracts.Output:
		r0, _, _ := procMidiOutGetNumDevs.Call()
		names := make([]string, 0, uint32(r0))
		for i := uint32(0); i < uint32(r0); i++ {
			var caps midiOutCaps
			r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
			if r1 != mmsyserrNoError {
				return nil, fmt.Errorf("midiOutGetDevCaps(%d) failed: %d", i, r1)
			}
			names = append(names, windows.UTF16ToString(caps.szPname[:]))
		}
		return names, nil
	}
	return nil, fmt.Errorf("unknown direction %v", dir)
}

func checkPort(port contracts.Port) error {
	names, err := deviceNames(port.Direction)
	if err != nil {
		return err
	}
	if port.Number < 0 || port.Number >= len(names) || names[port.Number] != port.Name {
		return &contracts.PortNotFoundError{Name: port.Name, Direction: port.Direction}
	}
	return nil
}

// OpenInput opens the device, queues a SysEx buffer and starts capture.
func (d *Driver) OpenInput(port contracts.Port, handler contracts.MessageHandler) (contracts.InputConnection, error) {
	if err := checkPort(port); err != nil {
		return nil, err
	}
	callbackOnce.Do(func() { callback = windows.NewCallback(midiInCallback) })

	c := &inputConn{
		driver:  d,
		port:    port,
		handler: handler,
		id:      nextConnID.Add(1),
		buf:     make([]byte, sysexBufferSize),
	}
	inputs.Store(c.id, c)

	r1, _, _ := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(port.Number),
		callback,
		c.id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != mmsyserrNoError {
		inputs.Delete(c.id)
		return nil, fmt.Errorf("midiInOpen(%d) failed: %d", port.Number, r1)
	}

	c.hdr = midiHdr{lpData: &c.buf[0], dwBufferLength: uint32(len(c.buf))}
	if err := c.queueBuffer(true); err != nil {
		procMidiInClose.Call(uintptr(c.handle))
		inputs.Delete(c.id)
		return nil, err
	}

	r1, _, _ = procMidiInStart.Call(uintptr(c.handle))
	if r1 != mmsyserrNoError {
		c.release()
		return nil, fmt.Errorf("midiInStart failed: %d", r1)
	}

	d.mu.Lock()
	d.conns[c] = struct{}{}
	d.mu.Unlock()
	d.logger.Info("MIDI input started", d.logger.Field().String("port", port.Name))
	return c, nil
}

// OpenOutput opens the output device without a callback.
func (d *Driver) OpenOutput(port contracts.Port) (contracts.OutputConnection, error) {
	if err := checkPort(port); err != nil {
		return nil, err
	}
	c := &outputConn{port: port}
	r1, _, _ := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(port.Number),
		0,
		0,
		CALLBACK_NULL,
	)
	if r1 != mmsyserrNoError {
		return nil, fmt.Errorf("midiOutOpen(%d) failed: %d", port.Number, r1)
	}
	d.logger.Info("MIDI output opened", d.logger.Field().String("port", port.Name))
	return c, nil
}

// Close stops and closes every input still open.
func (d *Driver) Close() error {
	d.mu.Lock()
	conns := d.conns
	d.conns = make(map[*inputConn]struct{})
	d.mu.Unlock()

	var firstErr error
	for c := range conns {
		if err := c.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	v, ok := inputs.Load(dwInstance)
	if !ok {
		return 0
	}
	c := v.(*inputConn)

	switch wMsg {
	case MIM_OPEN:
		c.driver.logger.Debug("MIDI device opened", c.driver.logger.Field().String("port", c.port.Name))
	case MIM_CLOSE:
		c.driver.logger.Debug("MIDI device closed", c.driver.logger.Field().String("port", c.port.Name))
	case MIM_DATA, MIM_MOREDATA:
		// dwParam1 packs the message, dwParam2 is milliseconds since midiInStart.
		if data := wire.Unpack(uint32(dwParam1)); data != nil {
			c.handler(contracts.Message{Timestamp: uint64(uint32(dwParam2)), Data: data})
		}
	case MIM_LONGDATA:
		n := c.hdr.dwBytesRecorded
		if n > 0 && !c.closing.Load() {
			data := append([]byte(nil), c.buf[:n]...)
			c.handler(contracts.Message{Timestamp: uint64(uint32(dwParam2)), Data: data})
		}
		if !c.closing.Load() {
			if err := c.queueBuffer(false); err != nil {
				c.driver.logger.Error("Failed to requeue SysEx buffer", c.driver.logger.Field().Error("error", err))
			}
		}
	case MIM_ERROR, MIM_LONGERROR:
		c.driver.logger.Warn("MIDI input error",
			c.driver.logger.Field().String("port", c.port.Name),
			c.driver.logger.Field().Int64("msg", int64(wMsg)))
	}
	return 0
}

type inputConn struct {
	driver  *Driver
	port    contracts.Port
	handler contracts.MessageHandler
	id      uintptr
	handle  HMIDIIN
	buf     []byte
	hdr     midiHdr
	closing atomic.Bool
	once    sync.Once
	err     error
}

func (c *inputConn) Port() contracts.Port { return c.port }

func (c *inputConn) queueBuffer(prepare bool) error {
	if prepare {
		r1, _, _ := procMidiInPrepareHeader.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&c.hdr)), unsafe.Sizeof(c.hdr))
		if r1 != mmsyserrNoError {
			return fmt.Errorf("midiInPrepareHeader failed: %d", r1)
		}
	}
	c.hdr.dwBytesRecorded = 0
	r1, _, _ := procMidiInAddBuffer.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&c.hdr)), unsafe.Sizeof(c.hdr))
	if r1 != mmsyserrNoError {
		return fmt.Errorf("midiInAddBuffer failed: %d", r1)
	}
	return nil
}

// release stops capture, returns the SysEx buffer and closes the handle.
func (c *inputConn) release() error {
	c.once.Do(func() {
		c.closing.Store(true)
		procMidiInStop.Call(uintptr(c.handle))
		procMidiInReset.Call(uintptr(c.handle))
		procMidiInUnprepareHeader.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&c.hdr)), unsafe.Sizeof(c.hdr))
		if r1, _, _ := procMidiInClose.Call(uintptr(c.handle)); r1 != mmsyserrNoError {
			c.err = fmt.Errorf("midiInClose failed: %d", r1)
		}
		inputs.Delete(c.id)
	})
	return c.err
}

func (c *inputConn) Close() error {
	c.driver.mu.Lock()
	delete(c.driver.conns, c)
	c.driver.mu.Unlock()
	return c.release()
}

type outputConn struct {
	port   contracts.Port
	handle HMIDIOUT

	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Port() contracts.Port { return c.port }

// Send uses midiOutShortMsg for channel and system messages and
// midiOutLongMsg for everything else.
func (c *outputConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return contracts.ErrConnectionClosed
	}
	if len(data) == 0 {
		return nil
	}
	if wire.IsShort(data) {
		r1, _, _ := procMidiOutShortMsg.Call(uintptr(c.handle), uintptr(wire.Pack(data)))
		if r1 != mmsyserrNoError {
			return fmt.Errorf("midiOutShortMsg failed: %d", r1)
		}
		return nil
	}
	return c.sendLong(data)
}

func (c *outputConn) sendLong(data []byte) error {
	buf := append([]byte(nil), data...)
	hdr := midiHdr{lpData: &buf[0], dwBufferLength: uint32(len(buf))}
	r1, _, _ := procMidiOutPrepareHeader.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
	if r1 != mmsyserrNoError {
		return fmt.Errorf("midiOutPrepareHeader failed: %d", r1)
	}
	r1, _, _ = procMidiOutLongMsg.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
	if r1 != mmsyserrNoError {
		procMidiOutUnprepareHdr.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
		return fmt.Errorf("midiOutLongMsg failed: %d", r1)
	}
	for {
		r1, _, _ = procMidiOutUnprepareHdr.Call(uintptr(c.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
		if r1 != midierrStillPlaying {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if r1 != mmsyserrNoError {
		return fmt.Errorf("midiOutUnprepareHeader failed: %d", r1)
	}
	return nil
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if r1, _, _ := procMidiOutClose.Call(uintptr(c.handle)); r1 != mmsyserrNoError {
		return fmt.Errorf("midiOutClose failed: %d", r1)
	}
	return nil
}
