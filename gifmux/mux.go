// Package gifmux assembles an animated GIF89a stream one frame at a time.
//
// Every frame is first encoded on its own as a standalone single-image GIF
// (the scratch encoding). The scratch is parsed and its color table, graphic
// control fields and LZW sub-blocks are moved into the output stream, so the
// multiplexer never holds more than the frame it is currently writing.
//
// Output layout:
//
//	"GIF89a" | screen descriptor | 768-byte global table | [NETSCAPE2.0 loop]
//	{ graphic control | image descriptor | [768-byte local table] | LZW } ...
//	0x3B
//
// The first frame uses the global table, every later frame carries its own
// local table.
package gifmux

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
)

const netscapeID = "NETSCAPE2.0"

type Option func(*Multiplexer) error

// WithSize fixes the logical screen size. Zero means the size of the
// first frame.
func WithSize(width, height int) Option {
	return func(m *Multiplexer) error {
		if width < 0 || height < 0 || width > 0xFFFF || height > 0xFFFF {
			return invalidf("screen size %dx%d", width, height)
		}
		m.width, m.height = width, height
		return nil
	}
}

// WithEncoder replaces the single-frame encoder used for scratch encodings.
func WithEncoder(enc FrameEncoder) Option {
	return func(m *Multiplexer) error {
		if enc == nil {
			return invalidf("nil frame encoder")
		}
		m.enc = enc
		return nil
	}
}

// Multiplexer writes frames into an animated GIF stream.
//
// All methods are safe for concurrent use. Frames are written in the order
// the calls acquire the multiplexer, which is not necessarily capture order;
// callers that care about ordering must submit frames from one goroutine.
type Multiplexer struct {
	mu sync.Mutex

	w   io.Writer
	enc FrameEncoder

	frameDelay int // milliseconds
	repeat     int
	width      int
	height     int

	firstFrame bool
	closed     bool
	err        error // sticky sink failure

	frames  int
	written int64

	scratch bytes.Buffer
	img     scratchImage
	out     []byte
}

// New creates a multiplexer writing to w. frameDelay is the default delay
// between frames in milliseconds and must be positive. repeat is -1 for no
// looping, 0 to loop forever, or the number of extra plays.
//
// If w implements io.Closer, it is closed by Close.
func New(w io.Writer, frameDelay, repeat int, opts ...Option) (*Multiplexer, error) {
	if w == nil {
		return nil, invalidf("nil output sink")
	}
	if frameDelay <= 0 {
		return nil, invalidf("frame delay must be positive, got %d", frameDelay)
	}
	if repeat < -1 || repeat > 0xFFFF {
		return nil, invalidf("repeat must be -1 or in [0, 65535], got %d", repeat)
	}

	m := &Multiplexer{
		w:          w,
		enc:        NewEncoder(),
		frameDelay: frameDelay,
		repeat:     repeat,
		firstFrame: true,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteFrame appends img to the stream. delay overrides the default frame
// delay (milliseconds) when it is not zero.
//
// The whole encode-and-emit sequence runs under the multiplexer lock. If the
// sink fails, an *IOError is returned and every later call returns it too.
func (m *Multiplexer) WriteFrame(img image.Image, delay int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosedStream
	}
	if m.err != nil {
		return m.err
	}
	if img == nil {
		return invalidf("nil frame")
	}
	if delay < 0 {
		return invalidf("negative frame delay %d", delay)
	}
	if delay == 0 {
		delay = m.frameDelay
	}

	m.scratch.Reset()
	if err := m.enc.EncodeFrame(&m.scratch, img); err != nil {
		return fmt.Errorf("gifmux: encode frame: %w", err)
	}
	if err := parseScratch(m.scratch.Bytes(), &m.img); err != nil {
		return err
	}

	out := m.out[:0]
	if m.firstFrame {
		out = m.appendHeader(out)
	}
	out = m.appendGraphicControl(out, delay)
	out = m.appendImageBlock(out, !m.firstFrame)
	m.out = out

	if err := m.emit("write frame"); err != nil {
		return err
	}

	m.firstFrame = false
	m.frames++
	return nil
}

// Close writes the GIF trailer and closes the sink. Both happen exactly once,
// in that order. Calling Close again returns ErrClosedStream.
//
// Once a write has returned an *IOError the output is unusable: the trailer
// is not written and Close only releases the sink.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosedStream
	}
	m.closed = true

	var errs []error
	if m.err == nil {
		m.out = append(m.out[:0], sTrailer)
		if err := m.emit("write trailer"); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := m.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, &IOError{Op: "close", Err: err})
		}
	}

	m.scratch = bytes.Buffer{}
	m.img = scratchImage{}
	m.out = nil
	return errors.Join(errs...)
}

// Frames returns the number of frames written so far.
func (m *Multiplexer) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// BytesWritten returns the number of bytes accepted by the sink.
func (m *Multiplexer) BytesWritten() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// Size returns the logical screen size. It is zero until the first frame is
// written unless WithSize was given.
func (m *Multiplexer) Size() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *Multiplexer) emit(op string) error {
	n, err := m.w.Write(m.out)
	m.written += int64(n)
	if err == nil && n < len(m.out) {
		err = io.ErrShortWrite
	}
	if err != nil {
		m.err = &IOError{Op: op, Err: err}
		return m.err
	}
	return nil
}

func (m *Multiplexer) appendHeader(b []byte) []byte {
	s := &m.img
	if m.width == 0 {
		m.width = int(s.width)
	}
	if m.height == 0 {
		m.height = int(s.height)
	}

	b = append(b, "GIF89a"...)
	b = binary.LittleEndian.AppendUint16(b, uint16(m.width))
	b = binary.LittleEndian.AppendUint16(b, uint16(m.height))

	// Keep color resolution and sort bits, the table is always 256 entries.
	b = append(b, s.screenFlags|fColorTable|fColorTableBitsMask)
	b = append(b, 0x00) // background color index
	b = append(b, 0x00) // pixel aspect ratio
	b = append(b, s.palette[:]...)

	if m.repeat == -1 {
		return b
	}
	b = append(b, sExtension, eApplication, byte(len(netscapeID)))
	b = append(b, netscapeID...)
	b = append(b, 0x03) // sub-block size
	b = append(b, 0x01) // loop sub-block id
	b = binary.LittleEndian.AppendUint16(b, uint16(m.repeat))
	b = append(b, 0x00) // block terminator
	return b
}

func (m *Multiplexer) appendGraphicControl(b []byte, delay int) []byte {
	cs := delay / 10
	if cs > 0xFFFF {
		cs = 0xFFFF
	}
	b = append(b, sExtension, eGraphicControl, 0x04)
	b = append(b, m.img.gce.flags|fDisposalReplace)
	b = binary.LittleEndian.AppendUint16(b, uint16(cs))
	b = append(b, m.img.gce.transparent)
	b = append(b, 0x00) // block terminator
	return b
}

func (m *Multiplexer) appendImageBlock(b []byte, localTable bool) []byte {
	s := &m.img
	b = append(b, sImageDescriptor)
	b = binary.LittleEndian.AppendUint16(b, 0) // left
	b = binary.LittleEndian.AppendUint16(b, 0) // top
	b = binary.LittleEndian.AppendUint16(b, s.width)
	b = binary.LittleEndian.AppendUint16(b, s.height)

	flags := s.imageFlags&fInterlace | fColorTableBitsMask
	if localTable {
		b = append(b, flags|fColorTable)
		b = append(b, s.palette[:]...)
	} else {
		b = append(b, flags)
	}

	b = append(b, s.litWidth)
	for _, block := range s.blocks {
		b = append(b, byte(len(block)))
		b = append(b, block...)
	}
	return append(b, 0x00)
}
