package gifmux

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"testing"
)

// Test-side reader for the multiplexed stream. It is kept separate from the
// scratch reader so the output is not checked with the code that produced it.

type streamFrame struct {
	gceFlags    byte
	delay       uint16
	transparent byte

	left, top     uint16
	width, height uint16
	imageFlags    byte
	localTable    []byte

	litWidth  byte
	subBlocks []int
}

type stream struct {
	width, height uint16
	screenFlags   byte
	globalTable   []byte

	loopBlocks int
	loopCount  int

	frames  []streamFrame
	trailer bool
}

type cursor struct {
	t    *testing.T
	data []byte
	off  int
}

func (c *cursor) take(n int) []byte {
	c.t.Helper()
	if len(c.data)-c.off < n {
		c.t.Fatalf("stream truncated at %d, need %d bytes", c.off, n)
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() byte    { return c.take(1)[0] }
func (c *cursor) u16() uint16 { b := c.take(2); return uint16(b[0]) | uint16(b[1])<<8 }

func readStream(t *testing.T, data []byte) stream {
	t.Helper()
	c := &cursor{t: t, data: data}
	var s stream
	s.loopCount = -1

	if sig := string(c.take(6)); sig != "GIF89a" {
		t.Fatalf("expected GIF89a signature, got %q", sig)
	}
	s.width = c.u16()
	s.height = c.u16()
	s.screenFlags = c.u8()
	c.take(2)
	if s.screenFlags&0x80 != 0 {
		s.globalTable = c.take(3 * (1 << ((s.screenFlags & 7) + 1)))
	}

	var pending streamFrame
	for c.off < len(data) {
		switch c.u8() {
		case 0x21:
			switch label := c.u8(); label {
			case 0xF9:
				if size := c.u8(); size != 4 {
					t.Fatalf("graphic control block size %d", size)
				}
				pending.gceFlags = c.u8()
				pending.delay = c.u16()
				pending.transparent = c.u8()
				if term := c.u8(); term != 0 {
					t.Fatalf("graphic control terminator 0x%02x", term)
				}
			case 0xFF:
				if size := c.u8(); size != 11 {
					t.Fatalf("application block size %d", size)
				}
				if id := string(c.take(11)); id != "NETSCAPE2.0" {
					t.Fatalf("unexpected application %q", id)
				}
				if n := c.u8(); n != 3 {
					t.Fatalf("loop sub-block size %d", n)
				}
				c.u8()
				s.loopCount = int(c.u16())
				if term := c.u8(); term != 0 {
					t.Fatalf("application terminator 0x%02x", term)
				}
				s.loopBlocks++
			default:
				t.Fatalf("unexpected extension 0x%02x", label)
			}
		case 0x2C:
			f := pending
			pending = streamFrame{}
			f.left = c.u16()
			f.top = c.u16()
			f.width = c.u16()
			f.height = c.u16()
			f.imageFlags = c.u8()
			if f.imageFlags&0x80 != 0 {
				f.localTable = c.take(3 * (1 << ((f.imageFlags & 7) + 1)))
			}
			f.litWidth = c.u8()
			for {
				n := int(c.u8())
				if n == 0 {
					break
				}
				c.take(n)
				f.subBlocks = append(f.subBlocks, n)
			}
			s.frames = append(s.frames, f)
		case 0x3B:
			s.trailer = true
			if c.off != len(data) {
				t.Fatalf("%d bytes after trailer", len(data)-c.off)
			}
		default:
			t.Fatalf("unexpected block 0x%02x at %d", data[c.off-1], c.off-1)
		}
	}
	return s
}

func solidFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i+0] = uint8(r >> 8)
		img.Pix[i+1] = uint8(g >> 8)
		img.Pix[i+2] = uint8(b >> 8)
		img.Pix[i+3] = uint8(a >> 8)
	}
	return img
}

// palettedFrame fills a frame with index 0 of the given palette.
func palettedFrame(w, h int, colors ...color.Color) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), color.Palette(colors))
}

func gradientFrame(w, h, shift int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + shift) * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8(shift * 40),
				A: 0xff,
			})
		}
	}
	return img
}

type sinkStats struct {
	bytes.Buffer
	writes int
	closed int

	failAfter int // fail writes once this many bytes were accepted, 0 = never
	failErr   error
	short     bool
	closeErr  error
}

func (s *sinkStats) Write(p []byte) (int, error) {
	s.writes++
	if s.short {
		n, _ := s.Buffer.Write(p[:len(p)/2])
		return n, nil
	}
	if s.failAfter > 0 && s.Len()+len(p) > s.failAfter {
		n := s.failAfter - s.Len()
		s.Buffer.Write(p[:n])
		return n, s.failErr
	}
	return s.Buffer.Write(p)
}

func (s *sinkStats) Close() error {
	s.closed++
	return s.closeErr
}

var _ io.WriteCloser = (*sinkStats)(nil)

var errDiskFull = errors.New("disk full")

// stdEncoder writes scratches with image/gif, keeping the frame's own palette.
var stdEncoder = FrameEncoderFunc(func(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, nil)
})
