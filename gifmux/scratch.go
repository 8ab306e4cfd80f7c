package gifmux

// Section indicators, extension labels and packed-field masks of GIF89a.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B

	eGraphicControl = 0xF9
	eApplication    = 0xFF

	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7

	// Disposal bit forced on every frame so each frame replaces the last one.
	fDisposalReplace = 1 << 3

	colorTableLen = 3 * 256
)

type graphicControl struct {
	present     bool
	flags       byte
	transparent byte
}

// scratchImage is the structured form of one standalone single-image GIF.
// blocks alias the buffer the image was parsed from.
type scratchImage struct {
	screenFlags byte
	palette     [colorTableLen]byte

	gce graphicControl

	left, top     uint16
	width, height uint16
	imageFlags    byte

	litWidth byte
	blocks   [][]byte
}

type scratchReader struct {
	buf []byte
	off int
}

func (r *scratchReader) next(n int) ([]byte, error) {
	if len(r.buf)-r.off < n {
		return nil, malformedf("truncated at offset %d, need %d bytes", r.off, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *scratchReader) readByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *scratchReader) colorTable(dst *[colorTableLen]byte, flags byte) error {
	n := 3 * (1 << ((flags & fColorTableBitsMask) + 1))
	table, err := r.next(n)
	if err != nil {
		return err
	}
	copy(dst[:], table)
	return nil
}

func (r *scratchReader) skipSubBlocks() error {
	for {
		n, err := r.readByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := r.next(int(n)); err != nil {
			return err
		}
	}
}

func (r *scratchReader) extension(img *scratchImage) error {
	label, err := r.readByte()
	if err != nil {
		return err
	}
	if label != eGraphicControl {
		return r.skipSubBlocks()
	}

	size, err := r.readByte()
	if err != nil {
		return err
	}
	if size != 4 {
		return malformedf("graphic control block size %d", size)
	}
	gce, err := r.next(4)
	if err != nil {
		return err
	}
	img.gce = graphicControl{present: true, flags: gce[0], transparent: gce[3]}

	// There is no data after the four fields, only the terminator.
	return r.skipSubBlocks()
}

func (r *scratchReader) imageBlock(img *scratchImage, hasGlobal bool) error {
	desc, err := r.next(9)
	if err != nil {
		return err
	}
	img.left = le16(desc[0:2])
	img.top = le16(desc[2:4])
	img.width = le16(desc[4:6])
	img.height = le16(desc[6:8])
	img.imageFlags = desc[8]

	// A local table is what the pixels of this image index into.
	if img.imageFlags&fColorTable != 0 {
		img.palette = [colorTableLen]byte{}
		if err := r.colorTable(&img.palette, img.imageFlags); err != nil {
			return err
		}
	} else if !hasGlobal {
		return malformedf("image has no color table")
	}

	img.litWidth, err = r.readByte()
	if err != nil {
		return err
	}
	if img.litWidth < 2 || img.litWidth > 8 {
		return malformedf("lzw minimum code size %d", img.litWidth)
	}

	for {
		n, err := r.readByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		block, err := r.next(int(n))
		if err != nil {
			return err
		}
		img.blocks = append(img.blocks, block)
	}
}

// parseScratch reads buf up to and including the first image block.
// Anything after it, the trailer included, is ignored.
func parseScratch(buf []byte, img *scratchImage) error {
	*img = scratchImage{blocks: img.blocks[:0]}
	r := scratchReader{buf: buf}

	header, err := r.next(13)
	if err != nil {
		return err
	}
	switch string(header[:6]) {
	case "GIF87a", "GIF89a":
	default:
		return malformedf("unknown signature %q", header[:6])
	}

	img.screenFlags = header[10]
	hasGlobal := img.screenFlags&fColorTable != 0
	if hasGlobal {
		if err := r.colorTable(&img.palette, img.screenFlags); err != nil {
			return err
		}
	}

	for {
		c, err := r.readByte()
		if err != nil {
			return err
		}
		switch c {
		case sExtension:
			if err := r.extension(img); err != nil {
				return err
			}
		case sImageDescriptor:
			return r.imageBlock(img, hasGlobal)
		case sTrailer:
			return malformedf("trailer before any image")
		default:
			return malformedf("unknown block 0x%02x at offset %d", c, r.off-1)
		}
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
