package gifmux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	gif "github.com/nvlled/gogif"
	"github.com/xyproto/palgen"
	"golang.org/x/image/draw"
)

// FrameEncoder writes img as a complete single-image GIF.
type FrameEncoder interface {
	EncodeFrame(w io.Writer, img image.Image) error
}

// FrameEncoderFunc adapts a function to FrameEncoder.
type FrameEncoderFunc func(w io.Writer, img image.Image) error

func (f FrameEncoderFunc) EncodeFrame(w io.Writer, img image.Image) error { return f(w, img) }

type Quantizer int

const (
	QuantizerMedianCut Quantizer = iota
	QuantizerPalgen
	QuantizerPlan9

	Quantizer_End
)

func (q Quantizer) String() string {
	switch q {
	case QuantizerMedianCut:
		return "mediancut"
	case QuantizerPalgen:
		return "palgen"
	case QuantizerPlan9:
		return "plan9"
	}
	return "invalid-quantizer"
}

func ParseQuantizer(s string) (Quantizer, error) {
	for q := Quantizer(0); q < Quantizer_End; q++ {
		if q.String() == s {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown quantizer %q", s)
}

// Encoder is the default FrameEncoder. Frames that are not already paletted
// get a palette from Quantizer, and every palette is padded to 256 colors so
// the scratch always carries a full color table. The scratch itself is
// written by a one-frame gogif stream encoder.
type Encoder struct {
	Quantizer Quantizer
	Dither    bool
}

func NewEncoder() *Encoder {
	return &Encoder{Quantizer: QuantizerMedianCut}
}

func (enc *Encoder) EncodeFrame(w io.Writer, img image.Image) error {
	pm, err := enc.palettize(img)
	if err != nil {
		return err
	}
	se := gif.NewStreamEncoder(w, &gif.StreamEncoderOptions{})
	// Background disposal matches the bit the multiplexer forces on every frame.
	if err := se.Encode(pm, 0, gif.DisposalBackground); err != nil {
		return err
	}
	return se.Close()
}

func (enc *Encoder) palettize(img image.Image) (*image.Paletted, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty frame")
	}

	if pm, ok := img.(*image.Paletted); ok && len(pm.Palette) > 0 && len(pm.Palette) <= 256 {
		if len(pm.Palette) == 256 {
			return pm, nil
		}
		dup := *pm
		dup.Palette = padPalette(pm.Palette)
		return &dup, nil
	}

	pal, err := enc.palette(img)
	if err != nil {
		return nil, err
	}

	pm := image.NewPaletted(b, padPalette(pal))
	var drawer draw.Drawer = draw.Src
	if enc.Dither {
		drawer = draw.FloydSteinberg
	}
	drawer.Draw(pm, b, img, b.Min)
	return pm, nil
}

func (enc *Encoder) palette(img image.Image) (color.Palette, error) {
	switch enc.Quantizer {
	case QuantizerPalgen:
		pal, err := palgen.Generate(img, 256)
		if err != nil {
			return nil, fmt.Errorf("palgen: %w", err)
		}
		return pal, nil
	case QuantizerPlan9:
		return palette.Plan9, nil
	}
	quantizer := quantize.MedianCutQuantizer{}
	return quantizer.Quantize(make(color.Palette, 0, 256), img), nil
}

func padPalette(p color.Palette) color.Palette {
	if len(p) >= 256 {
		return p[:256]
	}
	padded := make(color.Palette, 256)
	copy(padded, p)
	for i := len(p); i < len(padded); i++ {
		padded[i] = color.RGBA{A: 0xff}
	}
	return padded
}
