package lib

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
)

type Align byte

// Horizontal alignment lives in the two high bits, vertical in the two low
// bits: 0b00/0b10 start, 0b11 center, 0b01 end.
const (
	AlignStart  Align = 0b10
	AlignCenter Align = 0b11
	AlignEnd    Align = 0b01
)

func At(x, y Align) Align { return x<<2 | y }

// ScreenPrint writes lines of text top to bottom over the window.
type ScreenPrint struct {
	image *ebiten.Image
	y     int
	saved []printContext

	Color       color.Color
	AlignX      Align
	Font        font.Face
	Border      int
	LineSpacing int
}

type printContext struct {
	y      int
	alignX Align
}

func NewScreenPrint() *ScreenPrint {
	return &ScreenPrint{
		Color:       color.White,
		Border:      20,
		LineSpacing: 10,
	}
}

func (scrp *ScreenPrint) Reset(screen *ebiten.Image) {
	scrp.y = 0
	scrp.image = screen
	scrp.saved = scrp.saved[:0]
}

func (scrp *ScreenPrint) lineX(width int) int {
	screenW := scrp.image.Bounds().Dx()
	switch {
	case scrp.AlignX&AlignCenter == AlignCenter:
		return screenW/2 - width/2
	case scrp.AlignX&AlignEnd == AlignEnd:
		return screenW - width - scrp.Border/2
	}
	return scrp.Border / 2
}

func (scrp *ScreenPrint) Println(str string) {
	textColor := scrp.Color
	if textColor == nil {
		textColor = color.Black
	}

	for _, line := range strings.Split(str, "\n") {
		if line == "" {
			line = " "
		}
		b := text.BoundString(scrp.Font, line)
		y := scrp.y + b.Dy() + scrp.Border/2
		text.Draw(scrp.image, line, scrp.Font, scrp.lineX(b.Dx()), y, textColor)
		scrp.y += b.Dy() + scrp.LineSpacing
	}
}

func (scrp *ScreenPrint) Printf(format string, args ...any) {
	scrp.Println(fmt.Sprintf(format, args...))
}

// PrintAt prints str at a fixed spot without moving the cursor.
func (scrp *ScreenPrint) PrintAt(align Align, str string) {
	scrp.save()
	defer scrp.restore()

	scrp.AlignX = align >> 2
	b := text.BoundString(scrp.Font, str)
	screenH := scrp.image.Bounds().Dy()

	scrp.y = scrp.Border / 2
	switch {
	case align&AlignCenter == AlignCenter:
		scrp.y = screenH/2 - b.Dy()/2
	case align&AlignEnd == AlignEnd:
		scrp.y = screenH - 2*b.Dy() - scrp.Border/2
	}
	scrp.Println(str)
}

func (scrp *ScreenPrint) PrintfAt(align Align, format string, args ...any) {
	scrp.PrintAt(align, fmt.Sprintf(format, args...))
}

// PrintColumn prints left and right on the same line, or on two lines when
// they would not fit side by side.
func (scrp *ScreenPrint) PrintColumn(left, right string) {
	w1 := text.BoundString(scrp.Font, left).Dx()
	w2 := text.BoundString(scrp.Font, right).Dx()
	if w1+w2 >= scrp.image.Bounds().Dx()*95/100 {
		scrp.Println(left)
		scrp.Println(right)
		return
	}

	scrp.save()
	scrp.AlignX = AlignStart
	scrp.Println(left)
	scrp.restore()

	scrp.save()
	scrp.AlignX = AlignEnd
	scrp.Println(right)
	y := scrp.y
	scrp.restore()
	scrp.y = y
}

func (scrp *ScreenPrint) save() {
	scrp.saved = append(scrp.saved, printContext{y: scrp.y, alignX: scrp.AlignX})
}

func (scrp *ScreenPrint) restore() {
	n := len(scrp.saved)
	if n == 0 {
		return
	}
	ctx := scrp.saved[n-1]
	scrp.saved = scrp.saved[:n-1]
	scrp.y, scrp.AlignX = ctx.y, ctx.alignX
}
