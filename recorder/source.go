package recorder

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Source grabs the pixels inside rect, in screen coordinates.
type Source interface {
	Capture(rect image.Rectangle) (*image.RGBA, error)
}

type SourceFunc func(rect image.Rectangle) (*image.RGBA, error)

func (f SourceFunc) Capture(rect image.Rectangle) (*image.RGBA, error) { return f(rect) }

// ScreenSource captures from the active displays.
type ScreenSource struct{}

func (ScreenSource) Capture(rect image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(rect)
}

func NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

func DisplayBounds(i int) (image.Rectangle, error) {
	n := NumDisplays()
	if i < 0 || i >= n {
		return image.Rectangle{}, fmt.Errorf("display %v out of range, %v active", i, n)
	}
	return screenshot.GetDisplayBounds(i), nil
}

// Selection turns two drag corners into a capture rectangle. The result is
// inset by one pixel on every side so the drawn outline is not recorded.
func Selection(x1, y1, x2, y2 int) (image.Rectangle, error) {
	minX, maxX := min(x1, x2), max(x1, x2)
	minY, maxY := min(y1, y2), max(y1, y2)

	rect := image.Rect(minX+1, minY+1, maxX-1, maxY-1)
	if maxX-minX <= 2 || maxY-minY <= 2 {
		return image.Rectangle{}, fmt.Errorf("selection %vx%v is too small", maxX-minX, maxY-minY)
	}
	return rect, nil
}
