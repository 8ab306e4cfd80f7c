package lib

import "image/color"

var (
	ColorWhite            = color.White
	ColorTeal             = color.RGBA{0, 255, 255, 255}
	ColorTealDark         = color.RGBA{0, 90, 90, 255}
	ColorGreen            = color.RGBA{0, 255, 0, 255}
	ColorYellow           = color.RGBA{255, 220, 0, 255}
	ColorGray             = color.RGBA{90, 90, 90, 255}
	ColorRed              = color.RGBA{255, 0, 0, 255}
	ColorRedDark          = color.RGBA{30, 0, 0, 255}
	ColorBlackTransparent = color.RGBA{0, 0, 0, 120}
	ColorBackdrop         = color.RGBA{0, 0, 0, 150}
)

// borderColors are the outer and inner outline colors for each capturer state.
type borderColors struct {
	light, dark color.Color
}

var (
	borderReady     = borderColors{ColorTeal, ColorTealDark}
	borderRecording = borderColors{ColorRed, ColorRedDark}
)
