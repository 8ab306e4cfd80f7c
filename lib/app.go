// Package lib is the recorder window: a transparent, borderless ebiten window
// whose inner area is what gets recorded.
package lib

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/hajimehoshi/ebiten/examples/resources/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"
	"github.com/stormouse/gif-screenshot/settings"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

type App struct {
	tickCounter int

	regularFont font.Face
	smallFont   font.Face
	tinyFont    font.Face

	scrp *ScreenPrint

	settingFilename string
	settings        settings.Settings

	err error

	mustSaveSettings bool

	capturer *GifCapturer

	borderOnly  bool
	border      borderColors
	borderLight *ebiten.Image
	borderDark  *ebiten.Image
}

func NewApp() *App {
	app := &App{
		scrp:     NewScreenPrint(),
		settings: settings.Default(),
	}
	app.capturer = NewGifCapturer(app)
	return app
}

func (g *App) Update() error {
	g.tickCounter++

	if g.mustSaveSettings && g.tickCounter%50 == 0 { // throttle by 50 frames
		g.onSettingsChanged()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		g.borderOnly = !g.borderOnly
	}

	if !g.capturer.IsRunning() {
		if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
			g.pickOutputFile()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
			ebiten.SetWindowDecorated(!ebiten.IsWindowDecorated())
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
			s := &g.settings
			s.OutputMethod = (s.OutputMethod + 1) % settings.OutputMethod_Size
			g.scheduleSaveSettings()
		}
	}

	g.capturer.Update()
	return nil
}

func (g *App) pickOutputFile() {
	filename, err := dialog.File().
		Filter("gif", "gif").
		Title("Save recording as").
		Save()
	if err != nil && err != dialog.ErrCancelled {
		g.setError(err)
		return
	}
	if filename == "" {
		return
	}

	base, ext := settings.TrimExt(filename)
	if ext != ".gif" {
		filename = base + ".gif"
	}
	g.settings.OutputFilename = filename
	g.saveSettings()
}

func (g *App) setBorder(colors borderColors) {
	if g.border == colors && g.borderLight != nil {
		return
	}
	g.border = colors
	g.borderLight = ebiten.NewImage(1, 1)
	g.borderLight.Fill(colors.light)
	g.borderDark = ebiten.NewImage(1, 1)
	g.borderDark.Fill(colors.dark)
}

func (g *App) drawBorder(screen *ebiten.Image) {
	b := screen.Bounds()
	sw, sh := float64(b.Dx()-1), float64(b.Dy()-1)

	for i, c := range []*ebiten.Image{g.borderLight, g.borderDark} {
		n := float64(i)
		for _, edge := range [][4]float64{
			{sw - n, 1, n, n},
			{1, sh - n, n, n},
			{sw - n, 1, n, sh - n},
			{1, sh - n, sw - n, n},
		} {
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(edge[0], edge[1])
			op.GeoM.Translate(edge[2], edge[3])
			screen.DrawImage(c, op)
		}
	}
}

func (g *App) Draw(screen *ebiten.Image) {
	g.scrp.Reset(screen)

	if !g.borderOnly {
		b := screen.Bounds()
		ebitenutil.DrawRect(screen, 0, 0, float64(b.Dx()), float64(b.Dy()), ColorBackdrop)
	}

	if g.borderLight != nil {
		g.drawBorder(screen)
	}

	if g.err != nil {
		g.scrp.Font = g.smallFont
		g.scrp.PrintAt(At(AlignCenter, AlignCenter), g.err.Error())
		return
	}

	var infoColor color.Color = ColorWhite
	if g.capturer.IsRunning() {
		infoColor = ColorGray
	}

	if g.settings.WindowRect.H >= 250 && !g.borderOnly {
		s := &g.settings
		g.scrp.AlignX = AlignStart
		g.scrp.Font = g.tinyFont
		g.scrp.Color = infoColor
		g.scrp.PrintColumn(
			fmt.Sprintf("Output file [F5]: %v", s.OutputFilename),
			"Toggle frame [F9]",
		)
		g.scrp.PrintColumn(
			fmt.Sprintf("Output method [F12]: %v", s.OutputMethod),
			"Hide [F10]",
		)
		g.scrp.Printf("Delay: %vms | Loop: %v | Quantizer: %v", s.FrameDelay, s.Repeat, s.Quantizer)
		g.scrp.Println("\n\n\n")
	}

	g.capturer.Draw(screen)
}

func (g *App) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	wr := &g.settings.WindowRect
	x, y := ebiten.WindowPosition()

	if wr.W != outsideWidth || wr.H != outsideHeight || wr.X != x || wr.Y != y {
		g.mustSaveSettings = true
	}

	wr.X, wr.Y = x, y
	wr.W = outsideWidth
	wr.H = outsideHeight

	return outsideWidth, outsideHeight
}

// Init loads the settings named by args (or the default file next to the
// executable) and applies them to the window.
func (g *App) Init(args []string) error {
	g.settingFilename = settings.DefaultSettingsFile
	if binPath, err := os.Executable(); err == nil {
		g.settingFilename = filepath.Join(filepath.Dir(binPath), settings.DefaultSettingsFile)
	}

	var windowTitle string
	flags := flag.NewFlagSet("gif-screenshot", flag.ContinueOnError)
	flags.StringVar(&g.settingFilename, "config", g.settingFilename, "settings file (.json or .yaml)")
	flags.StringVar(&windowTitle, "window-title", "", "window title prefix")
	if err := flags.Parse(args); err != nil {
		return err
	}

	g.loadSettings()
	if windowTitle != "" {
		g.settings.WindowTitle = windowTitle
	}
	g.settings.ClampFrameRate()
	g.updateWindowTitle()

	wr := g.settings.WindowRect
	ebiten.SetWindowPosition(wr.X, wr.Y)
	ebiten.SetWindowSize(wr.W, wr.H)

	g.setBorder(borderReady)
	g.loadFonts()
	g.scrp.Font = g.regularFont
	return nil
}

func (g *App) loadSettings() {
	s, err := settings.Load(g.settingFilename)
	if err != nil {
		g.setError(err)
	}
	if s.WindowRect.W <= 0 || s.WindowRect.H <= 0 {
		w, h := ebiten.ScreenSizeInFullscreen()
		s.WindowRect = settings.Rect{W: w, H: h}
	}
	g.settings = s
}

func (g *App) scheduleSaveSettings() {
	g.mustSaveSettings = true
}

func (g *App) saveSettings() {
	if err := g.settings.Save(g.settingFilename); err != nil {
		g.setError(err)
	}
}

func (g *App) loadFonts() {
	tt, err := opentype.Parse(fonts.MPlus1pRegular_ttf)
	if err != nil {
		log.Fatal(err)
	}

	const dpi = 72
	newFace := func(size float64) font.Face {
		face, err := opentype.NewFace(tt, &opentype.FaceOptions{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		if err != nil {
			log.Fatal(err)
		}
		return face
	}

	g.regularFont = newFace(24)
	g.smallFont = newFace(18)
	g.tinyFont = newFace(15)
}

func (g *App) setError(err error) {
	g.err = err
	log.Println("error:", err.Error())
	debug.PrintStack()
}

func (g *App) onSettingsChanged() {
	log.Println("settings changed")
	g.saveSettings()
	g.mustSaveSettings = false
	g.updateWindowTitle()
}

func (g *App) updateWindowTitle() {
	wr := &g.settings.WindowRect
	ebiten.SetWindowTitle(fmt.Sprintf("%v %vx%v", g.settings.WindowTitle, wr.W, wr.H))
}
