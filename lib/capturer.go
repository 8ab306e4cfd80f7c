package lib

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/nvlled/carrot"
	"github.com/stormouse/gif-screenshot/recorder"
)

// GetWindowBounds is the capture rectangle: the window minus its 3px outline.
func GetWindowBounds() image.Rectangle {
	x, y := ebiten.WindowPosition()
	w, h := ebiten.WindowSize()
	return image.Rect(x+3, y+3, x+w-3, y+h-3)
}

func awaitEnter(ctrl *carrot.Control) {
	ctrl.Yield()
	ctrl.YieldUntil(func() bool {
		return inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	})
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// GifCapturer records the area under the window while the app shows the
// recording state. It is driven by a coroutine stepped once per game tick.
type GifCapturer struct {
	app  *App
	scrp *ScreenPrint

	script *carrot.Script
	draw   func(*ebiten.Image)

	running atomic.Bool
	session *recorder.Session
	out     *recorder.PartFile

	saveFilename string
	Error        error
}

func NewGifCapturer(app *App) *GifCapturer {
	capturer := &GifCapturer{
		app:  app,
		scrp: app.scrp,
	}
	capturer.script = carrot.Start(capturer.coroutine)
	return capturer
}

func (capturer *GifCapturer) IsRunning() bool {
	return capturer.running.Load()
}

func (capturer *GifCapturer) startSession() error {
	app := capturer.app
	filename, err := app.settings.NextOutputFilename()
	if err != nil {
		return err
	}

	cfg, err := app.settings.SessionConfig(GetWindowBounds())
	if err != nil {
		return err
	}

	out, err := recorder.CreatePartFile(filename)
	if err != nil {
		return err
	}

	session, err := recorder.NewSession(out, recorder.ScreenSource{}, cfg)
	if err != nil {
		out.Discard()
		return err
	}
	if err := session.Start(context.Background()); err != nil {
		session.Stop()
		out.Discard()
		return err
	}

	capturer.saveFilename = filename
	capturer.session = session
	capturer.out = out
	return nil
}

// finishSession stops the recording and moves it over the output file.
// A failed recording leaves the previous file alone.
func (capturer *GifCapturer) finishSession() error {
	session, out := capturer.session, capturer.out
	if err := session.Stop(); err != nil {
		out.Discard()
		return err
	}
	return out.Commit()
}

func (capturer *GifCapturer) coroutine(ctrl *carrot.Control) {
	app := capturer.app

	goto START

ERROR:
	log.Println("error:", capturer.Error)
	capturer.running.Store(false)
	capturer.draw = capturer.drawError
	awaitEnter(ctrl)
	capturer.Error = nil

START:
	capturer.running.Store(false)
	capturer.session = nil
	capturer.out = nil
	app.setBorder(borderReady)
	capturer.draw = capturer.drawInactive
	awaitEnter(ctrl)

	if err := capturer.startSession(); err != nil {
		capturer.Error = err
		goto ERROR
	}

	// recording
	{
		capturer.running.Store(true)
		app.setBorder(borderRecording)
		app.borderOnly = true
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
		capturer.draw = capturer.drawActive

		done := capturer.session.Done()
		ctrl.Yield()
		ctrl.YieldUntil(func() bool {
			return inpututil.IsKeyJustPressed(ebiten.KeyEnter) || isClosed(done)
		})
	}

	// saving
	{
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		app.borderOnly = false
		capturer.draw = capturer.drawSaving

		task := Go(func() (struct{}, error) {
			return struct{}{}, capturer.finishSession()
		})
		ctrl.YieldUntil(task.IsDone)
		capturer.running.Store(false)

		if task.Err != nil {
			capturer.Error = task.Err
			goto ERROR
		}
	}

	// saved
	{
		capturer.draw = capturer.drawSaved
		now := time.Now()
		ctrl.YieldUntil(func() bool {
			return inpututil.IsKeyJustPressed(ebiten.KeyEnter) || time.Since(now) > 2*time.Second
		})
	}

	goto START
}

func (capturer *GifCapturer) Update() {
	capturer.script.Update()

	if capturer.IsRunning() {
		return
	}

	s := &capturer.app.settings
	fps := s.FrameRate.Value
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		s.FrameRate.Decrement()
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		s.FrameRate.Increment()
	}
	s.ClampFrameRate()
	if s.FrameRate.Value != fps {
		s.FrameDelay = s.FrameRate.DelayMs()
		capturer.app.scheduleSaveSettings()
	}
}

func (capturer *GifCapturer) counts() (captured, encoded, dropped int) {
	if session := capturer.session; session != nil {
		return session.Captured(), session.Encoded(), session.Dropped()
	}
	return 0, 0, 0
}

func (capturer *GifCapturer) drawInactive(screen *ebiten.Image) {
	scrp := capturer.scrp
	app := capturer.app

	scrp.Color = ColorTeal
	scrp.Println("Ready")
	scrp.Color = ColorWhite
	scrp.Println("Press [enter] to start")

	scrp.Font = app.smallFont
	scrp.Println("\n\n")
	scrp.Printf("%v FPS [-][+]", app.settings.FrameRate.Value)

	scrp.Println("\n\n")
	scrp.Println("Resize and position\nthis window to the area ")
	scrp.Println("where you want to capture.")
}

func (capturer *GifCapturer) drawActive(screen *ebiten.Image) {
	scrp := capturer.scrp
	captured, _, dropped := capturer.counts()

	scrp.Color = ColorGreen
	scrp.Println("Recording")
	scrp.Color = ColorWhite
	scrp.Println("Press [enter] to stop")
	scrp.Font = capturer.app.smallFont
	scrp.Printf("number of images: %v", captured)
	if dropped > 0 {
		scrp.Color = ColorYellow
		scrp.Printf("dropped: %v", dropped)
		scrp.Color = ColorWhite
	}

	scrp.Println("\n\n")
	scrp.Println("You can now hide or minimize this window, or press F10 to show border only")
	scrp.Println("When you are done, return to this window.")
}

func (capturer *GifCapturer) drawSaving(screen *ebiten.Image) {
	scrp := capturer.scrp
	captured, encoded, _ := capturer.counts()

	scrp.Color = ColorWhite
	scrp.Printf("Saving to %v\n", capturer.saveFilename)
	scrp.Font = capturer.app.smallFont
	scrp.Printf("Please wait: %v / %v", encoded, captured)
}

func (capturer *GifCapturer) drawSaved(screen *ebiten.Image) {
	scrp := capturer.scrp
	_, encoded, _ := capturer.counts()

	scrp.Color = ColorWhite
	scrp.Println("Done!")
	scrp.Font = capturer.app.smallFont
	scrp.Printf("%v frames written to %v", encoded, capturer.saveFilename)
	scrp.Println("Press [enter] to continue")
}

func (capturer *GifCapturer) drawError(screen *ebiten.Image) {
	scrp := capturer.scrp
	scrp.Color = ColorWhite
	scrp.Println("Ruh-oh, Something broke")
	scrp.Font = capturer.app.smallFont
	scrp.Printf("%v", capturer.Error)
}

func (capturer *GifCapturer) Draw(screen *ebiten.Image) {
	scrp := capturer.scrp
	app := capturer.app

	scrp.AlignX = AlignCenter
	scrp.Font = app.regularFont
	if capturer.draw != nil && !app.borderOnly {
		capturer.draw(screen)
	}

	if app.borderOnly && capturer.IsRunning() {
		captured, _, _ := capturer.counts()
		scrp.Font = app.tinyFont
		h := screen.Bounds().Dy()

		s := fmt.Sprintf("%v", captured)
		b := text.BoundString(scrp.Font, "9")
		w := b.Dx() * len(s)

		ebitenutil.DrawRect(
			screen,
			0,
			float64(h-b.Dy()-scrp.Border),
			float64(w+scrp.Border),
			float64(b.Dy()+scrp.Border),
			ColorBlackTransparent,
		)
		scrp.PrintAt(At(AlignStart, AlignEnd), s)
	}
}
