// Command gifrec records a screen region to an animated GIF without a window.
//
//	gifrec -out demo.gif -rect 0,0,800,600 -fps 15 -duration 20s
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/stormouse/gif-screenshot/recorder"
	"github.com/stormouse/gif-screenshot/settings"
)

type options struct {
	config    string
	rect      string
	selection string
	display   int
	duration  time.Duration
	verbose   bool
}

func newFlagSet(opts *options) *flag.FlagSet {
	d := settings.Default()
	fs := flag.NewFlagSet("gifrec", flag.ExitOnError)
	fs.StringVar(&opts.config, "config", "", "settings file (.json or .yaml) to start from")
	fs.StringVar(&opts.rect, "rect", "", "capture rectangle x,y,w,h (default: the whole display)")
	fs.StringVar(&opts.selection, "select", "", "capture between two corners x1,y1,x2,y2, the outline pixel excluded")
	fs.IntVar(&opts.display, "display", 0, "display to record when neither -select nor -rect is given")
	fs.DurationVar(&opts.duration, "duration", 10*time.Second, "recording length, 0 records until interrupted")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	fs.String("out", d.OutputFilename, "output GIF")
	fs.Int("fps", d.FrameRate.Value, "captures per second")
	fs.Int("delay", d.FrameDelay, "frame delay in milliseconds (default: derived from -fps)")
	fs.Int("repeat", d.Repeat, "loop count: -1 plays once, 0 loops forever")
	fs.Float64("scale", d.Scale, "shrink frames by this factor (0, 1]")
	fs.String("quantizer", d.Quantizer, "palette builder: mediancut, palgen or plan9")
	fs.Bool("dither", d.Dither, "Floyd-Steinberg dithering")
	fs.Bool("realtime", d.RealTime, "use the measured capture interval as the frame delay")
	fs.Int("max-pending", d.MaxPending, "frames buffered before captures are dropped")
	fs.Bool("new-file", false, "never overwrite, number the output instead")
	return fs
}

func main() {
	var opts options
	fs := newFlagSet(&opts)
	fs.Parse(os.Args[1:])

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	s := settings.Default()
	if opts.config != "" {
		var err error
		if s, err = settings.Load(opts.config); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if err := applyFlags(fs, &s); err != nil {
		log.Fatalf("flags: %v", err)
	}

	rect, err := captureRect(opts, recorder.NumDisplays)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := run(ctx, s, rect, opts.duration, logger)
	if err != nil {
		log.Fatalf("gifrec: %v", err)
	}
	logger.Info("saved", "file", out)
}

func newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("[GIF] recording"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(total > 0),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// run records until ctx ends or dur elapses. The stream goes to a .part file
// that is renamed once the trailer is written.
func run(ctx context.Context, s settings.Settings, rect image.Rectangle, dur time.Duration, logger *slog.Logger) (string, error) {
	outPath, err := s.NextOutputFilename()
	if err != nil {
		return "", err
	}
	cfg, err := s.SessionConfig(rect)
	if err != nil {
		return "", err
	}

	total := -1
	if dur > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dur)
		defer cancel()
		total = int(dur.Seconds() * float64(cfg.Rate.Limit()))
	}
	bar := newBar(total)
	defer bar.Finish()

	cfg.Logger = logger.With("out", outPath)
	cfg.OnFrame = func(seq int) { _ = bar.Add(1) }

	out, err := recorder.CreatePartFile(outPath)
	if err != nil {
		return "", err
	}

	session, err := recorder.NewSession(out, recorder.ScreenSource{}, cfg)
	if err != nil {
		out.Discard()
		return "", err
	}
	if err := session.Start(ctx); err != nil {
		session.Stop()
		out.Discard()
		return "", err
	}

	select {
	case <-ctx.Done():
	case <-session.Done():
	}

	if err := session.Stop(); err != nil {
		out.Discard()
		return "", fmt.Errorf("record: %w", err)
	}
	if session.Encoded() == 0 {
		out.Discard()
		return "", errors.New("no frames were captured")
	}
	if err := out.Commit(); err != nil {
		return "", err
	}
	return outPath, nil
}
