// Package recorder drives a screen recording: a capture loop grabs frames at
// a fixed rate and a single encode loop feeds them to a gifmux.Multiplexer.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stormouse/gif-screenshot/framerate"
	"github.com/stormouse/gif-screenshot/gifmux"
	"golang.org/x/image/draw"
	"golang.org/x/time/rate"
)

// DefaultMaxPending keeps at most one captured frame waiting while another
// is being encoded.
const DefaultMaxPending = 1

type Config struct {
	Rect image.Rectangle
	Rate framerate.T

	// FrameDelay is the default delay in milliseconds, Rate.DelayMs() if zero.
	FrameDelay int
	Repeat     int
	// Scale shrinks frames before encoding, 0 means 1.
	Scale     float64
	Quantizer gifmux.Quantizer
	Dither    bool
	// RealTime uses the measured time between captures as the frame delay.
	RealTime bool
	// MaxPending is how many captures may wait for the encoder before new
	// ones are dropped. Each one is a full-size RGBA frame.
	MaxPending int

	// Encoder replaces the quantizing encoder built from Quantizer and Dither.
	Encoder gifmux.FrameEncoder
	Logger  *slog.Logger
	OnFrame func(seq int)
}

type Frame struct {
	Image   *image.RGBA
	DelayMs int
	Seq     int
}

type Session struct {
	id  uuid.UUID
	cfg Config
	src Source
	mux *gifmux.Multiplexer
	log *slog.Logger

	size  image.Point
	queue *Queue[Frame]

	captured atomic.Int64
	encoded  atomic.Int64
	dropped  atomic.Int64

	mu          sync.Mutex
	started     bool
	cancel      context.CancelFunc
	captureDone chan struct{}
	done        chan struct{}

	errMu sync.Mutex
	err   error

	stopOnce sync.Once
	stopErr  error
}

func NewSession(w io.Writer, src Source, cfg Config) (*Session, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", gifmux.ErrInvalidConfiguration)
	}
	if cfg.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty capture rectangle %v", gifmux.ErrInvalidConfiguration, cfg.Rect)
	}
	if cfg.Rate.Value <= 0 {
		return nil, fmt.Errorf("%w: frame rate must be positive, got %v", gifmux.ErrInvalidConfiguration, cfg.Rate.Value)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	if cfg.Scale < 0 || cfg.Scale > 1 {
		return nil, fmt.Errorf("%w: scale must be in (0, 1], got %v", gifmux.ErrInvalidConfiguration, cfg.Scale)
	}
	if cfg.FrameDelay == 0 {
		cfg.FrameDelay = cfg.Rate.DelayMs()
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.Encoder == nil {
		cfg.Encoder = &gifmux.Encoder{Quantizer: cfg.Quantizer, Dither: cfg.Dither}
	}

	size := scaledSize(cfg.Rect.Size(), cfg.Scale)
	mux, err := gifmux.New(w, cfg.FrameDelay, cfg.Repeat,
		gifmux.WithSize(size.X, size.Y),
		gifmux.WithEncoder(cfg.Encoder),
	)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()

	return &Session{
		id:          id,
		cfg:         cfg,
		src:         src,
		mux:         mux,
		log:         logger.With("session", id.String()),
		size:        size,
		queue:       CreateQueue[Frame](cfg.MaxPending),
		captureDone: make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Size is the dimension of the recorded frames after scaling.
func (s *Session) Size() image.Point { return s.size }

func (s *Session) Captured() int { return int(s.captured.Load()) }
func (s *Session) Encoded() int  { return int(s.encoded.Load()) }
func (s *Session) Dropped() int  { return int(s.dropped.Load()) }

// Pending is the number of captured frames waiting to be encoded.
func (s *Session) Pending() int { return s.queue.Size() }

// Done is closed once both loops have exited, either after Stop or because
// capturing or encoding failed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the first capture or encode error.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("recorder: session already started")
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info("recording started",
		"rect", s.cfg.Rect.String(),
		"size", s.size.String(),
		"rate", s.cfg.Rate.String(),
		"delay", s.cfg.FrameDelay,
	)

	go s.captureLoop(ctx)
	go s.encodeLoop()
	return nil
}

// Stop ends capturing, waits for the pending frames to be encoded and closes
// the stream. It returns the first loop error joined with the close error.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		started, cancel := s.started, s.cancel
		s.started = true
		s.mu.Unlock()

		if started {
			cancel()
			<-s.done
		} else {
			close(s.captureDone)
			close(s.done)
		}

		closeErr := s.mux.Close()
		s.stopErr = errors.Join(s.Err(), closeErr)

		attrs := []any{
			"frames", s.Encoded(),
			"captured", s.Captured(),
			"dropped", s.Dropped(),
			"bytes", s.mux.BytesWritten(),
		}
		if s.stopErr != nil {
			s.log.Error("recording stopped", append(attrs, "err", s.stopErr)...)
		} else {
			s.log.Info("recording stopped", attrs...)
		}
	})
	return s.stopErr
}

func (s *Session) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
	s.cancel()
}

func (s *Session) captureLoop(ctx context.Context) {
	defer close(s.captureDone)

	limiter := rate.NewLimiter(s.cfg.Rate.Limit(), 1)
	var lastShot time.Time
	skipped := 0
	seq := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if s.queue.Size() >= s.cfg.MaxPending {
			s.dropped.Add(1)
			if !s.cfg.RealTime {
				skipped += s.cfg.FrameDelay
			}
			s.log.Debug("frame dropped", "pending", s.cfg.MaxPending)
			continue
		}

		img, err := s.src.Capture(s.cfg.Rect)
		if err != nil {
			s.log.Error("capture failed", "err", err)
			s.fail(fmt.Errorf("recorder: capture: %w", err))
			return
		}

		now := time.Now()
		delay := 0
		if s.cfg.RealTime {
			if !lastShot.IsZero() {
				delay = int(now.Sub(lastShot).Milliseconds())
			}
		} else if skipped > 0 {
			delay = s.cfg.FrameDelay + skipped
		}
		lastShot = now
		skipped = 0

		s.queue.Push(Frame{Image: img, DelayMs: delay, Seq: seq})
		s.captured.Add(1)
		seq++
	}
}

func (s *Session) encodeLoop() {
	defer close(s.done)

	var dst *image.RGBA
	if s.cfg.Scale < 1 {
		dst = image.NewRGBA(image.Rectangle{Max: s.size})
	}

	drain := func() bool {
		for {
			frame, ok := s.queue.Pop()
			if !ok {
				return true
			}
			var img image.Image = frame.Image
			if dst != nil {
				draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame.Image, frame.Image.Bounds(), draw.Src, nil)
				img = dst
			}
			if err := s.mux.WriteFrame(img, frame.DelayMs); err != nil {
				s.log.Error("encode failed", "seq", frame.Seq, "err", err)
				s.fail(err)
				return false
			}
			s.encoded.Add(1)
			if s.cfg.OnFrame != nil {
				s.cfg.OnFrame(frame.Seq)
			}
		}
	}

	for {
		if !drain() {
			<-s.captureDone
			return
		}
		select {
		case <-s.queue.Ready():
		case <-s.captureDone:
			drain()
			return
		}
	}
}

func scaledSize(size image.Point, scale float64) image.Point {
	if scale >= 1 {
		return size
	}
	w := int(float64(size.X)*scale + 0.5)
	h := int(float64(size.Y)*scale + 0.5)
	return image.Pt(max(w, 1), max(h, 1))
}
