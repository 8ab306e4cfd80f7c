package gifmux

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("gifmux: invalid configuration")
	ErrClosedStream         = errors.New("gifmux: write to closed stream")

	// ErrMalformedScratch means the frame encoder produced something that is
	// not a single-image GIF. It is a bug in the encoder, not a runtime condition.
	ErrMalformedScratch = errors.New("gifmux: malformed scratch encoding")
)

// IOError is returned when the output sink rejects a write.
// Once returned, the multiplexer refuses further frames.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("gifmux: %v: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %v", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %v", ErrMalformedScratch, fmt.Sprintf(format, args...))
}
