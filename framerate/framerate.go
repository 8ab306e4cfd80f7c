package framerate

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type Unit uint8

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour

	Unit_End
)

func (unit Unit) Seconds() float64 {
	switch unit {
	case UnitMinute:
		return 60
	case UnitHour:
		return 60 * 60
	}
	return 1
}

func (unit Unit) String() string {
	switch unit {
	case UnitSecond:
		return "seconds"
	case UnitMinute:
		return "minutes"
	case UnitHour:
		return "hours"
	}
	return "invalid-unit"
}

// T is a capture rate: Value frames per Unit.
type T struct {
	Value int  `json:"value" yaml:"value"`
	Unit  Unit `json:"unit" yaml:"unit"`
}

func PerSecond(n int) T { return T{Value: n, Unit: UnitSecond} }

func (fr *T) String() string {
	return fmt.Sprintf("%v frames per %v", fr.Value, fr.Unit)
}

func (fr *T) Increment()           { fr.Value++ }
func (fr *T) Decrement()           { fr.Value-- }
func (fr *T) IncrementBy(step int) { fr.Value += step }
func (fr *T) DecrementBy(step int) { fr.Value -= step }

// Duration is the time between two frames, zero for a non-positive rate.
func (fr *T) Duration() time.Duration {
	if fr.Value <= 0 {
		return 0
	}
	perFrame := fr.Unit.Seconds() / float64(fr.Value)
	return time.Duration(perFrame*1000*1000) * time.Microsecond
}

// Limit converts the rate into events per second for a rate.Limiter.
func (fr *T) Limit() rate.Limit {
	if fr.Value <= 0 {
		return 0
	}
	return rate.Limit(float64(fr.Value) / fr.Unit.Seconds())
}

// DelayMs is the frame delay in milliseconds matching the rate. GIF delays
// are centiseconds, so anything shorter than 10ms is raised to 10ms.
func (fr *T) DelayMs() int {
	ms := int(fr.Duration().Milliseconds())
	if ms < 10 {
		return 10
	}
	return ms
}

func (fr *T) Clamp(min, max int) {
	if fr.Value < min {
		fr.Value = min
	} else if fr.Value > max {
		fr.Value = max
	}
}
