package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/stormouse/gif-screenshot/framerate"
	"github.com/stormouse/gif-screenshot/recorder"
	"github.com/stormouse/gif-screenshot/settings"
)

// parseRect reads "x,y,w,h".
func parseRect(s string) (image.Rectangle, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("rect %q: %w", s, err)
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %v comma separated numbers", n)
	}
	v := make([]int, n)
	for i, p := range parts {
		x, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

// parseSelection reads two drag corners "x1,y1,x2,y2" in any order.
func parseSelection(s string) (image.Rectangle, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("select %q: %w", s, err)
	}
	return recorder.Selection(v[0], v[1], v[2], v[3])
}

// captureRect picks the region from -select, -rect or -display, in that
// order. displays reports how many displays are attached.
func captureRect(opts options, displays func() int) (image.Rectangle, error) {
	if opts.selection != "" && opts.rect != "" {
		return image.Rectangle{}, errors.New("-select and -rect are exclusive")
	}
	switch {
	case opts.selection != "":
		return parseSelection(opts.selection)
	case opts.rect != "":
		return parseRect(opts.rect)
	}
	if n := displays(); opts.display < 0 || opts.display >= n {
		return image.Rectangle{}, fmt.Errorf("display %v out of range, %v active", opts.display, n)
	}
	return recorder.DisplayBounds(opts.display)
}

// applyFlags copies the flags that were given on the command line over s, so
// a config file only loses the values the user overrides.
// A new -fps without -delay also moves the frame delay so playback speed
// matches the capture rate.
func applyFlags(fs *flag.FlagSet, s *settings.Settings) error {
	delaySet := false
	fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		value := getter.Get()
		switch f.Name {
		case "out":
			s.OutputFilename = value.(string)
		case "fps":
			s.FrameRate = framerate.PerSecond(value.(int))
		case "delay":
			s.FrameDelay = value.(int)
			delaySet = true
		case "repeat":
			s.Repeat = value.(int)
		case "scale":
			s.Scale = value.(float64)
		case "quantizer":
			s.Quantizer = value.(string)
		case "dither":
			s.Dither = value.(bool)
		case "realtime":
			s.RealTime = value.(bool)
		case "max-pending":
			s.MaxPending = value.(int)
		case "new-file":
			if value.(bool) {
				s.OutputMethod = settings.OutputMethodNewFile
			} else {
				s.OutputMethod = settings.OutputMethodOverwrite
			}
		}
	})
	if !delaySet && isSet(fs, "fps") {
		s.FrameDelay = s.FrameRate.DelayMs()
	}
	return s.Validate()
}

func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
