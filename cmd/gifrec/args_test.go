package main

import (
	"image"
	"testing"

	"github.com/stormouse/gif-screenshot/settings"
)

func TestParseRect(t *testing.T) {
	for _, entry := range []struct {
		input    string
		expected image.Rectangle
	}{
		{"0,0,800,600", image.Rect(0, 0, 800, 600)},
		{"10, 20, 30, 40", image.Rect(10, 20, 40, 60)},
		{"-1920,0,1920,1080", image.Rect(-1920, 0, 0, 1080)},
	} {
		actual, err := parseRect(entry.input)
		if err != nil {
			t.Errorf("%v: unexpected error %v", entry.input, err)
			continue
		}
		if actual != entry.expected {
			t.Errorf("expected: %v | got %v", entry.expected, actual)
		}
	}
}

func TestParseRectInvalid(t *testing.T) {
	for _, input := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,10", "0,0,10,-5", "1,2,3,4,5"} {
		if _, err := parseRect(input); err == nil {
			t.Errorf("%q: expected an error", input)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts)
	err := fs.Parse([]string{"-out", "demo.gif", "-fps", "10", "-repeat", "-1", "-quantizer", "plan9", "-new-file=false", "-rect", "0,0,10,10"})
	if err != nil {
		t.Fatal(err)
	}

	s := settings.Default()
	s.Dither = true
	if err := applyFlags(fs, &s); err != nil {
		t.Fatal(err)
	}
	if s.OutputFilename != "demo.gif" || s.Repeat != -1 || s.Quantizer != "plan9" {
		t.Errorf("flags not applied: %+v", s)
	}
	if s.FrameRate.Value != 10 || s.FrameDelay != 100 {
		t.Errorf("expected 10 fps with a 100ms delay, got %v and %v", s.FrameRate.Value, s.FrameDelay)
	}
	if s.OutputMethod != settings.OutputMethodOverwrite {
		t.Errorf("expected overwrite, got %v", s.OutputMethod)
	}
	if !s.Dither {
		t.Errorf("expected unset flags to keep the loaded value")
	}
	if opts.rect != "0,0,10,10" {
		t.Errorf("expected rect option, got %q", opts.rect)
	}
}

func TestApplyFlagsExplicitDelay(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts)
	fs.Parse([]string{"-fps", "10", "-delay", "40"})

	s := settings.Default()
	if err := applyFlags(fs, &s); err != nil {
		t.Fatal(err)
	}
	if s.FrameDelay != 40 {
		t.Errorf("expected 40, got %v", s.FrameDelay)
	}
}

func TestApplyFlagsInvalid(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts)
	fs.Parse([]string{"-scale", "1.5"})

	s := settings.Default()
	if err := applyFlags(fs, &s); err == nil {
		t.Errorf("expected scale 1.5 to be rejected")
	}
}

func TestParseSelection(t *testing.T) {
	for _, entry := range []struct {
		input    string
		expected image.Rectangle
	}{
		{"10,20,110,220", image.Rect(11, 21, 109, 219)},
		{"110,220,10,20", image.Rect(11, 21, 109, 219)},
		{"0,50, 40,0", image.Rect(1, 1, 39, 49)},
	} {
		actual, err := parseSelection(entry.input)
		if err != nil {
			t.Errorf("%v: unexpected error %v", entry.input, err)
			continue
		}
		if actual != entry.expected {
			t.Errorf("expected: %v | got %v", entry.expected, actual)
		}
	}

	for _, input := range []string{"1,2,3", "a,0,10,10", "0,0,2,10", "5,5,5,5"} {
		if _, err := parseSelection(input); err == nil {
			t.Errorf("%q: expected an error", input)
		}
	}
}

func TestCaptureRect(t *testing.T) {
	oneDisplay := func() int { return 1 }

	rect, err := captureRect(options{selection: "0,0,50,40"}, oneDisplay)
	if err != nil || rect != image.Rect(1, 1, 49, 39) {
		t.Errorf("expected the selection, got %v %v", rect, err)
	}
	rect, err = captureRect(options{rect: "5,5,10,10"}, oneDisplay)
	if err != nil || rect != image.Rect(5, 5, 15, 15) {
		t.Errorf("expected the rect, got %v %v", rect, err)
	}

	for _, opts := range []options{
		{selection: "0,0,50,40", rect: "0,0,10,10"},
		{display: 1},
		{display: -1},
	} {
		if _, err := captureRect(opts, oneDisplay); err == nil {
			t.Errorf("%+v: expected an error", opts)
		}
	}
	if _, err := captureRect(options{}, func() int { return 0 }); err == nil {
		t.Errorf("expected an error without displays")
	}
}
