package settings

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stormouse/gif-screenshot/framerate"
	"github.com/stormouse/gif-screenshot/gifmux"
	"github.com/stormouse/gif-screenshot/recorder"
)

func TestIncrementFilename(t *testing.T) {
	for _, entry := range [][]string{
		{"filename.png", "filename-1.png"},
		{"filename-1.png", "filename-2.png"},
		{"filename-.png", "filename-1.png"},
		{"filename-x.png", "filename-x-1.png"},
		{"", ""},
		{".file", ".file-1"},
		{"-.file", "-1.file"},
		{"/home/user/screen-1.gif", "/home/user/screen-2.gif"},
		{"filename", "filename-1"},
		{"filename-1", "filename-2"},
		{"42.gif", "-43.gif"},
	} {
		expected := entry[1]
		actual := IncrementFilename(entry[0])
		if actual != expected {
			t.Errorf("expected: %v | got %v", expected, actual)
		}
	}
}

func TestReplaceIncrementedFilename(t *testing.T) {
	for _, entry := range []struct {
		filename string
		counter  int
		expected string
	}{
		{"capture.gif", 3, "capture-3.gif"},
		{"capture-9.gif", 3, "capture-3.gif"},
		{"dir/capture", 1, "dir/capture-1"},
	} {
		actual := ReplaceIncrementedFilename(entry.filename, entry.counter)
		if actual != entry.expected {
			t.Errorf("expected: %v | got %v", entry.expected, actual)
		}
	}
}

func touch(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(name, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNextLatestIncrementedFilename(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "capture.gif")
	touch(t,
		base,
		filepath.Join(dir, "capture-2.gif"),
		filepath.Join(dir, "capture-7.gif"),
		filepath.Join(dir, "capture-12.png"),
		filepath.Join(dir, "capture-old-30.gif"),
	)

	next, num, err := NextLatestIncrementedFilename(base)
	if err != nil {
		t.Fatal(err)
	}
	if num != 8 || next != filepath.Join(dir, "capture-8.gif") {
		t.Errorf("expected capture-8.gif, got %v (%v)", next, num)
	}
}

func TestNextOutputFilename(t *testing.T) {
	dir := t.TempDir()
	s := Default()
	s.OutputFilename = filepath.Join(dir, "capture.gif")

	name, err := s.NextOutputFilename()
	if err != nil || name != s.OutputFilename {
		t.Errorf("expected %v for a missing file, got %v %v", s.OutputFilename, name, err)
	}

	touch(t, s.OutputFilename)
	name, err = s.NextOutputFilename()
	if err != nil || name != filepath.Join(dir, "capture-1.gif") {
		t.Errorf("expected capture-1.gif, got %v %v", name, err)
	}

	s.OutputMethod = OutputMethodOverwrite
	name, err = s.NextOutputFilename()
	if err != nil || name != s.OutputFilename {
		t.Errorf("expected overwrite to keep %v, got %v %v", s.OutputFilename, name, err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
	if s.FrameDelay != 50 || s.Repeat != 0 || s.MaxPending != recorder.DefaultMaxPending {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("expected defaults for a missing file, got %v", err)
	}
	if s.OutputFilename != DefaultOutputFilename {
		t.Errorf("expected %v, got %v", DefaultOutputFilename, s.OutputFilename)
	}
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.YML"} {
		path := filepath.Join(t.TempDir(), name)
		s := Default()
		s.OutputFilename = "screen.gif"
		s.FrameRate = framerate.PerSecond(12)
		s.Repeat = -1
		s.Scale = 0.5
		s.Quantizer = "palgen"
		s.Dither = true
		s.WindowRect = Rect{X: 10, Y: 20, W: 300, H: 200}

		if err := s.Save(path); err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if loaded != s {
			t.Errorf("%v: expected %+v, got %+v", name, s, loaded)
		}
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("outputFilename: demo.gif\nframeDelay: 100\n"), 0644)

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.OutputFilename != "demo.gif" || s.FrameDelay != 100 {
		t.Errorf("expected file values, got %+v", s)
	}
	if s.MaxPending != DefaultMaxPending || s.Scale != 1 {
		t.Errorf("expected defaults for missing fields, got %+v", s)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	for _, entry := range []struct {
		name, content string
	}{
		{"broken.json", "{"},
		{"delay.json", `{"frameDelay": -5}`},
		{"scale.yaml", "scale: 3"},
		{"quantizer.yaml", "quantizer: octree"},
	} {
		path := filepath.Join(dir, entry.name)
		os.WriteFile(path, []byte(entry.content), 0644)
		if _, err := Load(path); err == nil {
			t.Errorf("%v: expected an error", entry.name)
		}
	}
}

func TestValidateReportsEverything(t *testing.T) {
	s := Default()
	s.FrameDelay = 0
	s.Repeat = 70000
	err := s.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, part := range []string{"frame delay", "repeat"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("expected %q in %v", part, err)
		}
	}
}

func TestClampFrameRate(t *testing.T) {
	s := Default()
	s.FrameRate = framerate.T{Value: 5, Unit: framerate.UnitMinute}
	s.ClampFrameRate()
	if s.FrameRate != DefaultFrameRate {
		t.Errorf("expected %v, got %v", DefaultFrameRate, s.FrameRate)
	}
	s.FrameRate.Value = 90
	s.ClampFrameRate()
	if s.FrameRate.Value != MaxFramesPerSecond {
		t.Errorf("expected %v, got %v", MaxFramesPerSecond, s.FrameRate.Value)
	}
}

func TestSessionConfig(t *testing.T) {
	s := Default()
	s.Quantizer = "plan9"
	rect := image.Rect(1, 2, 30, 40)
	cfg, err := s.SessionConfig(rect)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rect != rect || cfg.Quantizer != gifmux.QuantizerPlan9 || cfg.FrameDelay != 50 {
		t.Errorf("unexpected config %+v", cfg)
	}
}
