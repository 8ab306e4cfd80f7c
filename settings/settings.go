// Package settings holds the recorder configuration shared by the window UI
// and the headless binary, persisted as JSON or YAML.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stormouse/gif-screenshot/framerate"
	"github.com/stormouse/gif-screenshot/gifmux"
	"github.com/stormouse/gif-screenshot/recorder"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSettingsFile   = "gif-screenshot-config.json"
	DefaultOutputFilename = "capture.gif"

	DefaultFrameDelay  = 50
	DefaultMaxPending  = recorder.DefaultMaxPending
	MaxFramesPerSecond = 30
)

var DefaultFrameRate = framerate.PerSecond(20)

type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

type OutputMethod int

const (
	OutputMethodOverwrite OutputMethod = iota
	OutputMethodNewFile

	OutputMethod_Size
)

func (method OutputMethod) String() string {
	switch method {
	case OutputMethodNewFile:
		return "new file"
	case OutputMethodOverwrite:
		return "overwrite"
	}
	return "invalid-output-method"
}

type Settings struct {
	OutputFilename string       `json:"outputFilename" yaml:"outputFilename"`
	OutputMethod   OutputMethod `json:"outputMethod" yaml:"outputMethod"`

	FrameRate  framerate.T `json:"frameRate" yaml:"frameRate"`
	FrameDelay int         `json:"frameDelay" yaml:"frameDelay"`
	Repeat     int         `json:"repeat" yaml:"repeat"`
	Scale      float64     `json:"scale" yaml:"scale"`
	Quantizer  string      `json:"quantizer" yaml:"quantizer"`
	Dither     bool        `json:"dither" yaml:"dither"`
	RealTime   bool        `json:"realTime" yaml:"realTime"`
	MaxPending int         `json:"maxPending" yaml:"maxPending"`

	WindowRect  Rect   `json:"windowRect" yaml:"windowRect"`
	WindowTitle string `json:"windowTitle" yaml:"windowTitle"`
}

func Default() Settings {
	return Settings{
		OutputFilename: DefaultOutputFilename,
		OutputMethod:   OutputMethodNewFile,
		FrameRate:      DefaultFrameRate,
		FrameDelay:     DefaultFrameDelay,
		Repeat:         0,
		Scale:          1,
		Quantizer:      gifmux.QuantizerMedianCut.String(),
		MaxPending:     DefaultMaxPending,
		WindowRect:     Rect{W: 640, H: 480},
		WindowTitle:    "gif-screenshot",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return s, fmt.Errorf("parse %v: %w", path, err)
	}
	return s, s.Validate()
}

func (s *Settings) Save(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Settings) Validate() error {
	var errs []error
	if s.OutputFilename == "" {
		errs = append(errs, errors.New("output filename is empty"))
	}
	if s.OutputMethod < 0 || s.OutputMethod >= OutputMethod_Size {
		errs = append(errs, fmt.Errorf("invalid output method %d", s.OutputMethod))
	}
	if s.FrameRate.Value <= 0 || s.FrameRate.Unit >= framerate.Unit_End {
		errs = append(errs, fmt.Errorf("invalid frame rate %v", s.FrameRate.String()))
	}
	if s.FrameDelay <= 0 {
		errs = append(errs, fmt.Errorf("frame delay must be positive, got %v", s.FrameDelay))
	}
	if s.Repeat < -1 || s.Repeat > 0xFFFF {
		errs = append(errs, fmt.Errorf("repeat must be -1 or in [0, 65535], got %v", s.Repeat))
	}
	if s.Scale <= 0 || s.Scale > 1 {
		errs = append(errs, fmt.Errorf("scale must be in (0, 1], got %v", s.Scale))
	}
	if _, err := s.ParseQuantizer(); err != nil {
		errs = append(errs, err)
	}
	if s.MaxPending <= 0 {
		errs = append(errs, fmt.Errorf("max pending must be positive, got %v", s.MaxPending))
	}
	return errors.Join(errs...)
}

func (s *Settings) ParseQuantizer() (gifmux.Quantizer, error) {
	if s.Quantizer == "" {
		return gifmux.QuantizerMedianCut, nil
	}
	return gifmux.ParseQuantizer(s.Quantizer)
}

// SessionConfig builds the recording parameters for rect.
func (s *Settings) SessionConfig(rect image.Rectangle) (recorder.Config, error) {
	q, err := s.ParseQuantizer()
	if err != nil {
		return recorder.Config{}, err
	}
	return recorder.Config{
		Rect:       rect,
		Rate:       s.FrameRate,
		FrameDelay: s.FrameDelay,
		Repeat:     s.Repeat,
		Scale:      s.Scale,
		Quantizer:  q,
		Dither:     s.Dither,
		RealTime:   s.RealTime,
		MaxPending: s.MaxPending,
	}, nil
}

// ClampFrameRate keeps the rate in frames per second, within what a GIF
// delay can express.
func (s *Settings) ClampFrameRate() {
	if s.FrameRate.Unit != framerate.UnitSecond {
		s.FrameRate = DefaultFrameRate
	}
	s.FrameRate.Clamp(1, MaxFramesPerSecond)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
