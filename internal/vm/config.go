package vm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultScreenWidth  = 64
	DefaultScreenHeight = 32
	DefaultScale        = 20
	DefaultFrameRate    = 60
)

// Config is consumed once, when a Machine is constructed.
// Only Width and Height affect instruction semantics; the rest is handed
// through to the renderer or controls pacing.
type Config struct {
	Width  int // Logical framebuffer width
	Height int // Logical framebuffer height
	Scale  int // Window pixels per framebuffer pixel

	Foreground    Color
	Background    Color
	PixelOutlines bool

	FrameRate            int // Timer, render and pacing cadence (Hz)
	InstructionsPerFrame int

	// Strict turns unsupported opcodes into a fatal fault instead of a no-op.
	Strict bool

	// Tracer, if set, observes every instruction before it is executed.
	Tracer Tracer

	// Pacer overrides the real-time frame clock. Tests use it to run unpaced.
	Pacer Pacer
}

func DefaultConfig() Config {
	return Config{
		Width:                DefaultScreenWidth,
		Height:               DefaultScreenHeight,
		Scale:                DefaultScale,
		Foreground:           Color(0xFFFFFFFF),
		Background:           Color(0x000000FF),
		PixelOutlines:        true,
		FrameRate:            DefaultFrameRate,
		InstructionsPerFrame: 1,
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.Width <= 0 || c.Width > 256 {
		errs = append(errs, fmt.Errorf("width must be in 1..256, got %d", c.Width))
	}
	if c.Height <= 0 || c.Height > 256 {
		errs = append(errs, fmt.Errorf("height must be in 1..256, got %d", c.Height))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale must be positive, got %d", c.Scale))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame rate must be positive, got %d", c.FrameRate))
	}
	if c.InstructionsPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("instructions per frame must be positive, got %d", c.InstructionsPerFrame))
	}

	return errors.Join(errs...)
}

// FrameInterval is the wall-clock duration of one controller cycle.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// Color is a 0xRRGGBBAA value. It implements pflag.Value.
type Color uint32

func (c Color) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// Set accepts RRGGBB or RRGGBBAA, optionally prefixed with "#" or "0x".
// A six digit value is treated as fully opaque.
func (c *Color) Set(s string) error {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", s, err)
	}

	switch len(h) {
	case 6:
		*c = Color(uint32(v)<<8 | 0xFF)
	case 8:
		*c = Color(uint32(v))
	default:
		return fmt.Errorf("invalid color %q: want RRGGBB or RRGGBBAA", s)
	}

	return nil
}

func (c *Color) Type() string {
	return "color"
}
