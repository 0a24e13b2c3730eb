package vm

import (
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
	assert.Equal(t, Color(0xFFFFFFFF), cfg.Foreground)
	assert.Equal(t, Color(0x000000FF), cfg.Background)
	assert.True(t, cfg.PixelOutlines)
	assert.False(t, cfg.Strict)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"huge height", func(c *Config) { c.Height = 1000 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"negative rate", func(c *Config) { c.FrameRate = -1 }},
		{"zero ipf", func(c *Config) { c.InstructionsPerFrame = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestColorSet(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#bea700", Color(0xBEA700FF), true},
		{"bea700", Color(0xBEA700FF), true},
		{"0x11223344", Color(0x11223344), true},
		{"#FFFFFFFF", Color(0xFFFFFFFF), true},
		{"fff", 0, false},
		{"zzzzzz", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Color
			err := c.Set(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := Color(0x11223344).RGBA()

	assert.Equal(t, uint8(0x11), r)
	assert.Equal(t, uint8(0x22), g)
	assert.Equal(t, uint8(0x33), b)
	assert.Equal(t, uint8(0x44), a)
	assert.Equal(t, "#11223344", Color(0x11223344).String())
}
