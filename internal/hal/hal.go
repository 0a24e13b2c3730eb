package hal

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/kapitanov/chip8/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

// ErrReboot asks the caller to restart the program on a fresh machine.
var ErrReboot = errors.New("reboot")

// HAL is the SDL window, renderer and keyboard behind a running machine.
type HAL struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	width  int
	height int
	scale  int

	backBuffer      []uint32
	backBufferPitch int
	outlines        []sdl.Rect

	latch vm.Input
}

var _ vm.HAL = (*HAL)(nil)

func New(cfg vm.Config) (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	windowWidth := int32(cfg.Width * cfg.Scale)
	windowHeight := int32(cfg.Height * cfg.Scale)

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, windowWidth, windowHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "w", windowWidth, "h", windowHeight)

	h := &HAL{
		window:          window,
		width:           cfg.Width,
		height:          cfg.Height,
		scale:           cfg.Scale,
		backBuffer:      make([]uint32, cfg.Width*cfg.Height),
		backBufferPitch: cfg.Width * int(unsafe.Sizeof(uint32(0))),
	}

	h.renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		h.Shutdown()
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	if err = h.renderer.SetLogicalSize(windowWidth, windowHeight); err != nil {
		h.Shutdown()
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	h.texture, err = h.renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING, int32(cfg.Width), int32(cfg.Height))
	if err != nil {
		h.Shutdown()
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	return h, nil
}

// Shutdown releases whatever New managed to create.
func (h *HAL) Shutdown() {
	if h.texture != nil {
		if err := h.texture.Destroy(); err != nil {
			slog.Error("failed to destroy sdl texture", "err", err)
		}
	}

	if h.renderer != nil {
		if err := h.renderer.Destroy(); err != nil {
			slog.Error("failed to destroy sdl renderer", "err", err)
		}
	}

	if h.window != nil {
		if err := h.window.Destroy(); err != nil {
			slog.Error("failed to destroy sdl window", "err", err)
		}
	}

	sdl.Quit()
}

func (h *HAL) ReadInput() (vm.Input, error) {
	// Pause is an edge; it must not survive into the next poll.
	h.latch.TogglePause = false

	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			h.latch.Quit = true

		case sdl.KEYDOWN:
			if err := h.processKeyDown(e.(*sdl.KeyboardEvent)); err != nil {
				return h.latch, err
			}

		case sdl.KEYUP:
			h.processKeyUp(e.(*sdl.KeyboardEvent))
		}
	}

	return h.latch, nil
}

func (h *HAL) processKeyDown(e *sdl.KeyboardEvent) error {
	switch e.Keysym.Scancode {
	case sdl.SCANCODE_BACKSPACE:
		return ErrReboot
	case sdl.SCANCODE_ESCAPE:
		h.latch.Quit = true
		return nil
	case sdl.SCANCODE_SPACE:
		if e.Repeat == 0 {
			h.latch.TogglePause = true
		}
		return nil
	}

	if key, ok := keyMap(e.Keysym.Scancode); ok {
		h.latch.Keys[key] = true
	}

	return nil
}

func (h *HAL) processKeyUp(e *sdl.KeyboardEvent) {
	if key, ok := keyMap(e.Keysym.Scancode); ok {
		h.latch.Keys[key] = false
	}
}

func keyMap(code sdl.Scancode) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch code {
	case sdl.SCANCODE_X:
		return vm.Key0, true
	case sdl.SCANCODE_1:
		return vm.Key1, true
	case sdl.SCANCODE_2:
		return vm.Key2, true
	case sdl.SCANCODE_3:
		return vm.Key3, true
	case sdl.SCANCODE_Q:
		return vm.Key4, true
	case sdl.SCANCODE_W:
		return vm.Key5, true
	case sdl.SCANCODE_E:
		return vm.Key6, true
	case sdl.SCANCODE_A:
		return vm.Key7, true
	case sdl.SCANCODE_S:
		return vm.Key8, true
	case sdl.SCANCODE_D:
		return vm.Key9, true
	case sdl.SCANCODE_Z:
		return vm.KeyA, true
	case sdl.SCANCODE_C:
		return vm.KeyB, true
	case sdl.SCANCODE_4:
		return vm.KeyC, true
	case sdl.SCANCODE_R:
		return vm.KeyD, true
	case sdl.SCANCODE_F:
		return vm.KeyE, true
	case sdl.SCANCODE_V:
		return vm.KeyF, true
	default:
		return 0, false
	}
}

func (h *HAL) Draw(frame vm.Frame) error {
	fb := frame.Framebuffer
	if fb.Width() != h.width || fb.Height() != h.height {
		return fmt.Errorf("framebuffer is %dx%d, window expects %dx%d", fb.Width(), fb.Height(), h.width, h.height)
	}

	fillBackBuffer(h.backBuffer, fb.Pixels(), frame.Foreground, frame.Background)

	backBufferPtr := unsafe.Pointer(&h.backBuffer[0])
	if err := h.texture.Update(nil, backBufferPtr, h.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := h.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := h.renderer.Copy(h.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	if frame.PixelOutlines {
		if err := h.drawOutlines(fb, frame.Background); err != nil {
			return err
		}
	}

	h.renderer.Present()
	return nil
}

func (h *HAL) drawOutlines(fb *vm.Framebuffer, c vm.Color) error {
	h.outlines = outlineRects(h.outlines[:0], fb, h.scale)
	if len(h.outlines) == 0 {
		return nil
	}

	r, g, b, a := c.RGBA()
	if err := h.renderer.SetDrawColor(r, g, b, a); err != nil {
		return fmt.Errorf("failed to set sdl draw color: %w", err)
	}

	if err := h.renderer.DrawRects(h.outlines); err != nil {
		return fmt.Errorf("failed to draw pixel outlines: %w", err)
	}

	return nil
}

// fillBackBuffer converts lit/unlit pixels into RGBA8888 texels.
func fillBackBuffer(dst []uint32, pixels []bool, fg, bg vm.Color) {
	for i, lit := range pixels {
		if lit {
			dst[i] = uint32(fg)
		} else {
			dst[i] = uint32(bg)
		}
	}
}

// outlineRects returns one window-space rectangle per lit pixel.
func outlineRects(dst []sdl.Rect, fb *vm.Framebuffer, scale int) []sdl.Rect {
	s := int32(scale)
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			if fb.Pixel(x, y) {
				dst = append(dst, sdl.Rect{X: int32(x) * s, Y: int32(y) * s, W: s, H: s})
			}
		}
	}
	return dst
}
