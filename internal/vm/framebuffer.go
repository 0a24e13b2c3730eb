package vm

// Framebuffer is a monochrome bitmap, one bool per pixel, row-major.
type Framebuffer struct {
	width  int
	height int
	pixels []bool
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pixels: make([]bool, width*height),
	}
}

func (fb *Framebuffer) Width() int { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }

// Pixel reports whether (x, y) is lit. Off-screen coordinates are never lit.
func (fb *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return false
	}
	return fb.pixels[y*fb.width+x]
}

// Pixels exposes the backing slice. Callers must not retain it past the
// current frame.
func (fb *Framebuffer) Pixels() []bool {
	return fb.pixels
}

func (fb *Framebuffer) Clear() {
	for i := range fb.pixels {
		fb.pixels[i] = false
	}
}

// Snapshot returns an independent copy of the framebuffer.
func (fb *Framebuffer) Snapshot() *Framebuffer {
	cp := &Framebuffer{
		width:  fb.width,
		height: fb.height,
		pixels: make([]bool, len(fb.pixels)),
	}
	copy(cp.pixels, fb.pixels)
	return cp
}

// Blit XORs an 8 pixel wide sprite onto the framebuffer. The origin wraps
// modulo the framebuffer size; anything past the right or bottom edge is
// clipped. It reports whether any lit pixel was turned off.
func (fb *Framebuffer) Blit(x, y int, sprite []byte) bool {
	const spriteWidth = 8

	originX := x % fb.width
	originY := y % fb.height

	collision := false
	for row, bits := range sprite {
		py := originY + row
		if py >= fb.height {
			break
		}

		for col := 0; col < spriteWidth; col++ {
			px := originX + col
			if px >= fb.width {
				break
			}

			if bits&(0x80>>col) == 0 {
				continue
			}

			i := py*fb.width + px
			if fb.pixels[i] {
				collision = true
			}
			fb.pixels[i] = !fb.pixels[i]
		}
	}

	return collision
}
