package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

type noPacer struct {
	waits int
}

func (p *noPacer) Wait() { p.waits++ }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pacer = &noPacer{}
	return cfg
}

// assemble encodes instruction words big-endian.
func assemble(words ...uint16) []byte {
	bs := make([]byte, 0, 2*len(words))
	for _, w := range words {
		bs = append(bs, byte(w>>8), byte(w))
	}
	return bs
}

func newTestVM(t *testing.T, words ...uint16) *VM {
	t.Helper()

	m, err := New(assemble(words...), testConfig())
	assert.NoError(t, err)
	return m
}

func step(t *testing.T, m *VM, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		assert.NoError(t, m.Step())
	}
}

// fakeHAL replays one Input per cycle and then asks to quit.
type fakeHAL struct {
	inputs []Input
	polls  int
	frames []*Framebuffer
}

func (h *fakeHAL) ReadInput() (Input, error) {
	h.polls++
	if len(h.inputs) == 0 {
		return Input{Quit: true}, nil
	}

	in := h.inputs[0]
	h.inputs = h.inputs[1:]
	return in, nil
}

func (h *fakeHAL) Draw(frame Frame) error {
	h.frames = append(h.frames, frame.Framebuffer.Snapshot())
	return nil
}

func idle(n int) []Input {
	return make([]Input, n)
}

func litCount(fb *Framebuffer) int {
	n := 0
	for _, p := range fb.Pixels() {
		if p {
			n++
		}
	}
	return n
}
