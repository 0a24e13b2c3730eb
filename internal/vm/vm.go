package vm

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	MemorySize    = 4096
	RegisterCount = 16
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	// MaxProgramSize is the space left above the reserved interpreter area.
	MaxProgramSize = MemorySize - int(ProgramStart)
)

// RunState is the controller state machine. Quit is terminal.
type RunState uint8

const (
	Running RunState = iota
	Paused
	Quit
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("RunState(%d)", uint8(s))
	}
}

// VM owns the complete state of one loaded program.
type VM struct {
	cfg   Config
	pacer Pacer

	memory    [MemorySize]uint8
	registers [RegisterCount]uint8 // V0-VF; VF doubles as carry/borrow/collision flag

	stack Stack
	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8
	soundTimer uint8

	gfx    *Framebuffer
	keypad [KeyCount]bool

	state   RunState
	current Instruction // Most recently decoded, for diagnostics

	program []byte
}

// New builds a machine with program loaded at ProgramStart.
func New(program []byte, cfg Config) (*VM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if len(program) > MaxProgramSize {
		return nil, fmt.Errorf("%w: %d bytes, at most %d allowed", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = NewFrameClock(cfg.FrameInterval())
	}

	vm := &VM{
		cfg:     cfg,
		pacer:   pacer,
		gfx:     NewFramebuffer(cfg.Width, cfg.Height),
		program: program,
	}
	vm.initialize()

	return vm, nil
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Input is what the input bridge reports once per cycle.
type Input struct {
	Keys [KeyCount]bool

	// TogglePause is edge-triggered: set only on the cycle the toggle was pressed.
	TogglePause bool
	Quit        bool
}

// Frame is handed to the renderer after a cycle completes.
type Frame struct {
	Framebuffer   *Framebuffer
	Foreground    Color
	Background    Color
	PixelOutlines bool
}

type HAL interface {
	ReadInput() (Input, error)
	Draw(frame Frame) error
}

// Run drives the fetch-decode-execute cycle until the machine quits, the
// context is cancelled or a fault occurs.
func (vm *VM) Run(ctx context.Context, hal HAL) error {
	for vm.state != Quit {
		if err := vm.runCycle(ctx, hal); err != nil {
			return err
		}
	}

	return nil
}

func (vm *VM) runCycle(ctx context.Context, hal HAL) error {
	if ctx.Err() != nil {
		slog.Debug("context cancelled", "err", ctx.Err())
		vm.state = Quit
		return nil
	}

	input, err := hal.ReadInput()
	if err != nil {
		return err
	}
	vm.applyInput(input)

	switch vm.state {
	case Quit:
		return nil
	case Paused:
		vm.pacer.Wait()
		return nil
	}

	for i := 0; i < vm.cfg.InstructionsPerFrame; i++ {
		if err := vm.Step(); err != nil {
			// The caller reports err; only the surrounding state is logged here.
			slog.Debug("machine state at fault",
				"index", fmt.Sprintf("0x%04x", vm.index),
				"sp", vm.stack.Depth(),
				"registers", fmt.Sprintf("% x", vm.registers[:]),
			)
			return err
		}
	}

	vm.tickTimers()
	vm.pacer.Wait()

	if err := hal.Draw(vm.frame()); err != nil {
		return fmt.Errorf("unable to draw frame: %w", err)
	}

	return nil
}

func (vm *VM) applyInput(input Input) {
	vm.keypad = input.Keys

	if input.Quit {
		slog.Debug("quit requested")
		vm.state = Quit
		return
	}

	if !input.TogglePause {
		return
	}

	switch vm.state {
	case Running:
		vm.state = Paused
		slog.Info("paused", "pc", fmt.Sprintf("0x%04x", vm.pc))
	case Paused:
		vm.state = Running
		slog.Info("resumed", "pc", fmt.Sprintf("0x%04x", vm.pc))
	}
}

func (vm *VM) frame() Frame {
	return Frame{
		Framebuffer:   vm.gfx,
		Foreground:    vm.cfg.Foreground,
		Background:    vm.cfg.Background,
		PixelOutlines: vm.cfg.PixelOutlines,
	}
}

func (vm *VM) initialize() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.stack.Reset()
	vm.gfx.Clear()
	vm.keypad = [KeyCount]bool{}
	vm.registers = [RegisterCount]uint8{}
	vm.memory = [MemorySize]uint8{}

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontAddr), "n", len(chip8Font))
	copy(vm.memory[FontAddr:], chip8Font)

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
	copy(vm.memory[ProgramStart:], vm.program)

	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.state = Running
}

// Step executes exactly one instruction, ignoring the run state.
func (vm *VM) Step() error {
	pc := vm.pc
	if int(pc)+1 >= MemorySize {
		return &Fault{Err: ErrPCOutOfBounds, PC: pc}
	}

	opcode := vm.fetchOpcode()
	vm.pc += InstructionSize

	return vm.executeOpcode(pc, opcode)
}

func (vm *VM) fetchOpcode() uint16 {
	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]

	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) tickTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}
	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

// writableSpan is span for stores; the font table is read-only.
func (vm *VM) writableSpan(addr uint16, n int) ([]uint8, error) {
	if int(addr) < FontAddr+len(chip8Font) {
		return nil, ErrAddressOutOfBounds
	}
	return vm.span(addr, n)
}

// span returns n bytes of memory starting at addr.
func (vm *VM) span(addr uint16, n int) ([]uint8, error) {
	end := int(addr) + n
	if end > MemorySize {
		return nil, ErrAddressOutOfBounds
	}
	return vm.memory[addr:end], nil
}

func (vm *VM) State() RunState { return vm.state }
func (vm *VM) PC() uint16 { return vm.pc }
func (vm *VM) Index() uint16 { return vm.index }
func (vm *VM) Register(i int) uint8 { return vm.registers[i&0x0F] }
func (vm *VM) DelayTimer() uint8 { return vm.delayTimer }
func (vm *VM) SoundTimer() uint8 { return vm.soundTimer }
func (vm *VM) StackDepth() int { return vm.stack.Depth() }
func (vm *VM) Framebuffer() *Framebuffer { return vm.gfx }
func (vm *VM) Current() Instruction { return vm.current }
