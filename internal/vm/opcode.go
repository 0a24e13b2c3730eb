package vm

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// The program counter already points past the instruction when an operation
// runs, so jumps assign it and skips add one more InstructionSize.
type operation struct {
	Name    func(in Instruction) string
	Execute func(vm *VM, in Instruction) error
}

func (vm *VM) executeOpcode(pc, opcode uint16) error {
	in := Decode(opcode)
	vm.current = in

	op, ok := lookup(in)
	if !ok {
		if vm.cfg.Tracer != nil {
			vm.cfg.Tracer(pc, in, unknownName(in))
		}
		if vm.cfg.Strict {
			return &Fault{Err: ErrUnsupportedOpcode, PC: pc, Opcode: opcode}
		}
		slog.Debug("unsupported opcode ignored", "pc", fmt.Sprintf("0x%04x", pc), "opcode", in.String())
		return nil
	}

	if vm.cfg.Tracer != nil {
		vm.cfg.Tracer(pc, in, op.Name(in))
	}

	if err := op.Execute(vm, in); err != nil {
		return &Fault{Err: err, PC: pc, Opcode: opcode, Name: op.Name(in)}
	}

	return nil
}

func unknownName(in Instruction) string {
	return fmt.Sprintf("unknown 0x%04X", in.Opcode)
}

// Name returns the mnemonic for in, or "unknown" if it is not supported.
func Name(in Instruction) string {
	op, ok := lookup(in)
	if !ok {
		return unknownName(in)
	}
	return op.Name(in)
}

func lookup(in Instruction) (operation, bool) {
	switch in.Class() {
	case 0x0:
		switch in.NN {
		case 0xE0:
			// 00E0 - Clear screen
			return clsInstruction, true
		case 0xEE:
			// 00EE - Return from subroutine
			return rtsInstruction, true
		}

	case 0x1:
		// 1NNN - Jump to NNN
		return jmpInstruction, true

	case 0x2:
		// 2NNN - Call subroutine at NNN
		return jsrInstruction, true

	case 0x3:
		// 3XNN - Skip if VX == NN
		return skeq1Instruction, true

	case 0x4:
		// 4XNN - Skip if VX != NN
		return skne1Instruction, true

	case 0x5:
		// 5XY0 - Skip if VX == VY
		if in.N == 0 {
			return skeq2Instruction, true
		}

	case 0x6:
		// 6XNN - VX = NN
		return mov1Instruction, true

	case 0x7:
		// 7XNN - VX += NN, no carry
		return add1Instruction, true

	case 0x8:
		switch in.N {
		case 0x0:
			return mov2Instruction, true
		case 0x1:
			return orInstruction, true
		case 0x2:
			return andInstruction, true
		case 0x3:
			return xorInstruction, true
		case 0x4:
			return add2Instruction, true
		case 0x5:
			return subInstruction, true
		case 0x6:
			return shrInstruction, true
		case 0x7:
			return rsbInstruction, true
		case 0xE:
			return shlInstruction, true
		}

	case 0x9:
		// 9XY0 - Skip if VX != VY
		if in.N == 0 {
			return skne2Instruction, true
		}

	case 0xA:
		// ANNN - I = NNN
		return mviInstruction, true

	case 0xB:
		// BNNN - Jump to NNN + V0
		return jmiInstruction, true

	case 0xC:
		// CXNN - VX = random & NN
		return randInstruction, true

	case 0xD:
		// DXYN - Draw N rows from I at (VX, VY), VF = collision
		return spriteInstruction, true

	case 0xE:
		switch in.NN {
		case 0x9E:
			return skprInstruction, true
		case 0xA1:
			return skupInstruction, true
		}

	case 0xF:
		switch in.NN {
		case 0x07:
			return gdelayInstruction, true
		case 0x0A:
			return keyInstruction, true
		case 0x15:
			return sdelayInstruction, true
		case 0x18:
			return ssoundInstruction, true
		case 0x1E:
			return adiInstruction, true
		case 0x29:
			return fontInstruction, true
		case 0x33:
			return bcdInstruction, true
		case 0x55:
			return strInstruction, true
		case 0x65:
			return ldrInstruction, true
		}
	}

	return operation{}, false
}

func regName(in Instruction) string {
	return fmt.Sprintf("v%x", in.X)
}

func regPairName(mnemonic string) func(in Instruction) string {
	return func(in Instruction) string {
		return fmt.Sprintf("%s v%x, v%x", mnemonic, in.X, in.Y)
	}
}

func regImmName(mnemonic string) func(in Instruction) string {
	return func(in Instruction) string {
		return fmt.Sprintf("%s v%x, %d", mnemonic, in.X, in.NN)
	}
}

func regOnlyName(mnemonic string) func(in Instruction) string {
	return func(in Instruction) string {
		return mnemonic + " " + regName(in)
	}
}

func addrName(mnemonic string) func(in Instruction) string {
	return func(in Instruction) string {
		return fmt.Sprintf("%s 0x%04x", mnemonic, in.NNN)
	}
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

var (
	clsInstruction = operation{
		Name: func(Instruction) string { return "cls" },
		Execute: func(vm *VM, _ Instruction) error {
			vm.gfx.Clear()
			return nil
		},
	}

	rtsInstruction = operation{
		Name: func(Instruction) string { return "rts" },
		Execute: func(vm *VM, _ Instruction) error {
			pc, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			vm.pc = pc
			return nil
		},
	}

	jmpInstruction = operation{
		Name: addrName("jmp"),
		Execute: func(vm *VM, in Instruction) error {
			vm.pc = in.NNN
			return nil
		},
	}

	jsrInstruction = operation{
		Name: addrName("jsr"),
		Execute: func(vm *VM, in Instruction) error {
			if err := vm.stack.Push(vm.pc); err != nil {
				return err
			}
			vm.pc = in.NNN
			return nil
		},
	}

	skeq1Instruction = operation{
		Name: regImmName("skeq"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers[in.X] == in.NN)
			return nil
		},
	}

	skne1Instruction = operation{
		Name: regImmName("skne"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers[in.X] != in.NN)
			return nil
		},
	}

	skeq2Instruction = operation{
		Name: regPairName("skeq"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers[in.X] == vm.registers[in.Y])
			return nil
		},
	}

	mov1Instruction = operation{
		Name: regImmName("mov"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] = in.NN
			return nil
		},
	}

	// VF is left alone; only the 8XY_ arithmetic reports carry.
	add1Instruction = operation{
		Name: regImmName("add"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] += in.NN
			return nil
		},
	}

	mov2Instruction = operation{
		Name: regPairName("mov"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] = vm.registers[in.Y]
			return nil
		},
	}

	orInstruction = operation{
		Name: regPairName("or"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] |= vm.registers[in.Y]
			return nil
		},
	}

	andInstruction = operation{
		Name: regPairName("and"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] &= vm.registers[in.Y]
			return nil
		},
	}

	xorInstruction = operation{
		Name: regPairName("xor"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] ^= vm.registers[in.Y]
			return nil
		},
	}

	// The flag is written after the result so VF ends up holding the flag
	// when X is F.
	add2Instruction = operation{
		Name: regPairName("add"),
		Execute: func(vm *VM, in Instruction) error {
			sum := uint16(vm.registers[in.X]) + uint16(vm.registers[in.Y])
			vm.registers[in.X] = uint8(sum)
			vm.registers[0x0F] = uint8(sum >> 8)
			return nil
		},
	}

	subInstruction = operation{
		Name: regPairName("sub"),
		Execute: func(vm *VM, in Instruction) error {
			x, y := vm.registers[in.X], vm.registers[in.Y]
			vm.registers[in.X] = x - y
			vm.registers[0x0F] = boolToFlag(x >= y)
			return nil
		},
	}

	shrInstruction = operation{
		Name: regOnlyName("shr"),
		Execute: func(vm *VM, in Instruction) error {
			x := vm.registers[in.X]
			vm.registers[in.X] = x >> 1
			vm.registers[0x0F] = x & 0x1
			return nil
		},
	}

	rsbInstruction = operation{
		Name: regPairName("rsb"),
		Execute: func(vm *VM, in Instruction) error {
			x, y := vm.registers[in.X], vm.registers[in.Y]
			vm.registers[in.X] = y - x
			vm.registers[0x0F] = boolToFlag(y >= x)
			return nil
		},
	}

	shlInstruction = operation{
		Name: regOnlyName("shl"),
		Execute: func(vm *VM, in Instruction) error {
			x := vm.registers[in.X]
			vm.registers[in.X] = x << 1
			vm.registers[0x0F] = x >> 7
			return nil
		},
	}

	skne2Instruction = operation{
		Name: regPairName("skne"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers[in.X] != vm.registers[in.Y])
			return nil
		},
	}

	mviInstruction = operation{
		Name: addrName("mvi"),
		Execute: func(vm *VM, in Instruction) error {
			vm.index = in.NNN
			return nil
		},
	}

	// May leave the address space; the next fetch reports it.
	jmiInstruction = operation{
		Name: addrName("jmi"),
		Execute: func(vm *VM, in Instruction) error {
			vm.pc = in.NNN + uint16(vm.registers[0])
			return nil
		},
	}

	randInstruction = operation{
		Name: regImmName("rand"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] = uint8(rand.Intn(256)) & in.NN
			return nil
		},
	}

	spriteInstruction = operation{
		Name: func(in Instruction) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", in.X, in.Y, in.N)
		},
		Execute: func(vm *VM, in Instruction) error {
			x, y := int(vm.registers[in.X]), int(vm.registers[in.Y])

			// Rows below the bottom edge are never read.
			rows := min(int(in.N), vm.gfx.Height()-y%vm.gfx.Height())
			sprite, err := vm.span(vm.index, rows)
			if err != nil {
				return err
			}

			vm.registers[0x0F] = 0
			if vm.gfx.Blit(x, y, sprite) {
				vm.registers[0x0F] = 1
			}
			return nil
		},
	}

	skprInstruction = operation{
		Name: regOnlyName("skpr"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.keypad[vm.registers[in.X]&0x0F])
			return nil
		},
	}

	skupInstruction = operation{
		Name: regOnlyName("skup"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(!vm.keypad[vm.registers[in.X]&0x0F])
			return nil
		},
	}

	gdelayInstruction = operation{
		Name: regOnlyName("gdelay"),
		Execute: func(vm *VM, in Instruction) error {
			vm.registers[in.X] = vm.delayTimer
			return nil
		},
	}

	// Blocks by re-executing itself until a key is held.
	keyInstruction = operation{
		Name: regOnlyName("key"),
		Execute: func(vm *VM, in Instruction) error {
			for i, down := range vm.keypad {
				if down {
					vm.registers[in.X] = uint8(i)
					return nil
				}
			}

			vm.pc -= InstructionSize
			return nil
		},
	}

	sdelayInstruction = operation{
		Name: regOnlyName("sdelay"),
		Execute: func(vm *VM, in Instruction) error {
			vm.delayTimer = vm.registers[in.X]
			return nil
		},
	}

	ssoundInstruction = operation{
		Name: regOnlyName("ssound"),
		Execute: func(vm *VM, in Instruction) error {
			vm.soundTimer = vm.registers[in.X]
			return nil
		},
	}

	adiInstruction = operation{
		Name: regOnlyName("adi"),
		Execute: func(vm *VM, in Instruction) error {
			vm.index += uint16(vm.registers[in.X])
			return nil
		},
	}

	fontInstruction = operation{
		Name: regOnlyName("font"),
		Execute: func(vm *VM, in Instruction) error {
			vm.index = FontAddr + uint16(vm.registers[in.X]&0x0F)*FontGlyphHeight
			return nil
		},
	}

	bcdInstruction = operation{
		Name: regOnlyName("bcd"),
		Execute: func(vm *VM, in Instruction) error {
			dst, err := vm.writableSpan(vm.index, 3)
			if err != nil {
				return err
			}

			x := vm.registers[in.X]
			dst[0] = x / 100
			dst[1] = (x / 10) % 10
			dst[2] = x % 10
			return nil
		},
	}

	// I ends up past the last stored register, as on the original interpreter.
	strInstruction = operation{
		Name: func(in Instruction) string {
			return fmt.Sprintf("str v0-v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			n := int(in.X) + 1
			dst, err := vm.writableSpan(vm.index, n)
			if err != nil {
				return err
			}

			copy(dst, vm.registers[:n])
			vm.index += uint16(n)
			return nil
		},
	}

	ldrInstruction = operation{
		Name: func(in Instruction) string {
			return fmt.Sprintf("ldr v0-v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			n := int(in.X) + 1
			src, err := vm.span(vm.index, n)
			if err != nil {
				return err
			}

			copy(vm.registers[:n], src)
			vm.index += uint16(n)
			return nil
		},
	}
)

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
