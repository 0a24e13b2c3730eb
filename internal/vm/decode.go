package vm

import "fmt"

// Instruction is a decoded 16-bit instruction word. Every operand field is
// populated regardless of whether the opcode class uses it.
type Instruction struct {
	Opcode uint16
	NNN    uint16 // 12-bit address
	NN     uint8  // 8-bit immediate
	N      uint8  // 4-bit immediate
	X      uint8  // Register index, bits 8-11
	Y      uint8  // Register index, bits 4-7
}

// Decode never fails: validity is decided when the instruction is dispatched.
func Decode(opcode uint16) Instruction {
	return Instruction{
		Opcode: opcode,
		NNN:    opcode & 0x0FFF,
		NN:     uint8(opcode & 0x00FF),
		N:      uint8(opcode & 0x000F),
		X:      uint8(opcode>>8) & 0x0F,
		Y:      uint8(opcode>>4) & 0x0F,
	}
}

// Class is the top nibble, the primary dispatch key.
func (in Instruction) Class() uint8 {
	return uint8(in.Opcode >> 12)
}

func (in Instruction) String() string {
	return fmt.Sprintf("0x%04x", in.Opcode)
}
