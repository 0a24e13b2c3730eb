package vm

import (
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge = errors.New("program too large")

	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrPCOutOfBounds      = errors.New("program counter out of bounds")
	ErrAddressOutOfBounds = errors.New("address out of bounds")
	ErrUnsupportedOpcode  = errors.New("unsupported opcode")
)

// Fault is a fatal machine-state violation. The run that produced it cannot
// continue.
type Fault struct {
	Err    error  // One of the Err* sentinels
	PC     uint16 // Address of the faulting instruction
	Opcode uint16
	Name   string // Mnemonic, if the opcode was decoded
}

func (f *Fault) Error() string {
	if f.Name != "" {
		return fmt.Sprintf("%v at 0x%04x (opcode 0x%04x, %s)", f.Err, f.PC, f.Opcode, f.Name)
	}
	return fmt.Sprintf("%v at 0x%04x (opcode 0x%04x)", f.Err, f.PC, f.Opcode)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
