package vm

import (
	"fmt"
	"log/slog"
)

// Tracer is called with the address, decoded form and mnemonic of each
// instruction before it changes any state.
type Tracer func(pc uint16, in Instruction, name string)

// LogTracer writes every instruction to logger at debug level.
func LogTracer(logger *slog.Logger) Tracer {
	return func(pc uint16, in Instruction, name string) {
		logger.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", pc),
			"opcode", in.String(),
			"instr", name,
		)
	}
}
