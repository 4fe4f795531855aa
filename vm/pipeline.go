package vm

import "github.com/rv32edu/rv32emu/asm"

// PcPos names one pipeline stage's current program counter, for display
// (e.g. the debugger highlighting both the IF and ID lines at once on the
// two-stage core).
type PcPos struct {
	PC    uint32
	Stage string
}

// Pipeline is the uniform capability set both microarchitectures expose.
// The emulator façade dispatches through this interface rather than
// inheriting from a shared base — Go has no inheritance, and the two
// variants' internals differ enough (one latch pair vs. four) that sharing
// an interface is the only thing that should be shared.
type Pipeline interface {
	// Clock advances the pipeline by exactly one cycle.
	Clock(program *asm.AssembledProgram, registers *RegisterFile, dataMemory *MemoryModule)
	// SetIFPC seeds the fetch stage's PC (used to start execution at a
	// program's entry point). The CVE2 core also re-runs its PC mux and
	// fetch at once; the five-stage core empties IF/ID and ID/EX and
	// fetches from the new PC on the next Clock.
	SetIFPC(address uint32, program *asm.AssembledProgram)
	// RequestingDebug reports whether the instruction currently completing
	// is an EBREAK.
	RequestingDebug() bool
	// IDPC returns the PC of the instruction in the ID stage, if any.
	IDPC() (uint32, bool)
	// AllPCs returns every stage's current PC, for visualization.
	AllPCs() []PcPos
}
