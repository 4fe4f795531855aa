package vm

import "github.com/rv32edu/rv32emu/asm"

// PipelineKind selects which microarchitecture an Emulator runs.
type PipelineKind int

const (
	PipelineCVE2 PipelineKind = iota
	PipelineFiveStage
)

// BreakReason explains why ClockUntilBreak stopped.
type BreakReason int

const (
	BreakNone BreakReason = iota
	BreakDebug
	BreakBreakpoint
	BreakMaxCycles
)

// Emulator is the uniform façade spec.md §4.11 describes: it owns one
// pipeline variant plus the register file, data memory, and UART it
// drives, and exposes step/run-to operations that are agnostic to which
// pipeline is underneath.
type Emulator struct {
	Program   *asm.AssembledProgram
	Registers RegisterFile
	Memory    *MemoryModule
	UART      *UART
	Pipeline  Pipeline
	Cycles    uint64
}

// NewEmulator builds an emulator for program using the given pipeline
// variant, seeding the fetch stage at the program's .text entry point and
// attaching serialInput as the UART's Rx source.
func NewEmulator(program *asm.AssembledProgram, kind PipelineKind, serialInput []byte) *Emulator {
	e := &Emulator{
		Program: program,
		Memory:  NewMemoryModule(serialInput),
		UART:    NewUART(),
	}
	switch kind {
	case PipelineFiveStage:
		e.Pipeline = NewFiveStagePipeline()
	default:
		e.Pipeline = NewCVE2Pipeline()
	}
	e.Pipeline.SetIFPC(program.EntryTextStart, program)
	return e
}

// Clock runs exactly one cycle: the pipeline, then the UART.
func (e *Emulator) Clock() {
	e.Pipeline.Clock(e.Program, &e.Registers, e.Memory)
	e.UART.Trigger(e.Memory)
	e.Cycles++
}

// ClockUntilNextInstruction clocks until the instruction occupying the ID
// stage changes (i.e. the current one has retired and a new one has been
// latched), or max cycles have elapsed, whichever comes first. Returns the
// number of cycles actually run.
func (e *Emulator) ClockUntilNextInstruction(max uint64) uint64 {
	startPC, hadStart := e.Pipeline.IDPC()
	var ran uint64
	for ran < max {
		e.Clock()
		ran++
		pc, ok := e.Pipeline.IDPC()
		if ok && (!hadStart || pc != startPC) {
			break
		}
	}
	return ran
}

// ClockUntilBreak clocks until an EBREAK retires, the fetch PC hits one of
// breakpoints, or max cycles have elapsed.
func (e *Emulator) ClockUntilBreak(breakpoints map[uint32]bool, max uint64) (uint64, BreakReason) {
	var ran uint64
	for ran < max {
		e.Clock()
		ran++
		if e.Pipeline.RequestingDebug() {
			return ran, BreakDebug
		}
		for _, pos := range e.Pipeline.AllPCs() {
			if pos.Stage == "if" && breakpoints[pos.PC] {
				return ran, BreakBreakpoint
			}
		}
	}
	return ran, BreakMaxCycles
}
