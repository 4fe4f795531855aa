package debugger

import (
	"strings"
	"testing"

	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/isa"
	"github.com/rv32edu/rv32emu/vm"
)

func mustEncode(t *testing.T, format isa.Format, opcode, rd, funct3, rs1, rs2, funct7 uint32, imm int32) uint32 {
	t.Helper()
	instr, err := isa.Encode(format, opcode, rd, funct3, rs1, rs2, funct7, imm)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return instr.Raw()
}

func buildProgram(t *testing.T, words ...uint32) *asm.AssembledProgram {
	t.Helper()
	p := &asm.AssembledProgram{
		InstructionMemory: make(map[uint32]byte),
		DataMemory:        make(map[uint32]byte),
		Labels:            make(map[string]int64),
		SourceMapLineToPC: make(map[int]uint32),
		SourceMapPCToLine: make(map[uint32]int),
	}
	for i, w := range words {
		addr := uint32(i * 4)
		p.InstructionMemory[addr] = byte(w)
		p.InstructionMemory[addr+1] = byte(w >> 8)
		p.InstructionMemory[addr+2] = byte(w >> 16)
		p.InstructionMemory[addr+3] = byte(w >> 24)
	}
	return p
}

func addi(t *testing.T, rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(t, isa.FormatI, isa.OpcodeOpImm, rd, 0b000, rs1, 0, 0, imm)
}

func ebreak(t *testing.T) uint32 {
	return mustEncode(t, isa.FormatI, isa.OpcodeSystem, 0, 0b000, 0, 0, 0, 1)
}

func newTestDebugger(t *testing.T, words ...uint32) *Debugger {
	t.Helper()
	prog := buildProgram(t, words...)
	emu := vm.NewEmulator(prog, vm.PipelineCVE2, nil)
	return NewDebugger(emu, prog, 50)
}

func TestDebuggerContinueStopsAtEbreak(t *testing.T) {
	d := newTestDebugger(t, addi(t, 1, 0, 5), ebreak(t))

	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue failed: %v", err)
	}
	if d.LastStop != "ebreak" {
		t.Errorf("LastStop = %q, want ebreak", d.LastStop)
	}
	if got := d.Emulator.Registers.Get(1); got != 5 {
		t.Errorf("x1 = %d, want 5", got)
	}
}

func TestDebuggerBreakpointStopsContinue(t *testing.T) {
	d := newTestDebugger(t,
		addi(t, 1, 0, 1),
		addi(t, 1, 1, 1),
		addi(t, 1, 1, 1),
		ebreak(t),
	)

	if err := d.ExecuteCommand("break 8"); err != nil {
		t.Fatalf("break failed: %v", err)
	}
	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue failed: %v", err)
	}
	if d.LastStop != "breakpoint" {
		t.Errorf("LastStop = %q, want breakpoint", d.LastStop)
	}
}

func TestDebuggerWatchpointReportsChange(t *testing.T) {
	sb := func(rs1, rs2 uint32, imm int32) uint32 {
		return mustEncode(t, isa.FormatS, isa.OpcodeStore, 0, 0b000, rs1, rs2, 0, imm)
	}
	d := newTestDebugger(t,
		addi(t, 1, 0, 0x42),
		sb(0, 1, 0),
		ebreak(t),
	)

	if err := d.ExecuteCommand("watch 0"); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "watchpoint 1") {
		t.Errorf("expected a watchpoint hit message, got %q", out)
	}
}

func TestDebuggerRegistersCommand(t *testing.T) {
	d := newTestDebugger(t, addi(t, 1, 0, 7), ebreak(t))
	_ = d.ExecuteCommand("continue")

	if err := d.ExecuteCommand("registers"); err != nil {
		t.Fatalf("registers failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "x1") {
		t.Errorf("registers output should mention x1, got %q", out)
	}
}

func TestDebuggerResetRestoresEntryState(t *testing.T) {
	d := newTestDebugger(t, addi(t, 1, 0, 7), ebreak(t))
	_ = d.ExecuteCommand("continue")

	if err := d.ExecuteCommand("reset"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if got := d.Emulator.Registers.Get(1); got != 0 {
		t.Errorf("x1 after reset = %d, want 0", got)
	}
	if d.Emulator.Cycles != 0 {
		t.Errorf("Cycles after reset = %d, want 0", d.Emulator.Cycles)
	}
}

func TestDebuggerBackReportsPriorSnapshot(t *testing.T) {
	d := newTestDebugger(t, addi(t, 1, 0, 1), addi(t, 1, 1, 1), ebreak(t))

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if err := d.ExecuteCommand("back 1"); err != nil {
		t.Fatalf("back failed: %v", err)
	}
	if out := d.GetOutput(); !strings.Contains(out, "cycle") {
		t.Errorf("back output should mention the snapshot's cycle, got %q", out)
	}
}

func TestDebuggerUnknownCommandErrors(t *testing.T) {
	d := newTestDebugger(t, ebreak(t))
	if err := d.ExecuteCommand("frobnicate"); err == nil {
		t.Errorf("unknown command should return an error")
	}
}

func TestDebuggerEmptyCommandRepeatsLast(t *testing.T) {
	d := newTestDebugger(t, addi(t, 1, 0, 1), addi(t, 1, 1, 1), ebreak(t))
	_ = d.ExecuteCommand("step")
	before := d.Emulator.Cycles

	if err := d.ExecuteCommand(""); err != nil {
		t.Fatalf("empty command failed: %v", err)
	}
	if d.Emulator.Cycles <= before {
		t.Errorf("empty command should have repeated step and advanced cycles")
	}
}
