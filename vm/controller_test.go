package vm

import (
	"testing"

	"github.com/rv32edu/rv32emu/isa"
)

func TestGetControlSignalsAddi(t *testing.T) {
	instr := isa.FromRaw(addi(1, 0, 5))
	c, ok := GetControlSignals(instr, 0, false)
	if !ok {
		t.Fatal("ADDI should decode")
	}
	if c.ALUOp == nil || *c.ALUOp != ALUAdd {
		t.Errorf("ADDI ALUOp = %v, want ALUAdd", c.ALUOp)
	}
	if !c.RegWrite {
		t.Errorf("ADDI should write a register")
	}
	if c.DataDestSel == nil || *c.DataDestSel != DataDestALU {
		t.Errorf("ADDI should write back from the ALU")
	}
	if !c.IDInReady {
		t.Errorf("ADDI should complete in one ID cycle")
	}
}

func TestGetControlSignalsLUI(t *testing.T) {
	instr := isa.FromRaw(lui(1, 0x12345<<12))
	c, ok := GetControlSignals(instr, 0, false)
	if !ok {
		t.Fatal("LUI should decode")
	}
	if c.ALUOp == nil || *c.ALUOp != ALUSelB {
		t.Errorf("LUI should use ALUSelB to pass its immediate through")
	}
	if c.ALUOpBSel == nil || *c.ALUOpBSel != OpBSelIMM {
		t.Errorf("LUI's ALU B operand should be the immediate")
	}
}

func TestGetControlSignalsBranchCycles(t *testing.T) {
	instr := isa.FromRaw(beq(1, 2, 8))

	c0, ok := GetControlSignals(instr, 0, false)
	if !ok {
		t.Fatal("BEQ cycle 0 should decode")
	}
	if !c0.CmpSet {
		t.Errorf("BEQ cycle 0 should latch the comparator")
	}
	if c0.PCSet {
		t.Errorf("BEQ cycle 0 must not advance the PC yet")
	}

	cTaken, ok := GetControlSignals(instr, 1, true)
	if !ok {
		t.Fatal("BEQ cycle 1 should decode")
	}
	if !cTaken.JumpCond || cTaken.NextPCSel != PCSelJMP {
		t.Errorf("BEQ cycle 1 taken should redirect the PC via the jump mux")
	}

	cNotTaken, ok := GetControlSignals(instr, 1, false)
	if !ok {
		t.Fatal("BEQ cycle 1 (not taken) should decode")
	}
	if cNotTaken.JumpCond || cNotTaken.NextPCSel != PCSelPC4 {
		t.Errorf("BEQ cycle 1 not taken should just advance PC+4")
	}

	if _, ok := GetControlSignals(instr, 3, false); ok {
		t.Errorf("BEQ should not define a cycle 3")
	}
}

func TestGetControlSignalsLoadStoreTwoCycles(t *testing.T) {
	load := isa.FromRaw(lw(1, 2, 0))
	reqC, ok := GetControlSignals(load, 0, false)
	if !ok || !reqC.LSURequest || reqC.LSUWriteEnable {
		t.Fatalf("LW cycle 0 should issue a read request")
	}
	if reqC.IDInReady {
		t.Errorf("LW cycle 0 must stall ID for a second cycle")
	}
	wbC, ok := GetControlSignals(load, 1, false)
	if !ok || !wbC.RegWrite || wbC.DataDestSel == nil || *wbC.DataDestSel != DataDestLSU {
		t.Fatalf("LW cycle 1 should write back the LSU result")
	}

	store := isa.FromRaw(sw(1, 2, 0))
	sReqC, ok := GetControlSignals(store, 0, false)
	if !ok || !sReqC.LSURequest || !sReqC.LSUWriteEnable {
		t.Fatalf("SW cycle 0 should issue a write request")
	}
}

func TestGetControlSignalsJalLink(t *testing.T) {
	instr := isa.FromRaw(jal(1, 16))
	c0, ok := GetControlSignals(instr, 0, false)
	if !ok || !c0.JumpUncond || c0.NextPCSel != PCSelJMP {
		t.Fatalf("JAL cycle 0 should jump unconditionally")
	}
	c1, ok := GetControlSignals(instr, 1, false)
	if !ok || !c1.RegWrite || c1.ALUOpASel == nil || *c1.ALUOpASel != OpASelPC || c1.ALUOpBSel == nil || *c1.ALUOpBSel != OpBSelFour {
		t.Fatalf("JAL cycle 1 should compute pc+4 and write it back")
	}
}

func TestGetControlSignalsEbreakSetsDebugReq(t *testing.T) {
	instr := isa.FromRaw(ebreak())
	c, ok := GetControlSignals(instr, 0, false)
	if !ok || !c.DebugReq {
		t.Fatalf("EBREAK should set DebugReq")
	}
}

func TestGetControlSignalsEcallIsNoop(t *testing.T) {
	instr := isa.FromRaw(mustEncode(isa.FormatI, isa.OpcodeSystem, 0, 0, 0, 0, 0, 0))
	c, ok := GetControlSignals(instr, 0, false)
	if !ok || c.DebugReq || c.RegWrite {
		t.Fatalf("ECALL should be a plain no-op, not a debug request or register write")
	}
}

func TestLSUDataTypeByteEnable(t *testing.T) {
	if LSUByte.ByteEnable() != ByteEnableByte {
		t.Errorf("LSUByte.ByteEnable() mismatch")
	}
	if LSUHalfWord.ByteEnable() != ByteEnableHalfWord {
		t.Errorf("LSUHalfWord.ByteEnable() mismatch")
	}
	if LSUWord.ByteEnable() != ByteEnableWord {
		t.Errorf("LSUWord.ByteEnable() mismatch")
	}
}

func TestLSUDataTypeSizeInBits(t *testing.T) {
	if LSUByte.SizeInBits() != 8 || LSUHalfWord.SizeInBits() != 16 || LSUWord.SizeInBits() != 32 {
		t.Errorf("unexpected LSUDataType sizes")
	}
}
