package vm

import "testing"

func TestCVE2PipelineImplementsInterface(t *testing.T) {
	var _ Pipeline = NewCVE2Pipeline()
}

func TestCVE2LuiAddiAdd(t *testing.T) {
	prog := buildProgram(
		lui(1, 0x12345<<12),
		addi(1, 1, 0x678),
		add(2, 1, 1),
		ebreak(),
	)
	emu := NewEmulator(prog, PipelineCVE2, nil)
	_, reason := emu.ClockUntilBreak(nil, 500)
	if reason != BreakDebug {
		t.Fatalf("expected BreakDebug, got %v", reason)
	}
	if got := emu.Registers.Get(1); got != 0x12345678 {
		t.Errorf("x1 = %#x, want 0x12345678", got)
	}
	if got := emu.Registers.Get(2); got != 0x2468ACF0 {
		t.Errorf("x2 = %#x, want 0x2468ACF0", got)
	}
}

func TestCVE2BranchTaken(t *testing.T) {
	prog := buildProgram(
		addi(1, 0, 5),  // 0
		addi(2, 0, 5),  // 4
		beq(1, 2, 8),   // 8  -> skip to 16
		addi(3, 0, 1),  // 12 (skipped)
		addi(4, 0, 2),  // 16
		ebreak(),       // 20
	)
	emu := NewEmulator(prog, PipelineCVE2, nil)
	_, reason := emu.ClockUntilBreak(nil, 500)
	if reason != BreakDebug {
		t.Fatalf("expected BreakDebug, got %v", reason)
	}
	if got := emu.Registers.Get(3); got != 0 {
		t.Errorf("x3 = %d, want 0 (branch should have skipped it)", got)
	}
	if got := emu.Registers.Get(4); got != 2 {
		t.Errorf("x4 = %d, want 2", got)
	}
}

func TestCVE2LoadStoreRoundTrip(t *testing.T) {
	prog := buildProgram(
		addi(1, 0, 0x55),
		sb(0, 1, 0),
		lb(2, 0, 0),
		lbu(3, 0, 0),
		addi(1, 0, -1),
		sb(0, 1, 4),
		lb(2, 0, 4),
		lbu(4, 0, 4),
		ebreak(),
	)
	emu := NewEmulator(prog, PipelineCVE2, nil)
	_, reason := emu.ClockUntilBreak(nil, 500)
	if reason != BreakDebug {
		t.Fatalf("expected BreakDebug, got %v", reason)
	}
	if got := emu.Registers.Get(3); got != 0x55 {
		t.Errorf("x3 (lbu of 0x55) = %#x, want 0x55", got)
	}
	if got := emu.Registers.Get(2); got != 0xFFFFFFFF {
		t.Errorf("x2 (lb of 0xFF, sign-extended) = %#x, want 0xFFFFFFFF", got)
	}
	if got := emu.Registers.Get(4); got != 0xFF {
		t.Errorf("x4 (lbu of 0xFF, zero-extended) = %#x, want 0xFF", got)
	}
}

func TestCVE2JALLink(t *testing.T) {
	prog := buildProgram(
		jal(1, 8),      // 0 -> target at 8, link = 4
		addi(2, 0, 99), // 4 (skipped)
		addi(2, 0, 7),  // 8
		ebreak(),       // 12
	)
	emu := NewEmulator(prog, PipelineCVE2, nil)
	_, reason := emu.ClockUntilBreak(nil, 500)
	if reason != BreakDebug {
		t.Fatalf("expected BreakDebug, got %v", reason)
	}
	if got := emu.Registers.Get(1); got != 4 {
		t.Errorf("x1 (link address) = %#x, want 4", got)
	}
	if got := emu.Registers.Get(2); got != 7 {
		t.Errorf("x2 = %d, want 7", got)
	}
}

func TestCVE2UnalignedSetIFPCPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("SetIFPC with an unaligned address should panic")
		}
	}()
	p := NewCVE2Pipeline()
	p.SetIFPC(1, buildProgram(ebreak()))
}

func TestCVE2PCAlwaysAligned(t *testing.T) {
	prog := buildProgram(
		addi(1, 0, 1),
		addi(1, 1, 1),
		addi(1, 1, 1),
		ebreak(),
	)
	emu := NewEmulator(prog, PipelineCVE2, nil)
	for i := 0; i < 50; i++ {
		emu.Clock()
		for _, pos := range emu.Pipeline.AllPCs() {
			if pos.PC%4 != 0 {
				t.Fatalf("cycle %d: stage %s PC %#x is not 4-byte aligned", i, pos.Stage, pos.PC)
			}
		}
		if emu.Registers.Get(0) != 0 {
			t.Fatalf("cycle %d: x0 must always read as 0", i)
		}
	}
}
