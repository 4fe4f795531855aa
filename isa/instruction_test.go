package isa

import "testing"

func TestEncodeDecodeRoundTripR(t *testing.T) {
	instr, err := Encode(FormatR, OpcodeOp, 5, 0b000, 6, 7, 0b0000000, 0)
	if err != nil {
		t.Fatalf("encode ADD failed: %v", err)
	}
	if instr.Opcode() != OpcodeOp || instr.Rd() != 5 || instr.Rs1() != 6 || instr.Rs2() != 7 {
		t.Fatalf("decoded fields don't match encoded: %+v", instr)
	}
	def, ok := DefinitionFor(instr)
	if !ok || def.Mnemonic != "ADD" {
		t.Fatalf("expected ADD, got %+v", def)
	}
}

func TestEncodeDecodeRoundTripI(t *testing.T) {
	for _, imm := range []int32{0, 1, -1, 2047, -2048} {
		instr, err := Encode(FormatI, OpcodeOpImm, 1, 0b000, 2, 0, 0, imm)
		if err != nil {
			t.Fatalf("encode ADDI(%d) failed: %v", imm, err)
		}
		got, ok := instr.Immediate()
		if !ok || got != imm {
			t.Fatalf("ADDI imm round trip failed: want %d got %d (ok=%v)", imm, got, ok)
		}
	}
}

func TestEncodeIOutOfRange(t *testing.T) {
	if _, err := Encode(FormatI, OpcodeOpImm, 1, 0b000, 2, 0, 0, 4096); err == nil {
		t.Fatalf("expected out-of-range error for imm=4096")
	}
}

func TestEncodeDecodeRoundTripS(t *testing.T) {
	for _, imm := range []int32{0, 4, -4, 2047, -2048} {
		instr, err := Encode(FormatS, OpcodeStore, 0, 0b010, 3, 4, 0, imm)
		if err != nil {
			t.Fatalf("encode SW(%d) failed: %v", imm, err)
		}
		got, ok := instr.Immediate()
		if !ok || got != imm {
			t.Fatalf("SW imm round trip failed: want %d got %d", imm, got)
		}
	}
}

func TestEncodeDecodeRoundTripB(t *testing.T) {
	for _, imm := range []int32{0, 4, -4, 2046, -2048, 2048, -2050, 4094, -4096} {
		instr, err := Encode(FormatB, OpcodeBranch, 0, 0b000, 1, 2, 0, imm)
		if err != nil {
			t.Fatalf("encode BEQ(%d) failed: %v", imm, err)
		}
		got, ok := instr.Immediate()
		if !ok || got != imm {
			t.Fatalf("BEQ imm round trip failed: want %d got %d", imm, got)
		}
	}
}

func TestEncodeBOddOffsetRejected(t *testing.T) {
	if _, err := Encode(FormatB, OpcodeBranch, 0, 0b000, 1, 2, 0, 3); err == nil {
		t.Fatalf("expected error encoding odd branch offset")
	}
}

func TestEncodeDecodeRoundTripU(t *testing.T) {
	instr, err := Encode(FormatU, OpcodeLUI, 10, 0, 0, 0, 0, 0x12345000)
	if err != nil {
		t.Fatalf("encode LUI failed: %v", err)
	}
	got, ok := instr.Immediate()
	if !ok || got != 0x12345000 {
		t.Fatalf("LUI imm round trip failed: want 0x12345000 got %#x", got)
	}
}

func TestEncodeUNonZeroLowBitsRejected(t *testing.T) {
	if _, err := Encode(FormatU, OpcodeLUI, 10, 0, 0, 0, 0, 0x1); err == nil {
		t.Fatalf("expected error for non-zero low 12 bits")
	}
}

func TestEncodeDecodeRoundTripJ(t *testing.T) {
	for _, imm := range []int32{0, 4, -4, 1048574, -1048576, 1048572, -1048574, 2, -2} {
		instr, err := Encode(FormatJ, OpcodeJAL, 1, 0, 0, 0, 0, imm)
		if err != nil {
			t.Fatalf("encode JAL(%d) failed: %v", imm, err)
		}
		got, ok := instr.Immediate()
		if !ok || got != imm {
			t.Fatalf("JAL imm round trip failed: want %d got %d", imm, got)
		}
	}
}

func TestDefinitionForUnknownOpcode(t *testing.T) {
	instr := FromRaw(0x7F) // opcode 0x7F is not a valid RV32I opcode
	if _, ok := DefinitionFor(instr); ok {
		t.Fatalf("expected DefinitionFor to fail on unrecognized opcode")
	}
}

func TestSLLIFunct7EncodedInImmediate(t *testing.T) {
	instr, err := Encode(FormatI, OpcodeOpImm, 1, 0b001, 2, 0, 0, 5)
	if err != nil {
		t.Fatalf("encode SLLI failed: %v", err)
	}
	def, ok := DefinitionFor(instr)
	if !ok || def.Mnemonic != "SLLI" {
		t.Fatalf("expected SLLI, got %+v", def)
	}
}

func TestSRAIDistinguishedBySignBit(t *testing.T) {
	instr, err := Encode(FormatI, OpcodeOpImm, 1, 0b101, 2, 0, 0b0100000, 5)
	if err != nil {
		t.Fatalf("encode SRAI failed: %v", err)
	}
	def, ok := DefinitionFor(instr)
	if !ok || def.Mnemonic != "SRAI" {
		t.Fatalf("expected SRAI, got %+v", def)
	}
}
