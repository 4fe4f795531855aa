package vm

import (
	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/isa"
)

// mustEncode panics on encode failure, for building fixed instruction
// sequences in test tables where every word is known-valid.
func mustEncode(format isa.Format, opcode, rd, funct3, rs1, rs2, funct7 uint32, imm int32) uint32 {
	instr, err := isa.Encode(format, opcode, rd, funct3, rs1, rs2, funct7, imm)
	if err != nil {
		panic(err)
	}
	return instr.Raw()
}

// buildProgram lays out words starting at address 0 in .text and returns an
// AssembledProgram ready to hand to a Pipeline, without going through the
// assembler's lexer/parser.
func buildProgram(words ...uint32) *asm.AssembledProgram {
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

func addi(rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeOpImm, rd, 0b000, rs1, 0, 0, imm)
}

func add(rd, rs1, rs2 uint32) uint32 {
	return mustEncode(isa.FormatR, isa.OpcodeOp, rd, 0b000, rs1, rs2, 0, 0)
}

func lui(rd uint32, imm int32) uint32 {
	return mustEncode(isa.FormatU, isa.OpcodeLUI, rd, 0, 0, 0, 0, imm)
}

func beq(rs1, rs2 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatB, isa.OpcodeBranch, 0, 0b000, rs1, rs2, 0, imm)
}

func jal(rd uint32, imm int32) uint32 {
	return mustEncode(isa.FormatJ, isa.OpcodeJAL, rd, 0, 0, 0, 0, imm)
}

func sb(rs1, rs2 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatS, isa.OpcodeStore, 0, 0b000, rs1, rs2, 0, imm)
}

func sw(rs1, rs2 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatS, isa.OpcodeStore, 0, 0b010, rs1, rs2, 0, imm)
}

func lb(rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeLoad, rd, 0b000, rs1, 0, 0, imm)
}

func lbu(rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeLoad, rd, 0b100, rs1, 0, 0, imm)
}

func andi(rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeOpImm, rd, 0b111, rs1, 0, 0, imm)
}

func lw(rd, rs1 uint32, imm int32) uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeLoad, rd, 0b010, rs1, 0, 0, imm)
}

func ebreak() uint32 {
	return mustEncode(isa.FormatI, isa.OpcodeSystem, 0, 0b000, 0, 0, 0, 1)
}
