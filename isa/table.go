package isa

import "strings"

// Def describes one RV32I mnemonic: its format and the fixed bits that
// select it out of the opcode/funct3/funct7 space. Funct3Valid/Funct7Valid
// are false for formats that don't carry that field (U, J carry neither;
// R/I/S/B may or may not depending on the specific opcode).
type Def struct {
	Mnemonic    string
	Format      Format
	Opcode      uint32
	Funct3      uint32
	Funct3Valid bool
	Funct7      uint32
	Funct7Valid bool
}

const (
	OpcodeLoad     = 0b0000011
	OpcodeStore    = 0b0100011
	OpcodeOpImm    = 0b0010011
	OpcodeOp       = 0b0110011
	OpcodeLUI      = 0b0110111
	OpcodeAUIPC    = 0b0010111
	OpcodeJAL      = 0b1101111
	OpcodeJALR     = 0b1100111
	OpcodeBranch   = 0b1100011
	OpcodeFence    = 0b0001111
	OpcodeSystem   = 0b1110011
)

var defs = []Def{
	// R-type (OP)
	{"ADD", FormatR, OpcodeOp, 0b000, true, 0b0000000, true},
	{"SUB", FormatR, OpcodeOp, 0b000, true, 0b0100000, true},
	{"SLL", FormatR, OpcodeOp, 0b001, true, 0b0000000, true},
	{"SLT", FormatR, OpcodeOp, 0b010, true, 0b0000000, true},
	{"SLTU", FormatR, OpcodeOp, 0b011, true, 0b0000000, true},
	{"XOR", FormatR, OpcodeOp, 0b100, true, 0b0000000, true},
	{"SRL", FormatR, OpcodeOp, 0b101, true, 0b0000000, true},
	{"SRA", FormatR, OpcodeOp, 0b101, true, 0b0100000, true},
	{"OR", FormatR, OpcodeOp, 0b110, true, 0b0000000, true},
	{"AND", FormatR, OpcodeOp, 0b111, true, 0b0000000, true},

	// I-type arithmetic (OP-IMM)
	{"ADDI", FormatI, OpcodeOpImm, 0b000, true, 0, false},
	{"SLTI", FormatI, OpcodeOpImm, 0b010, true, 0, false},
	{"SLTIU", FormatI, OpcodeOpImm, 0b011, true, 0, false},
	{"XORI", FormatI, OpcodeOpImm, 0b100, true, 0, false},
	{"ORI", FormatI, OpcodeOpImm, 0b110, true, 0, false},
	{"ANDI", FormatI, OpcodeOpImm, 0b111, true, 0, false},
	{"SLLI", FormatI, OpcodeOpImm, 0b001, true, 0b0000000, true},
	{"SRLI", FormatI, OpcodeOpImm, 0b101, true, 0b0000000, true},
	{"SRAI", FormatI, OpcodeOpImm, 0b101, true, 0b0100000, true},

	// I-type loads
	{"LB", FormatI, OpcodeLoad, 0b000, true, 0, false},
	{"LH", FormatI, OpcodeLoad, 0b001, true, 0, false},
	{"LW", FormatI, OpcodeLoad, 0b010, true, 0, false},
	{"LBU", FormatI, OpcodeLoad, 0b100, true, 0, false},
	{"LHU", FormatI, OpcodeLoad, 0b101, true, 0, false},

	// I-type jump
	{"JALR", FormatI, OpcodeJALR, 0b000, true, 0, false},

	// S-type stores
	{"SB", FormatS, OpcodeStore, 0b000, true, 0, false},
	{"SH", FormatS, OpcodeStore, 0b001, true, 0, false},
	{"SW", FormatS, OpcodeStore, 0b010, true, 0, false},

	// B-type branches
	{"BEQ", FormatB, OpcodeBranch, 0b000, true, 0, false},
	{"BNE", FormatB, OpcodeBranch, 0b001, true, 0, false},
	{"BLT", FormatB, OpcodeBranch, 0b100, true, 0, false},
	{"BGE", FormatB, OpcodeBranch, 0b101, true, 0, false},
	{"BLTU", FormatB, OpcodeBranch, 0b110, true, 0, false},
	{"BGEU", FormatB, OpcodeBranch, 0b111, true, 0, false},

	// U-type
	{"LUI", FormatU, OpcodeLUI, 0, false, 0, false},
	{"AUIPC", FormatU, OpcodeAUIPC, 0, false, 0, false},

	// J-type
	{"JAL", FormatJ, OpcodeJAL, 0, false, 0, false},

	// Misc / system (I-type shaped with rd=0,rs1=0,imm varying by raw pattern)
	{"FENCE", FormatI, OpcodeFence, 0b000, true, 0, false},
	{"ECALL", FormatI, OpcodeSystem, 0b000, true, 0, false},
	{"EBREAK", FormatI, OpcodeSystem, 0b000, true, 0, false},
	{"CSRRW", FormatI, OpcodeSystem, 0b001, true, 0, false},
	{"CSRRS", FormatI, OpcodeSystem, 0b010, true, 0, false},
	{"CSRRC", FormatI, OpcodeSystem, 0b011, true, 0, false},
	{"CSRRWI", FormatI, OpcodeSystem, 0b101, true, 0, false},
	{"CSRRSI", FormatI, OpcodeSystem, 0b110, true, 0, false},
	{"CSRRCI", FormatI, OpcodeSystem, 0b111, true, 0, false},
}

var byMnemonic map[string]Def

func init() {
	byMnemonic = make(map[string]Def, len(defs))
	for _, d := range defs {
		byMnemonic[d.Mnemonic] = d
	}
}

// Lookup finds the Def for a mnemonic (case-insensitive).
func Lookup(mnemonic string) (Def, bool) {
	d, ok := byMnemonic[strings.ToUpper(mnemonic)]
	return d, ok
}

// DefinitionFor resolves the Def matching an encoded instruction's
// opcode/funct3/funct7, i.e. the inverse of Lookup. Used by decode,
// disassembly, and the hazard detector (which needs an instruction's
// format without re-deriving the whole control signal set).
func DefinitionFor(instr Instruction) (Def, bool) {
	opcode := instr.Opcode()
	funct3 := uint32(instr.Funct3())
	funct7 := uint32(instr.Funct7())

	// SYSTEM opcode: ECALL/EBREAK share funct3==0 but differ by full raw
	// pattern (the imm field), not funct7, so special-case them here.
	if opcode == OpcodeSystem && funct3 == 0 {
		switch instr.Raw() {
		case 0b0000000_00000_00000_000_00000_1110011:
			return byMnemonic["ECALL"], true
		case 0b0000000_00001_00000_000_00000_1110011:
			return byMnemonic["EBREAK"], true
		default:
			return byMnemonic["ECALL"], true // no-op CSR-shaped system call
		}
	}

	for _, d := range defs {
		if d.Opcode != opcode {
			continue
		}
		if d.Funct3Valid && d.Funct3 != funct3 {
			continue
		}
		if d.Funct7Valid && d.Funct7 != funct7 {
			continue
		}
		return d, true
	}
	return Def{}, false
}

// AllMnemonics returns every recognized mnemonic, for assembler validation
// and the lint/help surfaces.
func AllMnemonics() []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Mnemonic)
	}
	return names
}
