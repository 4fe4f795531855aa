package isa

import "fmt"

// Instruction is a raw 32-bit RV32I word with format-aware field accessors.
type Instruction uint32

// FromRaw wraps an already-encoded 32-bit word, performing no validation.
// Used by the fetch stage, which trusts memory contents are well-formed.
func FromRaw(word uint32) Instruction {
	return Instruction(word)
}

func (i Instruction) Raw() uint32 {
	return uint32(i)
}

func (i Instruction) Opcode() uint32 {
	return Bits(uint32(i), 0, 7)
}

func (i Instruction) Rd() uint32 {
	return Bits(uint32(i), 7, 5)
}

func (i Instruction) Funct3() uint32 {
	return Bits(uint32(i), 12, 3)
}

func (i Instruction) Rs1() uint32 {
	return Bits(uint32(i), 15, 5)
}

func (i Instruction) Rs2() uint32 {
	return Bits(uint32(i), 20, 5)
}

func (i Instruction) Funct7() uint32 {
	return Bits(uint32(i), 25, 7)
}

// Immediate decodes this instruction's immediate field according to its
// format, or returns (0, false) if the opcode/funct3/funct7 combination
// doesn't match any known Def (format is unknown, so there's no immediate
// layout to apply).
func (i Instruction) Immediate() (int32, bool) {
	def, ok := DefinitionFor(i)
	if !ok {
		return 0, false
	}
	raw := uint32(i)
	switch def.Format {
	case FormatI:
		return SignExtend(Bits(raw, 20, 12), 12), true
	case FormatS:
		imm := (Bits(raw, 25, 7) << 5) | Bits(raw, 7, 5)
		return SignExtend(imm, 12), true
	case FormatB:
		imm := (Bit(raw, 31) << 12) | (Bit(raw, 7) << 11) | (Bits(raw, 25, 6) << 5) | (Bits(raw, 8, 4) << 1)
		return SignExtend(imm, 13), true
	case FormatU:
		return int32(Bits(raw, 12, 20) << 12), true
	case FormatJ:
		imm := (Bit(raw, 31) << 19) | (Bits(raw, 12, 8) << 11) | (Bit(raw, 20) << 10) | (Bits(raw, 21, 10))
		// imm is now bits [19:0] of a 20-bit value whose bit 19 is the true
		// sign bit (instr bit 31); shift into place before sign-extending.
		return SignExtend(imm<<1, 21), true
	default:
		return 0, false
	}
}

// BuildError reports why Encode rejected an operand combination.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return e.Message
}

func rangeErr(field string, val uint32) error {
	return &BuildError{Message: fmt.Sprintf("%s %#x is out of range", field, val)}
}

// Encode assembles a raw instruction word from its fields, validating
// every field's width and every format's immediate-range constraint
// before committing to a result. Fields unused by format (e.g. rs2 for
// I-type) must be passed as 0.
func Encode(format Format, opcode, rd, funct3, rs1, rs2, funct7 uint32, imm int32) (Instruction, error) {
	if opcode != Bits(opcode, 0, 7) {
		return 0, rangeErr("opcode", opcode)
	}
	if rd != Bits(rd, 0, 5) {
		return 0, rangeErr("rd", rd)
	}
	if funct3 != Bits(funct3, 0, 3) {
		return 0, rangeErr("funct3", funct3)
	}
	if rs1 != Bits(rs1, 0, 5) {
		return 0, rangeErr("rs1", rs1)
	}
	if rs2 != Bits(rs2, 0, 5) {
		return 0, rangeErr("rs2", rs2)
	}
	if funct7 != Bits(funct7, 0, 7) {
		return 0, rangeErr("funct7", funct7)
	}

	switch format {
	case FormatR:
		if imm != 0 {
			return 0, &BuildError{Message: "unexpected immediate for R-type instruction"}
		}
		return encodeR(opcode, rd, funct3, rs1, rs2, funct7), nil
	case FormatI:
		if rs2 != 0 {
			return 0, &BuildError{Message: "unexpected rs2 for I-type instruction"}
		}
		if opcode == OpcodeOpImm && (funct3 == 0b001 || funct3 == 0b101) {
			if Bits(uint32(imm), 5, 7) != 0 {
				return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for shift instruction", imm)}
			}
			return encodeI(opcode, rd, funct3, rs1, imm|int32(funct7<<5))
		}
		if funct7 != 0 {
			return 0, &BuildError{Message: "unexpected funct7 for I-type instruction"}
		}
		return encodeI(opcode, rd, funct3, rs1, imm)
	case FormatS:
		if rd != 0 {
			return 0, &BuildError{Message: "unexpected rd for S-type instruction"}
		}
		if funct7 != 0 {
			return 0, &BuildError{Message: "unexpected funct7 for S-type instruction"}
		}
		return encodeS(opcode, funct3, rs1, rs2, imm)
	case FormatB:
		if rd != 0 {
			return 0, &BuildError{Message: "unexpected rd for B-type instruction"}
		}
		if funct7 != 0 {
			return 0, &BuildError{Message: "unexpected funct7 for B-type instruction"}
		}
		return encodeB(opcode, funct3, rs1, rs2, imm)
	case FormatU:
		if funct3 != 0 || rs1 != 0 || rs2 != 0 || funct7 != 0 {
			return 0, &BuildError{Message: "unexpected funct3/rs1/rs2/funct7 for U-type instruction"}
		}
		return encodeU(opcode, rd, imm)
	case FormatJ:
		if funct3 != 0 || rs1 != 0 || rs2 != 0 || funct7 != 0 {
			return 0, &BuildError{Message: "unexpected funct3/rs1/rs2/funct7 for J-type instruction"}
		}
		return encodeJ(opcode, rd, imm)
	default:
		return 0, &BuildError{Message: "unknown instruction format"}
	}
}

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) Instruction {
	return Instruction((funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode)
}

func fitsSigned12(imm int32) bool {
	return fitsSignedN(imm, 12)
}

func fitsSignedN(imm int32, width uint) bool {
	return imm == int32(SignExtend(uint32(imm), width))
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) (Instruction, error) {
	if !fitsSigned12(imm) {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for I-type instruction", imm)}
	}
	u := uint32(imm)
	return Instruction((u << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode), nil
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) (Instruction, error) {
	if !fitsSigned12(imm) {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for S-type instruction", imm)}
	}
	u := uint32(imm)
	return Instruction((Bits(u, 5, 7) << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (Bits(u, 0, 5) << 7) | opcode), nil
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) (Instruction, error) {
	if imm%2 != 0 {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x for B-type instruction must be even", imm)}
	}
	if !fitsSignedN(imm, 13) {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for B-type instruction", imm)}
	}
	u := uint32(imm)
	return Instruction((Bit(u, 12) << 31) |
		(Bits(u, 5, 6) << 25) |
		(rs2 << 20) |
		(rs1 << 15) |
		(funct3 << 12) |
		(Bits(u, 1, 4) << 8) |
		(Bit(u, 11) << 7) |
		opcode), nil
}

func encodeU(opcode, rd uint32, imm int32) (Instruction, error) {
	if imm != int32(Bits(uint32(imm), 12, 20)<<12) {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for U-type instruction: lower 12 bits must be 0", imm)}
	}
	u := uint32(imm)
	return Instruction((Bits(u, 12, 20) << 12) | (rd << 7) | opcode), nil
}

func encodeJ(opcode, rd uint32, imm int32) (Instruction, error) {
	if imm%2 != 0 {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x for J-type instruction must be even", imm)}
	}
	if imm != int32(SignExtend(uint32(imm), 21)) {
		return 0, &BuildError{Message: fmt.Sprintf("immediate %#x is out of range for J-type instruction", imm)}
	}
	u := uint32(imm)
	return Instruction((Bit(u, 20) << 31) |
		(Bits(u, 1, 10) << 21) |
		(Bit(u, 11) << 20) |
		(Bits(u, 12, 8) << 12) |
		(rd << 7) |
		opcode), nil
}
