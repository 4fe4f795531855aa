package isa

import "fmt"

// Disassemble renders instr as a mnemonic text line. pc is used only to
// annotate PC-relative branch/jump targets with their absolute address in
// a trailing comment, matching the style debuggers use to show where a
// branch actually lands.
func Disassemble(instr Instruction, pc uint32) string {
	def, ok := DefinitionFor(instr)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", instr.Raw())
	}

	rd := ABIName(instr.Rd())
	rs1 := ABIName(instr.Rs1())
	rs2 := ABIName(instr.Rs2())
	imm, _ := instr.Immediate()

	switch def.Format {
	case FormatR:
		return fmt.Sprintf("%s %s, %s, %s", strLower(def.Mnemonic), rd, rs1, rs2)
	case FormatI:
		switch def.Mnemonic {
		case "JALR":
			return fmt.Sprintf("jalr %s, %d(%s)", rd, imm, rs1)
		case "ECALL", "EBREAK", "FENCE":
			return strLower(def.Mnemonic)
		case "LB", "LH", "LW", "LBU", "LHU":
			return fmt.Sprintf("%s %s, %d(%s)", strLower(def.Mnemonic), rd, imm, rs1)
		case "SLLI", "SRLI", "SRAI":
			return fmt.Sprintf("%s %s, %s, %d", strLower(def.Mnemonic), rd, rs1, imm&0x1F)
		default:
			return fmt.Sprintf("%s %s, %s, %d", strLower(def.Mnemonic), rd, rs1, imm)
		}
	case FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", strLower(def.Mnemonic), rs2, imm, rs1)
	case FormatB:
		target := pc + uint32(imm)
		return fmt.Sprintf("%s %s, %s, 0x%x", strLower(def.Mnemonic), rs1, rs2, target)
	case FormatU:
		return fmt.Sprintf("%s %s, 0x%x", strLower(def.Mnemonic), rd, uint32(imm)>>12)
	case FormatJ:
		target := pc + uint32(imm)
		return fmt.Sprintf("%s %s, 0x%x", strLower(def.Mnemonic), rd, target)
	default:
		return fmt.Sprintf(".word 0x%08x", instr.Raw())
	}
}

func strLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
