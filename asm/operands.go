package asm

import (
	"fmt"

	"github.com/rv32edu/rv32emu/isa"
)

// encodeInstruction parses the mnemonic-and-operands tail of a line and
// produces its encoded word. pc is the instruction's own address, needed
// to turn a branch/jump target label into a PC-relative immediate.
func (st *asmState) encodeInstruction(toks []Token, resolve func(string, Token) (Address, error), pc uint32) (uint32, error) {
	mnemonicTok := toks[0]
	def, ok := isa.Lookup(mnemonicTok.Text)
	if !ok {
		return 0, fmt.Errorf("%s: invalid instruction %q", mnemonicTok.Pos, mnemonicTok.Text)
	}
	operands := splitOperands(toks[1:])

	evalExpr := func(toks []Token) (int64, error) {
		rpn, err := ShuntingYard(toks)
		if err != nil {
			return 0, err
		}
		addr, err := EvalRPN(rpn, resolve)
		if err != nil {
			return 0, err
		}
		return addr.Value.Int64(), nil
	}

	reg := func(toks []Token) (uint32, error) {
		if len(toks) != 1 || toks[0].Kind != TokenSymbol {
			return 0, fmt.Errorf("%s: expected register operand", mnemonicTok.Pos)
		}
		r, ok := isa.RegisterByName(toks[0].Text)
		if !ok {
			return 0, fmt.Errorf("%s: unknown register %q", toks[0].Pos, toks[0].Text)
		}
		return r, nil
	}

	memOperand := func(toks []Token) (base uint32, imm int64, err error) {
		lp, rp := -1, -1
		for i, t := range toks {
			if t.Kind == TokenLParen {
				lp = i
			}
			if t.Kind == TokenRParen {
				rp = i
			}
		}
		if lp < 0 || rp < 0 || rp != len(toks)-1 {
			return 0, 0, fmt.Errorf("%s: expected imm(reg) operand", mnemonicTok.Pos)
		}
		imm, err = evalExpr(toks[:lp])
		if err != nil {
			return 0, 0, err
		}
		base, err = reg(toks[lp+1 : rp])
		return base, imm, err
	}

	switch def.Format {
	case isa.FormatR:
		if len(operands) != 3 {
			return 0, fmt.Errorf("%s: expected 3 operands", mnemonicTok.Pos)
		}
		rd, err := reg(operands[0])
		if err != nil {
			return 0, err
		}
		rs1, err := reg(operands[1])
		if err != nil {
			return 0, err
		}
		rs2, err := reg(operands[2])
		if err != nil {
			return 0, err
		}
		instr, err := isa.Encode(isa.FormatR, def.Opcode, rd, def.Funct3, rs1, rs2, def.Funct7, 0)
		return instr.Raw(), err

	case isa.FormatI:
		switch def.Mnemonic {
		case "FENCE", "ECALL", "EBREAK":
			instr, err := isa.Encode(isa.FormatI, def.Opcode, 0, def.Funct3, 0, 0, 0, 0)
			return instr.Raw(), err
		case "LB", "LH", "LW", "LBU", "LHU":
			if len(operands) != 2 {
				return 0, fmt.Errorf("%s: expected 2 operands", mnemonicTok.Pos)
			}
			rd, err := reg(operands[0])
			if err != nil {
				return 0, err
			}
			rs1, imm, err := memOperand(operands[1])
			if err != nil {
				return 0, err
			}
			instr, err := isa.Encode(isa.FormatI, def.Opcode, rd, def.Funct3, rs1, 0, 0, int32(imm))
			return instr.Raw(), err
		case "JALR":
			if len(operands) != 2 {
				return 0, fmt.Errorf("%s: expected 2 operands", mnemonicTok.Pos)
			}
			rd, err := reg(operands[0])
			if err != nil {
				return 0, err
			}
			rs1, imm, err := memOperand(operands[1])
			if err != nil {
				return 0, err
			}
			instr, err := isa.Encode(isa.FormatI, def.Opcode, rd, def.Funct3, rs1, 0, 0, int32(imm))
			return instr.Raw(), err
		default:
			if len(operands) != 3 {
				return 0, fmt.Errorf("%s: expected 3 operands", mnemonicTok.Pos)
			}
			rd, err := reg(operands[0])
			if err != nil {
				return 0, err
			}
			rs1, err := reg(operands[1])
			if err != nil {
				return 0, err
			}
			imm, err := evalExpr(operands[2])
			if err != nil {
				return 0, err
			}
			var funct7 uint32
			if def.Mnemonic == "SLLI" || def.Mnemonic == "SRLI" {
				funct7 = 0
			} else if def.Mnemonic == "SRAI" {
				funct7 = 0b0100000
			}
			instr, err := isa.Encode(isa.FormatI, def.Opcode, rd, def.Funct3, rs1, 0, funct7, int32(imm))
			return instr.Raw(), err
		}

	case isa.FormatS:
		if len(operands) != 2 {
			return 0, fmt.Errorf("%s: expected 2 operands", mnemonicTok.Pos)
		}
		rs2, err := reg(operands[0])
		if err != nil {
			return 0, err
		}
		rs1, imm, err := memOperand(operands[1])
		if err != nil {
			return 0, err
		}
		instr, err := isa.Encode(isa.FormatS, def.Opcode, 0, def.Funct3, rs1, rs2, 0, int32(imm))
		return instr.Raw(), err

	case isa.FormatB:
		if len(operands) != 3 {
			return 0, fmt.Errorf("%s: expected 3 operands", mnemonicTok.Pos)
		}
		rs1, err := reg(operands[0])
		if err != nil {
			return 0, err
		}
		rs2, err := reg(operands[1])
		if err != nil {
			return 0, err
		}
		target, err := evalExpr(operands[2])
		if err != nil {
			return 0, err
		}
		imm := target - int64(pc)
		instr, err := isa.Encode(isa.FormatB, def.Opcode, 0, def.Funct3, rs1, rs2, 0, int32(imm))
		return instr.Raw(), err

	case isa.FormatU:
		if len(operands) != 2 {
			return 0, fmt.Errorf("%s: expected 2 operands", mnemonicTok.Pos)
		}
		rd, err := reg(operands[0])
		if err != nil {
			return 0, err
		}
		imm, err := evalExpr(operands[1])
		if err != nil {
			return 0, err
		}
		if imm < 0 || imm > 0xFFFFF {
			return 0, fmt.Errorf("%s: immediate %#x is out of range for U-type instruction (must fit in 20 bits)", mnemonicTok.Pos, imm)
		}
		instr, err := isa.Encode(isa.FormatU, def.Opcode, rd, 0, 0, 0, 0, int32(imm)<<12)
		return instr.Raw(), err

	case isa.FormatJ:
		if len(operands) != 2 {
			return 0, fmt.Errorf("%s: expected 2 operands", mnemonicTok.Pos)
		}
		rd, err := reg(operands[0])
		if err != nil {
			return 0, err
		}
		target, err := evalExpr(operands[1])
		if err != nil {
			return 0, err
		}
		imm := target - int64(pc)
		instr, err := isa.Encode(isa.FormatJ, def.Opcode, rd, 0, 0, 0, 0, int32(imm))
		return instr.Raw(), err

	default:
		return 0, fmt.Errorf("%s: unsupported instruction format", mnemonicTok.Pos)
	}
}

// splitOperands breaks a token run into comma-separated operand groups.
func splitOperands(toks []Token) [][]Token {
	var out [][]Token
	start := 0
	for i, t := range toks {
		if t.Kind == TokenComma {
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	out = append(out, toks[start:])
	return out
}
