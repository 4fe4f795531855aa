package vm

import "github.com/rv32edu/rv32emu/isa"

// OpASel selects the ALU's first operand.
type OpASel int

const (
	OpASelPC OpASel = iota
	OpASelRF
)

// OpBSel selects the ALU's second operand.
type OpBSel int

const (
	OpBSelRF OpBSel = iota
	OpBSelIMM
	OpBSelFour
)

// DataDestSel selects what gets written back to the destination register.
type DataDestSel int

const (
	DataDestALU DataDestSel = iota
	DataDestLSU
)

// LSUDataType is the width an LSU request operates on.
type LSUDataType int

const (
	LSUWord LSUDataType = iota
	LSUHalfWord
	LSUByte
)

// ByteEnable returns the byte-enable mask for a request of this width.
func (t LSUDataType) ByteEnable() ByteEnable {
	switch t {
	case LSUWord:
		return ByteEnableWord
	case LSUHalfWord:
		return ByteEnableHalfWord
	default:
		return ByteEnableByte
	}
}

// SizeInBits returns the width of a request of this type, in bits.
func (t LSUDataType) SizeInBits() uint {
	switch t {
	case LSUWord:
		return 32
	case LSUHalfWord:
		return 16
	default:
		return 8
	}
}

// PCSel selects how the next PC is computed.
type PCSel int

const (
	PCSelPC4 PCSel = iota
	PCSelJMP
)

// Control is the full set of control signals driving one cycle of either
// pipeline's datapath. Pointer fields represent "don't care": many opcodes
// legitimately leave a mux unselected, and a sentinel value would collide
// with a real selection, so nil is used instead of a zero value.
type Control struct {
	ALUOpASel *OpASel
	ALUOpBSel *OpBSel
	ALUOp     *ALUOp

	LSUDataType    *LSUDataType
	LSURequest     bool
	LSUWriteEnable bool
	LSUSignExt     bool

	DataDestSel *DataDestSel
	RegWrite    bool

	CmpSet     bool
	JumpUncond bool
	JumpCond   bool
	PCSet      bool
	NextPCSel  PCSel
	InstrReq   bool
	IDInReady  bool

	DebugReq bool
}

// DefaultControl is the "do nothing, advance normally" control vector: no
// ALU/LSU/register-write activity, PC advances by 4, the front end keeps
// fetching.
func DefaultControl() Control {
	return Control{
		PCSet:     true,
		NextPCSel: PCSelPC4,
		InstrReq:  true,
		IDInReady: true,
	}
}

func opASel(s OpASel) *OpASel { return &s }
func opBSel(s OpBSel) *OpBSel { return &s }
func aluOp(op ALUOp) *ALUOp   { return &op }
func dataDestSel(s DataDestSel) *DataDestSel { return &s }
func dataType(t LSUDataType) *LSUDataType { return &t }

func arithmeticControl(a OpASel, b OpBSel, op ALUOp) Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(a)
	c.ALUOpBSel = opBSel(b)
	c.ALUOp = aluOp(op)
	c.DataDestSel = dataDestSel(DataDestALU)
	c.RegWrite = true
	return c
}

func registerControl(op ALUOp) Control {
	return arithmeticControl(OpASelRF, OpBSelRF, op)
}

func immediateControl(op ALUOp) Control {
	return arithmeticControl(OpASelRF, OpBSelIMM, op)
}

func loadRequestControl(t LSUDataType) Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(OpASelRF)
	c.ALUOpBSel = opBSel(OpBSelIMM)
	c.ALUOp = aluOp(ALUAdd)
	c.LSUDataType = dataType(t)
	c.LSURequest = true
	c.LSUWriteEnable = false
	c.PCSet = false
	c.InstrReq = false
	c.IDInReady = false
	return c
}

func loadWriteControl(t LSUDataType, signExt bool) Control {
	c := DefaultControl()
	c.LSUDataType = dataType(t)
	c.LSUSignExt = signExt
	c.DataDestSel = dataDestSel(DataDestLSU)
	c.RegWrite = true
	return c
}

func storeRequestControl(t LSUDataType) Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(OpASelRF)
	c.ALUOpBSel = opBSel(OpBSelIMM)
	c.ALUOp = aluOp(ALUAdd)
	c.LSUDataType = dataType(t)
	c.LSURequest = true
	c.LSUWriteEnable = true
	c.PCSet = false
	c.InstrReq = false
	c.IDInReady = false
	return c
}

func storeCompletionControl() Control {
	return DefaultControl()
}

func jumpControl(base OpASel) Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(base)
	c.ALUOpBSel = opBSel(OpBSelIMM)
	c.ALUOp = aluOp(ALUAdd)
	c.JumpUncond = true
	c.NextPCSel = PCSelJMP
	c.PCSet = true
	c.IDInReady = false
	return c
}

func linkControl() Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(OpASelPC)
	c.ALUOpBSel = opBSel(OpBSelFour)
	c.ALUOp = aluOp(ALUAdd)
	c.DataDestSel = dataDestSel(DataDestALU)
	c.RegWrite = true
	return c
}

func branchCmpControl(op ALUOp) Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(OpASelRF)
	c.ALUOpBSel = opBSel(OpBSelRF)
	c.ALUOp = aluOp(op)
	c.CmpSet = true
	c.PCSet = false
	c.InstrReq = false
	c.IDInReady = false
	return c
}

func branchJumpControl() Control {
	c := DefaultControl()
	c.ALUOpASel = opASel(OpASelPC)
	c.ALUOpBSel = opBSel(OpBSelIMM)
	c.ALUOp = aluOp(ALUAdd)
	c.JumpCond = true
	c.NextPCSel = PCSelJMP
	c.PCSet = true
	c.IDInReady = false
	return c
}

// GetControlSignals decodes one cycle's control vector for instr, given how
// many cycles it has already spent in the ID stage and (for the second
// cycle of a conditional branch) the latched comparison result. Returns
// false if the opcode is entirely unrecognized (an undefined instruction
// fetched past the end of a program): the caller treats that as a default
// no-op rather than a fault.
func GetControlSignals(instr isa.Instruction, instrCycle uint32, cmpResult bool) (Control, bool) {
	switch instr.Opcode() {
	case isa.OpcodeLUI:
		return immediateControl(ALUSelB), true

	case isa.OpcodeAUIPC:
		return arithmeticControl(OpASelPC, OpBSelIMM, ALUAdd), true

	case isa.OpcodeJAL:
		switch instrCycle {
		case 0:
			return jumpControl(OpASelPC), true
		case 1:
			return linkControl(), true
		default:
			return Control{}, false
		}

	case isa.OpcodeJALR:
		switch instrCycle {
		case 0:
			return jumpControl(OpASelRF), true
		case 1:
			return linkControl(), true
		default:
			return Control{}, false
		}

	case isa.OpcodeBranch:
		switch instrCycle {
		case 0:
			op, ok := branchCompareOp(instr.Funct3())
			if !ok {
				return Control{}, false
			}
			return branchCmpControl(op), true
		case 1:
			if cmpResult {
				return branchJumpControl(), true
			}
			return DefaultControl(), true
		case 2:
			// Nop-bubble: only reached on the taken path, to let the
			// branch target land in IF before ID accepts a new instruction.
			return DefaultControl(), true
		default:
			return Control{}, false
		}

	case isa.OpcodeLoad:
		dt, signExt, ok := loadDataType(instr.Funct3())
		if !ok {
			return Control{}, false
		}
		switch instrCycle {
		case 0:
			return loadRequestControl(dt), true
		case 1:
			return loadWriteControl(dt, signExt), true
		default:
			return Control{}, false
		}

	case isa.OpcodeStore:
		dt, ok := storeDataType(instr.Funct3())
		if !ok {
			return Control{}, false
		}
		switch instrCycle {
		case 0:
			return storeRequestControl(dt), true
		case 1:
			return storeCompletionControl(), true
		default:
			return Control{}, false
		}

	case isa.OpcodeOpImm:
		op, ok := immArithOp(instr.Funct3(), instr.Raw())
		if !ok {
			return Control{}, false
		}
		return immediateControl(op), true

	case isa.OpcodeOp:
		op, ok := regArithOp(instr.Funct3(), instr.Funct7())
		if !ok {
			return Control{}, false
		}
		return registerControl(op), true

	case isa.OpcodeFence:
		if instr.Funct3() == 0 {
			return DefaultControl(), true
		}
		return Control{}, false

	case isa.OpcodeSystem:
		switch instr.Raw() {
		case 0x00000073: // ECALL
			return DefaultControl(), true
		case 0x00100073: // EBREAK
			c := DefaultControl()
			c.DebugReq = true
			return c, true
		default:
			// CSR instructions: no-op per the Non-goal on CSR support.
			return DefaultControl(), true
		}

	default:
		return Control{}, false
	}
}

func branchCompareOp(funct3 uint32) (ALUOp, bool) {
	switch funct3 {
	case 0b000:
		return ALUEq, true
	case 0b001:
		return ALUNeq, true
	case 0b100:
		return ALULt, true
	case 0b101:
		return ALUGe, true
	case 0b110:
		return ALULtu, true
	case 0b111:
		return ALUGeu, true
	default:
		return 0, false
	}
}

func loadDataType(funct3 uint32) (LSUDataType, bool, bool) {
	signExt := funct3&0b100 == 0
	switch funct3 & 0b011 {
	case 0b00:
		return LSUByte, signExt, true
	case 0b01:
		return LSUHalfWord, signExt, true
	case 0b10:
		return LSUWord, signExt, true
	default:
		return 0, false, false
	}
}

func storeDataType(funct3 uint32) (LSUDataType, bool) {
	switch funct3 {
	case 0b000:
		return LSUByte, true
	case 0b001:
		return LSUHalfWord, true
	case 0b010:
		return LSUWord, true
	default:
		return 0, false
	}
}

func immArithOp(funct3 uint32, raw uint32) (ALUOp, bool) {
	switch funct3 {
	case 0b000:
		return ALUAdd, true
	case 0b001:
		return ALUSll, true
	case 0b010:
		return ALULt, true
	case 0b011:
		return ALULtu, true
	case 0b100:
		return ALUXor, true
	case 0b101:
		if (raw>>30)&1 == 0 {
			return ALUSrl, true
		}
		return ALUSra, true
	case 0b110:
		return ALUOr, true
	case 0b111:
		return ALUAnd, true
	default:
		return 0, false
	}
}

func regArithOp(funct3, funct7 uint32) (ALUOp, bool) {
	switch {
	case funct3 == 0b000 && funct7 == 0b0000000:
		return ALUAdd, true
	case funct3 == 0b000 && funct7 == 0b0100000:
		return ALUSub, true
	case funct3 == 0b001 && funct7 == 0b0000000:
		return ALUSll, true
	case funct3 == 0b010 && funct7 == 0b0000000:
		return ALULt, true
	case funct3 == 0b011 && funct7 == 0b0000000:
		return ALULtu, true
	case funct3 == 0b100 && funct7 == 0b0000000:
		return ALUXor, true
	case funct3 == 0b101 && funct7 == 0b0000000:
		return ALUSrl, true
	case funct3 == 0b101 && funct7 == 0b0100000:
		return ALUSra, true
	case funct3 == 0b110 && funct7 == 0b0000000:
		return ALUOr, true
	case funct3 == 0b111 && funct7 == 0b0000000:
		return ALUAnd, true
	default:
		return 0, false
	}
}
