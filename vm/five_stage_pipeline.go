package vm

import (
	"fmt"

	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/isa"
)

// destSel picks which of the EX stage's computed values a five-stage
// instruction writes back — the classic ALU/LSU pair plus a third option
// for JAL/JALR's link value, which the textbook datapath computes on a
// dedicated PC+4 adder rather than routing through the main ALU.
type destSel int

const (
	destNone destSel = iota
	destALU
	destLSU
	destLink
)

// fiveStageDecode is everything the EX/MEM/WB stages need, derived once in
// ID from the raw instruction. Unlike the CVE2 controller this has no
// instr_cycle dimension: every five-stage instruction occupies its stage
// for exactly one cycle, with multi-cycle effects (branch resolution,
// load-use) handled entirely by the hazard detector's stalls instead of a
// per-opcode cycle table.
type fiveStageDecode struct {
	opASel OpASel
	opBSel OpBSel
	aluOp  ALUOp

	memRead  bool
	memWrite bool
	dataType LSUDataType
	signExt  bool

	regWrite bool
	dest     destSel

	isBranch bool
	isJump   bool
	jumpToRF bool // JALR: jump target base is rs1, not PC
}

func decodeFiveStage(instr isa.Instruction) (fiveStageDecode, bool) {
	switch instr.Opcode() {
	case isa.OpcodeLUI:
		return fiveStageDecode{opASel: OpASelRF, opBSel: OpBSelIMM, aluOp: ALUSelB, regWrite: true, dest: destALU}, true

	case isa.OpcodeAUIPC:
		return fiveStageDecode{opASel: OpASelPC, opBSel: OpBSelIMM, aluOp: ALUAdd, regWrite: true, dest: destALU}, true

	case isa.OpcodeJAL:
		return fiveStageDecode{isJump: true, regWrite: true, dest: destLink}, true

	case isa.OpcodeJALR:
		return fiveStageDecode{isJump: true, jumpToRF: true, regWrite: true, dest: destLink}, true

	case isa.OpcodeBranch:
		op, ok := branchCompareOp(instr.Funct3())
		if !ok {
			return fiveStageDecode{}, false
		}
		return fiveStageDecode{opASel: OpASelRF, opBSel: OpBSelRF, aluOp: op, isBranch: true}, true

	case isa.OpcodeLoad:
		dt, signExt, ok := loadDataType(instr.Funct3())
		if !ok {
			return fiveStageDecode{}, false
		}
		return fiveStageDecode{
			opASel: OpASelRF, opBSel: OpBSelIMM, aluOp: ALUAdd,
			memRead: true, dataType: dt, signExt: signExt,
			regWrite: true, dest: destLSU,
		}, true

	case isa.OpcodeStore:
		dt, ok := storeDataType(instr.Funct3())
		if !ok {
			return fiveStageDecode{}, false
		}
		return fiveStageDecode{
			opASel: OpASelRF, opBSel: OpBSelIMM, aluOp: ALUAdd,
			memWrite: true, dataType: dt,
		}, true

	case isa.OpcodeOpImm:
		op, ok := immArithOp(instr.Funct3(), instr.Raw())
		if !ok {
			return fiveStageDecode{}, false
		}
		return fiveStageDecode{opASel: OpASelRF, opBSel: OpBSelIMM, aluOp: op, regWrite: true, dest: destALU}, true

	case isa.OpcodeOp:
		op, ok := regArithOp(instr.Funct3(), instr.Funct7())
		if !ok {
			return fiveStageDecode{}, false
		}
		return fiveStageDecode{opASel: OpASelRF, opBSel: OpBSelRF, aluOp: op, regWrite: true, dest: destALU}, true

	case isa.OpcodeFence:
		return fiveStageDecode{}, instr.Funct3() == 0

	case isa.OpcodeSystem:
		return fiveStageDecode{}, true

	default:
		return fiveStageDecode{}, false
	}
}

type ifidLatch struct {
	valid bool
	pc    uint32
	instr uint32
}

type idexLatch struct {
	valid   bool
	pc      uint32
	instr   isa.Instruction
	decode  fiveStageDecode
	data1   uint32
	data2   uint32
	imm     int32
	rd      uint32
	debug   bool
}

type exmemLatch struct {
	valid    bool
	pc       uint32
	decode   fiveStageDecode
	aluOut   uint32
	storeVal uint32
	rd       uint32
	debug    bool
}

type memwbLatch struct {
	valid     bool
	decode    fiveStageDecode
	writeData uint32
	rd        uint32
	debug     bool
}

// FiveStagePipeline is the classic IF/ID/EX/MEM/WB in-order core: no data
// forwarding, so any instruction whose source register is still in flight
// stalls in ID until the hazard detector clears it. Control hazards
// (branches, jumps) similarly stall ID behind a fixed bubble count rather
// than speculating.
type FiveStagePipeline struct {
	pc uint32

	ifid  ifidLatch
	idex  idexLatch
	exmem exmemLatch
	memwb memwbLatch

	hazard HazardDetector
}

var _ Pipeline = (*FiveStagePipeline)(nil)

// NewFiveStagePipeline returns an empty five-stage pipeline fetching from
// address 0.
func NewFiveStagePipeline() *FiveStagePipeline {
	return &FiveStagePipeline{}
}

// Clock advances every stage by one cycle. Stages are evaluated in
// writeback-to-fetch order; each builds its output latch in a local
// (newMemwb, newExmem, newIdex, newIfid) from the latch feeding it, and all
// four latches are replaced together at the end of the cycle. A taken
// branch or jump in EX clears the IF/ID latch before ID reads it.
func (p *FiveStagePipeline) Clock(program *asm.AssembledProgram, registers *RegisterFile, dataMemory *MemoryModule) {
	// WB
	if p.memwb.valid && p.memwb.decode.regWrite {
		registers.Set(p.memwb.rd, p.memwb.writeData)
	}

	// MEM
	var newMemwb memwbLatch
	if p.exmem.valid {
		var memOut uint32
		if p.exmem.decode.memWrite {
			dataMemory.WriteWord(p.exmem.aluOut, p.exmem.storeVal, p.exmem.decode.dataType.ByteEnable())
		} else if p.exmem.decode.memRead {
			raw := dataMemory.ReadWord(p.exmem.aluOut, p.exmem.decode.dataType.ByteEnable())
			size := p.exmem.decode.dataType.SizeInBits()
			if p.exmem.decode.signExt && size < 32 {
				signBit := (raw >> (size - 1)) & 1
				if signBit != 0 {
					raw |= ^uint32(0) << size
				}
			}
			memOut = raw
		}

		writeData := p.exmem.aluOut
		switch p.exmem.decode.dest {
		case destLSU:
			writeData = memOut
		case destLink:
			writeData = p.exmem.pc + 4
		}
		newMemwb = memwbLatch{valid: true, decode: p.exmem.decode, writeData: writeData, rd: p.exmem.rd, debug: p.exmem.debug}
	}

	// EX
	var newExmem exmemLatch
	if p.idex.valid {
		opA := p.idex.data1
		if p.idex.decode.opASel == OpASelPC {
			opA = p.idex.pc
		}
		opB := p.idex.data2
		if p.idex.decode.opBSel == OpBSelIMM {
			opB = uint32(p.idex.imm)
		}
		aluOut := p.idex.decode.aluOp.Apply(opA, opB)
		newExmem = exmemLatch{
			valid: true, pc: p.idex.pc, decode: p.idex.decode,
			aluOut: aluOut, storeVal: p.idex.data2, rd: p.idex.rd, debug: p.idex.debug,
		}

		if p.idex.decode.isBranch && aluOut != 0 {
			p.setPC(p.idex.pc + uint32(p.idex.imm))
			p.ifid = ifidLatch{}
		}
		if p.idex.decode.isJump {
			base := p.idex.pc
			if p.idex.decode.jumpToRF {
				base = p.idex.data1
			}
			p.setPC(base + uint32(p.idex.imm))
			p.ifid = ifidLatch{}
		}
	}

	// ID
	var newIdex idexLatch
	stall := false
	if p.ifid.valid {
		instr := isa.FromRaw(p.ifid.instr)
		stall = p.hazard.DetectHazards(instr)
		if !stall {
			decode, ok := decodeFiveStage(instr)
			if !ok {
				decode = fiveStageDecode{}
			}
			imm, _ := instr.Immediate()
			newIdex = idexLatch{
				valid: true, pc: p.ifid.pc, instr: instr, decode: decode,
				data1: registers.Get(instr.Rs1()), data2: registers.Get(instr.Rs2()),
				imm: imm, rd: instr.Rd(),
				debug: instr.Opcode() == isa.OpcodeSystem && instr.Raw() == 0x00100073,
			}
		}
	}

	// IF
	var newIfid ifidLatch
	if !stall {
		word := ReadInstruction(program.InstructionMemory, p.pc)
		newIfid = ifidLatch{valid: true, pc: p.pc, instr: word}
		p.pc += 4
	} else {
		newIfid = p.ifid
	}

	p.memwb = newMemwb
	p.exmem = newExmem
	if !stall {
		p.idex = newIdex
	} else {
		p.idex = idexLatch{}
	}
	p.ifid = newIfid
}

func (p *FiveStagePipeline) setPC(addr uint32) {
	if addr&0x3 != 0 {
		panic(fmt.Sprintf("PC must be on a 4-byte boundary, got %#x", addr))
	}
	p.pc = addr
}

// SetIFPC seeds the fetch PC, discarding whatever the pipeline currently
// holds upstream of it.
func (p *FiveStagePipeline) SetIFPC(address uint32, program *asm.AssembledProgram) {
	p.setPC(address)
	p.ifid = ifidLatch{}
	p.idex = idexLatch{}
}

func (p *FiveStagePipeline) RequestingDebug() bool {
	return p.memwb.valid && p.memwb.debug
}

func (p *FiveStagePipeline) IDPC() (uint32, bool) {
	if !p.idex.valid {
		return 0, false
	}
	return p.idex.pc, true
}

func (p *FiveStagePipeline) AllPCs() []PcPos {
	var pcs []PcPos
	if p.ifid.valid {
		pcs = append(pcs, PcPos{PC: p.ifid.pc, Stage: "if"})
	}
	if p.idex.valid {
		pcs = append(pcs, PcPos{PC: p.idex.pc, Stage: "id"})
	}
	if p.exmem.valid {
		pcs = append(pcs, PcPos{PC: p.exmem.pc, Stage: "ex"})
	}
	return pcs
}
