package vm

import (
	"fmt"

	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/isa"
)

// cve2Datapath holds every wire of the fused decode-execute-writeback stage
// that isn't itself a pipeline latch, mirroring the OpenHW CVE2 top-level
// module's internal signals.
type cve2Datapath struct {
	dataReqO       bool
	dataAddrO      uint32
	dataWDataO     uint32
	dataRDataI     uint32
	dataWeO        bool
	dataBeO        ByteEnable
	dataRValidI    bool

	regS1, regS2, regD uint32
	imm                *int32

	dataS1, dataS2 uint32

	aluOpA, aluOpB, aluOut *uint32
	lsuOut                 *uint32
	regWriteData           *uint32

	cmpResult bool
	nextPC    *uint32
}

// CVE2Pipeline is the two-stage (Fetch / Decode-Execute-Writeback) core
// modeled on the OpenHW CVE2. Most RV32I instructions complete in one ID
// cycle; loads, stores, branches, and jumps take two (occasionally three)
// to let the LSU or PC resolve before the next instruction is accepted.
type CVE2Pipeline struct {
	IFInst *uint32
	IFPC   uint32

	IDInst *uint32
	IDPCv  *uint32

	instrCycle uint32

	datapath cve2Datapath
	control  Control
}

var _ Pipeline = (*CVE2Pipeline)(nil)

// NewCVE2Pipeline returns a pipeline ready to fetch its first instruction
// from address 0. The control vector starts at its default (id_in_ready
// true) so the very first Clock call latches IF into ID rather than
// stalling against a zero-value control struct.
func NewCVE2Pipeline() *CVE2Pipeline {
	return &CVE2Pipeline{control: DefaultControl()}
}

// Clock runs exactly one cycle through the fixed phase order spec.md §4.7
// requires: commit last cycle's writes, fetch, decode, compute, latch the
// comparator, then mux the next PC.
func (p *CVE2Pipeline) Clock(program *asm.AssembledProgram, registers *RegisterFile, dataMemory *MemoryModule) {
	p.runPipelineBufferRegisters()
	p.runPCReg()
	p.runDataMemory(dataMemory)
	p.runWriteRegister(registers)

	p.runInstructionFetch(program)

	if p.IDInst == nil {
		return
	}
	instr := isa.FromRaw(*p.IDInst)
	control, ok := GetControlSignals(instr, p.instrCycle, p.datapath.cmpResult)
	if !ok {
		control = DefaultControl()
	}
	p.control = control

	p.runDecode(instr)
	p.runReadRegisters(registers)
	p.runOperandMuxes()
	p.runALU()
	p.runLSU()
	p.runWriteDataMux()

	p.runCmpReg()
	p.runPCMux()
}

// SetIFPC seeds the fetch PC and immediately runs the PC mux and a fetch,
// used to start execution at a program's .text entry point.
func (p *CVE2Pipeline) SetIFPC(address uint32, program *asm.AssembledProgram) {
	if address&0x3 != 0 {
		panic(fmt.Sprintf("PC must be on a 4-byte boundary, got %#x", address))
	}
	p.IFPC = address
	p.runPCMux()
	p.runInstructionFetch(program)
}

func (p *CVE2Pipeline) RequestingDebug() bool { return p.control.DebugReq }

func (p *CVE2Pipeline) IDPC() (uint32, bool) {
	if p.IDPCv == nil {
		return 0, false
	}
	return *p.IDPCv, true
}

func (p *CVE2Pipeline) AllPCs() []PcPos {
	pcs := []PcPos{{PC: p.IFPC, Stage: "if"}}
	if p.IDPCv != nil {
		pcs = append(pcs, PcPos{PC: *p.IDPCv, Stage: "id"})
	}
	return pcs
}

func (p *CVE2Pipeline) runInstructionFetch(program *asm.AssembledProgram) {
	word := ReadInstruction(program.InstructionMemory, p.IFPC)
	p.IFInst = &word
}

func (p *CVE2Pipeline) runDecode(instr isa.Instruction) {
	p.datapath.regS1 = instr.Rs1()
	p.datapath.regS2 = instr.Rs2()
	p.datapath.regD = instr.Rd()
	if imm, ok := instr.Immediate(); ok {
		p.datapath.imm = &imm
	} else {
		p.datapath.imm = nil
	}
}

func (p *CVE2Pipeline) runReadRegisters(registers *RegisterFile) {
	p.datapath.dataS1 = registers.Get(p.datapath.regS1)
	p.datapath.dataS2 = registers.Get(p.datapath.regS2)
}

func (p *CVE2Pipeline) runOperandMuxes() {
	p.datapath.aluOpA = nil
	if p.control.ALUOpASel != nil {
		switch *p.control.ALUOpASel {
		case OpASelPC:
			p.datapath.aluOpA = p.IDPCv
		case OpASelRF:
			v := p.datapath.dataS1
			p.datapath.aluOpA = &v
		}
	}
	p.datapath.aluOpB = nil
	if p.control.ALUOpBSel != nil {
		switch *p.control.ALUOpBSel {
		case OpBSelRF:
			v := p.datapath.dataS2
			p.datapath.aluOpB = &v
		case OpBSelIMM:
			if p.datapath.imm != nil {
				v := uint32(*p.datapath.imm)
				p.datapath.aluOpB = &v
			}
		case OpBSelFour:
			v := uint32(4)
			p.datapath.aluOpB = &v
		}
	}
}

func (p *CVE2Pipeline) runALU() {
	p.datapath.aluOut = nil
	if p.datapath.aluOpA == nil || p.datapath.aluOpB == nil || p.control.ALUOp == nil {
		return
	}
	out := p.control.ALUOp.Apply(*p.datapath.aluOpA, *p.datapath.aluOpB)
	p.datapath.aluOut = &out
}

func (p *CVE2Pipeline) runLSU() {
	p.datapath.lsuOut = nil
	if p.datapath.dataRValidI {
		data := p.datapath.dataRDataI
		var size uint
		if p.control.LSUDataType != nil {
			size = p.control.LSUDataType.SizeInBits()
		}
		if p.control.LSUSignExt && size < 32 && size > 0 {
			signBit := (data >> (size - 1)) & 1
			var signMask uint32
			if signBit != 0 {
				signMask = ^uint32(0) << size
			}
			out := signMask | data
			p.datapath.lsuOut = &out
		} else {
			out := data
			p.datapath.lsuOut = &out
		}
	}

	p.datapath.dataReqO = p.control.LSURequest
	p.datapath.dataWeO = p.control.LSUWriteEnable
	if p.datapath.aluOut != nil {
		p.datapath.dataAddrO = *p.datapath.aluOut
	} else {
		p.datapath.dataAddrO = 0
	}
	if p.control.LSUDataType != nil {
		p.datapath.dataBeO = p.control.LSUDataType.ByteEnable()
	} else {
		p.datapath.dataBeO = ByteEnable{}
	}
	p.datapath.dataWDataO = p.datapath.dataS2
}

func (p *CVE2Pipeline) runWriteDataMux() {
	p.datapath.regWriteData = nil
	if p.control.DataDestSel == nil {
		return
	}
	switch *p.control.DataDestSel {
	case DataDestALU:
		p.datapath.regWriteData = p.datapath.aluOut
	case DataDestLSU:
		p.datapath.regWriteData = p.datapath.lsuOut
	}
}

func (p *CVE2Pipeline) runDataMemory(dataMemory *MemoryModule) {
	if p.datapath.dataReqO {
		if p.datapath.dataWeO {
			dataMemory.WriteWord(p.datapath.dataAddrO, p.datapath.dataWDataO, p.datapath.dataBeO)
			p.datapath.dataRDataI = 0
		} else {
			p.datapath.dataRDataI = dataMemory.ReadWord(p.datapath.dataAddrO, p.datapath.dataBeO)
		}
		p.datapath.dataRValidI = true
	} else {
		p.datapath.dataRDataI = 0
		p.datapath.dataRValidI = false
	}
}

func (p *CVE2Pipeline) runWriteRegister(registers *RegisterFile) {
	if p.control.RegWrite && p.datapath.regWriteData != nil {
		registers.Set(p.datapath.regD, *p.datapath.regWriteData)
	}
}

func (p *CVE2Pipeline) runCmpReg() {
	if p.control.CmpSet {
		p.datapath.cmpResult = p.datapath.aluOut != nil && *p.datapath.aluOut != 0
	}
}

func (p *CVE2Pipeline) runPCMux() {
	switch p.control.NextPCSel {
	case PCSelJMP:
		p.datapath.nextPC = p.datapath.aluOut
	default:
		v := p.IFPC + 4
		p.datapath.nextPC = &v
	}
}

func (p *CVE2Pipeline) runPCReg() {
	if p.control.PCSet && p.datapath.nextPC != nil {
		next := *p.datapath.nextPC
		if next&0x3 != 0 {
			panic(fmt.Sprintf("PC must be on a 4-byte boundary, got %#x", next))
		}
		p.IFPC = next
	}
}

func (p *CVE2Pipeline) runPipelineBufferRegisters() {
	if p.control.IDInReady {
		pc := p.IFPC
		p.IDPCv = &pc
		p.IDInst = p.IFInst
		p.instrCycle = 0
	} else {
		p.instrCycle++
	}
}
