package asm

// AssembledProgram is the output of a successful Assemble call: the
// byte contents of the text and data sections, every resolved label's
// address, and a bidirectional map between source lines and the byte
// address of the instruction they produced (used by the debugger to
// set breakpoints by line and to report the current line during
// single-stepping).
type AssembledProgram struct {
	InstructionMemory map[uint32]byte
	DataMemory        map[uint32]byte
	Labels            map[string]int64
	SourceMapLineToPC map[int]uint32
	SourceMapPCToLine map[uint32]int
	EntryTextStart    uint32
	EntryDataStart    uint32
}

func newAssembledProgram() *AssembledProgram {
	return &AssembledProgram{
		InstructionMemory: make(map[uint32]byte),
		DataMemory:        make(map[uint32]byte),
		Labels:            make(map[string]int64),
		SourceMapLineToPC: make(map[int]uint32),
		SourceMapPCToLine: make(map[uint32]int),
	}
}

func (p *AssembledProgram) putSourceMapping(line int, pc uint32) {
	p.SourceMapLineToPC[line] = pc
	p.SourceMapPCToLine[pc] = line
}

func (p *AssembledProgram) putInstructionWord(addr uint32, word uint32) {
	p.InstructionMemory[addr] = byte(word)
	p.InstructionMemory[addr+1] = byte(word >> 8)
	p.InstructionMemory[addr+2] = byte(word >> 16)
	p.InstructionMemory[addr+3] = byte(word >> 24)
}

func (p *AssembledProgram) putDataByte(addr uint32, b byte) {
	p.DataMemory[addr] = b
}

// FetchWord reads a little-endian 32-bit instruction word, for tests and
// tooling that want to inspect assembled output without going through
// the full vm.Memory abstraction.
func (p *AssembledProgram) FetchWord(addr uint32) uint32 {
	return uint32(p.InstructionMemory[addr]) |
		uint32(p.InstructionMemory[addr+1])<<8 |
		uint32(p.InstructionMemory[addr+2])<<16 |
		uint32(p.InstructionMemory[addr+3])<<24
}
