// Package loader copies an assembled program's data section into an
// Emulator's data memory and seeds the registers a program expects to be
// initialized before it starts running.
package loader

import (
	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/vm"
)

// StackPointerReg is x2, the RISC-V calling-convention stack pointer.
const StackPointerReg = 2

// LoadProgramIntoEmulator copies program's data section into emu's data
// memory. The instruction stream itself is not copied: the pipeline's fetch
// stage reads directly from program.InstructionMemory, so only .data
// content needs materializing in the writable memory the running program
// will load from and store to.
func LoadProgramIntoEmulator(emu *vm.Emulator, program *asm.AssembledProgram) {
	for addr, b := range program.DataMemory {
		emu.Memory.WriteByte(addr, b)
	}
}

// LoadWithStack is LoadProgramIntoEmulator plus seeding x2 with stackTop, for
// programs that rely on a pre-initialized stack pointer rather than setting
// it up themselves in their first few instructions.
func LoadWithStack(emu *vm.Emulator, program *asm.AssembledProgram, stackTop uint32) {
	LoadProgramIntoEmulator(emu, program)
	emu.Registers.Set(StackPointerReg, stackTop)
}
