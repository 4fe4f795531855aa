// Package debugger provides breakpoint/watchpoint-driven stepping over a
// vm.Emulator, a small line-command language to drive it, and a tview-based
// terminal UI on top of that.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/isa"
	"github.com/rv32edu/rv32emu/vm"
)

// DefaultHistorySize is how many vm.Snapshots a Debugger retains for
// step-back display, absent an overriding config.Config.
const DefaultHistorySize = 1000

// Debugger wraps a running vm.Emulator with breakpoint/watchpoint
// management, a command-line history, and a bounded snapshot history for
// step-back display.
type Debugger struct {
	Emulator *vm.Emulator
	Program  *asm.AssembledProgram
	Symbols  *vm.SymbolResolver

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	Commands    *CommandHistory
	Snapshots   *vm.History

	LastCommand string
	LastStop    string
	Output      strings.Builder
}

// NewDebugger wraps emu, deriving a symbol resolver from program's label
// table and sizing the snapshot ring buffer to historySize entries.
func NewDebugger(emu *vm.Emulator, program *asm.AssembledProgram, historySize int) *Debugger {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Debugger{
		Emulator:    emu,
		Program:     program,
		Symbols:     vm.NewSymbolResolverFromProgram(program),
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		Commands:    NewCommandHistory(DefaultHistorySize),
		Snapshots:   vm.NewHistory(historySize),
	}
}

// ResolveAddress accepts a label name, a 0x-prefixed hex literal, or a
// decimal literal and returns the address it names.
func (d *Debugger) ResolveAddress(s string) (uint32, error) {
	if addr, ok := d.Symbols.LookupSymbol(s); ok {
		return addr, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid address: %s", s)
		}
		return uint32(v), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return uint32(v), nil
}

// Printf appends formatted text to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println appends a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// GetOutput returns and clears the accumulated output.
func (d *Debugger) GetOutput() string {
	s := d.Output.String()
	d.Output.Reset()
	return s
}

// ExecuteCommand parses and runs one command line. An empty line repeats
// the last command, so pressing enter on a blank line continues a
// step/next sequence.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line != "" {
		d.Commands.Add(line)
		d.LastCommand = line
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	return d.dispatch(strings.ToLower(parts[0]), parts[1:])
}

// clockOnce advances the emulator by one cycle, recording a snapshot and
// checking watchpoints.
func (d *Debugger) clockOnce() []WatchHit {
	d.Emulator.Clock()
	d.Snapshots.Record(vm.CaptureSnapshot(d.Emulator))
	return d.Watchpoints.Check(d.Emulator.Memory)
}

// disassembleAt decodes and disassembles the instruction word at addr in
// the program's instruction memory.
func (d *Debugger) disassembleAt(addr uint32) string {
	word := d.Program.FetchWord(addr)
	return isa.Disassemble(isa.FromRaw(word), addr)
}
