package debugger

import (
	"fmt"
	"strconv"

	"github.com/rv32edu/rv32emu/isa"
)

// DefaultMaxCycles bounds continue/step-like commands that would otherwise
// run forever against a program that never hits EBREAK.
const DefaultMaxCycles = 10_000_000

func (d *Debugger) dispatch(cmd string, args []string) error {
	switch cmd {
	case "run", "r", "continue", "c":
		return d.cmdContinue()
	case "step", "s":
		return d.cmdStep()
	case "next", "n":
		return d.cmdNext(args)
	case "back":
		return d.cmdBack(args)
	case "break", "b":
		return d.cmdBreak(args, false)
	case "tbreak", "tb":
		return d.cmdBreak(args, true)
	case "delete", "d":
		return d.cmdDeleteBreak(args)
	case "enable":
		return d.cmdEnableBreak(args, true)
	case "disable":
		return d.cmdEnableBreak(args, false)
	case "watch", "w":
		return d.cmdWatch(args)
	case "unwatch":
		return d.cmdUnwatch(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "registers", "regs", "info":
		return d.cmdRegisters()
	case "disasm", "x":
		return d.cmdDisasm(args)
	case "reset":
		return d.cmdReset()
	case "help", "h", "?":
		return d.cmdHelp()
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// cmdContinue clocks until EBREAK, an enabled breakpoint, or the cycle
// budget is exhausted, checking watchpoints each cycle.
func (d *Debugger) cmdContinue() error {
	breakpoints := d.Breakpoints.AddressSet()
	for i := uint64(0); i < DefaultMaxCycles; i++ {
		hits := d.clockOnce()
		for _, h := range hits {
			d.Printf("watchpoint %d: 0x%08x changed %#02x -> %#02x\n", h.Watchpoint.ID, h.Watchpoint.Address, h.OldValue, h.NewValue)
		}
		if d.Emulator.Pipeline.RequestingDebug() {
			d.LastStop = "ebreak"
			d.Println("stopped: ebreak")
			return nil
		}
		for _, pos := range d.Emulator.Pipeline.AllPCs() {
			if pos.Stage == "if" && breakpoints[pos.PC] {
				bp := d.Breakpoints.ProcessHit(pos.PC)
				d.LastStop = "breakpoint"
				d.Printf("stopped: breakpoint %d at 0x%08x\n", bp.ID, bp.Address)
				return nil
			}
		}
	}
	d.LastStop = "max-cycles"
	d.Println("stopped: max cycle budget reached")
	return nil
}

// cmdStep runs exactly one clock cycle.
func (d *Debugger) cmdStep() error {
	hits := d.clockOnce()
	for _, h := range hits {
		d.Printf("watchpoint %d: 0x%08x changed %#02x -> %#02x\n", h.Watchpoint.ID, h.Watchpoint.Address, h.OldValue, h.NewValue)
	}
	d.Println(d.Emulator.Cycles, "cycles elapsed")
	return nil
}

// cmdNext clocks until the ID stage latches a new instruction (i.e. the
// currently-decoding instruction retires), the debugger's coarser
// instruction-granularity analogue of cmdStep's cycle granularity.
func (d *Debugger) cmdNext(args []string) error {
	max := uint64(DefaultMaxCycles)
	if len(args) > 0 {
		if n, err := strconv.ParseUint(args[0], 10, 64); err == nil {
			max = n
		}
	}
	ran := d.Emulator.ClockUntilNextInstruction(max)
	d.Printf("advanced %d cycles to the next instruction\n", ran)
	return nil
}

// cmdBack reports the cycle count and register values n snapshots ago, without mutating
// the live emulator: vm.Snapshot does not capture memory contents, so this
// is a display-only time-travel view, not a true rewind.
func (d *Debugger) cmdBack(args []string) error {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	snap, ok := d.Snapshots.At(n)
	if !ok {
		return fmt.Errorf("no snapshot %d cycles back", n)
	}
	d.Printf("snapshot from %d cycles ago (cycle %d):\n", n, snap.Cycles)
	for i := 0; i < 32; i++ {
		d.Printf("  x%-2d = %#08x\n", i, snap.Registers[i])
	}
	return nil
}

func (d *Debugger) cmdBreak(args []string, temporary bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, temporary)
	d.Printf("breakpoint %d at 0x%08x\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDeleteBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	return d.Breakpoints.Delete(id)
}

func (d *Debugger) cmdEnableBreak(args []string, enabled bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable|disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	return d.Breakpoints.SetEnabled(id, enabled)
}

func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <address>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	wp := d.Watchpoints.Add(addr, d.Emulator.Memory)
	d.Printf("watchpoint %d on 0x%08x (initial value %#02x)\n", wp.ID, wp.Address, wp.LastValue)
	return nil
}

func (d *Debugger) cmdUnwatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: unwatch <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid watchpoint id: %s", args[0])
	}
	return d.Watchpoints.Delete(id)
}

func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <register>")
	}
	reg, ok := isa.RegisterByName(args[0])
	if !ok {
		return fmt.Errorf("unknown register: %s", args[0])
	}
	d.Printf("%s = %#08x (%d)\n", args[0], d.Emulator.Registers.Get(reg), d.Emulator.Registers.Get(reg))
	return nil
}

func (d *Debugger) cmdRegisters() error {
	for i := uint32(0); i < 32; i++ {
		d.Printf("x%-2d (%-4s) = %#08x\n", i, isa.ABIName(i), d.Emulator.Registers.Get(i))
	}
	for _, pos := range d.Emulator.Pipeline.AllPCs() {
		d.Printf("%s: %s\n", pos.Stage, d.Symbols.FormatAddress(pos.PC))
	}
	return nil
}

func (d *Debugger) cmdDisasm(args []string) error {
	pc, ok := d.Emulator.Pipeline.IDPC()
	if !ok {
		pc = 0
	}
	if len(args) > 0 {
		addr, err := d.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		pc = addr
	}
	for i := uint32(0); i < 10; i++ {
		addr := pc + i*4
		marker := "  "
		if d.Breakpoints.Get(addr) != nil {
			marker = "* "
		}
		d.Printf("%s%s: %s\n", marker, d.Symbols.FormatAddressCompact(addr), d.disassembleAt(addr))
	}
	return nil
}

func (d *Debugger) cmdReset() error {
	d.Emulator.Registers.Reset()
	d.Emulator.Pipeline.SetIFPC(d.Program.EntryTextStart, d.Program)
	d.Emulator.Cycles = 0
	d.Snapshots.Clear()
	d.Println("emulator reset to entry point")
	return nil
}

func (d *Debugger) cmdHelp() error {
	d.Println(`available commands:
  continue, c            run until ebreak, a breakpoint, or the cycle budget
  step, s                advance exactly one clock cycle
  next, n [max]          advance until the instruction in ID retires
  back [n]               show register state n snapshots ago (default 1)
  break, b <addr>        set a breakpoint
  tbreak, tb <addr>      set a one-shot breakpoint
  delete, d <id>         remove a breakpoint
  enable/disable <id>    toggle a breakpoint
  watch, w <addr>        watch a data memory byte for changes
  unwatch <id>           remove a watchpoint
  print, p <reg>         print one register's value
  registers, regs        print all registers and pipeline stage PCs
  disasm, x [addr]       disassemble starting at addr (default: ID stage PC)
  reset                  reset registers, cycle count, and fetch PC
  help, h, ?             this text`)
	return nil
}
