package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rv32edu/rv32emu/isa"
)

// TUI is the terminal debugger front end: a register/pipeline view, a
// disassembly view, an output log (including UART serial output), a
// breakpoints/watchpoints view, and a command line — all driven by one
// Debugger clocking one Emulator.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout      *tview.Flex
	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	lastSerialLen int
}

// NewTUI builds a TUI over debugger, wiring up views, layout, and key
// bindings. Call Run to start the event loop.
func NewTUI(debugger *Debugger) *TUI {
	t := &TUI{Debugger: debugger, App: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers / Pipeline ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints / Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	leftPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 3, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 2, false).
		AddItem(t.RegisterView, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.run("help")
			return nil
		case tcell.KeyF5:
			t.run("continue")
			return nil
		case tcell.KeyF10:
			t.run("next")
			return nil
		case tcell.KeyF11:
			t.run("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.run(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) run(cmd string) {
	if err := t.Debugger.ExecuteCommand(cmd); err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if out := t.Debugger.GetOutput(); out != "" {
		t.WriteOutput(out)
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output log and scrolls to the end.
func (t *TUI) WriteOutput(text string) {
	fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from current emulator state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateDisassemblyView()
	t.updateBreakpointsView()
	t.updateSerialOutput()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	d := t.Debugger
	var b strings.Builder
	for row := 0; row < 8; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			reg := uint32(row*4 + col)
			cols = append(cols, fmt.Sprintf("x%-2d %-4s %#08x", reg, isa.ABIName(reg), d.Emulator.Registers.Get(reg)))
		}
		b.WriteString(strings.Join(cols, "  "))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, pos := range d.Emulator.Pipeline.AllPCs() {
		fmt.Fprintf(&b, "[yellow]%-3s[white] %s\n", pos.Stage, d.Symbols.FormatAddress(pos.PC))
	}
	fmt.Fprintf(&b, "\ncycles: %d\n", d.Emulator.Cycles)
	t.RegisterView.SetText(b.String())
}

func (t *TUI) updateDisassemblyView() {
	d := t.Debugger
	pc, ok := d.Emulator.Pipeline.IDPC()
	if !ok {
		pc = 0
	}
	var lines []string
	for i := uint32(0); i < 20; i++ {
		addr := pc + i*4
		marker := "  "
		color := "white"
		if d.Breakpoints.Get(addr) != nil {
			marker = "* "
		}
		if addr == pc {
			marker = "->"
			color = "yellow"
		}
		lines = append(lines, fmt.Sprintf("[%s]%s%s: %s[white]", color, marker, d.Symbols.FormatAddressCompact(addr), d.disassembleAt(addr)))
	}
	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateBreakpointsView() {
	d := t.Debugger
	var lines []string
	for _, bp := range d.Breakpoints.All() {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		lines = append(lines, fmt.Sprintf("bp %d @ 0x%08x (%s, hits=%d)", bp.ID, bp.Address, status, bp.HitCount))
	}
	for _, wp := range d.Watchpoints.All() {
		lines = append(lines, fmt.Sprintf("wp %d @ 0x%08x = %#02x (hits=%d)", wp.ID, wp.Address, wp.LastValue, wp.HitCount))
	}
	if len(lines) == 0 {
		lines = append(lines, "[gray]none[white]")
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateSerialOutput() {
	// The UART's serial output only grows, so append the bytes produced
	// since the last refresh rather than re-rendering the whole buffer --
	// the output view also carries command responses written in between.
	out := t.Debugger.Emulator.Memory.SerialOutput()
	if len(out) > t.lastSerialLen {
		fmt.Fprint(t.OutputView, string(out[t.lastSerialLen:]))
		t.lastSerialLen = len(out)
	}
}

// Run starts the TUI's event loop. It blocks until the user quits
// (Ctrl+C) or the application is stopped programmatically.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
