// Command rv32emu assembles, runs, debugs, and serves RV32I programs.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rv32edu/rv32emu/api"
	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/config"
	"github.com/rv32edu/rv32emu/debugger"
	"github.com/rv32edu/rv32emu/isa"
	"github.com/rv32edu/rv32emu/loader"
	"github.com/rv32edu/rv32emu/vm"
)

// Version is the build version, overridable at build time with
// -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-version", "--version":
		fmt.Printf("rv32emu %s\n", Version)
	case "-help", "--help", "help":
		printUsage()
	case "assemble":
		runAssemble(os.Args[2:])
	case "run":
		runRun(os.Args[2:])
	case "debug":
		runDebug(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`rv32emu - a cycle-accurate RV32I emulator

Usage:
  rv32emu assemble [-o out.bin] <file.s>
  rv32emu run [-arch cve2|five-stage] [-max-cycles N] [-in input.txt] <file.s>
  rv32emu debug [-tui] [-arch cve2|five-stage] <file.s>
  rv32emu serve [-port 8080]
  rv32emu -version
  rv32emu -help
`)
}

func pipelineKindFromFlag(arch string) vm.PipelineKind {
	if arch == "five-stage" {
		return vm.PipelineFiveStage
	}
	return vm.PipelineCVE2
}

func assembleFileOrExit(path string) *asm.AssembledProgram {
	source, err := os.ReadFile(path) // #nosec G304 -- user-specified source file
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	program, errs := asm.Assemble(path, string(source))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}
	return program
}

func runAssemble(args []string) {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	out := fs.String("o", "", "output file for the raw instruction image (default: stdout symbol dump only)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rv32emu assemble [-o out.bin] <file.s>")
		os.Exit(1)
	}

	program := assembleFileOrExit(fs.Arg(0))

	fmt.Printf("assembled %d text bytes, %d data bytes, %d labels\n",
		len(program.InstructionMemory), len(program.DataMemory), len(program.Labels))
	for name, addr := range program.Labels {
		fmt.Printf("  %-20s 0x%08x\n", name, addr)
	}

	if *out == "" {
		return
	}

	maxAddr := program.EntryTextStart
	for addr := range program.InstructionMemory {
		if addr > maxAddr {
			maxAddr = addr
		}
	}
	image := make([]byte, maxAddr-program.EntryTextStart+4)
	for addr, b := range program.InstructionMemory {
		image[addr-program.EntryTextStart] = b
	}
	if err := os.WriteFile(*out, image, 0o644); err != nil { // #nosec G306 -- user-specified output path
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(image), *out)
}

func runRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	arch := fs.String("arch", "cve2", "pipeline variant: cve2 or five-stage")
	maxCycles := fs.Uint64("max-cycles", 1_000_000, "maximum cycles before giving up")
	inputFile := fs.String("in", "", "file whose bytes feed the UART's serial input")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rv32emu run [-arch cve2|five-stage] [-max-cycles N] [-in input.txt] <file.s>")
		os.Exit(1)
	}

	program := assembleFileOrExit(fs.Arg(0))

	var serialInput []byte
	if *inputFile != "" {
		data, err := os.ReadFile(*inputFile) // #nosec G304 -- user-specified input file
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", *inputFile, err)
			os.Exit(1)
		}
		serialInput = data
	}

	emu := vm.NewEmulator(program, pipelineKindFromFlag(*arch), serialInput)
	loader.LoadProgramIntoEmulator(emu, program)

	ran, reason := emu.ClockUntilBreak(nil, *maxCycles)

	fmt.Printf("ran %d cycles (stopped: %s)\n", ran, breakReasonLabel(reason))
	for i := uint32(0); i < 32; i++ {
		fmt.Printf("x%-2d (%-4s) = %#08x\n", i, isa.ABIName(i), emu.Registers.Get(i))
	}
	if out := emu.Memory.SerialOutput(); len(out) > 0 {
		fmt.Printf("\nserial output:\n%s\n", out)
	}
}

func breakReasonLabel(r vm.BreakReason) string {
	switch r {
	case vm.BreakDebug:
		return "ebreak"
	case vm.BreakBreakpoint:
		return "breakpoint"
	case vm.BreakMaxCycles:
		return "max-cycles"
	default:
		return "unknown"
	}
}

func runDebug(args []string) {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	arch := fs.String("arch", "cve2", "pipeline variant: cve2 or five-stage")
	tui := fs.Bool("tui", false, "use the terminal UI instead of the line-command REPL")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rv32emu debug [-tui] [-arch cve2|five-stage] <file.s>")
		os.Exit(1)
	}

	program := assembleFileOrExit(fs.Arg(0))
	emu := vm.NewEmulator(program, pipelineKindFromFlag(*arch), nil)
	loader.LoadProgramIntoEmulator(emu, program)

	cfg := config.DefaultConfig()
	dbg := debugger.NewDebugger(emu, program, cfg.Debugger.HistorySize)

	if *tui {
		t := debugger.NewTUI(dbg)
		if err := t.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runDebuggerREPL(dbg)
}

func runDebuggerREPL(dbg *debugger.Debugger) {
	fmt.Println("rv32emu debugger - type 'help' for commands, 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(rv32emu) ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "quit" || line == "exit" || line == "q" {
			break
		}
		if err := dbg.ExecuteCommand(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Print(dbg.GetOutput())
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 8080, "port to listen on")
	fs.Parse(args)

	server := api.NewServer(fmt.Sprintf(":%d", *port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "api server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	fmt.Println("\nshutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		os.Exit(1)
	}
}
