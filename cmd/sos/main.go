// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command sos runs assembly programs on the SOS machine.
//
//	sos [flags] boot.asm[:size] [program.asm[:size]...]
//
// The first program is the boot process; the rest form the pool that
// SYSCALL_EXEC launches from.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ezrec/sos/emulator"
	"github.com/ezrec/sos/internal"
	"github.com/ezrec/sos/log"
	"github.com/ezrec/sos/memory"
)

var (
	fRAM     = pflag.IntP("ram", "r", memory.DEFAULT_SIZE, "RAM size, in words")
	fLatency = pflag.DurationP("latency", "l", 0, "RAM access latency")
	fDevice  = pflag.DurationP("device-latency", "k", 10*time.Millisecond, "device request latency")
	fDrum    = pflag.StringP("drum", "d", "", "drum image file, saved back on exit")
	fInput   = pflag.StringP("input", "i", "", "keyboard input file; '-' for stdin")
	fList    = pflag.Bool("list", false, "list the assembled programs, do not execute")
	fDump    = pflag.Bool("dump", false, "dump the machine state on a runtime error")
	fVerbose = pflag.BoolP("verbose", "v", false, "verbose mode")
)

// parseArg splits 'file.asm:size' into its parts.
func parseArg(arg string) (path string, size int, err error) {
	path, sizeText, ok := strings.Cut(arg, ":")
	if !ok {
		return
	}

	size, err = strconv.Atoi(sizeText)
	if err == nil && size <= 0 {
		err = fmt.Errorf("window size must be positive")
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", arg, err)
	}
	return
}

func assemble(emu *emulator.Emulator, arg string) (launch emulator.Launch, err error) {
	path, size, err := parseArg(arg)
	if err != nil {
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err := emu.Assemble(path, inf)
	if err != nil {
		return
	}

	launch = emulator.Launch{Program: prog, AllocSize: size}
	return
}

// listing writes the assembled programs. In verbose mode it adds the
// assembler defines, and a pretty-printed dump of each program.
func listing(w io.Writer, emu *emulator.Emulator, launches []emulator.Launch, verbose bool, color bool) {
	if verbose {
		fmt.Fprintf(w, "DEFINES:\n")
		for key, value := range internal.IterSeq2Sorted(emu.Defines()) {
			fmt.Fprintf(w, "  %v = %v\n", key, value)
		}
	}

	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(color)

	for _, launch := range launches {
		fmt.Fprintf(w, "%v:\n", launch.Program.Name)
		for pc, instr := range launch.Program.Listing() {
			fmt.Fprintf(w, "%4d: %v\n", pc, instr.String())
		}
		if verbose {
			printer.Println(launch.Program.Instructions)
		}
	}
}

func main() {
	pflag.Parse()

	log.SetVerbose(*fVerbose)

	if pflag.NArg() == 0 {
		log.L.Error("no programs given")
		pflag.Usage()
		os.Exit(2)
	}

	cfg := emulator.DefaultConfig()
	cfg.Verbose = *fVerbose
	cfg.RAMSize = *fRAM
	cfg.Latency = *fLatency
	cfg.DeviceLatency = *fDevice

	switch {
	case *fInput == "-":
		cfg.Keyboard = os.Stdin
	case len(*fInput) != 0:
		inf, err := os.Open(*fInput)
		if err != nil {
			log.L.Error("keyboard input", "err", err)
			os.Exit(1)
		}
		defer inf.Close()
		cfg.Keyboard = inf
	case !term.IsTerminal(int(os.Stdin.Fd())):
		// Piped input feeds the keyboard; an interactive terminal does not.
		cfg.Keyboard = os.Stdin
	}

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		log.L.Error("emulator", "err", err)
		os.Exit(1)
	}

	if len(*fDrum) != 0 {
		inf, err := os.Open(*fDrum)
		switch {
		case err == nil:
			err = emu.Drum.Unmarshal(inf)
			inf.Close()
		case errors.Is(err, os.ErrNotExist):
			err = nil
		}
		if err != nil {
			log.L.Error("drum", "file", *fDrum, "err", err)
			os.Exit(1)
		}
	}

	var launches []emulator.Launch
	for _, arg := range pflag.Args() {
		launch, err := assemble(emu, arg)
		if err != nil {
			log.L.Error("assemble", "err", err)
			os.Exit(1)
		}
		launches = append(launches, launch)
	}

	if *fList {
		listing(os.Stdout, emu, launches, *fVerbose, term.IsTerminal(int(os.Stdout.Fd())))
		return
	}

	err = emu.Load(launches[0], launches[1:]...)
	if err != nil {
		log.L.Error("load", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	err = emu.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		log.L.Error("run", "err", err)
		if *fDump {
			emu.Dump(os.Stderr)
		}
	}

	fmt.Printf("\n\nEND OF SIMULATION\n")
	fmt.Printf("Total Simulation Time: %dms\n", elapsed.Milliseconds())

	if len(*fDrum) != 0 {
		ouf, ferr := os.Create(*fDrum)
		if ferr == nil {
			ferr = emu.Drum.Marshal(ouf)
			ouf.Close()
		}
		if ferr != nil {
			log.L.Error("drum", "file", *fDrum, "err", ferr)
			err = errors.Join(err, ferr)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
