// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator assembles a complete SOS machine: RAM, CPU, interrupt
// controller, kernel and the standard devices.
package emulator

import (
	"context"
	"fmt"
	"io"
	"iter"
	"maps"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/ezrec/sos/cpu"
	"github.com/ezrec/sos/internal"
	sosio "github.com/ezrec/sos/io"
	"github.com/ezrec/sos/kernel"
	"github.com/ezrec/sos/log"
	"github.com/ezrec/sos/memory"
)

// LINE_CACHE_SIZE is the number of PC to source line lookups kept.
const LINE_CACHE_SIZE = 256

var _emulator_defines = map[string]string{
	"DEVICE_KEYBOARD": fmt.Sprintf("%d", sosio.DEVICE_ID_KEYBOARD),
	"DEVICE_CONSOLE":  fmt.Sprintf("%d", sosio.DEVICE_ID_CONSOLE),
	"DEVICE_DRUM":     fmt.Sprintf("%d", sosio.DEVICE_ID_DRUM),
}

// Config is the machine configuration.
type Config struct {
	Verbose bool // If set, enables verbose logging.

	RAMSize       int           // RAM size, in words.
	Latency       time.Duration // RAM access latency.
	DeviceLatency time.Duration // Latency of each device request.
	DrumCapacity  int           // Drum capacity, in words.

	Keyboard io.Reader // Keyboard input, or nil for random keys.
	Console  io.Writer // Console output.
	Output   io.Writer // Kernel output: OUTPUT lines, core dumps, faults.
}

// DefaultConfig returns the default machine configuration.
func DefaultConfig() Config {
	return Config{
		RAMSize:       memory.DEFAULT_SIZE,
		DeviceLatency: 10 * time.Millisecond,
		DrumCapacity:  sosio.DRUM_DEFAULT_CAPACITY,
		Console:       os.Stdout,
		Output:        os.Stdout,
	}
}

// Launch is a program and the window size to run it in.
type Launch struct {
	Program   *cpu.Program
	AllocSize int // Window size; zero selects the program's default.
}

// Emulator state. RAM + CPU + kernel + devices.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the CPU simulation.

	Kernel     *kernel.Kernel
	RAM        *memory.RAM
	Interrupts *sosio.InterruptController

	Keyboard sosio.Keyboard
	Console  sosio.Console
	Drum     sosio.Drum

	lines *lru.ARCCache
}

// NewEmulator creates a new emulator.
func NewEmulator(cfg Config) (emu *Emulator, err error) {
	ram := memory.NewRAM(cfg.RAMSize, cfg.Latency)
	ic := &sosio.InterruptController{}

	lines, err := lru.NewARC(LINE_CACHE_SIZE)
	if err != nil {
		return
	}

	emu = &Emulator{
		Verbose:    cfg.Verbose,
		Cpu:        cpu.NewCpu(ram, ic),
		RAM:        ram,
		Interrupts: ic,
		lines:      lines,
	}
	emu.Cpu.Verbose = cfg.Verbose

	emu.Kernel = kernel.NewKernel(emu.Cpu)
	emu.Kernel.Verbose = cfg.Verbose
	if cfg.Output != nil {
		emu.Kernel.Output = cfg.Output
	}

	emu.Keyboard.Input = cfg.Keyboard
	emu.Console.Output = cfg.Console
	if emu.Console.Output == nil {
		emu.Console.Output = io.Discard
	}
	emu.Drum.Capacity = cfg.DrumCapacity

	devices := []struct {
		id     int
		device sosio.Device
		driver *sosio.Driver
	}{
		{sosio.DEVICE_ID_KEYBOARD, &emu.Keyboard, &emu.Keyboard.Driver},
		{sosio.DEVICE_ID_CONSOLE, &emu.Console, &emu.Console.Driver},
		{sosio.DEVICE_ID_DRUM, &emu.Drum, &emu.Drum.Driver},
	}
	for _, dev := range devices {
		dev.driver.Latency = cfg.DeviceLatency
		dev.driver.Interrupts = ic
		err = emu.Kernel.RegisterDevice(dev.device, dev.id)
		if err != nil {
			return
		}
	}

	return
}

// Defines returns an iterator over all of the assembler defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		kernel.Defines(),
	)
}

// Assemble parses a program, with all of the machine's defines available.
func (emu *Emulator) Assemble(name string, input io.Reader) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(input)
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
		return
	}

	prog.Name = name
	return
}

// Load creates the boot process, and registers the programs that
// SYSCALL_EXEC may launch.
func (emu *Emulator) Load(boot Launch, pool ...Launch) (err error) {
	if boot.Program == nil {
		return ErrNoProgram
	}

	size := emu.RAM.Size()
	_, err = emu.Kernel.CreateProcess(boot.Program, boot.Program.AllocSize(boot.AllocSize, size))
	if err != nil {
		return
	}

	for _, launch := range pool {
		emu.Kernel.AddProgram(launch.Program, launch.Program.AllocSize(launch.AllocSize, size))
	}

	return
}

type lineKey struct {
	prog *cpu.Program
	pc   int
}

// LineNo returns the pid and source line of the current instruction.
func (emu *Emulator) LineNo() (pid int, lineno int) {
	pcb := emu.Kernel.Current()
	if pcb == nil || pcb.Program == nil {
		return
	}

	pid = pcb.Pid
	key := lineKey{prog: pcb.Program, pc: emu.Cpu.Register.PC()}

	if value, ok := emu.lines.Get(key); ok {
		lineno = value.(int)
		return
	}

	lineno, _, _ = pcb.Program.Debug(key.pc)
	emu.lines.Add(key, lineno)

	return
}

// Tick performs a single tick of the emulator, without running the devices.
func (emu *Emulator) Tick() (done bool, err error) {
	done, err = emu.Cpu.Tick()
	if err != nil {
		err = emu.runtimeError(err)
	}
	return
}

func (emu *Emulator) runtimeError(err error) error {
	pid, lineno := emu.LineNo()
	return &ErrRuntime{Pid: pid, LineNo: lineno, Err: err}
}

// Run runs the CPU and the device goroutines until the simulation ends, or
// the context is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	g, gctx := errgroup.WithContext(ctx)
	devctx, cancel := context.WithCancel(gctx)
	defer cancel()

	for _, info := range emu.Kernel.Devices() {
		dev := info.Device
		g.Go(func() error {
			return dev.Run(devctx)
		})
	}

	g.Go(func() (err error) {
		defer cancel()

		err = emu.Cpu.Run(gctx)
		if err != nil {
			err = emu.runtimeError(err)
		}

		log.L.Debug("emulator: cpu stopped", "ticks", emu.Cpu.Ticks, "err", err)

		return
	})

	return g.Wait()
}

// Dump writes the machine state for post-mortem debugging.
func (emu *Emulator) Dump(w io.Writer) {
	fmt.Fprintf(w, "TICKS: %d\n", emu.Cpu.Ticks)
	fmt.Fprintf(w, "REGISTERS: %v\n", emu.Cpu.Register.String())

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, MaxDepth: 4}
	cfg.Fdump(w, emu.Kernel.Current())
	cfg.Fdump(w, emu.Kernel.Processes)
}
