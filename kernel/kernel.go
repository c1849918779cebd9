// Package kernel implements SOS, the cooperative kernel driving the
// simulated CPU.
//
// The kernel is the CPU's trap handler: every system call, protection fault
// and device completion interrupt reaches it synchronously on the CPU
// goroutine. It keeps one ProcessControlBlock per process, switches between
// them by saving and restoring register snapshots, and blocks processes that
// wait on device operations until the matching completion interrupt arrives.
//
// There is no preemption. A process gives up the CPU only by a system call.
package kernel

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/ezrec/sos/cpu"
	sosio "github.com/ezrec/sos/io"
	"github.com/ezrec/sos/log"
)

// IDLE_ALLOC_SIZE is the window size of the idle process.
const IDLE_ALLOC_SIZE = 24

// idleProgram is an EXIT system call.
var idleProgram = &cpu.Program{
	Name: "idle",
	Instructions: []cpu.Instruction{
		cpu.MakeInstruction(cpu.OP_SET, cpu.REG_R0, int(SYSCALL_EXIT)),
		cpu.MakeInstruction(cpu.OP_PUSH, cpu.REG_R0),
		cpu.MakeInstruction(cpu.OP_TRAP),
	},
}

// ProgramInfo is a program registered for SYSCALL_EXEC.
type ProgramInfo struct {
	Program   *cpu.Program
	AllocSize int // Window size of each launch.
	Launched  int // Number of launches so far.
}

// window is a physical memory allocation.
type window struct {
	base int
	lim  int
}

// Kernel is the SOS kernel state.
type Kernel struct {
	Verbose bool      // If set, logs scheduling decisions.
	Output  io.Writer // Destination of process output, core dumps and fault reports.

	Rand      *rand.Rand    // Source of scheduling randomness.
	Processes *ProcessTable // All processes that have not exited.

	cpu      *cpu.Cpu
	current  *ProcessControlBlock
	devices  []*DeviceInfo
	programs []*ProgramInfo
	nextPid  int
	nextLoad int
	idle     *window
}

var _ cpu.TrapHandler = (*Kernel)(nil)

// NewKernel creates a kernel, and installs it as the trap handler of the CPU.
func NewKernel(c *cpu.Cpu) (k *Kernel) {
	k = &Kernel{
		Output:    os.Stdout,
		Rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Processes: &ProcessTable{},
		cpu:       c,
		nextPid:   PID_FIRST,
	}

	c.SetTrapHandler(k)

	return
}

// Cpu returns the CPU driven by the kernel.
func (k *Kernel) Cpu() *cpu.Cpu {
	return k.cpu
}

// Current returns the running process, or nil.
func (k *Kernel) Current() *ProcessControlBlock {
	return k.current
}

// RegisterDevice adds a device under the device number id.
func (k *Kernel) RegisterDevice(dev sosio.Device, id int) (err error) {
	if k.Device(id) != nil {
		err = fmt.Errorf("%w: %d", ErrDeviceDuplicate, id)
		return
	}

	dev.SetID(id)
	k.devices = append(k.devices, &DeviceInfo{ID: id, Device: dev})

	return
}

// Device returns the registered device with the device number, or nil.
func (k *Kernel) Device(id int) *DeviceInfo {
	for _, info := range k.devices {
		if info.ID == id {
			return info
		}
	}
	return nil
}

// Devices returns all of the registered devices.
func (k *Kernel) Devices() []*DeviceInfo {
	return slices.Clone(k.devices)
}

// AddProgram registers a program for SYSCALL_EXEC, with its window size.
func (k *Kernel) AddProgram(prog *cpu.Program, allocSize int) {
	k.programs = append(k.programs, &ProgramInfo{Program: prog, AllocSize: allocSize})
}

// Programs returns the programs registered for SYSCALL_EXEC.
func (k *Kernel) Programs() []*ProgramInfo {
	return slices.Clone(k.programs)
}

// allocate reserves a window of allocSize words beyond its base.
func (k *Kernel) allocate(allocSize int) (win window, err error) {
	win = window{base: k.nextLoad, lim: k.nextLoad + allocSize}
	if allocSize < 0 || win.lim >= k.cpu.RAM.Size() {
		err = fmt.Errorf("%w: need %d words at %d of %d", ErrOutOfMemory, allocSize, win.base, k.cpu.RAM.Size())
		return
	}

	k.nextLoad = win.lim + 1
	return
}

// CreateProcess loads a program into a new window of allocSize words, and
// makes it the current process.
func (k *Kernel) CreateProcess(prog *cpu.Program, allocSize int) (pcb *ProcessControlBlock, err error) {
	if prog.Size() > allocSize {
		err = fmt.Errorf("%w: %v needs %d words, has %d", ErrProgramTooLarge, prog.Name, prog.Size(), allocSize)
		return
	}

	win, err := k.allocate(allocSize)
	if err != nil {
		return
	}

	pid := k.nextPid
	k.nextPid++

	return k.createProcessAt(prog, pid, win)
}

func (k *Kernel) createProcessAt(prog *cpu.Program, pid int, win window) (pcb *ProcessControlBlock, err error) {
	err = k.cpu.RAM.Load(win.base, prog.Export())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		return
	}

	if k.current != nil {
		k.current.Save(k.cpu)
	}

	pcb = &ProcessControlBlock{
		Pid:     pid,
		Program: prog,
	}

	var regs cpu.Registers
	regs[cpu.REG_PC] = 0
	regs[cpu.REG_SP] = win.lim - win.base
	regs[cpu.REG_BASE] = win.base
	regs[cpu.REG_LIM] = win.lim
	k.cpu.Register = regs

	k.current = pcb
	k.Processes.Add(pcb)

	if k.Verbose {
		log.L.Debug("kernel: create", "pid", pid, "program", prog.Name, "base", win.base, "lim", win.lim)
	}

	return
}

// switchTo makes the process current, saving the outgoing process.
func (k *Kernel) switchTo(pcb *ProcessControlBlock) {
	if k.current == pcb {
		return
	}

	if k.current != nil {
		k.current.Save(k.cpu)
	}
	pcb.Restore(k.cpu)
	k.current = pcb

	if k.Verbose {
		log.L.Debug("kernel: switch", "pid", pcb.Pid)
	}
}

// ScheduleNewProcess picks a ready process and makes it current.
//
// When the process table is empty the simulation is over, and the returned
// error wraps cpu.ErrHalt. When every process is blocked, the idle process
// runs until a device completes.
func (k *Kernel) ScheduleNewProcess() (err error) {
	count := k.Processes.Len()
	if count == 0 {
		fmt.Fprintln(k.Output, "No more processes to run. Stopping.")
		return cpu.ErrHalt
	}

	next := k.Processes.Ready(k.Rand.IntN(count))
	if next == nil {
		return k.scheduleIdle()
	}

	k.switchTo(next)

	return
}

// scheduleIdle creates the idle process. Its window is allocated on first
// use and reused after.
func (k *Kernel) scheduleIdle() (err error) {
	if k.idle == nil {
		var win window
		win, err = k.allocate(IDLE_ALLOC_SIZE)
		if err != nil {
			return
		}
		k.idle = &win
	}

	_, err = k.createProcessAt(idleProgram, PID_IDLE, *k.idle)
	if err != nil {
		return
	}

	// The CPU advances PC after the system call returns.
	k.cpu.Register[cpu.REG_PC] -= cpu.INSTRSIZE

	return
}

// withProcess runs fn with the registers of pcb live in the CPU, then puts
// the current process back.
func (k *Kernel) withProcess(pcb *ProcessControlBlock, fn func() error) (err error) {
	prev := k.current
	if prev == pcb {
		return fn()
	}

	if prev != nil {
		prev.Save(k.cpu)
	}
	pcb.Restore(k.cpu)

	err = fn()

	pcb.Save(k.cpu)
	if prev != nil {
		prev.Restore(k.cpu)
	}

	return
}

// pushReturn pushes a return code onto the current stack.
func (k *Kernel) pushReturn(rc ReturnCode) error {
	return k.cpu.PushStack(int(rc))
}

// popArgs pops count system call arguments from the current stack.
func (k *Kernel) popArgs(count int) (args []int, err error) {
	args = make([]int, count)
	for n := range count {
		args[n], err = k.cpu.PopStack()
		if err != nil {
			return
		}
	}
	return
}

// pushArgs pushes values so that they pop back in slice order.
func (k *Kernel) pushArgs(args []int) (err error) {
	for _, arg := range slices.Backward(args) {
		err = k.cpu.PushStack(arg)
		if err != nil {
			return
		}
	}
	return
}

// die reports a fatal fault of the current process.
func (k *Kernel) die(format string, args ...any) {
	fmt.Fprintf(k.Output, "ERROR: "+format+"\n", args...)
	fmt.Fprintln(k.Output, "NOW YOU DIE!!!")

	pid := 0
	if k.current != nil {
		pid = k.current.Pid
	}
	log.L.Error("kernel: fault", "pid", pid, "regs", k.cpu.Register.String())
}
