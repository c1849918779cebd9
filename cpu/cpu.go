package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/sos/io"
	"github.com/ezrec/sos/log"
	"github.com/ezrec/sos/memory"
)

var _cpu_defines = map[string]string{
	"INSTRSIZE": fmt.Sprintf("%d", INSTRSIZE),
	"NUMREG":    fmt.Sprintf("%d", NUMREG),
}

// Cpu is the fetch-decode-execute engine.
//
// All memory accesses are translated through the BASE and LIM registers.
// Traps (faults, system calls and device interrupts) are delivered
// synchronously to the TrapHandler.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	RAM        *memory.RAM             // Physical memory.
	Interrupts *io.InterruptController // Pending device interrupts.

	Register Registers // Register file.

	Ticks int // CPU ticks counter.

	handler TrapHandler
}

// NewCpu creates a new CPU attached to a RAM and an interrupt controller.
func NewCpu(ram *memory.RAM, ic *io.InterruptController) (cpu *Cpu) {
	if ic == nil {
		ic = &io.InterruptController{}
	}

	cpu = &Cpu{
		RAM:        ram,
		Interrupts: ic,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// SetTrapHandler registers the receiver of traps and interrupts.
func (cpu *Cpu) SetTrapHandler(handler TrapHandler) {
	cpu.handler = handler
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Register.String()
}

// ValidMemory returns true if the physical address is within the current
// BASE/LIM window, and backed by RAM.
func (cpu *Cpu) ValidMemory(addr int) bool {
	return cpu.Register.Valid(addr) && cpu.RAM.Valid(addr)
}

// illegalMemory reports a protection fault to the trap handler.
func (cpu *Cpu) illegalMemory(addr int) (err error) {
	err = cpu.handler.InterruptIllegalMemoryAccess(addr)
	err = errors.Join(ErrIllegalMemory, ErrAddress(addr), err)
	return
}

// PushStack pushes a value onto the stack of the current register window.
// The write happens at BASE+SP, then SP is decremented.
func (cpu *Cpu) PushStack(value int) (err error) {
	addr := cpu.Register[REG_BASE] + cpu.Register[REG_SP]
	if !cpu.ValidMemory(addr) {
		return cpu.illegalMemory(addr)
	}

	err = cpu.RAM.Write(addr, value)
	if err != nil {
		return errors.Join(ErrIllegalMemory, err)
	}

	cpu.Register[REG_SP]--

	return
}

// PopStack pops a value from the stack of the current register window.
// SP is incremented, then the value at BASE+SP is read.
func (cpu *Cpu) PopStack() (value int, err error) {
	cpu.Register[REG_SP]++

	addr := cpu.Register[REG_BASE] + cpu.Register[REG_SP]
	if !cpu.ValidMemory(addr) {
		err = cpu.illegalMemory(addr)
		return
	}

	value, err = cpu.RAM.Read(addr)
	if err != nil {
		err = errors.Join(ErrIllegalMemory, err)
	}

	return
}

// Fetch fetches the instruction at PC.
func (cpu *Cpu) Fetch() (instr Instruction, err error) {
	addr := cpu.Register[REG_BASE] + cpu.Register[REG_PC]
	if !cpu.ValidMemory(addr) {
		err = cpu.illegalMemory(addr)
		return
	}

	words, err := cpu.RAM.Fetch(addr)
	if err != nil {
		err = errors.Join(ErrIllegalMemory, err)
		return
	}

	instr = DecodeInstruction(words)
	return
}

// interrupt dispatches at most one pending interrupt.
func (cpu *Cpu) interrupt() (err error) {
	intr, ok := cpu.Interrupts.Get()
	if !ok {
		return
	}

	if cpu.Verbose {
		log.L.Debug("cpu: interrupt", "kind", intr.Kind, "device", intr.DeviceID, "addr", intr.Addr, "data", intr.Data)
	}

	switch intr.Kind {
	case io.INT_READ_DONE:
		err = cpu.handler.InterruptIOReadComplete(intr.DeviceID, intr.Addr, intr.Data)
	case io.INT_WRITE_DONE:
		err = cpu.handler.InterruptIOWriteComplete(intr.DeviceID, intr.Addr)
	default:
		err = fmt.Errorf("%w: %v", ErrInterruptUnknown, intr.Kind)
	}

	return
}

// Tick runs one CPU cycle: dispatch a pending interrupt, then fetch, execute
// and advance PC.
//
// done is set when the simulation has ended. A halt requested by the trap
// handler (any error wrapping ErrHalt) ends the simulation without error.
func (cpu *Cpu) Tick() (done bool, err error) {
	if cpu.handler == nil {
		return true, ErrTrapHandlerMissing
	}

	defer func() {
		if err != nil {
			done = true
			if errors.Is(err, ErrHalt) {
				err = nil
			}
		}
	}()

	cpu.Ticks++

	err = cpu.interrupt()
	if err != nil {
		return
	}

	instr, err := cpu.Fetch()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.L.Debug("cpu: tick", "regs", cpu.Register.String())
		log.L.Debug("cpu: exec", "instr", instr.String())
	}

	err = cpu.Execute(instr)
	if err != nil {
		return
	}

	cpu.Register[REG_PC] += INSTRSIZE

	addr := cpu.Register[REG_BASE] + cpu.Register[REG_PC]
	if !cpu.ValidMemory(addr) {
		err = cpu.illegalMemory(addr)
		return
	}

	return
}

// Execute executes a single decoded instruction.
// It does not advance PC.
func (cpu *Cpu) Execute(instr Instruction) (err error) {
	if !instr.Valid() {
		err = cpu.handler.InterruptIllegalInstruction(instr)
		err = errors.Join(ErrIllegalInstruction, ErrInstruction(instr), err)
		return
	}

	reg := &cpu.Register
	a := instr.Args

	switch instr.Opcode {
	case OP_SET:
		reg[a[0]] = a[1]
	case OP_ADD:
		reg[a[0]] = reg[a[1]] + reg[a[2]]
	case OP_SUB:
		reg[a[0]] = reg[a[1]] - reg[a[2]]
	case OP_MUL:
		reg[a[0]] = reg[a[1]] * reg[a[2]]
	case OP_DIV:
		if reg[a[2]] == 0 {
			err = cpu.handler.InterruptDivideByZero()
			err = errors.Join(ErrDivideByZero, ErrInstruction(instr), err)
			return
		}
		reg[a[0]] = reg[a[1]] / reg[a[2]]
	case OP_COPY:
		reg[a[0]] = reg[a[1]]
	case OP_BRANCH:
		reg[REG_PC] = a[0] - INSTRSIZE
	case OP_BNE:
		if reg[a[0]] != reg[a[1]] {
			reg[REG_PC] = a[2] - INSTRSIZE
		}
	case OP_BLT:
		if reg[a[0]] < reg[a[1]] {
			reg[REG_PC] = a[2] - INSTRSIZE
		}
	case OP_POP:
		var value int
		value, err = cpu.PopStack()
		if err != nil {
			return
		}
		reg[a[0]] = value
	case OP_PUSH:
		err = cpu.PushStack(reg[a[0]])
	case OP_LOAD:
		addr := reg[REG_BASE] + a[1]
		if !cpu.ValidMemory(addr) {
			return cpu.illegalMemory(addr)
		}
		var value int
		value, err = cpu.RAM.Read(addr)
		if err != nil {
			return errors.Join(ErrIllegalMemory, err)
		}
		reg[a[0]] = value
	case OP_SAVE:
		addr := reg[REG_BASE] + a[1]
		if !cpu.ValidMemory(addr) {
			return cpu.illegalMemory(addr)
		}
		err = cpu.RAM.Write(addr, reg[a[0]])
		if err != nil {
			return errors.Join(ErrIllegalMemory, err)
		}
	case OP_TRAP:
		err = cpu.handler.SystemCall()
	}

	return
}

// Run ticks the CPU until the simulation ends, or the context is cancelled.
func (cpu *Cpu) Run(ctx context.Context) (err error) {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var done bool
		done, err = cpu.Tick()
		if done {
			return
		}
	}
}
