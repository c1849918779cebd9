package kernel

import (
	"fmt"

	"github.com/ezrec/sos/cpu"
	"github.com/ezrec/sos/log"
)

// SystemCall pops the system call number from the current stack, and
// dispatches it.
func (k *Kernel) SystemCall() (err error) {
	if k.current == nil {
		return ErrNoProcess
	}

	num, err := k.cpu.PopStack()
	if err != nil {
		return
	}

	sc := Syscall(num)
	if k.Verbose {
		log.L.Debug("kernel: syscall", "pid", k.current.Pid, "syscall", sc)
	}

	switch sc {
	case SYSCALL_EXIT:
		err = k.SyscallExit()
	case SYSCALL_OUTPUT:
		err = k.syscallOutput()
	case SYSCALL_GETPID:
		err = k.cpu.PushStack(k.current.Pid)
	case SYSCALL_OPEN:
		err = k.syscallOpen()
	case SYSCALL_CLOSE:
		err = k.syscallClose()
	case SYSCALL_READ:
		err = k.syscallRead()
	case SYSCALL_WRITE:
		err = k.syscallWrite()
	case SYSCALL_EXEC:
		err = k.syscallExec()
	case SYSCALL_YIELD:
		err = k.ScheduleNewProcess()
	case SYSCALL_COREDUMP:
		err = k.syscallCoreDump()
	default:
		k.die("unknown system call %d", num)
		err = &ErrProcess{Pid: k.current.Pid, Err: fmt.Errorf("%w: %d", ErrSyscallUnknown, num)}
	}

	return
}

// SyscallExit removes the current process, releases the devices it held,
// and schedules another.
func (k *Kernel) SyscallExit() (err error) {
	pcb := k.current
	if pcb == nil {
		return ErrNoProcess
	}

	k.Processes.Remove(pcb)
	k.current = nil

	if k.Verbose {
		log.L.Debug("kernel: exit", "pid", pcb.Pid)
	}

	for _, info := range k.devices {
		if info.RemoveOpener(pcb) {
			k.unblockOpen(info.ID)
		}
	}

	return k.ScheduleNewProcess()
}

func (k *Kernel) syscallOutput() (err error) {
	value, err := k.cpu.PopStack()
	if err != nil {
		return
	}

	fmt.Fprintf(k.Output, "OUTPUT: %d\n", value)
	return
}

func (k *Kernel) syscallOpen() (err error) {
	id, err := k.cpu.PopStack()
	if err != nil {
		return
	}

	info := k.Device(id)
	switch {
	case info == nil:
		return k.pushReturn(SYSCALL_RET_DEVICE_DOES_NOT_EXIST)
	case info.IsOpenedBy(k.current):
		return k.pushReturn(SYSCALL_RET_DEVICE_ALREADY_OPEN)
	case !info.Device.Sharable() && !info.Unused():
		// The caller waits its turn, and owns the device when unblocked.
		info.AddOpener(k.current)
		k.current.Block(id, SYSCALL_OPEN, -1)
		err = k.pushReturn(SYSCALL_RET_SUCCESS)
		if err != nil {
			return
		}
		return k.ScheduleNewProcess()
	}

	info.AddOpener(k.current)
	return k.pushReturn(SYSCALL_RET_SUCCESS)
}

func (k *Kernel) syscallClose() (err error) {
	id, err := k.cpu.PopStack()
	if err != nil {
		return
	}

	info := k.Device(id)
	switch {
	case info == nil:
		return k.pushReturn(SYSCALL_RET_DEVICE_DOES_NOT_EXIST)
	case !info.IsOpenedBy(k.current):
		return k.pushReturn(SYSCALL_RET_DEVICE_NOT_OPEN)
	}

	info.RemoveOpener(k.current)
	err = k.pushReturn(SYSCALL_RET_SUCCESS)
	if err != nil {
		return
	}

	k.unblockOpen(id)

	return
}

// unblockOpen readies at most one process waiting to open the device.
func (k *Kernel) unblockOpen(id int) {
	pcb := k.Processes.FindBlocked(id, SYSCALL_OPEN, -1)
	if pcb == nil {
		return
	}

	pcb.Unblock()

	if k.Verbose {
		log.L.Debug("kernel: open granted", "pid", pcb.Pid, "device", id)
	}
}

// retry re-pushes the arguments and the system call number, and rewinds PC
// so the TRAP runs again on a later turn.
func (k *Kernel) retry(sc Syscall, args []int) (err error) {
	err = k.pushArgs(append([]int{int(sc)}, args...))
	if err != nil {
		return
	}

	k.cpu.Register[cpu.REG_PC] -= cpu.INSTRSIZE
	k.current.Save(k.cpu)

	if k.Verbose {
		log.L.Debug("kernel: device busy", "pid", k.current.Pid, "syscall", sc, "device", args[0])
	}

	return k.ScheduleNewProcess()
}

// syscallRead pops deviceId then addr.
func (k *Kernel) syscallRead() (err error) {
	args, err := k.popArgs(2)
	if err != nil {
		return
	}
	id, addr := args[0], args[1]

	info := k.Device(id)
	switch {
	case info == nil:
		return k.pushReturn(SYSCALL_RET_DEVICE_DOES_NOT_EXIST)
	case !info.Device.Available():
		return k.retry(SYSCALL_READ, args)
	case !info.IsOpenedBy(k.current):
		return k.pushReturn(SYSCALL_RET_DEVICE_NOT_OPEN)
	case !info.Device.Readable():
		return k.pushReturn(SYSCALL_RET_DEVICE_WRITE_ONLY)
	}

	info.Device.Read(addr)
	k.current.Block(id, SYSCALL_READ, addr)

	return k.ScheduleNewProcess()
}

// syscallWrite pops deviceId, addr then value.
func (k *Kernel) syscallWrite() (err error) {
	args, err := k.popArgs(3)
	if err != nil {
		return
	}
	id, addr, value := args[0], args[1], args[2]

	info := k.Device(id)
	switch {
	case info == nil:
		return k.pushReturn(SYSCALL_RET_DEVICE_DOES_NOT_EXIST)
	case !info.Device.Available():
		return k.retry(SYSCALL_WRITE, args)
	case !info.IsOpenedBy(k.current):
		return k.pushReturn(SYSCALL_RET_DEVICE_NOT_OPEN)
	case !info.Device.Writable():
		return k.pushReturn(SYSCALL_RET_DEVICE_READ_ONLY)
	}

	info.Device.Write(addr, value)
	k.current.Block(id, SYSCALL_WRITE, addr)

	return k.ScheduleNewProcess()
}

// selectProgram picks, at random, one of the least launched programs.
func (k *Kernel) selectProgram() (info *ProgramInfo, err error) {
	if len(k.programs) == 0 {
		err = ErrNoPrograms
		return
	}

	least := k.programs[0].Launched
	for _, pi := range k.programs {
		least = min(least, pi.Launched)
	}

	var candidates []*ProgramInfo
	for _, pi := range k.programs {
		if pi.Launched == least {
			candidates = append(candidates, pi)
		}
	}

	info = candidates[k.Rand.IntN(len(candidates))]
	info.Launched++

	return
}

func (k *Kernel) syscallExec() (err error) {
	info, err := k.selectProgram()
	if err != nil {
		return
	}

	_, err = k.CreateProcess(info.Program, info.AllocSize)
	if err != nil {
		return
	}

	// The CPU advances PC after the system call returns.
	k.cpu.Register[cpu.REG_PC] -= cpu.INSTRSIZE

	return
}

// syscallCoreDump prints the registers and up to three stack words, then
// exits the process.
func (k *Kernel) syscallCoreDump() (err error) {
	fmt.Fprintf(k.Output, "CORE DUMP: pid %d\n", k.current.Pid)
	fmt.Fprintf(k.Output, "REGISTERS: %v\n", k.cpu.Register.String())

	for range 3 {
		regs := k.cpu.Register
		if !k.cpu.ValidMemory(regs.Base() + regs.SP() + 1) {
			break
		}
		var value int
		value, err = k.cpu.PopStack()
		if err != nil {
			return
		}
		fmt.Fprintf(k.Output, "STACK: %d\n", value)
	}

	return k.SyscallExit()
}
