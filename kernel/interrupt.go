package kernel

import (
	"github.com/ezrec/sos/cpu"
	"github.com/ezrec/sos/log"
)

// InterruptIOReadComplete delivers the data of a completed read to the
// process waiting on it.
func (k *Kernel) InterruptIOReadComplete(deviceID int, addr int, data int) (err error) {
	return k.complete(deviceID, SYSCALL_READ, addr, data)
}

// InterruptIOWriteComplete delivers the status of a completed write to the
// process waiting on it.
func (k *Kernel) InterruptIOWriteComplete(deviceID int, addr int) (err error) {
	return k.complete(deviceID, SYSCALL_WRITE, addr, 0)
}

func (k *Kernel) complete(deviceID int, op Syscall, addr int, data int) (err error) {
	if k.Device(deviceID) == nil {
		log.L.Warn("kernel: completion from unknown device", "device", deviceID, "op", op, "addr", addr)
		return
	}

	pcb := k.Processes.FindBlocked(deviceID, op, addr)
	if pcb == nil {
		log.L.Warn("kernel: completion with no waiting process", "device", deviceID, "op", op, "addr", addr)
		return
	}

	err = k.withProcess(pcb, func() (err error) {
		if op == SYSCALL_READ {
			err = k.cpu.PushStack(data)
			if err != nil {
				return
			}
		}
		return k.pushReturn(SYSCALL_RET_SUCCESS)
	})
	if err != nil {
		return
	}

	pcb.Unblock()

	if k.Verbose {
		log.L.Debug("kernel: io complete", "pid", pcb.Pid, "device", deviceID, "op", op, "addr", addr)
	}

	return
}

// InterruptIllegalMemoryAccess reports the fault. The CPU halts.
func (k *Kernel) InterruptIllegalMemoryAccess(addr int) error {
	k.die("Illegal memory access at %d", addr)
	return nil
}

// InterruptDivideByZero reports the fault. The CPU halts.
func (k *Kernel) InterruptDivideByZero() error {
	k.die("Divide by zero")
	return nil
}

// InterruptIllegalInstruction reports the fault. The CPU halts.
func (k *Kernel) InterruptIllegalInstruction(instr cpu.Instruction) error {
	k.die("Illegal instruction: %v", instr.String())
	return nil
}
