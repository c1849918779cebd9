package kernel

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ezrec/sos/cpu"
)

const (
	PID_IDLE  = 999  // Reserved pid of the idle process.
	PID_FIRST = 1001 // First pid handed to a user process.
)

// Block records the device operation a process is waiting on.
type Block struct {
	Device    int     // Device number.
	Operation Syscall // SYSCALL_OPEN, SYSCALL_READ or SYSCALL_WRITE.
	Addr      int     // Device address, ignored for SYSCALL_OPEN.
}

// Matches returns true if the block is for the device operation at addr.
func (blk *Block) Matches(device int, op Syscall, addr int) bool {
	if blk.Device != device || blk.Operation != op {
		return false
	}
	return op == SYSCALL_OPEN || blk.Addr == addr
}

// ProcessControlBlock is the kernel's record of a process.
//
// While a process is current its registers are live in the CPU, and
// Registers holds its last saved snapshot (nil if never saved).
type ProcessControlBlock struct {
	Pid       int
	Registers *cpu.Registers
	Blocked   *Block
	Program   *cpu.Program
}

// Save copies the live CPU registers into the PCB.
func (pcb *ProcessControlBlock) Save(c *cpu.Cpu) {
	regs := c.Register
	pcb.Registers = &regs
}

// Restore copies the PCB's saved registers into the CPU.
func (pcb *ProcessControlBlock) Restore(c *cpu.Cpu) {
	if pcb.Registers != nil {
		c.Register = *pcb.Registers
	}
}

// Block marks the process as waiting for a device operation.
func (pcb *ProcessControlBlock) Block(device int, op Syscall, addr int) {
	pcb.Blocked = &Block{Device: device, Operation: op, Addr: addr}
}

// Unblock makes the process ready.
func (pcb *ProcessControlBlock) Unblock() {
	pcb.Blocked = nil
}

// IsBlocked returns true if the process waits on a device.
func (pcb *ProcessControlBlock) IsBlocked() bool {
	return pcb.Blocked != nil
}

// IsBlockedOn returns true if the process waits on the device operation.
func (pcb *ProcessControlBlock) IsBlockedOn(device int, op Syscall, addr int) bool {
	return pcb.Blocked != nil && pcb.Blocked.Matches(device, op, addr)
}

func (pcb *ProcessControlBlock) String() string {
	state := "ready"
	if pcb.Blocked != nil {
		state = fmt.Sprintf("blocked on %v of device %d @%d", pcb.Blocked.Operation, pcb.Blocked.Device, pcb.Blocked.Addr)
	}
	return fmt.Sprintf("pid %d (%s)", pcb.Pid, state)
}

// ProcessTable is the ordered list of processes that have not exited.
type ProcessTable struct {
	Processes []*ProcessControlBlock
}

// Len returns the number of processes.
func (pt *ProcessTable) Len() int {
	return len(pt.Processes)
}

// Add appends a process.
func (pt *ProcessTable) Add(pcb *ProcessControlBlock) {
	pt.Processes = append(pt.Processes, pcb)
}

// Remove drops a process, returning true if it was a member.
func (pt *ProcessTable) Remove(pcb *ProcessControlBlock) bool {
	n := slices.Index(pt.Processes, pcb)
	if n < 0 {
		return false
	}
	pt.Processes = slices.Delete(pt.Processes, n, n+1)
	return true
}

// Contains returns true if the process is a member.
func (pt *ProcessTable) Contains(pcb *ProcessControlBlock) bool {
	return slices.Contains(pt.Processes, pcb)
}

// Find returns the process with the pid.
func (pt *ProcessTable) Find(pid int) *ProcessControlBlock {
	for _, pcb := range pt.Processes {
		if pcb.Pid == pid {
			return pcb
		}
	}
	return nil
}

// FindBlocked returns the first process waiting on the device operation.
func (pt *ProcessTable) FindBlocked(device int, op Syscall, addr int) *ProcessControlBlock {
	for _, pcb := range pt.Processes {
		if pcb.IsBlockedOn(device, op, addr) {
			return pcb
		}
	}
	return nil
}

// Ready scans the table, starting at offset and wrapping around, for the
// first process that is not blocked.
func (pt *ProcessTable) Ready(offset int) *ProcessControlBlock {
	count := len(pt.Processes)
	for n := range count {
		pcb := pt.Processes[(offset+n)%count]
		if !pcb.IsBlocked() {
			return pcb
		}
	}
	return nil
}

// All iterates over the processes, in table order.
func (pt *ProcessTable) All() iter.Seq[*ProcessControlBlock] {
	return slices.Values(pt.Processes)
}
