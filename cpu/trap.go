package cpu

// TrapHandler receives interrupts, protection faults and system calls from
// the CPU.
//
// Every method is called synchronously on the CPU goroutine; the CPU does not
// continue until it returns. Returning an error that wraps ErrHalt ends the
// simulation cleanly, any other error ends it with that error.
type TrapHandler interface {
	InterruptIOReadComplete(deviceID int, addr int, data int) error
	InterruptIOWriteComplete(deviceID int, addr int) error
	InterruptIllegalMemoryAccess(addr int) error
	InterruptDivideByZero() error
	InterruptIllegalInstruction(instr Instruction) error
	SystemCall() error
}
