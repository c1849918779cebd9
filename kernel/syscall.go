package kernel

import (
	"fmt"
	"iter"
)

// Syscall is a system call number, pushed onto the stack just before TRAP.
type Syscall int

//go:generate go tool stringer -linecomment -type=Syscall
const (
	SYSCALL_EXIT     = Syscall(0) // EXIT
	SYSCALL_OUTPUT   = Syscall(1) // OUTPUT
	SYSCALL_GETPID   = Syscall(2) // GETPID
	SYSCALL_OPEN     = Syscall(3) // OPEN
	SYSCALL_CLOSE    = Syscall(4) // CLOSE
	SYSCALL_READ     = Syscall(5) // READ
	SYSCALL_WRITE    = Syscall(6) // WRITE
	SYSCALL_EXEC     = Syscall(7) // EXEC
	SYSCALL_YIELD    = Syscall(8) // YIELD
	SYSCALL_COREDUMP = Syscall(9) // COREDUMP
)

// ReturnCode is the status a system call pushes back to its caller.
type ReturnCode int

//go:generate go tool stringer -linecomment -type=ReturnCode
const (
	SYSCALL_RET_SUCCESS               = ReturnCode(0)  // SUCCESS
	SYSCALL_RET_DEVICE_DOES_NOT_EXIST = ReturnCode(-1) // DEVICE_DOES_NOT_EXIST
	SYSCALL_RET_DEVICE_NOT_SHARABLE   = ReturnCode(-2) // DEVICE_NOT_SHARABLE
	SYSCALL_RET_DEVICE_ALREADY_OPEN   = ReturnCode(-3) // DEVICE_ALREADY_OPEN
	SYSCALL_RET_DEVICE_NOT_OPEN       = ReturnCode(-4) // DEVICE_NOT_OPEN
	SYSCALL_RET_DEVICE_READ_ONLY      = ReturnCode(-5) // DEVICE_READ_ONLY
	SYSCALL_RET_DEVICE_WRITE_ONLY     = ReturnCode(-6) // DEVICE_WRITE_ONLY
)

// Syscalls lists every system call.
var Syscalls = []Syscall{
	SYSCALL_EXIT, SYSCALL_OUTPUT, SYSCALL_GETPID, SYSCALL_OPEN, SYSCALL_CLOSE,
	SYSCALL_READ, SYSCALL_WRITE, SYSCALL_EXEC, SYSCALL_YIELD, SYSCALL_COREDUMP,
}

// ReturnCodes lists every system call return code.
var ReturnCodes = []ReturnCode{
	SYSCALL_RET_SUCCESS,
	SYSCALL_RET_DEVICE_DOES_NOT_EXIST,
	SYSCALL_RET_DEVICE_NOT_SHARABLE,
	SYSCALL_RET_DEVICE_ALREADY_OPEN,
	SYSCALL_RET_DEVICE_NOT_OPEN,
	SYSCALL_RET_DEVICE_READ_ONLY,
	SYSCALL_RET_DEVICE_WRITE_ONLY,
}

// Defines returns the assembler equates for the system call numbers
// (SYSCALL_EXIT, ...) and return codes (SYSCALL_RET_SUCCESS, ...).
func Defines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, sc := range Syscalls {
			if !yield("SYSCALL_"+sc.String(), fmt.Sprintf("%d", int(sc))) {
				return
			}
		}
		for _, rc := range ReturnCodes {
			if !yield("SYSCALL_RET_"+rc.String(), fmt.Sprintf("%d", int(rc))) {
				return
			}
		}
	}
}
