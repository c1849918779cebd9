package kernel

import (
	"errors"

	"github.com/ezrec/sos/translate"
)

var f = translate.From

var (
	ErrOutOfMemory     = errors.New(f("out of memory"))
	ErrProgramTooLarge = errors.New(f("program larger than its allocation"))
	ErrNoPrograms      = errors.New(f("no programs registered for exec"))
	ErrSyscallUnknown  = errors.New(f("system call unknown"))
	ErrNoProcess       = errors.New(f("no current process"))
	ErrDeviceDuplicate = errors.New(f("device number already registered"))
)

// ErrProcess is an error raised while running a specific process.
type ErrProcess struct {
	Pid int
	Err error
}

func (err *ErrProcess) Error() string {
	return f("pid %v: %v", err.Pid, err.Err)
}

func (err *ErrProcess) Unwrap() error {
	return err.Err
}
