package emulator

import (
	"errors"

	"github.com/ezrec/sos/translate"
)

var f = translate.From

var (
	ErrNoProgram = errors.New(f("no boot program"))
)

// ErrRuntime indicates the process and source line of a runtime error.
type ErrRuntime struct {
	Pid    int
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("pid %v line %v: %v", err.Pid, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
