package memory

import (
	"github.com/ezrec/sos/translate"
)

var f = translate.From

// ErrAddress is a physical address outside of the RAM.
type ErrAddress int

func (err ErrAddress) Error() string {
	return f("physical address %v out of range", int(err))
}
