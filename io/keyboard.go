package io

import (
	"context"
	"io"
	"math/rand/v2"
)

// Keyboard is a non-sharable, read-only device.
//
// Each read yields the next byte of Input. Once Input is exhausted (or if
// there is none) a read yields a random value in [0, 255].
type Keyboard struct {
	Driver
	Input io.Reader

	exhausted bool
}

var _ Device = (*Keyboard)(nil)

func (kb *Keyboard) Sharable() bool { return false }
func (kb *Keyboard) Readable() bool { return true }
func (kb *Keyboard) Writable() bool { return false }

// Read starts a key read.
func (kb *Keyboard) Read(addr int) {
	kb.submit(request{addr: addr})
}

// Write is not supported by the keyboard.
func (kb *Keyboard) Write(addr int, value int) {
}

// Run services key reads until the context is done.
func (kb *Keyboard) Run(ctx context.Context) error {
	return kb.serve(ctx, kb.handle)
}

func (kb *Keyboard) handle(req request) (data int) {
	if kb.Input != nil && !kb.exhausted {
		var one [1]byte
		_, err := io.ReadFull(kb.Input, one[:])
		if err == nil {
			return int(one[0])
		}
		kb.exhausted = true
	}

	return rand.IntN(256)
}
