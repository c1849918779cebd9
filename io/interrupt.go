package io

import (
	"sync"
)

// InterruptKind is the type of a device interrupt.
type InterruptKind int

//go:generate go tool stringer -linecomment -type=InterruptKind
const (
	INT_READ_DONE  = InterruptKind(0) // read-done
	INT_WRITE_DONE = InterruptKind(1) // write-done
)

// Interrupt is a record of a completed device request.
type Interrupt struct {
	Kind     InterruptKind
	DeviceID int
	Addr     int
	Data     int
}

// InterruptController is a FIFO of pending interrupts.
//
// Any number of device goroutines may Put, while a single consumer (the CPU)
// drains with Get.
type InterruptController struct {
	mutex   sync.Mutex
	pending []Interrupt
}

// Reset drops all pending interrupts.
func (ic *InterruptController) Reset() {
	ic.mutex.Lock()
	defer ic.mutex.Unlock()

	ic.pending = nil
}

// Put queues an interrupt.
func (ic *InterruptController) Put(intr Interrupt) {
	ic.mutex.Lock()
	defer ic.mutex.Unlock()

	ic.pending = append(ic.pending, intr)
}

// Get removes the oldest pending interrupt, if any.
func (ic *InterruptController) Get() (intr Interrupt, ok bool) {
	ic.mutex.Lock()
	defer ic.mutex.Unlock()

	if len(ic.pending) > 0 {
		ok = true
		intr = ic.pending[0]
		ic.pending = ic.pending[1:]
	}

	return
}

// Len returns the number of pending interrupts.
func (ic *InterruptController) Len() int {
	ic.mutex.Lock()
	defer ic.mutex.Unlock()

	return len(ic.pending)
}
