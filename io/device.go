// Package io provides the interrupt controller and the device drivers of the
// SOS simulator.
//
// Devices perform their I/O asynchronously on their own goroutine, and report
// completion through the InterruptController. The kernel never waits on a
// device: it starts a request, blocks the requesting process, and resumes it
// when the completion interrupt arrives.
package io

import (
	"context"
)

// Device numbers of the standard devices.
const (
	DEVICE_ID_KEYBOARD = 0
	DEVICE_ID_CONSOLE  = 1
	DEVICE_ID_DRUM     = 2
)

// Device defines the capabilities the kernel uses to manage a device.
type Device interface {
	// ID is the kernel assigned device number.
	ID() int
	// SetID assigns the device number.
	SetID(id int)
	// Sharable returns true if multiple processes may open the device.
	Sharable() bool
	// Available returns false while a request is in flight.
	Available() bool
	// Readable returns true if the device supports Read.
	Readable() bool
	// Writable returns true if the device supports Write.
	Writable() bool
	// Read starts an asynchronous read of addr. Completion is signalled
	// by an INT_READ_DONE interrupt.
	Read(addr int)
	// Write starts an asynchronous write of value to addr. Completion is
	// signalled by an INT_WRITE_DONE interrupt.
	Write(addr int, value int)
	// Run services requests until the context is done.
	Run(ctx context.Context) error
}
