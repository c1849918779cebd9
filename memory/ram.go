// Package memory provides the addressable RAM of the simulated machine.
package memory

import (
	"time"
)

const (
	FETCH_WIDTH = 4 // Words returned by a single instruction fetch.

	DEFAULT_SIZE = 4000 // Default RAM size, in words.
)

// RAM is a fixed-size, word addressed memory store.
//
// Every access (read, write or fetch) stalls for Latency.
type RAM struct {
	Latency time.Duration // Access latency.

	data []int
}

// NewRAM creates a new RAM of size words.
func NewRAM(size int, latency time.Duration) (ram *RAM) {
	if size <= 0 {
		size = DEFAULT_SIZE
	}

	ram = &RAM{
		Latency: latency,
		data:    make([]int, size),
	}

	return
}

// Size returns the size of the RAM in words.
func (ram *RAM) Size() int {
	return len(ram.data)
}

// Valid returns true if the physical address is backed by the RAM.
func (ram *RAM) Valid(addr int) bool {
	return addr >= 0 && addr < len(ram.data)
}

func (ram *RAM) stall() {
	if ram.Latency > 0 {
		time.Sleep(ram.Latency)
	}
}

// Read a single word.
func (ram *RAM) Read(addr int) (value int, err error) {
	if !ram.Valid(addr) {
		err = ErrAddress(addr)
		return
	}

	ram.stall()
	value = ram.data[addr]
	return
}

// Write a single word.
func (ram *RAM) Write(addr int, value int) (err error) {
	if !ram.Valid(addr) {
		err = ErrAddress(addr)
		return
	}

	ram.stall()
	ram.data[addr] = value
	return
}

// Fetch reads the FETCH_WIDTH words of an instruction.
func (ram *RAM) Fetch(addr int) (words [FETCH_WIDTH]int, err error) {
	if !ram.Valid(addr) || !ram.Valid(addr+FETCH_WIDTH-1) {
		err = ErrAddress(addr)
		return
	}

	ram.stall()
	copy(words[:], ram.data[addr:addr+FETCH_WIDTH])
	return
}

// Load writes a block of words, starting at addr.
func (ram *RAM) Load(addr int, words []int) (err error) {
	if len(words) == 0 {
		return
	}

	if !ram.Valid(addr) || !ram.Valid(addr+len(words)-1) {
		err = ErrAddress(addr)
		return
	}

	ram.stall()
	copy(ram.data[addr:], words)
	return
}
