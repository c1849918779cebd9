package io

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

const (
	// DRUM_DEFAULT_CAPACITY is the default capacity in words of a new drum.
	DRUM_DEFAULT_CAPACITY = 1024

	// DRUM_ERROR is the value read from an address outside the drum.
	DRUM_ERROR = -1

	// DRUM_WORD_BYTES is the size of a word in a drum image.
	DRUM_WORD_BYTES = 8
)

// Drum is a non-sharable, word addressed storage device supporting both
// reads and writes.
//
// Its contents can be loaded from and saved to an image of little-endian
// 64-bit words.
//
// A read outside the capacity completes normally with DRUM_ERROR as the
// data, and a write outside it is dropped. Programs that store -1 cannot
// tell the two apart, so they should keep their addresses in range.
type Drum struct {
	Driver
	Capacity int // Capacity in words.

	mutex sync.Mutex
	data  []int
}

var _ Device = (*Drum)(nil)

func (drum *Drum) Sharable() bool { return false }
func (drum *Drum) Readable() bool { return true }
func (drum *Drum) Writable() bool { return true }

// Read starts a read of the word at addr.
func (drum *Drum) Read(addr int) {
	drum.submit(request{addr: addr})
}

// Write starts a write of value to the word at addr.
func (drum *Drum) Write(addr int, value int) {
	drum.submit(request{write: true, addr: addr, value: value})
}

// Run services drum requests until the context is done.
func (drum *Drum) Run(ctx context.Context) error {
	return drum.serve(ctx, drum.handle)
}

func (drum *Drum) capacity() int {
	if drum.Capacity == 0 {
		drum.Capacity = DRUM_DEFAULT_CAPACITY
	}
	return drum.Capacity
}

func (drum *Drum) handle(req request) (data int) {
	drum.mutex.Lock()
	defer drum.mutex.Unlock()

	if req.addr < 0 || req.addr >= drum.capacity() {
		return DRUM_ERROR
	}

	if req.write {
		for req.addr >= len(drum.data) {
			drum.data = append(drum.data, 0)
		}
		drum.data[req.addr] = req.value
		return
	}

	if req.addr < len(drum.data) {
		data = drum.data[req.addr]
	}

	return
}

// Peek returns the word stored at addr.
func (drum *Drum) Peek(addr int) (value int, ok bool) {
	drum.mutex.Lock()
	defer drum.mutex.Unlock()

	if addr < 0 || addr >= drum.capacity() {
		return
	}

	ok = true
	if addr < len(drum.data) {
		value = drum.data[addr]
	}
	return
}

// Unmarshal loads a drum image from a reader, replacing any existing data.
func (drum *Drum) Unmarshal(file io.Reader) (err error) {
	buff, err := io.ReadAll(file)
	if err != nil {
		return
	}

	if len(buff)%DRUM_WORD_BYTES != 0 {
		err = ErrDrumImage
		return
	}

	drum.mutex.Lock()
	defer drum.mutex.Unlock()

	if len(buff)/DRUM_WORD_BYTES > drum.capacity() {
		err = ErrDrumFull
		return
	}

	words := make([]int64, len(buff)/DRUM_WORD_BYTES)
	_, err = binary.Decode(buff, binary.LittleEndian, words)
	if err != nil {
		err = errors.Join(ErrDrumImage, err)
		return
	}

	drum.data = make([]int, len(words))
	for n, word := range words {
		drum.data[n] = int(word)
	}

	return
}

// Marshal writes the drum image, up to the highest written word.
func (drum *Drum) Marshal(file io.Writer) (err error) {
	drum.mutex.Lock()
	defer drum.mutex.Unlock()

	words := make([]int64, len(drum.data))
	for n, value := range drum.data {
		words[n] = int64(value)
	}

	err = binary.Write(file, binary.LittleEndian, words)

	return
}
