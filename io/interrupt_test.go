package io

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptController_Reset(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	ic.Put(Interrupt{Kind: INT_READ_DONE})
	ic.Put(Interrupt{Kind: INT_WRITE_DONE})
	assert.Equal(2, ic.Len())

	ic.Reset()
	assert.Equal(0, ic.Len())

	_, ok := ic.Get()
	assert.False(ok)
}

func TestInterruptController_Get(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}

	// Empty queue
	intr, ok := ic.Get()
	assert.False(ok)
	assert.Equal(Interrupt{}, intr)

	// With items, in order
	ic.Put(Interrupt{Kind: INT_READ_DONE, DeviceID: 0, Addr: 10, Data: 20})
	ic.Put(Interrupt{Kind: INT_WRITE_DONE, DeviceID: 1, Addr: 30})

	intr, ok = ic.Get()
	assert.True(ok)
	assert.Equal(Interrupt{Kind: INT_READ_DONE, DeviceID: 0, Addr: 10, Data: 20}, intr)
	assert.Equal(1, ic.Len())

	intr, ok = ic.Get()
	assert.True(ok)
	assert.Equal(Interrupt{Kind: INT_WRITE_DONE, DeviceID: 1, Addr: 30}, intr)
	assert.Equal(0, ic.Len())
}

func TestInterruptController_Concurrent(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}

	const producers = 8
	const each = 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range each {
				ic.Put(Interrupt{Kind: INT_WRITE_DONE, DeviceID: p, Addr: n})
			}
		}()
	}
	wg.Wait()

	// Per-producer order is preserved.
	last := make(map[int]int)
	count := 0
	for intr, ok := ic.Get(); ok; intr, ok = ic.Get() {
		prev, seen := last[intr.DeviceID]
		if seen {
			assert.Greater(intr.Addr, prev)
		}
		last[intr.DeviceID] = intr.Addr
		count++
	}
	assert.Equal(producers*each, count)
}

func TestInterruptKind_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("read-done", INT_READ_DONE.String())
	assert.Equal("write-done", INT_WRITE_DONE.String())
	assert.Equal("InterruptKind(7)", InterruptKind(7).String())
}
