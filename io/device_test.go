package io

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// await waits for the next interrupt from a device.
func await(t *testing.T, ic *InterruptController) Interrupt {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		intr, ok := ic.Get()
		if ok {
			return intr
		}
		time.Sleep(time.Millisecond)
	}

	require.FailNow(t, "no interrupt")
	return Interrupt{}
}

// start runs a device until the test ends.
func start(t *testing.T, dev Device) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dev.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestKeyboard(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	kb := &Keyboard{Input: strings.NewReader("AB")}
	kb.Interrupts = ic
	kb.SetID(DEVICE_ID_KEYBOARD)

	assert.False(kb.Sharable())
	assert.True(kb.Readable())
	assert.False(kb.Writable())
	assert.True(kb.Available())

	start(t, kb)

	kb.Read(7)
	intr := await(t, ic)
	assert.Equal(Interrupt{Kind: INT_READ_DONE, DeviceID: DEVICE_ID_KEYBOARD, Addr: 7, Data: 'A'}, intr)

	kb.Read(8)
	intr = await(t, ic)
	assert.Equal('B', rune(intr.Data))
	assert.Equal(8, intr.Addr)

	// Input exhausted: random key.
	kb.Read(9)
	intr = await(t, ic)
	assert.GreaterOrEqual(intr.Data, 0)
	assert.Less(intr.Data, 256)
	assert.True(kb.Available())
}

func TestKeyboard_Busy(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	kb := &Keyboard{}
	kb.Interrupts = ic
	kb.Latency = 20 * time.Millisecond

	start(t, kb)

	kb.Read(0)
	assert.False(kb.Available())

	await(t, ic)
	assert.Eventually(kb.Available, time.Second, time.Millisecond)
}

func TestConsole(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	output := &bytes.Buffer{}
	con := &Console{Output: output}
	con.Interrupts = ic
	con.SetID(DEVICE_ID_CONSOLE)

	assert.True(con.Sharable())
	assert.False(con.Readable())
	assert.True(con.Writable())

	start(t, con)

	con.Write(3, 42)
	intr := await(t, ic)
	assert.Equal(Interrupt{Kind: INT_WRITE_DONE, DeviceID: DEVICE_ID_CONSOLE, Addr: 3}, intr)
	assert.Equal("CONSOLE: 42\n", output.String())
}

func TestDrum(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	drum := &Drum{Capacity: 8}
	drum.Interrupts = ic
	drum.SetID(DEVICE_ID_DRUM)

	assert.False(drum.Sharable())
	assert.True(drum.Readable())
	assert.True(drum.Writable())

	start(t, drum)

	drum.Write(5, -17)
	intr := await(t, ic)
	assert.Equal(Interrupt{Kind: INT_WRITE_DONE, DeviceID: DEVICE_ID_DRUM, Addr: 5}, intr)

	drum.Read(5)
	intr = await(t, ic)
	assert.Equal(Interrupt{Kind: INT_READ_DONE, DeviceID: DEVICE_ID_DRUM, Addr: 5, Data: -17}, intr)

	// Never written
	drum.Read(1)
	intr = await(t, ic)
	assert.Equal(0, intr.Data)

	// Out of range
	drum.Read(8)
	intr = await(t, ic)
	assert.Equal(DRUM_ERROR, intr.Data)

	value, ok := drum.Peek(5)
	assert.True(ok)
	assert.Equal(-17, value)

	_, ok = drum.Peek(-1)
	assert.False(ok)
}

func TestDrum_Marshal(t *testing.T) {
	assert := assert.New(t)

	image := []byte{
		1, 0, 0, 0, 0, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}

	drum := &Drum{Capacity: 4}
	err := drum.Unmarshal(bytes.NewReader(image))
	assert.NoError(err)

	value, _ := drum.Peek(0)
	assert.Equal(1, value)
	value, _ = drum.Peek(1)
	assert.Equal(-1, value)

	out := &bytes.Buffer{}
	assert.NoError(drum.Marshal(out))
	assert.Equal(image, out.Bytes())

	err = drum.Unmarshal(bytes.NewReader([]byte{1, 2, 3, 4}))
	assert.ErrorIs(err, ErrDrumImage)

	err = drum.Unmarshal(bytes.NewReader(make([]byte, DRUM_WORD_BYTES*5)))
	assert.ErrorIs(err, ErrDrumFull)
}

func TestDrum_WideWord(t *testing.T) {
	assert := assert.New(t)

	const wide = 1<<40 + 5

	ic := &InterruptController{}
	drum := &Drum{Capacity: 8}
	drum.Interrupts = ic

	start(t, drum)

	drum.Write(3, wide)
	await(t, ic)
	drum.Write(4, -wide)
	await(t, ic)

	value, ok := drum.Peek(3)
	assert.True(ok)
	assert.Equal(wide, value)

	drum.Read(4)
	intr := await(t, ic)
	assert.Equal(-wide, intr.Data)

	image := &bytes.Buffer{}
	assert.NoError(drum.Marshal(image))
	assert.Equal(5*DRUM_WORD_BYTES, image.Len())

	copied := &Drum{Capacity: 8}
	assert.NoError(copied.Unmarshal(image))
	value, _ = copied.Peek(3)
	assert.Equal(wide, value)
	value, _ = copied.Peek(4)
	assert.Equal(-wide, value)
}

func TestDriver_CompletionOrder(t *testing.T) {
	assert := assert.New(t)

	ic := &InterruptController{}
	drum := &Drum{Capacity: 8}
	drum.Interrupts = ic
	drum.SetID(DEVICE_ID_DRUM)

	start(t, drum)

	for addr := range 4 {
		drum.Write(addr, addr+10)

		deadline := time.Now().Add(5 * time.Second)
		for !drum.Available() && time.Now().Before(deadline) {
			time.Sleep(time.Microsecond)
		}
		require.True(t, drum.Available())

		// The completion is queued by the time the device is free again.
		intr, ok := ic.Get()
		if assert.True(ok, "addr %d", addr) {
			assert.Equal(Interrupt{Kind: INT_WRITE_DONE, DeviceID: DEVICE_ID_DRUM, Addr: addr}, intr)
		}
	}
}
