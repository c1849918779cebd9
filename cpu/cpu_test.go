package cpu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/sos/io"
	"github.com/ezrec/sos/memory"
)

const (
	testBase = 100
	testSize = 64
)

// testHandler records every trap delivered by the CPU.
type testHandler struct {
	reads     [][3]int
	writes    [][2]int
	memFaults []int
	divFaults int
	illegal   []Instruction
	syscalls  int

	syscall func() error
}

func (th *testHandler) InterruptIOReadComplete(dev int, addr int, data int) error {
	th.reads = append(th.reads, [3]int{dev, addr, data})
	return nil
}

func (th *testHandler) InterruptIOWriteComplete(dev int, addr int) error {
	th.writes = append(th.writes, [2]int{dev, addr})
	return nil
}

func (th *testHandler) InterruptIllegalMemoryAccess(addr int) error {
	th.memFaults = append(th.memFaults, addr)
	return nil
}

func (th *testHandler) InterruptDivideByZero() error {
	th.divFaults++
	return nil
}

func (th *testHandler) InterruptIllegalInstruction(instr Instruction) error {
	th.illegal = append(th.illegal, instr)
	return nil
}

func (th *testHandler) SystemCall() error {
	th.syscalls++
	if th.syscall != nil {
		return th.syscall()
	}
	return ErrHalt
}

// newTestCpu creates a CPU with the instructions loaded at testBase, and a
// window of testSize words.
func newTestCpu(t *testing.T, instrs ...Instruction) (cpu *Cpu, th *testHandler) {
	cpu = NewCpu(memory.NewRAM(1024, 0), &io.InterruptController{})
	th = &testHandler{}
	cpu.SetTrapHandler(th)

	prog := &Program{Instructions: instrs}
	err := cpu.RAM.Load(testBase, prog.Export())
	if err != nil {
		t.Fatal(err)
	}

	cpu.Register[REG_BASE] = testBase
	cpu.Register[REG_LIM] = testBase + testSize
	cpu.Register[REG_SP] = testSize
	cpu.Register[REG_PC] = 0

	return
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 7),
		MakeInstruction(OP_SET, REG_R1, 3),
		MakeInstruction(OP_ADD, REG_R2, REG_R0, REG_R1),
		MakeInstruction(OP_SUB, REG_R3, REG_R0, REG_R1),
		MakeInstruction(OP_MUL, REG_R4, REG_R0, REG_R1),
		MakeInstruction(OP_DIV, REG_R0, REG_R4, REG_R1),
		MakeInstruction(OP_COPY, REG_R1, REG_R2),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.NoError(err)

	assert.Equal(1, th.syscalls)
	assert.Equal(7, cpu.Register[REG_R0])
	assert.Equal(10, cpu.Register[REG_R1])
	assert.Equal(10, cpu.Register[REG_R2])
	assert.Equal(4, cpu.Register[REG_R3])
	assert.Equal(21, cpu.Register[REG_R4])
	assert.Equal(28, cpu.Register.PC())
	assert.Equal(8, cpu.Ticks)
}

func TestCpu_Branch(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 0),
		MakeInstruction(OP_SET, REG_R1, 1),
		MakeInstruction(OP_SET, REG_R2, 5),
		MakeInstruction(OP_ADD, REG_R0, REG_R0, REG_R1),
		MakeInstruction(OP_BLT, REG_R0, REG_R2, 12),
		MakeInstruction(OP_BNE, REG_R0, REG_R2, 0),
		MakeInstruction(OP_BRANCH, 32),
		MakeInstruction(OP_SET, REG_R0, 99),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.NoError(err)

	assert.Equal(5, cpu.Register[REG_R0])
	assert.Equal(3+5*2+3, cpu.Ticks)
}

func TestCpu_Stack(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 1),
		MakeInstruction(OP_SET, REG_R1, 2),
		MakeInstruction(OP_SET, REG_R2, 3),
		MakeInstruction(OP_PUSH, REG_R0),
		MakeInstruction(OP_PUSH, REG_R1),
		MakeInstruction(OP_PUSH, REG_R2),
		MakeInstruction(OP_POP, REG_R3),
		MakeInstruction(OP_POP, REG_R4),
		MakeInstruction(OP_POP, REG_R0),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.NoError(err)

	assert.Equal(1, cpu.Register[REG_R0])
	assert.Equal(3, cpu.Register[REG_R3])
	assert.Equal(2, cpu.Register[REG_R4])
	assert.Equal(testSize, cpu.Register.SP())

	value, err := cpu.RAM.Read(testBase + testSize)
	assert.NoError(err)
	assert.Equal(1, value)
	value, err = cpu.RAM.Read(testBase + testSize - 2)
	assert.NoError(err)
	assert.Equal(3, value)
}

func TestCpu_PushPopStack(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t)

	for n := range 10 {
		assert.NoError(cpu.PushStack(n * 11))
	}
	assert.Equal(testSize-10, cpu.Register.SP())

	for n := range 10 {
		value, err := cpu.PopStack()
		assert.NoError(err)
		assert.Equal((9-n)*11, value)
	}
	assert.Equal(testSize, cpu.Register.SP())

	_, err := cpu.PopStack()
	assert.ErrorIs(err, ErrIllegalMemory)
	assert.Equal([]int{testBase + testSize + 1}, th.memFaults)
}

func TestCpu_StackOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t)
	cpu.Register[REG_SP] = -1

	err := cpu.PushStack(5)
	assert.ErrorIs(err, ErrIllegalMemory)
	assert.Equal(-1, cpu.Register.SP())
	assert.Equal([]int{testBase - 1}, th.memFaults)

	value, err := cpu.RAM.Read(testBase - 1)
	assert.NoError(err)
	assert.Equal(0, value)
}

func TestCpu_PopEmpty(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 9),
		MakeInstruction(OP_POP, REG_R0),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.ErrorIs(err, ErrIllegalMemory)
	assert.True(IsFault(err))

	assert.Equal(9, cpu.Register[REG_R0])
	assert.Equal([]int{testBase + testSize + 1}, th.memFaults)
	assert.Equal(0, th.syscalls)
}

func TestCpu_DivideByZero(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 10),
		MakeInstruction(OP_SET, REG_R1, 0),
		MakeInstruction(OP_SET, REG_R2, 77),
		MakeInstruction(OP_DIV, REG_R2, REG_R0, REG_R1),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.ErrorIs(err, ErrDivideByZero)

	var ei ErrInstruction
	assert.ErrorAs(err, &ei)
	assert.Equal(OP_DIV, ei.Opcode)

	assert.Equal(77, cpu.Register[REG_R2])
	assert.Equal(1, th.divFaults)
	assert.Equal(0, th.syscalls)
	assert.Equal(12, cpu.Register.PC())
}

func TestCpu_LoadSave(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 99),
		MakeInstruction(OP_SAVE, REG_R0, 40),
		MakeInstruction(OP_LOAD, REG_R2, 40),
		MakeInstruction(OP_TRAP),
	)

	err := cpu.Run(context.Background())
	assert.NoError(err)
	assert.Empty(th.memFaults)

	assert.Equal(99, cpu.Register[REG_R2])
	value, err := cpu.RAM.Read(testBase + 40)
	assert.NoError(err)
	assert.Equal(99, value)
}

func TestCpu_LoadSaveBounds(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name   string
		op     Opcode
		offset int
	}{
		{"save-over", OP_SAVE, testSize + 1},
		{"save-under", OP_SAVE, -1},
		{"load-over", OP_LOAD, testSize + 1},
		{"load-under", OP_LOAD, -1},
	}

	for _, entry := range table {
		cpu, th := newTestCpu(t,
			MakeInstruction(OP_SET, REG_R0, 99),
			MakeInstruction(entry.op, REG_R0, entry.offset),
			MakeInstruction(OP_TRAP),
		)

		err := cpu.Run(context.Background())
		assert.ErrorIs(err, ErrIllegalMemory, entry.name)
		assert.ErrorIs(err, ErrAddress(testBase+entry.offset), entry.name)
		assert.Equal([]int{testBase + entry.offset}, th.memFaults, entry.name)

		assert.Equal(99, cpu.Register[REG_R0], entry.name)
		value, err := cpu.RAM.Read(testBase + entry.offset)
		assert.NoError(err, entry.name)
		assert.Equal(0, value, entry.name)
	}
}

func TestCpu_IllegalInstruction(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name  string
		instr Instruction
	}{
		{"opcode-13", MakeInstruction(Opcode(13))},
		{"opcode-14", MakeInstruction(Opcode(14))},
		{"opcode-negative", MakeInstruction(Opcode(-1))},
		{"register-high", MakeInstruction(OP_SET, NUMREG, 1)},
		{"register-negative", MakeInstruction(OP_ADD, REG_R0, -1, REG_R1)},
	}

	for _, entry := range table {
		cpu, th := newTestCpu(t, entry.instr, MakeInstruction(OP_TRAP))

		done, err := cpu.Tick()
		assert.True(done, entry.name)
		assert.ErrorIs(err, ErrIllegalInstruction, entry.name)
		assert.Equal([]Instruction{entry.instr}, th.illegal, entry.name)
		assert.Equal(0, cpu.Register.PC(), entry.name)
	}
}

func TestCpu_PcOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t, MakeInstruction(OP_SET, REG_R0, 1))
	cpu.Register[REG_LIM] = testBase + INSTRSIZE - 1

	done, err := cpu.Tick()
	assert.True(done)
	assert.ErrorIs(err, ErrIllegalMemory)
	assert.Equal(1, cpu.Register[REG_R0])
	assert.Equal([]int{testBase + INSTRSIZE}, th.memFaults)
}

func TestCpu_Interrupt(t *testing.T) {
	assert := assert.New(t)

	cpu, th := newTestCpu(t,
		MakeInstruction(OP_SET, REG_R0, 1),
		MakeInstruction(OP_SET, REG_R0, 2),
		MakeInstruction(OP_SET, REG_R0, 3),
	)

	cpu.Interrupts.Put(io.Interrupt{Kind: io.INT_READ_DONE, DeviceID: 2, Addr: 5, Data: 9})
	cpu.Interrupts.Put(io.Interrupt{Kind: io.INT_WRITE_DONE, DeviceID: 1, Addr: 0})

	done, err := cpu.Tick()
	assert.False(done)
	assert.NoError(err)
	assert.Equal([][3]int{{2, 5, 9}}, th.reads)
	assert.Empty(th.writes)

	done, err = cpu.Tick()
	assert.False(done)
	assert.NoError(err)
	assert.Equal([][2]int{{1, 0}}, th.writes)
	assert.Equal(0, cpu.Interrupts.Len())

	cpu.Interrupts.Put(io.Interrupt{Kind: io.InterruptKind(7)})
	done, err = cpu.Tick()
	assert.True(done)
	assert.ErrorIs(err, ErrInterruptUnknown)
	assert.Equal(2, cpu.Register[REG_R0])
}

func TestCpu_HandlerError(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("boom")

	cpu, th := newTestCpu(t, MakeInstruction(OP_TRAP))
	th.syscall = func() error { return boom }

	done, err := cpu.Tick()
	assert.True(done)
	assert.Equal(boom, err)
}

func TestCpu_HandlerMissing(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(memory.NewRAM(16, 0), nil)
	assert.NotNil(cpu.Interrupts)

	done, err := cpu.Tick()
	assert.True(done)
	assert.ErrorIs(err, ErrTrapHandlerMissing)
}

func TestCpu_RunCancel(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, MakeInstruction(OP_BRANCH, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cpu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
}

func TestCpu_Defines(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)

	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}

	assert.Equal("4", defines["INSTRSIZE"])
}
