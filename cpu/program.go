package cpu

import (
	"iter"
)

// Program is an assembled program, ready to be loaded into a process.
type Program struct {
	Name             string        // Name of the program, usually the source file.
	Instructions     []Instruction // Instructions, in load order.
	Lines            []int         // Source line of each instruction.
	DefaultAllocSize int           // Allocation size used when none is requested.
}

// Size returns the size of the program in words.
func (prog *Program) Size() int {
	return len(prog.Instructions) * INSTRSIZE
}

// AllocSize returns the window size to allocate for the program.
// An explicit size wins over DefaultAllocSize, which wins over twice the
// program size. The result never exceeds ramSize-1.
func (prog *Program) AllocSize(size int, ramSize int) int {
	if size <= 0 {
		size = prog.DefaultAllocSize
	}
	if size <= 0 {
		size = 2 * prog.Size()
	}
	return min(size, ramSize-1)
}

// Export flattens the program into memory words.
func (prog *Program) Export() (words []int) {
	words = make([]int, 0, prog.Size())
	for _, instr := range prog.Instructions {
		encoded := instr.Words()
		words = append(words, encoded[:]...)
	}

	return
}

// Debug returns the source line and instruction at the logical pc.
func (prog *Program) Debug(pc int) (lineno int, instr Instruction, ok bool) {
	if pc < 0 || pc%INSTRSIZE != 0 {
		return
	}

	index := pc / INSTRSIZE
	if index >= len(prog.Instructions) {
		return
	}

	instr = prog.Instructions[index]
	if index < len(prog.Lines) {
		lineno = prog.Lines[index]
	}
	ok = true

	return
}

// Listing iterates over the program, yielding the logical address of each
// instruction.
func (prog *Program) Listing() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, instr Instruction) bool) {
		for n, instr := range prog.Instructions {
			if !yield(n*INSTRSIZE, instr) {
				return
			}
		}
	}
}
