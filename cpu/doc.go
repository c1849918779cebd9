// Package cpu implements the microprocessor and program loader for the SOS
// simulator.
//
// The CPU consists of nine signed registers: five general-purpose registers
// (r0-r4), a program counter (PC), a stack pointer (SP), and the BASE and LIM
// registers which bound the physical memory window of the running process.
// PC and SP are logical offsets from BASE. Every memory access is checked
// against the window and a violation is reported to the registered
// TrapHandler, as are divide-by-zero, illegal instructions and the TRAP
// (system call) instruction.
//
// The assembler provides a small assembly language for the instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
