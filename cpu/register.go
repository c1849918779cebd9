package cpu

import (
	"fmt"
	"strings"
)

// Register indexes.
const (
	REG_R0   = 0 // General purpose registers.
	REG_R1   = 1
	REG_R2   = 2
	REG_R3   = 3
	REG_R4   = 4
	REG_PC   = 5 // Program counter, logical.
	REG_SP   = 6 // Stack pointer, logical.
	REG_BASE = 7 // Bottom of accessible RAM, physical.
	REG_LIM  = 8 // Top of accessible RAM, physical and inclusive.

	NUMREG    = 9      // Number of registers.
	NUMGENREG = REG_PC // Number of general purpose registers.
)

// registerNames are the assembler names of the registers.
var registerNames = [NUMREG]string{"r0", "r1", "r2", "r3", "r4", "pc", "sp", "base", "lim"}

// Registers is the register file.
type Registers [NUMREG]int

// PC returns the logical program counter.
func (regs Registers) PC() int {
	return regs[REG_PC]
}

// SP returns the logical stack pointer.
func (regs Registers) SP() int {
	return regs[REG_SP]
}

// Base returns the physical origin of the memory window.
func (regs Registers) Base() int {
	return regs[REG_BASE]
}

// Lim returns the physical top of the memory window.
func (regs Registers) Lim() int {
	return regs[REG_LIM]
}

// Valid returns true if the physical address is within BASE and LIM.
func (regs Registers) Valid(addr int) bool {
	return addr >= regs[REG_BASE] && addr <= regs[REG_LIM]
}

// String dumps the registers.
func (regs Registers) String() string {
	var sb strings.Builder
	for n := range NUMGENREG {
		fmt.Fprintf(&sb, "r%d=%d ", n, regs[n])
	}
	fmt.Fprintf(&sb, "PC=%d SP=%d BASE=%d LIM=%d", regs[REG_PC], regs[REG_SP], regs[REG_BASE], regs[REG_LIM])
	return sb.String()
}
