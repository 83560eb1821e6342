// Package cpu implements the virtual processor and assembler for the
// pulseos machine.
//
// The CPU holds a program counter (PC), the current opcode (IR), an
// accumulator, two index registers (X and Y) and a zero/compare flag (Z).
// It executes a 6502-like subset one fetch-decode-execute cycle at a time,
// addressing memory only through a section-relative Bus. System calls and
// faults are never handled by the CPU: they are raised as interrupts for
// the kernel to service on a later pulse.
//
// The assembler provides a small mnemonic language for the instruction set,
// supporting labels, equates and compile-time $(...) expressions.
package cpu
