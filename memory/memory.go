// Package memory implements the physical memory of the simulated machine,
// the section-relative accessor used by the CPU, and the section allocator.
//
// Physical memory is one contiguous byte array partitioned into fixed size
// sections. A process only ever sees virtual addresses 0..SECTION_SIZE-1 of
// its own section; the Accessor translates them and reports violations as
// memory-exception interrupts.
package memory

import (
	"fmt"
	"iter"
	"maps"
)

const (
	SECTION_SIZE  = 256 // Bytes per section.
	SECTION_COUNT = 3   // Default number of sections.
)

var _memory_defines = map[string]string{
	"SECTION_SIZE": fmt.Sprintf("%d", SECTION_SIZE),
	"SECTION_LAST": fmt.Sprintf("%d", SECTION_SIZE-1),
}

// Defines returns the assembler predefines of the memory layout.
func Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Memory is the physical storage. Access is unchecked.
type Memory struct {
	Data []uint8
}

// NewMemory creates a zeroed memory holding 'sections' sections.
func NewMemory(sections int) (mem *Memory) {
	mem = &Memory{
		Data: make([]uint8, sections*SECTION_SIZE),
	}

	return
}

// Read the byte at a physical address.
func (mem *Memory) Read(addr int) uint8 {
	return mem.Data[addr]
}

// Write the byte at a physical address.
func (mem *Memory) Write(addr int, value uint8) {
	mem.Data[addr] = value
}

// Size in bytes.
func (mem *Memory) Size() int {
	return len(mem.Data)
}

// Sections is the number of sections in memory.
func (mem *Memory) Sections() int {
	return len(mem.Data) / SECTION_SIZE
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem.Data)
}

// Translate a section-relative virtual address into a physical address.
func Translate(virtual uint16, section int) int {
	return section*SECTION_SIZE + int(virtual)
}
