package memory

import (
	"github.com/ezrec/pulseos/irq"
)

// Accessor translates virtual addresses of the bound section into physical
// addresses, and enforces the section bound.
type Accessor struct {
	Memory *Memory
	Irq    irq.Raiser

	section int
	pid     int
}

// NewAccessor creates an accessor over mem, reporting violations to raiser.
func NewAccessor(mem *Memory, raiser irq.Raiser) *Accessor {
	return &Accessor{
		Memory: mem,
		Irq:    raiser,
		pid:    irq.NO_PID,
	}
}

// Bind selects the section that virtual addresses refer to, and the
// process that memory exceptions are attributed to.
func (acc *Accessor) Bind(section int, pid int) {
	acc.section = section
	acc.pid = pid
}

// Section returns the bound section.
func (acc *Accessor) Section() int {
	return acc.section
}

// Pid returns the process that memory exceptions are attributed to.
func (acc *Accessor) Pid() int {
	return acc.pid
}

// check reports a memory exception for an out of bounds virtual address.
func (acc *Accessor) check(virtual uint16, section int, pid int) (ok bool) {
	if int(virtual) < SECTION_SIZE {
		return true
	}

	acc.Irq.Raise(irq.Interrupt{
		Kind:   irq.MEMORY_EXCEPTION,
		Pid:    pid,
		Params: []int{Translate(virtual, section), section},
	})

	return false
}

// Read a byte of the bound section.
// On a bound violation a memory exception is raised and ok is false.
func (acc *Accessor) Read(virtual uint16) (value uint8, ok bool) {
	return acc.read(acc.section, virtual, acc.pid)
}

// ReadFrom reads a byte of an explicit section, with the same bound
// enforcement as Read. Its exceptions carry no pid.
func (acc *Accessor) ReadFrom(section int, virtual uint16) (value uint8, ok bool) {
	return acc.read(section, virtual, irq.NO_PID)
}

func (acc *Accessor) read(section int, virtual uint16, pid int) (value uint8, ok bool) {
	if !acc.check(virtual, section, pid) {
		return
	}

	value = acc.Memory.Read(Translate(virtual, section))
	ok = true
	return
}

// Write a byte of the bound section.
// On a bound violation a memory exception is raised and nothing is written.
func (acc *Accessor) Write(virtual uint16, value uint8) (ok bool) {
	if !acc.check(virtual, acc.section, acc.pid) {
		return
	}

	acc.Memory.Write(Translate(virtual, acc.section), value)
	return true
}
