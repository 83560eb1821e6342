// Package irq defines the interrupt kinds of the simulated machine and the
// FIFO queue through which every producer hands them to the kernel.
//
// The queue is intentionally unprioritized: interrupts are delivered in the
// order they were raised, regardless of kind.
package irq

import (
	"fmt"
	"slices"
)

// Kind is the closed set of interrupt kinds.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	TIMER            = Kind(0) // timer
	KEYBOARD         = Kind(1) // keyboard
	BREAK            = Kind(2) // break
	BREAK_ALL        = Kind(3) // break-all
	MEMORY_EXCEPTION = Kind(4) // memory-exception
	INVALID_OPCODE   = Kind(5) // invalid-opcode
	PRINT_INT        = Kind(6) // print-int
	PRINT_STRING     = Kind(7) // print-string
	DISPATCH         = Kind(8) // dispatch
)

// Valid returns true if the kind is one the kernel knows how to handle.
func (kind Kind) Valid() bool {
	return kind >= TIMER && kind <= DISPATCH
}

// NO_PID marks an interrupt not attributed to any process.
const NO_PID = -1

// Interrupt is a tagged event with kind specific parameters.
//
//   - KEYBOARD:         [keyCode, shifted]
//   - MEMORY_EXCEPTION: [physical address, section]
//   - INVALID_OPCODE:   [opcode]
//   - PRINT_INT:        [value]
//   - PRINT_STRING:     [virtual address]
type Interrupt struct {
	Kind   Kind
	Pid    int // Emitting process, or NO_PID.
	Params []int
}

// Param returns the n'th parameter, or 0 if absent.
func (in Interrupt) Param(n int) int {
	if n < 0 || n >= len(in.Params) {
		return 0
	}
	return in.Params[n]
}

func (in Interrupt) String() string {
	return fmt.Sprintf("%v pid:%d params:%v", in.Kind, in.Pid, in.Params)
}

// Raiser accepts interrupts from a producer.
type Raiser interface {
	Raise(in Interrupt)
}

// Queue is the strict FIFO interrupt queue. Many producers may raise,
// only the kernel loop takes interrupts from it.
type Queue struct {
	Items    []Interrupt
	disabled bool
}

var _ Raiser = (*Queue)(nil)

// Raise appends an interrupt to the tail of the queue.
// Interrupts raised while the queue is disabled are dropped.
func (q *Queue) Raise(in Interrupt) {
	if q.disabled {
		return
	}
	q.Items = append(q.Items, in)
}

// Next removes and returns the interrupt at the head of the queue.
func (q *Queue) Next() (in Interrupt, ok bool) {
	if len(q.Items) == 0 {
		return
	}

	in = q.Items[0]
	q.Items = slices.Delete(q.Items, 0, 1)
	ok = true
	return
}

// Len is the number of pending interrupts.
func (q *Queue) Len() int {
	return len(q.Items)
}

// Empty returns true if no interrupt is pending.
func (q *Queue) Empty() bool {
	return len(q.Items) == 0
}

// Reset discards every pending interrupt.
func (q *Queue) Reset() {
	q.Items = q.Items[:0]
}

// Disable drops pending interrupts and refuses new ones.
func (q *Queue) Disable() {
	q.disabled = true
	q.Reset()
}

// Disabled returns true if the queue refuses new interrupts.
func (q *Queue) Disabled() bool {
	return q.disabled
}
