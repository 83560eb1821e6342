package kernel

import (
	"github.com/ezrec/pulseos/process"
)

// Console is the operator console.
type Console interface {
	PutText(text string)          // Program output.
	Report(report process.Report) // Termination report.
	Prompt()                      // Redraw the command prompt.
	HandleInput()                 // Drain decoded keyboard input.
	Trap(message string)          // Fatal kernel trap display.
}

// Keyboard decodes raw key interrupts into the console input queue.
type Keyboard interface {
	Isr(params []int)
}

// CoreStore saves the section image of a faulting process.
type CoreStore interface {
	Store(pid int, blob []uint8) error
}
