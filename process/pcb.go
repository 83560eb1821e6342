// Package process holds the Process Control Block, the saved state and
// accounting of one simulated process, and the process history table.
package process

import (
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/internal"
	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

// Status is the lifecycle state of a process.
//
//	RESIDENT -> READY <-> RUNNING
//	    \         \         /
//	     `----> TERMINATED <'
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	RESIDENT   = Status(0) // Resident
	READY      = Status(1) // Ready
	RUNNING    = Status(2) // Running
	TERMINATED = Status(3) // Terminated
)

// Pcb is the Process Control Block.
type Pcb struct {
	Pid       int           // Process id, never reused.
	Section   int           // Owned memory section.
	Registers cpu.Registers // Saved register file.
	Status    Status

	Output strings.Builder // Text emitted by print syscalls.

	WaitTime       int // Cycles spent Ready while another process ran.
	TurnaroundTime int // Cycles spent Ready or Running.
	ExitCode       int
}

// NewPcb creates a resident process control block.
func NewPcb(pid int, section int) *Pcb {
	return &Pcb{
		Pid:     pid,
		Section: section,
		Status:  RESIDENT,
	}
}

// Terminated returns true once the process has finished.
func (pcb *Pcb) Terminated() bool {
	return pcb.Status == TERMINATED
}

// Live returns true while the process competes for the CPU.
func (pcb *Pcb) Live() bool {
	return pcb.Status == READY || pcb.Status == RUNNING
}

// Print appends text to the process output buffer.
func (pcb *Pcb) Print(text string) {
	pcb.Output.WriteString(text)
}

// Account advances the accounting of a live process by one executed cycle.
// ran is true for the process that owned the cycle.
func (pcb *Pcb) Account(ran bool) {
	if !pcb.Live() {
		return
	}
	pcb.TurnaroundTime++
	if !ran && pcb.Status == READY {
		pcb.WaitTime++
	}
}

// Report is the termination report of a process.
type Report struct {
	Pid            int
	ExitCode       int
	Message        string
	Output         string
	TurnaroundTime int
	WaitTime       int
}

// Report builds the termination report of the process.
func (pcb *Pcb) Report(message string) Report {
	return Report{
		Pid:            pcb.Pid,
		ExitCode:       pcb.ExitCode,
		Message:        message,
		Output:         pcb.Output.String(),
		TurnaroundTime: pcb.TurnaroundTime,
		WaitTime:       pcb.WaitTime,
	}
}

func (rep Report) String() string {
	text := f("Process %d exited with code %d", rep.Pid, rep.ExitCode)
	if len(rep.Message) > 0 {
		text += ": " + rep.Message
	}
	text += "\n"
	if len(rep.Output) > 0 {
		text += f("Output: %v", rep.Output) + "\n"
	}
	text += f("Turnaround time: %d cycles, wait time: %d cycles", rep.TurnaroundTime, rep.WaitTime)
	return text
}

// Ids hands out monotonically increasing process ids.
type Ids struct {
	next int
}

// Next returns a fresh process id.
func (ids *Ids) Next() (pid int) {
	pid = ids.next
	ids.next++
	return
}

// Table is the history of every created process, in creation order.
// Terminated processes are retained.
type Table struct {
	Ids

	pcbs []*Pcb
}

// Add records a new resident process owning section.
func (tbl *Table) Add(section int) (pcb *Pcb) {
	pcb = NewPcb(tbl.Next(), section)
	tbl.pcbs = append(tbl.pcbs, pcb)
	return
}

// Get finds a process by id.
func (tbl *Table) Get(pid int) (pcb *Pcb, ok bool) {
	index := slices.IndexFunc(tbl.pcbs, func(pcb *Pcb) bool { return pcb.Pid == pid })
	if index < 0 {
		return
	}
	return tbl.pcbs[index], true
}

// Len is the number of recorded processes.
func (tbl *Table) Len() int {
	return len(tbl.pcbs)
}

// All iterates every recorded process.
func (tbl *Table) All() iter.Seq[*Pcb] {
	return slices.Values(tbl.pcbs)
}

// WithStatus iterates the processes in any of the given states.
func (tbl *Table) WithStatus(status ...Status) iter.Seq[*Pcb] {
	return internal.IterFilter(tbl.All(), func(pcb *Pcb) bool {
		return slices.Contains(status, pcb.Status)
	})
}

// Live iterates the processes competing for the CPU.
func (tbl *Table) Live() iter.Seq[*Pcb] {
	return tbl.WithStatus(READY, RUNNING)
}
