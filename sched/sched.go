// Package sched implements round-robin preemption over the ready queue.
//
// The live register file of the CPU is loaded from a process control block
// in exactly two places: Scheduler.ScheduleFirst when the CPU is idle, and
// Dispatcher.ContextSwitch when a quantum expires.
package sched

import (
	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/process"
)

// DEFAULT_QUANTUM is the default time slice, in CPU cycles.
const DEFAULT_QUANTUM = 6

// load transfers a complete saved register file into the CPU.
func load(proc *cpu.Cpu, pcb *process.Pcb) {
	proc.Restore(pcb.Pid, pcb.Section, pcb.Registers)
}

// Scheduler decides, once per pulse, whether the executing process keeps
// the CPU.
type Scheduler struct {
	Verbose bool

	Ready *Queue
	Cpu   *cpu.Cpu
	Irq   irq.Raiser

	quantum int
	counter int
}

// NewScheduler creates a scheduler with the default quantum.
func NewScheduler(ready *Queue, proc *cpu.Cpu, raiser irq.Raiser) *Scheduler {
	return &Scheduler{
		Ready:   ready,
		Cpu:     proc,
		Irq:     raiser,
		quantum: DEFAULT_QUANTUM,
	}
}

// Quantum is the current time slice.
func (sch *Scheduler) Quantum() int {
	return sch.quantum
}

// SetQuantum changes the time slice. The cycle counter of the running
// slice is kept, so a shorter quantum may expire on the next pulse.
func (sch *Scheduler) SetQuantum(n int) (err error) {
	if n < 1 {
		err = ErrQuantum
		return
	}

	sch.quantum = n
	log.WithField("quantum", n).Info("sched: quantum set")
	return
}

// Counter is the number of cycles run in the current slice.
func (sch *Scheduler) Counter() int {
	return sch.counter
}

// ScheduleFirst loads the head of the ready queue onto an idle CPU.
func (sch *Scheduler) ScheduleFirst() (err error) {
	head, ok := sch.Ready.Head()
	if !ok {
		err = ErrQueueEmpty
		return
	}

	load(sch.Cpu, head)
	sch.counter = 0

	if sch.Verbose {
		log.Printf("sched: first pid %d", head.Pid)
	}

	return
}

// HandleCpuSchedule is consulted before each cycle of the executing process.
//
// When the slice is used up and another process is waiting, a dispatch
// request is raised and no cycle runs this pulse; the dispatch is drained
// on the next pulse before the preempted process can run again. A lone
// process simply starts a fresh slice.
func (sch *Scheduler) HandleCpuSchedule() (run bool) {
	if sch.counter >= sch.quantum {
		sch.counter = 0
		if sch.Ready.Len() > 1 {
			if sch.Verbose {
				log.Printf("sched: quantum expired for pid %d", sch.Cpu.Pid)
			}
			sch.Irq.Raise(irq.Interrupt{Kind: irq.DISPATCH, Pid: irq.NO_PID})
			return false
		}
	}

	sch.counter++
	return true
}

// HeadTerminated retires the head of the ready queue, whose process has
// just finished. The CPU is released so the next pulse schedules the new
// head.
func (sch *Scheduler) HeadTerminated() (pcb *process.Pcb, ok bool) {
	pcb, ok = sch.Ready.Dequeue()
	sch.counter = 0
	sch.Cpu.Release()
	return
}

// Dispatcher rotates the ready queue on quantum expiry.
type Dispatcher struct {
	Verbose bool

	Ready *Queue
	Cpu   *cpu.Cpu

	Switches int // Completed context switches.
}

// NewDispatcher creates a dispatcher over the ready queue.
func NewDispatcher(ready *Queue, proc *cpu.Cpu) *Dispatcher {
	return &Dispatcher{
		Ready: ready,
		Cpu:   proc,
	}
}

// ContextSwitch moves the preempted head to the tail and loads the saved
// register file of the new head.
func (dsp *Dispatcher) ContextSwitch() (err error) {
	prev, ok := dsp.Ready.Dequeue()
	if !ok {
		err = ErrQueueEmpty
		return
	}

	if prev.Pid == dsp.Cpu.Pid {
		prev.Registers = dsp.Cpu.Snapshot()
	}
	prev.Status = process.READY
	dsp.Ready.Enqueue(prev)

	next, _ := dsp.Ready.Head()
	load(dsp.Cpu, next)
	dsp.Switches++

	if dsp.Verbose {
		log.Printf("sched: switch pid %d -> pid %d", prev.Pid, next.Pid)
	}

	return
}
