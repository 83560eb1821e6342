// Package kernel is the control loop of the simulated machine.
//
// An external clock calls Pulse once per tick. Each pulse takes exactly one
// decision, in strict priority order:
//
//  1. An interrupt is pending: handle the oldest one.
//  2. The CPU is idle and a process is ready: load the ready queue head.
//  3. The CPU is executing: run one cycle, unless the quantum expired.
//  4. Otherwise: idle.
package kernel

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/memory"
	"github.com/ezrec/pulseos/process"
	"github.com/ezrec/pulseos/sched"
)

// IDLE_TRACE_INTERVAL is the number of idle pulses between idle traces.
const IDLE_TRACE_INTERVAL = 1000

// Action is the decision taken by a pulse.
type Action int

//go:generate go tool stringer -linecomment -type=Action
const (
	INTERRUPT = Action(0) // interrupt
	SCHEDULE  = Action(1) // schedule
	CYCLE     = Action(2) // cycle
	PREEMPT   = Action(3) // preempt
	IDLE      = Action(4) // idle
	HALTED    = Action(5) // halted
)

// Kernel owns every piece of machine state. Nothing outside of Pulse and
// the process control calls mutates it.
type Kernel struct {
	Verbose bool // Trace every pulse.

	Cpu        *cpu.Cpu
	Accessor   *memory.Accessor
	Memory     *memory.Manager
	Irq        *irq.Queue
	Ready      *sched.Queue
	Scheduler  *sched.Scheduler
	Dispatcher *sched.Dispatcher
	Processes  *process.Table

	Console  Console
	Keyboard Keyboard  // Optional.
	Cores    CoreStore // Optional.

	Pulses int // Pulses since boot.

	idle   int
	halted bool
}

// NewKernel boots a kernel over mem. Every section of mem starts free.
func NewKernel(mem *memory.Memory, console Console) (k *Kernel) {
	if console == nil {
		console = nullConsole{}
	}

	q := &irq.Queue{}
	accessor := memory.NewAccessor(mem, q)
	proc := cpu.NewCpu(accessor, q)
	ready := &sched.Queue{}

	k = &Kernel{
		Cpu:        proc,
		Accessor:   accessor,
		Memory:     memory.NewManager(mem),
		Irq:        q,
		Ready:      ready,
		Scheduler:  sched.NewScheduler(ready, proc, q),
		Dispatcher: sched.NewDispatcher(ready, proc),
		Processes:  &process.Table{},
		Console:    console,
	}

	return
}

// Halted returns true once the machine has trapped or shut down.
func (k *Kernel) Halted() bool {
	return k.halted
}

// Busy returns true while there is anything left for a pulse to do.
func (k *Kernel) Busy() bool {
	return !k.halted && (!k.Irq.Empty() || k.Cpu.Executing || k.Ready.Len() > 0)
}

// Current returns the process owning the live register file.
func (k *Kernel) Current() (pcb *process.Pcb, ok bool) {
	if !k.Cpu.Executing {
		return
	}

	pcb, ok = k.Ready.Head()
	if ok && pcb.Pid != k.Cpu.Pid {
		pcb, ok = nil, false
	}
	return
}

// Pulse performs one clock tick of the kernel.
func (k *Kernel) Pulse() (action Action, err error) {
	if k.halted {
		action = HALTED
		err = ErrHalted
		return
	}

	k.Pulses++

	switch {
	case !k.Irq.Empty():
		action = INTERRUPT
		err = k.interrupt()
	case !k.Cpu.Executing && k.Ready.Len() > 0:
		action = SCHEDULE
		err = k.Scheduler.ScheduleFirst()
	case k.Cpu.Executing:
		action = k.cycle()
	default:
		action = IDLE
		k.idle++
		if k.idle%IDLE_TRACE_INTERVAL == 0 {
			log.WithField("pulse", k.Pulses).Debug("kernel: idle")
		}
	}

	if action != IDLE {
		k.idle = 0
	}

	if k.halted {
		action = HALTED
	}

	if k.Verbose {
		log.Printf("kernel: pulse %d %v %v", k.Pulses, action, k.Cpu)
	}

	return
}

// cycle runs one CPU cycle for the ready queue head, and advances the
// accounting of every live process.
func (k *Kernel) cycle() (action Action) {
	head, ok := k.Current()
	if !ok {
		log.WithField("pid", k.Cpu.Pid).Warn("kernel: executing process is not the ready head")
		k.Cpu.Release()
		action = IDLE
		return
	}

	if !k.Scheduler.HandleCpuSchedule() {
		action = PREEMPT
		return
	}

	action = CYCLE

	// Faults are raised as interrupts, and handled on the next pulse.
	if err := k.Cpu.Cycle(); err != nil {
		log.WithField("pid", head.Pid).Warnf("kernel: cycle: %v", err)
	}

	head.Status = process.RUNNING
	head.Registers = k.Cpu.Snapshot()

	for pcb := range k.Processes.Live() {
		pcb.Account(pcb == head)
	}

	return
}

// interrupt handles the oldest pending interrupt.
func (k *Kernel) interrupt() (err error) {
	if pcb, ok := k.Current(); ok && !pcb.Terminated() {
		pcb.Status = process.READY
	}

	in, _ := k.Irq.Next()

	if !in.Kind.Valid() {
		err = k.Trap(f("unrecognized interrupt %v", in))
		return
	}

	log.WithFields(log.Fields{
		"kind":   in.Kind,
		"pid":    in.Pid,
		"params": in.Params,
	}).Debug("kernel: interrupt")

	switch in.Kind {
	case irq.TIMER:
		// Reserved for a timer policy independent of the quantum.
	case irq.KEYBOARD:
		if k.Keyboard != nil {
			k.Keyboard.Isr(in.Params)
		}
		k.Console.HandleInput()
	case irq.BREAK:
		if pcb, ok := k.target(in); ok {
			k.TerminateProcess(pcb, 0, "")
		}
	case irq.BREAK_ALL:
		k.terminateAll(f("user requested"))
	case irq.MEMORY_EXCEPTION:
		if pcb, ok := k.owner(in); ok {
			k.TerminateProcess(pcb, 1, f("memory exception at address $%04X in section %v",
				in.Param(0), in.Param(1)))
		}
	case irq.INVALID_OPCODE:
		if pcb, ok := k.target(in); ok {
			k.TerminateProcess(pcb, 1, f("invalid opcode $%02X", in.Param(0)))
		}
	case irq.PRINT_INT:
		if pcb, ok := k.emitter(in); ok {
			k.print(pcb, fmt.Sprintf("%d", in.Param(0)))
		}
	case irq.PRINT_STRING:
		if pcb, ok := k.emitter(in); ok {
			k.print(pcb, k.readString(pcb, in.Param(0)))
		}
	case irq.DISPATCH:
		if !k.Cpu.Executing {
			log.Debug("kernel: dispatch with no executing process")
			return
		}
		err = k.Dispatcher.ContextSwitch()
	default:
		err = k.Trap(f("unrecognized interrupt %v", in))
	}

	return
}

// target is the process a fault or break interrupt applies to: its emitter
// if known, otherwise the ready queue head.
func (k *Kernel) target(in irq.Interrupt) (pcb *process.Pcb, ok bool) {
	if in.Pid != irq.NO_PID {
		return k.emitter(in)
	}

	pcb, ok = k.Ready.Head()
	if ok && pcb.Terminated() {
		pcb, ok = nil, false
	}
	return
}

// owner is the process a memory exception applies to: its emitter if
// known, otherwise the live process owning the faulting section. Faults
// whose owner has terminated since are dropped.
func (k *Kernel) owner(in irq.Interrupt) (pcb *process.Pcb, ok bool) {
	if in.Pid != irq.NO_PID {
		return k.emitter(in)
	}

	section := in.Param(1)
	for pcb = range k.Processes.Live() {
		if pcb.Section == section {
			ok = true
			return
		}
	}

	log.WithField("section", section).Debug("kernel: memory exception with no owner dropped")
	pcb = nil
	return
}

// emitter is the live process that raised the interrupt. Interrupts from
// processes terminated since are dropped.
func (k *Kernel) emitter(in irq.Interrupt) (pcb *process.Pcb, ok bool) {
	pcb, ok = k.Processes.Get(in.Pid)
	if ok && pcb.Terminated() {
		log.WithField("pid", in.Pid).Debugf("kernel: %v from terminated process dropped", in.Kind)
		pcb, ok = nil, false
	}
	return
}

// print sends syscall output to the console and the process buffer.
func (k *Kernel) print(pcb *process.Pcb, text string) {
	k.Console.PutText(text)
	pcb.Print(text)
}

// readString reads a zero terminated string from the section of a process.
// The string also ends at the section bound.
func (k *Kernel) readString(pcb *process.Pcb, addr int) string {
	var text strings.Builder

	for virtual := addr; virtual >= 0 && virtual < memory.SECTION_SIZE; virtual++ {
		value, ok := k.Accessor.ReadFrom(pcb.Section, uint16(virtual))
		if !ok || value == 0 {
			break
		}
		text.WriteByte(value)
	}

	return text.String()
}

// Raise queues an interrupt from an external producer.
// Once the machine has trapped, interrupts are dropped.
func (k *Kernel) Raise(in irq.Interrupt) {
	if k.Irq.Disabled() {
		log.WithField("kind", in.Kind).Debug("kernel: interrupt dropped, queue disabled")
		return
	}
	k.Irq.Raise(in)
}

// Trap halts the machine: the CPU is reset, device interrupts are
// disabled, and the console shows the trap.
func (k *Kernel) Trap(message string) (err error) {
	log.WithField("pulse", k.Pulses).Errorf("kernel: trap: %v", message)

	k.halted = true
	k.Cpu.Reset()
	k.Irq.Disable()
	k.Console.Trap(message)

	err = ErrTrap{Message: message}
	return
}

// Shutdown terminates every remaining process and halts the machine.
func (k *Kernel) Shutdown() {
	for pcb := range k.Processes.All() {
		if !pcb.Terminated() {
			k.terminate(pcb, 0, f("shutdown"))
		}
	}

	k.halted = true
	k.Cpu.Reset()
	k.Irq.Disable()

	log.WithField("pulse", k.Pulses).Info("kernel: shutdown")
}

// nullConsole discards all console traffic.
type nullConsole struct{}

func (nullConsole) PutText(string) {}
func (nullConsole) Report(process.Report) {}
func (nullConsole) Prompt() {}
func (nullConsole) HandleInput() {}
func (nullConsole) Trap(string) {}
