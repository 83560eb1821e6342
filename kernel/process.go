package kernel

import (
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/process"
)

// CreateProcess loads a program image into a free section, and records a
// new resident process for it. When memory is full no process is created.
func (k *Kernel) CreateProcess(program []uint8) (pcb *process.Pcb, err error) {
	if k.halted {
		err = ErrHalted
		return
	}

	section, err := k.Memory.Allocate(program)
	if err != nil {
		log.WithField("size", len(program)).Warnf("kernel: load: %v", err)
		return
	}

	pcb = k.Processes.Add(section)

	log.WithFields(log.Fields{
		"pid":     pcb.Pid,
		"section": section,
	}).Info("kernel: process created")

	return
}

// lookup finds a process that has not terminated.
func (k *Kernel) lookup(pid int) (pcb *process.Pcb, err error) {
	pcb, ok := k.Processes.Get(pid)
	if !ok {
		err = ErrProcessUnknown
		return
	}

	if pcb.Terminated() {
		err = ErrProcessFinished
	}
	return
}

// Run moves a resident process onto the ready queue.
func (k *Kernel) Run(pid int) (err error) {
	pcb, err := k.lookup(pid)
	if err != nil {
		return
	}

	if pcb.Status != process.RESIDENT {
		err = ErrProcessState
		return
	}

	pcb.Status = process.READY
	k.Ready.Enqueue(pcb)

	log.WithField("pid", pid).Info("kernel: process ready")
	return
}

// RunAll readies every resident process, in creation order.
func (k *Kernel) RunAll() (count int) {
	resident := slices.Collect(k.Processes.WithStatus(process.RESIDENT))
	for _, pcb := range resident {
		if k.Run(pcb.Pid) == nil {
			count++
		}
	}
	return
}

// Kill terminates a process on operator request.
func (k *Kernel) Kill(pid int) (err error) {
	pcb, err := k.lookup(pid)
	if err != nil {
		return
	}

	err = k.TerminateProcess(pcb, 0, f("killed"))
	return
}

// KillAll terminates every ready or running process on operator request.
func (k *Kernel) KillAll() (count int) {
	count = k.terminateAll(f("killed"))
	return
}

// TerminateProcess finishes a process, reports it to the console, and
// redraws the prompt.
func (k *Kernel) TerminateProcess(pcb *process.Pcb, exitCode int, message string) (err error) {
	err = k.terminate(pcb, exitCode, message)
	if err != nil {
		return
	}

	k.Console.Prompt()
	return
}

// terminateAll finishes every live process, then redraws the prompt once.
func (k *Kernel) terminateAll(message string) (count int) {
	live := slices.Collect(k.Processes.Live())
	for _, pcb := range live {
		if k.terminate(pcb, 0, message) == nil {
			count++
		}
	}

	if count > 0 {
		k.Console.Prompt()
	}
	return
}

// terminate retires a process. The head of the ready queue gives up the
// live register file; any other process leaves the queue without
// disturbing the rotation.
func (k *Kernel) terminate(pcb *process.Pcb, exitCode int, message string) (err error) {
	if pcb.Terminated() {
		err = ErrProcessFinished
		return
	}

	if current, ok := k.Current(); ok && current == pcb {
		pcb.Registers = k.Cpu.Snapshot()
		k.Scheduler.HeadTerminated()
	} else {
		k.Ready.Remove(pcb)
	}

	pcb.Status = process.TERMINATED
	pcb.ExitCode = exitCode

	if exitCode != 0 && k.Cores != nil {
		blob, err := k.Memory.Dump(pcb.Section)
		if err == nil {
			err = k.Cores.Store(pcb.Pid, blob)
		}
		if err != nil {
			log.WithField("pid", pcb.Pid).Warnf("kernel: core dump: %v", err)
		}
	}

	if err := k.Memory.Deallocate(pcb.Section); err != nil {
		log.WithField("pid", pcb.Pid).Warnf("kernel: release: %v", err)
	}

	report := pcb.Report(message)

	log.WithFields(log.Fields{
		"pid":  pcb.Pid,
		"exit": exitCode,
	}).Info("kernel: process terminated")

	k.Console.Report(report)
	return
}

// SetQuantum changes the scheduling time slice.
func (k *Kernel) SetQuantum(n int) (err error) {
	return k.Scheduler.SetQuantum(n)
}

// ClearMemory zeros physical memory. Every section must be free.
func (k *Kernel) ClearMemory() (err error) {
	err = k.Memory.Clear()
	if err != nil {
		return
	}

	log.Info("kernel: memory cleared")
	return
}

// Sections is the number of free and total sections.
func (k *Kernel) Sections() (free int, total int) {
	return k.Memory.Free(), k.Memory.Memory.Sections()
}
