// Package status exposes the process table and CPU state of a running
// machine over HTTP, as JSON.
//
//	GET /ps   every process, in creation order
//	GET /cpu  the live register file and scheduler state
package status

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/kernel"
)

// Registers is the JSON view of a register file.
type Registers struct {
	PC  uint16 `json:"pc"`
	IR  uint8  `json:"ir"`
	Acc uint8  `json:"acc"`
	X   uint8  `json:"x"`
	Y   uint8  `json:"y"`
	Z   bool   `json:"z"`
}

func registersOf(regs cpu.Registers) Registers {
	return Registers{
		PC:  regs.PC,
		IR:  regs.IR,
		Acc: regs.Acc,
		X:   regs.X,
		Y:   regs.Y,
		Z:   regs.Z,
	}
}

// Process is the JSON view of a process control block.
type Process struct {
	Pid        int       `json:"pid"`
	Status     string    `json:"status"`
	Section    int       `json:"section"`
	Registers  Registers `json:"registers"`
	Output     string    `json:"output"`
	Wait       int       `json:"wait"`
	Turnaround int       `json:"turnaround"`
	ExitCode   int       `json:"exit_code"`
}

// Cpu is the JSON view of the processor and scheduler.
type Cpu struct {
	Executing bool      `json:"executing"`
	Pid       int       `json:"pid"`
	Registers Registers `json:"registers"`
	Cycles    int       `json:"cycles"`
	Pulses    int       `json:"pulses"`
	Quantum   int       `json:"quantum"`
	Switches  int       `json:"switches"`
	Ready     []int     `json:"ready"`
	Halted    bool      `json:"halted"`
}

// Snapshot is a consistent view of a machine.
type Snapshot struct {
	Processes []Process
	Cpu       Cpu
}

// Source provides snapshots, taken between pulses.
type Source interface {
	Snapshot() Snapshot
}

// Capture takes a snapshot of a kernel. The caller must not pulse the
// kernel concurrently.
func Capture(k *kernel.Kernel) (snap Snapshot) {
	snap.Processes = []Process{}
	for pcb := range k.Processes.All() {
		snap.Processes = append(snap.Processes, Process{
			Pid:        pcb.Pid,
			Status:     pcb.Status.String(),
			Section:    pcb.Section,
			Registers:  registersOf(pcb.Registers),
			Output:     pcb.Output.String(),
			Wait:       pcb.WaitTime,
			Turnaround: pcb.TurnaroundTime,
			ExitCode:   pcb.ExitCode,
		})
	}

	snap.Cpu = Cpu{
		Executing: k.Cpu.Executing,
		Pid:       k.Cpu.Pid,
		Registers: registersOf(k.Cpu.Snapshot()),
		Cycles:    k.Cpu.Cycles,
		Pulses:    k.Pulses,
		Quantum:   k.Scheduler.Quantum(),
		Switches:  k.Dispatcher.Switches,
		Ready:     []int{},
		Halted:    k.Halted(),
	}
	for pcb := range k.Ready.All() {
		snap.Cpu.Ready = append(snap.Cpu.Ready, pcb.Pid)
	}

	return
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		log.Warnf("status: encode: %v", err)
	}
}

// Handler serves the status of src.
func Handler(src Source) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ps", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.Snapshot().Processes)
	})

	mux.HandleFunc("GET /cpu", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.Snapshot().Cpu)
	})

	return mux
}
