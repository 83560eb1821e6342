// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/device"
	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/kernel"
	"github.com/ezrec/pulseos/memory"
	"github.com/ezrec/pulseos/status"
)

// WAIT_LIMIT is the most pulses a 'wait' command runs.
const WAIT_LIMIT = 1_000_000

// Emulator state. Memory + kernel + devices + clock.
type Emulator struct {
	Verbose bool   // If set, enables verbose logging.
	Config  Config // Configuration the machine was built from.

	Memory   *memory.Memory
	Kernel   *kernel.Kernel
	Console  *device.Console
	Keyboard *device.Keyboard
	Cores    *device.CoreStore

	Programs map[int]*cpu.Program // Assembly listings, by pid.

	mutex   sync.Mutex
	pending []string // Console command lines not yet executed.
}

var _ status.Source = (*Emulator)(nil)

// NewEmulator creates a new machine, writing console output to output.
func NewEmulator(cfg Config, output io.Writer) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	emu = &Emulator{
		Verbose:  cfg.Verbose,
		Config:   cfg,
		Memory:   memory.NewMemory(cfg.Sections),
		Keyboard: device.NewKeyboard(device.KEYBOARD_CAPACITY),
		Cores:    &device.CoreStore{},
		Programs: make(map[int]*cpu.Program),
	}

	emu.Console = device.NewConsole(output, emu.Keyboard)
	emu.Console.Commands = func(line string) {
		emu.pending = append(emu.pending, line)
	}

	emu.Kernel = kernel.NewKernel(emu.Memory, emu.Console)
	emu.Kernel.Keyboard = emu.Keyboard
	emu.Kernel.Cores = emu.Cores

	err = emu.Kernel.SetQuantum(cfg.Quantum)
	if err != nil {
		return
	}

	if len(cfg.Cores) != 0 {
		dir := device.DirFS(cfg.Cores)
		err = dir.Mkdir(".", 0755)
		if err != nil {
			return
		}
		err = emu.Cores.Unmarshal(dir.FS())
		if err != nil {
			return
		}
		emu.Cores.Dir = dir
		log.WithField("cores", len(emu.Cores.Cores)).Debug("emulator: core dumps loaded")
	}

	emu.setVerbose(cfg.Verbose)

	return
}

func (emu *Emulator) setVerbose(verbose bool) {
	emu.Verbose = verbose
	emu.Kernel.Verbose = verbose
	emu.Kernel.Cpu.Verbose = verbose
	emu.Kernel.Scheduler.Verbose = verbose
	emu.Kernel.Dispatcher.Verbose = verbose
}

// Load creates a resident process from a program image.
func (emu *Emulator) Load(program []uint8) (pid int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.load(program)
}

func (emu *Emulator) load(program []uint8) (pid int, err error) {
	pcb, err := emu.Kernel.CreateProcess(program)
	if err != nil {
		return
	}

	pid = pcb.Pid
	return
}

// Assemble creates a resident process from assembly source.
func (emu *Emulator) Assemble(source io.Reader) (pid int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.assemble(source)
}

func (emu *Emulator) assemble(source io.Reader) (pid int, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	prog, err := asm.Parse(source)
	if err != nil {
		return
	}

	pid, err = emu.load(prog.Binary())
	if err != nil {
		return
	}

	emu.Programs[pid] = prog
	return
}

// LoadFile creates a resident process from a file: assembly source for
// '.asm' files, hex pair text otherwise.
func (emu *Emulator) LoadFile(path string) (pid int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.loadFile(path)
}

func (emu *Emulator) loadFile(path string) (pid int, err error) {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		var inf *os.File
		inf, err = os.Open(path)
		if err != nil {
			return
		}
		defer inf.Close()

		return emu.assemble(inf)
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return
	}

	image, err := cpu.ParseHex(string(text))
	if err != nil {
		return
	}

	return emu.load(image)
}

// Key raises a keyboard interrupt.
func (emu *Emulator) Key(keyCode int, shifted bool) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	shift := 0
	if shifted {
		shift = 1
	}

	emu.Kernel.Raise(irq.Interrupt{
		Kind:   irq.KEYBOARD,
		Pid:    irq.NO_PID,
		Params: []int{keyCode, shift},
	})
}

// Snapshot captures the machine state between pulses.
func (emu *Emulator) Snapshot() status.Snapshot {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return status.Capture(emu.Kernel)
}

// Halted returns true once the machine has stopped for good.
func (emu *Emulator) Halted() bool {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Kernel.Halted()
}

// Tick performs a single pulse of the machine, then runs any command lines
// completed at the console. done is set when nothing is left to do.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.tick()
}

func (emu *Emulator) tick() (done bool, err error) {
	pulse := emu.Kernel.Pulses + 1
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pulse: pulse, Err: err}
		}
	}()

	_, err = emu.Kernel.Pulse()
	if err != nil {
		return
	}

	for len(emu.pending) > 0 {
		line := emu.pending[0]
		emu.pending = emu.pending[1:]
		cmd_err := emu.exec(line, false)
		if cmd_err != nil {
			emu.Console.PutText(f("%v: %v", line, cmd_err) + "\n")
		}
	}

	done = !emu.Kernel.Busy()
	return
}

// RunUntilIdle pulses until nothing is left to do, or until limit pulses
// have run.
func (emu *Emulator) RunUntilIdle(limit int) (pulses int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.runUntilIdle(limit)
}

func (emu *Emulator) runUntilIdle(limit int) (pulses int, err error) {
	for emu.Kernel.Busy() {
		if pulses >= limit {
			err = ErrPulseLimit
			return
		}
		pulses++
		_, err = emu.tick()
		if err != nil {
			return
		}
	}

	return
}

// Run is the clock source: it pulses the machine every Config.Clock until
// the context is done or the machine halts.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	ticker := time.NewTicker(emu.Config.Clock)
	defer ticker.Stop()

	log.WithField("clock", emu.Config.Clock).Info("emulator: clock started")
	defer log.Info("emulator: clock stopped")

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
			if emu.Halted() {
				return
			}
			_, err = emu.Tick()
			if err != nil {
				return
			}
		}
	}
}
