package emulator

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/ezrec/pulseos/cpu"
	"github.com/ezrec/pulseos/device"
	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/kernel"
	"github.com/ezrec/pulseos/process"
)

// command is a console or script command.
type command struct {
	args   int  // Number of arguments.
	script bool // Only permitted from a script, not from the console.
	help   string
	run    func(emu *Emulator, args []string) error
}

var _commands map[string]command

func init() {
	_commands = map[string]command{
		"load":      {1, false, f("load FILE: load a .hex or .asm program"), (*Emulator).cmdLoad},
		"run":       {1, false, f("run PID: make a resident process ready"), (*Emulator).cmdRun},
		"runall":    {0, false, f("runall: make every resident process ready"), (*Emulator).cmdRunAll},
		"kill":      {1, false, f("kill PID: terminate a process"), (*Emulator).cmdKill},
		"killall":   {0, false, f("killall: terminate every ready process"), (*Emulator).cmdKillAll},
		"quantum":   {1, false, f("quantum N: set the time slice in cycles"), (*Emulator).cmdQuantum},
		"ps":        {0, false, f("ps: list processes"), (*Emulator).cmdPs},
		"clearmem":  {0, false, f("clearmem: zero all free memory"), (*Emulator).cmdClearMem},
		"break":     {0, false, f("break: break the running process"), (*Emulator).cmdBreak},
		"breakall":  {0, false, f("breakall: break every ready process"), (*Emulator).cmdBreakAll},
		"cores":     {0, false, f("cores: list stored core dumps"), (*Emulator).cmdCores},
		"savecores": {1, false, f("savecores DIR: write every core dump to a directory"), (*Emulator).cmdSaveCores},
		"core":      {1, false, f("core PID: show the core dump of a process"), (*Emulator).cmdCore},
		"where":     {1, false, f("where PID: show the source line at the program counter"), (*Emulator).cmdWhere},
		"shutdown":  {0, false, f("shutdown: terminate everything and halt"), (*Emulator).cmdShutdown},
		"help":      {0, false, f("help: list commands"), (*Emulator).cmdHelp},
		"step":      {1, true, f("step N: run N pulses"), (*Emulator).cmdStep},
		"wait":      {0, true, f("wait: run until idle"), (*Emulator).cmdWait},
	}
}

// Exec runs one script command line.
func (emu *Emulator) Exec(line string) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.exec(line, true)
}

func (emu *Emulator) exec(line string, script bool) (err error) {
	words, err := shlex.Split(line)
	if err != nil {
		return
	}

	if len(words) == 0 || strings.HasPrefix(words[0], "#") {
		return
	}

	cmd, ok := _commands[strings.ToLower(words[0])]
	if !ok {
		err = fmt.Errorf("%w: %v", ErrCommandUnknown, words[0])
		return
	}

	if cmd.script && !script {
		err = ErrCommandNested
		return
	}

	if len(words)-1 != cmd.args {
		err = ErrCommandArgs
		return
	}

	err = cmd.run(emu, words[1:])
	return
}

func (emu *Emulator) println(text string) {
	emu.Console.PutText(text + "\n")
}

func parseInt(word string) (value int, err error) {
	value, err = strconv.Atoi(word)
	return
}

func (emu *Emulator) cmdLoad(args []string) (err error) {
	pid, err := emu.loadFile(args[0])
	if err != nil {
		return
	}

	emu.println(f("%v: loaded as pid %d", args[0], pid))
	return
}

func (emu *Emulator) cmdRun(args []string) (err error) {
	pid, err := parseInt(args[0])
	if err != nil {
		return
	}

	return emu.Kernel.Run(pid)
}

func (emu *Emulator) cmdRunAll(args []string) (err error) {
	emu.Kernel.RunAll()
	return
}

func (emu *Emulator) cmdKill(args []string) (err error) {
	pid, err := parseInt(args[0])
	if err != nil {
		return
	}

	return emu.Kernel.Kill(pid)
}

func (emu *Emulator) cmdKillAll(args []string) (err error) {
	emu.Kernel.KillAll()
	return
}

func (emu *Emulator) cmdQuantum(args []string) (err error) {
	n, err := parseInt(args[0])
	if err != nil {
		return
	}

	return emu.Kernel.SetQuantum(n)
}

func (emu *Emulator) cmdPs(args []string) (err error) {
	var text strings.Builder

	fmt.Fprintf(&text, "%-4s %-10s %-3s %-36s %5s %5s\n",
		"PID", "STATUS", "SEC", "REGISTERS", "TURN", "WAIT")
	for pcb := range emu.Kernel.Processes.All() {
		section := fmt.Sprintf("%d", pcb.Section)
		if pcb.Status == process.TERMINATED {
			section = "-"
		}
		fmt.Fprintf(&text, "%-4d %-10v %-3s %-36v %5d %5d\n",
			pcb.Pid, pcb.Status, section, pcb.Registers, pcb.TurnaroundTime, pcb.WaitTime)
	}

	emu.Console.PutText(text.String())
	return
}

func (emu *Emulator) cmdClearMem(args []string) (err error) {
	return emu.Kernel.ClearMemory()
}

func (emu *Emulator) cmdBreak(args []string) (err error) {
	emu.Kernel.Raise(irq.Interrupt{Kind: irq.BREAK, Pid: irq.NO_PID})
	return
}

func (emu *Emulator) cmdBreakAll(args []string) (err error) {
	emu.Kernel.Raise(irq.Interrupt{Kind: irq.BREAK_ALL, Pid: irq.NO_PID})
	return
}

func (emu *Emulator) cmdCores(args []string) (err error) {
	for _, pid := range emu.Cores.Pids() {
		emu.println(f("pid %d: %d bytes", pid, len(emu.Cores.Cores[pid])))
	}
	return
}

func (emu *Emulator) cmdCore(args []string) (err error) {
	pid, err := parseInt(args[0])
	if err != nil {
		return
	}

	blob, err := emu.Cores.Load(pid)
	if err != nil {
		return
	}

	emu.println(cpu.Hex(blob))
	return
}

func (emu *Emulator) cmdSaveCores(args []string) (err error) {
	err = emu.Cores.Marshal(device.DirFS(args[0]))
	if err != nil {
		return
	}

	emu.println(f("%v: %d core dumps saved", args[0], len(emu.Cores.Cores)))
	return
}

func (emu *Emulator) cmdWhere(args []string) (err error) {
	pid, err := parseInt(args[0])
	if err != nil {
		return
	}

	pcb, ok := emu.Kernel.Processes.Get(pid)
	if !ok {
		err = fmt.Errorf("%w: %d", kernel.ErrProcessUnknown, pid)
		return
	}

	pc := pcb.Registers.PC
	prog, ok := emu.Programs[pid]
	if !ok {
		emu.println(f("pid %d: PC $%04X (no listing)", pid, pc))
		return
	}

	dbg := prog.Debug(pc)
	if dbg.Line == nil {
		emu.println(f("pid %d: PC $%04X outside the program", pid, pc))
		return
	}

	emu.println(f("pid %d: PC $%04X line %d: %v", pid, pc, dbg.LineNo, strings.Join(dbg.Words, " ")))
	return
}

func (emu *Emulator) cmdShutdown(args []string) (err error) {
	emu.Kernel.Shutdown()
	return
}

func (emu *Emulator) cmdHelp(args []string) (err error) {
	names := make([]string, 0, len(_commands))
	for name := range _commands {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		emu.println("  " + _commands[name].help)
	}
	return
}

func (emu *Emulator) cmdStep(args []string) (err error) {
	n, err := parseInt(args[0])
	if err != nil {
		return
	}

	for range n {
		_, err = emu.tick()
		if err != nil {
			return
		}
	}
	return
}

func (emu *Emulator) cmdWait(args []string) (err error) {
	_, err = emu.runUntilIdle(WAIT_LIMIT)
	return
}
