package emulator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pulseos/device"
	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/kernel"
	"github.com/ezrec/pulseos/process"
	"github.com/ezrec/pulseos/sched"
)

var helloSource = []string{
	"; print a greeting",
	"        LDX #2",
	"        LDY #6",
	"        SYS",
	"        BRK",
	"msg:    .text Hi there",
}

func newTestEmulator(t *testing.T, cfg Config) (emu *Emulator, out *bytes.Buffer) {
	out = &bytes.Buffer{}
	emu, err := NewEmulator(cfg, out)
	assert.NoError(t, err)
	return
}

func TestConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())
	assert.Equal(DEFAULT_CLOCK, cfg.Clock)

	cfg, err := ParseConfig(`
sections = 4
quantum = 2
clock = "1ms"
cores = "/tmp/cores"
`)
	assert.NoError(err)
	assert.Equal(4, cfg.Sections)
	assert.Equal(2, cfg.Quantum)
	assert.Equal(time.Millisecond, cfg.Clock)
	assert.Equal("/tmp/cores", cfg.Cores)
	assert.False(cfg.Verbose)

	_, err = ParseConfig(`sectoins = 4`)
	assert.ErrorIs(err, ErrConfigKey)

	_, err = ParseConfig("sections = 0\nquantum = 0")
	assert.ErrorIs(err, ErrConfig)
	assert.Contains(err.Error(), "sections")
	assert.Contains(err.Error(), "quantum")

	_, err = ParseConfig(`sections = "many"`)
	assert.Error(err)

	path := filepath.Join(t.TempDir(), "pulseos.toml")
	assert.NoError(os.WriteFile(path, []byte("quantum = 9\n"), 0644))
	cfg, err = LoadConfig(path)
	assert.NoError(err)
	assert.Equal(9, cfg.Quantum)
	assert.Equal(DefaultConfig().Sections, cfg.Sections)

	_, err = NewEmulator(Config{}, nil)
	assert.ErrorIs(err, ErrConfig)
}

func TestEmulator_Assemble(t *testing.T) {
	assert := assert.New(t)

	emu, out := newTestEmulator(t, DefaultConfig())

	pid, err := emu.Assemble(strings.NewReader(strings.Join(helloSource, "\n")))
	assert.NoError(err)
	assert.Contains(emu.Programs, pid)
	assert.NoError(emu.Kernel.Run(pid))

	pulses, err := emu.RunUntilIdle(100)
	assert.NoError(err)
	assert.Greater(pulses, 4)

	pcb, _ := emu.Kernel.Processes.Get(pid)
	assert.Equal(process.TERMINATED, pcb.Status)
	assert.Equal("Hi there", pcb.Output.String())
	assert.True(strings.HasPrefix(out.String(), "Hi there\n"))
	assert.True(strings.HasSuffix(out.String(), device.DEFAULT_PROMPT))

	out.Reset()
	assert.NoError(emu.Exec("where 0"))
	assert.Equal("pid 0: PC $0006 line 6: .text Hi there\n", out.String())
	assert.ErrorIs(emu.Exec("where 4"), kernel.ErrProcessUnknown)
}

func TestEmulator_PulseLimit(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, DefaultConfig())
	pid, err := emu.Load([]uint8{0xD0, 0xFE})
	assert.NoError(err)
	assert.NoError(emu.Kernel.Run(pid))

	pulses, err := emu.RunUntilIdle(10)
	assert.ErrorIs(err, ErrPulseLimit)
	assert.Equal(10, pulses)
}

func TestEmulator_LoadFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	hexPath := filepath.Join(dir, "five.hex")
	asmPath := filepath.Join(dir, "hello.ASM")
	badPath := filepath.Join(dir, "bad.hex")
	assert.NoError(os.WriteFile(hexPath, []byte("A9 05\n00\n"), 0644))
	assert.NoError(os.WriteFile(asmPath, []byte(strings.Join(helloSource, "\n")), 0644))
	assert.NoError(os.WriteFile(badPath, []byte("A9 0"), 0644))

	emu, _ := newTestEmulator(t, DefaultConfig())

	pid, err := emu.LoadFile(hexPath)
	assert.NoError(err)
	assert.Equal(0, pid)
	assert.NotContains(emu.Programs, pid)

	pid, err = emu.LoadFile(asmPath)
	assert.NoError(err)
	assert.Equal(1, pid)
	assert.Contains(emu.Programs, pid)

	_, err = emu.LoadFile(badPath)
	assert.Error(err)

	_, err = emu.LoadFile(filepath.Join(dir, "missing.hex"))
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestEmulator_Script(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	hexPath := filepath.Join(dir, "five.hex")
	assert.NoError(os.WriteFile(hexPath, []byte("A9 05 00"), 0644))

	emu, out := newTestEmulator(t, DefaultConfig())

	for _, line := range []string{
		"# comment",
		"",
		"quantum 3",
		"load '" + hexPath + "'",
		"load " + hexPath,
		"run 0",
		"step 2",
		"kill 1",
		"wait",
		"ps",
	} {
		assert.NoError(emu.Exec(line), line)
	}

	assert.Equal(3, emu.Kernel.Scheduler.Quantum())
	assert.Contains(out.String(), "loaded as pid 1")
	assert.Contains(out.String(), "PC:0003 IR:00 ACC:05")

	pcb, _ := emu.Kernel.Processes.Get(0)
	assert.Equal(process.TERMINATED, pcb.Status)

	assert.ErrorIs(emu.Exec("frobnicate"), ErrCommandUnknown)
	assert.ErrorIs(emu.Exec("run"), ErrCommandArgs)
	assert.ErrorIs(emu.Exec("run 0"), kernel.ErrProcessFinished)
	assert.Error(emu.Exec("run zero"))
	assert.Error(emu.Exec("load 'unterminated"))
	assert.ErrorIs(emu.Exec("quantum 0"), sched.ErrQuantum)

	out.Reset()
	assert.NoError(emu.Exec("help"))
	assert.Contains(out.String(), "breakall")

	assert.NoError(emu.Exec("clearmem"))
	assert.NoError(emu.Exec("shutdown"))
	assert.True(emu.Halted())
}

func TestEmulator_Keyboard(t *testing.T) {
	assert := assert.New(t)

	emu, out := newTestEmulator(t, DefaultConfig())
	_, err := emu.Load([]uint8{0xEA})
	assert.NoError(err)

	for _, key := range []int{'R', 'U', 'N', device.KEY_SPACE, '0', device.KEY_ENTER} {
		emu.Key(key, false)
	}
	emu.Key('S', true)
	emu.Key('T', false)
	emu.Key('E', false)
	emu.Key('P', false)
	emu.Key(device.KEY_SPACE, false)
	emu.Key('1', false)
	emu.Key(device.KEY_ENTER, false)

	_, err = emu.RunUntilIdle(100)
	assert.NoError(err)

	assert.Contains(out.String(), "run 0\n")
	assert.Contains(out.String(), "Step 1\n")
	assert.Contains(out.String(), ErrCommandNested.Error())

	pcb, _ := emu.Kernel.Processes.Get(0)
	assert.Equal(process.TERMINATED, pcb.Status)
	assert.Equal(0, pcb.ExitCode)
}

func TestEmulator_CoreDump(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Cores = filepath.Join(t.TempDir(), "cores")
	emu, out := newTestEmulator(t, cfg)

	pid, err := emu.Load([]uint8{0x42})
	assert.NoError(err)
	assert.NoError(emu.Kernel.Run(pid))
	_, err = emu.RunUntilIdle(100)
	assert.NoError(err)

	data, err := os.ReadFile(filepath.Join(cfg.Cores, device.CoreName(pid)))
	assert.NoError(err)
	assert.Equal(uint8(0x42), data[0])

	assert.NoError(emu.Exec("cores"))
	assert.Contains(out.String(), "pid 0: 256 bytes")

	out.Reset()
	assert.NoError(emu.Exec("core 0"))
	assert.True(strings.HasPrefix(out.String(), "42 00 00 "))
	assert.ErrorIs(emu.Exec("core 3"), device.ErrCoreMissing)

	saved := filepath.Join(t.TempDir(), "saved")
	assert.NoError(emu.Exec("savecores '" + saved + "'"))
	data, err = os.ReadFile(filepath.Join(saved, device.CoreName(pid)))
	assert.NoError(err)
	assert.Len(data, 256)

	// A new machine over the same directory finds the earlier dumps.
	again, out := newTestEmulator(t, cfg)
	assert.Equal([]int{pid}, again.Cores.Pids())
	assert.NoError(again.Exec("core 0"))
	assert.True(strings.HasPrefix(out.String(), "42 00 00 "))
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Clock = time.Millisecond
	emu, _ := newTestEmulator(t, cfg)

	pid, err := emu.Load([]uint8{0xA9, 0x05, 0x00})
	assert.NoError(err)
	assert.NoError(emu.Kernel.Run(pid))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = emu.Run(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)

	snap := emu.Snapshot()
	assert.Equal("Terminated", snap.Processes[0].Status)
	assert.Equal(uint8(5), snap.Processes[0].Registers.Acc)
}

func TestEmulator_RunStopsOnTrap(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Clock = time.Millisecond
	emu, out := newTestEmulator(t, cfg)

	emu.Kernel.Raise(irq.Interrupt{Kind: irq.Kind(-7), Pid: irq.NO_PID})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, kernel.ErrHalted)
	var runtime *ErrRuntime
	assert.ErrorAs(err, &runtime)
	assert.Equal(1, runtime.Pulse)
	assert.Contains(out.String(), "KERNEL TRAP")
	assert.True(emu.Halted())

	// A halted machine stops the clock at once.
	assert.NoError(emu.Run(ctx))
}
