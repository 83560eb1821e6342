package cpu

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pulseos/irq"
	"github.com/ezrec/pulseos/memory"
)

const testPid = 7

// newTestCpu loads image into section 1 of a two section memory, and
// restores a fresh register file for it.
func newTestCpu(t *testing.T, image ...uint8) (cpu *Cpu, mem *memory.Memory, q *irq.Queue) {
	mem = memory.NewMemory(2)
	q = &irq.Queue{}
	mm := memory.NewManager(mem)
	_, err := mm.Allocate(nil)
	assert.NoError(t, err)
	section, err := mm.Allocate(image)
	assert.NoError(t, err)
	assert.Equal(t, 1, section)

	cpu = NewCpu(memory.NewAccessor(mem, q), q)
	cpu.Restore(testPid, section, Registers{})
	return
}

func TestCpu_Idle(t *testing.T) {
	assert := assert.New(t)

	cpu, _, q := newTestCpu(t, uint8(OP_NOP))
	cpu.Release()

	assert.ErrorIs(cpu.Cycle(), ErrNotExecuting)
	assert.Equal(uint16(0), cpu.PC)
	assert.True(q.Empty())
}

func TestCpu_LoadBreak(t *testing.T) {
	assert := assert.New(t)

	cpu, _, q := newTestCpu(t, 0xA9, 0x05, 0x00)

	assert.NoError(cpu.Cycle())
	assert.Equal(uint8(5), cpu.Acc)
	assert.Equal(uint16(2), cpu.PC)
	assert.Equal(uint8(0xA9), cpu.IR)
	assert.True(q.Empty())

	assert.NoError(cpu.Cycle())
	in, ok := q.Next()
	assert.True(ok)
	assert.Equal(irq.BREAK, in.Kind)
	assert.Equal(testPid, in.Pid)
	assert.Equal(2, cpu.Cycles)
}

func TestCpu_Instructions(t *testing.T) {
	table := [](struct {
		name   string
		image  []uint8
		cycles int
		check  func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory)
	}){
		{"lda_abs", []uint8{0xAD, 0x03, 0x00, 0x99}, 1,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(0x99), cpu.Acc)
			}},
		{"sta", []uint8{0xA9, 0x42, 0x8D, 0x20, 0x00}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(0x42), mem.Read(memory.Translate(0x20, 1)))
				assert.Equal(uint8(0), mem.Read(0x20))
			}},
		{"adc", []uint8{0xA9, 0x03, 0x6D, 0x06, 0x00, 0x00, 0x04}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(7), cpu.Acc)
			}},
		{"adc_wrap", []uint8{0xA9, 0xFF, 0x6D, 0x06, 0x00, 0x00, 0x02}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(1), cpu.Acc)
			}},
		{"ldx_ldy", []uint8{0xA2, 0x11, 0xA0, 0x22, 0xAE, 0x09, 0x00, 0xAC, 0x0A, 0x00, 0x33, 0x44}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(0x11), cpu.X)
				assert.Equal(uint8(0x22), cpu.Y)
			}},
		{"ldx_ldy_abs", []uint8{0xAE, 0x06, 0x00, 0xAC, 0x07, 0x00, 0x33, 0x44}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(0x33), cpu.X)
				assert.Equal(uint8(0x44), cpu.Y)
			}},
		{"nop", []uint8{0xEA, 0xEA}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint16(2), cpu.PC)
			}},
		{"cpx_equal", []uint8{0xA2, 0x09, 0xEC, 0x05, 0x00, 0x09}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.True(cpu.Z)
			}},
		{"cpx_differ", []uint8{0xA2, 0x08, 0xEC, 0x05, 0x00, 0x09}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.False(cpu.Z)
			}},
		{"inc", []uint8{0xEE, 0x03, 0x00, 0xFE}, 1,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint8(0xFF), mem.Read(memory.Translate(3, 1)))
			}},
		{"bne_taken", []uint8{0xD0, 0x03}, 1,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint16(5), cpu.PC)
			}},
		{"bne_backward", []uint8{0xEA, 0xD0, 0xFD}, 2,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.Equal(uint16(0), cpu.PC)
			}},
		{"bne_not_taken", []uint8{0xA2, 0x00, 0xEC, 0x07, 0x00, 0xD0, 0x10}, 3,
			func(assert *assert.Assertions, cpu *Cpu, mem *memory.Memory) {
				assert.True(cpu.Z)
				assert.Equal(uint16(7), cpu.PC)
			}},
	}

	for _, entry := range table {
		assert := assert.New(t)

		cpu, mem, q := newTestCpu(t, entry.image...)

		for range entry.cycles {
			assert.NoError(cpu.Cycle(), entry.name)
		}
		assert.True(q.Empty(), entry.name)
		entry.check(assert, cpu, mem)
	}
}

func TestCpu_Syscall(t *testing.T) {
	table := [](struct {
		name   string
		image  []uint8
		kind   irq.Kind
		params []int
	}){
		{"print_int", []uint8{0xA2, 0x01, 0xA0, 0x2A, 0xFF}, irq.PRINT_INT, []int{42}},
		{"print_string", []uint8{0xA2, 0x02, 0xA0, 0x10, 0xFF}, irq.PRINT_STRING, []int{0x10}},
		{"bad_selector", []uint8{0xA2, 0x07, 0xA0, 0x10, 0xFF}, irq.INVALID_OPCODE, []int{0xFF}},
	}

	for _, entry := range table {
		assert := assert.New(t)

		cpu, _, q := newTestCpu(t, entry.image...)
		for range 3 {
			assert.NoError(cpu.Cycle(), entry.name)
		}

		assert.Equal(1, q.Len(), entry.name)
		in, _ := q.Next()
		assert.Equal(entry.kind, in.Kind, entry.name)
		assert.Equal(entry.params, in.Params, entry.name)
		assert.Equal(testPid, in.Pid, entry.name)
		// Registers are untouched by the syscall itself.
		assert.Equal(uint8(0), cpu.Acc, entry.name)
	}
}

func TestCpu_InvalidOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu, _, q := newTestCpu(t, 0x42)

	assert.NoError(cpu.Cycle())
	assert.Equal(1, q.Len())
	in, _ := q.Next()
	assert.Equal(irq.INVALID_OPCODE, in.Kind)
	assert.Equal([]int{0x42}, in.Params)
	assert.Equal(uint16(1), cpu.PC)
}

func TestCpu_BranchOutOfSection(t *testing.T) {
	assert := assert.New(t)

	// Pad with NOPs so the forward branch is in range, then branch past
	// the end of the section.
	image := make([]uint8, 0xF0)
	for n := range image {
		image[n] = uint8(OP_NOP)
	}
	image[0] = uint8(OP_BNE)
	image[1] = 0x7F
	image[0x81] = uint8(OP_BNE)
	image[0x82] = 0x7F

	cpu, _, q := newTestCpu(t, image...)

	assert.NoError(cpu.Cycle())
	assert.Equal(uint16(0x81), cpu.PC)
	assert.NoError(cpu.Cycle())
	assert.Equal(uint16(0x102), cpu.PC)
	assert.True(q.Empty())

	// The fetch faults: exactly one exception.
	assert.NoError(cpu.Cycle())
	assert.Equal(1, q.Len())
	in, _ := q.Next()
	assert.Equal(irq.MEMORY_EXCEPTION, in.Kind)
	assert.Equal(testPid, in.Pid)
	assert.Equal([]int{memory.Translate(0x102, 1), 1}, in.Params)
}

func TestCpu_OperandFault(t *testing.T) {
	assert := assert.New(t)

	// STA to an address beyond the section.
	cpu, mem, q := newTestCpu(t, 0xA9, 0x77, 0x8D, 0x00, 0x01)
	assert.NoError(cpu.Cycle())
	assert.NoError(cpu.Cycle())

	assert.Equal(1, q.Len())
	in, _ := q.Next()
	assert.Equal(irq.MEMORY_EXCEPTION, in.Kind)
	assert.Equal(testPid, in.Pid)
	stored := 0
	for _, value := range mem.Data {
		if value == 0x77 {
			stored++
		}
	}
	// Only the immediate operand of the LDA holds the value.
	assert.Equal(1, stored)
}

func TestCpu_SnapshotRestore(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu(t, 0xA9, 0x05, 0xA2, 0x06)
	cpu.Cycle()
	cpu.Cycle()

	saved := cpu.Snapshot()
	assert.Equal(Registers{PC: 4, IR: 0xA2, Acc: 5, X: 6}, saved)

	cpu.Restore(9, 0, Registers{PC: 0x10, Y: 3, Z: true})
	assert.Equal(9, cpu.Pid)
	assert.Equal(uint16(0x10), cpu.PC)
	assert.True(cpu.Executing)

	cpu.Restore(testPid, 1, saved)
	assert.Equal(saved, cpu.Snapshot())

	cpu.Reset()
	assert.False(cpu.Executing)
	assert.Equal(Registers{}, cpu.Registers)
	assert.Equal(irq.NO_PID, cpu.Pid)
}

func TestCpu_VerboseTrace(t *testing.T) {
	assert := assert.New(t)

	hook := test.NewGlobal()
	defer hook.Reset()

	cpu, _, _ := newTestCpu(t, 0xEA, 0xA9, 0x05, 0xAD, 0x00, 0x01)
	cpu.Verbose = true

	assert.NoError(cpu.Cycle())
	assert.Equal("00: NOP", strings.TrimSpace(hook.LastEntry().Message))

	assert.NoError(cpu.Cycle())
	assert.Equal(uint16(3), cpu.PC)
	assert.Equal("01: LDA # 05", hook.LastEntry().Message)

	assert.NoError(cpu.Cycle())
	assert.Equal("cpu: bus fault at pc 03", hook.LastEntry().Message)
}

func TestRegisters_String(t *testing.T) {
	assert := assert.New(t)

	regs := Registers{PC: 0x12, IR: 0xA9, Acc: 5, X: 1, Y: 2, Z: true}
	assert.Equal("PC:0012 IR:A9 ACC:05 X:01 Y:02 Z:1", regs.String())
}

func FuzzCpu(f *testing.F) {
	for _, op := range []uint8{0x00, 0x6D, 0x8D, 0xA9, 0xD0, 0xFF, 0x42} {
		f.Add(op, uint8(0), uint8(0), uint8(0))
		f.Add(op, uint8(0xff), uint8(0xff), uint8(2))
	}

	f.Fuzz(func(t *testing.T, op uint8, lo uint8, hi uint8, x uint8) {
		assert := assert.New(t)

		cpu, _, q := newTestCpu(t, op, lo, hi)
		cpu.X = x

		assert.NoError(cpu.Cycle())
		// One cycle never raises more than one interrupt.
		assert.LessOrEqual(q.Len(), 1)

		if !Opcode(op).Valid() {
			in, ok := q.Next()
			assert.True(ok)
			assert.Equal(irq.INVALID_OPCODE, in.Kind)
			assert.Equal(int(op), in.Param(0))
		}
	})
}
