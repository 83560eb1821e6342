package cpu

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/irq"
)

// Bus is the section-relative memory view of the running process.
// Out of bound accesses are reported by the bus itself, so a failed
// access only needs to abandon the current cycle.
type Bus interface {
	Bind(section int, pid int)
	Read(addr uint16) (value uint8, ok bool)
	Write(addr uint16, value uint8) (ok bool)
}

// Registers is the visible register file. It is a value type: a copy is
// saved in the process control block when a process leaves the CPU.
type Registers struct {
	PC  uint16 // Program counter, relative to the section.
	IR  uint8  // Current opcode.
	Acc uint8  // Accumulator.
	X   uint8  // X index register.
	Y   uint8  // Y index register.
	Z   bool   // Zero/compare flag.
}

func (regs Registers) String() string {
	z := 0
	if regs.Z {
		z = 1
	}
	return fmt.Sprintf("PC:%04X IR:%02X ACC:%02X X:%02X Y:%02X Z:%d",
		regs.PC, regs.IR, regs.Acc, regs.X, regs.Y, z)
}

// Cpu is the simulation context for the processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Registers      // Live register file.
	Executing bool // A process currently owns the register file.

	Bus Bus        // Memory view of the owning process.
	Irq irq.Raiser // Destination of syscall and fault interrupts.

	Pid    int // Owning process, attributed on raised interrupts.
	Cycles int // Cycles executed since reset.

	addr uint16 // Address the opcode in IR was fetched from.
}

// NewCpu creates a processor over a bus, raising interrupts to raiser.
func NewCpu(bus Bus, raiser irq.Raiser) (cpu *Cpu) {
	cpu = &Cpu{
		Bus: bus,
		Irq: raiser,
		Pid: irq.NO_PID,
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	state := "idle"
	if cpu.Executing {
		state = fmt.Sprintf("pid %d", cpu.Pid)
	}
	return fmt.Sprintf("%v [%v]", cpu.Registers, state)
}

// Reset clears the register file and releases the CPU.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Registers = Registers{}
	cpu.Executing = false
	cpu.Pid = irq.NO_PID
	cpu.Cycles = 0
}

// Snapshot returns a copy of the live register file.
func (cpu *Cpu) Snapshot() Registers {
	return cpu.Registers
}

// Restore loads a complete register file, binds the bus to the owner's
// section, and marks the CPU as executing on behalf of pid.
func (cpu *Cpu) Restore(pid int, section int, regs Registers) {
	cpu.Registers = regs
	cpu.Bus.Bind(section, pid)
	cpu.Pid = pid
	cpu.Executing = true

	if cpu.Verbose {
		log.Printf("cpu: restore pid %d section %d %v", pid, section, regs)
	}
}

// Release marks the CPU as no longer owned by any process.
func (cpu *Cpu) Release() {
	cpu.Executing = false
	cpu.Pid = irq.NO_PID
}

// raise an interrupt on behalf of the owning process.
func (cpu *Cpu) raise(kind irq.Kind, params ...int) {
	cpu.Irq.Raise(irq.Interrupt{
		Kind:   kind,
		Pid:    cpu.Pid,
		Params: params,
	})
}

// Fetch reads the opcode at PC into IR and advances PC.
func (cpu *Cpu) Fetch() (ok bool) {
	value, ok := cpu.Bus.Read(cpu.PC)
	if !ok {
		return
	}

	cpu.IR = value
	cpu.addr = cpu.PC
	cpu.PC++
	return
}

// Decode reads the operands of the opcode in IR, advancing PC past them.
func (cpu *Cpu) Decode() (args []uint8, err error) {
	op := Opcode(cpu.IR)
	info, ok := op.Info()
	if !ok {
		err = ErrOpcode(cpu.IR)
		return
	}

	args = make([]uint8, 0, info.Mode.Operands())
	for range info.Mode.Operands() {
		value, ok := cpu.Bus.Read(cpu.PC)
		if !ok {
			err = ErrBusFault
			return
		}
		args = append(args, value)
		cpu.PC++
	}

	return
}

// Execute performs a decoded instruction.
func (cpu *Cpu) Execute(op Opcode, args []uint8) (err error) {
	if cpu.Verbose {
		log.Printf("%02x: %v %x", cpu.addr, op, args)
	}

	// load reads an absolute operand.
	load := func() (value uint8) {
		value, ok := cpu.Bus.Read(Address(args))
		if !ok {
			err = ErrBusFault
		}
		return
	}

	switch op {
	case OP_LDA_IMM:
		cpu.Acc = args[0]
	case OP_LDA:
		value := load()
		if err == nil {
			cpu.Acc = value
		}
	case OP_STA:
		if !cpu.Bus.Write(Address(args), cpu.Acc) {
			err = ErrBusFault
		}
	case OP_ADC:
		value := load()
		if err == nil {
			cpu.Acc += value
		}
	case OP_LDX_IMM:
		cpu.X = args[0]
	case OP_LDX:
		value := load()
		if err == nil {
			cpu.X = value
		}
	case OP_LDY_IMM:
		cpu.Y = args[0]
	case OP_LDY:
		value := load()
		if err == nil {
			cpu.Y = value
		}
	case OP_NOP:
		// pass
	case OP_BRK:
		cpu.raise(irq.BREAK)
	case OP_CPX:
		value := load()
		if err == nil {
			cpu.Z = value == cpu.X
		}
	case OP_BNE:
		if !cpu.Z {
			// Signed displacement; the target is not wrapped into the section.
			cpu.PC = uint16(int(cpu.PC) + int(int8(args[0])))
		}
	case OP_INC:
		value := load()
		if err == nil && !cpu.Bus.Write(Address(args), value+1) {
			err = ErrBusFault
		}
	case OP_SYS:
		switch cpu.X {
		case SYS_PRINT_INT:
			cpu.raise(irq.PRINT_INT, int(cpu.Y))
		case SYS_PRINT_STRING:
			cpu.raise(irq.PRINT_STRING, int(cpu.Y))
		default:
			cpu.raise(irq.INVALID_OPCODE, int(OP_SYS))
		}
	default:
		err = ErrOpcode(op)
	}

	return
}

// Cycle performs exactly one fetch, decode and execute.
//
// Faults are never returned: a bad address has already been reported by
// the bus, and an undecodable opcode is raised as an invalid-opcode
// interrupt. The only error is calling Cycle on an idle CPU.
func (cpu *Cpu) Cycle() (err error) {
	if !cpu.Executing {
		err = ErrNotExecuting
		return
	}

	cpu.Cycles++

	if !cpu.Fetch() {
		return
	}

	args, err := cpu.Decode()
	if err == nil {
		err = cpu.Execute(Opcode(cpu.IR), args)
	}

	var bad ErrOpcode
	switch {
	case errors.As(err, &bad):
		cpu.raise(irq.INVALID_OPCODE, int(bad))
	case errors.Is(err, ErrBusFault):
		if cpu.Verbose {
			log.Printf("cpu: bus fault at pc %02x", cpu.addr)
		}
	}

	return nil
}
