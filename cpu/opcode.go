package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Mode is an operand addressing mode.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_IMPLIED   = Mode(0) // implied
	MODE_IMMEDIATE = Mode(1) // immediate
	MODE_ABSOLUTE  = Mode(2) // absolute
	MODE_RELATIVE  = Mode(3) // relative
)

// Operands returns the number of operand bytes following the opcode.
func (mode Mode) Operands() int {
	switch mode {
	case MODE_IMMEDIATE, MODE_RELATIVE:
		return 1
	case MODE_ABSOLUTE:
		return 2
	}
	return 0
}

// Opcode is an instruction opcode byte.
type Opcode uint8

const (
	OP_BRK     = Opcode(0x00)
	OP_ADC     = Opcode(0x6D)
	OP_STA     = Opcode(0x8D)
	OP_LDY_IMM = Opcode(0xA0)
	OP_LDX_IMM = Opcode(0xA2)
	OP_LDA_IMM = Opcode(0xA9)
	OP_LDY     = Opcode(0xAC)
	OP_LDA     = Opcode(0xAD)
	OP_LDX     = Opcode(0xAE)
	OP_BNE     = Opcode(0xD0)
	OP_NOP     = Opcode(0xEA)
	OP_CPX     = Opcode(0xEC)
	OP_INC     = Opcode(0xEE)
	OP_SYS     = Opcode(0xFF)
)

// System call selectors, passed in X to OP_SYS.
const (
	SYS_PRINT_INT    = 1 // Print Y as a decimal integer.
	SYS_PRINT_STRING = 2 // Print the zero terminated string at address Y.
)

// OpcodeInfo describes a decodable opcode.
type OpcodeInfo struct {
	Mnemonic string
	Mode     Mode
}

var _opcodes = map[Opcode]OpcodeInfo{
	OP_BRK:     {"BRK", MODE_IMPLIED},
	OP_ADC:     {"ADC", MODE_ABSOLUTE},
	OP_STA:     {"STA", MODE_ABSOLUTE},
	OP_LDY_IMM: {"LDY", MODE_IMMEDIATE},
	OP_LDX_IMM: {"LDX", MODE_IMMEDIATE},
	OP_LDA_IMM: {"LDA", MODE_IMMEDIATE},
	OP_LDY:     {"LDY", MODE_ABSOLUTE},
	OP_LDA:     {"LDA", MODE_ABSOLUTE},
	OP_LDX:     {"LDX", MODE_ABSOLUTE},
	OP_BNE:     {"BNE", MODE_RELATIVE},
	OP_NOP:     {"NOP", MODE_IMPLIED},
	OP_CPX:     {"CPX", MODE_ABSOLUTE},
	OP_INC:     {"INC", MODE_ABSOLUTE},
	OP_SYS:     {"SYS", MODE_IMPLIED},
}

var _cpu_defines = map[string]string{
	"SYS_PRINT_INT":    fmt.Sprintf("%d", SYS_PRINT_INT),
	"SYS_PRINT_STRING": fmt.Sprintf("%d", SYS_PRINT_STRING),
}

// Defines returns the assembler predefines of the CPU.
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Info returns the decode information of an opcode.
func (op Opcode) Info() (info OpcodeInfo, ok bool) {
	info, ok = _opcodes[op]
	return
}

// Valid returns true if the CPU can decode the opcode.
func (op Opcode) Valid() bool {
	_, ok := _opcodes[op]
	return ok
}

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return _opcodes[op].Mode.Operands()
}

func (op Opcode) String() string {
	info, ok := _opcodes[op]
	if !ok {
		return fmt.Sprintf("??? (0x%02X)", uint8(op))
	}
	if info.Mode == MODE_IMMEDIATE {
		return info.Mnemonic + " #"
	}
	return info.Mnemonic
}

// Lookup finds the opcode for a mnemonic in an addressing mode.
func Lookup(mnemonic string, mode Mode) (op Opcode, ok bool) {
	for _, code := range slices.Sorted(maps.Keys(_opcodes)) {
		info := _opcodes[code]
		if info.Mnemonic == mnemonic && info.Mode == mode {
			return code, true
		}
	}
	return
}

// Modes returns the addressing modes a mnemonic supports.
func Modes(mnemonic string) (modes []Mode) {
	for _, info := range _opcodes {
		if info.Mnemonic == mnemonic && !slices.Contains(modes, info.Mode) {
			modes = append(modes, info.Mode)
		}
	}
	slices.Sort(modes)
	return
}

// Address decodes a little-endian absolute operand.
func Address(args []uint8) uint16 {
	return uint16(args[0]) | (uint16(args[1]) << 8)
}
