package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHex(t *testing.T) {
	table := [](struct {
		text  string
		image []uint8
		err   error
	}){
		{"A9 05 00", []uint8{0xA9, 0x05, 0x00}, nil},
		{"a905\n00", []uint8{0xA9, 0x05, 0x00}, nil},
		{"  ", []uint8{}, nil},
		{"A9 0", nil, ErrHexOdd},
		{"ZZ", nil, ErrHexDigit("ZZ")},
	}

	for _, entry := range table {
		assert := assert.New(t)

		image, err := ParseHex(entry.text)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.text)
			assert.Nil(image, entry.text)
			continue
		}
		assert.NoError(err, entry.text)
		assert.Equal(entry.image, image, entry.text)
	}
}

func TestHex(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("A9 05 00 FF", Hex([]uint8{0xA9, 0x05, 0x00, 0xFF}))
	assert.Equal("", Hex(nil))

	image, err := ParseHex(Hex([]uint8{1, 2, 3}))
	assert.NoError(err)
	assert.Equal([]uint8{1, 2, 3}, image)
}

func TestOpcode(t *testing.T) {
	assert := assert.New(t)

	assert.True(OP_SYS.Valid())
	assert.False(Opcode(0x42).Valid())
	assert.Equal(2, OP_STA.Operands())
	assert.Equal(1, OP_BNE.Operands())
	assert.Equal(0, OP_BRK.Operands())
	assert.Equal("LDA #", OP_LDA_IMM.String())
	assert.Equal("LDA", OP_LDA.String())
	assert.Equal("??? (0x42)", Opcode(0x42).String())

	op, ok := Lookup("LDY", MODE_ABSOLUTE)
	assert.True(ok)
	assert.Equal(OP_LDY, op)
	assert.Equal([]Mode{MODE_IMMEDIATE, MODE_ABSOLUTE}, Modes("LDX"))
	assert.Equal("relative", MODE_RELATIVE.String())
}
