package cpu

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// Line is one assembled source line and the bytes it emitted.
type Line struct {
	LineNo    int
	Addr      int
	Words     []string
	Bytes     []uint8
	LinkLabel string
}

// Program is an assembled process image.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug locates the source line that emitted the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, line := range prog.Lines {
		if int(addr) >= line.Addr && int(addr) < line.Addr+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: int(addr) - line.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the process image.
func (prog *Program) Binary() (bins []uint8) {
	for _, line := range prog.Lines {
		bins = append(bins, line.Bytes...)
	}

	return
}

// ParseHex decodes the hex-pair text form of a process image.
// Whitespace between (or within) pairs is ignored.
func ParseHex(text string) (image []uint8, err error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if len(digits)%2 != 0 {
		err = ErrHexOdd
		return
	}

	image, err = hex.DecodeString(digits)
	if err != nil {
		err = ErrHexDigit(digits)
		image = nil
	}

	return
}

// Hex encodes a process image as space separated upper case hex pairs.
func Hex(image []uint8) string {
	pairs := make([]string, len(image))
	for n, b := range image {
		pairs[n] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(pairs, " ")
}
