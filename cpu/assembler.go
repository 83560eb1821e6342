// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/pulseos/internal"
	"github.com/ezrec/pulseos/memory"
)

// Predefined system equates
var sysEquate = maps.Collect(internal.IterSeq2Concat(
	maps.All(map[string]string{"LINENO": "0"}),
	Defines(),
	memory.Defines(),
))

// Assembler is a two pass assembler for the pulseos instruction set.
//
//	; comment
//	.equ COUNT 3
//	loop:   LDA #$(COUNT * 2)
//	        STA data
//	        BNE loop
//	data:   .byte 0 0
//	hello:  .text Hello world
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string
	Label     map[string]int    // Map of labels to section addresses.
	Equate    map[string]string // Map of equates.

	lines []Line
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if equ, ok := asm.Equate[word]; ok {
		word = equ
	}
	if len(word) > 1 && word[0] == '$' {
		word = "0x" + word[1:]
	}
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		v, err := asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reChar  = regexp.MustCompile(`'\\?[^']'`)
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
)

// expand replaces 'c' characters and $(...) expressions by their values.
func (asm *Assembler) expand(line string) (out string, err error) {
	out = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "n":
				return "10"
			case "0":
				return "0"
			case "\\":
				return "92"
			}
			return word
		}
		return fmt.Sprintf("%d", str[0])
	})

	out = reParen.ReplaceAllStringFunc(out, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})

	return
}

// currentAddr is the section address of the next emitted byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.lines) == 0 {
		return 0
	}

	last := asm.lines[len(asm.lines)-1]

	return last.Addr + len(last.Bytes)
}

// parseOperand determines the addressing mode and operand bytes.
func (asm *Assembler) parseOperand(mnemonic string, words []string) (op Opcode, args []uint8, link string, err error) {
	modes := Modes(mnemonic)
	if len(modes) == 0 {
		err = ErrMnemonicInvalid
		return
	}

	if len(words) > 1 {
		err = ErrOperandExtra
		return
	}

	if len(words) == 0 {
		var ok bool
		op, ok = Lookup(mnemonic, MODE_IMPLIED)
		if !ok {
			err = ErrOperandMissing
		}
		return
	}

	word := words[0]
	mode := MODE_ABSOLUTE
	switch {
	case strings.HasPrefix(word, "#"):
		mode = MODE_IMMEDIATE
		word = word[1:]
	case slices.Contains(modes, MODE_RELATIVE):
		mode = MODE_RELATIVE
	}

	op, ok := Lookup(mnemonic, mode)
	if !ok {
		err = ErrOperandMode
		return
	}

	value, err := asm.valueOf(word)
	if err != nil {
		// Not a number; resolve as a label during linking.
		if mode == MODE_IMMEDIATE {
			return
		}
		err = nil
		link = word
		args = make([]uint8, mode.Operands())
		return
	}

	switch mode {
	case MODE_IMMEDIATE:
		if value < -128 || value > 0xff {
			err = ErrOperandRange
			return
		}
		args = []uint8{uint8(value)}
	case MODE_RELATIVE:
		if value < -128 || value > 0xff {
			err = ErrOperandRange
			return
		}
		args = []uint8{uint8(value)}
	case MODE_ABSOLUTE:
		if value < 0 || value > 0xffff {
			err = ErrOperandRange
			return
		}
		args = []uint8{uint8(value), uint8(value >> 8)}
	}

	return
}

// parseWords turns one expanded source line into a Line.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// Labels
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
	}

	if len(words) == 0 {
		return
	}

	line := Line{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Words:  words,
	}

	directive := strings.ToLower(words[0])
	switch directive {
	case ".equ":
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[words[1]]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	case ".byte":
		for _, word := range words[1:] {
			var value int64
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			if value < -128 || value > 0xff {
				err = ErrOperandRange
				return
			}
			line.Bytes = append(line.Bytes, uint8(value))
		}
	case ".text":
		line.Bytes = append([]uint8(strings.Join(words[1:], " ")), 0)
	default:
		if strings.HasPrefix(directive, ".") {
			err = ErrDirectiveInvalid
			return
		}
		mnemonic := strings.ToUpper(words[0])
		var op Opcode
		var args []uint8
		op, args, line.LinkLabel, err = asm.parseOperand(mnemonic, words[1:])
		if err != nil {
			return
		}
		line.Bytes = append([]uint8{uint8(op)}, args...)
	}

	if line.Addr+len(line.Bytes) > memory.SECTION_SIZE {
		err = ErrProgramTooLarge
		return
	}

	asm.lines = append(asm.lines, line)
	return
}

// link resolves label operands.
func (asm *Assembler) link() (err error) {
	for n := range asm.lines {
		line := &asm.lines[n]
		if len(line.LinkLabel) == 0 {
			continue
		}

		target, ok := asm.Label[line.LinkLabel]
		if !ok {
			err = ErrSyntax{LineNo: line.LineNo, Line: strings.Join(line.Words, " "), Err: ErrLabelMissing(line.LinkLabel)}
			return
		}

		switch Opcode(line.Bytes[0]).Operands() {
		case 1:
			offset := target - (line.Addr + len(line.Bytes))
			if offset < -128 || offset > 127 {
				err = ErrSyntax{LineNo: line.LineNo, Line: strings.Join(line.Words, " "), Err: ErrBranchRange}
				return
			}
			line.Bytes[1] = uint8(int8(offset))
		case 2:
			line.Bytes[1] = uint8(target)
			line.Bytes[2] = uint8(target >> 8)
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			if _, ok := err.(ErrSyntax); !ok {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
		}
	}()

	asm.lines = nil
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		asm.Equate["LINENO"] = fmt.Sprintf("%d", lineno)
		line = strings.TrimSpace(strings.Split(text, ";")[0])

		var expanded string
		expanded, err = asm.expand(line)
		if err != nil {
			return
		}

		words := strings.Fields(expanded)
		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	err = asm.link()
	if err != nil {
		return
	}

	prog = &Program{
		Lines: slices.Clone(asm.lines),
	}

	return
}
