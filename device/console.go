package device

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/pulseos/process"
)

// DEFAULT_PROMPT is the default command prompt.
const DEFAULT_PROMPT = "> "

// Console renders program output, termination reports and traps to a
// text stream, and assembles keyboard input into command lines.
type Console struct {
	Output     io.Writer
	Keyboard   *Keyboard         // Input source, may be nil.
	PromptText string            // Prompt drawn after each termination.
	Commands   func(line string) // Receives each completed input line.

	Prompted bool // The prompt is the last thing drawn.

	line []byte
}

// NewConsole creates a console writing to output.
func NewConsole(output io.Writer, kbd *Keyboard) *Console {
	return &Console{
		Output:     output,
		Keyboard:   kbd,
		PromptText: DEFAULT_PROMPT,
	}
}

func (con *Console) write(text string) {
	if con.Output == nil {
		return
	}
	io.WriteString(con.Output, text)
}

// PutText writes program output.
func (con *Console) PutText(text string) {
	con.write(text)
	con.Prompted = false
}

// Report writes a process termination report on its own lines.
func (con *Console) Report(report process.Report) {
	if !con.Prompted {
		con.write("\n")
	}
	con.write(report.String() + "\n")
	con.Prompted = false
}

// Prompt draws the command prompt.
func (con *Console) Prompt() {
	con.write(con.PromptText)
	con.Prompted = true
}

// HandleInput echoes the buffered keyboard input, and hands each completed
// line to Commands.
func (con *Console) HandleInput() {
	if con.Keyboard == nil {
		return
	}

	for ch := range con.Keyboard.Receive() {
		switch ch {
		case '\b':
			if len(con.line) > 0 {
				con.line = con.line[:len(con.line)-1]
				con.write("\b \b")
			}
		case '\n':
			con.write("\n")
			line := string(con.line)
			con.line = con.line[:0]
			con.Prompted = false
			if con.Commands != nil {
				con.Commands(line)
			}
		default:
			con.line = append(con.line, ch)
			con.write(string(ch))
		}
	}
}

// Line returns the partially entered input line.
func (con *Console) Line() string {
	return string(con.line)
}

// Trap draws the full stop display of a kernel trap.
func (con *Console) Trap(message string) {
	bar := strings.Repeat("*", 60)
	con.write(fmt.Sprintf("\n%v\n%v\n\n  %v\n\n%v\n%v\n",
		bar,
		f("  KERNEL TRAP"),
		message,
		f("  The machine has halted. Restart to continue."),
		bar))
	con.Prompted = false
}
