package device

import (
	"iter"
)

// KEYBOARD_CAPACITY is the default keyboard buffer size, in characters.
const KEYBOARD_CAPACITY = 64

// Key codes with no printable character.
const (
	KEY_BACKSPACE = 8
	KEY_ENTER     = 13
	KEY_SPACE     = 32
)

// _punctuation maps key codes to their unshifted and shifted characters.
var _punctuation = map[int][2]byte{
	186: {';', ':'},
	187: {'=', '+'},
	188: {',', '<'},
	189: {'-', '_'},
	190: {'.', '>'},
	191: {'/', '?'},
	192: {'`', '~'},
	219: {'[', '{'},
	220: {'\\', '|'},
	221: {']', '}'},
	222: {'\'', '"'},
}

const _shiftedDigits = ")!@#$%^&*("

// Decode converts a key code and shift state into a character.
func Decode(keyCode int, shifted bool) (ch byte, ok bool) {
	switch {
	case keyCode >= 'A' && keyCode <= 'Z':
		ch = byte(keyCode)
		if !shifted {
			ch += 'a' - 'A'
		}
	case keyCode >= '0' && keyCode <= '9':
		ch = byte(keyCode)
		if shifted {
			ch = _shiftedDigits[keyCode-'0']
		}
	case keyCode == KEY_SPACE:
		ch = ' '
	case keyCode == KEY_ENTER:
		ch = '\n'
	case keyCode == KEY_BACKSPACE:
		ch = '\b'
	default:
		pair, found := _punctuation[keyCode]
		if !found {
			return
		}
		ch = pair[0]
		if shifted {
			ch = pair[1]
		}
	}

	ok = true
	return
}

// Keyboard is the keyboard driver: a FIFO ring of decoded characters
// waiting for the console.
type Keyboard struct {
	Capacity int // Capacity in characters.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []byte

	Dropped int // Characters lost to a full buffer.
}

// NewKeyboard creates an empty keyboard buffer.
func NewKeyboard(capacity int) (kbd *Keyboard) {
	kbd = &Keyboard{Capacity: capacity}
	kbd.Reset()
	return
}

// Reset empties the buffer.
func (kbd *Keyboard) Reset() {
	kbd.ReadIndex = 0
	kbd.WriteIndex = 0
	kbd.Size = 0
	kbd.Data = make([]byte, kbd.Capacity)
}

// Isr is the keyboard interrupt service routine. params are the raw
// interrupt parameters [keyCode, shifted].
func (kbd *Keyboard) Isr(params []int) {
	if len(params) == 0 {
		return
	}

	shifted := len(params) > 1 && params[1] != 0
	ch, ok := Decode(params[0], shifted)
	if !ok {
		return
	}

	if kbd.Send(ch) != nil {
		kbd.Dropped++
	}
}

// Send queues a character.
// Returns ErrKeyboardFull if the buffer has reached capacity.
func (kbd *Keyboard) Send(ch byte) (err error) {
	if kbd.Size >= kbd.Capacity {
		err = ErrKeyboardFull
		return
	}

	kbd.Data[kbd.WriteIndex] = ch

	kbd.WriteIndex++
	if kbd.WriteIndex == kbd.Capacity {
		kbd.WriteIndex = 0
	}
	kbd.Size++

	return
}

// Receive returns an iterator that drains characters until empty.
func (kbd *Keyboard) Receive() iter.Seq[byte] {
	return func(yield func(ch byte) bool) {
		for kbd.Size > 0 {
			ch := kbd.Data[kbd.ReadIndex]
			kbd.ReadIndex++
			if kbd.ReadIndex == kbd.Capacity {
				kbd.ReadIndex = 0
			}
			kbd.Size--
			if !yield(ch) {
				return
			}
		}
	}
}
