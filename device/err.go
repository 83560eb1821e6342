package device

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	ErrKeyboardFull = errors.New(f("keyboard buffer full"))
	ErrCoreMissing  = errors.New(f("no core dump for process"))
)
