package kernel

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	ErrHalted          = errors.New(f("kernel halted"))
	ErrProcessUnknown  = errors.New(f("no such process"))
	ErrProcessState    = errors.New(f("process in wrong state"))
	ErrProcessFinished = errors.New(f("process already terminated"))
)

// ErrTrap is a fatal kernel trap. It halts the machine.
type ErrTrap struct {
	Message string
}

func (err ErrTrap) Error() string {
	return f("kernel trap: %v", err.Message)
}

func (err ErrTrap) Unwrap() error {
	return ErrHalted
}
