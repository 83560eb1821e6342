package emulator

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	ErrConfig         = errors.New(f("invalid configuration"))
	ErrConfigKey      = errors.New(f("unknown configuration key"))
	ErrPulseLimit     = errors.New(f("pulse limit reached"))
	ErrCommandUnknown = errors.New(f("unknown command"))
	ErrCommandArgs    = errors.New(f("wrong number of arguments"))
	ErrCommandNested  = errors.New(f("command not permitted from the console"))
)

// ErrRuntime indicates the pulse of a runtime error.
type ErrRuntime struct {
	Pulse int
	Err   error
}

func (err *ErrRuntime) Error() string {
	return f("pulse %d %v", err.Pulse, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
