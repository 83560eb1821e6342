package memory

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	// Allocation errors
	ErrProgramTooLarge = errors.New(f("program exceeds section size"))
	ErrNoSpace         = errors.New(f("no space"))

	// Section errors
	ErrSectionFree    = errors.New(f("section already free"))
	ErrSectionInvalid = errors.New(f("section invalid"))
	ErrSectionInUse   = errors.New(f("section in use"))
)
