package sched

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	ErrQuantum    = errors.New(f("quantum must be at least one cycle"))
	ErrQueueEmpty = errors.New(f("ready queue empty"))
)
