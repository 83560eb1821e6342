package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_Fifo(t *testing.T) {
	assert := assert.New(t)

	q := &Queue{}
	assert.True(q.Empty())

	q.Raise(Interrupt{Kind: PRINT_INT, Pid: 1, Params: []int{7}})
	q.Raise(Interrupt{Kind: DISPATCH, Pid: NO_PID})
	q.Raise(Interrupt{Kind: TIMER, Pid: NO_PID})
	assert.Equal(3, q.Len())

	for _, kind := range []Kind{PRINT_INT, DISPATCH, TIMER} {
		in, ok := q.Next()
		assert.True(ok)
		assert.Equal(kind, in.Kind)
	}

	_, ok := q.Next()
	assert.False(ok)
}

func TestQueue_Disable(t *testing.T) {
	assert := assert.New(t)

	q := &Queue{}
	q.Raise(Interrupt{Kind: KEYBOARD, Params: []int{65, 0}})
	q.Disable()
	assert.True(q.Disabled())
	assert.True(q.Empty())

	q.Raise(Interrupt{Kind: KEYBOARD, Params: []int{66, 0}})
	assert.True(q.Empty())
	_, ok := q.Next()
	assert.False(ok)
}

func TestInterrupt_Param(t *testing.T) {
	assert := assert.New(t)

	in := Interrupt{Kind: KEYBOARD, Pid: NO_PID, Params: []int{67, 1}}
	assert.Equal(67, in.Param(0))
	assert.Equal(1, in.Param(1))
	assert.Equal(0, in.Param(2))
	assert.Equal(0, in.Param(-1))
}

func TestKind(t *testing.T) {
	assert := assert.New(t)

	assert.True(TIMER.Valid())
	assert.True(DISPATCH.Valid())
	assert.False(Kind(-1).Valid())
	assert.False(Kind(99).Valid())

	assert.Equal("memory-exception", MEMORY_EXCEPTION.String())
	assert.Equal("Kind(99)", Kind(99).String())
}
