package process

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pulseos/cpu"
)

func TestPcb_Account(t *testing.T) {
	assert := assert.New(t)

	pcb := NewPcb(3, 1)
	assert.Equal(RESIDENT, pcb.Status)

	// Resident processes do not age.
	pcb.Account(false)
	assert.Equal(0, pcb.TurnaroundTime)

	pcb.Status = READY
	pcb.Account(false)
	assert.Equal(1, pcb.TurnaroundTime)
	assert.Equal(1, pcb.WaitTime)

	pcb.Status = RUNNING
	pcb.Account(true)
	assert.Equal(2, pcb.TurnaroundTime)
	assert.Equal(1, pcb.WaitTime)

	pcb.Status = TERMINATED
	assert.True(pcb.Terminated())
	assert.False(pcb.Live())
	pcb.Account(false)
	assert.Equal(2, pcb.TurnaroundTime)
	assert.Equal(1, pcb.WaitTime)
}

func TestPcb_Report(t *testing.T) {
	assert := assert.New(t)

	pcb := NewPcb(4, 0)
	pcb.Registers = cpu.Registers{Acc: 5}
	pcb.Print("42")
	pcb.Print("hi")
	pcb.ExitCode = 1
	pcb.TurnaroundTime = 12
	pcb.WaitTime = 5

	rep := pcb.Report("invalid opcode 42")
	assert.Equal(Report{
		Pid:            4,
		ExitCode:       1,
		Message:        "invalid opcode 42",
		Output:         "42hi",
		TurnaroundTime: 12,
		WaitTime:       5,
	}, rep)

	text := rep.String()
	assert.Contains(text, "Process 4 exited with code 1: invalid opcode 42")
	assert.Contains(text, "42hi")
	assert.Contains(text, "12")

	quiet := NewPcb(5, 0).Report("")
	assert.NotContains(quiet.String(), "Output")
}

func TestTable(t *testing.T) {
	assert := assert.New(t)

	tbl := &Table{}
	p0 := tbl.Add(0)
	p1 := tbl.Add(1)
	p2 := tbl.Add(0)
	assert.Equal([]int{0, 1, 2}, []int{p0.Pid, p1.Pid, p2.Pid})
	assert.Equal(3, tbl.Len())

	pcb, ok := tbl.Get(1)
	assert.True(ok)
	assert.Same(p1, pcb)

	_, ok = tbl.Get(9)
	assert.False(ok)

	p0.Status = TERMINATED
	p1.Status = READY
	p2.Status = RUNNING
	assert.Equal([]*Pcb{p1, p2}, slices.Collect(tbl.Live()))
	assert.Equal([]*Pcb{p0}, slices.Collect(tbl.WithStatus(TERMINATED)))
	assert.Equal([]*Pcb{p0, p1, p2}, slices.Collect(tbl.All()))
}

func TestIds(t *testing.T) {
	assert := assert.New(t)

	ids := &Ids{}
	assert.Equal(0, ids.Next())
	assert.Equal(1, ids.Next())
	assert.Equal(2, ids.Next())
}

func TestStatus_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Ready", READY.String())
	assert.Equal("Status(7)", Status(7).String())
}
