package sched

import (
	"iter"
	"slices"

	"github.com/ezrec/pulseos/process"
)

// Queue is the ready queue. Its head is the process that owns, or is next
// to own, the live register file.
type Queue struct {
	pcbs []*process.Pcb
}

// Enqueue appends a process at the tail.
func (q *Queue) Enqueue(pcb *process.Pcb) {
	q.pcbs = append(q.pcbs, pcb)
}

// Dequeue removes and returns the head.
func (q *Queue) Dequeue() (pcb *process.Pcb, ok bool) {
	if len(q.pcbs) == 0 {
		return
	}

	pcb = q.pcbs[0]
	q.pcbs = slices.Delete(q.pcbs, 0, 1)
	ok = true
	return
}

// Head returns the head without removing it.
func (q *Queue) Head() (pcb *process.Pcb, ok bool) {
	if len(q.pcbs) == 0 {
		return
	}
	return q.pcbs[0], true
}

// Len is the number of queued processes.
func (q *Queue) Len() int {
	return len(q.pcbs)
}

// Remove takes a process out of the queue wherever it is, preserving the
// order of the others.
func (q *Queue) Remove(pcb *process.Pcb) (ok bool) {
	index := slices.Index(q.pcbs, pcb)
	if index < 0 {
		return
	}

	q.pcbs = slices.Delete(q.pcbs, index, index+1)
	ok = true
	return
}

// All iterates the queue from head to tail.
func (q *Queue) All() iter.Seq[*process.Pcb] {
	return slices.Values(q.pcbs)
}
