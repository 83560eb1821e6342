package memory

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// Manager assigns sections of memory to programs. Each section is either
// free or owned by exactly one process image.
type Manager struct {
	Memory *Memory

	owned []bool
}

// NewManager creates a section allocator over mem, with all sections free.
func NewManager(mem *Memory) *Manager {
	return &Manager{
		Memory: mem,
		owned:  make([]bool, mem.Sections()),
	}
}

// Allocate copies a program image into the lowest free section, zero
// filling the rest of the section.
func (mm *Manager) Allocate(program []uint8) (section int, err error) {
	if len(program) > SECTION_SIZE {
		err = ErrProgramTooLarge
		return
	}

	section = slices.Index(mm.owned, false)
	if section < 0 {
		err = ErrNoSpace
		return
	}

	base := Translate(0, section)
	window := mm.Memory.Data[base : base+SECTION_SIZE]
	clear(window)
	copy(window, program)

	mm.owned[section] = true

	log.WithField("section", section).Debugf("memory: allocated %d bytes", len(program))

	return
}

// Deallocate marks a section free. Freeing a free section is an error.
func (mm *Manager) Deallocate(section int) (err error) {
	if section < 0 || section >= len(mm.owned) {
		err = ErrSectionInvalid
		return
	}

	if !mm.owned[section] {
		err = ErrSectionFree
		return
	}

	mm.owned[section] = false

	log.WithField("section", section).Debug("memory: released")

	return
}

// Owned returns true if the section is assigned to a process.
func (mm *Manager) Owned(section int) bool {
	if section < 0 || section >= len(mm.owned) {
		return false
	}
	return mm.owned[section]
}

// Free is the number of unassigned sections.
func (mm *Manager) Free() (count int) {
	for _, owned := range mm.owned {
		if !owned {
			count++
		}
	}
	return
}

// Clear zeros all of memory. Not permitted while any section is owned.
func (mm *Manager) Clear() (err error) {
	if slices.Contains(mm.owned, true) {
		err = ErrSectionInUse
		return
	}

	mm.Memory.Reset()
	return
}

// Dump returns a copy of a section's bytes.
func (mm *Manager) Dump(section int) (blob []uint8, err error) {
	if section < 0 || section >= len(mm.owned) {
		err = ErrSectionInvalid
		return
	}

	base := Translate(0, section)
	blob = slices.Clone(mm.Memory.Data[base : base+SECTION_SIZE])
	return
}
