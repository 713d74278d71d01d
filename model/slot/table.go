package slot

import "fmt"

// Table is the ordered set of slots for a run. Membership and order are
// fixed at build time; only per-slot state changes afterwards. The table is
// not synchronized: a single dispatcher goroutine owns it.
type Table struct {
	slots []*Slot
}

// NewTable builds a table from descriptors, preserving their order as slot
// order. Every slot starts idle.
func NewTable(descriptors []Descriptor) *Table {
	slots := make([]*Slot, 0, len(descriptors))
	for i, desc := range descriptors {
		slots = append(slots, &Slot{
			Index:      i,
			Kind:       desc.Kind,
			Host:       desc.Host,
			WorkingDir: desc.WorkingDir,
			State:      StateIdle,
		})
	}
	return &Table{slots: slots}
}

// Len returns the number of slots.
func (t *Table) Len() int {
	return len(t.slots)
}

// Slots returns the backing slice for iteration; callers must not reorder it.
func (t *Table) Slots() []*Slot {
	return t.slots
}

// At returns the slot at the given index.
func (t *Table) At(index int) (*Slot, error) {
	if index < 0 || index >= len(t.slots) {
		return nil, fmt.Errorf("slot index %d out of range [0..%d)", index, len(t.slots))
	}
	return t.slots[index], nil
}

// FirstIdle returns the idle slot with the lowest index, or nil when none is
// idle.
func (t *Table) FirstIdle() *Slot {
	for _, s := range t.slots {
		if s.State == StateIdle {
			return s
		}
	}
	return nil
}

// MarkBusy transitions an idle slot to busy, recording the child handle and
// the input line it is processing. Transitioning a non-idle slot indicates a
// dispatcher defect and is reported as an error.
func (t *Table) MarkBusy(index int, handle Handle, line string) error {
	s, err := t.At(index)
	if err != nil {
		return err
	}
	if s.State != StateIdle {
		return fmt.Errorf("slot %d: cannot mark busy while %v", index, s.State)
	}
	if handle == 0 {
		return fmt.Errorf("slot %d: zero handle", index)
	}
	s.State = StateBusy
	s.Handle = handle
	s.Line = line
	return nil
}

// MarkIdle releases a busy slot after its child has been reaped.
func (t *Table) MarkIdle(index int) error {
	s, err := t.At(index)
	if err != nil {
		return err
	}
	if s.State != StateBusy {
		return fmt.Errorf("slot %d: cannot mark idle while %v", index, s.State)
	}
	s.State = StateIdle
	s.Handle = 0
	s.Line = ""
	return nil
}

// MarkFaulted removes a slot from dispatch for the remainder of the run.
// Faulted slots keep their table position and still count against capacity.
func (t *Table) MarkFaulted(index int) error {
	s, err := t.At(index)
	if err != nil {
		return err
	}
	if s.State == StateBusy {
		return fmt.Errorf("slot %d: cannot fault a busy slot", index)
	}
	s.State = StateFaulted
	return nil
}

// FindByHandle locates the busy slot owning the given child handle, or nil
// when no slot owns it. Lookup is a linear scan; tables are small.
func (t *Table) FindByHandle(handle Handle) *Slot {
	for _, s := range t.slots {
		if s.State == StateBusy && s.Handle == handle {
			return s
		}
	}
	return nil
}

// BusyCount returns the number of busy slots.
func (t *Table) BusyCount() int {
	return t.count(StateBusy)
}

// FaultedCount returns the number of faulted slots.
func (t *Table) FaultedCount() int {
	return t.count(StateFaulted)
}

// HasCapacity reports whether at least one slot is idle.
func (t *Table) HasCapacity() bool {
	return t.BusyCount()+t.FaultedCount() < len(t.slots)
}

// AllFaulted reports whether no slot can ever accept a job.
func (t *Table) AllFaulted() bool {
	return len(t.slots) > 0 && t.FaultedCount() == len(t.slots)
}

func (t *Table) count(state State) int {
	n := 0
	for _, s := range t.slots {
		if s.State == state {
			n++
		}
	}
	return n
}
