package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDescriptors() []Descriptor {
	return []Descriptor{
		{Kind: KindLocal},
		{Kind: KindRemote, Host: "alpha", WorkingDir: "/srv/work"},
		{Kind: KindRemote, Host: "beta"},
		{Kind: KindLocal, WorkingDir: "/tmp"},
	}
}

func TestNewTable(t *testing.T) {
	table := NewTable(testDescriptors())
	assert.Equal(t, 4, table.Len())
	for i, s := range table.Slots() {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, StateIdle, s.State)
	}
	assert.Equal(t, "alpha", table.Slots()[1].Host)
	assert.Equal(t, "/srv/work", table.Slots()[1].WorkingDir)
	assert.True(t, table.HasCapacity())
	assert.False(t, table.AllFaulted())
}

func TestTableFirstIdlePriority(t *testing.T) {
	table := NewTable(testDescriptors())

	// Lowest index wins.
	s := table.FirstIdle()
	assert.Equal(t, 0, s.Index)
	assert.NoError(t, table.MarkBusy(0, Handle(10), "one"))

	s = table.FirstIdle()
	assert.Equal(t, 1, s.Index)
	assert.NoError(t, table.MarkBusy(1, Handle(11), "two"))

	// Releasing slot 0 makes it preferred again over idle slots 2 and 3.
	assert.NoError(t, table.MarkIdle(0))
	s = table.FirstIdle()
	assert.Equal(t, 0, s.Index)
}

func TestTableTransitions(t *testing.T) {
	type testCase struct {
		name    string
		prepare func(t *Table)
		run     func(t *Table) error
		wantErr bool
	}

	tests := []testCase{
		{
			name:    "busy from idle",
			run:     func(tb *Table) error { return tb.MarkBusy(0, Handle(1), "x") },
			wantErr: false,
		},
		{
			name: "busy from busy",
			prepare: func(tb *Table) {
				_ = tb.MarkBusy(0, Handle(1), "x")
			},
			run:     func(tb *Table) error { return tb.MarkBusy(0, Handle(2), "y") },
			wantErr: true,
		},
		{
			name:    "idle from idle",
			run:     func(tb *Table) error { return tb.MarkIdle(0) },
			wantErr: true,
		},
		{
			name: "idle from faulted",
			prepare: func(tb *Table) {
				_ = tb.MarkFaulted(0)
			},
			run:     func(tb *Table) error { return tb.MarkIdle(0) },
			wantErr: true,
		},
		{
			name: "busy from faulted",
			prepare: func(tb *Table) {
				_ = tb.MarkFaulted(0)
			},
			run:     func(tb *Table) error { return tb.MarkBusy(0, Handle(1), "x") },
			wantErr: true,
		},
		{
			name: "fault a busy slot",
			prepare: func(tb *Table) {
				_ = tb.MarkBusy(0, Handle(1), "x")
			},
			run:     func(tb *Table) error { return tb.MarkFaulted(0) },
			wantErr: true,
		},
		{
			name:    "fault idempotent on faulted",
			prepare: func(tb *Table) { _ = tb.MarkFaulted(0) },
			run:     func(tb *Table) error { return tb.MarkFaulted(0) },
			wantErr: false,
		},
		{
			name:    "zero handle rejected",
			run:     func(tb *Table) error { return tb.MarkBusy(0, 0, "x") },
			wantErr: true,
		},
		{
			name:    "index out of range",
			run:     func(tb *Table) error { return tb.MarkBusy(9, Handle(1), "x") },
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table := NewTable(testDescriptors())
			if tc.prepare != nil {
				tc.prepare(table)
			}
			err := tc.run(table)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTableCounts(t *testing.T) {
	table := NewTable(testDescriptors())
	assert.NoError(t, table.MarkBusy(0, Handle(1), "a"))
	assert.NoError(t, table.MarkFaulted(2))

	assert.Equal(t, 1, table.BusyCount())
	assert.Equal(t, 1, table.FaultedCount())
	assert.True(t, table.HasCapacity())

	assert.NoError(t, table.MarkBusy(1, Handle(2), "b"))
	assert.NoError(t, table.MarkBusy(3, Handle(3), "c"))
	assert.False(t, table.HasCapacity())

	// Busy and faulted release differently: only reaping frees capacity.
	assert.NoError(t, table.MarkIdle(1))
	assert.True(t, table.HasCapacity())
}

func TestTableFindByHandle(t *testing.T) {
	table := NewTable(testDescriptors())
	assert.NoError(t, table.MarkBusy(2, Handle(77), "payload"))

	s := table.FindByHandle(Handle(77))
	if assert.NotNil(t, s) {
		assert.Equal(t, 2, s.Index)
		assert.Equal(t, "payload", s.Line)
	}
	assert.Nil(t, table.FindByHandle(Handle(1234)))

	// A released handle no longer resolves.
	assert.NoError(t, table.MarkIdle(2))
	assert.Nil(t, table.FindByHandle(Handle(77)))
}

func TestTableAllFaulted(t *testing.T) {
	table := NewTable([]Descriptor{
		{Kind: KindRemote, Host: "alpha"},
		{Kind: KindRemote, Host: "alpha"},
	})
	assert.NoError(t, table.MarkFaulted(0))
	assert.False(t, table.AllFaulted())
	assert.NoError(t, table.MarkFaulted(1))
	assert.True(t, table.AllFaulted())
	assert.False(t, table.HasCapacity())
}
