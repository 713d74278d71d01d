package slot

// Kind discriminates where a slot runs its jobs.
type Kind string

const (
	// KindLocal runs jobs as direct children of the invoking process.
	KindLocal Kind = "local"
	// KindRemote runs each job through an independent secure-shell session.
	KindRemote Kind = "remote"
)

// State represents the lifecycle state of a slot. Exactly one state holds at
// any time; StateFaulted is terminal for the run.
type State string

const (
	StateIdle    State = "idle"
	StateBusy    State = "busy"
	StateFaulted State = "faulted"
)

// Handle identifies a running child owned by a busy slot; the launcher
// assigns one per spawn and the reaper uses it to locate the owning slot.
// Zero is never a valid handle.
type Handle uint64

// Descriptor is the expansion product of a single layout entry; one
// descriptor yields one slot.
type Descriptor struct {
	Kind       Kind   `json:"kind"`
	Host       string `json:"host,omitempty"`
	WorkingDir string `json:"workingDir,omitempty"`
}

// IsLocal returns true for descriptors that execute on the invoking machine.
func (d Descriptor) IsLocal() bool {
	return d.Kind == KindLocal
}

// Slot is a single execution seat in the dispatch table.
type Slot struct {
	// Index is the slot's position in the table and its dispatch priority;
	// lower indices are preferred. Immutable after build.
	Index      int    `json:"index"`
	Kind       Kind   `json:"kind"`
	Host       string `json:"host,omitempty"`
	WorkingDir string `json:"workingDir,omitempty"`

	// BaseArgv is the per-slot command prefix computed once before the first
	// dispatch: the command template verbatim for local slots, the secure
	// shell invocation with escaped template words for remote ones.
	BaseArgv []string `json:"-"`

	State State `json:"state"`

	// Handle and Line are meaningful only while the slot is busy.
	Handle Handle `json:"-"`
	Line   string `json:"line,omitempty"`
}

// IsLocal returns true when the slot executes on the invoking machine.
func (s *Slot) IsLocal() bool {
	return s.Kind == KindLocal
}

// Location names the slot's execution target for diagnostics.
func (s *Slot) Location() string {
	if s.IsLocal() {
		return "local"
	}
	return s.Host
}
