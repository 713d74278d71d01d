// Package mirror keeps slot working directories in step with a local source
// tree. It is a best-effort bracket around a run: a push of the source tree
// to every remote working directory before dispatch starts, and a pull of
// whatever the jobs produced once dispatch finishes. Files are overwritten,
// never deleted.
package mirror

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/forkly/model/slot"
)

// Destination identifies one remote tree the source is mirrored against.
// Slots sharing a host and working directory collapse into a single
// destination.
type Destination struct {
	Host string
	Dir  string
}

// String returns the host:directory form used in diagnostics.
func (d Destination) String() string {
	return d.Host + ":" + d.Dir
}

// PreconditionError reports a slot layout unfit for mirroring. It is a
// configuration fault, raised before any copy starts.
type PreconditionError struct {
	Message string
}

// Error implements error.
func (e *PreconditionError) Error() string {
	return "mirror: " + e.Message
}

// Service mirrors a local source tree to and from slot working directories.
type Service struct {
	fs      afs.Service
	source  string
	resolve Resolver
	logger  *log.Logger
}

// Option customises the mirror service.
type Option func(*Service)

// WithFileService overrides the storage service.
func WithFileService(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithResolver overrides how destinations are mapped to storage URLs.
func WithResolver(resolver Resolver) Option {
	return func(s *Service) {
		s.resolve = resolver
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a mirror service for the given local source tree; an empty
// source means the current directory.
func New(source string, options ...Option) *Service {
	srv := &Service{source: source}
	for _, option := range options {
		option(srv)
	}
	if srv.source == "" {
		srv.source = "."
	}
	if !strings.Contains(srv.source, "://") {
		if abs, err := filepath.Abs(srv.source); err == nil {
			srv.source = abs
		}
	}
	if srv.fs == nil {
		srv.fs = afs.New()
	}
	if srv.resolve == nil {
		srv.resolve = NewSCPResolver("")
	}
	if srv.logger == nil {
		srv.logger = log.Default()
	}
	return srv
}

// Validate checks the table against the mirroring preconditions: every slot
// declares a working directory and every remote working directory is an
// absolute path. The returned error is a *PreconditionError naming the first
// offending slot.
func (s *Service) Validate(table *slot.Table) error {
	for _, aSlot := range table.Slots() {
		if aSlot.WorkingDir == "" {
			return &PreconditionError{Message: fmt.Sprintf("slot %d (%s) declares no working directory", aSlot.Index, aSlot.Location())}
		}
		if aSlot.IsLocal() {
			continue
		}
		if !strings.HasPrefix(aSlot.WorkingDir, "/") {
			return &PreconditionError{Message: fmt.Sprintf("slot %d (%s): remote working directory %q is not absolute", aSlot.Index, aSlot.Location(), aSlot.WorkingDir)}
		}
	}
	return nil
}

// destinations collapses remote slots into unique host and directory pairs,
// ordered by first appearance. Faulted slots are excluded; local slots
// already share the filesystem with the source tree.
func destinations(table *slot.Table) []Destination {
	var result []Destination
	seen := map[Destination]bool{}
	for _, aSlot := range table.Slots() {
		if aSlot.IsLocal() || aSlot.State == slot.StateFaulted {
			continue
		}
		dest := Destination{Host: aSlot.Host, Dir: aSlot.WorkingDir}
		if seen[dest] {
			continue
		}
		seen[dest] = true
		result = append(result, dest)
	}
	return result
}
