package launcher

import (
	"fmt"

	"github.com/viant/forkly/model/slot"
)

// Prime computes every slot's base argv from the command template. Local
// slots run the template verbatim; remote slots run it through the remote
// shell with an optional working-directory change prefixed and every
// template word escaped. Called once, before the first dispatch.
func Prime(table *slot.Table, template []string, remoteShell string) error {
	if len(template) == 0 {
		return fmt.Errorf("empty command template")
	}
	if remoteShell == "" {
		remoteShell = "ssh"
	}
	for _, s := range table.Slots() {
		s.BaseArgv = baseArgv(s, template, remoteShell)
	}
	return nil
}

func baseArgv(s *slot.Slot, template []string, remoteShell string) []string {
	if s.IsLocal() {
		return append([]string(nil), template...)
	}
	argv := make([]string, 0, len(template)+5)
	argv = append(argv, remoteShell, s.Host)
	if s.WorkingDir != "" {
		// The directory is passed unescaped so the remote shell can expand
		// a leading ~ itself.
		argv = append(argv, "cd", s.WorkingDir, ";")
	}
	for _, word := range template {
		argv = append(argv, Escape(word))
	}
	return argv
}

// Argv returns the full command line for one job: the slot's base argv with
// the input line appended, escaped for remote slots.
func Argv(s *slot.Slot, line string) []string {
	argv := make([]string, 0, len(s.BaseArgv)+1)
	argv = append(argv, s.BaseArgv...)
	if s.IsLocal() {
		return append(argv, line)
	}
	return append(argv, Escape(line))
}
