package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/forkly/model/slot"
)

func TestPrime(t *testing.T) {
	table := slot.NewTable([]slot.Descriptor{
		{Kind: slot.KindLocal},
		{Kind: slot.KindLocal, WorkingDir: "/tmp/scratch"},
		{Kind: slot.KindRemote, Host: "alpha"},
		{Kind: slot.KindRemote, Host: "beta", WorkingDir: "~/build dir"},
	})

	err := Prime(table, []string{"grep", "-n", "magic word"}, "ssh")
	assert.NoError(t, err)

	slots := table.Slots()
	assert.Equal(t, []string{"grep", "-n", "magic word"}, slots[0].BaseArgv)
	// Local working directories affect Dir, not argv.
	assert.Equal(t, []string{"grep", "-n", "magic word"}, slots[1].BaseArgv)
	assert.Equal(t, []string{"ssh", "alpha", "grep", "-n", `magic\ word`}, slots[2].BaseArgv)
	assert.Equal(t, []string{"ssh", "beta", "cd", "~/build dir", ";", "grep", "-n", `magic\ word`}, slots[3].BaseArgv)
}

func TestPrimeEmptyTemplate(t *testing.T) {
	table := slot.NewTable([]slot.Descriptor{{Kind: slot.KindLocal}})
	assert.Error(t, Prime(table, nil, "ssh"))
}

func TestArgv(t *testing.T) {
	table := slot.NewTable([]slot.Descriptor{
		{Kind: slot.KindLocal},
		{Kind: slot.KindRemote, Host: "alpha", WorkingDir: "/srv/work"},
	})
	assert.NoError(t, Prime(table, []string{"wc", "-l"}, "ssh"))

	local := table.Slots()[0]
	remote := table.Slots()[1]

	// Local lines are appended verbatim, untouched.
	assert.Equal(t, []string{"wc", "-l", "report final.txt"}, Argv(local, "report final.txt"))

	// Remote lines are escaped like every other remote word.
	assert.Equal(t,
		[]string{"ssh", "alpha", "cd", "/srv/work", ";", "wc", "-l", `report\ final.txt`},
		Argv(remote, "report final.txt"))

	// The base argv is not mutated by building a job argv.
	assert.Equal(t, []string{"wc", "-l"}, local.BaseArgv)
	assert.Equal(t, []string{"ssh", "alpha", "cd", "/srv/work", ";", "wc", "-l"}, remote.BaseArgv)
}

func TestArgvEmptyLine(t *testing.T) {
	table := slot.NewTable([]slot.Descriptor{
		{Kind: slot.KindLocal},
		{Kind: slot.KindRemote, Host: "alpha"},
	})
	assert.NoError(t, Prime(table, []string{"echo"}, "ssh"))

	assert.Equal(t, []string{"echo", ""}, Argv(table.Slots()[0], ""))
	assert.Equal(t, []string{"ssh", "alpha", "echo", "''"}, Argv(table.Slots()[1], ""))
}

func TestPrimeDefaultRemoteShell(t *testing.T) {
	table := slot.NewTable([]slot.Descriptor{{Kind: slot.KindRemote, Host: "alpha"}})
	assert.NoError(t, Prime(table, []string{"true"}, ""))
	assert.Equal(t, []string{"ssh", "alpha", "true"}, table.Slots()[0].BaseArgv)
}
