package launcher

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/forkly/model/slot"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func localSlot(index int, argv ...string) *slot.Slot {
	return &slot.Slot{Index: index, Kind: slot.KindLocal, State: slot.StateBusy, BaseArgv: argv}
}

func TestSpawnReportsExitStatus(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	type testCase struct {
		name   string
		argv   []string
		status int
	}

	tests := []testCase{
		{name: "success", argv: []string{"sh", "-c", "exit 0"}, status: 0},
		{name: "failure", argv: []string{"sh", "-c", "exit 3"}, status: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := New(1, WithLogger(log.New(io.Discard, "", 0)))
			handle, err := service.Spawn(ctx, localSlot(0, tc.argv...), "ignored")
			require.NoError(t, err)
			require.NotZero(t, handle)

			completion, err := service.AwaitAny(ctx)
			require.NoError(t, err)
			assert.Equal(t, handle, completion.Handle)
			assert.Equal(t, tc.status, completion.Status)
			assert.Equal(t, 0, service.Live())
		})
	}
}

func TestSpawnFailureIsSynthesized(t *testing.T) {
	ctx := context.Background()
	service := New(1, WithLogger(log.New(io.Discard, "", 0)))

	handle, err := service.Spawn(ctx, localSlot(0, "/nonexistent/forkly-no-such-binary"), "line")
	require.NoError(t, err)

	completion, err := service.AwaitAny(ctx)
	require.NoError(t, err)
	assert.Equal(t, handle, completion.Handle)
	assert.Equal(t, StatusSpawnFailure, completion.Status)
	assert.Equal(t, 0, service.Live())
}

func TestSpawnPassesLineAsFinalArgument(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	var out bytes.Buffer
	service := New(1, WithStdout(&out), WithLogger(log.New(io.Discard, "", 0)))

	// sh -c 'printf %s "$0"' receives the appended line as $0.
	handle, err := service.Spawn(ctx, localSlot(0, "sh", "-c", `printf %s "$0"`), "the payload line")
	require.NoError(t, err)

	completion, err := service.AwaitAny(ctx)
	require.NoError(t, err)
	assert.Equal(t, handle, completion.Handle)
	assert.Equal(t, 0, completion.Status)
	assert.Equal(t, "the payload line", out.String())
}

func TestSpawnWorkingDirectory(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	dir := t.TempDir()

	var out bytes.Buffer
	service := New(1, WithStdout(&out), WithLogger(log.New(io.Discard, "", 0)))

	aSlot := localSlot(0, "sh", "-c", "pwd")
	aSlot.WorkingDir = dir
	_, err := service.Spawn(ctx, aSlot, "ignored")
	require.NoError(t, err)

	completion, err := service.AwaitAny(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, completion.Status)
	assert.Equal(t, dir+"\n", out.String())

	// The parent's working directory is untouched.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.NotEqual(t, dir, cwd)
}

func TestAwaitAnyReturnsInCompletionOrder(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	service := New(2, WithLogger(log.New(io.Discard, "", 0)))

	slow, err := service.Spawn(ctx, localSlot(0, "sh", "-c", "sleep 0.4"), "")
	require.NoError(t, err)
	fast, err := service.Spawn(ctx, localSlot(1, "sh", "-c", "exit 0"), "")
	require.NoError(t, err)

	first, err := service.AwaitAny(ctx)
	require.NoError(t, err)
	assert.Equal(t, fast, first.Handle)

	second, err := service.AwaitAny(ctx)
	require.NoError(t, err)
	assert.Equal(t, slow, second.Handle)
}

func TestAwaitAnyHonoursContext(t *testing.T) {
	service := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := service.AwaitAny(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSignalAll(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	service := New(2, WithLogger(log.New(io.Discard, "", 0)))

	_, err := service.Spawn(ctx, localSlot(0, "sh", "-c", "sleep 30"), "")
	require.NoError(t, err)
	_, err = service.Spawn(ctx, localSlot(1, "sh", "-c", "sleep 30"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, service.Live())

	signalled := service.SignalAll(os.Kill)
	assert.Equal(t, 2, signalled)

	for i := 0; i < 2; i++ {
		completion, err := service.AwaitAny(ctx)
		require.NoError(t, err)
		// Killed children report abnormal termination.
		assert.Equal(t, -1, completion.Status)
	}
	assert.Equal(t, 0, service.Live())
}
