package forkly_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/forkly"
)

func TestDefaultConfigReadsSlotsFromEnvironment(t *testing.T) {
	t.Setenv(forkly.SlotsEnvKey, "3,worker:/data")
	config := forkly.DefaultConfig()
	assert.Equal(t, "3,worker:/data", config.Slots)
	assert.Equal(t, "ssh", config.RemoteShell)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forkly.yaml")
	document := `slots: "2,worker1:/data"
keepGoing: true
verbose: true
mirror:
  enabled: true
  dir: /src/project
`
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

	config, err := forkly.LoadConfig(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "2,worker1:/data", config.Slots)
	assert.True(t, config.KeepGoing)
	assert.True(t, config.Verbose)
	assert.True(t, config.Mirror.Enabled)
	assert.Equal(t, "/src/project", config.Mirror.Dir)
	// Defaults survive fields the document does not mention.
	assert.Equal(t, "ssh", config.RemoteShell)
}

func TestLoadConfigExpandsEnvReferences(t *testing.T) {
	t.Setenv("FORKLY_TEST_SECRETS", "ssh-keys")
	path := filepath.Join(t.TempDir(), "forkly.yaml")
	document := "secrets: ${env.FORKLY_TEST_SECRETS}\n"
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

	config, err := forkly.LoadConfig(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "ssh-keys", config.Secrets)
}

func TestLoadConfigMissingDocument(t *testing.T) {
	_, err := forkly.LoadConfig(context.Background(), "file:///no/such/forkly.yaml")
	require.ErrorIs(t, err, forkly.ErrInvalidConfig)
	assert.Equal(t, forkly.StatusUsage, forkly.ExitCode(err))
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*forkly.Config)
		expectError bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *forkly.Config) {},
		},
		{
			name:        "empty remote shell",
			mutate:      func(c *forkly.Config) { c.RemoteShell = "" },
			expectError: true,
		},
		{
			name: "mirror without directory",
			mutate: func(c *forkly.Config) {
				c.Mirror.Enabled = true
				c.Mirror.Dir = ""
			},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			config := forkly.DefaultConfig()
			testCase.mutate(config)
			err := config.Validate()
			if testCase.expectError {
				require.ErrorIs(t, err, forkly.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
