package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"mode", "look-ahead", "requests", "seed"} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}
}

func TestRunText(t *testing.T) {
	path := writeConfig(t, "requests: 200\nlook_ahead: 3\n")

	stdout, stderr, err := execute(t, "run", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "levels visited:")
	assert.Contains(t, stdout, "200 pushed, 200 pulled")
	assert.Empty(t, stderr)
}

func TestRunJSON(t *testing.T) {
	stdout, _, err := execute(t, "run",
		"--format", "json",
		"--requests", "300",
		"--look-ahead", "2",
		"--mode", "external")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Pushed int `json:"pushed"`
			Pulled int `json:"pulled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 300, resp.Data.Pushed)
	assert.Equal(t, 300, resp.Data.Pulled)
}

func TestRunVerbose(t *testing.T) {
	_, stderr, err := execute(t, "run", "-v", "--requests", "50")
	require.NoError(t, err)
	assert.Contains(t, stderr, "sweeping 32 levels")
	assert.Contains(t, stderr, `"component":"sim"`)
}

func TestRunInvalidMode(t *testing.T) {
	stdout, _, err := execute(t, "run", "--mode", "disk", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
}
