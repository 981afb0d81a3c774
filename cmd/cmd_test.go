package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	versionFormat = "text"
	versionShort = true
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Contains(t, payload, "version")
	assert.Contains(t, payload, "go_version")
}

func TestVersionCommand_BadFormat(t *testing.T) {
	_, err := execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestComponentsCommand(t *testing.T) {
	out, err := execute(t, "components", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "App")
	assert.Contains(t, out, "Counter")
	assert.Contains(t, out, "TaskList")
}

func TestComponentsCommand_JSON(t *testing.T) {
	out, err := execute(t, "components", "--format", "json")
	require.NoError(t, err)

	var infos []struct {
		Name   string   `json:"name"`
		Params []string `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.NotEmpty(t, infos)
	assert.Equal(t, "App", infos[0].Name)
}
