package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateServerConfig(t *testing.T) {
	t.Parallel()

	config := generateServerConfig()
	servers, ok := config["mcpServers"].(map[string]any)
	require.True(t, ok)

	coderef, ok := servers["coderef"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "coderef", coderef["command"])
	assert.Equal(t, []string{"serve", "--watch"}, coderef["args"])
}

func TestSetupCmd_WritesLocalConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cmd := &SetupCmd{Qwen: true, Local: true, Format: "json", FilePath: dir}
	require.NoError(t, cmd.Run())

	data, err := os.ReadFile(filepath.Join(dir, "mcp.json"))
	require.NoError(t, err)

	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	assert.Contains(t, config, "mcpServers")
}

func TestSetupCmd_DefaultOutputsToStdout(t *testing.T) {
	t.Parallel()

	// No client selected: prints the config instead of writing files.
	cmd := &SetupCmd{Format: "json"}
	require.NoError(t, cmd.Run())
}

func TestWriteConfig_TextFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "mcp.txt")
	require.NoError(t, writeConfig(path, generateServerConfig(), "text"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mcpServers:")
}

func TestGetClientConfigDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".qwen", getClientConfigDir("qwen"))
	assert.Equal(t, ".claude", getClientConfigDir("claude"))
	assert.Equal(t, ".cursor", getClientConfigDir("cursor"))
	assert.Equal(t, ".qwen", getClientConfigDir("unknown"))
}
