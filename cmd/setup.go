package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|text)" enum:"json,text" default:"json"`
	FilePath string `help:"Custom file path for configuration"`
}

// Run executes the setup command.
func (c *SetupCmd) Run() error {
	// If no specific client is specified, output config to stdout
	if !c.Qwen && !c.Claude && !c.Cursor {
		return c.outputDefaultConfig()
	}

	// If neither local nor global is specified, default to local
	if !c.Local && !c.Global {
		c.Local = true
	}

	clients := []struct {
		enabled  bool
		name     string
		fileName string
	}{
		{c.Qwen, "qwen", "mcp.json"},
		{c.Claude, "claude", "settings.json"},
		{c.Cursor, "cursor", "mcp.json"},
	}

	config := generateServerConfig()
	for _, client := range clients {
		if !client.enabled {
			continue
		}

		if c.Global {
			globalPath := getGlobalConfigPath(client.name)
			if err := writeConfig(globalPath, config, c.Format); err != nil {
				return err
			}
			color.Green("✓ Created global %s MCP config at %s", client.name, globalPath)
		}

		if c.Local {
			localPath := getLocalConfigPath(".", client.name)
			if c.FilePath != "" {
				localPath = filepath.Join(c.FilePath, client.fileName)
			}
			if err := writeConfig(localPath, config, c.Format); err != nil {
				return err
			}
			color.Green("✓ Created local %s MCP config at %s", client.name, localPath)
		}
	}

	return nil
}

func (c *SetupCmd) outputDefaultConfig() error {
	config := generateServerConfig()

	if c.Format == "json" {
		jsonBytes, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Println("# Add this to your MCP client configuration:")
	fmt.Println()
	for key, value := range config {
		fmt.Printf("%s: %s\n", key, toJSON(value))
	}
	return nil
}

func generateServerConfig() map[string]any {
	return map[string]any{
		"mcpServers": map[string]any{
			"coderef": map[string]any{
				"command": "coderef",
				"args":    []string{"serve", "--watch"},
			},
		},
	}
}

// Path helpers

func getLocalConfigPath(basePath, client string) string {
	return filepath.Join(basePath, getClientConfigDir(client), "mcp.json")
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}

	return filepath.Join(homeDir, getClientConfigDir(client), "global", "mcp.json")
}

func getClientConfigDir(client string) string {
	switch client {
	case "qwen":
		return ".qwen"
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

// writeConfig writes the configuration to the given path.
func writeConfig(configPath string, config map[string]any, format string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var content []byte

	if format == "json" {
		jsonBytes, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		content = append(jsonBytes, '\n')
	} else {
		var sb strings.Builder
		sb.WriteString("# MCP Configuration for Coderef\n")
		sb.WriteString("# Generated by coderef setup\n\n")
		for key, value := range config {
			sb.WriteString(fmt.Sprintf("%s: %s\n", key, toJSON(value)))
		}
		content = []byte(sb.String())
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
