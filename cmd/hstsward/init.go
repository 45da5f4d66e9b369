package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Creates a default configuration file at ~/.hstsward/config.yaml.

The default config listens on localhost and exempts local and
test-only hostnames from enforcement. The known-hosts database
defaults to the XDG data directory unless overridden here.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const defaultConfig = `# Hstsward configuration
# See: https://github.com/seslattery/hstsward

proxy:
  # Address the enforcing proxy listens on
  listen: "127.0.0.1:8808"

  # Known-hosts database file. Defaults to the XDG data directory
  # (e.g. ~/.local/share/hstsward/known_hosts) when unset.
  # database: /path/to/known_hosts

policy:
  # Hosts never upgraded to HTTPS and never learned from, as glob
  # patterns. Local and test-only names rarely carry real certificates.
  exclude:
    - "localhost"
    - "*.localhost"
    - "*.local"
    - "*.test"
`

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}

	configDir := filepath.Join(home, ".hstsward")
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	// Create directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Created config at %s\n", configPath)
	return nil
}
