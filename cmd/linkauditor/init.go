package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/linkauditor.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new LinkAuditor configuration file",
		Long: `Initialize creates a new .linkauditor configuration file in the current directory.

The generated file includes:
- Default settings for the page budget, request delay, and timeout
- Commented examples for customizing the authority classification rules
- Documentation for all available options

Examples:
  # Create .linkauditor in current directory
  linkauditor init

  # Create config file at a specific path
  linkauditor init -o myconfig.yaml

  # Force overwrite existing file
  linkauditor init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/linkauditor.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to adjust settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Page budget and request delay")
	fmt.Fprintln(cmd.OutOrStdout(), "  - User-Agent header")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Authority classification rules")

	return nil
}
