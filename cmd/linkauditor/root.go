// Package main provides the entry point for the LinkAuditor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for LinkAuditor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkauditor",
		Short: "External link auditor for websites",
		Long: `LinkAuditor crawls a website and audits every link that points to an
external domain. Each destination domain is classified as an authority
(government, education, and similar trusted registries) or not, so you can
see at a glance where a site sends its visitors.

The crawler stays on the audited site, seeds itself from sitemap.xml when
available, and honors robots.txt by default.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
