// Package main provides the entry point for the LinkAuditor CLI.
//
// LinkAuditor crawls a website, collects every link pointing to an external
// domain, and reports which of those domains are authoritative sources
// (government, education, and similar trusted registries).
//
// Usage:
//
//	linkauditor audit <url>
//	linkauditor audit --json <url>
//
// See --help for all available options.
package main

// main is the entry point for LinkAuditor.
func main() {
	Execute()
}
