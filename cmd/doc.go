// Package cmd implements the command-line interface for coverletter.
//
// This package provides the following commands:
//   - generate: Write a cover letter for a role and company and save it as PDF
//   - login: Authorize Google Drive and Docs access and store the credential
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The generate command is the default command when no subcommand is specified.
package cmd
