package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the coverletter application
var rootCmd = &cobra.Command{
	Use:   "coverletter",
	Short: "Generates tailored cover letters from a Google Docs template",
	Long: `coverletter writes a cover letter body for a role at a company, fills a
copy of your Google Docs template with it and saves the result as PDF.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "coverletter version %s\n" .Version}}`)

	// If no subcommand is provided, run the generate command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "generate")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
