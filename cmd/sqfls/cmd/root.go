// Package cmd implements the sqfls command-line surface: a root command
// tree built on urfave/cli/v3 with "lsp" and "version" subcommands.
package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/sqfls/internal/version"
)

// ExitConfigError is returned when startup configuration is invalid.
const ExitConfigError = 2

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "sqfls",
		Usage:   "A language server for SQF",
		Version: version.RawVersion(),
		Description: `sqfls is a language server for SQF, Arma's scripting language.

It analyzes SQF source for undefined-variable references, shadowed
declarations and naming-convention violations, and folds array/code
blocks in supporting editors.

Examples:
  sqfls lsp
  sqfls version`,
		Commands: []*cli.Command{
			lspCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
