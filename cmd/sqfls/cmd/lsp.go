package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/sqfls/internal/config"
	"github.com/wharflab/sqfls/internal/lspserver"
	"github.com/wharflab/sqfls/internal/tlvm"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Start the Language Server Protocol server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Use stdin/stdout for communication (required)",
				Value: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("stdio") {
				fmt.Fprintln(os.Stderr, "Error: only --stdio transport is supported")
				return cli.Exit("", ExitConfigError)
			}

			logger := log.New(os.Stderr, "sqfls: ", log.LstdFlags)

			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				logger.Printf("failed to load configuration, using defaults: %v", err)
				cfg = config.Default()
			}

			// No Go binding for the SQF VM exists in this module's
			// dependency set; the adapter interface (internal/tlvm) is
			// the seam a real binding would plug into.
			adapter := tlvm.NewFakeAdapter()
			server := lspserver.New(adapter, logger)
			server.ApplyConfig(ctx, cfg)
			return server.RunStdio(ctx)
		},
	}
}
