package main

import (
	"errors"

	"github.com/spf13/cobra"

	"whistle/internal/config"
	"whistle/internal/lsp"
	"whistle/internal/session"
	"whistle/internal/version"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := settingsFrom(cmd)
			server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.ServerOptions{
				Store:          session.NewStore(nil),
				Logger:         config.Logger(ctx).With("component", "lsp"),
				MaxDiagnostics: s.MaxDiagnostics,
				Version:        version.Version,
			})
			err := server.Run(ctx)
			switch {
			case errors.Is(err, lsp.ErrExit):
				return nil
			case errors.Is(err, lsp.ErrExitWithoutShutdown):
				return &exitCodeError{code: 1}
			}
			return err
		},
	}
}

