package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"whistle/internal/project"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a whistle project",
		Long:  `Write whistle.toml and a hello-world main.wh into dir (default: current directory).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 && args[0] != "" {
				dir = args[0]
			}
			res, err := project.Init(dir)
			if err != nil {
				return err
			}
			if settingsFrom(cmd).Quiet {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized project %q in %s\n", res.Name, res.Root)
			if !res.CreatedMain {
				fmt.Fprintln(cmd.OutOrStdout(), "kept existing main.wh")
			}
			return nil
		},
	}
}
