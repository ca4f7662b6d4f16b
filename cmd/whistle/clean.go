package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"whistle/internal/project"
)

func newCleanCmd() *cobra.Command {
	var dropCache bool
	cmd := &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove build outputs (target directory)",
		Long:  `Remove the target directory of the project containing path. With --cache the shared artifact cache is emptied too.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "."
			if len(args) > 0 && args[0] != "" {
				base = args[0]
			}
			if err := runClean(cmd, base); err != nil {
				return err
			}
			if dropCache {
				return cleanCache(cmd)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropCache, "cache", false, "also empty the artifact cache")
	cmd.Flags().String("cache-dir", "", "artifact cache directory (default: $XDG_CACHE_HOME/whistle)")
	return cmd
}

func runClean(cmd *cobra.Command, base string) error {
	root, err := resolveCleanBase(base)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	quiet := settingsFrom(cmd).Quiet
	targetDir := filepath.Join(root, project.TargetDirName)
	info, err := os.Stat(targetDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !quiet {
				fmt.Fprintln(out, "target directory not found")
			}
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", targetDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", targetDir)
	}
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", targetDir, err)
	}
	if !quiet {
		fmt.Fprintf(out, "removed %s\n", targetDir)
	}
	return nil
}

// resolveCleanBase prefers the manifest root governing base and falls
// back to base itself.
func resolveCleanBase(base string) (string, error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	path, ok, err := project.FindManifest(base)
	if err != nil {
		return "", err
	}
	if ok {
		return filepath.Dir(path), nil
	}
	return filepath.Abs(base)
}

func cleanCache(cmd *cobra.Command) error {
	s := settingsFrom(cmd)
	s.NoCache = false
	store, err := openCache(s)
	if err != nil {
		return err
	}
	if err := store.DropAll(); err != nil {
		return fmt.Errorf("failed to empty cache %q: %w", store.Dir(), err)
	}
	if !s.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "emptied cache %s\n", store.Dir())
	}
	return nil
}

