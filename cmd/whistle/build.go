package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"whistle/internal/buildpipeline"
	"whistle/internal/cache"
	"whistle/internal/config"
	"whistle/internal/observ"
	"whistle/internal/project"
	"whistle/internal/source"
	"whistle/internal/version"
)

func newBuildCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "build [flags] [dir]",
		Short: "Build the project described by whistle.toml",
		Long:  `Find whistle.toml in dir or its parents, compile [package].path and write target/<name>.wasm.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runBuild(cmd, dir, text)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "write the text format (.wat) instead of a binary module")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("no-cache", false, "always recompile")
	cmd.Flags().String("cache-dir", "", "artifact cache directory (default: $XDG_CACHE_HOME/whistle)")
	return cmd
}

func runBuild(cmd *cobra.Command, dir string, text bool) error {
	ctx := cmd.Context()
	s := settingsFrom(cmd)
	logger := config.Logger(ctx)

	manifest, err := project.Load(dir)
	if err != nil {
		return err
	}
	unit, err := source.ReadUnit(manifest.EntryPath())
	if err != nil {
		return err
	}
	store, err := openCache(s)
	if err != nil {
		logger.Warn("artifact cache disabled", "err", err)
	}

	var timer *observ.Timer
	if s.Timings {
		timer = observ.NewTimer()
	}
	req := &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{
			Unit:   unit,
			Timer:  timer,
			Logger: logger,
		},
		OutputPath:  manifest.OutputPath(text),
		Cache:       store,
		ToolVersion: version.Version,
	}

	var res buildpipeline.BuildResult
	if !s.Quiet && s.UI.Resolve(func() bool { return isTerminal(os.Stdout) }) {
		res, err = runBuildWithUI(ctx, cmd.OutOrStdout(), "building "+manifest.Package.Name, req)
	} else {
		res, err = buildpipeline.Build(ctx, req)
	}
	printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics, res.Files, s)
	if err != nil {
		var failure *buildpipeline.PipelineFailure
		if errors.As(err, &failure) {
			return &exitCodeError{code: 1}
		}
		return err
	}

	if s.Timings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, false)
		printTimerSummary(cmd.ErrOrStderr(), timer)
	}
	if !s.Quiet {
		note := ""
		if res.Cached {
			note = " (cached)"
		}
		rel, relErr := filepath.Rel(manifest.Root, res.OutputPath)
		if relErr != nil {
			rel = res.OutputPath
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %s -> %s%s\n", manifest.Package.Name, rel, note)
	}
	return nil
}

func openCache(s config.Settings) (*cache.Cache, error) {
	if s.NoCache {
		return nil, nil
	}
	dir := s.CacheDir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir("whistle"); err != nil {
			return nil, err
		}
	}
	return cache.Open(dir)
}
