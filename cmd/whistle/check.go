package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"whistle/internal/buildpipeline"
	"whistle/internal/config"
	"whistle/internal/diagfmt"
	"whistle/internal/observ"
	"whistle/internal/project"
	"whistle/internal/source"
)

func newCheckCmd() *cobra.Command {
	var (
		format   string
		noUnused bool
		jobs     int
	)
	cmd := &cobra.Command{
		Use:   "check [flags] <path>...",
		Short: "Report diagnostics without producing an artifact",
		Long:  `Run every compilation stage over the given files or directories and print the diagnostics. Directories are searched for .wh files.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "pretty" && format != "json" {
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
			return runCheck(cmd, args, format, noUnused, jobs)
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	cmd.Flags().BoolVar(&noUnused, "no-unused-warnings", false, "do not warn about unused variables")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files checked in parallel (0 = GOMAXPROCS)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string, format string, noUnused bool, jobs int) error {
	ctx := cmd.Context()
	s := settingsFrom(cmd)
	logger := config.Logger(ctx)

	files, err := collectSources(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", project.SourceExt)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var timer *observ.Timer
	if s.Timings {
		timer = observ.NewTimer()
	}
	results := make([]buildpipeline.CompileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			unit, err := source.ReadUnit(path)
			if err != nil {
				return err
			}
			res, err := buildpipeline.Compile(gctx, &buildpipeline.CompileRequest{
				Unit:             unit,
				Timer:            timer,
				Logger:           logger,
				NoUnusedWarnings: noUnused,
			})
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	errs, warns := 0, 0
	out := cmd.OutOrStdout()
	if format == "json" {
		combined := diagfmt.DiagnosticsOutput{Diagnostics: []diagfmt.DiagnosticJSON{}}
		for _, r := range results {
			part := diagfmt.BuildDiagnosticsOutput(r.Diagnostics, r.Files, diagfmt.JSONOpts{
				IncludePositions: true,
			})
			combined.Diagnostics = append(combined.Diagnostics, part.Diagnostics...)
		}
		if s.MaxDiagnostics > 0 && len(combined.Diagnostics) > s.MaxDiagnostics {
			combined.Diagnostics = combined.Diagnostics[:s.MaxDiagnostics]
		}
		combined.Count = len(combined.Diagnostics)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(combined); err != nil {
			return err
		}
	}
	for _, r := range results {
		e := countErrors(r.Diagnostics)
		errs += e
		warns += len(r.Diagnostics) - e
		if format == "pretty" {
			printDiagnostics(out, r.Diagnostics, r.Files, s)
		}
	}

	if s.Timings {
		printTimerSummary(cmd.ErrOrStderr(), timer)
	}
	if !s.Quiet && format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d file(s): %d error(s), %d warning(s)\n", len(files), errs, warns)
	}
	if errs > 0 {
		return &exitCodeError{code: 1}
	}
	return nil
}

// collectSources expands directories into the .wh files below them,
// skipping hidden directories and build output.
func collectSources(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if p != arg && (strings.HasPrefix(name, ".") || name == project.TargetDirName) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(p) == project.SourceExt {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, nil
}
