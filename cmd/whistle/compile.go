package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"whistle/internal/buildpipeline"
	"whistle/internal/config"
	"whistle/internal/observ"
	"whistle/internal/source"
	"whistle/internal/version"
)

func newCompileCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile [flags] <file.wh>",
		Short: "Compile a single file to WebAssembly",
		Long:  `Compile a whistle source file. An output path ending in .wat gets the text format, anything else the binary module.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <file>.wasm)")
	return cmd
}

func runCompile(cmd *cobra.Command, path, output string) error {
	ctx := cmd.Context()
	s := settingsFrom(cmd)
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".wasm"
	}
	unit, err := source.ReadUnit(path)
	if err != nil {
		return err
	}
	var timer *observ.Timer
	if s.Timings {
		timer = observ.NewTimer()
	}
	res, err := buildpipeline.Build(ctx, &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{
			Unit:   unit,
			Timer:  timer,
			Logger: config.Logger(ctx),
		},
		OutputPath:  output,
		ToolVersion: version.Version,
	})
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
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", res.OutputPath, res.Format, res.Artifact.Len())
	}
	return nil
}
