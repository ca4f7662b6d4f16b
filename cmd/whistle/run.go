package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"whistle/internal/buildpipeline"
	"whistle/internal/config"
	"whistle/internal/host"
	"whistle/internal/observ"
	"whistle/internal/source"
)

func newRunCmd() *cobra.Command {
	var (
		envVars    []string
		inheritEnv bool
	)
	cmd := &cobra.Command{
		Use:   "run [flags] <file.wh>",
		Short: "Compile and execute a whistle program",
		Long:  `Compile a whistle source file to WebAssembly and execute it in a sandbox. The process exits with the program's exit code.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecution(cmd, args[0], envVars, inheritEnv)
		},
	}
	cmd.Flags().Duration("timeout", 0, "abort the program after this long (0 = no limit)")
	cmd.Flags().StringArrayVar(&envVars, "env", nil, "guest environment variable KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&inheritEnv, "inherit-env", false, "pass the host environment to the guest")
	return cmd
}

func runExecution(cmd *cobra.Command, path string, envVars []string, inheritEnv bool) error {
	ctx := cmd.Context()
	s := settingsFrom(cmd)
	logger := config.Logger(ctx)
	began := time.Now()

	unit, err := source.ReadUnit(path)
	if err != nil {
		return err
	}
	var timer *observ.Timer
	if s.Timings {
		timer = observ.NewTimer()
	}
	compiled, err := buildpipeline.Compile(ctx, &buildpipeline.CompileRequest{
		Unit:   unit,
		Timer:  timer,
		Logger: logger,
	})
	printDiagnostics(cmd.ErrOrStderr(), compiled.Diagnostics, compiled.Files, s)
	if err != nil {
		var failure *buildpipeline.PipelineFailure
		if errors.As(err, &failure) {
			return &exitCodeError{code: 1}
		}
		return err
	}

	h := host.New(host.Options{
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
		Env:        envVars,
		InheritEnv: inheritEnv,
		Timeout:    s.Timeout,
		Logger:     logger,
	})
	defer func() { _ = h.Close(ctx) }()

	runBegan := time.Now()
	outcome := h.Execute(ctx, compiled.Artifact)
	compiled.Timings.Set(buildpipeline.StageRun, time.Since(runBegan))

	if s.Timings {
		printStageTimings(cmd.ErrOrStderr(), compiled.Timings, true)
		printTimerSummary(cmd.ErrOrStderr(), timer)
	}
	if !s.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Operation complete! Took us about %.3f seconds.\n", time.Since(began).Seconds())
	}

	switch outcome.Kind {
	case host.Exited:
		if outcome.Code != 0 {
			return &exitCodeError{code: int(outcome.Code)}
		}
		return nil
	default:
		return &exitCodeError{code: 1, msg: fmt.Sprintf("%s: %v", path, outcome.Err())}
	}
}
