package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"whistle/internal/config"
	"whistle/internal/prof"
	"whistle/internal/version"
)

type settingsKey struct{}

// activeProfile is stopped by main once the command returns, whether or
// not it failed.
var activeProfile *prof.Session

// newRootCmd assembles the command tree. Every call returns fresh flag
// state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "whistle",
		Short:         "Whistle language compiler and toolchain",
		Long:          `Whistle compiles .wh sources to WebAssembly and runs them in a sandbox`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			s, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			color.NoColor = !s.Color.Resolve(func() bool { return isTerminal(os.Stderr) })
			ctx := context.WithValue(cmd.Context(), settingsKey{}, s)
			ctx = config.WithLogger(ctx, config.NewLogger(cmd.ErrOrStderr(), s))
			cmd.SetContext(ctx)
			return startProfiling(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	rootCmd.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newCompileCmd(),
		newBuildCmd(),
		newInitCmd(),
		newCleanCmd(),
		newLSPCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if stopErr := activeProfile.Stop(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "profiling:", stopErr)
	}
	if err != nil {
		os.Exit(reportError(err))
	}
}

// exitCodeError ends the process with code after any output was already
// written. A zero-value message prints nothing.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.msg
}

func reportError(err error) int {
	var exit *exitCodeError
	if errors.As(err, &exit) {
		if exit.msg != "" {
			fmt.Fprintln(os.Stderr, exit.msg)
		}
		return exit.code
	}
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	return 1
}

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return err
	}
	if opts.Heap, err = flags.GetString("mem-profile"); err != nil {
		return err
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return err
	}
	if !opts.Enabled() {
		return nil
	}
	activeProfile, err = prof.Start(opts)
	return err
}

func settingsFrom(cmd *cobra.Command) config.Settings {
	if s, ok := cmd.Context().Value(settingsKey{}).(config.Settings); ok {
		return s
	}
	return config.Defaults()
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
