// octscan classifies retinal OCT scans by driving the oct-tf worker and
// relaying its events to the terminal, a TUI or a web page.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/style"
)

// Version metadata injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// run executes the octscan CLI with the given args.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "octscan: %v\n", err)
			var h *HintedError
			if errors.As(err, &h) && h.Hint != "" {
				fmt.Fprintf(stderr, "  %s\n", style.Dim.Render(h.Hint))
			}
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "octscan",
		Short:         "Classify retinal OCT scans",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "octscan: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	pf := root.PersistentFlags()
	pf.String("color", "auto", "Color output: always, auto, never")
	pf.String("config", "", "Settings file (default $XDG_CONFIG_HOME/octscan/config.toml)")
	pf.String("models", "", "Base model directory (default $OCTSCAN_MODELS, then bundled resources)")
	pf.String("log-dir", "", "Directory for day logs (default $OCTSCAN_LOG_DIR, then XDG state dir)")
	pf.String("worker", "", "Path of the oct-tf worker (default $OCTSCAN_WORKER, then next to octscan)")
	pf.BoolP("verbose", "v", false, "Show worker diagnostics and debug logs")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		colorMode, _ := cmd.Flags().GetString("color")
		switch colorMode {
		case "always", "auto", "never":
			style.SetColorMode(colorMode)
		default:
			return fmt.Errorf("invalid --color value %q: must be always, auto, or never", colorMode)
		}
		return loadConfig(cmd)
	}
	root.AddCommand(
		newPredictCmd(stdout, stderr),
		newTUICmd(stdout, stderr),
		newServeCmd(stdout, stderr),
		newModelsCmd(stdout, stderr),
		newLogsCmd(stdout, stderr),
		newConfigCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}
