// Package worker implements the oct-tf command line: classify one image and
// print exactly one JSON response line on stdout.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/logging"
)

// Name is the worker executable name.
const Name = "oct-tf"

// EngineFactory builds the inference engine once logging is configured.
type EngineFactory func(logger *zap.Logger) inference.Engine

// errExit signals a non-zero exit after the command reported its own error.
var errExit = errors.New("exit")

// Run executes the worker with args and returns the process exit code.
// Usage errors exit 1 with nothing on stdout; every prediction, including
// a failed one, exits 0 after writing its response line.
func Run(args []string, stdout, stderr io.Writer, engine EngineFactory, version string) int {
	return RunContext(context.Background(), args, stdout, stderr, engine, version)
}

// RunContext is Run with a context that cancels the prediction.
func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer, engine EngineFactory, version string) int {
	root := NewCommand(stdout, stderr, engine, version)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stderr)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "%s: %v\n", Name, err)
		}
		return 1
	}
	return 0
}

// NewCommand builds the oct-tf root command.
func NewCommand(stdout, stderr io.Writer, engine EngineFactory, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           Name + " -d <model dir> -n <model> -i <image>",
		Short:         "Classify a retinal OCT scan with a SavedModel graph",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, stdout, stderr, engine)
		},
	}
	cmd.Flags().StringP("dir", "d", "", "Base directory holding the model bundles")
	cmd.Flags().StringP("name", "n", "", "Model to use (VGG16, CUSTOM)")
	cmd.Flags().StringP("image", "i", "", "Path of the image to classify")
	cmd.Flags().BoolP("verbose", "v", false, "Log debug diagnostics to stderr")
	for _, f := range []string{"dir", "name", "image"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func runPredict(cmd *cobra.Command, stdout, _ io.Writer, engine EngineFactory) error {
	dir, _ := cmd.Flags().GetString("dir")
	name, _ := cmd.Flags().GetString("name")
	image, _ := cmd.Flags().GetString("image")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	logger := logging.WithOperation(logging.NewOrNop(level), "predict", "")
	defer func() { _ = logger.Sync() }()

	if engine == nil {
		return errors.New("no inference engine configured")
	}
	p := inference.NewPipeline(engine(logger), logger)
	resp := p.Predict(cmd.Context(), inference.Request{ModelDir: dir, Model: name, Image: image})

	line, err := inference.EncodeResponse(resp)
	if err != nil {
		logger.Error("response failed validation", zap.Error(err))
		line, _ = inference.EncodeResponse(inference.FailureMessage("Failed to predict input image: " + err.Error()))
	}
	fmt.Fprintln(stdout, line)
	return nil
}
