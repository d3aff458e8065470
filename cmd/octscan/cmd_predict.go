package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/daylog"
	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/relay"
	"github.com/julianknutsen/octscan/internal/resource"
	"github.com/julianknutsen/octscan/internal/style"
)

const defaultModel = "VGG16"

func newPredictCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <image>",
		Short: "Classify an OCT scan",
		Long: `Classify an OCT scan with the oct-tf worker.

The worker's stdout, stderr and exit status are appended to today's log
file. The exit code is 0 only when the worker reports a prediction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, stdout, stderr, args[0])
		},
	}
	cmd.Flags().StringP("model", "m", defaultModel, "Model to use")
	cmd.Flags().Bool("json", false, "Print the worker's response line instead of a table")
	_ = cmd.RegisterFlagCompletionFunc("model", completeModelIDs)
	return cmd
}

// preparedRequest validates the model and model directory before a worker is
// launched and returns the relay request.
func preparedRequest(cmd *cobra.Command, a *app, image string) (relay.Request, error) {
	model, _ := cmd.Flags().GetString("model")
	if !registry.Default().Has(model) {
		return relay.Request{}, hintWrap(&registry.UnknownModelError{ID: model})
	}
	dir, err := resource.ModelDir(a.relay.ModelDir)
	if err != nil {
		return relay.Request{}, hintWrap(err)
	}
	a.relay.ModelDir = dir

	abs, err := filepath.Abs(image)
	if err != nil {
		return relay.Request{}, fmt.Errorf("resolving image path: %w", err)
	}
	return relay.Request{Model: model, Image: abs}, nil
}

func runPredict(cmd *cobra.Command, stdout, stderr io.Writer, image string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	a := newApp(cmd)
	defer a.close()

	req, err := preparedRequest(cmd, a, image)
	if err != nil {
		return err
	}

	events, cancel := a.hub.Subscribe(relay.Topic)
	sp := style.StartSpinner(stderr, fmt.Sprintf("Classifying %s with %s...", filepath.Base(req.Image), req.Model))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for m := range events {
			if a.verbose && m.Tag != daylog.TagResponse {
				fmt.Fprintf(stderr, "  %s %s\n", style.Dim.Render(m.Tag), m.Payload)
			}
		}
	}()

	out := a.relay.Predict(cmd.Context(), req)
	cancel()
	wg.Wait()
	sp.Stop()

	if jsonOut {
		line, err := inference.EncodeResponse(out.Response)
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		fmt.Fprintln(stdout, line)
	} else {
		renderResponse(stdout, stderr, out)
	}

	if out.Stage == "spawn" {
		fmt.Fprintf(stderr, "  %s\n", style.Dim.Render(spawnHint))
	}
	if !out.Response.Success {
		return errExit
	}
	return nil
}

// renderResponse prints a prediction table, or the failure message on stderr.
func renderResponse(stdout, stderr io.Writer, out relay.Outcome) {
	resp := out.Response
	if !resp.Success || resp.Result == nil {
		fmt.Fprintf(stderr, "%s %s\n", style.Error.Render(style.IconFail), resp.Message)
		if out.Code > 0 {
			fmt.Fprintf(stderr, "  %s\n", style.Dim.Render(fmt.Sprintf("worker exited with code %d", out.Code)))
		}
		return
	}
	p := resp.Result
	fmt.Fprintf(stdout, "%s %s %s\n\n",
		style.Success.Render(style.IconPass),
		resp.Message,
		style.Confidence(p.Probability).Render(fmt.Sprintf("(%s, %s)", style.Percent(p.Probability), p.Model)))
	fmt.Fprint(stdout, style.ProbabilityTable(p.Classes, p.Probabilities, p.Prediction))
}
