package main

import (
	"context"
	"fmt"
	"io"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/relay"
	"github.com/julianknutsen/octscan/internal/tui"
)

func newTUICmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui <image>",
		Short: "Classify an OCT scan in an interactive terminal view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, stdout, stderr, args[0])
		},
	}
	cmd.Flags().StringP("model", "m", defaultModel, "Model to use")
	_ = cmd.RegisterFlagCompletionFunc("model", completeModelIDs)
	return cmd
}

func runTUI(cmd *cobra.Command, stdout, _ io.Writer, image string) error {
	a := newApp(cmd)
	defer a.close()

	req, err := preparedRequest(cmd, a, image)
	if err != nil {
		return err
	}
	req.ID = uuid.NewString()

	// Quitting early kills the worker.
	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	events, cancel := a.hub.Subscribe(relay.Topic)
	defer func() {
		cancel()
		relay.Discard(events)
	}()

	m := tui.New(tui.Config{
		Model:     req.Model,
		Image:     req.Image,
		RequestID: req.ID,
		Events:    events,
		Predict:   func() relay.Outcome { return a.relay.Predict(ctx, req) },
	})

	p := bubbletea.NewProgram(m,
		bubbletea.WithAltScreen(),
		bubbletea.WithContext(ctx),
		bubbletea.WithInput(cmd.InOrStdin()),
		bubbletea.WithOutput(stdout),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if fm, ok := final.(tui.Model); ok {
		if out := fm.Outcome(); out == nil || !out.Response.Success {
			return errExit
		}
	}
	return nil
}
