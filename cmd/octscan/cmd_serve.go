package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/api"
	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/web"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, stdout, stderr)
		},
	}
	cmd.Flags().Int("port", 8999, "Port to listen on")
	cmd.Flags().String("host", "localhost", "Interface to bind")
	cmd.Flags().Bool("dev", false, "Enable CORS for development")
	return cmd
}

func runServe(cmd *cobra.Command, stdout, _ io.Writer) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	devMode, _ := cmd.Flags().GetBool("dev")

	a := newApp(cmd)
	defer a.close()

	ctx := cmd.Context()
	server := api.New(api.Config{
		Predictor: a.relay,
		Hub:       a.hub,
		Registry:  registry.Default(),
		Logger:    a.logger,
		Context:   ctx,
	})

	handler := api.SPAHandler(server, web.Assets)
	if devMode {
		handler = api.CORSMiddleware(handler)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	fmt.Fprintf(stdout, "octscan web UI listening on http://%s\n", ln.Addr())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.logger.Warn("shutdown", zap.Error(err))
		}
	}
	server.Wait()
	return nil
}
