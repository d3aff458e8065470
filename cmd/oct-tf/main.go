// oct-tf classifies a retinal OCT scan and prints one JSON response line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/tfgraph"
	"github.com/julianknutsen/octscan/internal/worker"
)

// Version metadata injected via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := worker.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr, newEngine, version)
	stop()
	os.Exit(code)
}

func newEngine(logger *zap.Logger) inference.Engine {
	return tfgraph.New(logger)
}
