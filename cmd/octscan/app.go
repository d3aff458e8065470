package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/julianknutsen/octscan/internal/daylog"
	"github.com/julianknutsen/octscan/internal/logging"
	"github.com/julianknutsen/octscan/internal/relay"
	"github.com/julianknutsen/octscan/internal/resource"
	"github.com/julianknutsen/octscan/internal/telemetry"
)

// app holds the host-side collaborators shared by predict, tui and serve.
type app struct {
	logger    *zap.Logger
	log       *daylog.Logger
	hub       *relay.Hub
	relay     *relay.Relay
	telemetry *telemetry.Reporter
	verbose   bool
}

func newApp(cmd *cobra.Command) *app {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logDirFlag, _ := cmd.Flags().GetString("log-dir")
	models, _ := cmd.Flags().GetString("models")
	worker, _ := cmd.Flags().GetString("worker")

	logger := zap.NewNop()
	if verbose {
		logger = logging.NewOrNop(zapcore.DebugLevel)
	}

	dl := daylog.Nop()
	if dir, err := resource.LogDir(logDirFlag); err != nil {
		logger.Warn("day log disabled", zap.Error(err))
	} else {
		dl = daylog.Open(dir, daylog.DefaultPrefix)
	}

	rep, err := telemetry.Init(os.Getenv(telemetry.EnvDSN), version)
	if err != nil {
		logger.Warn("error reporting disabled", zap.Error(err))
		rep = nil
	}

	hub := relay.NewHub(relay.DefaultBuffer)
	r := relay.New(hub, dl, logger)
	r.Telemetry = rep
	r.ModelDir = models
	r.Worker = worker

	return &app{logger: logger, log: dl, hub: hub, relay: r, telemetry: rep, verbose: verbose}
}

func (a *app) close() {
	a.telemetry.Flush(2 * time.Second)
	if err := a.log.Close(); err != nil {
		a.logger.Warn("closing day log", zap.Error(err))
	}
	if err := a.log.Err(); err != nil {
		a.logger.Debug("day log degraded", zap.Error(err))
	}
	_ = a.logger.Sync()
}
