// Package relay runs the oct-tf worker for a prediction request and turns
// its process events into day-log lines and hub messages.
package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/daylog"
	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/logging"
	"github.com/julianknutsen/octscan/internal/resource"
	"github.com/julianknutsen/octscan/internal/sidecar"
	"github.com/julianknutsen/octscan/internal/telemetry"
)

// NoResponse is the failure message used when the worker exits without
// printing a valid response line.
const NoResponse = "worker exited without a response"

// Request names one image to classify.
type Request struct {
	ID    string // generated when empty
	Model string
	Image string
}

// Outcome is the result of one relayed prediction.
type Outcome struct {
	RequestID string
	Response  *inference.Response
	Code      int    // worker exit code; -1 when it never ran or was killed
	Stage     string // "resolve" or "spawn" when the worker never ran
}

// Relay launches workers and relays their events.
type Relay struct {
	Hub       *Hub
	Log       *daylog.Logger
	Logger    *zap.Logger
	Telemetry *telemetry.Reporter

	// ModelDir and Worker are explicit overrides; empty values fall back
	// to resource resolution.
	ModelDir string
	Worker   string

	// Command builds the worker invocation. Defaults to sidecar.WorkerCommand.
	Command func(bin, modelDir, model, image string) sidecar.Command
}

// New returns a Relay publishing to hub and logging to log.
func New(hub *Hub, log *daylog.Logger, logger *zap.Logger) *Relay {
	return &Relay{Hub: hub, Log: log, Logger: logger}
}

// Predict resolves resources, runs the worker and consumes its events.
// It always returns an Outcome carrying a well-formed Response.
func (r *Relay) Predict(ctx context.Context, req Request) Outcome {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	log := logging.WithOperation(r.logger(), "predict", req.ID)

	dir, err := resource.ModelDir(r.ModelDir)
	if err != nil {
		return r.fatal(log, req, "resolve", err)
	}

	build := r.Command
	if build == nil {
		build = sidecar.WorkerCommand
	}
	cmd := build(resource.WorkerBinary(r.Worker), dir, req.Model, req.Image)
	log.Debug("starting worker", zap.Stringer("command", cmd))

	p, err := sidecar.Start(ctx, cmd)
	if err != nil {
		return r.fatal(log, req, "spawn", err)
	}
	log.Debug("worker started", zap.Int("pid", p.Pid()))
	return r.Consume(req.ID, p.Events())
}

// Consume relays events until the channel closes. Each event is written to
// the day log and then published under Topic.
func (r *Relay) Consume(requestID string, events <-chan sidecar.Event) Outcome {
	log := logging.WithOperation(r.logger(), "relay", requestID)
	out := Outcome{RequestID: requestID, Code: -1}

	for ev := range events {
		tag, text := classify(ev)
		r.emit(requestID, tag, text)

		switch ev.Kind {
		case sidecar.Stdout:
			if resp, err := inference.DecodeResponse(text); err == nil {
				out.Response = resp
			} else {
				log.Debug("stdout line is not a response", zap.Error(err))
			}
		case sidecar.Error:
			log.Warn("worker stream error", zap.Error(ev.Err))
		case sidecar.Terminated:
			if ev.Exit != nil {
				out.Code = ev.Exit.Code
			}
			log.Debug("worker terminated", zap.String("status", text))
		}
	}

	if out.Response == nil {
		out.Response = inference.FailureMessage(NoResponse)
		r.emit(requestID, daylog.TagError, NoResponse)
		r.publishResponse(requestID, out.Response)
	}
	return out
}

// classify maps an event to its day-log tag and text.
func classify(ev sidecar.Event) (string, string) {
	switch ev.Kind {
	case sidecar.Stdout:
		return daylog.TagResponse, strings.TrimSpace(ev.Line)
	case sidecar.Stderr, sidecar.Terminated:
		return daylog.TagLog, ev.Text()
	case sidecar.Error:
		return daylog.TagError, ev.Text()
	default:
		return daylog.TagError, "unrecognized worker event " + ev.Kind.String()
	}
}

// fatal handles failures before the worker produced any events.
func (r *Relay) fatal(log *zap.Logger, req Request, stage string, err error) Outcome {
	log.Error("prediction failed", zap.String("stage", stage), zap.Error(err))
	r.emit(req.ID, daylog.TagError, err.Error())
	r.Telemetry.Capture(err, map[string]string{"stage": stage, "model": req.Model})

	resp := inference.FailureMessage(fmt.Sprintf("Failed to start prediction: %v", err))
	r.publishResponse(req.ID, resp)
	return Outcome{RequestID: req.ID, Response: resp, Code: -1, Stage: stage}
}

func (r *Relay) publishResponse(requestID string, resp *inference.Response) {
	line, err := inference.EncodeResponse(resp)
	if err != nil {
		r.logger().Error("encoding failure response", zap.Error(err))
		return
	}
	r.publish(requestID, daylog.TagResponse, line)
}

func (r *Relay) emit(requestID, tag, text string) {
	if r.Log != nil {
		r.Log.Write(tag, text)
	}
	r.publish(requestID, tag, text)
}

func (r *Relay) publish(requestID, tag, text string) {
	if r.Hub == nil {
		return
	}
	r.Hub.Publish(Topic, Message{RequestID: requestID, Tag: tag, Payload: text})
}

func (r *Relay) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
