package main

import (
	"errors"
	"fmt"

	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/resource"
)

// HintedError wraps an error with a user-facing recovery hint.
type HintedError struct {
	Err  error
	Hint string
}

func (h *HintedError) Error() string { return h.Err.Error() }
func (h *HintedError) Unwrap() error { return h.Err }

// hintWrap attaches a recovery hint to resolution and model errors.
func hintWrap(err error) error {
	if err == nil {
		return nil
	}
	var res *resource.ResolutionError
	switch {
	case errors.Is(err, registry.ErrUnknownModel):
		return &HintedError{
			Err:  fmt.Errorf("unknown model %q", err.Error()),
			Hint: "Run 'octscan models' to list available models.",
		}
	case errors.As(err, &res) && res.Resource == "model directory":
		return &HintedError{Err: err, Hint: "Pass --models <dir> or set " + resource.EnvModels + "."}
	case errors.As(err, &res) && res.Resource == "log directory":
		return &HintedError{Err: err, Hint: "Pass --log-dir <dir> or set " + resource.EnvLogDir + "."}
	default:
		return err
	}
}

// spawnHint explains how to point octscan at the worker.
const spawnHint = "Install oct-tf next to octscan, pass --worker <path>, or set " + resource.EnvWorker + "."
