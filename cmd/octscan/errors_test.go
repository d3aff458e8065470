package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/resource"
)

func TestHintedError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("something failed")
	h := &HintedError{Err: inner, Hint: "try again"}
	if !errors.Is(h, inner) {
		t.Error("HintedError should unwrap to inner error")
	}
}

func TestHintedError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("boom")
	h := &HintedError{Err: inner, Hint: "fix it"}
	if h.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", h.Error(), "boom")
	}
}

func TestHintWrap_Nil(t *testing.T) {
	if got := hintWrap(nil); got != nil {
		t.Errorf("hintWrap(nil) = %v, want nil", got)
	}
}

func TestHintWrap_UnknownModel(t *testing.T) {
	err := hintWrap(&registry.UnknownModelError{ID: "ResNet"})
	var h *HintedError
	if !errors.As(err, &h) {
		t.Fatal("expected HintedError")
	}
	if h.Error() != `unknown model "ResNet"` {
		t.Errorf("Error() = %q", h.Error())
	}
	if !strings.Contains(h.Hint, "octscan models") {
		t.Errorf("unexpected hint: %s", h.Hint)
	}
}

func TestHintWrap_ModelDir(t *testing.T) {
	err := hintWrap(&resource.ResolutionError{Resource: "model directory", Err: resource.ErrNotFound})
	var h *HintedError
	if !errors.As(err, &h) {
		t.Fatal("expected HintedError")
	}
	if !strings.Contains(h.Hint, resource.EnvModels) {
		t.Errorf("unexpected hint: %s", h.Hint)
	}
	if !errors.Is(err, resource.ErrNotFound) {
		t.Error("hinted error should unwrap to ErrNotFound")
	}
}

func TestHintWrap_Other(t *testing.T) {
	inner := errors.New("plain")
	if got := hintWrap(inner); got != inner {
		t.Errorf("hintWrap(plain) = %v, want unchanged", got)
	}
}
