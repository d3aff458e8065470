package inference

import (
	"errors"
	"fmt"

	"github.com/julianknutsen/octscan/internal/preprocess"
	"github.com/julianknutsen/octscan/internal/registry"
)

// ModelLoadError indicates the SavedModel bundle could not be loaded.
type ModelLoadError struct {
	Model string
	Dir   string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model %s at %s: %v", e.Model, e.Dir, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// SignatureError indicates a signature input/output name that the graph does not declare.
type SignatureError struct {
	Model     string
	Signature string // e.g. "serving_default"
	Name      string // e.g. "vgg_input"
	Err       error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("model %s: signature %s: %s: %v", e.Model, e.Signature, e.Name, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// ExecutionError indicates the graph failed at run time.
type ExecutionError struct {
	Model string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("running model %s: %v", e.Model, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExtractionError indicates the output vector does not match the label table.
type ExtractionError struct {
	Got, Want int
	Reason    string
}

func (e *ExtractionError) Error() string {
	if e.Reason != "" {
		return "extracting prediction: " + e.Reason
	}
	return fmt.Sprintf("extracting prediction: got %d probabilities, want %d", e.Got, e.Want)
}

// Message maps a pipeline error to the human-readable failure message
// reported in the response envelope.
func Message(err error) string {
	var (
		unknown *registry.UnknownModelError
		load    *ModelLoadError
		image   *preprocess.ImageLoadError
	)
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("Failed to get tensorflow model: %s", unknown.ID)
	case errors.As(err, &load):
		return fmt.Sprintf("Failed to load tensorflow model: %v", err)
	case errors.As(err, &image):
		return fmt.Sprintf("Failed to load input image: %v", err)
	default:
		return fmt.Sprintf("Failed to predict input image: %v", err)
	}
}
