package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianknutsen/octscan/internal/labels"
)

// Validate checks the envelope invariants: result present iff success,
// a full probability vector, and a prediction consistent with its argmax.
func Validate(r *Response) error {
	if r == nil {
		return fmt.Errorf("response: nil")
	}
	if r.Message == "" {
		return fmt.Errorf("response: message is required")
	}
	if !r.Success {
		if r.Result != nil {
			return fmt.Errorf("response: result must be null on failure")
		}
		return nil
	}
	p := r.Result
	if p == nil {
		return fmt.Errorf("response: result is required on success")
	}
	if p.Model == "" {
		return fmt.Errorf("prediction: model is required")
	}
	if len(p.Classes) != labels.Count {
		return fmt.Errorf("prediction: got %d classes, want %d", len(p.Classes), labels.Count)
	}
	if len(p.Probabilities) != len(p.Classes) {
		return fmt.Errorf("prediction: got %d probabilities for %d classes", len(p.Probabilities), len(p.Classes))
	}
	i := ArgMax(p.Probabilities)
	if p.Prediction != p.Classes[i] {
		return fmt.Errorf("prediction: %q is not the argmax class %q", p.Prediction, p.Classes[i])
	}
	if p.Probability != p.Probabilities[i] {
		return fmt.Errorf("prediction: probability %v does not match argmax value %v", p.Probability, p.Probabilities[i])
	}
	return nil
}

// EncodeResponse serializes a Response as a single line of JSON.
func EncodeResponse(r *Response) (string, error) {
	if err := Validate(r); err != nil {
		return "", fmt.Errorf("encoding response: %w", err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding response: %w", err)
	}
	return string(b), nil
}

// DecodeResponse parses a worker stdout line. Surrounding whitespace is ignored.
func DecodeResponse(s string) (*Response, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, fmt.Errorf("decoding response: not a JSON object")
	}
	var r Response
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := Validate(&r); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &r, nil
}
