// Package inference runs the OCT classification pipeline and defines the
// response envelope the oct-tf worker writes to stdout.
package inference

import "fmt"

// Prediction is the ranked output of a single classification.
type Prediction struct {
	Model         string    `json:"model"`
	Prediction    string    `json:"prediction"`
	Probability   float32   `json:"probability"` // percent, probabilities[argmax]
	Classes       []string  `json:"classes"`
	Probabilities []float32 `json:"probabilities"` // percent, same order as Classes
}

// Response is the single document a worker invocation produces.
// Result is present iff Success is true.
type Response struct {
	Success bool        `json:"success"`
	Result  *Prediction `json:"result"`
	Message string      `json:"message"`
}

// Success wraps a prediction.
func Success(p Prediction) *Response {
	return &Response{
		Success: true,
		Result:  &p,
		Message: fmt.Sprintf("Predicted: %s", p.Prediction),
	}
}

// Failure builds a failed response whose message describes err.
func Failure(err error) *Response {
	return &Response{Message: Message(err)}
}

// FailureMessage builds a failed response with a literal message.
func FailureMessage(msg string) *Response {
	return &Response{Message: msg}
}
