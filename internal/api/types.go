package api

import "github.com/julianknutsen/octscan/internal/inference"

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ModelInfo describes one registered model.
type ModelInfo struct {
	ID     string `json:"id"`
	Subdir string `json:"subdir"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// PredictRequest is the body of POST /api/predict.
// RequestID is optional; clients that set it can match events published
// before the response arrives.
type PredictRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Model     string `json:"model"`
	Image     string `json:"image"`
}

// PredictAccepted is returned when a prediction was queued.
type PredictAccepted struct {
	RequestID string `json:"request_id"`
}

// PredictResult is returned by POST /api/predict?wait=true.
type PredictResult struct {
	RequestID string              `json:"request_id"`
	Code      int                 `json:"code"`
	Response  *inference.Response `json:"response"`
}
