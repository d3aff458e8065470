package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/logging"
	"github.com/julianknutsen/octscan/internal/relay"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	var resp ModelsResponse
	for _, e := range s.models.Entries() {
		resp.Models = append(resp.Models, ModelInfo{ID: e.ID, Subdir: e.Subdir, Input: e.Input, Output: e.Output})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}
	if !s.models.Has(req.Model) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown model %q (known: %s)", req.Model, s.models.Describe()))
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	if s.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "predictions are not available")
		return
	}

	id := req.RequestID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request_id %q is not a UUID", id))
		return
	}

	rr := relay.Request{ID: id, Model: req.Model, Image: req.Image}
	log := logging.WithOperation(s.logger, "api.predict", rr.ID)

	if parseBoolParam(r, "wait") {
		out := s.predictor.Predict(r.Context(), rr)
		writeJSON(w, http.StatusOK, PredictResult{RequestID: rr.ID, Code: out.Code, Response: out.Response})
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		out := s.predictor.Predict(s.ctx, rr)
		log.Info("prediction finished",
			zap.Bool("success", out.Response != nil && out.Response.Success),
			zap.Int("code", out.Code))
	}()
	log.Info("prediction accepted", zap.String("model", rr.Model), zap.String("image", rr.Image))
	writeJSON(w, http.StatusAccepted, PredictAccepted{RequestID: rr.ID})
}

// handleEvents streams hub messages as Server-Sent Events until the client
// disconnects. ?request_id= limits the stream to one prediction.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	only := r.URL.Query().Get("request_id")

	msgs, cancel := s.hub.Subscribe(relay.Topic)
	defer func() {
		cancel()
		relay.Discard(msgs)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if only != "" && m.RequestID != only {
				continue
			}
			data, err := json.Marshal(m)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", relay.Topic, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
