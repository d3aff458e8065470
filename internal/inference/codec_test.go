package inference

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/julianknutsen/octscan/internal/labels"
	"github.com/julianknutsen/octscan/internal/registry"
)

func samplePrediction(t *testing.T) Prediction {
	t.Helper()
	p, err := Extract("VGG16", []float32{0.5, 1.25, 3, 2, 0.01, 90.125, 1, 1, 1.115}, labels.Default())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	return p
}

func TestEncodeDecodeResponse_RoundTrip(t *testing.T) {
	t.Parallel()
	resp := Success(samplePrediction(t))

	encoded, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}
	if strings.Contains(encoded, "\n") {
		t.Errorf("encoded response spans multiple lines: %q", encoded)
	}

	decoded, err := DecodeResponse(encoded)
	if err != nil {
		t.Fatalf("DecodeResponse() error: %v", err)
	}
	if !reflect.DeepEqual(decoded, resp) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", decoded, resp)
	}
}

func TestEncodeDecodeResponse_FailureRoundTrip(t *testing.T) {
	t.Parallel()
	resp := Failure(&registry.UnknownModelError{ID: "RESNET"})

	encoded, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}
	if !strings.Contains(encoded, `"result":null`) {
		t.Errorf("encoded failure = %s, want result null", encoded)
	}
	decoded, err := DecodeResponse(encoded)
	if err != nil {
		t.Fatalf("DecodeResponse() error: %v", err)
	}
	if !reflect.DeepEqual(decoded, resp) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", decoded, resp)
	}
}

func TestSuccess_Message(t *testing.T) {
	t.Parallel()
	resp := Success(samplePrediction(t))
	if resp.Message != "Predicted: DRUSEN" {
		t.Errorf("Message = %q, want %q", resp.Message, "Predicted: DRUSEN")
	}
	if !resp.Success || resp.Result == nil {
		t.Error("Success() should set success and result")
	}
}

func TestResponse_JSONFieldNames(t *testing.T) {
	t.Parallel()
	encoded, err := EncodeResponse(Success(samplePrediction(t)))
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"success", "result", "message"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %q in %s", k, encoded)
		}
	}
	var result map[string]json.RawMessage
	_ = json.Unmarshal(raw["result"], &result)
	for _, k := range []string{"model", "prediction", "probability", "classes", "probabilities"} {
		if _, ok := result[k]; !ok {
			t.Errorf("missing result key %q in %s", k, encoded)
		}
	}
}

func TestValidate_Invariants(t *testing.T) {
	t.Parallel()
	good := samplePrediction(t)

	wrongLabel := good
	wrongLabel.Prediction = "NORMAL"

	wrongProb := good
	wrongProb.Probability = 1

	short := good
	short.Probabilities = good.Probabilities[:8]

	tests := []struct {
		name string
		resp *Response
	}{
		{"success without result", &Response{Success: true, Message: "x"}},
		{"failure with result", &Response{Success: false, Result: &good, Message: "x"}},
		{"empty message", &Response{}},
		{"label not argmax", &Response{Success: true, Result: &wrongLabel, Message: "x"}},
		{"probability not argmax", &Response{Success: true, Result: &wrongProb, Message: "x"}},
		{"short vector", &Response{Success: true, Result: &short, Message: "x"}},
	}
	for _, tt := range tests {
		if err := Validate(tt.resp); err == nil {
			t.Errorf("%s: Validate() expected error", tt.name)
		}
	}
}

func TestDecodeResponse_RejectsNonResponses(t *testing.T) {
	t.Parallel()
	for _, line := range []string{
		"",
		"2024-01-01 I tensorflow/core/platform/cpu_feature_guard.cc:193] ...",
		"null",
		"{}",
		`{"success":true,"result":null,"message":"Predicted: X"}`,
		"[1,2,3]",
	} {
		if _, err := DecodeResponse(line); err == nil {
			t.Errorf("DecodeResponse(%q) expected error", line)
		}
	}
}

func TestDecodeResponse_TrimsWhitespace(t *testing.T) {
	t.Parallel()
	r, err := DecodeResponse("  {\"success\":false,\"result\":null,\"message\":\"boom\"}\r\n")
	if err != nil {
		t.Fatalf("DecodeResponse() error: %v", err)
	}
	if r.Success || r.Message != "boom" {
		t.Errorf("DecodeResponse() = %+v, want failure boom", r)
	}
}

func TestMessage_Stages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err    error
		prefix string
	}{
		{&registry.UnknownModelError{ID: "RESNET"}, "Failed to get tensorflow model: RESNET"},
		{&ModelLoadError{Model: "VGG16", Dir: "/m/vgg", Err: errors.New("no bundle")}, "Failed to load tensorflow model:"},
		{&SignatureError{Model: "VGG16", Signature: "serving_default", Name: "vgg_input", Err: errors.New("missing")}, "Failed to predict input image:"},
		{&ExecutionError{Model: "VGG16", Err: errors.New("oom")}, "Failed to predict input image:"},
		{&ExtractionError{Got: 3, Want: 9}, "Failed to predict input image:"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("Message(%T) = %q, want prefix %q", tt.err, got, tt.prefix)
		}
	}
}
