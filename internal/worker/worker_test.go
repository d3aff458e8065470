package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/labels"
	"github.com/julianknutsen/octscan/internal/preprocess"
	"github.com/julianknutsen/octscan/internal/registry"
)

type fakeEngine struct {
	probs []float32
	err   error
	dir   string
}

func (f *fakeEngine) Run(_ context.Context, d registry.ModelDetail, _ *preprocess.Tensor) ([]float32, error) {
	f.dir = d.Dir()
	return f.probs, f.err
}

func factory(e *fakeEngine) EngineFactory {
	return func(*zap.Logger) inference.Engine { return e }
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.SetGray(0, 0, color.Gray{Y: 255})
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func singleLine(t *testing.T, out string) *inference.Response {
	t.Helper()
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("stdout = %q, want exactly one line", out)
	}
	resp, err := inference.DecodeResponse(out)
	if err != nil {
		t.Fatalf("DecodeResponse(%q): %v", out, err)
	}
	return resp
}

func TestRun_Success(t *testing.T) {
	t.Parallel()
	probs := make([]float32, labels.Count)
	probs[3] = 77
	probs[5] = 23
	eng := &fakeEngine{probs: probs}
	modelDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := Run([]string{"-d", modelDir, "-n", "VGG16", "-i", writePNG(t)}, &stdout, &stderr, factory(eng), "test")
	if code != 0 {
		t.Fatalf("Run() = %d, want 0; stderr: %s", code, stderr.String())
	}
	resp := singleLine(t, stdout.String())
	if !resp.Success || resp.Result.Prediction != "DME" || resp.Message != "Predicted: DME" {
		t.Errorf("response = %+v, want DME success", resp)
	}
	if eng.dir != filepath.Join(modelDir, "vgg") {
		t.Errorf("engine dir = %q, want %q", eng.dir, filepath.Join(modelDir, "vgg"))
	}
}

func TestRun_LongFlags(t *testing.T) {
	t.Parallel()
	probs := make([]float32, labels.Count)
	probs[0] = 100
	var stdout, stderr bytes.Buffer
	code := Run([]string{"--dir", t.TempDir(), "--name", "CUSTOM", "--image", writePNG(t)}, &stdout, &stderr, factory(&fakeEngine{probs: probs}), "test")
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if resp := singleLine(t, stdout.String()); resp.Result.Model != "CUSTOM" {
		t.Errorf("model = %q, want CUSTOM", resp.Result.Model)
	}
}

func TestRun_FailuresExitZero(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		args   []string
		engine *fakeEngine
		prefix string
	}{
		{"unknown model", []string{"-n", "ResNet"}, &fakeEngine{}, "Failed to get tensorflow model: ResNet"},
		{"missing image", []string{"-n", "VGG16", "-i", "/nonexistent/scan.png"}, &fakeEngine{}, "Failed to load input image:"},
		{"engine error", []string{"-n", "VGG16"}, &fakeEngine{err: &inference.ModelLoadError{Model: "VGG16", Dir: "/m/vgg", Err: errors.New("no bundle")}}, "Failed to load tensorflow model:"},
		{"short vector", []string{"-n", "VGG16"}, &fakeEngine{probs: []float32{1, 2}}, "Failed to predict input image:"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := append([]string{"-d", t.TempDir()}, tt.args...)
			if !strings.Contains(strings.Join(tt.args, " "), "-i") {
				args = append(args, "-i", writePNG(t))
			}
			var stdout, stderr bytes.Buffer
			if code := Run(args, &stdout, &stderr, factory(tt.engine), "test"); code != 0 {
				t.Fatalf("Run() = %d, want 0", code)
			}
			resp := singleLine(t, stdout.String())
			if resp.Success || !strings.HasPrefix(resp.Message, tt.prefix) {
				t.Errorf("message = %q, want prefix %q", resp.Message, tt.prefix)
			}
		})
	}
}

func TestRun_MissingFlags(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := Run([]string{"-d", "/m"}, &stdout, &stderr, factory(&fakeEngine{}), "test")
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "required flag") {
		t.Errorf("stderr = %q, want required flag error", stderr.String())
	}
}

func TestRun_Version(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"--version"}, &stdout, &stderr, nil, "1.2.3"); code != 0 {
		t.Fatalf("Run(--version) = %d, want 0", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "1.2.3") {
		t.Errorf("stderr = %q, want version", stderr.String())
	}
}
