// Package tfgraph executes exported TensorFlow SavedModels for the
// classification pipeline.
package tfgraph

import (
	"context"
	"errors"
	"fmt"
	"os"

	tf "github.com/wamuir/graft/tensorflow"
	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/inference"
	"github.com/julianknutsen/octscan/internal/preprocess"
	"github.com/julianknutsen/octscan/internal/registry"
)

// Tag and signature used when the models were exported.
const (
	ServeTag         = "serve"
	DefaultSignature = "serving_default"
)

// Engine loads the model bundle fresh for every Run; nothing is cached
// between invocations.
type Engine struct {
	Logger *zap.Logger
}

// New returns a TensorFlow engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Logger: logger.Named("tfgraph")}
}

var _ inference.Engine = (*Engine)(nil)

// Run loads the SavedModel for detail, feeds input and returns the output
// vector on the percent scale.
func (e *Engine) Run(ctx context.Context, detail registry.ModelDetail, input *preprocess.Tensor) ([]float32, error) {
	dir := detail.Dir()
	if err := checkDir(dir); err != nil {
		return nil, &inference.ModelLoadError{Model: detail.ID, Dir: dir, Err: err}
	}

	model, err := tf.LoadSavedModel(dir, []string{ServeTag}, nil)
	if err != nil {
		return nil, &inference.ModelLoadError{Model: detail.ID, Dir: dir, Err: err}
	}
	defer func() {
		if err := model.Session.Close(); err != nil {
			e.Logger.Warn("closing session", zap.Error(err))
		}
	}()

	in, out, err := bind(model, detail)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &inference.ExecutionError{Model: detail.ID, Err: err}
	}

	t, err := tf.NewTensor(input.Nested())
	if err != nil {
		return nil, &inference.ExecutionError{Model: detail.ID, Err: fmt.Errorf("building input tensor: %w", err)}
	}

	results, err := model.Session.Run(
		map[tf.Output]*tf.Tensor{in: t},
		[]tf.Output{out},
		nil,
	)
	if err != nil {
		return nil, &inference.ExecutionError{Model: detail.ID, Err: err}
	}
	if len(results) != 1 {
		return nil, &inference.ExecutionError{Model: detail.ID, Err: fmt.Errorf("got %d outputs, want 1", len(results))}
	}

	raw, err := flatten(results[0].Value())
	if err != nil {
		return nil, &inference.ExecutionError{Model: detail.ID, Err: err}
	}
	e.Logger.Debug("fetched output", zap.String("model", detail.ID), zap.Int("len", len(raw)))
	return inference.ToPercent(raw), nil
}

// bind resolves the detail's signature names to graph outputs.
func bind(model *tf.SavedModel, detail registry.ModelDetail) (in, out tf.Output, err error) {
	sig, ok := model.Signatures[DefaultSignature]
	if !ok {
		return in, out, &inference.SignatureError{Model: detail.ID, Signature: DefaultSignature, Name: DefaultSignature, Err: errors.New("signature not found")}
	}

	inInfo, ok := sig.Inputs[detail.Input]
	if !ok {
		return in, out, &inference.SignatureError{Model: detail.ID, Signature: DefaultSignature, Name: detail.Input, Err: errors.New("input not declared")}
	}
	outInfo, ok := sig.Outputs[detail.Output]
	if !ok {
		return in, out, &inference.SignatureError{Model: detail.ID, Signature: DefaultSignature, Name: detail.Output, Err: errors.New("output not declared")}
	}

	in, err = lookup(model.Graph, inInfo.Name)
	if err != nil {
		return in, out, &inference.SignatureError{Model: detail.ID, Signature: DefaultSignature, Name: detail.Input, Err: err}
	}
	out, err = lookup(model.Graph, outInfo.Name)
	if err != nil {
		return in, out, &inference.SignatureError{Model: detail.ID, Signature: DefaultSignature, Name: detail.Output, Err: err}
	}
	return in, out, nil
}

func lookup(g *tf.Graph, tensorName string) (tf.Output, error) {
	name, idx, err := ParseTensorName(tensorName)
	if err != nil {
		return tf.Output{}, err
	}
	op := g.Operation(name)
	if op == nil {
		return tf.Output{}, fmt.Errorf("operation %q not found in graph", name)
	}
	if idx >= op.NumOutputs() {
		return tf.Output{}, fmt.Errorf("operation %q has %d outputs, want index %d", name, op.NumOutputs(), idx)
	}
	return op.Output(idx), nil
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
