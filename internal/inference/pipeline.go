package inference

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/labels"
	"github.com/julianknutsen/octscan/internal/preprocess"
	"github.com/julianknutsen/octscan/internal/registry"
)

// Engine executes a resolved model on a preprocessed input. Implementations
// return one value per class on the percent scale (see ToPercent).
type Engine interface {
	Run(ctx context.Context, detail registry.ModelDetail, input *preprocess.Tensor) ([]float32, error)
}

// Request names the model directory, model and image for one prediction.
type Request struct {
	ModelDir string
	Model    string
	Image    string
}

// Pipeline wires the registry, preprocessor, engine and extractor.
type Pipeline struct {
	Registry registry.Registry
	Labels   labels.Table
	Engine   Engine
	Logger   *zap.Logger

	// Load overrides image loading. Nil means preprocess.Load.
	Load func(path string) (*preprocess.Tensor, error)
}

// NewPipeline returns a pipeline over the default registry and label table.
func NewPipeline(engine Engine, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Registry: registry.Default(),
		Labels:   labels.Default(),
		Engine:   engine,
		Logger:   logger.Named("pipeline"),
	}
}

// Predict runs the full pipeline. It never fails: every stage error is
// folded into a failure Response.
func (p *Pipeline) Predict(ctx context.Context, req Request) *Response {
	pred, err := p.run(ctx, req)
	if err != nil {
		p.logger().Warn("prediction failed", zap.String("model", req.Model), zap.String("image", req.Image), zap.Error(err))
		return Failure(err)
	}
	return Success(pred)
}

func (p *Pipeline) run(ctx context.Context, req Request) (Prediction, error) {
	log := p.logger().With(zap.String("model", req.Model))

	detail, err := p.Registry.Resolve(req.Model, req.ModelDir)
	if err != nil {
		return Prediction{}, err
	}

	start := time.Now()
	load := p.Load
	if load == nil {
		load = preprocess.Load
	}
	input, err := load(req.Image)
	if err != nil {
		return Prediction{}, err
	}
	log.Debug("image preprocessed", zap.String("image", req.Image), zap.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return Prediction{}, fmt.Errorf("prediction canceled: %w", err)
	}

	start = time.Now()
	probs, err := p.Engine.Run(ctx, detail, input)
	if err != nil {
		return Prediction{}, err
	}
	log.Info("graph executed", zap.String("dir", detail.Dir()), zap.Duration("elapsed", time.Since(start)))

	return Extract(detail.ID, probs, p.Labels)
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
