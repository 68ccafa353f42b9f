// Package evaluate wires the full scoring pipeline: dataset normalization,
// image resolution, vocabulary construction, batched inference and metric
// aggregation.
package evaluate

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"plankton-eval/internal/batch"
	"plankton-eval/internal/dataset"
	"plankton-eval/internal/metrics"
	"plankton-eval/internal/model"
	"plankton-eval/internal/preprocess"
	"plankton-eval/internal/vocab"
)

// ImageProcessor produces a model-input tensor from a resolved image
// reference. Implementations must be safe for concurrent use.
type ImageProcessor interface {
	Process(ref dataset.ImageRef) (preprocess.Tensor, error)
}

// Options configures a pipeline run.
type Options struct {
	DataDir            string
	CSVPaths           []string
	BatchSize          int
	MinExamples        int
	Concurrency        int
	NormalizeConfusion bool
}

// Report is the result of one evaluation run.
type Report struct {
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	DataDir    string    `json:"data_dir"`
	ImageStyle string    `json:"image_style"`
	Examples   int       `json:"examples"`
	Duration   float64   `json:"duration_seconds"`

	Accuracy  float64                `json:"accuracy"`
	Classes   []string               `json:"classes"`
	PerClass  []metrics.ClassMetrics `json:"per_class"`
	Confusion [][]float64            `json:"confusion"`
}

// Pipeline evaluates one fixed model against one fixed dataset.
type Pipeline struct {
	cfg       *model.Config
	predictor model.Predictor
	processor ImageProcessor
	opts      Options
	log       *logrus.Entry
}

// New creates a pipeline. Zero option values get sensible defaults.
func New(cfg *model.Config, predictor model.Predictor, processor ImageProcessor, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:       cfg,
		predictor: predictor,
		processor: processor,
		opts:      opts,
		log:       logrus.WithField("component", "evaluate"),
	}
}

// Run executes the whole pipeline. Any stage error aborts the run; there
// is no partial-results mode.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	table, err := p.prepareTable()
	if err != nil {
		return nil, err
	}

	unified := vocab.Fit(append(table.Labels(), p.cfg.ClassNames...))
	modelVocab, err := vocab.FromClasses(p.cfg.ClassNames)
	if err != nil {
		return nil, fmt.Errorf("model vocabulary: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"unified_size": unified.Len(),
		"model_size":   modelVocab.Len(),
	}).Info("vocabularies built")

	yTrue := make([]int, len(table.Rows))
	features := make([][]float32, len(table.Rows))
	for i, row := range table.Rows {
		code, err := unified.Encode(row.Value(dataset.ColLabelTrue))
		if err != nil {
			return nil, fmt.Errorf("row %s:%d: %w", row.Source, row.Line, err)
		}
		yTrue[i] = code

		vec, err := batch.Features(row, p.cfg.Features)
		if err != nil {
			return nil, err
		}
		features[i] = vec
	}

	images, err := p.preprocessAll(ctx, table)
	if err != nil {
		return nil, err
	}

	batches, err := batch.Assemble(features, images, yTrue, p.opts.BatchSize)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"batches":    len(batches),
		"batch_size": p.opts.BatchSize,
	}).Info("batches assembled")

	yPred, err := p.infer(ctx, batches, modelVocab, unified)
	if err != nil {
		return nil, err
	}

	result, err := metrics.Evaluate(yTrue, yPred, unified.Labels(), p.opts.NormalizeConfusion)
	if err != nil {
		return nil, err
	}
	p.log.WithField("accuracy", result.Accuracy).Info("evaluation complete")

	return &Report{
		RunID:      uuid.NewString(),
		CreatedAt:  started.UTC(),
		DataDir:    p.opts.DataDir,
		ImageStyle: table.Style.String(),
		Examples:   len(table.Rows),
		Duration:   time.Since(started).Seconds(),
		Accuracy:   result.Accuracy,
		Classes:    result.Classes,
		PerClass:   result.PerClass,
		Confusion:  result.ConfusionRows(),
	}, nil
}

// prepareTable loads, normalizes and filters the dataset, then resolves
// image references. The empty check runs before image resolution so a
// fully filtered dataset fails fast, long before any inference.
func (p *Pipeline) prepareTable() (*dataset.Table, error) {
	raw, err := dataset.Load(p.opts.CSVPaths)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"files": len(p.opts.CSVPaths),
		"rows":  len(raw.Rows),
	}).Info("dataset loaded")

	table, err := dataset.Normalize(raw)
	if err != nil {
		return nil, err
	}
	table = dataset.FilterMinExamples(table, p.opts.MinExamples)
	p.log.WithFields(logrus.Fields{
		"rows":    len(table.Rows),
		"columns": len(table.Columns),
		"labels":  len(table.LabelCounts()),
	}).Info("dataset normalized")

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows survive normalization and filtering", metrics.ErrEmptyEvaluationSet)
	}

	if err := dataset.ResolveImages(table, p.opts.DataDir); err != nil {
		return nil, err
	}
	p.log.WithField("style", table.Style.String()).Info("images resolved")
	return table, nil
}

// preprocessAll decodes, crops and resizes every row's image across a
// bounded worker pool. Results land in a slice indexed by row, so the
// output order never depends on goroutine scheduling.
func (p *Pipeline) preprocessAll(ctx context.Context, table *dataset.Table) ([]preprocess.Tensor, error) {
	images := make([]preprocess.Tensor, len(table.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i := range table.Rows {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ref, err := table.ImageRef(i)
			if err != nil {
				return err
			}
			tensor, err := p.processor.Process(ref)
			if err != nil {
				row := table.Rows[i]
				return fmt.Errorf("row %s:%d: %w", row.Source, row.Line, err)
			}
			images[i] = tensor
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.WithField("images", len(images)).Info("preprocessing complete")
	return images, nil
}

// infer runs batches in construction order and remaps each prediction from
// the model vocabulary into the unified one.
func (p *Pipeline) infer(ctx context.Context, batches []batch.Batch, modelVocab, unified *vocab.Vocabulary) ([]int, error) {
	var yPred []int
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores, err := p.predictor.Predict(b)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		if len(scores) != b.Len() {
			return nil, fmt.Errorf("batch %d: %d score rows for %d examples", i, len(scores), b.Len())
		}
		for j, row := range scores {
			code, err := vocab.Remap(modelVocab, unified, model.ArgMax(row))
			if err != nil {
				return nil, fmt.Errorf("batch %d example %d: %w", i, j, err)
			}
			yPred = append(yPred, code)
		}
	}
	return yPred, nil
}
