package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"plankton-eval/internal/batch"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime brings up the ONNX runtime environment once per process.
// libraryPath may be empty when the onnxruntime shared library is on the
// default search path.
func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXPredictor runs a two-input ONNX classification model. The input
// order (features, image) is a fixed contract of the exported graph.
type ONNXPredictor struct {
	cfg     *Config
	session *ort.DynamicAdvancedSession
}

// NewONNXPredictor loads the model file and prepares a dynamic-shape
// session, so the final short batch needs no padding.
func NewONNXPredictor(cfg *Config, modelPath, libraryPath string) (*ONNXPredictor, error) {
	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{cfg.ONNX.FeaturesInput, cfg.ONNX.ImageInput},
		[]string{cfg.ONNX.Output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("load onnx model %s: %w", modelPath, err)
	}
	return &ONNXPredictor{cfg: cfg, session: session}, nil
}

// Predict scores a batch. Images are fed in NHWC layout as produced by the
// preprocessing pipeline.
func (p *ONNXPredictor) Predict(b batch.Batch) ([][]float32, error) {
	n := b.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty batch")
	}

	featDim := len(p.cfg.Features)
	featData := make([]float32, 0, n*featDim)
	for _, row := range b.Features {
		featData = append(featData, row...)
	}
	featTensor, err := ort.NewTensor(ort.NewShape(int64(n), int64(featDim)), featData)
	if err != nil {
		return nil, fmt.Errorf("build feature tensor: %w", err)
	}
	defer featTensor.Destroy()

	shape := p.cfg.InputShape
	imgData := make([]float32, 0, n*shape.Height*shape.Width*shape.Channels)
	for _, img := range b.Images {
		imgData = append(imgData, img.Data...)
	}
	imgTensor, err := ort.NewTensor(
		ort.NewShape(int64(n), int64(shape.Height), int64(shape.Width), int64(shape.Channels)),
		imgData,
	)
	if err != nil {
		return nil, fmt.Errorf("build image tensor: %w", err)
	}
	defer imgTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{featTensor, imgTensor}, outputs); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()

	numClasses := len(p.cfg.ClassNames)
	data := out.GetData()
	if len(data) != n*numClasses {
		return nil, fmt.Errorf("output has %d values, want %d (%d examples x %d classes)",
			len(data), n*numClasses, n, numClasses)
	}

	scores := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, numClasses)
		copy(row, data[i*numClasses:(i+1)*numClasses])
		scores[i] = row
	}
	return scores, nil
}

// Close releases the session.
func (p *ONNXPredictor) Close() error {
	return p.session.Destroy()
}
