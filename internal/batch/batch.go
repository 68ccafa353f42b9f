// Package batch pairs per-row feature vectors with preprocessed image
// tensors and groups them into fixed-size batches for inference.
package batch

import (
	"errors"
	"fmt"

	"plankton-eval/internal/dataset"
	"plankton-eval/internal/preprocess"
)

// ErrFeatureExtraction indicates a configured feature is missing or
// non-numeric in a row.
var ErrFeatureExtraction = errors.New("feature extraction failed")

// Batch is one fixed-size group of model inputs with aligned true-label
// codes. Start is the index of the batch's first row in the evaluation
// order, so predictions can always be zipped back against their rows.
type Batch struct {
	Start    int
	Features [][]float32
	Images   []preprocess.Tensor
	Labels   []int
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Images)
}

// Features reads the configured feature names in order from a row and casts
// them to float32. The name order is the model's input contract.
func Features(row dataset.Row, names []string) ([]float32, error) {
	out := make([]float32, len(names))
	for i, name := range names {
		if _, ok := row.Values[name]; !ok {
			return nil, fmt.Errorf("%w: row %s:%d: feature column %s absent",
				ErrFeatureExtraction, row.Source, row.Line, name)
		}
		v, err := row.Float(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeatureExtraction, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// Assemble splits aligned per-row inputs into batches of the given size.
// The final batch may be smaller; concatenating batches in order
// reconstructs the original row order exactly.
func Assemble(features [][]float32, images []preprocess.Tensor, labels []int, size int) ([]Batch, error) {
	if len(features) != len(images) || len(features) != len(labels) {
		return nil, fmt.Errorf("misaligned inputs: %d features, %d images, %d labels",
			len(features), len(images), len(labels))
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", size)
	}

	var batches []Batch
	for start := 0; start < len(features); start += size {
		end := start + size
		if end > len(features) {
			end = len(features)
		}
		batches = append(batches, Batch{
			Start:    start,
			Features: features[start:end],
			Images:   images[start:end],
			Labels:   labels[start:end],
		})
	}
	return batches, nil
}
