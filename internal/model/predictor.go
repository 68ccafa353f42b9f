package model

import "plankton-eval/internal/batch"

// Predictor is the opaque inference capability. Predict scores one batch
// and returns one row of per-class scores per input example, columns
// ordered exactly as Config.ClassNames. Implementations must be safe for
// concurrent calls.
type Predictor interface {
	Predict(b batch.Batch) ([][]float32, error)
}

// ArgMax returns the index of the largest score. Ties resolve to the
// earliest class, matching the model vocabulary order.
func ArgMax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
