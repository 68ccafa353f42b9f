// Package metrics computes accuracy, per-class statistics and the confusion
// matrix from aligned true and predicted label codes.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyEvaluationSet indicates there are no examples to score.
var ErrEmptyEvaluationSet = errors.New("empty evaluation set")

// ClassMetrics holds per-class precision/recall/F1 and support. Classes
// with no predicted or no true instances score 0 rather than failing.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Result is a full evaluation scorecard. Classes lists only the labels
// observed in either array, in unified-code order; the confusion matrix
// rows (true) and columns (predicted) follow the same order.
type Result struct {
	Accuracy  float64
	Classes   []string
	PerClass  []ClassMetrics
	Confusion *mat.Dense
}

// Accuracy returns the exact-match fraction.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, ErrEmptyEvaluationSet
	}
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("misaligned arrays: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// Evaluate scores aligned true and predicted unified-vocabulary codes.
// names maps every unified code to its label. When normalize is set, each
// confusion row is scaled to sum to 1 over its true class.
func Evaluate(yTrue, yPred []int, names []string, normalize bool) (*Result, error) {
	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	observed := observedCodes(yTrue, yPred)
	index := make(map[int]int, len(observed))
	classes := make([]string, len(observed))
	for i, code := range observed {
		if code < 0 || code >= len(names) {
			return nil, fmt.Errorf("label code %d outside unified vocabulary of size %d", code, len(names))
		}
		index[code] = i
		classes[i] = names[code]
	}

	n := len(observed)
	confusion := mat.NewDense(n, n, nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		confusion.Set(r, c, confusion.At(r, c)+1)
	}

	perClass := make([]ClassMetrics, n)
	for i := 0; i < n; i++ {
		tp := confusion.At(i, i)
		var rowSum, colSum float64
		for j := 0; j < n; j++ {
			rowSum += confusion.At(i, j)
			colSum += confusion.At(j, i)
		}

		var precision, recall, f1 float64
		if colSum > 0 {
			precision = tp / colSum
		}
		if rowSum > 0 {
			recall = tp / rowSum
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		perClass[i] = ClassMetrics{
			Label:     classes[i],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   int(rowSum),
		}
	}

	if normalize {
		for i := 0; i < n; i++ {
			var rowSum float64
			for j := 0; j < n; j++ {
				rowSum += confusion.At(i, j)
			}
			if rowSum == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				confusion.Set(i, j, confusion.At(i, j)/rowSum)
			}
		}
	}

	return &Result{
		Accuracy:  accuracy,
		Classes:   classes,
		PerClass:  perClass,
		Confusion: confusion,
	}, nil
}

// ConfusionRows returns the confusion matrix as plain row slices, for
// serialization.
func (r *Result) ConfusionRows() [][]float64 {
	n := len(r.Classes)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = r.Confusion.At(i, j)
		}
	}
	return rows
}

// observedCodes returns the sorted set of codes present in either array.
func observedCodes(yTrue, yPred []int) []int {
	seen := make(map[int]struct{})
	for _, c := range yTrue {
		seen[c] = struct{}{}
	}
	for _, c := range yPred {
		seen[c] = struct{}{}
	}
	codes := make([]int, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}
