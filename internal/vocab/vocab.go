// Package vocab provides deterministic mappings between label strings and
// dense integer codes.
//
// Two vocabularies exist during an evaluation run: the unified vocabulary
// (dataset labels ∪ model classes, sorted) used for reporting, and the model
// vocabulary whose order matches the model's output columns. Model output
// indices are only meaningful relative to the model's own class ordering;
// Remap translates them into the unified code space.
package vocab

import (
	"errors"
	"fmt"
	"sort"
)

// Vocabulary errors. Both indicate a broken pipeline invariant rather than a
// user-correctable condition.
var (
	ErrUnknownLabel    = errors.New("label not in vocabulary")
	ErrIndexOutOfRange = errors.New("label index out of range")
)

// Vocabulary is an immutable bidirectional mapping between label strings and
// codes in [0, Len).
type Vocabulary struct {
	labels []string
	codes  map[string]int
}

// Fit builds a vocabulary from an arbitrary collection of labels. Duplicates
// are collapsed and the unique set is sorted lexicographically, so the same
// label set always produces the same codes.
func Fit(labels []string) *Vocabulary {
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		unique = append(unique, l)
	}
	sort.Strings(unique)

	codes := make(map[string]int, len(unique))
	for i, l := range unique {
		codes[l] = i
	}
	return &Vocabulary{labels: unique, codes: codes}
}

// FromClasses builds a vocabulary preserving the given order. This is how the
// model vocabulary is constructed: the position of each class name must match
// the model's output columns, so no sorting is applied.
func FromClasses(classes []string) (*Vocabulary, error) {
	codes := make(map[string]int, len(classes))
	labels := make([]string, len(classes))
	for i, l := range classes {
		if _, ok := codes[l]; ok {
			return nil, fmt.Errorf("duplicate class name %q at position %d", l, i)
		}
		codes[l] = i
		labels[i] = l
	}
	return &Vocabulary{labels: labels, codes: codes}, nil
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Labels returns a copy of the label list in code order.
func (v *Vocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

// Contains reports whether the label is part of the vocabulary.
func (v *Vocabulary) Contains(label string) bool {
	_, ok := v.codes[label]
	return ok
}

// Encode returns the code for a label.
func (v *Vocabulary) Encode(label string) (int, error) {
	code, ok := v.codes[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

// Decode returns the label for a code.
func (v *Vocabulary) Decode(code int) (string, error) {
	if code < 0 || code >= len(v.labels) {
		return "", fmt.Errorf("%w: %d (vocabulary size %d)", ErrIndexOutOfRange, code, len(v.labels))
	}
	return v.labels[code], nil
}

// Remap translates a predicted index from the model vocabulary into the
// unified vocabulary. The unified vocabulary is built as the union of model
// classes and dataset labels, so every label the model can emit must encode;
// a failure here means the vocabularies were built inconsistently.
func Remap(model, unified *Vocabulary, predicted int) (int, error) {
	label, err := model.Decode(predicted)
	if err != nil {
		return 0, fmt.Errorf("remap predicted index: %w", err)
	}
	code, err := unified.Encode(label)
	if err != nil {
		return 0, fmt.Errorf("remap label %q: %w", label, err)
	}
	return code, nil
}
