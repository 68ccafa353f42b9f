package dataset

import "errors"

// Dataset errors. Every one of them is fatal: the dataset is a static local
// precondition, so a failure means malformed input, not a transient condition.
var (
	// ErrSchema indicates a required column is missing after normalization.
	ErrSchema = errors.New("dataset schema error")

	// ErrMissingImage indicates a referenced image file does not exist.
	ErrMissingImage = errors.New("referenced image missing")
)
