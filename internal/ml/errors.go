package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnNotFoundError reports a target that matches no column, even after
// case-insensitive matching.
type ColumnNotFoundError struct {
	Target    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found; available: %s", e.Target, strings.Join(e.Available, ", "))
}

// TrainingError wraps any failure while preparing, splitting, fitting or
// scoring. Training is never retried.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed during %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

var (
	ErrNoFeatures    = errors.New("no feature columns left after pruning")
	ErrTooFewClasses = errors.New("classification needs at least 2 distinct target classes")
	ErrTooFewRows    = errors.New("not enough rows to split into train and test sets")
)

func trainingErr(stage string, err error) error {
	return &TrainingError{Stage: stage, Err: err}
}
