package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput             = errors.New("empty input")
	ErrInsufficientPopulation = errors.New("insufficient population")
	ErrInsufficientData       = errors.New("insufficient data")
	ErrModelFit               = errors.New("model fit failed")
	ErrInvalidFeature         = errors.New("invalid feature")
	ErrInvalidTrainOptions    = errors.New("invalid train options")
	ErrNotFound               = errors.New("not found")
	ErrCorruptArtifact        = errors.New("corrupt model artifact")
)

// EmptyInputError is returned when a batch stage receives no rows.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: %s: 0 rows supplied", e.Stage, ErrEmptyInput)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// InsufficientPopulationError reports a metric that cannot be cut into
// quartiles without collapsing bins.
type InsufficientPopulationError struct {
	Metric    string
	Distinct  int
	Required  int
	Customers int
}

func (e *InsufficientPopulationError) Error() string {
	return fmt.Sprintf("%s: metric %s has %d distinct values across %d customers, need %d non-degenerate quartile bins",
		ErrInsufficientPopulation, e.Metric, e.Distinct, e.Customers, e.Required)
}

func (e *InsufficientPopulationError) Unwrap() error { return ErrInsufficientPopulation }

// InsufficientDataError reports too few rows to train and evaluate.
type InsufficientDataError struct {
	Rows     int
	Required int
	Detail   string
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("%s: got %d rows, need at least %d", ErrInsufficientData, e.Rows, e.Required)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// ModelFitError wraps a failed regression fit.
type ModelFitError struct {
	Reason string
	Err    error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrModelFit, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrModelFit, e.Reason)
}

func (e *ModelFitError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrModelFit, e.Err}
	}
	return []error{ErrModelFit}
}

// InvalidFeatureError rejects a single prediction query.
type InvalidFeatureError struct {
	Feature string
	Value   float64
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("%s: %s must be a finite number >= 0, got %v", ErrInvalidFeature, e.Feature, e.Value)
}

func (e *InvalidFeatureError) Unwrap() error { return ErrInvalidFeature }
