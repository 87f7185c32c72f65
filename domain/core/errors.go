package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrPracticeNotFound = fmt.Errorf("%w: practice", ErrNotFound)
	ErrPeriodNotFound   = fmt.Errorf("%w: period", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("%w: metric record", ErrNotFound)

	// Input errors
	ErrMissingInput  = errors.New("required raw counts absent")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrInvalidPeriod = errors.New("invalid period")

	// Analysis errors
	ErrUndefinedMetric  = errors.New("metric value undefined for record")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptyPopulation  = errors.New("ranking population is empty")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingInputError(ods, period string, source string) error {
	return fmt.Errorf("%w: %s for practice %s period %s", ErrMissingInput, source, ods, period)
}

func NewUndefinedMetricError(metric string, ods string) error {
	return fmt.Errorf("%w: %s on practice %s", ErrUndefinedMetric, metric, ods)
}

func NewInsufficientDataError(metric string, have, want int) error {
	return fmt.Errorf("%w: %s has %d periods, need %d", ErrInsufficientData, metric, have, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsUndefinedMetric(err error) bool {
	return errors.Is(err, ErrUndefinedMetric)
}
