package marketmetrics

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-entity computation failure
type ErrorKind string

const (
	KindInsufficientData         ErrorKind = "INSUFFICIENT_DATA"
	KindInvalidPrice             ErrorKind = "INVALID_PRICE"
	KindMissingSharesOutstanding ErrorKind = "MISSING_SHARES_OUTSTANDING"
	KindInvalidSeries            ErrorKind = "INVALID_SERIES"
)

// Sentinel errors matched by errors.Is against a *MetricError
var (
	ErrInsufficientData         = errors.New("insufficient data")
	ErrInvalidPrice             = errors.New("invalid price")
	ErrMissingSharesOutstanding = errors.New("missing shares outstanding")
	ErrInvalidSeries            = errors.New("invalid price series")
)

// MetricError describes why a computation could not be performed for an entity
type MetricError struct {
	Kind   ErrorKind
	Entity string
	Op     string
	Detail string
}

// Error implements the error interface
func (e *MetricError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Entity != "" {
		msg = fmt.Sprintf("%s (entity %s)", msg, e.Entity)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel matching the error kind
func (e *MetricError) Unwrap() error {
	switch e.Kind {
	case KindInsufficientData:
		return ErrInsufficientData
	case KindInvalidPrice:
		return ErrInvalidPrice
	case KindMissingSharesOutstanding:
		return ErrMissingSharesOutstanding
	case KindInvalidSeries:
		return ErrInvalidSeries
	default:
		return nil
	}
}

func newMetricError(kind ErrorKind, op, detail string) *MetricError {
	return &MetricError{Kind: kind, Op: op, Detail: detail}
}

// withEntity returns err tagged with the entity name when it is a *MetricError
func withEntity(err error, entity string) error {
	var me *MetricError
	if errors.As(err, &me) {
		cp := *me
		cp.Entity = entity
		return &cp
	}
	return fmt.Errorf("entity %s: %w", entity, err)
}

// FailureFromError converts a computation error into a report entry
func FailureFromError(err error) EntityFailure {
	var me *MetricError
	if errors.As(err, &me) {
		return EntityFailure{Entity: me.Entity, Op: me.Op, Kind: me.Kind, Detail: me.Detail}
	}
	return EntityFailure{Detail: err.Error()}
}
