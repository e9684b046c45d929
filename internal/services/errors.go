package services

import (
	"errors"
	"strings"
)

// Dashboard service errors
var (
	ErrNoEntities     = errors.New("no entities with price data")
	ErrEntityNotFound = errors.New("entity not found")
	ErrEmptyUniverse  = errors.New("universe is empty")
)

// UnknownEntitiesError lists selection keys that match no universe entity
type UnknownEntitiesError struct {
	Keys []string
}

func (e *UnknownEntitiesError) Error() string {
	return "unknown entities: " + strings.Join(e.Keys, ", ")
}

// Unwrap makes errors.Is(err, ErrEntityNotFound) hold
func (e *UnknownEntitiesError) Unwrap() error {
	return ErrEntityNotFound
}
