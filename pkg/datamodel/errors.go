package datamodel

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when a container already holds a child with the same name.
	ErrDuplicateName = errors.New("duplicate element name")

	// ErrDuplicateRelation is returned when a relation graph already holds a relation of that kind.
	ErrDuplicateRelation = errors.New("duplicate relation kind")

	// ErrReadOnlyValue is returned by elements whose value is always derived.
	ErrReadOnlyValue = errors.New("value cannot be set")

	// ErrNoEvaluator is returned when a scripted element is evaluated outside a model with an evaluator.
	ErrNoEvaluator = errors.New("no expression evaluator configured")

	// ErrInvalidValue is returned when a default value cannot be coerced to the element's type.
	ErrInvalidValue = errors.New("invalid element value")

	// ErrShortStream is returned when a bit stream has fewer bits than requested.
	ErrShortStream = errors.New("bit stream too short")
)

// DuplicateRelationError reports the rejected relation and the element whose graph refused it.
type DuplicateRelationError struct {
	Element string
	Kind    RelationKind
}

func (e *DuplicateRelationError) Error() string {
	return fmt.Sprintf("element %q already has a %s relation", e.Element, e.Kind)
}

func (e *DuplicateRelationError) Unwrap() error {
	return ErrDuplicateRelation
}
