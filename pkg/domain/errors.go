package domain

import "errors"

// ErrLeafContainer is returned when a child is appended to a type that never accepts children.
var ErrLeafContainer = errors.New("element type does not accept children")

// ErrCycle is returned when an insert would make a node its own ancestor.
var ErrCycle = errors.New("element cannot be nested inside itself or its descendants")

// ErrNilChild is returned when a nil child is appended.
var ErrNilChild = errors.New("child element is nil")

// ErrDestroyed is returned when a destroyed element is mutated.
var ErrDestroyed = errors.New("element has been destroyed")

// ErrDuplicateID is returned when a payload contains the same id twice.
var ErrDuplicateID = errors.New("duplicate element id")

// ErrInvalidElement is returned when element data is missing required fields.
var ErrInvalidElement = errors.New("invalid element data")

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")
