package bodies

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBody matches any UnknownBodyError.
	ErrUnknownBody = errors.New("unknown body")

	// ErrInvalidHierarchy matches any InvalidHierarchyError.
	ErrInvalidHierarchy = errors.New("invalid body hierarchy")

	// ErrInvalidBody matches any InvalidBodyError.
	ErrInvalidBody = errors.New("invalid body")
)

// UnknownBodyError reports an id missing from a registry, or a name or
// ephemeris key that maps to no body.
type UnknownBodyError struct {
	ID  BodyID
	Key string
}

func (e *UnknownBodyError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("unknown body %q", e.Key)
	}
	return fmt.Sprintf("unknown body %s", e.ID)
}

// Is makes errors.Is(err, ErrUnknownBody) succeed.
func (e *UnknownBodyError) Is(target error) bool {
	return target == ErrUnknownBody
}

// InvalidHierarchyError reports a parent reference that is missing, cyclic,
// or breaks the star/planet/moon nesting rules.
type InvalidHierarchyError struct {
	ID     BodyID
	Parent BodyID
	Reason string
}

func (e *InvalidHierarchyError) Error() string {
	return fmt.Sprintf("invalid hierarchy at %s (parent %s): %s", e.ID, e.Parent, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidHierarchy) succeed.
func (e *InvalidHierarchyError) Is(target error) bool {
	return target == ErrInvalidHierarchy
}

// InvalidBodyError reports a catalog record with an out-of-range field.
type InvalidBodyError struct {
	ID     BodyID
	Reason string
}

func (e *InvalidBodyError) Error() string {
	return fmt.Sprintf("invalid body %s: %s", e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidBody) succeed.
func (e *InvalidBodyError) Is(target error) bool {
	return target == ErrInvalidBody
}
