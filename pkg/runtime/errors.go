package runtime

import "errors"

var (
	// ErrAttributeNotFound is returned when a name resolves in neither the
	// owned nor the shared tier.
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrUnhashableKey rejects lists, maps and records as map keys.
	ErrUnhashableKey = errors.New("unhashable map key")
	ErrNotComparable = errors.New("values are not comparable")
	// ErrNotMutable is returned when an in-place mutation targets a scalar.
	ErrNotMutable = errors.New("value cannot be mutated in place")
)
