package runtime

import (
	"fmt"

	"able/records-go/pkg/ordered"
)

// Environment is one tier of attribute bindings. Reads fall through to the
// parent tier on a miss; writes always land in the tier they are made on.
type Environment struct {
	values *ordered.Map[string, Value]
	parent *Environment
}

// NewEnvironment creates a new tier, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: ordered.New[string, Value](),
		parent: parent,
	}
}

// Parent exposes the fallback tier (nil for a type's shared tier).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Snapshot returns a copy of the local bindings in definition order.
func (e *Environment) Snapshot() *ordered.Map[string, Value] {
	return e.values.Clone()
}

// Define inserts or shadows a binding in this tier.
func (e *Environment) Define(name string, value Value) {
	e.values.Set(name, value)
}

// Undefine drops a local binding, exposing any binding further up the chain.
func (e *Environment) Undefine(name string) bool {
	return e.values.Delete(name)
}

// HasLocal reports whether name is bound in this tier itself.
func (e *Environment) HasLocal(name string) bool {
	return e.values.Has(name)
}

// Assign updates an existing binding in the first tier where it appears.
func (e *Environment) Assign(name string, value Value) error {
	if e.values.Has(name) {
		e.values.Set(name, value)
		return nil
	}
	if e.parent != nil {
		return e.parent.Assign(name, value)
	}
	return fmt.Errorf("undefined attribute '%s': %w", name, ErrAttributeNotFound)
}

// Get retrieves a binding, searching outward through the chain.
func (e *Environment) Get(name string) (Value, error) {
	v, _, err := e.Resolve(name)
	return v, err
}

// Resolve is Get that also reports the tier holding the binding.
func (e *Environment) Resolve(name string) (Value, *Environment, error) {
	if v, ok := e.values.Get(name); ok {
		return v, e, nil
	}
	if e.parent != nil {
		return e.parent.Resolve(name)
	}
	return nil, nil, fmt.Errorf("undefined attribute '%s': %w", name, ErrAttributeNotFound)
}

// Keys returns the local binding names in definition order.
func (e *Environment) Keys() []string {
	return e.values.Keys()
}

// Extend creates a child tier that falls back to e.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}
