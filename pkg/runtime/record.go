package runtime

import (
	"fmt"

	"able/records-go/pkg/ordered"
)

// Attr is a named attribute value.
type Attr = ordered.Pair[string, Value]

// A builds an Attr.
func A(name string, value Value) Attr {
	return Attr{Key: name, Value: value}
}

// Tier names where an attribute binding lives.
type Tier int

const (
	TierNone Tier = iota
	TierOwned
	TierShared
)

func (t Tier) String() string {
	switch t {
	case TierOwned:
		return "owned"
	case TierShared:
		return "shared"
	default:
		return "none"
	}
}

//-----------------------------------------------------------------------------
// Type definitions
//-----------------------------------------------------------------------------

// TypeDefinition is a record type. Its shared tier is created once and is
// visible to every record of the type that has not shadowed a name.
type TypeDefinition struct {
	Name string
	Doc  string
	// Format renders records of this type for display. Nil selects the
	// generic Name{attr: value} layout.
	Format func(*Record) string

	shared   *Environment
	defaults *ordered.Map[string, Value]
}

func (d *TypeDefinition) Kind() Kind { return KindTypeDefinition }

// DefineType establishes a type and its shared tier.
func DefineType(name string, shared ...Attr) *TypeDefinition {
	def := &TypeDefinition{
		Name:     name,
		shared:   NewEnvironment(nil),
		defaults: ordered.New[string, Value](),
	}
	for _, attr := range shared {
		def.shared.Define(attr.Key, attr.Value)
	}
	return def
}

// SetShared writes the shared tier. Records that have not shadowed name see
// the new value immediately.
func (d *TypeDefinition) SetShared(name string, value Value) {
	d.shared.Define(name, value)
}

// Get reads the shared tier only.
func (d *TypeDefinition) Get(name string) (Value, error) {
	v, err := d.shared.Get(name)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", d.Name, err)
	}
	return v, nil
}

// SharedNames lists the shared attribute names in definition order.
func (d *TypeDefinition) SharedNames() []string {
	return d.shared.Keys()
}

// SetDefault registers an owned attribute every new record starts with. The
// value is deep-copied per record, so a container default is never aliased
// across records.
func (d *TypeDefinition) SetDefault(name string, value Value) {
	d.defaults.Set(name, value)
}

// Construct creates a record with a fresh owned tier. Defaults are copied in
// first, then the explicit owned attributes are applied in order.
func (d *TypeDefinition) Construct(owned ...Attr) *Record {
	rec := &Record{
		Definition: d,
		owned:      d.shared.Extend(),
	}
	for name, value := range d.defaults.All() {
		rec.owned.Define(name, Copy(value))
	}
	for _, attr := range owned {
		rec.owned.Define(attr.Key, attr.Value)
	}
	return rec
}

//-----------------------------------------------------------------------------
// Records
//-----------------------------------------------------------------------------

// Record is an instance of a TypeDefinition with its own owned tier.
type Record struct {
	Definition *TypeDefinition
	owned      *Environment
}

func (r *Record) Kind() Kind { return KindRecord }

// Get resolves name in the owned tier, then in the type's shared tier.
func (r *Record) Get(name string) (Value, error) {
	v, _, err := r.Lookup(name)
	return v, err
}

// Lookup is Get that also reports which tier answered.
func (r *Record) Lookup(name string) (Value, Tier, error) {
	v, env, err := r.owned.Resolve(name)
	if err != nil {
		return nil, TierNone, fmt.Errorf("%s: %w", r.Definition.Name, err)
	}
	if env == r.owned {
		return v, TierOwned, nil
	}
	return v, TierShared, nil
}

// SetOwned writes the owned tier, shadowing any shared binding of name for
// this record only.
func (r *Record) SetOwned(name string, value Value) {
	r.owned.Define(name, value)
}

// ClearOwned removes an owned binding so reads fall back to the shared tier.
func (r *Record) ClearOwned(name string) bool {
	return r.owned.Undefine(name)
}

// SetShared writes the shared tier of the record's type.
func (r *Record) SetShared(name string, value Value) {
	r.Definition.SetShared(name, value)
}

// OwnedNames lists the owned attribute names in definition order.
func (r *Record) OwnedNames() []string {
	return r.owned.Keys()
}

// MutateInPlace resolves name like Get and hands the container to mutate
// without rebinding it. A container resolved from the shared tier is the one
// every record of the type sees, so the change is visible to all of them.
func (r *Record) MutateInPlace(name string, mutate func(Value) error) (Tier, error) {
	v, tier, err := r.Lookup(name)
	if err != nil {
		return TierNone, err
	}
	switch v.(type) {
	case *ListValue, *MapValue:
	default:
		return tier, fmt.Errorf("%s.%s of kind %s: %w", r.Definition.Name, name, kindOf(v), ErrNotMutable)
	}
	if err := mutate(v); err != nil {
		return tier, err
	}
	return tier, nil
}

// Append appends to the list bound to name in place.
func (r *Record) Append(name string, elems ...Value) (Tier, error) {
	return r.MutateInPlace(name, func(v Value) error {
		list, ok := v.(*ListValue)
		if !ok {
			return fmt.Errorf("%s.%s is a %s, not a list: %w", r.Definition.Name, name, kindOf(v), ErrNotMutable)
		}
		list.Append(elems...)
		return nil
	})
}
