package runtime

import (
	"cmp"
	"fmt"
	"slices"

	"able/records-go/pkg/ordered"
)

// Equal reports structural equality. Integers and floats compare by numeric
// value, lists element-wise, maps by their pair sets irrespective of order.
// Records and type definitions compare by identity.
func Equal(a, b Value) bool {
	if af, ok := numeric(a); ok {
		bf, ok := numeric(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok {
			return false
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.Len() {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *MapValue:
		bv, ok := b.(*MapValue)
		if !ok {
			return false
		}
		var ae, be *ordered.Map[Value, Value]
		if av != nil {
			ae = av.Entries
		}
		if bv != nil {
			be = bv.Entries
		}
		return ordered.EqualFunc(ae, be, Equal)
	default:
		return a == b
	}
}

// Compare orders two scalars. Numbers compare with numbers and strings with
// strings; any other pairing returns ErrNotComparable.
func Compare(a, b Value) (int, error) {
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return cmp.Compare(af, bf), nil
		}
	}
	if as, ok := a.(StringValue); ok {
		if bs, ok := b.(StringValue); ok {
			return cmp.Compare(as.Val, bs.Val), nil
		}
	}
	if ab, ok := a.(BoolValue); ok {
		if bb, ok := b.(BoolValue); ok {
			return cmp.Compare(boolRank(ab.Val), boolRank(bb.Val)), nil
		}
	}
	return 0, fmt.Errorf("compare %s with %s: %w", kindOf(a), kindOf(b), ErrNotComparable)
}

// Sorted returns an ascending copy of values, or ErrNotComparable when two of
// them cannot be ordered.
func Sorted(values []Value) ([]Value, error) {
	out := slices.Clone(values)
	var sortErr error
	slices.SortStableFunc(out, func(a, b Value) int {
		c, err := Compare(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func numeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntegerValue:
		return float64(n.Val), true
	case FloatValue:
		return n.Val, true
	default:
		return 0, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
