package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Display renders a value for human inspection. It never mutates state.
// Strings render bare at the top level and quoted inside collections.
func Display(val Value) string {
	if s, ok := val.(StringValue); ok {
		return s.Val
	}
	return valueToString(val)
}

func valueToString(val Value) string {
	switch v := val.(type) {
	case StringValue:
		return strconv.Quote(v.Val)
	case BoolValue:
		if v.Val {
			return "true"
		}
		return "false"
	case IntegerValue:
		return strconv.FormatInt(v.Val, 10)
	case FloatValue:
		return formatFloat(v.Val)
	case NilValue:
		return "nil"
	case *ListValue:
		if v == nil {
			return "[]"
		}
		parts := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			parts = append(parts, valueToString(el))
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case *MapValue:
		if v == nil {
			return "{}"
		}
		parts := make([]string, 0, v.Len())
		for k, el := range v.Entries.All() {
			parts = append(parts, valueToString(k)+": "+valueToString(el))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case *Record:
		return v.String()
	case *TypeDefinition:
		return v.String()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%s>", val.Kind())
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// String renders the type as <type Name>.
func (d *TypeDefinition) String() string {
	if d == nil {
		return "<type>"
	}
	return fmt.Sprintf("<type %s>", d.Name)
}

// String uses the type's Format when set, otherwise Name{attr: value, ...}
// over the owned tier.
func (r *Record) String() string {
	if r == nil {
		return "<nil record>"
	}
	if r.Definition.Format != nil {
		return r.Definition.Format(r)
	}
	parts := make([]string, 0, len(r.OwnedNames()))
	for name, v := range r.owned.values.All() {
		parts = append(parts, name+": "+valueToString(v))
	}
	return fmt.Sprintf("%s{%s}", r.Definition.Name, strings.Join(parts, ", "))
}
