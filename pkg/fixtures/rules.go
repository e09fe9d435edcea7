package fixtures

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"able/records-go/pkg/ordered"
	"able/records-go/pkg/runtime"
)

// rewrite maps one value to another.
type rewrite func(runtime.Value) (runtime.Value, error)

// guard tests an original value.
type guard func(runtime.Value) (bool, error)

type operation struct {
	name    string
	operand runtime.Value
}

// compileRewrite turns a mapping such as {mul: 1.5, add: 1} into a closure
// applying each operation in document order. An absent node is the identity.
func compileRewrite(node *yaml.Node) (rewrite, error) {
	ops, err := decodeOperations(node)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if _, ok := arithmetic[op.name]; !ok {
			return nil, fmt.Errorf("line %d: unknown rewrite %q", node.Line, op.name)
		}
	}
	return func(v runtime.Value) (runtime.Value, error) {
		var err error
		for _, op := range ops {
			v, err = arithmetic[op.name](v, op.operand)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", op.name, runtime.Display(op.operand), err)
			}
		}
		return v, nil
	}, nil
}

// compileGuard turns a mapping such as {gt: 2.0, le: 10} into a predicate
// that holds when every comparison does. An absent node always holds.
func compileGuard(node *yaml.Node) (guard, error) {
	ops, err := decodeOperations(node)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if _, ok := comparisons[op.name]; !ok {
			return nil, fmt.Errorf("line %d: unknown comparison %q", node.Line, op.name)
		}
	}
	return func(v runtime.Value) (bool, error) {
		for _, op := range ops {
			if op.name == "eq" || op.name == "ne" {
				if runtime.Equal(v, op.operand) != (op.name == "eq") {
					return false, nil
				}
				continue
			}
			c, err := runtime.Compare(v, op.operand)
			if err != nil {
				return false, err
			}
			if !comparisons[op.name](c) {
				return false, nil
			}
		}
		return true, nil
	}, nil
}

func decodeOperations(node *yaml.Node) ([]operation, error) {
	if !present(*node) {
		return nil, nil
	}
	entries, err := decodeEntries(node)
	if err != nil {
		return nil, err
	}
	ops := make([]operation, 0, len(entries))
	for _, e := range entries {
		name, ok := e.Key.(runtime.StringValue)
		if !ok {
			return nil, fmt.Errorf("line %d: operation names must be strings", node.Line)
		}
		ops = append(ops, operation{name: name.Val, operand: e.Value})
	}
	return ops, nil
}

var comparisons = map[string]func(int) bool{
	"gt": func(c int) bool { return c > 0 },
	"ge": func(c int) bool { return c >= 0 },
	"lt": func(c int) bool { return c < 0 },
	"le": func(c int) bool { return c <= 0 },
	"eq": func(c int) bool { return c == 0 },
	"ne": func(c int) bool { return c != 0 },
}

// ErrArithmetic reports integer overflow, division by zero or a result that
// is not a finite number.
var ErrArithmetic = errors.New("arithmetic error")

// errNotIntegral sends an integer operation down the float path.
var errNotIntegral = errors.New("result is not an integer")

var arithmetic = map[string]func(v, operand runtime.Value) (runtime.Value, error){
	"add": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, addInt, func(a, b float64) (float64, error) { return a + b, nil })
	},
	"sub": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, subInt, func(a, b float64) (float64, error) { return a - b, nil })
	},
	"mul": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, mulInt, func(a, b float64) (float64, error) { return a * b, nil })
	},
	"div": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, func(int64, int64) (int64, error) { return 0, errNotIntegral }, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero: %w", ErrArithmetic)
			}
			return a / b, nil
		})
	},
	"mod": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, modInt, modFloat)
	},
	"pow": func(v, o runtime.Value) (runtime.Value, error) {
		return numericOp(v, o, powInt, func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
	},
	"set": func(_, o runtime.Value) (runtime.Value, error) {
		return o, nil
	},
	"prefix": func(v, o runtime.Value) (runtime.Value, error) {
		return concat(o, v)
	},
	"suffix": func(v, o runtime.Value) (runtime.Value, error) {
		return concat(v, o)
	},
}

// numericOp applies ints when both operands are integers and floats
// otherwise. Floats also run when ints returns errNotIntegral.
func numericOp(v, o runtime.Value, ints func(a, b int64) (int64, error), floats func(a, b float64) (float64, error)) (runtime.Value, error) {
	ai, aInt := v.(runtime.IntegerValue)
	bi, bInt := o.(runtime.IntegerValue)
	if aInt && bInt {
		r, err := ints(ai.Val, bi.Val)
		if err == nil {
			return runtime.Int(r), nil
		}
		if !errors.Is(err, errNotIntegral) {
			return nil, err
		}
	}
	af, ok := asFloat(v)
	if !ok {
		return nil, fmt.Errorf("%s is not a number", runtime.Display(v))
	}
	bf, ok := asFloat(o)
	if !ok {
		return nil, fmt.Errorf("%s is not a number", runtime.Display(o))
	}
	r, err := floats(af, bf)
	if err != nil {
		return nil, err
	}
	if !isFinite(r) && isFinite(af) && isFinite(bf) {
		return nil, fmt.Errorf("%s is not finite: %w", runtime.Display(runtime.Float(r)), ErrArithmetic)
	}
	return runtime.Float(r), nil
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func overflow(op string, a, b int64) error {
	return fmt.Errorf("integer overflow in %d %s %d: %w", a, op, b, ErrArithmetic)
}

func addInt(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, overflow("+", a, b)
	}
	return a + b, nil
}

func subInt(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, overflow("-", a, b)
	}
	return a - b, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, overflow("*", a, b)
	}
	r := a * b
	if r/b != a {
		return 0, overflow("*", a, b)
	}
	return r, nil
}

// modInt takes the sign of the divisor.
func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("modulo by zero: %w", ErrArithmetic)
	}
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, nil
}

func modFloat(a, b float64) (float64, error) {
	if b == 0 {
		return 0, fmt.Errorf("modulo by zero: %w", ErrArithmetic)
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, nil
}

// powInt squares its way up so the loop runs once per bit of exp, stopping
// at the first overflow. Negative exponents yield floats.
func powInt(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, errNotIntegral
	}
	result := int64(1)
	for exp > 0 {
		var err error
		if exp&1 == 1 {
			if result, err = mulInt(result, base); err != nil {
				return 0, err
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, err = mulInt(base, base); err != nil {
				return 0, err
			}
		}
	}
	return result, nil
}

func asFloat(v runtime.Value) (float64, bool) {
	switch n := v.(type) {
	case runtime.IntegerValue:
		return float64(n.Val), true
	case runtime.FloatValue:
		return n.Val, true
	default:
		return 0, false
	}
}

func concat(a, b runtime.Value) (runtime.Value, error) {
	as, aok := a.(runtime.StringValue)
	bs, bok := b.(runtime.StringValue)
	if !aok || !bok {
		return nil, fmt.Errorf("cannot concatenate %s and %s", runtime.Display(a), runtime.Display(b))
	}
	return runtime.Str(as.Val + bs.Val), nil
}

// applyRule rebuilds src under rule without touching src.
func applyRule(src *runtime.MapValue, rule *RuleSpec) (*runtime.MapValue, error) {
	when, err := compileGuard(&rule.When)
	if err != nil {
		return nil, err
	}
	keyRule, err := compileRewrite(&rule.Key)
	if err != nil {
		return nil, err
	}
	valueRule, err := compileRewrite(&rule.Value)
	if err != nil {
		return nil, err
	}

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	entries := src.Entries
	if rule.Drop {
		entries = ordered.Filter(entries, func(_ runtime.Value, v runtime.Value) bool {
			ok, err := when(v)
			if err != nil {
				fail(err)
			}
			return ok
		})
	}
	out := ordered.Transform(entries, func(k, v runtime.Value) (runtime.Value, runtime.Value) {
		ok, err := when(v)
		if err != nil {
			fail(err)
			return k, v
		}
		if !ok {
			return k, v
		}
		nk, err := keyRule(k)
		if err != nil {
			fail(err)
			return k, v
		}
		nv, err := valueRule(v)
		if err != nil {
			fail(err)
			return k, v
		}
		return nk, nv
	})
	if firstErr != nil {
		return nil, firstErr
	}
	for k := range out.All() {
		if !runtime.IsHashable(k) {
			return nil, fmt.Errorf("rewritten key %s: %w", runtime.Display(k), runtime.ErrUnhashableKey)
		}
	}
	return &runtime.MapValue{Entries: out}, nil
}

// comprehend builds a map keyed by each element of from, valued by rule
// applied to the element, skipping elements that fail the guard.
func comprehend(from *runtime.ListValue, valueNode, whenNode *yaml.Node) (*runtime.MapValue, error) {
	valueRule, err := compileRewrite(valueNode)
	if err != nil {
		return nil, err
	}
	when, err := compileGuard(whenNode)
	if err != nil {
		return nil, err
	}
	var firstErr error
	out := ordered.Collect(func(yield func(runtime.Value, runtime.Value) bool) {
		for _, el := range from.Elements {
			if !runtime.IsHashable(el) {
				firstErr = fmt.Errorf("element %s: %w", runtime.Display(el), runtime.ErrUnhashableKey)
				return
			}
			ok, err := when(el)
			if err != nil {
				firstErr = err
				return
			}
			if !ok {
				continue
			}
			v, err := valueRule(el)
			if err != nil {
				firstErr = err
				return
			}
			if !yield(el, v) {
				return
			}
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return &runtime.MapValue{Entries: out}, nil
}
