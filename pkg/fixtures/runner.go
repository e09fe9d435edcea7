package fixtures

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"able/records-go/pkg/ordered"
	"able/records-go/pkg/runtime"
)

const floatTolerance = 1e-9

var errorCodes = map[string]error{
	"key_not_found":       ordered.ErrKeyNotFound,
	"attribute_not_found": runtime.ErrAttributeNotFound,
	"unhashable_key":      runtime.ErrUnhashableKey,
	"not_comparable":      runtime.ErrNotComparable,
	"not_mutable":         runtime.ErrNotMutable,
	"arithmetic":          ErrArithmetic,
}

// Failure records one step whose outcome did not match its expectation.
type Failure struct {
	Step    int
	Op      string
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Op, f.Message)
}

// Result summarises one fixture run.
type Result struct {
	Name     string
	Path     string
	Steps    int
	Failures []Failure
	Output   []string
}

func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Runner executes fixtures. Each run starts from empty state with fresh Day
// and Month types registered.
type Runner struct {
	logger *zap.Logger
	out    io.Writer
}

// NewRunner returns a runner. A nil logger is replaced by a no-op logger and
// display output is written to out when it is non-nil.
func NewRunner(logger *zap.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, out: out}
}

// RunAll runs every fixture in order.
func (r *Runner) RunAll(fixtures []*Fixture) []*Result {
	results := make([]*Result, 0, len(fixtures))
	for _, fx := range fixtures {
		results = append(results, r.Run(fx))
	}
	return results
}

// Run executes every step of fx. A failing step is recorded and the run
// continues with the next one.
func (r *Runner) Run(fx *Fixture) *Result {
	res := &Result{Name: fx.Name, Path: fx.Path}
	st := newState()
	logger := r.logger.With(zap.String("fixture", fx.Name))
	for i := range fx.Steps {
		step := &fx.Steps[i]
		res.Steps++
		out, err := st.exec(step)
		if err == nil {
			err = st.checkLen(step)
		}
		for _, line := range out {
			res.Output = append(res.Output, line)
			if r.out != nil {
				fmt.Fprintln(r.out, line)
			}
		}
		if err != nil {
			logger.Debug("step failed", zap.Int("step", i), zap.String("op", step.Op), zap.Error(err))
			res.Failures = append(res.Failures, Failure{Step: i, Op: step.Op, Message: err.Error()})
			continue
		}
		logger.Debug("step passed", zap.Int("step", i), zap.String("op", step.Op))
	}
	if res.Passed() {
		logger.Info("fixture passed", zap.Int("steps", res.Steps))
	} else {
		logger.Warn("fixture failed", zap.Int("steps", res.Steps), zap.Int("failures", len(res.Failures)))
	}
	return res
}

type state struct {
	maps       map[string]*runtime.MapValue
	types      map[string]*runtime.TypeDefinition
	records    map[string]*runtime.Record
	aggregates map[string]*runtime.Aggregate
}

func newState() *state {
	return &state{
		maps: make(map[string]*runtime.MapValue),
		types: map[string]*runtime.TypeDefinition{
			"Day":   runtime.DefineDayType(),
			"Month": runtime.DefineMonthType(),
		},
		records:    make(map[string]*runtime.Record),
		aggregates: make(map[string]*runtime.Aggregate),
	}
}

// exec runs step and checks its expectation. Output lines are returned for
// display steps.
func (st *state) exec(s *Step) ([]string, error) {
	got, out, err := st.dispatch(s)
	if s.ExpectError != "" {
		want := errorCodes[s.ExpectError]
		if err == nil {
			return out, fmt.Errorf("expected error %s, got %s", s.ExpectError, describe(got))
		}
		if !errors.Is(err, want) {
			return out, fmt.Errorf("expected error %s, got %v", s.ExpectError, err)
		}
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if !present(s.Expect) {
		return out, nil
	}
	want, err := decodeValue(&s.Expect)
	if err != nil {
		return out, fmt.Errorf("expect: %w", err)
	}
	if !matches(want, got) {
		return out, fmt.Errorf("expected %s, got %s", runtime.Display(want), describe(got))
	}
	return out, nil
}

func (st *state) dispatch(s *Step) (runtime.Value, []string, error) {
	switch s.Op {
	case "display":
		return st.display(s)
	case "aggregate_list":
		return st.aggregateList(s)
	}
	var v runtime.Value
	var err error
	switch {
	case strings.HasPrefix(s.Op, "map_"):
		v, err = st.mapOp(s)
	case strings.HasPrefix(s.Op, "type_"):
		v, err = st.typeOp(s)
	case strings.HasPrefix(s.Op, "record_"):
		v, err = st.recordOp(s)
	case strings.HasPrefix(s.Op, "aggregate_"):
		v, err = st.aggregateOp(s)
	default:
		err = fmt.Errorf("unknown op %q", s.Op)
	}
	return v, nil, err
}

//-----------------------------------------------------------------------------
// Maps
//-----------------------------------------------------------------------------

func (st *state) mapOp(s *Step) (runtime.Value, error) {
	if s.Op == "map_new" {
		m, err := st.pairs(&s.Pairs)
		if err != nil {
			return nil, err
		}
		st.maps[s.Map] = m
		return m, nil
	}
	if s.Op == "map_comprehend" {
		from, err := decodeValue(&s.From)
		if err != nil {
			return nil, err
		}
		list, ok := from.(*runtime.ListValue)
		if !ok {
			return nil, fmt.Errorf("from must be a sequence, got %s", runtime.Display(from))
		}
		var when yaml.Node
		if s.Rule != nil {
			when = s.Rule.When
		}
		m, err := comprehend(list, &s.Value, &when)
		if err != nil {
			return nil, err
		}
		st.maps[s.Map] = m
		return m, nil
	}

	m, err := st.lookupMap(s.Map)
	if err != nil {
		return nil, err
	}
	switch s.Op {
	case "map_set":
		key, value, err := decodeKeyValue(s)
		if err != nil {
			return nil, err
		}
		if err := m.Set(key, value); err != nil {
			return nil, err
		}
		return m, nil
	case "map_delete":
		key, err := decodeValue(&s.Key)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(m.Entries.Delete(key)), nil
	case "map_has":
		key, err := decodeValue(&s.Key)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(m.Entries.Has(key)), nil
	case "map_get":
		key, err := decodeValue(&s.Key)
		if err != nil {
			return nil, err
		}
		return m.Entries.Lookup(key)
	case "map_keys":
		return runtime.NewList(m.Entries.Keys()...), nil
	case "map_values":
		return runtime.NewList(m.Entries.Values()...), nil
	case "map_sorted_keys":
		sorted, err := runtime.Sorted(m.Entries.Keys())
		if err != nil {
			return nil, err
		}
		return runtime.NewList(sorted...), nil
	case "map_sorted_values":
		sorted, err := runtime.Sorted(m.Entries.Values())
		if err != nil {
			return nil, err
		}
		return runtime.NewList(sorted...), nil
	case "map_len":
		return runtime.Int(int64(m.Len())), nil
	case "map_transform":
		out, err := applyRule(m, s.Rule)
		if err != nil {
			return nil, err
		}
		st.maps[s.Into] = out
		return out, nil
	case "map_equal":
		var other *runtime.MapValue
		if s.Other != "" {
			other, err = st.lookupMap(s.Other)
		} else {
			other, err = st.pairs(&s.Pairs)
		}
		if err != nil {
			return nil, err
		}
		eq := runtime.Equal(m, other)
		if !present(s.Expect) && !eq {
			return nil, fmt.Errorf("maps differ: %s vs %s", runtime.Display(m), runtime.Display(other))
		}
		return runtime.Bool(eq), nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func (st *state) pairs(node *yaml.Node) (*runtime.MapValue, error) {
	if !present(*node) {
		return runtime.NewMap()
	}
	entries, err := decodeEntries(node)
	if err != nil {
		return nil, err
	}
	return runtime.NewMap(entries...)
}

func (st *state) lookupMap(name string) (*runtime.MapValue, error) {
	m, ok := st.maps[name]
	if !ok {
		return nil, fmt.Errorf("map %q is not defined", name)
	}
	return m, nil
}

func decodeKeyValue(s *Step) (runtime.Value, runtime.Value, error) {
	key, err := decodeValue(&s.Key)
	if err != nil {
		return nil, nil, err
	}
	value, err := decodeValue(&s.Value)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

//-----------------------------------------------------------------------------
// Types and records
//-----------------------------------------------------------------------------

func (st *state) typeOp(s *Step) (runtime.Value, error) {
	if s.Op == "type_define" {
		shared, err := decodeAttrs(&s.Shared)
		if err != nil {
			return nil, err
		}
		defaults, err := decodeAttrs(&s.Defaults)
		if err != nil {
			return nil, err
		}
		def := runtime.DefineType(s.Type, shared...)
		def.Doc = s.Doc
		for _, d := range defaults {
			def.SetDefault(d.Key, d.Value)
		}
		st.types[s.Type] = def
		return def, nil
	}
	def, err := st.lookupType(s.Type)
	if err != nil {
		return nil, err
	}
	switch s.Op {
	case "type_set":
		value, err := decodeValue(&s.Value)
		if err != nil {
			return nil, err
		}
		def.SetShared(s.Attr, value)
		return value, nil
	case "type_get":
		return def.Get(s.Attr)
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func (st *state) recordOp(s *Step) (runtime.Value, error) {
	if s.Op == "record_new" {
		def, err := st.lookupType(s.Type)
		if err != nil {
			return nil, err
		}
		owned, err := decodeAttrs(&s.Owned)
		if err != nil {
			return nil, err
		}
		rec := def.Construct(owned...)
		st.records[s.Record] = rec
		return rec, nil
	}
	rec, err := st.lookupRecord(s.Record)
	if err != nil {
		return nil, err
	}
	switch s.Op {
	case "record_get":
		v, tier, err := rec.Lookup(s.Attr)
		if err != nil {
			return nil, err
		}
		return v, checkTier(s, tier)
	case "record_set":
		value, err := decodeValue(&s.Value)
		if err != nil {
			return nil, err
		}
		rec.SetOwned(s.Attr, value)
		return value, nil
	case "record_clear":
		return runtime.Bool(rec.ClearOwned(s.Attr)), nil
	case "record_append":
		value, err := decodeValue(&s.Value)
		if err != nil {
			return nil, err
		}
		tier, err := rec.Append(s.Attr, value)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get(s.Attr)
		return v, checkTier(s, tier)
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func checkTier(s *Step, tier runtime.Tier) error {
	if s.ExpectTier != "" && s.ExpectTier != tier.String() {
		return fmt.Errorf("expected %s tier, got %s", s.ExpectTier, tier)
	}
	return nil
}

func (st *state) lookupType(name string) (*runtime.TypeDefinition, error) {
	def, ok := st.types[name]
	if !ok {
		return nil, fmt.Errorf("type %q is not defined", name)
	}
	return def, nil
}

func (st *state) lookupRecord(name string) (*runtime.Record, error) {
	rec, ok := st.records[name]
	if !ok {
		return nil, fmt.Errorf("record %q is not defined", name)
	}
	return rec, nil
}

//-----------------------------------------------------------------------------
// Aggregates
//-----------------------------------------------------------------------------

func (st *state) aggregateOp(s *Step) (runtime.Value, error) {
	discriminant, err := decodeValue(&s.Discriminant)
	if err != nil {
		return nil, err
	}
	switch s.Op {
	case "aggregate_new":
		typeName := s.Type
		if typeName == "" {
			typeName = "Month"
		}
		def, err := st.lookupType(typeName)
		if err != nil {
			return nil, err
		}
		keyAttr, childrenAttr := s.KeyAttr, s.ChildrenAttr
		if keyAttr == "" {
			keyAttr = "month"
		}
		if childrenAttr == "" {
			childrenAttr = "days"
		}
		agg := runtime.NewAggregate(def, keyAttr, childrenAttr, discriminant)
		st.aggregates[s.Aggregate] = agg
		return agg.Record, nil
	case "aggregate_add":
		agg, err := st.lookupAggregate(s.Aggregate)
		if err != nil {
			return nil, err
		}
		child, err := st.lookupRecord(s.Child)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(agg.AddChild(discriminant, child)), nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func (st *state) aggregateList(s *Step) (runtime.Value, []string, error) {
	agg, err := st.lookupAggregate(s.Aggregate)
	if err != nil {
		return nil, nil, err
	}
	discriminant, err := decodeValue(&s.Discriminant)
	if err != nil {
		return nil, nil, err
	}
	lines := agg.DisplayChildren(discriminant)
	elems := make([]runtime.Value, len(lines))
	for i, line := range lines {
		elems[i] = runtime.Str(line)
	}
	return runtime.NewList(elems...), lines, nil
}

func (st *state) lookupAggregate(name string) (*runtime.Aggregate, error) {
	agg, ok := st.aggregates[name]
	if !ok {
		return nil, fmt.Errorf("aggregate %q is not defined", name)
	}
	return agg, nil
}

//-----------------------------------------------------------------------------
// Display and expectations
//-----------------------------------------------------------------------------

// display renders a named record, map, type or aggregate. Records win over
// maps of the same name, then types, then aggregates.
func (st *state) display(s *Step) (runtime.Value, []string, error) {
	var text string
	if rec, ok := st.records[s.Target]; ok {
		text = rec.String()
	} else if m, ok := st.maps[s.Target]; ok {
		text = runtime.Display(m)
	} else if def, ok := st.types[s.Target]; ok {
		text = def.String()
	} else if agg, ok := st.aggregates[s.Target]; ok {
		text = agg.Record.String()
	} else {
		return nil, nil, fmt.Errorf("nothing named %q to display", s.Target)
	}
	return runtime.Str(text), []string{text}, nil
}

func (st *state) checkLen(s *Step) error {
	if s.ExpectLen == nil {
		return nil
	}
	var n int
	switch {
	case strings.HasPrefix(s.Op, "aggregate_"):
		agg, err := st.lookupAggregate(s.Aggregate)
		if err != nil {
			return err
		}
		n = agg.Len()
	case s.Op == "map_transform":
		n = st.maps[s.Into].Len()
	case strings.HasPrefix(s.Op, "map_"):
		m, err := st.lookupMap(s.Map)
		if err != nil {
			return err
		}
		n = m.Len()
	default:
		return fmt.Errorf("expect_len does not apply to %s", s.Op)
	}
	if n != *s.ExpectLen {
		return fmt.Errorf("expected length %d, got %d", *s.ExpectLen, n)
	}
	return nil
}

// matches compares an expectation to an actual value. Numbers match within a
// small tolerance, maps match regardless of order, and a string expectation
// matches a record or type by its display form.
func matches(want, got runtime.Value) bool {
	if got == nil {
		return false
	}
	if wf, ok := asFloat(want); ok {
		gf, ok := asFloat(got)
		if !ok {
			return false
		}
		return math.Abs(wf-gf) <= floatTolerance*math.Max(1, math.Abs(wf))
	}
	switch w := want.(type) {
	case runtime.StringValue:
		switch g := got.(type) {
		case *runtime.Record:
			return g.String() == w.Val
		case *runtime.TypeDefinition:
			return g.String() == w.Val
		}
	case *runtime.ListValue:
		g, ok := got.(*runtime.ListValue)
		if !ok || len(g.Elements) != len(w.Elements) {
			return false
		}
		for i := range w.Elements {
			if !matches(w.Elements[i], g.Elements[i]) {
				return false
			}
		}
		return true
	case *runtime.MapValue:
		g, ok := got.(*runtime.MapValue)
		if !ok {
			return false
		}
		return ordered.EqualFunc(w.Entries, g.Entries, matches)
	}
	return runtime.Equal(want, got)
}

func describe(v runtime.Value) string {
	if v == nil {
		return "nothing"
	}
	return runtime.Display(v)
}
