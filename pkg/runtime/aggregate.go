package runtime

import "fmt"

// Aggregate is a parent record that owns an ordered sequence of child records
// keyed by a discriminant, e.g. a month holding its days.
type Aggregate struct {
	Record       *Record
	KeyAttr      string
	ChildrenAttr string
}

// NewAggregate constructs a parent of def whose owned tier holds the
// discriminant under keyAttr and a fresh, empty child list under childrenAttr.
func NewAggregate(def *TypeDefinition, keyAttr, childrenAttr string, discriminant Value) *Aggregate {
	rec := def.Construct(A(keyAttr, discriminant), A(childrenAttr, NewList()))
	return &Aggregate{Record: rec, KeyAttr: keyAttr, ChildrenAttr: childrenAttr}
}

// Discriminant returns the parent's own key.
func (a *Aggregate) Discriminant() Value {
	v, err := a.Record.Get(a.KeyAttr)
	if err != nil {
		return NilValue{}
	}
	return v
}

// Matches reports whether discriminant equals the parent's key.
func (a *Aggregate) Matches(discriminant Value) bool {
	return Equal(a.Discriminant(), discriminant)
}

// AddChild appends child when discriminant matches the parent's key. A
// mismatch is ignored and reported as false.
func (a *Aggregate) AddChild(discriminant Value, child *Record) bool {
	if !a.Matches(discriminant) {
		return false
	}
	list := a.children()
	if list == nil {
		return false
	}
	list.Append(child)
	return true
}

// Children returns the children in insertion order when discriminant
// matches, and an empty slice otherwise.
func (a *Aggregate) Children(discriminant Value) []*Record {
	if !a.Matches(discriminant) {
		return []*Record{}
	}
	list := a.children()
	if list == nil {
		return []*Record{}
	}
	out := make([]*Record, 0, list.Len())
	for _, el := range list.Elements {
		if rec, ok := el.(*Record); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Len is the number of children held.
func (a *Aggregate) Len() int {
	return a.children().Len()
}

// DisplayChildren renders one line per child, prefixed by the parent key,
// when discriminant matches.
func (a *Aggregate) DisplayChildren(discriminant Value) []string {
	children := a.Children(discriminant)
	lines := make([]string, 0, len(children))
	label := a.Record.Definition.Name
	for _, child := range children {
		lines = append(lines, fmt.Sprintf("%s: %s\t%s", label, Display(a.Discriminant()), child.String()))
	}
	return lines
}

func (a *Aggregate) children() *ListValue {
	v, tier, err := a.Record.Lookup(a.ChildrenAttr)
	if err != nil || tier != TierOwned {
		return nil
	}
	list, _ := v.(*ListValue)
	return list
}

//-----------------------------------------------------------------------------
// Month / Day
//-----------------------------------------------------------------------------

// DayType describes a day's temperature record.
var DayType = DefineDayType()

// MonthType holds a list of all days in a month.
var MonthType = DefineMonthType()

// DefineDayType creates a fresh Day type whose records display as
// "Day: n\tMin: n\tMax: n".
func DefineDayType() *TypeDefinition {
	def := DefineType("Day")
	def.Doc = "Day class for storing daily records"
	def.Format = formatDay
	return def
}

// DefineMonthType creates a fresh Month type.
func DefineMonthType() *TypeDefinition {
	def := DefineType("Month")
	def.Doc = "Month class of holding a list of all days in a month"
	return def
}

// NewDay constructs a Day record.
func NewDay(day, minTemperature, maxTemperature int64) *Record {
	return DayType.Construct(
		A("day", Int(day)),
		A("min_temperature", Int(minTemperature)),
		A("max_temperature", Int(maxTemperature)),
	)
}

// NewMonth constructs an empty month keyed by its name.
func NewMonth(name string) *Aggregate {
	return NewAggregate(MonthType, "month", "days", Str(name))
}

func formatDay(r *Record) string {
	get := func(name string) string {
		v, err := r.Get(name)
		if err != nil {
			return "?"
		}
		return Display(v)
	}
	return fmt.Sprintf("Day: %s\tMin: %s\tMax: %s", get("day"), get("min_temperature"), get("max_temperature"))
}
