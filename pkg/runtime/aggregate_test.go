package runtime

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAggregateAddsOnlyMatchingDiscriminant(t *testing.T) {
	february := NewMonth("February")
	days := []*Record{
		NewDay(3, 4, 16),
		NewDay(5, 4, 20),
		NewDay(6, 0, 24),
		NewDay(7, -3, 17),
	}
	for _, d := range days {
		if !february.AddChild(Str("February"), d) {
			t.Fatalf("AddChild(February) = false")
		}
	}

	got := february.Children(Str("February"))
	if len(got) != 4 {
		t.Fatalf("len(children) = %d, want 4", len(got))
	}
	for i := range days {
		if got[i] != days[i] {
			t.Fatalf("child %d out of order", i)
		}
	}

	if february.AddChild(Str("Junuary"), NewDay(1, 4, 23)) {
		t.Fatalf("AddChild with mismatched discriminant must be a no-op")
	}
	if february.Len() != 4 {
		t.Fatalf("child count changed to %d", february.Len())
	}
	if other := february.Children(Str("Junuary")); len(other) != 0 {
		t.Fatalf("Children(Junuary) = %v, want empty", other)
	}
}

func TestAggregateDisplay(t *testing.T) {
	junuary := NewMonth("Junuary")
	junuary.AddChild(Str("Junuary"), NewDay(1, 4, 23))
	junuary.AddChild(Str("Junuary"), NewDay(2, 5, 22))

	want := []string{
		"Month: Junuary\tDay: 1\tMin: 4\tMax: 23",
		"Month: Junuary\tDay: 2\tMin: 5\tMax: 22",
	}
	if diff := cmp.Diff(want, junuary.DisplayChildren(Str("Junuary"))); diff != "" {
		t.Fatalf("display (-want +got):\n%s", diff)
	}
	if lines := junuary.DisplayChildren(Str("February")); len(lines) != 0 {
		t.Fatalf("mismatched display should be empty, got %v", lines)
	}
}

func TestAggregatesDoNotShareChildren(t *testing.T) {
	a := NewMonth("March")
	b := NewMonth("March")
	a.AddChild(Str("March"), NewDay(1, 0, 10))
	if b.Len() != 0 {
		t.Fatalf("second month sees %d children from the first", b.Len())
	}
}

func TestGenericAggregateWithIntegerKey(t *testing.T) {
	week := DefineType("Week")
	agg := NewAggregate(week, "number", "days", Int(12))
	if !agg.AddChild(Float(12), NewDay(1, 2, 3)) {
		t.Fatalf("numerically equal discriminant should match")
	}
	if agg.AddChild(Str("12"), NewDay(1, 2, 3)) {
		t.Fatalf("string discriminant must not match integer key")
	}
	if agg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", agg.Len())
	}
}
