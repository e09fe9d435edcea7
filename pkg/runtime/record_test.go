package runtime

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func listStrings(t *testing.T, v Value) []string {
	t.Helper()
	list, ok := v.(*ListValue)
	if !ok {
		t.Fatalf("expected list, got %T", v)
	}
	out := make([]string, 0, list.Len())
	for _, el := range list.Elements {
		s, ok := el.(StringValue)
		if !ok {
			t.Fatalf("expected string element, got %T", el)
		}
		out = append(out, s.Val)
	}
	return out
}

func mustGet(t *testing.T, r *Record, name string) Value {
	t.Helper()
	v, err := r.Get(name)
	if err != nil {
		t.Fatalf("Get(%q): %v", name, err)
	}
	return v
}

func TestSharedAndOwnedAttributes(t *testing.T) {
	dog := DefineType("Dog", A("kind", Str("canine")))
	fido := dog.Construct(A("name", Str("Fido")))
	buddy := dog.Construct(A("name", Str("Buddy")))

	for _, rec := range []*Record{fido, buddy} {
		if got := mustGet(t, rec, "kind"); !Equal(got, Str("canine")) {
			t.Fatalf("kind = %v, want canine", Display(got))
		}
	}
	if got := mustGet(t, fido, "name"); !Equal(got, Str("Fido")) {
		t.Fatalf("fido.name = %v", Display(got))
	}
	if got := mustGet(t, buddy, "name"); !Equal(got, Str("Buddy")) {
		t.Fatalf("buddy.name = %v", Display(got))
	}

	fido.SetOwned("kind", Str("husky"))
	if got := mustGet(t, fido, "kind"); !Equal(got, Str("husky")) {
		t.Fatalf("fido.kind = %v, want husky", Display(got))
	}
	if got := mustGet(t, buddy, "kind"); !Equal(got, Str("canine")) {
		t.Fatalf("buddy.kind must stay canine, got %v", Display(got))
	}
	if got, _ := dog.Get("kind"); !Equal(got, Str("canine")) {
		t.Fatalf("shared kind changed to %v", Display(got))
	}

	if !fido.ClearOwned("kind") {
		t.Fatalf("ClearOwned(kind) = false")
	}
	if got := mustGet(t, fido, "kind"); !Equal(got, Str("canine")) {
		t.Fatalf("after clearing the shadow fido.kind = %v", Display(got))
	}
}

func TestSharedContainerAliasing(t *testing.T) {
	dog := DefineType("DogWithSharedTricks", A("tricks", NewList()))
	fido := dog.Construct(A("name", Str("Fido")))
	buddy := dog.Construct(A("name", Str("Buddy")))

	tier, err := fido.Append("tricks", Str("roll over"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tier != TierShared {
		t.Fatalf("tier = %v, want shared", tier)
	}
	if _, err := buddy.Append("tricks", Str("play dead")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	want := []string{"roll over", "play dead"}
	for _, rec := range []*Record{fido, buddy} {
		if diff := cmp.Diff(want, listStrings(t, mustGet(t, rec, "tricks"))); diff != "" {
			t.Fatalf("tricks (-want +got):\n%s", diff)
		}
	}
}

func TestOwnedContainerPerRecord(t *testing.T) {
	dog := DefineType("DogWithTricks")
	fido := dog.Construct(A("name", Str("Fido")), A("tricks", NewList()))
	buddy := dog.Construct(A("name", Str("Buddy")), A("tricks", NewList()))

	if tier, err := fido.Append("tricks", Str("roll over")); err != nil || tier != TierOwned {
		t.Fatalf("Append = %v, %v", tier, err)
	}
	if _, err := buddy.Append("tricks", Str("play dead")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if diff := cmp.Diff([]string{"roll over"}, listStrings(t, mustGet(t, fido, "tricks"))); diff != "" {
		t.Fatalf("fido tricks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"play dead"}, listStrings(t, mustGet(t, buddy, "tricks"))); diff != "" {
		t.Fatalf("buddy tricks (-want +got):\n%s", diff)
	}

	if _, err := buddy.Append("tricks", Str("spin")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if diff := cmp.Diff([]string{"play dead", "spin"}, listStrings(t, mustGet(t, buddy, "tricks"))); diff != "" {
		t.Fatalf("buddy tricks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"roll over"}, listStrings(t, mustGet(t, fido, "tricks"))); diff != "" {
		t.Fatalf("fido affected by buddy (-want +got):\n%s", diff)
	}
}

func TestDefaultsAreCopiedPerRecord(t *testing.T) {
	dog := DefineType("DogWithTricks")
	dog.SetDefault("tricks", NewList())
	fido := dog.Construct(A("name", Str("Fido")))
	buddy := dog.Construct(A("name", Str("Buddy")))

	if _, err := fido.Append("tricks", Str("roll over")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := listStrings(t, mustGet(t, buddy, "tricks")); len(got) != 0 {
		t.Fatalf("buddy should not see fido's trick, got %v", got)
	}
	if diff := cmp.Diff([]string{"tricks", "name"}, buddy.OwnedNames()); diff != "" {
		t.Fatalf("owned names (-want +got):\n%s", diff)
	}
}

func TestSetSharedVisibleUnlessShadowed(t *testing.T) {
	complexNumber := DefineType("ComplexNumber", A("real", Int(0)), A("imaginary", Int(0)))
	complexNumber.Doc = "Example of the complex numbers class"

	complexNumber.SetShared("real", Int(10))
	if got, _ := complexNumber.Get("real"); !Equal(got, Int(10)) {
		t.Fatalf("ComplexNumber.real = %v", Display(got))
	}

	first := complexNumber.Construct()
	second := complexNumber.Construct()
	for _, rec := range []*Record{first, second} {
		if got := mustGet(t, rec, "real"); !Equal(got, Int(10)) {
			t.Fatalf("real = %v, want 10", Display(got))
		}
	}

	first.SetOwned("real", Int(20))
	second.SetShared("real", Int(30))

	if got := mustGet(t, first, "real"); !Equal(got, Int(20)) {
		t.Fatalf("first.real = %v, want 20", Display(got))
	}
	if got := mustGet(t, second, "real"); !Equal(got, Int(30)) {
		t.Fatalf("second.real = %v, want 30", Display(got))
	}

	complexNumber.SetShared("real", Int(10))
	if got := mustGet(t, second, "real"); !Equal(got, Int(10)) {
		t.Fatalf("second.real = %v after reset", Display(got))
	}
	if complexNumber.Doc != "Example of the complex numbers class" {
		t.Fatalf("doc = %q", complexNumber.Doc)
	}
}

func TestAttributeNotFound(t *testing.T) {
	def := DefineType("Empty")
	rec := def.Construct()
	_, err := rec.Get("missing")
	if !errors.Is(err, ErrAttributeNotFound) {
		t.Fatalf("expected ErrAttributeNotFound, got %v", err)
	}
	if _, err := def.Get("missing"); !errors.Is(err, ErrAttributeNotFound) {
		t.Fatalf("expected ErrAttributeNotFound from type, got %v", err)
	}
	if _, err := rec.Append("missing", Int(1)); !errors.Is(err, ErrAttributeNotFound) {
		t.Fatalf("expected ErrAttributeNotFound from Append, got %v", err)
	}
}

func TestMutateInPlaceRejectsScalars(t *testing.T) {
	def := DefineType("Counter", A("count", Int(1)))
	rec := def.Construct()
	tier, err := rec.MutateInPlace("count", func(Value) error { return nil })
	if !errors.Is(err, ErrNotMutable) {
		t.Fatalf("expected ErrNotMutable, got %v", err)
	}
	if tier != TierShared {
		t.Fatalf("tier = %v, want shared", tier)
	}
}

func TestMutateInPlaceOnSharedMap(t *testing.T) {
	registry, err := NewMap()
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	def := DefineType("Registry", A("entries", registry))
	a := def.Construct()
	b := def.Construct()

	if _, err := a.MutateInPlace("entries", func(v Value) error {
		return v.(*MapValue).Set(Str("a"), Int(1))
	}); err != nil {
		t.Fatalf("MutateInPlace: %v", err)
	}
	got := mustGet(t, b, "entries").(*MapValue)
	if !got.Entries.Has(Str("a")) {
		t.Fatalf("mutation through a must be visible through b: %v", Display(got))
	}
}

func TestRecordDisplay(t *testing.T) {
	def := DefineType("Dog", A("kind", Str("canine")))
	rec := def.Construct(A("name", Str("Fido")), A("tricks", NewList(Str("sit"))))
	if got, want := rec.String(), `Dog{name: "Fido", tricks: ["sit"]}`; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := Display(def); got != "<type Dog>" {
		t.Fatalf("Display(def) = %q", got)
	}
}
