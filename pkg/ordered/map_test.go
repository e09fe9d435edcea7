package ordered

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetKeepsKeysUnique(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if got := m.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := m.Get("a"); v != 3 {
		t.Fatalf("a = %d, want 3", v)
	}
}

func TestInsertionOrderIndependentOfSorting(t *testing.T) {
	m := New[string, int]()
	for i, k := range []string{"a", "d", "c", "b"} {
		m.Set(k, i)
	}

	sorted := SortedKeys(m)
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, sorted); diff != "" {
		t.Fatalf("sorted keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "d", "c", "b"}, m.Keys()); diff != "" {
		t.Fatalf("insertion order disturbed (-want +got):\n%s", diff)
	}
}

func TestDeleteThenReinsertMovesToEnd(t *testing.T) {
	m := FromPairs(P("a", 1), P("d", 2))
	if !m.Delete("d") {
		t.Fatalf("Delete(d) = false, want true")
	}
	m.Set("b", 3)
	if diff := cmp.Diff([]string{"a", "b"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	m.Set("d", 4)
	if diff := cmp.Diff([]string{"a", "b", "d"}, m.Keys()); diff != "" {
		t.Fatalf("reinserted key should go last (-want +got):\n%s", diff)
	}
}

func TestDictionaryWalkthrough(t *testing.T) {
	dic := FromPairs(P("a", 4098), P("d", 4139))
	dic.Set("c", 4050)
	if !Equal(dic, FromPairs(P("a", 4098), P("d", 4139), P("c", 4050))) {
		t.Fatalf("unexpected contents %v", dic)
	}

	dic.Delete("d")
	dic.Set("b", 4127)
	if !Equal(dic, FromPairs(P("a", 4098), P("b", 4127), P("c", 4050))) {
		t.Fatalf("maps with the same pairs must compare equal regardless of order: %v", dic)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, dic.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, SortedKeys(dic)); diff != "" {
		t.Fatalf("sorted keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{4098, 4050, 4127}, dic.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{4050, 4098, 4127}, SortedValues(dic)); diff != "" {
		t.Fatalf("sorted values (-want +got):\n%s", diff)
	}
	if !dic.Has("a") || dic.Has("Ali") {
		t.Fatalf("membership mismatch")
	}
}

func TestDeleteAbsentKey(t *testing.T) {
	m := FromPairs(P("cherry", "red"))
	if m.Delete("pineapple") {
		t.Fatalf("Delete on absent key should report false")
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestLookupMissingKey(t *testing.T) {
	m := FromPairs(P("sape", 4139), P("guido", 4127), P("jack", 4098))
	if v, err := m.Lookup("guido"); err != nil || v != 4127 {
		t.Fatalf("Lookup(guido) = %d, %v", v, err)
	}
	_, err := m.Lookup("tim")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDeleteReindexesLaterEntries(t *testing.T) {
	m := FromPairs(P(1, "one"), P(2, "two"), P(3, "three"), P(4, "four"))
	m.Delete(2)
	for _, tc := range []struct {
		key  int
		want string
	}{{1, "one"}, {3, "three"}, {4, "four"}} {
		got, ok := m.Get(tc.key)
		if !ok || got != tc.want {
			t.Fatalf("Get(%d) = %q, %v; want %q", tc.key, got, ok, tc.want)
		}
	}
	m.Set(3, "THREE")
	if diff := cmp.Diff([]string{"one", "THREE", "four"}, m.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestZeroValueAndNilMap(t *testing.T) {
	var zero Map[string, int]
	zero.Set("x", 1)
	if !zero.Has("x") {
		t.Fatalf("zero value map should accept Set")
	}

	var nilMap *Map[string, int]
	if nilMap.Len() != 0 || nilMap.Has("x") || nilMap.Delete("x") {
		t.Fatalf("nil map must behave as empty")
	}
	if _, err := nilMap.Lookup("x"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound from nil map, got %v", err)
	}
}

func TestCollectSquares(t *testing.T) {
	numbers := []int{1, 2, 3, 4, 5, 6}
	squares := Collect(func(yield func(int, int) bool) {
		for _, n := range numbers {
			if !yield(n, n*n) {
				return
			}
		}
	})
	if got := squares.String(); got != "{1: 1, 2: 4, 3: 9, 4: 16, 5: 25, 6: 36}" {
		t.Fatalf("String() = %q", got)
	}
}

func TestSortedKeysFunc(t *testing.T) {
	m := FromPairs(P("banana", 1), P("Apple", 2), P("cherry", 3))
	byLen := m.SortedKeysFunc(func(a, b string) int { return len(a) - len(b) })
	if diff := cmp.Diff([]string{"Apple", "banana", "cherry"}, byLen); diff != "" {
		t.Fatalf("sorted keys (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := FromPairs(P("a", 1))
	cp := src.Clone()
	cp.Set("b", 2)
	cp.Set("a", 10)
	if src.Len() != 1 {
		t.Fatalf("clone mutation leaked into source: %v", src)
	}
	if v, _ := src.Get("a"); v != 1 {
		t.Fatalf("source value changed to %d", v)
	}
}

func TestAllStopsEarly(t *testing.T) {
	m := FromPairs(P("a", 1), P("b", 2), P("c", 3))
	var seen []string
	for k := range m.All() {
		seen = append(seen, k)
		if k == "b" {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Fatalf("iteration (-want +got):\n%s", diff)
	}
}

func TestNaNKeysNeverMatch(t *testing.T) {
	m := New[float64, string]()
	m.Set(math.NaN(), "a")
	m.Set(math.NaN(), "b")
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if m.Has(math.NaN()) || m.Delete(math.NaN()) {
		t.Fatalf("NaN lookups must miss")
	}
}
