package ordered

// Rule rewrites one entry into a (possibly different) key and value.
type Rule[K comparable, V any, K2 comparable, V2 any] func(K, V) (K2, V2)

// Transform builds a new map by applying rule to every entry of src in
// insertion order. src is not modified. When two entries rewrite to the same
// key the later value wins and the key keeps its first position.
func Transform[K comparable, V any, K2 comparable, V2 any](src *Map[K, V], rule Rule[K, V, K2, V2]) *Map[K2, V2] {
	out := WithCapacity[K2, V2](src.Len())
	for k, v := range src.All() {
		nk, nv := rule(k, v)
		out.Set(nk, nv)
	}
	return out
}

// TransformIf rewrites the value of each entry whose original key/value
// satisfies guard and copies every other entry unchanged.
func TransformIf[K comparable, V any](src *Map[K, V], guard func(K, V) bool, rewrite func(K, V) V) *Map[K, V] {
	return Transform(src, func(k K, v V) (K, V) {
		if guard(k, v) {
			return k, rewrite(k, v)
		}
		return k, v
	})
}

// MapValues rewrites every value and keeps the keys.
func MapValues[K comparable, V any, V2 any](src *Map[K, V], fn func(V) V2) *Map[K, V2] {
	return Transform(src, func(k K, v V) (K, V2) {
		return k, fn(v)
	})
}

// Filter keeps the entries for which keep returns true.
func Filter[K comparable, V any](src *Map[K, V], keep func(K, V) bool) *Map[K, V] {
	out := New[K, V]()
	for k, v := range src.All() {
		if keep(k, v) {
			out.Set(k, v)
		}
	}
	return out
}

// Equal reports whether a and b hold the same key/value pairs. Order is ignored.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return EqualFunc(a, b, func(x, y V) bool { return x == y })
}

// EqualFunc is Equal with a caller supplied value comparison.
func EqualFunc[K comparable, V1, V2 any](a *Map[K, V1], b *Map[K, V2], eq func(V1, V2) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.All() {
		other, ok := b.Get(k)
		if !ok || !eq(v, other) {
			return false
		}
	}
	return true
}
