package component

import "reflect"

// ShallowEqual reports whether a and b are identical values or are
// string-keyed maps of the same size whose entries are pairwise
// identical. The comparison is one level deep: interior mutation that
// preserves every top-level identity is invisible.
//
// Identity means untyped equality for comparable values, pointer
// identity for maps and slices, and nil-only equality for funcs. An
// identity the runtime cannot decide counts as not identical, which at
// worst costs a render and never skips one.
func ShallowEqual(a, b any) bool {
	if identical(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Map || vb.Kind() != reflect.Map {
		return false
	}
	if va.Type().Key().Kind() != reflect.String || vb.Type().Key().Kind() != reflect.String {
		return false
	}
	if va.Len() != vb.Len() {
		return false
	}

	iter := va.MapRange()
	for iter.Next() {
		other := vb.MapIndex(iter.Key().Convert(vb.Type().Key()))
		if !other.IsValid() {
			return false
		}
		if !identical(iter.Value().Interface(), other.Interface()) {
			return false
		}
	}
	return true
}

// identical is the single-value identity check underlying ShallowEqual.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}

	if !va.Type().Comparable() {
		return false
	}
	return a == b
}
