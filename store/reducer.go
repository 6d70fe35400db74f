package store

import (
	"fmt"
	"sort"
)

// Reducer is a pure state transition. It receives nil state on the
// first dispatch and must return its default in that case, and it must
// return a defined state for unknown action types, conventionally the
// input unchanged.
type Reducer func(state any, action Action) any

// CombineReducers composes named slice reducers into a reducer over a
// map[string]any state tree. Every dispatch builds a fresh top-level
// map and invokes each slice reducer exactly once with its own slice;
// a slice absent from the previous tree is passed nil. Slices are
// visited in sorted key order so dispatch effects are deterministic.
//
// There is no memoization: the top-level map is new even when every
// slice came back unchanged.
func CombineReducers(reducers map[string]Reducer) (Reducer, error) {
	keys := make([]string, 0, len(reducers))
	for key, r := range reducers {
		if r == nil {
			return nil, fmt.Errorf("reducer for slice %q cannot be nil", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return func(state any, action Action) any {
		prev, _ := state.(map[string]any)
		next := make(map[string]any, len(keys))
		for _, key := range keys {
			var slice any
			if prev != nil {
				slice = prev[key]
			}
			next[key] = reducers[key](slice, action)
		}
		return next
	}, nil
}
