// Package counter is the smallest demo component: one integer slice,
// three actions, a connected view.
package counter

import (
	"fmt"
	"strings"

	"unistore/store"
	"unistore/view"
)

// SliceName is the key this component's reducer owns in the root state.
const SliceName = "counter"

// Action types understood by the reducer.
const (
	ActionIncrement = "counter/INCREMENT"
	ActionDecrement = "counter/DECREMENT"
	ActionAdd       = "counter/ADD"
)

// Model is the counter slice state
type Model struct {
	Count int `json:"count"`
}

// NewReducer returns the counter slice reducer. A nil state materializes
// a model holding the configured initial count.
func NewReducer(initial int) store.Reducer {
	return func(state any, action store.Action) any {
		model, ok := state.(Model)
		if !ok {
			model = Model{Count: initial}
		}

		switch action.Type {
		case ActionIncrement:
			model.Count++
		case ActionDecrement:
			model.Count--
		case ActionAdd:
			model.Count += payloadAmount(action.Payload)
		}
		return model
	}
}

// payloadAmount tolerates both native ints and JSON-decoded numbers
func payloadAmount(p any) int {
	switch n := p.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func mapState(state any) view.Props {
	root, _ := state.(map[string]any)
	model, _ := root[SliceName].(Model)
	return view.Props{"count": model.Count}
}

func mapDispatch(dispatch store.DispatchFunc) view.Props {
	return view.Props{
		"increment": func() { _, _ = dispatch(store.Action{Type: ActionIncrement}) },
		"decrement": func() { _, _ = dispatch(store.Action{Type: ActionDecrement}) },
		"add":       func(n int) { _, _ = dispatch(store.Action{Type: ActionAdd, Payload: n}) },
	}
}

func render(props view.Props) string {
	count, _ := props["count"].(int)

	var b strings.Builder
	b.WriteString("<div class=\"counter\">\n")
	fmt.Fprintf(&b, "  <button data-action=%q>-</button>\n", ActionDecrement)
	fmt.Fprintf(&b, "  <span class=\"count\">%d</span>\n", count)
	fmt.Fprintf(&b, "  <button data-action=%q>+</button>\n", ActionIncrement)
	b.WriteString("</div>\n")
	return b.String()
}
