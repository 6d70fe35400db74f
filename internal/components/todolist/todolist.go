// Package todolist is the list-shaped demo component: items carry
// identity, reducers always hand back fresh slices.
package todolist

import (
	"fmt"
	"html"
	"strings"

	"unistore/store"
	"unistore/view"
)

// SliceName is the key this component's reducer owns in the root state.
const SliceName = "todos"

// Action types understood by the reducer.
const (
	ActionAdd       = "todos/ADD"
	ActionToggle    = "todos/TOGGLE"
	ActionRemove    = "todos/REMOVE"
	ActionClearDone = "todos/CLEAR_DONE"
)

// Item is a single todo entry
type Item struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Model is the todos slice state. NextID hands out item identities.
type Model struct {
	Items  []Item `json:"items"`
	NextID int    `json:"next_id"`
}

// NewReducer returns the todos slice reducer. A nil state materializes a
// model seeded with the given titles. Transitions never mutate the input
// slice; every change builds a new one.
func NewReducer(seed []string) store.Reducer {
	return func(state any, action store.Action) any {
		model, ok := state.(Model)
		if !ok {
			model = seededModel(seed)
		}

		switch action.Type {
		case ActionAdd:
			title, ok := action.Payload.(string)
			if !ok || strings.TrimSpace(title) == "" {
				return model
			}
			items := make([]Item, 0, len(model.Items)+1)
			items = append(items, model.Items...)
			items = append(items, Item{ID: model.NextID, Title: strings.TrimSpace(title)})
			return Model{Items: items, NextID: model.NextID + 1}

		case ActionToggle:
			id, ok := payloadID(action.Payload)
			if !ok {
				return model
			}
			items := make([]Item, len(model.Items))
			copy(items, model.Items)
			for i := range items {
				if items[i].ID == id {
					items[i].Done = !items[i].Done
				}
			}
			return Model{Items: items, NextID: model.NextID}

		case ActionRemove:
			id, ok := payloadID(action.Payload)
			if !ok {
				return model
			}
			items := make([]Item, 0, len(model.Items))
			for _, item := range model.Items {
				if item.ID != id {
					items = append(items, item)
				}
			}
			return Model{Items: items, NextID: model.NextID}

		case ActionClearDone:
			items := make([]Item, 0, len(model.Items))
			for _, item := range model.Items {
				if !item.Done {
					items = append(items, item)
				}
			}
			return Model{Items: items, NextID: model.NextID}
		}
		return model
	}
}

func seededModel(seed []string) Model {
	model := Model{NextID: 1}
	for _, title := range seed {
		model.Items = append(model.Items, Item{ID: model.NextID, Title: title})
		model.NextID++
	}
	return model
}

// payloadID tolerates both native ints and JSON-decoded numbers
func payloadID(p any) (int, bool) {
	switch n := p.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func mapState(state any) view.Props {
	root, _ := state.(map[string]any)
	model, _ := root[SliceName].(Model)

	open := 0
	for _, item := range model.Items {
		if !item.Done {
			open++
		}
	}
	return view.Props{"items": model.Items, "open": open}
}

func mapDispatch(dispatch store.DispatchFunc) view.Props {
	return view.Props{
		"add":       func(title string) { _, _ = dispatch(store.Action{Type: ActionAdd, Payload: title}) },
		"toggle":    func(id int) { _, _ = dispatch(store.Action{Type: ActionToggle, Payload: id}) },
		"remove":    func(id int) { _, _ = dispatch(store.Action{Type: ActionRemove, Payload: id}) },
		"clearDone": func() { _, _ = dispatch(store.Action{Type: ActionClearDone}) },
	}
}

func render(props view.Props) string {
	items, _ := props["items"].([]Item)
	open, _ := props["open"].(int)

	var b strings.Builder
	b.WriteString("<div class=\"todos\">\n  <ul>\n")
	for _, item := range items {
		mark, class := "[ ]", "open"
		if item.Done {
			mark, class = "[x]", "done"
		}
		fmt.Fprintf(&b, "    <li data-id=\"%d\" class=%q>%s %s</li>\n",
			item.ID, class, mark, html.EscapeString(item.Title))
	}
	fmt.Fprintf(&b, "  </ul>\n  <p class=\"remaining\">%d open</p>\n</div>\n", open)
	return b.String()
}
