package counter

import (
	"unistore/component"
	"unistore/view"
)

func init() {
	component.Register(component.Info{
		Name:        "counter",
		Description: "Increment/decrement counter bound to the counter slice",
		Priority:    component.PriorityDefault,
		Order:       10, // Before todolist (20) and daylight (30)
		Factory:     create,
	})
}

// create builds the connected counter and binds it to the context's store.
func create(ctx *component.Context) (view.Component, error) {
	connected := component.Connect(mapState, mapDispatch)(view.ComponentFunc(render))
	if err := connected.Bind(ctx.Store); err != nil {
		return nil, err
	}
	return connected, nil
}
