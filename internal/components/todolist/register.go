package todolist

import (
	"unistore/component"
	"unistore/view"
)

func init() {
	component.Register(component.Info{
		Name:        "todolist",
		Description: "Todo list bound to the todos slice",
		Priority:    component.PriorityDefault,
		Order:       20, // After counter (10), before daylight (30)
		Factory:     create,
	})
}

func create(ctx *component.Context) (view.Component, error) {
	connected := component.Connect(mapState, mapDispatch)(view.ComponentFunc(render))
	if err := connected.Bind(ctx.Store); err != nil {
		return nil, err
	}
	return connected, nil
}
