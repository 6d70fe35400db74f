package daylight

import (
	"unistore/component"
	"unistore/view"
)

func init() {
	component.Register(component.Info{
		Name:        "daylight",
		Description: "Daylight phase display driven by the tick action",
		Priority:    component.PriorityDefault,
		Order:       30, // After counter (10) and todolist (20)
		Factory:     create,
	})
}

// create builds the display-only connected component. With no dispatch
// map the wrapper injects the bare dispatch prop, which this view does
// not use.
func create(ctx *component.Context) (view.Component, error) {
	connected := component.Connect(mapState, nil)(view.ComponentFunc(render))
	if err := connected.Bind(ctx.Store); err != nil {
		return nil, err
	}
	return connected, nil
}
