// Package view hosts mounted components and the dirty-tracking that
// decides what gets re-rendered between dispatches. Components render
// props into plain markup fragments; a Sink consumes the resulting
// frames.
package view

import "time"

// Props is the property bag handed to a component's Render.
type Props map[string]any

// Component renders props into a markup fragment. Render must be
// pure: same props, same fragment, no side effects.
type Component interface {
	Render(props Props) string
}

// ComponentFunc adapts a bare render function into a Component.
type ComponentFunc func(props Props) string

// Render implements Component.
func (f ComponentFunc) Render(props Props) string { return f(props) }

// Anchored is implemented by components that need lifecycle calls and
// a re-render trigger from their host. Connected wrappers are the main
// implementor; plain presentational components need neither.
type Anchored interface {
	// Mount hands the component its invalidate trigger. Invoking the
	// trigger marks the component dirty for the host's next Flush.
	Mount(invalidate func()) error

	// Unmount releases whatever Mount acquired. Must be idempotent.
	Unmount()
}

// generationer is implemented by components that track their own
// monotonic re-render counter; the host stamps it into frames.
type generationer interface {
	Generation() uint64
}

// Frame is one rendered component instance.
type Frame struct {
	Name       string    `json:"name"`
	Markup     string    `json:"markup"`
	Generation uint64    `json:"generation"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Sink consumes the frames a host renders.
type Sink interface {
	Publish(frames []Frame)
}
