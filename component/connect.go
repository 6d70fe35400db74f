// Package component binds view components to a store. Connect wraps a
// presentational component so that it derives its props from the state
// tree and re-renders only when those props actually change; Context
// and the registry carry the one shared store to component factories.
package component

import (
	"fmt"

	"unistore/store"
	"unistore/view"
)

// MapStateToProps derives a component's state props from the root
// state. It runs on every render and on every store notification.
type MapStateToProps func(state any) view.Props

// MapDispatchToProps derives callback props from the store's dispatch.
// It runs on every render; the dispatch reference it receives is
// stable for the life of the binding.
type MapDispatchToProps func(dispatch store.DispatchFunc) view.Props

// StateStore is the part of the store the binding layer needs.
// *store.Store satisfies it.
type StateStore interface {
	GetState() any
	Dispatch(action any) (any, error)
	Subscribe(fn store.Listener) store.Subscription
}

// Connect builds a wrapper factory around the two mapping functions.
// The wrapper subscribes to its bound store on mount, recomputes state
// props on every store notification, and asks the host for a re-render
// only when the fresh props shallowly differ from the retained ones.
func Connect(mapState MapStateToProps, mapDispatch MapDispatchToProps) func(base view.Component) *Connected {
	return func(base view.Component) *Connected {
		return &Connected{
			base:        base,
			mapState:    mapState,
			mapDispatch: mapDispatch,
		}
	}
}

// Connected is a store-bound component wrapper. It implements
// view.Component and view.Anchored.
type Connected struct {
	base        view.Component
	mapState    MapStateToProps
	mapDispatch MapDispatchToProps

	st         StateStore
	sub        store.Subscription
	invalidate func()
	mounted    bool

	// stateProps retains the most recently used state props; store
	// notifications compare fresh props against it.
	stateProps view.Props
	generation uint64
}

// Bind points the wrapper at its store. The provider context does this
// at construction time. Rebinding while mounted moves the subscription
// to the new store and flags a re-render.
func (c *Connected) Bind(st StateStore) error {
	if st == nil {
		return fmt.Errorf("store cannot be nil")
	}
	if st == c.st {
		return nil
	}
	c.st = st
	if c.mounted {
		c.resubscribe()
		if c.mapState != nil {
			c.onStoreChange()
		}
	}
	return nil
}

// Mount implements view.Anchored; the host supplies the trigger that
// marks this wrapper dirty. Mounting without a bound store is a
// configuration error.
func (c *Connected) Mount(invalidate func()) error {
	if c.st == nil {
		return fmt.Errorf("no store bound")
	}
	if c.mounted {
		return fmt.Errorf("already mounted")
	}
	c.mounted = true
	c.invalidate = invalidate
	c.subscribe()
	return nil
}

// Unmount implements view.Anchored. Idempotent.
func (c *Connected) Unmount() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.invalidate = nil
	c.mounted = false
}

// Render computes fresh state props and dispatch props, merges them
// with the explicit props (explicit wins over dispatch, dispatch wins
// over state), and delegates to the wrapped component.
func (c *Connected) Render(own view.Props) string {
	merged := make(view.Props)

	if c.st != nil && c.mapState != nil {
		c.stateProps = c.mapState(c.st.GetState())
		for k, v := range c.stateProps {
			merged[k] = v
		}
	}

	if c.st != nil {
		for k, v := range c.dispatchProps() {
			merged[k] = v
		}
	}

	for k, v := range own {
		merged[k] = v
	}

	return c.base.Render(merged)
}

// Generation is the wrapper's monotonic re-render counter; it advances
// once per accepted state-props change. The host stamps it into
// frames.
func (c *Connected) Generation() uint64 {
	return c.generation
}

// onStoreChange runs on every store notification: recompute the state
// props and schedule a re-render only when they differ from the
// retained ones.
func (c *Connected) onStoreChange() {
	next := c.mapState(c.st.GetState())
	if ShallowEqual(c.stateProps, next) {
		return
	}
	c.stateProps = next
	c.generation++
	if c.invalidate != nil {
		c.invalidate()
	}
}

// subscribe registers the store listener. A wrapper without a state
// mapping derives nothing from the tree and so never listens.
func (c *Connected) subscribe() {
	if c.mapState == nil {
		return
	}
	c.sub = c.st.Subscribe(c.onStoreChange)
}

func (c *Connected) resubscribe() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	if c.mounted {
		c.subscribe()
	}
}

// dispatchProps builds the callback props. Without a mapping the
// store's dispatch itself is injected under "dispatch".
func (c *Connected) dispatchProps() view.Props {
	if c.mapDispatch != nil {
		return c.mapDispatch(c.st.Dispatch)
	}
	return view.Props{"dispatch": store.DispatchFunc(c.st.Dispatch)}
}
