package store

import "fmt"

// InitType is the reserved action type dispatched once at construction
// to populate reducer defaults. Reducers must not match it explicitly;
// their unknown-type path handles it.
const InitType = "@INIT"

// Action is a plain action: a type discriminator plus an opaque
// payload.
type Action struct {
	Type    string
	Payload any
}

// DispatchFunc is the dispatch capability handed to function actions.
type DispatchFunc func(action any) (any, error)

// GetStateFunc is the state accessor handed to function actions.
type GetStateFunc func() any

// Thunk is a function action. Dispatching one requires a store built
// WithMiddleware.
type Thunk func(dispatch DispatchFunc, getState GetStateFunc) (any, error)

// Middleware intercepts function actions. The store hands it the thunk
// together with its own dispatch and state accessor; the middleware's
// result becomes the Dispatch result.
type Middleware func(thunk Thunk, dispatch DispatchFunc, getState GetStateFunc) (any, error)

// RunThunk is the standard middleware: it executes the function action
// immediately.
func RunThunk(thunk Thunk, dispatch DispatchFunc, getState GetStateFunc) (any, error) {
	return thunk(dispatch, getState)
}

// asThunk reports whether action can be dispatched as a function
// action.
func asThunk(action any) (Thunk, bool) {
	switch t := action.(type) {
	case Thunk:
		return t, true
	case func(DispatchFunc, GetStateFunc) (any, error):
		return t, true
	}
	return nil, false
}

// normalize coerces the supported plain action forms into an Action.
// The map form is what a JSON-decoded wire action arrives as; its
// "payload" entry becomes the payload.
func normalize(action any) (Action, error) {
	switch a := action.(type) {
	case Action:
		if a.Type == "" {
			return Action{}, fmt.Errorf("dispatch %T: %w", action, ErrMissingActionType)
		}
		return a, nil
	case *Action:
		if a == nil {
			return Action{}, fmt.Errorf("dispatch nil *Action: %w", ErrInvalidActionShape)
		}
		if a.Type == "" {
			return Action{}, fmt.Errorf("dispatch %T: %w", action, ErrMissingActionType)
		}
		return *a, nil
	case map[string]any:
		typ, ok := a["type"].(string)
		if !ok || typ == "" {
			return Action{}, fmt.Errorf("dispatch map action: %w", ErrMissingActionType)
		}
		return Action{Type: typ, Payload: a["payload"]}, nil
	}
	return Action{}, fmt.Errorf("dispatch %T: %w", action, ErrInvalidActionShape)
}
