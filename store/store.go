// Package store implements a minimal predictable state container: one
// state value advanced by dispatching actions through a pure reducer,
// with change listeners notified synchronously after every transition.
//
// A Store is not safe for concurrent use. Confine Dispatch, Subscribe
// and Unsubscribe to a single goroutine and funnel outside input into
// that goroutine through a channel (internal/liveview holds the
// reference loop).
package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Listener is called after every successful dispatch. It receives no
// arguments; read the new state back through GetState.
type Listener func()

// Subscription represents an active listener registration
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id    uint64
	store *Store
}

func (s *subscription) Unsubscribe() {
	s.store.unsubscribe(s.id)
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store holds the state tree and the listener list
type Store struct {
	reducer    Reducer
	middleware Middleware
	logger     *zap.Logger
	state      any
	listeners  []listenerEntry
	nextSubID  uint64
}

// Option configures a Store at construction time
type Option func(*Store)

// WithInitialState preloads the state tree before the init dispatch.
// Reducers still run once with it, so slices the preload omits get
// their defaults.
func WithInitialState(state any) Option {
	return func(s *Store) {
		s.state = state
	}
}

// WithMiddleware enables function-typed actions and routes them
// through mw. RunThunk is the standard choice.
func WithMiddleware(mw Middleware) Option {
	return func(s *Store) {
		s.middleware = mw
	}
}

// WithLogger attaches a logger for dispatch and subscription tracing.
// Without it the store logs nothing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store around reducer and synchronously dispatches the
// reserved init action so every reducer materializes its defaults.
func New(reducer Reducer, opts ...Option) (*Store, error) {
	if reducer == nil {
		return nil, fmt.Errorf("reducer cannot be nil")
	}

	s := &Store{
		reducer: reducer,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.Dispatch(Action{Type: InitType}); err != nil {
		return nil, fmt.Errorf("init dispatch failed: %w", err)
	}

	return s, nil
}

// GetState returns the current state tree. The value is shared, not
// copied; treat it as read-only.
func (s *Store) GetState() any {
	return s.state
}

// Subscribe registers fn to run after every dispatch. Listeners run
// synchronously in subscription order. The returned handle removes
// exactly this registration; calling Unsubscribe more than once is
// harmless.
func (s *Store) Subscribe(fn Listener) Subscription {
	s.nextSubID++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextSubID, fn: fn})

	s.logger.Debug("Listener subscribed",
		zap.Uint64("id", s.nextSubID),
		zap.Int("listeners", len(s.listeners)))

	return &subscription{
		id:    s.nextSubID,
		store: s,
	}
}

// unsubscribe removes the registration with the given id.
func (s *Store) unsubscribe(id uint64) {
	for i, e := range s.listeners {
		if e.id != id {
			continue
		}
		// Replace the slice instead of filtering in place so a
		// notification pass over the old slice is unaffected.
		next := make([]listenerEntry, 0, len(s.listeners)-1)
		next = append(next, s.listeners[:i]...)
		next = append(next, s.listeners[i+1:]...)
		s.listeners = next

		s.logger.Debug("Listener unsubscribed",
			zap.Uint64("id", id),
			zap.Int("listeners", len(s.listeners)))
		return
	}
}

// Dispatch advances the state tree. Plain actions (Action, *Action, or
// a map with a string "type" entry) run through the reducer; function
// actions are handed to the configured middleware and never reach the
// reducer themselves. On success the originally passed action value is
// returned.
//
// A malformed action fails with ErrInvalidActionShape or
// ErrMissingActionType before the reducer runs: state is untouched and
// no listener is notified. Dispatching from inside a reducer is
// forbidden; dispatching from inside a listener leaves notification
// ordering unspecified.
func (s *Store) Dispatch(action any) (any, error) {
	if s.middleware != nil {
		if thunk, ok := asThunk(action); ok {
			return s.middleware(thunk, s.Dispatch, s.GetState)
		}
	}

	act, err := normalize(action)
	if err != nil {
		return nil, err
	}

	s.state = s.reducer(s.state, act)

	s.logger.Debug("Action dispatched",
		zap.String("type", act.Type),
		zap.Int("listeners", len(s.listeners)))

	// Iterate the list as it was when the dispatch began: listeners
	// added during the pass wait for the next dispatch, listeners
	// removed during it may still fire once.
	entries := s.listeners
	for _, e := range entries {
		e.fn()
	}

	return action, nil
}
