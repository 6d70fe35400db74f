package component

import (
	"fmt"

	"go.uber.org/zap"
)

// Context carries the one shared store and common services to
// component factories. It is an explicit provider: nothing is ambient,
// everything a component needs is handed over at construction, and the
// store reference is fixed for the context's lifetime.
type Context struct {
	// Store is the application's single store instance.
	Store StateStore

	// Logger is the parent logger; factories derive named loggers
	// from it.
	Logger *zap.Logger

	// ConfigDir points at the application's configuration directory,
	// for components that load their own files.
	ConfigDir string
}

// NewContext builds a provider context. A missing store is a
// configuration error, never a silent default; a nil logger falls back
// to a no-op logger.
func NewContext(st StateStore, logger *zap.Logger) (*Context, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Store:  st,
		Logger: logger,
	}, nil
}
