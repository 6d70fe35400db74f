// Package testutil provides testing utilities for store, component and
// liveview integration tests. The Env assembles the same wiring the
// demo binary builds, backed by a mock clock and a recording sink.
package testutil

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"unistore/component"
	"unistore/internal/clock"
	"unistore/internal/components/counter"
	"unistore/internal/components/daylight"
	"unistore/internal/components/todolist"
	"unistore/internal/liveview"
	"unistore/store"
	"unistore/view"
)

// EnvConfig tweaks the assembled environment. The zero value works.
type EnvConfig struct {
	InitialCount int
	SeedTodos    []string
	Latitude     float64
	Longitude    float64
	TickInterval time.Duration
	ReadOnly     bool
	StartTime    time.Time
}

func (c *EnvConfig) applyDefaults() {
	if c.Latitude == 0 && c.Longitude == 0 {
		// London, so sunrise and sunset share the tick's UTC day
		c.Latitude = 51.5072
		c.Longitude = -0.1276
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.StartTime.IsZero() {
		c.StartTime = time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)
	}
}

// Env provides a complete test environment: a store combining the three
// demo slices with thunk middleware, the components created from the
// global registry, and a host. NewEnv leaves the test goroutine as the
// store's single writer; NewServerEnv hands ownership to a running
// liveview loop instead.
type Env struct {
	Store   *store.Store
	Context *component.Context
	Host    *view.Host
	Logger  *zap.Logger
	Clock   *clock.MockClock

	// Sink records published frames; set only without a server
	Sink *RecordingSink

	// Server is the running liveview server; set only by NewServerEnv
	Server *liveview.Server

	cancelLoop context.CancelFunc
}

// NewEnv creates an environment without a server. The caller dispatches
// directly (see Dispatch) and observes frames through the Sink.
//
// Example usage:
//
//	env, err := testutil.NewEnv(testutil.EnvConfig{})
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer env.Cleanup()
func NewEnv(cfg EnvConfig) (*Env, error) {
	cfg.applyDefaults()
	logger, _ := zap.NewDevelopment()

	st, ctx, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	sink := NewRecordingSink()
	host := view.NewHost(logger.Named("host"), sink)
	if err := mountAll(ctx, host); err != nil {
		return nil, err
	}

	return &Env{
		Store:   st,
		Context: ctx,
		Host:    host,
		Logger:  logger,
		Clock:   clock.NewMockClock(cfg.StartTime),
		Sink:    sink,
	}, nil
}

// NewServerEnv creates an environment with a liveview server running on
// an ephemeral port, its loop owning the store and host. Drive time
// with Env.Clock and observe frames through a websocket client.
func NewServerEnv(cfg EnvConfig) (*Env, error) {
	cfg.applyDefaults()
	logger, _ := zap.NewDevelopment()

	st, ctx, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.NewMockClock(cfg.StartTime)
	srv := liveview.NewServer(st, liveview.Options{
		Addr:         "127.0.0.1:0",
		Title:        "testenv",
		TickInterval: cfg.TickInterval,
		ReadOnly:     cfg.ReadOnly,
		Clock:        clk,
		Logger:       logger.Named("liveview"),
	})

	if err := mountAll(ctx, srv.Host()); err != nil {
		return nil, err
	}
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("failed to start liveview server: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	go srv.Run(runCtx)

	return &Env{
		Store:      st,
		Context:    ctx,
		Host:       srv.Host(),
		Logger:     logger,
		Clock:      clk,
		Server:     srv,
		cancelLoop: cancel,
	}, nil
}

func buildStore(cfg EnvConfig, logger *zap.Logger) (*store.Store, *component.Context, error) {
	rootReducer, err := store.CombineReducers(map[string]store.Reducer{
		counter.SliceName:  counter.NewReducer(cfg.InitialCount),
		todolist.SliceName: todolist.NewReducer(cfg.SeedTodos),
		daylight.SliceName: daylight.NewReducer(cfg.Latitude, cfg.Longitude),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to combine reducers: %w", err)
	}

	st, err := store.New(rootReducer,
		store.WithMiddleware(store.RunThunk),
		store.WithLogger(logger.Named("store")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	ctx, err := component.NewContext(st, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, ctx, nil
}

func mountAll(ctx *component.Context, host *view.Host) error {
	created, err := component.CreateAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to create components: %w", err)
	}
	for _, c := range created {
		if err := host.MountComponent(c.Name, c.Component, nil); err != nil {
			host.UnmountAll()
			return fmt.Errorf("failed to mount component %s: %w", c.Name, err)
		}
	}
	return nil
}

// Dispatch sends an action through the store and flushes the host, the
// way the liveview loop does after each action. Only valid without a
// server; with one running, actions belong on the websocket.
func (e *Env) Dispatch(action any) (any, error) {
	result, err := e.Store.Dispatch(action)
	if err != nil {
		return result, err
	}
	e.Host.Flush()
	return result, nil
}

// Cleanup stops all components in the correct order.
// Always call this in a defer after creating the Env.
func (e *Env) Cleanup() {
	if e.cancelLoop != nil {
		e.cancelLoop()
		<-e.Server.Done()
	}
	if e.Server != nil {
		e.Server.Stop()
	}
	if e.Host != nil {
		e.Host.UnmountAll()
	}
	_ = e.Logger.Sync()
}
