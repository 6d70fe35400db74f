package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unistore/view"
)

var blank = view.ComponentFunc(func(view.Props) string { return "" })

// anchoredProbe records lifecycle calls for CreateAll rollback tests.
type anchoredProbe struct {
	unmounted bool
}

func (a *anchoredProbe) Mount(func()) error       { return nil }
func (a *anchoredProbe) Unmount()                 { a.unmounted = true }
func (a *anchoredProbe) Render(view.Props) string { return "" }

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name        string
		info        Info
		wantErr     bool
		errContains string
	}{
		{
			name: "valid registration",
			info: Info{
				Name:        "counter",
				Description: "A counter",
				Priority:    PriorityDefault,
				Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
			},
			wantErr: false,
		},
		{
			name: "empty name",
			info: Info{
				Name:    "",
				Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
			},
			wantErr:     true,
			errContains: "name cannot be empty",
		},
		{
			name: "nil factory",
			info: Info{
				Name:    "counter",
				Factory: nil,
			},
			wantErr:     true,
			errContains: "factory cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			err := registry.Register(tt.info)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_PriorityOverride(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(Info{
		Name:        "counter",
		Description: "Stock counter",
		Priority:    PriorityDefault,
		Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err)

	info := registry.Get("counter")
	require.NotNil(t, info)
	assert.Equal(t, "Stock counter", info.Description)

	err = registry.Register(Info{
		Name:        "counter",
		Description: "Replacement counter",
		Priority:    PriorityOverride,
		Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err)

	info = registry.Get("counter")
	require.NotNil(t, info)
	assert.Equal(t, PriorityOverride, info.Priority)
	assert.Equal(t, "Replacement counter", info.Description)
}

func TestRegistry_LowerPrioritySkipped(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(Info{
		Name:        "counter",
		Description: "High priority",
		Priority:    PriorityOverride,
		Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err)

	err = registry.Register(Info{
		Name:        "counter",
		Description: "Low priority",
		Priority:    PriorityDefault,
		Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err, "lower priority is skipped, not an error")

	info := registry.Get("counter")
	require.NotNil(t, info)
	assert.Equal(t, "High priority", info.Description)
}

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry()

	registry.Register(Info{
		Name:    "footer",
		Order:   90,
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	registry.Register(Info{
		Name:    "header",
		Order:   10,
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	registry.Register(Info{
		Name:    "sidebar",
		Order:   50,
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	registry.Register(Info{
		Name:    "body",
		Order:   50,
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})

	list := registry.List()
	require.Len(t, list, 4)

	assert.Equal(t, "header", list[0].Name)  // Order 10
	assert.Equal(t, "body", list[1].Name)    // Order 50, "b" < "s"
	assert.Equal(t, "sidebar", list[2].Name) // Order 50, "s"
	assert.Equal(t, "footer", list[3].Name)  // Order 90
}

func TestRegistry_CreateAll(t *testing.T) {
	registry := NewRegistry()

	created := make([]string, 0)

	registry.Register(Info{
		Name:  "first",
		Order: 10,
		Factory: func(ctx *Context) (view.Component, error) {
			created = append(created, "first")
			return blank, nil
		},
	})
	registry.Register(Info{
		Name:  "second",
		Order: 20,
		Factory: func(ctx *Context) (view.Component, error) {
			created = append(created, "second")
			return blank, nil
		},
	})

	components, err := registry.CreateAll(nil)
	require.NoError(t, err)
	require.Len(t, components, 2)

	assert.Equal(t, []string{"first", "second"}, created)
	assert.Equal(t, "first", components[0].Name)
	assert.Equal(t, "second", components[1].Name)
}

func TestRegistry_CreateAll_ErrorCleanup(t *testing.T) {
	registry := NewRegistry()

	probe := &anchoredProbe{}
	registry.Register(Info{
		Name:  "first",
		Order: 10,
		Factory: func(ctx *Context) (view.Component, error) {
			return probe, nil
		},
	})
	registry.Register(Info{
		Name:  "second",
		Order: 20,
		Factory: func(ctx *Context) (view.Component, error) {
			return nil, errors.New("creation failed")
		},
	})

	components, err := registry.CreateAll(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create component second")
	assert.Nil(t, components)

	assert.True(t, probe.unmounted, "already-created anchored components are unmounted on rollback")
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := NewRegistry()
	assert.Nil(t, registry.Get("nonexistent"))
}

func TestRegistry_Names(t *testing.T) {
	registry := NewRegistry()

	registry.Register(Info{
		Name:    "alpha",
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	registry.Register(Info{
		Name:    "beta",
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})

	names := registry.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "beta")
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()

	registry.Register(Info{
		Name:    "temp",
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	assert.Len(t, registry.Names(), 1)

	registry.Clear()

	assert.Len(t, registry.Names(), 0)
	assert.Nil(t, registry.Get("temp"))
}

func TestRegistry_DefaultOrder(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(Info{
		Name:    "plain",
		Factory: func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err)

	info := registry.Get("plain")
	require.NotNil(t, info)
	assert.Equal(t, 50, info.Order, "default order should be 50")
}

func TestGlobalRegistry(t *testing.T) {
	ClearGlobal()
	defer ClearGlobal()

	err := Register(Info{
		Name:        "global-test",
		Description: "Testing the global registry",
		Factory:     func(ctx *Context) (view.Component, error) { return blank, nil },
	})
	require.NoError(t, err)

	info := Get("global-test")
	require.NotNil(t, info)
	assert.Equal(t, "Testing the global registry", info.Description)

	assert.Len(t, List(), 1)
	assert.Contains(t, Names(), "global-test")

	components, err := CreateAll(nil)
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "global-test", components[0].Name)
}
