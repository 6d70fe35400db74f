package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unistore/internal/components/counter"
	"unistore/internal/components/daylight"
	"unistore/internal/components/todolist"
	"unistore/pkg/testutil"
	"unistore/store"
)

// ============================================================================
// Render Gating Scenario Tests
//
// Every dispatch notifies every connected component, but a component
// re-renders only when its own mapped props shallowly change. These
// tests drive all three components through one store and count exactly
// which frames come out.
// ============================================================================

func TestScenario_GatingAcrossComponents(t *testing.T) {
	env := setupEnv(t, testutil.EnvConfig{SeedTodos: []string{"first"}})

	t.Log("GIVEN: every component has rendered once")
	frames := env.Host.RenderAll()
	require.Len(t, frames, 3)
	require.Equal(t, 1, env.Sink.PublishCount())

	t.Log("WHEN: an action only the counter reduces on is dispatched")
	_, err := env.Dispatch(store.Action{Type: counter.ActionIncrement})
	require.NoError(t, err)

	t.Log("THEN: exactly one new frame is published, for the counter")
	assert.Equal(t, 2, env.Sink.PublishCount())
	assert.Len(t, env.Sink.FramesFor("counter"), 2)
	assert.Len(t, env.Sink.FramesFor("todolist"), 1)
	assert.Len(t, env.Sink.FramesFor("daylight"), 1)
	counterFrame := env.Sink.LastFor("counter")
	require.NotNil(t, counterFrame)
	assert.Contains(t, counterFrame.Markup, `<span class="count">1</span>`)

	t.Log("WHEN: an action no reducer matches is dispatched")
	_, err = env.Dispatch(store.Action{Type: "audit/PING"})
	require.NoError(t, err)

	t.Log("THEN: every component keeps its props and nothing is published")
	assert.Equal(t, 2, env.Sink.PublishCount())

	t.Log("WHEN: the seeded todo is completed")
	_, err = env.Dispatch(store.Action{Type: todolist.ActionToggle, Payload: 1})
	require.NoError(t, err)

	t.Log("THEN: only the todolist re-renders")
	assert.Equal(t, 3, env.Sink.PublishCount())
	assert.Len(t, env.Sink.FramesFor("counter"), 2)
	todoFrame := env.Sink.LastFor("todolist")
	require.NotNil(t, todoFrame)
	assert.Contains(t, todoFrame.Markup, "[x] first")
	assert.Contains(t, todoFrame.Markup, "0 open")
}

func TestScenario_GatingIgnoresInvisibleStateChanges(t *testing.T) {
	env := setupEnv(t, testutil.EnvConfig{})
	env.Host.RenderAll()
	env.Sink.Clear()

	noon := env.Clock.Now()

	t.Log("GIVEN: a daylight observation that settles the phase")
	_, err := env.Dispatch(store.Action{Type: daylight.ActionTick, Payload: noon})
	require.NoError(t, err)
	require.Equal(t, 1, env.Sink.PublishCount())
	frame := env.Sink.LastFor("daylight")
	require.NotNil(t, frame)
	assert.Contains(t, frame.Markup, "phase-day")

	t.Log("WHEN: the next tick lands one minute later in the same phase")
	_, err = env.Dispatch(store.Action{Type: daylight.ActionTick, Payload: noon.Add(time.Minute)})
	require.NoError(t, err)

	t.Log("THEN: the state moved but the mapped props did not, so no frame")
	assert.Equal(t, 1, env.Sink.PublishCount())
}
