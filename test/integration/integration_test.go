package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unistore/pkg/testutil"
	"unistore/view"
)

const readTimeout = 2 * time.Second

// setupEnv builds a harness without a server. The test goroutine owns
// the store; frames land in env.Sink.
func setupEnv(t *testing.T, cfg testutil.EnvConfig) *testutil.Env {
	t.Helper()
	env, err := testutil.NewEnv(cfg)
	require.NoError(t, err)
	t.Cleanup(env.Cleanup)
	return env
}

// setupServerEnv builds a harness with a running liveview server. The
// loop owns the store; drive it over websockets and env.Clock.
func setupServerEnv(t *testing.T, cfg testutil.EnvConfig) *testutil.Env {
	t.Helper()
	env, err := testutil.NewServerEnv(cfg)
	require.NoError(t, err)
	t.Cleanup(env.Cleanup)
	return env
}

func dialEnv(t *testing.T, env *testutil.Env) *testutil.Client {
	t.Helper()
	client, err := testutil.DialServer(env.Server)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// frameFor finds the frame for the named component in a batch.
func frameFor(t *testing.T, frames []view.Frame, name string) view.Frame {
	t.Helper()
	for _, f := range frames {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "frame not found", "no frame for component %q in batch of %d", name, len(frames))
	return view.Frame{}
}
