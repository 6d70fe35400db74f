package liveview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unistore/component"
	"unistore/internal/clock"
	"unistore/internal/components/counter"
	"unistore/internal/components/daylight"
	"unistore/store"
)

type fixture struct {
	srv *Server
	st  *store.Store
	clk *clock.MockClock
}

// startServer builds a store with the counter and daylight slices,
// mounts both components from the global registry and runs the loop on
// an ephemeral port.
func startServer(t *testing.T, opts Options) *fixture {
	t.Helper()

	rootReducer, err := store.CombineReducers(map[string]store.Reducer{
		counter.SliceName:  counter.NewReducer(0),
		daylight.SliceName: daylight.NewReducer(51.5072, -0.1276),
	})
	require.NoError(t, err)

	st, err := store.New(rootReducer, store.WithMiddleware(store.RunThunk))
	require.NoError(t, err)

	clk := clock.NewMockClock(time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC))
	if opts.Clock == nil {
		opts.Clock = clk
	}
	opts.Addr = "127.0.0.1:0"
	srv := NewServer(st, opts)

	cctx, err := component.NewContext(st, zap.NewNop())
	require.NoError(t, err)
	for _, name := range []string{"counter", "daylight"} {
		info := component.Get(name)
		require.NotNil(t, info, "component %s must be registered", name)
		comp, err := info.Factory(cctx)
		require.NoError(t, err)
		require.NoError(t, srv.Host().MountComponent(name, comp, nil))
	}

	require.NoError(t, srv.Start())

	runCtx, cancel := context.WithCancel(context.Background())
	go srv.Run(runCtx)

	t.Cleanup(func() {
		cancel()
		<-srv.Done()
		srv.Stop()
	})

	return &fixture{srv: srv, st: st, clk: clk}
}

func dial(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", f.srv.Addr()), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServerSnapshotOnConnect(t *testing.T) {
	f := startServer(t, Options{})
	conn := dial(t, f)

	msg := readMessage(t, conn)
	assert.Equal(t, KindFrames, msg.Kind)
	require.Len(t, msg.Frames, 2, "snapshot carries every mounted component")
	assert.Equal(t, "counter", msg.Frames[0].Name)
	assert.Equal(t, "daylight", msg.Frames[1].Name)
	assert.Contains(t, msg.Frames[0].Markup, `<span class="count">0</span>`)
}

func TestServerDispatchFlow(t *testing.T) {
	f := startServer(t, Options{})
	conn := dial(t, f)
	readMessage(t, conn) // snapshot

	require.NoError(t, conn.WriteJSON(map[string]any{"type": counter.ActionIncrement}))
	msg := readMessage(t, conn)
	assert.Equal(t, KindFrames, msg.Kind)
	require.Len(t, msg.Frames, 1, "only the counter changed")
	assert.Equal(t, "counter", msg.Frames[0].Name)
	assert.Contains(t, msg.Frames[0].Markup, `<span class="count">1</span>`)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": counter.ActionAdd, "payload": 5}))
	msg = readMessage(t, conn)
	require.Len(t, msg.Frames, 1)
	assert.Contains(t, msg.Frames[0].Markup, `<span class="count">6</span>`)
}

func TestServerBroadcastsToAllClients(t *testing.T) {
	f := startServer(t, Options{})

	sender := dial(t, f)
	readMessage(t, sender)

	watcher := dial(t, f)
	readMessage(t, watcher)
	// The watcher's sync re-renders everything, so the sender sees a
	// second snapshot before the increment.
	readMessage(t, sender)

	require.NoError(t, sender.WriteJSON(map[string]any{"type": counter.ActionIncrement}))

	for _, conn := range []*websocket.Conn{sender, watcher} {
		msg := readMessage(t, conn)
		require.Len(t, msg.Frames, 1)
		assert.Contains(t, msg.Frames[0].Markup, `<span class="count">1</span>`)
	}
}

func TestServerRejectsBadActions(t *testing.T) {
	f := startServer(t, Options{})
	conn := dial(t, f)
	readMessage(t, conn)

	t.Run("non-string type", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": 123}))
		msg := readMessage(t, conn)
		assert.Equal(t, KindError, msg.Kind)
		assert.Contains(t, msg.Error, "no type")
	})

	t.Run("missing type", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"kind": "noise"}))
		msg := readMessage(t, conn)
		assert.Equal(t, KindError, msg.Kind)
	})

	t.Run("malformed JSON is dropped without closing the connection", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

		require.NoError(t, conn.WriteJSON(map[string]any{"type": counter.ActionIncrement}))
		msg := readMessage(t, conn)
		assert.Equal(t, KindFrames, msg.Kind, "the connection must survive garbage input")
	})

	t.Run("error frames reach only the sender", func(t *testing.T) {
		bystander := dial(t, f)
		readMessage(t, bystander) // snapshot for the new client

		// The bystander's sync was a broadcast, drain it here too.
		readMessage(t, conn)

		require.NoError(t, conn.WriteJSON(map[string]any{"type": 99}))
		msg := readMessage(t, conn)
		assert.Equal(t, KindError, msg.Kind)

		// If the error had been broadcast, the bystander would see it
		// before this increment's frames.
		require.NoError(t, bystander.WriteJSON(map[string]any{"type": counter.ActionIncrement}))
		msg = readMessage(t, bystander)
		assert.Equal(t, KindFrames, msg.Kind, "bystanders must not see another client's error")

		readMessage(t, conn) // drain the increment broadcast
	})
}

func TestServerNoFramesWhenNothingChanges(t *testing.T) {
	f := startServer(t, Options{})
	conn := dial(t, f)
	readMessage(t, conn)

	// Valid action no slice responds to: the state tree is rebuilt but
	// every mapped prop is identical, so no component re-renders. The
	// loop processes actions in order, so if the noop had produced
	// frames they would arrive before the increment's.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "noop/NOTHING"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": counter.ActionIncrement}))

	msg := readMessage(t, conn)
	require.Len(t, msg.Frames, 1)
	assert.Contains(t, msg.Frames[0].Markup, `<span class="count">1</span>`,
		"the first frames on the wire belong to the increment")
}

func TestServerReadOnly(t *testing.T) {
	f := startServer(t, Options{ReadOnly: true})
	conn := dial(t, f)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": counter.ActionIncrement}))
	msg := readMessage(t, conn)
	assert.Equal(t, KindError, msg.Kind)
	assert.Contains(t, msg.Error, "read-only")
}

func TestServerTick(t *testing.T) {
	f := startServer(t, Options{TickInterval: time.Minute})
	conn := dial(t, f)

	msg := readMessage(t, conn)
	require.Len(t, msg.Frames, 2)
	assert.Contains(t, msg.Frames[1].Markup, "--:--", "no observation before the first tick")

	f.clk.Advance(time.Minute)

	msg = readMessage(t, conn)
	require.Len(t, msg.Frames, 1, "the tick only re-renders the daylight component")
	assert.Equal(t, "daylight", msg.Frames[0].Name)
	assert.Contains(t, msg.Frames[0].Markup, "phase-day", "noon in London in June is daytime")
}

func TestServerStateEndpoint(t *testing.T) {
	f := startServer(t, Options{Title: "board"})

	resp, err := http.Get(fmt.Sprintf("http://%s/api/state", f.srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Title string         `json:"title"`
		State map[string]any `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "board", body.Title)

	counterSlice, ok := body.State["counter"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), counterSlice["count"])
	assert.Contains(t, body.State, "daylight")

	post, err := http.Post(fmt.Sprintf("http://%s/api/state", f.srv.Addr()), "application/json", nil)
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestServerHealth(t *testing.T) {
	f := startServer(t, Options{})

	resp, err := http.Get(fmt.Sprintf("http://%s/health", f.srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["clients"])

	conn := dial(t, f)
	readMessage(t, conn)
	assert.Equal(t, 1, f.srv.ClientCount())
}

func TestServerSitemap(t *testing.T) {
	f := startServer(t, Options{Title: "board"})

	resp, err := http.Get(fmt.Sprintf("http://%s/", f.srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "board")
	assert.Contains(t, text, "/ws")
	assert.Contains(t, text, "/api/state")

	missing, err := http.Get(fmt.Sprintf("http://%s/nope", f.srv.Addr()))
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
