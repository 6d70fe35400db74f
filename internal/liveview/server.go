// Package liveview serves rendered component frames to websocket
// clients and feeds their actions into the store. The store and host
// are confined to the Run loop; the HTTP layer only ever talks to the
// loop through channels.
package liveview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"unistore/internal/clock"
	"unistore/store"
	"unistore/view"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message kinds sent to websocket clients.
const (
	KindFrames = "frames"
	KindError  = "error"
)

var errReadOnly = errors.New("server is read-only")

// Message is the server-to-client websocket envelope
type Message struct {
	Kind   string       `json:"kind"`
	Frames []view.Frame `json:"frames,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// StateResponse represents the JSON response for the state endpoint
type StateResponse struct {
	Title string `json:"title"`
	State any    `json:"state"`
}

// client wraps a websocket connection with its write mutex
type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// inbound is one client action waiting for the loop
type inbound struct {
	from   *client
	action map[string]any
}

// Options configures a liveview server
type Options struct {
	// Addr is the host:port to bind, ":8080" when empty
	Addr string

	// Title labels the state endpoint response
	Title string

	// TickInterval is the cadence of the loop's tick dispatch,
	// one minute when zero
	TickInterval time.Duration

	// ReadOnly rejects every incoming action with an error frame
	ReadOnly bool

	// Clock drives the tick loop, RealClock when nil
	Clock clock.Clock

	Logger *zap.Logger
}

// Server owns the single-writer loop around a store and a component
// host, and the HTTP surface in front of them
type Server struct {
	st        *store.Store
	host      *view.Host
	clk       clock.Clock
	logger    *zap.Logger
	title     string
	tickEvery time.Duration
	readOnly  bool

	server   *http.Server
	listener net.Listener

	clients   []*client
	clientsMu sync.Mutex

	actions   chan inbound
	syncs     chan *client
	snapshots chan chan []byte
	done      chan struct{}
}

// NewServer wraps st in a liveview server. The server builds its own
// host, wired to broadcast published frames; mount components on Host()
// before calling Run.
func NewServer(st *store.Store, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Title == "" {
		opts.Title = "unistore liveview"
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		st:        st,
		clk:       opts.Clock,
		logger:    opts.Logger,
		title:     opts.Title,
		tickEvery: opts.TickInterval,
		readOnly:  opts.ReadOnly,
		actions:   make(chan inbound, 64),
		syncs:     make(chan *client, 8),
		snapshots: make(chan chan []byte, 4),
		done:      make(chan struct{}),
	}
	s.host = view.NewHost(opts.Logger.Named("host"), s)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSitemap)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Host returns the component host owned by this server
func (s *Server) Host() *view.Host {
	return s.host
}

// Done is closed when the Run loop has exited
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	s.logger.Info("Liveview server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, useful when Start listened on port 0
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Stop closes every client connection and gracefully shuts down the
// HTTP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping liveview server")

	s.clientsMu.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.clients = nil
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown liveview server: %w", err)
	}
	return nil
}

// Publish implements view.Sink by broadcasting frames to every client
func (s *Server) Publish(frames []view.Frame) {
	s.broadcast(Message{Kind: KindFrames, Frames: frames})
}

func (s *Server) broadcast(msg Message) {
	s.clientsMu.Lock()
	clients := make([]*client, len(s.clients))
	copy(clients, s.clients)
	s.clientsMu.Unlock()

	for _, c := range clients {
		c.writeMu.Lock()
		if err := c.conn.WriteJSON(msg); err != nil {
			s.logger.Debug("Broadcast write failed",
				zap.String("client_id", c.id),
				zap.Error(err))
		}
		c.writeMu.Unlock()
	}
}

func (s *Server) send(c *client, msg Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("Client write failed",
			zap.String("client_id", c.id),
			zap.Error(err))
	}
}

func (s *Server) sendError(c *client, err error) {
	s.send(c, Message{Kind: KindError, Error: err.Error()})
}

// ClientCount reports the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// handleWebSocket upgrades the connection, registers the client and
// pumps its messages into the action channel
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	c := &client{id: uuid.New().String(), conn: conn}

	s.clientsMu.Lock()
	s.clients = append(s.clients, c)
	s.clientsMu.Unlock()

	s.logger.Info("Client connected",
		zap.String("client_id", c.id),
		zap.String("remote_addr", r.RemoteAddr))

	defer func() {
		s.clientsMu.Lock()
		for i, other := range s.clients {
			if other == c {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.clientsMu.Unlock()
		conn.Close()
		s.logger.Info("Client disconnected", zap.String("client_id", c.id))
	}()

	// Ask the loop for a full snapshot so the new client has every
	// frame before the next incremental flush.
	select {
	case s.syncs <- c:
	default:
		s.logger.Warn("Sync queue full, client starts without a snapshot",
			zap.String("client_id", c.id))
	}

	for {
		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.logger.Warn("Dropping malformed message",
					zap.String("client_id", c.id),
					zap.Error(err))
				continue
			}
			s.logger.Debug("Client read ended",
				zap.String("client_id", c.id),
				zap.Error(err))
			return
		}

		if s.readOnly {
			s.sendError(c, errReadOnly)
			continue
		}

		select {
		case s.actions <- inbound{from: c, action: raw}:
		default:
			s.logger.Warn("Action queue full, dropping action",
				zap.String("client_id", c.id))
			s.sendError(c, errors.New("server busy"))
		}
	}
}

// handleGetState returns the store state as JSON. The snapshot is taken
// by the loop, never by this handler.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reply := make(chan []byte, 1)
	select {
	case s.snapshots <- reply:
	case <-time.After(2 * time.Second):
		http.Error(w, "State unavailable", http.StatusServiceUnavailable)
		return
	}

	select {
	case data := <-reply:
		if data == nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		s.logger.Debug("State request served", zap.String("remote_addr", r.RemoteAddr))
	case <-time.After(2 * time.Second):
		http.Error(w, "State unavailable", http.StatusServiceUnavailable)
	}
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// Endpoint represents a served endpoint with its documentation
type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// handleSitemap lists the available endpoints
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	endpoints := []Endpoint{
		{Path: "/", Method: "GET", Description: "This sitemap - lists all available endpoints"},
		{Path: "/ws", Method: "GET", Description: "Websocket - receives rendered frames, accepts actions"},
		{Path: "/api/state", Method: "GET", Description: "Current store state as JSON"},
		{Path: "/health", Method: "GET", Description: "Health check - returns {\"status\": \"ok\"}"},
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s\n", s.title)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(s.title)))
	fmt.Fprintf(w, "Available endpoints:\n\n")
	for _, ep := range endpoints {
		fmt.Fprintf(w, "  %-6s %-12s %s\n", ep.Method, ep.Path, ep.Description)
	}

	s.logger.Debug("Sitemap request served", zap.String("remote_addr", r.RemoteAddr))
}
