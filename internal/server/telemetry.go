package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/citysim/internal/core/events/bus"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/observability/log"
)

// Message types on the telemetry socket.
const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
	MessageInput    = "input"
)

// Config holds telemetry server configuration
type Config struct {
	ListenAddr string
	MaxClients int
	// ClientBuffer is the number of messages queued per client. A client whose
	// queue is full misses messages instead of slowing the broadcaster.
	ClientBuffer int
	WriteTimeout time.Duration
	// MaxMessageSize bounds inbound control messages.
	MaxMessageSize int64
}

// DefaultConfig returns default telemetry server configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8090",
		MaxClients:     64,
		ClientBuffer:   8,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

func (c Config) Validate() error {
	if c.MaxClients <= 0 || c.ClientBuffer <= 0 {
		return fmt.Errorf("%w: max clients and client buffer must be positive", ErrInvalidConfig)
	}
	if c.WriteTimeout <= 0 || c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: write timeout and max message size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Message is the envelope for everything sent to clients.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ControlMessage is what clients send back: currently remote input.
type ControlMessage struct {
	Action string          `json:"action"`
	Input  *input.Snapshot `json:"input,omitempty"`
}

// EventPayload is the data of a MessageEvent: one forwarded bus event.
type EventPayload struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// StatusFunc reports extra state for /healthz. It is called from HTTP
// goroutines and must be safe for concurrent use.
type StatusFunc func() any

// InputHandler receives input snapshots sent by clients. It is called from
// client goroutines.
type InputHandler func(clientID string, snapshot input.Snapshot)

type clientSession struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
	dropped     atomic.Uint64
}

func (c *clientSession) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// TelemetryServer streams simulation snapshots to websocket clients, such as
// the renderer or a debug viewer, and accepts remote input from them.
type TelemetryServer struct {
	config   Config
	logger   log.Log
	upgrader websocket.Upgrader

	clients     sync.Map // map[string]*clientSession
	clientCount int64    // atomic

	running    int32 // atomic bool
	closed     int32 // atomic bool
	httpServer *http.Server
	listener   net.Listener

	mu      sync.RWMutex
	onInput InputHandler
	status  StatusFunc

	broadcasts uint64 // atomic
}

func NewTelemetryServer(config Config, logger log.Log) *TelemetryServer {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &TelemetryServer{
		config: config,
		logger: logger.With(log.String("component", "telemetry")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.logger.Info("Telemetry server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))
	return s
}

// OnInput installs the handler for client input messages.
func (s *TelemetryServer) OnInput(fn InputHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInput = fn
}

// SetStatus installs the provider whose result /healthz reports under "sim".
func (s *TelemetryServer) SetStatus(fn StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// Handler serves /ws and /healthz. Start uses it; tests mount it directly.
func (s *TelemetryServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *TelemetryServer) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Telemetry server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("Telemetry server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound listen address, or nil before Start.
func (s *TelemetryServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *TelemetryServer) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping telemetry server")

	err := s.httpServer.Shutdown(ctx)
	s.disconnectAll()

	s.logger.Info("Telemetry server stopped")
	return err
}

// Close stops the server if needed and refuses later starts.
func (s *TelemetryServer) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		return s.Stop(context.Background())
	}
	s.disconnectAll()
	return nil
}

func (s *TelemetryServer) ClientCount() int {
	return int(atomic.LoadInt64(&s.clientCount))
}

// Broadcasts counts messages that reached at least one client.
func (s *TelemetryServer) Broadcasts() uint64 {
	return atomic.LoadUint64(&s.broadcasts)
}

// Broadcast encodes a snapshot once and queues it for every client. It never
// blocks on a slow client.
func (s *TelemetryServer) Broadcast(v any) error {
	return s.send(MessageSnapshot, v)
}

// Notify forwards a bus event to every client. Its signature matches
// bus.EventHandler so it can be subscribed directly.
func (s *TelemetryServer) Notify(e bus.Event) error {
	return s.send(MessageEvent, EventPayload{
		Type:      e.Type(),
		Source:    e.Source(),
		Timestamp: e.Timestamp(),
		Data:      e.Data(),
	})
}

func (s *TelemetryServer) send(msgType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	frame, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	reached := false
	s.clients.Range(func(_, value any) bool {
		c := value.(*clientSession)
		select {
		case c.send <- frame:
			reached = true
		case <-c.done:
		default:
			if c.dropped.Add(1) == 1 {
				s.logger.Warn("Client too slow, dropping snapshots", log.String("client_id", c.id))
			}
		}
		return true
	})
	if reached {
		atomic.AddUint64(&s.broadcasts, 1)
	}
	return nil
}

func (s *TelemetryServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	}
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	if status != nil {
		body["sim"] = status()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *TelemetryServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&s.closed) == 1 {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if s.ClientCount() >= s.config.MaxClients {
		s.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &clientSession{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, s.config.ClientBuffer),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
	s.clients.Store(c.id, c)
	atomic.AddInt64(&s.clientCount, 1)

	s.logger.Info("Client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	go s.writePump(c)
	s.readPump(c)
}

func (s *TelemetryServer) readPump(c *clientSession) {
	defer s.removeClient(c)

	clientLogger := s.logger.With(log.String("client_id", c.id))
	c.conn.SetReadLimit(s.config.MaxMessageSize)
	for {
		var msg ControlMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				clientLogger.Debug("Client read failed", log.Error(err))
			}
			return
		}
		if err := s.handleControl(c, msg); err != nil {
			clientLogger.Warn("Invalid control message", log.Error(err))
		}
	}
}

func (s *TelemetryServer) handleControl(c *clientSession, msg ControlMessage) error {
	switch msg.Action {
	case MessageInput:
		if msg.Input == nil {
			return fmt.Errorf("%w: input action without input", ErrInvalidMessage)
		}
		s.mu.RLock()
		fn := s.onInput
		s.mu.RUnlock()
		if fn != nil {
			fn(c.id, *msg.Input)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, msg.Action)
	}
}

func (s *TelemetryServer) writePump(c *clientSession) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("Client write failed", log.String("client_id", c.id), log.Error(err))
				c.close()
				return
			}
		}
	}
}

func (s *TelemetryServer) removeClient(c *clientSession) {
	c.close()
	if _, loaded := s.clients.LoadAndDelete(c.id); !loaded {
		return
	}
	atomic.AddInt64(&s.clientCount, -1)
	s.logger.Info("Client disconnected",
		log.String("client_id", c.id),
		log.Duration("connected_for", time.Since(c.connectedAt)),
		log.Uint64("dropped", c.dropped.Load()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
}

func (s *TelemetryServer) disconnectAll() {
	s.clients.Range(func(_, value any) bool {
		s.removeClient(value.(*clientSession))
		return true
	})
}
