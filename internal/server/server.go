// Package server glues the WebSocket transport to the JSON-RPC dispatcher:
// connection upgrade, per-frame routing, welcome emission, disconnect
// recovery and the HTTP surface.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardtable-online/internal/jsonrpc"
	"cardtable-online/internal/lobby"
	"cardtable-online/internal/rpc"
	"cardtable-online/internal/store"
	"cardtable-online/internal/ws"
)

// Config carries the tunables of one server instance.
type Config struct {
	Addr             string        // bind address, default 0.0.0.0:7998
	ReadLimit        int64         // max inbound frame size, default 1 KiB
	HandshakeTimeout time.Duration // WebSocket handshake timeout, default 5s
	SessionCacheSize int           // recent-session cache entries, default 1024
	Store            store.UserStore
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = "0.0.0.0:7998"
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = ws.DefaultReadLimit
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.SessionCacheSize <= 0 {
		c.SessionCacheSize = 1024
	}
}

// Server holds all server state.
type Server struct {
	cfg        Config
	hub        *ws.Hub
	dispatcher *rpc.Dispatcher
	users      *lobby.Users
	rooms      *lobby.Rooms
	sessions   *sessionCache
	metrics    *metrics
	upgrader   websocket.Upgrader
	router     *mux.Router
}

// New wires a server. Handler registration happens here, once, before any
// connection is accepted.
func New(cfg Config) (*Server, error) {
	cfg.applyDefaults()

	sessions, err := newSessionCache(cfg.SessionCacheSize, ReconnectGracePeriod)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		hub:        ws.NewHub(),
		dispatcher: rpc.NewDispatcher(),
		users:      lobby.NewUsers(cfg.Store),
		rooms:      lobby.NewRooms(),
		sessions:   sessions,
		metrics:    newMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				return true // clients connect from arbitrary origins
			},
		},
	}

	s.dispatcher.SetTeardown(s.teardown)
	s.dispatcher.SetObserver(s.metrics.observeCall)
	if err := s.registerHandlers(); err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWebSocket)
	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	s.router = router

	go s.hub.Run()
	return s, nil
}

// Addr returns the configured bind address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Handler returns the HTTP surface (/ws, /healthz, /metrics).
func (s *Server) Handler() http.Handler { return s.router }

// handleWebSocket upgrades a connection and runs its read loop to
// completion.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: WebSocket upgrade error: %v", err)
		return
	}

	// Returning clients present their previous session id to resume it.
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	client := ws.NewClient(s.hub, conn, sessionID, s.cfg.ReadLimit)
	sess := rpc.NewSession(sessionID)
	s.restoreIdentity(sess)

	client.SetOnDisconnect(func(c *ws.Client) {
		// Remember the identity before teardown clears it.
		s.sessions.remember(sess.ID, sess.UserName)
		s.dispatcher.OnDisconnect(sess)
		s.metrics.connClosed()
	})

	s.hub.Register(client)
	s.metrics.connOpened()

	go client.WritePump()
	s.dispatcher.OnConnect(client, sess)

	client.ReadPump(func(c *ws.Client, payload []byte) {
		s.clientMessage(c, sess, payload)
	})
}

// clientMessage parses one inbound payload and routes it. Response and
// Error frames from a client are unexpected; they are logged and dropped.
func (s *Server) clientMessage(c *ws.Client, sess *rpc.Session, payload []byte) {
	frame, err := jsonrpc.Parse(payload)
	if err != nil {
		code, message := jsonrpc.MapParseError(err)
		data, encErr := jsonrpc.EncodeError(nil, code, message)
		if encErr != nil {
			log.Printf("server: failed to encode parse-error frame: %v", encErr)
			return
		}
		if sendErr := c.SendPayload(data); sendErr != nil {
			log.Printf("server: failed to send parse error to %s: %v", sess.ID, sendErr)
		}
		return
	}

	switch frame.Kind {
	case jsonrpc.KindCall:
		s.dispatcher.OnCall(c, sess, frame.Call)
	case jsonrpc.KindResponse:
		log.Printf("server: unexpected response frame from %s", sess.ID)
	case jsonrpc.KindError:
		log.Printf("server: unexpected error frame from %s: %d %s",
			sess.ID, frame.Error.Code, frame.Error.Message)
	}
}

// restoreIdentity re-claims the nickname of a recently dropped session, so
// a reconnect within the grace period keeps its identity without a fresh
// user_set_name. Best-effort: a conflict just leaves the session unbound.
func (s *Server) restoreIdentity(sess *rpc.Session) {
	nickname, ok := s.sessions.recall(sess.ID)
	if !ok {
		return
	}
	identity, err := s.users.SetName(0, "", nickname)
	if err != nil {
		log.Printf("server: session %s could not reclaim %q: %v", sess.ID, nickname, err)
		return
	}
	sess.UserID = identity.ID
	sess.UserName = identity.Username
	log.Printf("server: session %s resumed as %q (user %d)", sess.ID, identity.Username, identity.ID)
}

// teardown releases everything a session owned: room membership first (host
// migration, auto-delete), then the user entry and its nickname.
func (s *Server) teardown(sess *rpc.Session) {
	if sess.UserID == 0 {
		return
	}
	s.rooms.HandleDisconnect(sess.UserID)
	s.users.Remove(sess.UserID)
}
