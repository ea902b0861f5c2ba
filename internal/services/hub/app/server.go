// Package server hosts the hub's WebSocket endpoint and process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
	platformgrpc "github.com/louisbranch/rfidhub/internal/platform/grpc"
	"github.com/louisbranch/rfidhub/internal/platform/timeouts"
	"github.com/louisbranch/rfidhub/internal/services/hub/dispatch"
	"github.com/louisbranch/rfidhub/internal/services/hub/mode"
	"github.com/louisbranch/rfidhub/internal/services/hub/protocol"
	"github.com/louisbranch/rfidhub/internal/services/hub/storage"
	hubsqlite "github.com/louisbranch/rfidhub/internal/services/hub/storage/sqlite"
	"github.com/louisbranch/rfidhub/internal/services/hub/verifier"
)

// MaxPayloadBytes caps one inbound frame.
const MaxPayloadBytes = 16 * 1024

// healthServiceName is the gRPC health entry reported alongside "".
const healthServiceName = "rfidhub.Hub"

// Config defines the inputs for the hub process.
type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	Verifier          string
	VerifierURL       string
	VerifierTimeout   time.Duration
	DBPath            string
	InitialMode       string
	SeedTags          []string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the hub HTTP/WebSocket listener and the optional gRPC health
// listener.
type Server struct {
	httpAddr        string
	grpcAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	health          *platformgrpc.HealthServer
	store           storage.Store
	service         *service
}

// service is the per-process hub state shared by every connection.
type service struct {
	hub        *Hub
	modes      *mode.Controller
	dispatcher *dispatch.Dispatcher

	// transitionMu keeps set_mode broadcasts in the order the transitions
	// were applied. It is held for the whole broadcast, so a client stalled
	// up to timeouts.Write delays the next transition by that much.
	transitionMu sync.Mutex
}

func newService(initial mode.Mode, v verifier.Verifier) *service {
	modes := mode.NewController(initial)
	return &service{
		hub:        NewHub(),
		modes:      modes,
		dispatcher: dispatch.New(modes, v),
	}
}

// NewHandler creates hub routes around a fresh hub starting in initial mode.
func NewHandler(initial mode.Mode, v verifier.Verifier) http.Handler {
	return newHandler(newService(initial, v))
}

func newHandler(svc *service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(svc.handleWSConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
	return mux
}

func (svc *service) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	conn.MaxPayloadBytes = MaxPayloadBytes

	request := conn.Request()
	session := NewSession(wsSender{conn: conn}, resolveLocale(request))
	defer svc.hub.Unregister(session)

	err := session.openWith(func() {
		svc.hub.Register(session)
	}, func() protocol.Envelope {
		return protocol.SetMode(svc.modes.Get().String())
	})
	if err != nil {
		log.Printf("hub: send initial mode to session %s: %v", session.ID(), err)
	}

	// Work started for this session runs to completion after a disconnect.
	ctx := context.Background()
	if request != nil {
		ctx = context.WithoutCancel(request.Context())
	}

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				log.Printf("hub: session %s sent a frame over %d bytes", session.ID(), MaxPayloadBytes)
				svc.replyError(session, apperrors.New(apperrors.CodeProtocolFrameTooLarge, "frame too large"))
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Printf("hub: read from session %s: %v", session.ID(), err)
			}
			return
		}
		svc.handleMessage(ctx, session, raw)
	}
}

func (svc *service) handleMessage(ctx context.Context, session *Session, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("hub: session %s sent invalid message (%s): %v", session.ID(), apperrors.GetCode(err).Category(), err)
		svc.replyError(session, err)
		return
	}

	switch env.Type {
	case protocol.TypeSetMode:
		svc.setMode(session, env.Mode)
	case protocol.TypeRfidScan:
		out := svc.dispatcher.Handle(ctx, env.RFID, session.Locale())
		switch out.Kind {
		case dispatch.Broadcast:
			svc.hub.Broadcast(out.Envelope)
		case dispatch.Reply:
			svc.hub.SendTo(session, out.Envelope)
		}
	}
}

func (svc *service) setMode(session *Session, requested string) {
	svc.transitionMu.Lock()
	defer svc.transitionMu.Unlock()

	next, err := svc.modes.Set(requested)
	if err != nil {
		log.Printf("hub: session %s requested invalid mode %q (%s)", session.ID(), requested, apperrors.GetCode(err).Category())
		svc.replyError(session, err)
		return
	}
	svc.hub.Broadcast(protocol.SetMode(next.String()))
}

func (svc *service) replyError(session *Session, err error) {
	svc.hub.SendTo(session, protocol.Error(dispatch.ErrorText(session.Locale(), err)))
}

// NewServer creates a configured hub server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	initial := mode.Default
	if value := strings.TrimSpace(config.InitialMode); value != "" {
		parsed, err := mode.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("initial mode: %w", err)
		}
		initial = parsed
	}

	v, store, err := openVerifier(config)
	if err != nil {
		return nil, err
	}

	svc := newService(initial, v)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           newHandler(svc),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	server := &Server{
		httpAddr:        httpAddr,
		grpcAddr:        strings.TrimSpace(config.GRPCAddr),
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           store,
		service:         svc,
	}
	if server.grpcAddr != "" {
		healthServer, err := platformgrpc.ListenHealth(server.grpcAddr, healthServiceName)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("health listener: %w", err)
		}
		server.health = healthServer
	}
	return server, nil
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil {
		return ""
	}
	return s.health.Addr()
}

// openVerifier builds the configured verifier backend. The store is returned
// so the server can close it.
func openVerifier(config Config) (verifier.Verifier, storage.Store, error) {
	backendName := config.Verifier
	if strings.TrimSpace(backendName) == "" {
		backendName = string(verifier.BackendHTTP)
	}
	backend, err := verifier.ParseBackend(backendName)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case verifier.BackendSQLite:
		store, err := openTagStore(config.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := seedTags(store, config.SeedTags); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return verifier.NewStoreVerifier(store, config.VerifierTimeout), store, nil
	default:
		v, err := verifier.NewHTTPVerifier(config.VerifierURL, config.VerifierTimeout, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("http verifier: %w", err)
		}
		return v, nil, nil
	}
}

func openTagStore(path string) (*hubsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "rfidhub.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := hubsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tag store: %w", err)
	}
	return store, nil
}

func seedTags(store storage.Store, tags []string) error {
	now := time.Now()
	seeded := 0
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if err := store.AssignTag(context.Background(), tag, now); err != nil {
			return fmt.Errorf("seed tag %q: %w", tag, err)
		}
		seeded++
	}
	if seeded > 0 {
		log.Printf("hub: seeded %d assigned tags", seeded)
	}
	return nil
}

// Run creates a server and serves it until ctx is cancelled.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init hub server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve hub: %w", err)
	}
	return nil
}

// ListenAndServe serves HTTP, and gRPC health when configured, until ctx is
// cancelled or a listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("hub server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 2)
	if s.health != nil {
		log.Printf("hub health listening at %s", s.health.Addr())
		go func() {
			if err := s.health.Serve(); err != nil {
				serveErr <- err
			}
		}()
	}

	log.Printf("hub server listening on %s", s.httpAddr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		_ = s.shutdown()
		return err
	}
}

func (s *Server) shutdown() error {
	s.health.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.health.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close tag store: %v", err)
		}
	}
}
