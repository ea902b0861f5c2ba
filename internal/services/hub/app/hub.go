package server

import (
	"errors"
	"log"
	"sync"

	"github.com/louisbranch/rfidhub/internal/services/hub/protocol"
)

// Hub is the registry of open sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Register adds s and marks it open.
func (h *Hub) Register(s *Session) {
	if s == nil {
		return
	}
	s.open()
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	log.Printf("hub: session %s connected (%d open)", s.id, h.Len())
}

// Unregister removes s and marks it closed. Repeated calls are no-ops.
func (h *Hub) Unregister(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	s.close()
	if ok {
		log.Printf("hub: session %s disconnected (%d open)", s.id, h.Len())
	}
}

// Len returns the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends env to every session registered when the call starts.
// Failed deliveries are logged and skipped.
func (h *Hub) Broadcast(env protocol.Envelope) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(env); err != nil && !errors.Is(err, errSessionClosed) {
			log.Printf("hub: deliver %s to session %s: %v", env.Type, s.id, err)
		}
	}
}

// SendTo sends env to s alone.
func (h *Hub) SendTo(s *Session, env protocol.Envelope) {
	if s == nil {
		return
	}
	if err := s.Send(env); err != nil && !errors.Is(err, errSessionClosed) {
		log.Printf("hub: reply %s to session %s: %v", env.Type, s.id, err)
	}
}
