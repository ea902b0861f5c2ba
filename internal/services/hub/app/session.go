package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/louisbranch/rfidhub/internal/platform/timeouts"
	"github.com/louisbranch/rfidhub/internal/services/hub/protocol"
)

var errSessionClosed = errors.New("session is closed")

// State is a session's position in its connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sender writes one encoded message to a client.
type Sender interface {
	Send(payload []byte) error
}

// wsSender writes each payload as one websocket text frame.
type wsSender struct {
	conn *websocket.Conn
}

func (w wsSender) Send(payload []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(timeouts.Write)); err != nil {
		return err
	}
	return websocket.Message.Send(w.conn, string(payload))
}

// Session is one client connection known to the hub.
type Session struct {
	id     string
	locale string
	sender Sender

	writeMu sync.Mutex

	mu    sync.Mutex
	state State
}

// NewSession wraps sender in a connecting session with a fresh id.
func NewSession(sender Sender, locale string) *Session {
	return &Session{
		id:     uuid.NewString(),
		locale: locale,
		sender: sender,
		state:  StateConnecting,
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Locale returns the locale used for error replies.
func (s *Session) Locale() string {
	return s.locale
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) open() {
	s.mu.Lock()
	if s.state == StateConnecting {
		s.state = StateOpen
	}
	s.mu.Unlock()
}

// close marks the session closed and reports whether this call closed it.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

// Send encodes env and writes it. Writes are serialized; a closed session
// drops the message.
func (s *Session) Send(env protocol.Envelope) error {
	payload := protocol.Encode(env)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.State() == StateClosed {
		return errSessionClosed
	}
	return s.sender.Send(payload)
}

// openWith runs register and writes the envelope from build while holding the
// write lock, so the first frame a client sees is always the one built here.
// Anything sent to the session concurrently waits behind it.
func (s *Session) openWith(register func(), build func() protocol.Envelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	register()
	if s.State() == StateClosed {
		return errSessionClosed
	}
	return s.sender.Send(protocol.Encode(build()))
}
