package rpc

import "sync"

// Session binds a transport connection to an optional user identity and an
// optional room. A session is owned by one handler goroutine at a time; the
// transport serialises frame delivery per connection. Only the disconnect
// flag needs a lock, because teardown can race a superseding reconnect.
type Session struct {
	ID string

	UserID   int64  // 0 when no identity is bound
	UserName string // connection's own copy of the nickname
	RoomID   uint32 // 0 when not in a room

	mu           sync.Mutex
	disconnected bool
}

// NewSession creates a session for a transport connection.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Disconnected reports whether teardown already ran.
func (s *Session) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// markDisconnected flips the teardown guard; the first caller gets true.
func (s *Session) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return false
	}
	s.disconnected = true
	return true
}
