package net

// SessionStore holds all active sessions. Accessed only from the game
// loop goroutine, so no mutex.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (ss *SessionStore) Add(s *Session)         { ss.sessions[s.ID] = s }
func (ss *SessionStore) Remove(id uint64)       { delete(ss.sessions, id) }
func (ss *SessionStore) Get(id uint64) *Session { return ss.sessions[id] }
func (ss *SessionStore) Count() int             { return len(ss.sessions) }

// ForEach iterates all sessions. Closing a session during iteration is
// safe.
func (ss *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range ss.sessions {
		fn(s)
	}
}
