package memory

import (
	"sync"

	"livequiz/internal/app"
)

// SessionStore keeps live quiz sessions in process memory, the default when
// no Redis address is configured. Sessions are created lazily by the first
// participant or leaderboard viewer and dropped again once both are gone.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(quizID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[quizID]; ok {
		return session
	}
	session := app.NewSession(quizID)
	s.sessions[quizID] = session
	return session
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

// DropIdle removes the session when no participant and no leaderboard viewer
// is left, so a quiz somebody merely glanced at does not pin memory.
func (s *SessionStore) DropIdle(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[quizID]
	if !ok {
		return
	}
	if session.Idle() {
		delete(s.sessions, quizID)
	}
}
