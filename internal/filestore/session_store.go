package filestore

import (
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

type sessionStore struct {
	s *Store
}

// Sessions returns the SessionRepository view of the store
func (s *Store) Sessions() repository.SessionRepository {
	return &sessionStore{s: s}
}

func (ss *sessionStore) Create(session *entities.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	clone := *session
	ss.s.sessions[session.SessionID] = &clone
	return ss.s.saveSessions()
}

func (ss *sessionStore) Get(sessionID string) (*entities.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	sess, ok := ss.s.sessions[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("session", sessionID)
	}
	clone := *sess
	return &clone, nil
}

func (ss *sessionStore) Delete(sessionID string) (bool, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, ok := ss.s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(ss.s.sessions, sessionID)
	return true, ss.s.saveSessions()
}

func (ss *sessionStore) DeleteExpired(now time.Time) (int, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	cleaned := 0
	for id, sess := range ss.s.sessions {
		if sess.Expired(now) {
			delete(ss.s.sessions, id)
			cleaned++
		}
	}
	if cleaned == 0 {
		return 0, nil
	}
	return cleaned, ss.s.saveSessions()
}
