package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
}

// NewSessionRepository keeps sessions in process memory. Sessions do not survive restarts.
func NewSessionRepository(ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{sessions: make(map[string]domain.Session), ttl: ttl}
}

func (r *sessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *sessionRepository) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepository) Extend(_ context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.ExpiresAt = time.Now().Add(duration)
	r.sessions[id] = session
	return nil
}
