package memory

import (
	"context"
	"sort"
	"sync"

	"live-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository and app.QuestionLoader.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.LiveSession
	active    map[string]string // class id -> active session id
	byClass   map[string][]string
	questions map[string]domain.LiveQuestion
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*domain.LiveSession),
		active:    make(map[string]string),
		byClass:   make(map[string][]string),
		questions: make(map[string]domain.LiveQuestion),
	}
}

func (s *SessionStore) Create(_ context.Context, session domain.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[session.ClassID]; ok {
		return domain.ErrConflictingSession
	}
	stored := cloneSession(session)
	s.sessions[session.ID] = &stored
	s.byClass[session.ClassID] = append(s.byClass[session.ClassID], session.ID)
	for _, q := range session.Questions {
		s.questions[q.ID] = q
	}
	if session.Status == domain.StatusActive {
		s.active[session.ClassID] = session.ID
	}
	return nil
}

func (s *SessionStore) Update(_ context.Context, sessionID string, mutate func(*domain.LiveSession) error) (domain.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sessionID]
	if !ok {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}

	next := cloneSession(*current)
	if err := mutate(&next); err != nil {
		return domain.LiveSession{}, err
	}
	if next.Status == domain.StatusActive && current.Status != domain.StatusActive {
		if other, ok := s.active[next.ClassID]; ok && other != sessionID {
			return domain.LiveSession{}, domain.ErrConflictingSession
		}
		s.active[next.ClassID] = sessionID
	}
	if next.Status == domain.StatusEnded && s.active[next.ClassID] == sessionID {
		delete(s.active, next.ClassID)
	}
	*current = next
	return cloneSession(next), nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	return cloneSession(*session), nil
}

func (s *SessionStore) FindActive(_ context.Context, classID string) (domain.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[classID]
	if !ok {
		return domain.LiveSession{}, domain.ErrSessionNotFound
	}
	return cloneSession(*s.sessions[id]), nil
}

func (s *SessionStore) ListByClass(_ context.Context, classID string) ([]domain.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byClass[classID]
	sessions := make([]domain.LiveSession, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, cloneSession(*s.sessions[id]))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *SessionStore) LoadQuestion(_ context.Context, questionID string) (domain.LiveQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.LiveQuestion{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func cloneSession(s domain.LiveSession) domain.LiveSession {
	out := s
	out.Questions = make([]domain.LiveQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = cloneQuestion(q)
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return out
}

func cloneQuestion(q domain.LiveQuestion) domain.LiveQuestion {
	q.Options = append([]string(nil), q.Options...)
	return q
}
