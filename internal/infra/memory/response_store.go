package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// ResponseStore is an in-memory implementation of app.ResponseRepository.
// Responses are partitioned per question so inserts from different questions never share a lock; the
// partition lock is what makes the (question, student) check-and-insert atomic.
type ResponseStore struct {
	mu         sync.RWMutex
	partitions map[string]*partition // question id -> partition
	bySession  map[string][]*partition
	index      sync.Map // response id -> *partition
}

type partition struct {
	sessionID string

	mu        sync.Mutex
	byStudent map[string]*domain.LiveResponse
	byID      map[string]*domain.LiveResponse
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{
		partitions: make(map[string]*partition),
		bySession:  make(map[string][]*partition),
	}
}

func (s *ResponseStore) partitionFor(questionID, sessionID string) *partition {
	s.mu.RLock()
	p, ok := s.partitions[questionID]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.partitions[questionID]; ok {
		return p
	}
	p = &partition{
		sessionID: sessionID,
		byStudent: make(map[string]*domain.LiveResponse),
		byID:      make(map[string]*domain.LiveResponse),
	}
	s.partitions[questionID] = p
	s.bySession[sessionID] = append(s.bySession[sessionID], p)
	return p
}

func (s *ResponseStore) Insert(_ context.Context, response domain.LiveResponse) (domain.LiveResponse, error) {
	p := s.partitionFor(response.QuestionID, response.SessionID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.byStudent[response.StudentID]; ok {
		return cloneResponse(*existing), domain.ErrAlreadyAnswered
	}
	stored := cloneResponse(response)
	p.byStudent[response.StudentID] = &stored
	p.byID[response.ID] = &stored
	s.index.Store(response.ID, p)
	return cloneResponse(stored), nil
}

func (s *ResponseStore) Get(_ context.Context, responseID string) (domain.LiveResponse, error) {
	v, ok := s.index.Load(responseID)
	if !ok {
		return domain.LiveResponse{}, domain.ErrResponseNotFound
	}
	p := v.(*partition)
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneResponse(*p.byID[responseID]), nil
}

func (s *ResponseStore) Grade(_ context.Context, responseID string, isCorrect bool, gradedAt time.Time) (domain.LiveResponse, error) {
	v, ok := s.index.Load(responseID)
	if !ok {
		return domain.LiveResponse{}, domain.ErrResponseNotFound
	}
	p := v.(*partition)
	p.mu.Lock()
	defer p.mu.Unlock()
	response := p.byID[responseID]
	if response.Graded() {
		return domain.LiveResponse{}, domain.ErrAlreadyGraded
	}
	response.IsCorrect = &isCorrect
	response.GradedAt = &gradedAt
	return cloneResponse(*response), nil
}

func (s *ResponseStore) ListBySession(_ context.Context, sessionID string) ([]domain.LiveResponse, error) {
	s.mu.RLock()
	partitions := append([]*partition(nil), s.bySession[sessionID]...)
	s.mu.RUnlock()

	var responses []domain.LiveResponse
	for _, p := range partitions {
		p.mu.Lock()
		for _, r := range p.byID {
			responses = append(responses, cloneResponse(*r))
		}
		p.mu.Unlock()
	}
	sortBySubmission(responses)
	return responses, nil
}

func sortBySubmission(responses []domain.LiveResponse) {
	sort.Slice(responses, func(i, j int) bool {
		if !responses[i].SubmittedAt.Equal(responses[j].SubmittedAt) {
			return responses[i].SubmittedAt.Before(responses[j].SubmittedAt)
		}
		return responses[i].ID < responses[j].ID
	})
}

func cloneResponse(r domain.LiveResponse) domain.LiveResponse {
	if r.IsCorrect != nil {
		v := *r.IsCorrect
		r.IsCorrect = &v
	}
	if r.GradedAt != nil {
		t := *r.GradedAt
		r.GradedAt = &t
	}
	return r
}
