package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/metrics"
)

// Controller is the externally facing state machine for teachers and students.
type Controller struct {
	store      *SessionStore
	ledger     *ResponseLedger
	aggregator *Aggregator
	queue      *GradingQueue
	questions  QuestionRepository

	generator QuestionGenerator
	roster    Roster
	events    EventPublisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	locks *sessionLocks
}

// Option customizes a Controller.
type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithGenerator(g QuestionGenerator) Option {
	return func(c *Controller) { c.generator = g }
}

func WithRoster(r Roster) Option {
	return func(c *Controller) { c.roster = r }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(c *Controller) { c.events = p }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(sessions SessionRepository, responses ResponseRepository, questions QuestionRepository, opts ...Option) *Controller {
	c := &Controller{
		questions: questions,
		logger:    zap.NewNop(),
		now:       time.Now,
		locks:     newSessionLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = NewSessionStoreWithClock(sessions, c.now)
	c.ledger = NewResponseLedgerWithClock(responses, questions, c.now)
	c.aggregator = NewAggregator(c.store, c.ledger, c.roster)
	c.queue = NewGradingQueue(c.store, c.ledger)
	return c
}

// CreateSession stores a new session for the teacher's class from explicit questions.
func (c *Controller) CreateSession(ctx context.Context, caller domain.Caller, timeLimitSeconds int, drafts []domain.QuestionDraft) (domain.SessionSnapshot, error) {
	session, err := c.store.Create(ctx, caller.ClassID, timeLimitSeconds, drafts)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	c.logger.Info("live session created",
		zap.String("session_id", session.ID),
		zap.String("class_id", session.ClassID),
		zap.Int("questions", len(session.Questions)),
	)
	return session.Snapshot(), nil
}

// GenerateSession asks the content generator for questions and stores a new session with them.
func (c *Controller) GenerateSession(ctx context.Context, caller domain.Caller, req GenerateRequest) (domain.SessionSnapshot, error) {
	if c.generator == nil {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: question generation is not configured", domain.ErrInvalidInput)
	}
	req.ClassID = caller.ClassID
	drafts, err := c.generator.Generate(ctx, req)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("generate questions: %w", err)
	}
	return c.CreateSession(ctx, caller, req.TimeLimitSeconds, drafts)
}

// Start opens the session at its first question.
func (c *Controller) Start(ctx context.Context, caller domain.Caller, sessionID string) (domain.SessionSnapshot, error) {
	session, err := c.transition(ctx, caller, sessionID, "start", func() (domain.LiveSession, error) {
		return c.store.Transition(ctx, sessionID, domain.StatusActive)
	})
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// Next advances the broadcast pointer. On the last question it fails with domain.ErrNoMoreQuestions.
func (c *Controller) Next(ctx context.Context, caller domain.Caller, sessionID string) (domain.SessionSnapshot, error) {
	session, err := c.transition(ctx, caller, sessionID, "next", func() (domain.LiveSession, error) {
		return c.store.Advance(ctx, sessionID)
	})
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// End closes the session and publishes its summary.
func (c *Controller) End(ctx context.Context, caller domain.Caller, sessionID string) (domain.SessionSnapshot, error) {
	session, err := c.transition(ctx, caller, sessionID, "end", func() (domain.LiveSession, error) {
		return c.store.Transition(ctx, sessionID, domain.StatusEnded)
	})
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	c.publishEnded(ctx, session)
	return session.Snapshot(), nil
}

func (c *Controller) transition(ctx context.Context, caller domain.Caller, sessionID, action string, apply func() (domain.LiveSession, error)) (domain.LiveSession, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()

	session, err := c.store.Get(ctx, sessionID)
	if err == nil && session.ClassID != caller.ClassID {
		err = fmt.Errorf("%w: %w", domain.ErrInvalidTransition, domain.ErrForbidden)
	}
	if err == nil {
		session, err = apply()
		if errors.Is(err, domain.ErrNotActive) {
			err = fmt.Errorf("%w: %w", domain.ErrInvalidTransition, err)
		}
	}
	c.metrics.Transition(action, err)
	if err != nil {
		c.logger.Info("live session transition rejected",
			zap.String("action", action),
			zap.String("session_id", sessionID),
			zap.String("class_id", caller.ClassID),
			zap.Error(err),
		)
		return domain.LiveSession{}, err
	}
	c.logger.Info("live session transition",
		zap.String("action", action),
		zap.String("session_id", sessionID),
		zap.String("status", string(session.Status)),
		zap.Int("current_question_index", session.CurrentQuestionIndex),
	)
	return session, nil
}

func (c *Controller) publishEnded(ctx context.Context, session domain.LiveSession) {
	if c.events == nil {
		return
	}
	summary, err := c.aggregator.Summary(ctx, session)
	if err == nil {
		err = c.events.PublishSessionEnded(ctx, summary)
	}
	if err != nil {
		c.logger.Warn("publish session ended", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// Status returns the authoritative snapshot. Safe to poll at any rate.
func (c *Controller) Status(ctx context.Context, caller domain.Caller, sessionID string) (domain.SessionSnapshot, error) {
	session, err := c.owned(ctx, caller, sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// Questions lists the session's questions in order. Correct answers are never serialized.
func (c *Controller) Questions(ctx context.Context, caller domain.Caller, sessionID string) ([]domain.LiveQuestion, error) {
	session, err := c.owned(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Questions, nil
}

// FindActive returns the class's active session snapshot, or nil when there is none.
func (c *Controller) FindActive(ctx context.Context, caller domain.Caller, classID string) (*domain.SessionSnapshot, error) {
	if classID != caller.ClassID {
		return nil, domain.ErrForbidden
	}
	session, ok, err := c.store.FindActive(ctx, classID)
	if err != nil || !ok {
		return nil, err
	}
	snap := session.Snapshot()
	return &snap, nil
}

// NextQuestion returns the first question after the student's furthest answered one, or nil when the
// student is done, the session has not started, or it has ended. The broadcast pointer is not consulted.
func (c *Controller) NextQuestion(ctx context.Context, caller domain.Caller, sessionID string) (*domain.LiveQuestion, error) {
	session, err := c.owned(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StatusActive {
		return nil, nil
	}
	responses, err := c.ledger.ForStudent(ctx, sessionID, caller.ID)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(session.Questions))
	for _, q := range session.Questions {
		order[q.ID] = q.Order
	}
	answered := make(map[string]struct{}, len(responses))
	furthest := -1
	for _, r := range responses {
		answered[r.QuestionID] = struct{}{}
		if o, ok := order[r.QuestionID]; ok && o > furthest {
			furthest = o
		}
	}
	for i := furthest + 1; i < len(session.Questions); i++ {
		q := session.Questions[i]
		if _, done := answered[q.ID]; !done {
			return &q, nil
		}
	}
	return nil, nil
}

// SubmitAnswer records a student's answer. A repeated submission is reported as already submitted
// with the stored outcome, never as an error.
func (c *Controller) SubmitAnswer(ctx context.Context, caller domain.Caller, questionID, answer string, timeSpentSeconds int) (domain.SubmitResult, error) {
	result, err := c.submit(ctx, caller, questionID, answer, timeSpentSeconds)
	switch {
	case err != nil:
		c.metrics.Submission("rejected")
	default:
		c.metrics.Submission(string(result.Status))
	}
	return result, err
}

func (c *Controller) submit(ctx context.Context, caller domain.Caller, questionID, answer string, timeSpentSeconds int) (domain.SubmitResult, error) {
	question, err := c.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	unlock := c.locks.rlock(question.SessionID)
	defer unlock()

	session, err := c.store.Get(ctx, question.SessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if session.ClassID != caller.ClassID {
		return domain.SubmitResult{}, domain.ErrForbidden
	}
	switch session.Status {
	case domain.StatusEnded:
		return domain.SubmitResult{}, domain.ErrSessionClosed
	case domain.StatusCreated:
		return domain.SubmitResult{}, domain.ErrSessionNotStarted
	}

	response, err := c.ledger.Submit(ctx, questionID, caller.ID, answer, timeSpentSeconds)
	status := domain.Submitted
	if IsDuplicate(err) {
		status = domain.AlreadySubmitted
		err = nil
		c.logger.Debug("duplicate submission",
			zap.String("question_id", questionID),
			zap.String("student_id", caller.ID),
		)
	}
	if err != nil {
		return domain.SubmitResult{}, err
	}

	result := domain.SubmitResult{
		Status:     status,
		ResponseID: response.ID,
		QuestionID: questionID,
	}
	if question.Type.Objective() {
		result.IsCorrect = response.IsCorrect
	}
	return result, nil
}

// LiveStats returns participant count and per-question distributions. A created session simply has
// empty distributions.
func (c *Controller) LiveStats(ctx context.Context, caller domain.Caller, sessionID string) (domain.SessionStats, error) {
	if _, err := c.owned(ctx, caller, sessionID); err != nil {
		return domain.SessionStats{}, err
	}
	return c.aggregator.SessionStats(ctx, sessionID)
}

// Distribution returns one question's answer counts.
func (c *Controller) Distribution(ctx context.Context, caller domain.Caller, sessionID, questionID string) (map[string]int, error) {
	if _, err := c.owned(ctx, caller, sessionID); err != nil {
		return nil, err
	}
	return c.aggregator.Distribution(ctx, sessionID, questionID)
}

// DetailedResults returns per-student results and overall accuracy.
func (c *Controller) DetailedResults(ctx context.Context, caller domain.Caller, sessionID string) (domain.DetailedResults, error) {
	if _, err := c.owned(ctx, caller, sessionID); err != nil {
		return domain.DetailedResults{}, err
	}
	return c.aggregator.DetailedResults(ctx, sessionID)
}

// History lists summaries of the class's ended sessions.
func (c *Controller) History(ctx context.Context, caller domain.Caller, classID string) ([]domain.LiveSessionSummary, error) {
	if classID != caller.ClassID {
		return nil, domain.ErrForbidden
	}
	return c.aggregator.History(ctx, classID)
}

// PendingGrading lists ungraded short answer responses of a session.
func (c *Controller) PendingGrading(ctx context.Context, caller domain.Caller, sessionID string) ([]domain.LiveResponse, error) {
	if _, err := c.owned(ctx, caller, sessionID); err != nil {
		return nil, err
	}
	return c.queue.Pending(ctx, sessionID)
}

// GradeResponse resolves one pending response.
func (c *Controller) GradeResponse(ctx context.Context, caller domain.Caller, responseID string, isCorrect bool) (domain.LiveResponse, error) {
	response, err := c.ledger.Get(ctx, responseID)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	if _, err := c.owned(ctx, caller, response.SessionID); err != nil {
		return domain.LiveResponse{}, err
	}
	graded, err := c.queue.Resolve(ctx, responseID, isCorrect)
	if err != nil {
		return domain.LiveResponse{}, err
	}
	c.metrics.Grade(isCorrect)
	c.logger.Info("response graded",
		zap.String("response_id", responseID),
		zap.String("session_id", graded.SessionID),
		zap.Bool("is_correct", isCorrect),
	)
	return graded, nil
}

func (c *Controller) owned(ctx context.Context, caller domain.Caller, sessionID string) (domain.LiveSession, error) {
	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return domain.LiveSession{}, err
	}
	if session.ClassID != caller.ClassID {
		return domain.LiveSession{}, domain.ErrForbidden
	}
	return session, nil
}
