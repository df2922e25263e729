package app

import (
	"context"
	"sort"

	"live-quiz-service/internal/domain"
)

// Aggregator derives live and historical numbers from the ledger on every call.
// It keeps no state of its own.
type Aggregator struct {
	sessions *SessionStore
	ledger   *ResponseLedger
	roster   Roster
}

func NewAggregator(sessions *SessionStore, ledger *ResponseLedger, roster Roster) *Aggregator {
	return &Aggregator{sessions: sessions, ledger: ledger, roster: roster}
}

// Distribution counts a question's responses per normalized answer.
func (a *Aggregator) Distribution(ctx context.Context, sessionID, questionID string) (map[string]int, error) {
	session, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !hasQuestion(session, questionID) {
		return nil, domain.ErrQuestionNotFound
	}
	responses, err := a.ledger.ForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range responses {
		if r.QuestionID == questionID {
			counts[domain.NormalizeAnswer(r.Answer)]++
		}
	}
	return counts, nil
}

// SessionStats returns distinct participants and a distribution for every question.
func (a *Aggregator) SessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	session, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	responses, err := a.ledger.ForSession(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	return a.statsFor(ctx, session, responses), nil
}

func (a *Aggregator) statsFor(ctx context.Context, session domain.LiveSession, responses []domain.LiveResponse) domain.SessionStats {
	perQuestion := make([]domain.QuestionDistribution, len(session.Questions))
	index := make(map[string]int, len(session.Questions))
	for i, q := range session.Questions {
		index[q.ID] = i
		perQuestion[i] = domain.QuestionDistribution{
			QuestionID: q.ID,
			Order:      q.Order,
			Text:       q.Text,
			Type:       q.Type,
			Counts:     make(map[string]int),
		}
	}

	students := make(map[string]struct{})
	for _, r := range responses {
		i, ok := index[r.QuestionID]
		if !ok {
			continue
		}
		perQuestion[i].Counts[domain.NormalizeAnswer(r.Answer)]++
		perQuestion[i].Total++
		students[r.StudentID] = struct{}{}
	}

	stats := domain.SessionStats{
		SessionID:     session.ID,
		Status:        session.Status,
		TotalStudents: len(students),
		PerQuestion:   perQuestion,
	}
	if a.roster != nil {
		// Roster errors never fail a read.
		if size, ok, err := a.roster.ClassSize(ctx, session.ClassID); err == nil && ok {
			stats.RosterSize = &size
		}
	}
	return stats
}

// DetailedResults reports each student's answers and the overall accuracy over graded responses.
// Unanswered and ungraded questions are left out of every denominator.
func (a *Aggregator) DetailedResults(ctx context.Context, sessionID string) (domain.DetailedResults, error) {
	session, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.DetailedResults{}, err
	}
	responses, err := a.ledger.ForSession(ctx, sessionID)
	if err != nil {
		return domain.DetailedResults{}, err
	}

	questions := make(map[string]domain.LiveQuestion, len(session.Questions))
	for _, q := range session.Questions {
		questions[q.ID] = q
	}

	byStudent := make(map[string]*domain.StudentResult)
	results := domain.DetailedResults{SessionID: session.ID, Status: session.Status}
	for _, r := range responses {
		q, ok := questions[r.QuestionID]
		if !ok {
			continue
		}
		student, ok := byStudent[r.StudentID]
		if !ok {
			student = &domain.StudentResult{StudentID: r.StudentID}
			byStudent[r.StudentID] = student
		}
		student.Answers = append(student.Answers, domain.AnsweredQuestion{
			QuestionID:       q.ID,
			Order:            q.Order,
			Text:             q.Text,
			Type:             q.Type,
			Answer:           r.Answer,
			IsCorrect:        r.IsCorrect,
			TimeSpentSeconds: r.TimeSpentSeconds,
		})
		student.Answered++
		if r.Graded() {
			student.Graded++
			results.GradedCount++
			if *r.IsCorrect {
				student.Correct++
				results.CorrectCount++
			}
		}
	}

	results.PerStudent = make([]domain.StudentResult, 0, len(byStudent))
	for _, student := range byStudent {
		sort.Slice(student.Answers, func(i, j int) bool {
			return student.Answers[i].Order < student.Answers[j].Order
		})
		student.Accuracy = ratio(student.Correct, student.Graded)
		results.PerStudent = append(results.PerStudent, *student)
	}
	sort.Slice(results.PerStudent, func(i, j int) bool {
		return results.PerStudent[i].StudentID < results.PerStudent[j].StudentID
	})
	results.OverallAccuracy = ratio(results.CorrectCount, results.GradedCount)
	return results, nil
}

// Summary builds the historical view of a session.
func (a *Aggregator) Summary(ctx context.Context, session domain.LiveSession) (domain.LiveSessionSummary, error) {
	responses, err := a.ledger.ForSession(ctx, session.ID)
	if err != nil {
		return domain.LiveSessionSummary{}, err
	}
	students := make(map[string]struct{})
	for _, r := range responses {
		students[r.StudentID] = struct{}{}
	}
	return domain.LiveSessionSummary{
		SessionID:        session.ID,
		ClassID:          session.ClassID,
		QuestionCount:    len(session.Questions),
		ResponseCount:    len(responses),
		ParticipantCount: len(students),
		CreatedAt:        session.CreatedAt,
		EndedAt:          session.EndedAt,
	}, nil
}

// History summarizes a class's ended sessions, most recently ended first.
func (a *Aggregator) History(ctx context.Context, classID string) ([]domain.LiveSessionSummary, error) {
	sessions, err := a.sessions.Ended(ctx, classID)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.LiveSessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary, err := a.Summary(ctx, session)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func hasQuestion(session domain.LiveSession, questionID string) bool {
	for _, q := range session.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
