package domain

import "time"

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

const (
	StatusCreated SessionStatus = "created"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// QuestionType decides how a response is graded.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer:
		return true
	}
	return false
}

// Objective reports whether responses to t are graded at submission time.
func (t QuestionType) Objective() bool {
	return t == MultipleChoice || t == TrueFalse
}

// LiveQuestion is one question of a session. Questions never change after creation.
type LiveQuestion struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"session_id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"-"`
	Order         int          `json:"order"`
}

// LiveSession is one run of a live quiz for a class.
type LiveSession struct {
	ID                   string         `json:"id"`
	ClassID              string         `json:"class_id"`
	Status               SessionStatus  `json:"status"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	TimeLimitSeconds     int            `json:"time_limit_seconds,omitempty"`
	Questions            []LiveQuestion `json:"questions"`
	CreatedAt            time.Time      `json:"created_at"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	EndedAt              *time.Time     `json:"ended_at,omitempty"`
}

// QuestionAt returns the question at the given order, if any.
func (s LiveSession) QuestionAt(order int) (LiveQuestion, bool) {
	if order < 0 || order >= len(s.Questions) {
		return LiveQuestion{}, false
	}
	return s.Questions[order], true
}

// LiveResponse is a student's answer to one question. IsCorrect is nil until graded.
type LiveResponse struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	QuestionID       string     `json:"question_id"`
	StudentID        string     `json:"student_id"`
	Answer           string     `json:"answer"`
	IsCorrect        *bool      `json:"is_correct"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	GradedAt         *time.Time `json:"graded_at,omitempty"`
}

// Graded reports whether correctness has been decided.
func (r LiveResponse) Graded() bool {
	return r.IsCorrect != nil
}

// QuestionDraft is question content handed over at session creation.
type QuestionDraft struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
}

// SessionSnapshot is the pollable view of a session.
type SessionSnapshot struct {
	ID                   string        `json:"id"`
	ClassID              string        `json:"class_id"`
	Status               SessionStatus `json:"status"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	QuestionCount        int           `json:"question_count"`
	TimeLimitSeconds     int           `json:"time_limit_seconds,omitempty"`
	CurrentQuestion      *LiveQuestion `json:"current_question,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	StartedAt            *time.Time    `json:"started_at,omitempty"`
	EndedAt              *time.Time    `json:"ended_at,omitempty"`
}

// Snapshot builds the pollable view. The broadcast question is included only while active.
func (s LiveSession) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:                   s.ID,
		ClassID:              s.ClassID,
		Status:               s.Status,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		QuestionCount:        len(s.Questions),
		TimeLimitSeconds:     s.TimeLimitSeconds,
		CreatedAt:            s.CreatedAt,
		StartedAt:            s.StartedAt,
		EndedAt:              s.EndedAt,
	}
	if s.Status == StatusActive {
		if q, ok := s.QuestionAt(s.CurrentQuestionIndex); ok {
			snap.CurrentQuestion = &q
		}
	}
	return snap
}

// SubmitStatus distinguishes a fresh submission from a repeated one.
type SubmitStatus string

const (
	Submitted        SubmitStatus = "submitted"
	AlreadySubmitted SubmitStatus = "already_submitted"
)

// SubmitResult is returned to students. IsCorrect is withheld for subjective questions.
type SubmitResult struct {
	Status     SubmitStatus `json:"status"`
	ResponseID string       `json:"response_id"`
	QuestionID string       `json:"question_id"`
	IsCorrect  *bool        `json:"is_correct,omitempty"`
}

// QuestionDistribution counts responses per normalized answer for one question.
type QuestionDistribution struct {
	QuestionID string         `json:"question_id"`
	Order      int            `json:"order"`
	Text       string         `json:"text"`
	Type       QuestionType   `json:"question_type"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}

// SessionStats is the live dashboard view.
type SessionStats struct {
	SessionID     string                 `json:"session_id"`
	Status        SessionStatus          `json:"status"`
	TotalStudents int                    `json:"total_students"`
	RosterSize    *int                   `json:"roster_size,omitempty"`
	PerQuestion   []QuestionDistribution `json:"per_question"`
}

// AnsweredQuestion is one row of a student's detailed results.
type AnsweredQuestion struct {
	QuestionID       string       `json:"question_id"`
	Order            int          `json:"order"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"question_type"`
	Answer           string       `json:"answer"`
	IsCorrect        *bool        `json:"is_correct"`
	TimeSpentSeconds int          `json:"time_spent_seconds"`
}

// StudentResult aggregates one student's answers in a session.
type StudentResult struct {
	StudentID string             `json:"student_id"`
	Answers   []AnsweredQuestion `json:"answers"`
	Answered  int                `json:"answered"`
	Graded    int                `json:"graded"`
	Correct   int                `json:"correct"`
	Accuracy  float64            `json:"accuracy"`
}

// DetailedResults is the post-session report.
type DetailedResults struct {
	SessionID       string          `json:"session_id"`
	Status          SessionStatus   `json:"status"`
	PerStudent      []StudentResult `json:"per_student"`
	GradedCount     int             `json:"graded_count"`
	CorrectCount    int             `json:"correct_count"`
	OverallAccuracy float64         `json:"overall_accuracy"`
}

// LiveSessionSummary is the historical view of a concluded session.
type LiveSessionSummary struct {
	SessionID        string     `json:"session_id"`
	ClassID          string     `json:"class_id"`
	QuestionCount    int        `json:"question_count"`
	ResponseCount    int        `json:"response_count"`
	ParticipantCount int        `json:"participant_count"`
	CreatedAt        time.Time  `json:"created_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
}

// Role is the kind of authenticated caller.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Caller identifies who issues a request. It always comes from a verified token.
type Caller struct {
	ID      string
	Role    Role
	ClassID string
}
