package memory

import (
	"context"
	"fmt"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// StaticGenerator serves questions from a fixed bank keyed by chapter (useful for tests/demos).
// The empty chapter holds the default bank.
type StaticGenerator struct {
	bank map[string][]domain.QuestionDraft
}

func NewStaticGenerator(bank map[string][]domain.QuestionDraft) *StaticGenerator {
	return &StaticGenerator{bank: bank}
}

func (g *StaticGenerator) Generate(_ context.Context, req app.GenerateRequest) ([]domain.QuestionDraft, error) {
	source, ok := g.bank[req.Chapter]
	if !ok {
		return nil, fmt.Errorf("%w: no questions for chapter %q", domain.ErrInvalidInput, req.Chapter)
	}

	allowed := make(map[domain.QuestionType]bool, len(req.Types))
	for _, t := range req.Types {
		allowed[t] = true
	}
	drafts := make([]domain.QuestionDraft, 0, len(source))
	for _, d := range source {
		if len(allowed) > 0 && !allowed[d.Type] {
			continue
		}
		drafts = append(drafts, d)
		if req.Count > 0 && len(drafts) == req.Count {
			break
		}
	}
	return drafts, nil
}

// StaticRoster reports class sizes from configuration.
type StaticRoster struct {
	sizes map[string]int
}

func NewStaticRoster(sizes map[string]int) *StaticRoster {
	return &StaticRoster{sizes: sizes}
}

func (r *StaticRoster) ClassSize(_ context.Context, classID string) (int, bool, error) {
	size, ok := r.sizes[classID]
	return size, ok, nil
}

// SampleQuestionBank provides a minimal default bank; swap the generator for the content service in production.
func SampleQuestionBank() map[string][]domain.QuestionDraft {
	return map[string][]domain.QuestionDraft{
		"": {
			{
				Text:          "What is 2 + 2?",
				Type:          domain.MultipleChoice,
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: "4",
			},
			{
				Text:          "The Pacific is the largest ocean.",
				Type:          domain.TrueFalse,
				CorrectAnswer: "True",
			},
			{
				Text: "Explain in one sentence why the sky looks blue.",
				Type: domain.ShortAnswer,
			},
		},
	}
}
