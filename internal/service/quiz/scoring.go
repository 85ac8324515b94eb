package quiz

import (
	"fmt"

	"github.com/jwalitptl/lms-api/internal/model"
)

// Score returns the percentage of questions answered correctly. Unanswered
// questions count as wrong.
func Score(questions model.Questions, answers model.Answers) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		if chosen, ok := answers[q.ID]; ok && q.CorrectOption != nil && chosen == *q.CorrectOption {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}

// validateAnswers rejects answers to unknown questions and out-of-range options.
func validateAnswers(questions model.Questions, answers model.Answers) error {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for id, chosen := range answers {
		q, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown question %q", id)
		}
		if chosen < 0 || chosen >= len(q.Options) {
			return fmt.Errorf("option %d out of range for question %q", chosen, id)
		}
	}
	return nil
}

// prepareQuestions assigns ids to questions that came without one and checks
// the answer key.
func prepareQuestions(questions []model.Question) (model.Questions, error) {
	seen := make(map[string]bool, len(questions))
	out := make(model.Questions, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if q.CorrectOption == nil || *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
			return nil, fmt.Errorf("question %q: correct option out of range", q.ID)
		}
		out[i] = q
	}
	return out, nil
}
