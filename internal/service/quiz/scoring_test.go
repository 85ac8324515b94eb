package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/lms-api/internal/model"
)

func TestScore(t *testing.T) {
	questions := testQuiz().Questions

	assert.Equal(t, 100.0, Score(questions, model.Answers{"q1": 0, "q2": 1, "q3": 2, "q4": 0}))
	assert.Equal(t, 50.0, Score(questions, model.Answers{"q1": 0, "q2": 1}))
	assert.Equal(t, 0.0, Score(questions, nil))
	assert.Equal(t, 0.0, Score(nil, model.Answers{"q1": 0}))
}

func TestValidateAnswers(t *testing.T) {
	questions := testQuiz().Questions

	assert.NoError(t, validateAnswers(questions, model.Answers{"q3": 2}))
	assert.Error(t, validateAnswers(questions, model.Answers{"q3": 3}))
	assert.Error(t, validateAnswers(questions, model.Answers{"q1": -1}))
	assert.Error(t, validateAnswers(questions, model.Answers{"zz": 0}))
}

func TestPrepareQuestions(t *testing.T) {
	_, err := prepareQuestions([]model.Question{{ID: "a", Options: []string{"x"}, CorrectOption: intPtr(1)}})
	assert.Error(t, err)

	_, err = prepareQuestions([]model.Question{
		{ID: "a", Options: []string{"x", "y"}, CorrectOption: intPtr(0)},
		{ID: "a", Options: []string{"x", "y"}, CorrectOption: intPtr(0)},
	})
	assert.ErrorContains(t, err, "duplicate")

	_, err = prepareQuestions([]model.Question{{ID: "a", Options: []string{"x", "y"}}})
	assert.ErrorContains(t, err, "correct option")
}
