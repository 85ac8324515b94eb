package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
	AttemptStatusGraded     AttemptStatus = "GRADED"
	AttemptStatusPassed     AttemptStatus = "PASSED"
	AttemptStatusFailed     AttemptStatus = "FAILED"
	AttemptStatusAbandoned  AttemptStatus = "ABANDONED"
)

type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	// CorrectOption is nil once the question has been redacted.
	CorrectOption *int     `json:"correct_option,omitempty" binding:"required"`
}

// Questions is stored as a JSONB column.
type Questions []Question

func (q Questions) Value() (driver.Value, error) {
	return json.Marshal(q)
}

func (q *Questions) Scan(src interface{}) error {
	return scanJSON(src, q)
}

// Answers maps question id to the chosen option index.
type Answers map[string]int

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Answers) Scan(src interface{}) error {
	return scanJSON(src, a)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json source type %T", src)
	}
}

type Quiz struct {
	Base
	CourseID          uuid.UUID `json:"course_id" db:"course_id"`
	Title             string    `json:"title" db:"title"`
	PassingScore      float64   `json:"passing_score" db:"passing_score"`
	MaxAttempts       *int      `json:"max_attempts,omitempty" db:"max_attempts"`
	TimeLimitMinutes  *int      `json:"time_limit_minutes,omitempty" db:"time_limit_minutes"`
	RemediationOnFail bool      `json:"remediation_on_fail" db:"remediation_on_fail"`
	Questions         Questions `json:"questions" db:"questions"`
}

// TimeLimit returns the configured limit, zero when the quiz is untimed.
func (q *Quiz) TimeLimit() time.Duration {
	if q.TimeLimitMinutes == nil || *q.TimeLimitMinutes <= 0 {
		return 0
	}
	return time.Duration(*q.TimeLimitMinutes) * time.Minute
}

// Redacted returns a copy without the answer key.
func (q *Quiz) Redacted() *Quiz {
	cp := *q
	cp.Questions = make(Questions, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectOption = nil
		cp.Questions[i] = question
	}
	return &cp
}

type CreateQuizRequest struct {
	Title             string     `json:"title" binding:"required,max=200"`
	PassingScore      float64    `json:"passing_score" binding:"min=0,max=100"`
	MaxAttempts       *int       `json:"max_attempts" binding:"omitempty,min=1"`
	TimeLimitMinutes  *int       `json:"time_limit_minutes" binding:"omitempty,min=1"`
	RemediationOnFail bool       `json:"remediation_on_fail"`
	Questions         []Question `json:"questions" binding:"required,min=1,dive"`
}

type QuizAttempt struct {
	Base
	QuizID               uuid.UUID     `json:"quiz_id" db:"quiz_id"`
	UserID               uuid.UUID     `json:"user_id" db:"user_id"`
	AttemptNumber        int           `json:"attempt_number" db:"attempt_number"`
	Status               AttemptStatus `json:"status" db:"status"`
	Score                *float64      `json:"score,omitempty" db:"score"`
	RequiresRemediation  bool          `json:"requires_remediation" db:"requires_remediation"`
	RemediationCompleted bool          `json:"remediation_completed" db:"remediation_completed"`
	Answers              Answers       `json:"answers,omitempty" db:"answers"`
	StartedAt            time.Time     `json:"started_at" db:"started_at"`
	SubmittedAt          *time.Time    `json:"submitted_at,omitempty" db:"submitted_at"`
}

type SubmitAttemptRequest struct {
	Answers Answers `json:"answers" binding:"required"`
}
