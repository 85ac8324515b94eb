// Package gate decides whether a collaborator may start another quiz attempt.
package gate

import "github.com/jwalitptl/lms-api/internal/model"

type Reason string

const (
	ReasonAttemptInProgress  Reason = "attempt_in_progress"
	ReasonMaxAttemptsReached Reason = "max_attempts_reached"
	ReasonRemediationPending Reason = "remediation_pending"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

// Evaluate applies the attempt rules in order: an open attempt blocks, then the
// attempt cap (nil or non-positive means unlimited), then unfinished remediation
// on the last attempt.
func Evaluate(prior []*model.QuizAttempt, maxAttempts *int, last *model.QuizAttempt) Decision {
	if last != nil && last.Status == model.AttemptStatusInProgress {
		return Decision{Reason: ReasonAttemptInProgress}
	}
	if maxAttempts != nil && *maxAttempts > 0 && len(prior) >= *maxAttempts {
		return Decision{Reason: ReasonMaxAttemptsReached}
	}
	if last != nil && last.RequiresRemediation && !last.RemediationCompleted {
		return Decision{Reason: ReasonRemediationPending}
	}
	return Decision{Allowed: true}
}

func CanStartNewAttempt(prior []*model.QuizAttempt, maxAttempts *int, last *model.QuizAttempt) bool {
	return Evaluate(prior, maxAttempts, last).Allowed
}

// LastAttempt returns the attempt with the highest attempt number, or nil.
func LastAttempt(attempts []*model.QuizAttempt) *model.QuizAttempt {
	var last *model.QuizAttempt
	for _, a := range attempts {
		if last == nil || a.AttemptNumber > last.AttemptNumber {
			last = a
		}
	}
	return last
}
