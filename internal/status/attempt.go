package status

import "github.com/jwalitptl/lms-api/internal/model"

type AttemptResult string

const (
	AttemptInProgress AttemptResult = "in_progress"
	AttemptPassed     AttemptResult = "passed"
	AttemptFailed     AttemptResult = "failed"
	AttemptPending    AttemptResult = "pending"
	AttemptAbandoned  AttemptResult = "abandoned"
)

var AttemptResults = []AttemptResult{
	AttemptInProgress,
	AttemptPassed,
	AttemptFailed,
	AttemptPending,
	AttemptAbandoned,
}

// ResolveAttempt turns a stored attempt status into a pass/fail badge.
// A graded or submitted attempt without a score stays pending.
func ResolveAttempt(s model.AttemptStatus, score *float64, passingScore float64) AttemptResult {
	switch s {
	case model.AttemptStatusInProgress:
		return AttemptInProgress
	case model.AttemptStatusPassed:
		return AttemptPassed
	case model.AttemptStatusFailed:
		return AttemptFailed
	case model.AttemptStatusAbandoned:
		return AttemptAbandoned
	case model.AttemptStatusGraded, model.AttemptStatusSubmitted:
		if score == nil {
			return AttemptPending
		}
		if *score >= passingScore {
			return AttemptPassed
		}
		return AttemptFailed
	default:
		return AttemptPending
	}
}
