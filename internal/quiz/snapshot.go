package quiz

import (
	"time"

	"taqneeq-quiz/internal/common/errors"
	"taqneeq-quiz/internal/models"
)

// Anomaly kinds recorded when the service answers consistently in shape but not in logic.
const (
	AnomalyMissingNextQuestion = "missing_next_question"
	AnomalyRepeatedQuestion    = "repeated_question"
	AnomalyCounterRegression   = "questions_asked_regression"
)

// Anomaly is one absorbed protocol inconsistency.
type Anomaly struct {
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
	QuestionID string    `json:"question_id,omitempty"`
	At         time.Time `json:"at"`
}

// Snapshot is an immutable copy of the controller's observable state.
// Question and Result are never both set.
type Snapshot struct {
	Phase               Phase
	SessionID           string
	Question            *models.Question
	QuestionsAsked      int
	Result              *models.ClassificationResult
	Explanation         *models.Explanation
	ExplanationDegraded bool
	ExplanationError    *errors.StandardError
	Err                 *errors.StandardError
	Anomalies           []Anomaly
	Metadata            *models.SessionMetadata
}

// Progress returns the adopted round count and the service's estimate, if any.
func (s Snapshot) Progress() (asked int, estimated string) {
	if s.Metadata != nil {
		estimated = s.Metadata.EstimatedQuestions
	}
	return s.QuestionsAsked, estimated
}
